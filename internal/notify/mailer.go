// Package notify delivers the cycle's email notifications over SMTP and
// holds the message templates.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail/v2"

	"github.com/fairview/review-cycle-service/internal/config"
)

// Attachment is an in-memory file attached to a message.
type Attachment struct {
	Name    string
	Content []byte
}

// Message is one outbound email.
type Message struct {
	To          []string
	CC          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Sender dispatches messages. Implemented by Mailer; services depend on
// the interface so tests can capture outbound mail.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer sends messages through an SMTP relay with mandatory STARTTLS.
type Mailer struct {
	dialer *mail.Dialer
	from   string
}

func NewMailer(cfg config.SMTP) *Mailer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}

	return &Mailer{
		dialer: d,
		from:   cfg.From,
	}
}

func (m *Mailer) Send(ctx context.Context, msg Message) error {
	const op = "internal.notify.Send"

	if len(msg.To) == 0 {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	message := mail.NewMessage()
	message.SetHeader("From", m.from)
	message.SetHeader("To", msg.To...)

	if len(msg.CC) > 0 {
		message.SetHeader("Cc", msg.CC...)
	}

	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/html", msg.HTML)

	for _, a := range msg.Attachments {
		message.AttachReader(a.Name, bytes.NewReader(a.Content))
	}

	if err := m.dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("%s: failed to send mail: %w", op, err)
	}

	return nil
}
