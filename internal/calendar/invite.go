// Package calendar creates the placeholder review-meeting invitations.
// Events are delivered as iCalendar attachments through the mailer; the
// meeting key doubles as the event UID so re-sends update in place.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fairview/review-cycle-service/internal/notify"
)

// Event is one meeting invitation.
type Event struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Organizer   string
	Attendees   []string
}

// Inviter delivers meeting invitations.
type Inviter interface {
	Invite(ctx context.Context, ev Event) error
}

const icsTimeLayout = "20060102T150405Z"

func escapeText(s string) string {
	r := strings.NewReplacer("\\", "\\\\", ";", "\\;", ",", "\\,", "\n", "\\n")
	return r.Replace(s)
}

// ICS renders the event as an iCalendar REQUEST.
func (ev *Event) ICS() []byte {
	var b strings.Builder

	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:-//review-cycle-service//EN\r\n")
	b.WriteString("METHOD:REQUEST\r\n")
	b.WriteString("BEGIN:VEVENT\r\n")
	fmt.Fprintf(&b, "UID:%s\r\n", ev.UID)
	fmt.Fprintf(&b, "DTSTAMP:%s\r\n", time.Now().UTC().Format(icsTimeLayout))
	fmt.Fprintf(&b, "DTSTART:%s\r\n", ev.Start.UTC().Format(icsTimeLayout))
	fmt.Fprintf(&b, "DTEND:%s\r\n", ev.End.UTC().Format(icsTimeLayout))
	fmt.Fprintf(&b, "SUMMARY:%s\r\n", escapeText(ev.Summary))

	if ev.Description != "" {
		fmt.Fprintf(&b, "DESCRIPTION:%s\r\n", escapeText(ev.Description))
	}

	if ev.Organizer != "" {
		fmt.Fprintf(&b, "ORGANIZER:mailto:%s\r\n", ev.Organizer)
	}

	for _, a := range ev.Attendees {
		fmt.Fprintf(&b, "ATTENDEE;RSVP=TRUE:mailto:%s\r\n", a)
	}

	b.WriteString("END:VEVENT\r\n")
	b.WriteString("END:VCALENDAR\r\n")

	return []byte(b.String())
}

// MailInviter sends invitations through the notification mailer.
type MailInviter struct {
	sender notify.Sender
}

func NewMailInviter(sender notify.Sender) *MailInviter {
	return &MailInviter{sender: sender}
}

func (m *MailInviter) Invite(ctx context.Context, ev Event) error {
	const op = "internal.calendar.Invite"

	msg := notify.Message{
		To:      ev.Attendees,
		Subject: ev.Summary,
		HTML:    fmt.Sprintf("<p>%s</p>", ev.Description),
		Attachments: []notify.Attachment{
			{Name: "invite.ics", Content: ev.ICS()},
		},
	}

	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
