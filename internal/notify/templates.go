package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/fairview/review-cycle-service/internal/domain"
)

const dateLayout = "Monday, January 2, 2006"

// ReviewLine is one pending review rendered into a notification body.
type ReviewLine struct {
	Title        string
	EmployeeName string
	ProjectName  string
	DueDate      time.Time
	FormLink     string
}

func reviewTable(lines []ReviewLine) string {
	var b strings.Builder

	b.WriteString("<table border=\"1\" cellpadding=\"6\" cellspacing=\"0\">")
	b.WriteString("<tr><th>Review</th><th>For</th><th>Project</th><th>Due</th><th>Form</th></tr>")

	for _, l := range lines {
		fmt.Fprintf(&b,
			"<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td><a href=\"%s\">open form</a></td></tr>",
			l.Title, l.EmployeeName, l.ProjectName, l.DueDate.Format("2006-01-02"), l.FormLink)
	}

	b.WriteString("</table>")

	return b.String()
}

// NewReviewsRequested is the first notification a reviewer gets when
// ledger entries are created for them.
func NewReviewsRequested(to, reviewerName string, lines []ReviewLine) Message {
	return Message{
		To:      []string{to},
		Subject: "Performance reviews requested",
		HTML: fmt.Sprintf(
			"<p>Dear %s,</p>"+
				"<p>You have been asked to write the following performance reviews. "+
				"Please complete each form by its due date.</p>%s"+
				"<p>Thank you!</p>",
			reviewerName, reviewTable(lines)),
	}
}

// ExternalReviewRequested goes to a client contact.
func ExternalReviewRequested(to, contactName string, lines []ReviewLine) Message {
	return Message{
		To:      []string{to},
		Subject: "Feedback requested",
		HTML: fmt.Sprintf(
			"<p>Dear %s,</p>"+
				"<p>We would greatly value your feedback on the colleagues listed "+
				"below who worked with you. It takes only a few minutes.</p>%s"+
				"<p>Thank you for your time!</p>",
			contactName, reviewTable(lines)),
	}
}

// SelfAppraisalRequested goes to an employee on the cycle kickoff day.
func SelfAppraisalRequested(to, employeeName string, dueDate time.Time, formLink string) Message {
	return Message{
		To:      []string{to},
		Subject: "Self appraisal requested",
		HTML: fmt.Sprintf(
			"<p>Dear %s,</p>"+
				"<p>As part of this review cycle, please complete your "+
				"<a href=\"%s\">self appraisal</a> by %s.</p>",
			employeeName, formLink, dueDate.Format(dateLayout)),
	}
}

// ReviewsReminder is the friendly periodic reminder.
func ReviewsReminder(to, reviewerName string, lines []ReviewLine) Message {
	return Message{
		To:      []string{to},
		Subject: "Reminder: pending performance reviews",
		HTML: fmt.Sprintf(
			"<p>Dear %s,</p>"+
				"<p>This is a friendly reminder that the following reviews are "+
				"still waiting for you:</p>%s",
			reviewerName, reviewTable(lines)),
	}
}

// StrictReminder is the escalated reminder sent close to the drop-dead
// date, with the oversight list in copy.
func StrictReminder(to, reviewerName string, cc []string, lines []ReviewLine, lastDay time.Time) Message {
	return Message{
		To:      []string{to},
		CC:      cc,
		Subject: "Action required: overdue performance reviews",
		HTML: fmt.Sprintf(
			"<p>Dear %s,</p>"+
				"<p>The reviews below are overdue. The last day to complete them "+
				"is <b>%s</b>; afterwards the forms close and missing reviews are "+
				"reported as not submitted.</p>%s",
			reviewerName, lastDay.Format(dateLayout), reviewTable(lines)),
	}
}

// FinalReminder is the last-call notice before entries expire.
func FinalReminder(to, reviewerName string, lines []ReviewLine) Message {
	return Message{
		To:      []string{to},
		Subject: "Final reminder: performance reviews close today",
		HTML: fmt.Sprintf(
			"<p>Dear %s,</p>"+
				"<p>This is the final reminder. The review forms close today; "+
				"anything left incomplete will expire.</p>%s",
			reviewerName, reviewTable(lines)),
	}
}

// PartnerApprovalRequest asks the project partner to confirm or correct
// an upcoming assignment end date.
func PartnerApprovalRequest(to, partnerName, employeeName, projectName string, endDate time.Time, link string) Message {
	return Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Please confirm the end date of %s on %s", employeeName, projectName),
		HTML: fmt.Sprintf(
			"<p>Dear %s,</p>"+
				"<p>%s is recorded to roll off %s on %s. Please "+
				"<a href=\"%s\">confirm this end date or enter a new one</a> so "+
				"the review process can start on time.</p>",
			partnerName, employeeName, projectName, endDate.Format(dateLayout), link),
	}
}

// PartnerEndDateRow is one line of the weekly partner digest.
type PartnerEndDateRow struct {
	EmployeeName string
	ProjectName  string
	EndDate      time.Time
}

// PartnerWeeklyReminder is the Monday digest of upcoming end dates on a
// partner's projects.
func PartnerWeeklyReminder(to, partnerName string, rows []PartnerEndDateRow, staffingSheetURL string) Message {
	var b strings.Builder

	b.WriteString("<table border=\"1\" cellpadding=\"6\" cellspacing=\"0\">")
	b.WriteString("<tr><th>Consultant</th><th>Project</th><th>End date</th></tr>")

	for _, r := range rows {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>",
			r.EmployeeName, r.ProjectName, r.EndDate.Format("2006-01-02"))
	}

	b.WriteString("</table>")

	return Message{
		To:      []string{to},
		Subject: "Weekly check: upcoming project end dates",
		HTML: fmt.Sprintf(
			"<p>Dear %s,</p>"+
				"<p>Please verify the end dates below and correct them in the "+
				"<a href=\"%s\">staffing sheet</a> if they changed:</p>%s",
			partnerName, staffingSheetURL, b.String()),
	}
}

// MeetingScheduleRequest asks the scheduling contact to arrange the
// review meeting for an employee.
func MeetingScheduleRequest(to, schedulerName, employeeName, periodLabel, folderLink string) Message {
	return Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Please schedule the %s review meeting for %s", periodLabel, employeeName),
		HTML: fmt.Sprintf(
			"<p>Dear %s,</p>"+
				"<p>The %s review material for %s is ready in "+
				"<a href=\"%s\">their folder</a>. A placeholder invite has been "+
				"created; please find a slot that works for all attendees.</p>",
			schedulerName, periodLabel, employeeName, folderLink),
	}
}

// ResultsMail carries the condensed scored results of an informal cycle.
func ResultsMail(to, employeeName, periodLabel string, workbook []byte) Message {
	return Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Your %s review results", periodLabel),
		HTML: fmt.Sprintf(
			"<p>Dear %s,</p>"+
				"<p>Attached you will find the summarized results of your %s "+
				"reviews. Reach out to your manager or mentor if you would like "+
				"to talk them through.</p>",
			employeeName, periodLabel),
		Attachments: []Attachment{
			{Name: fmt.Sprintf("%s %s results.xlsx", employeeName, periodLabel), Content: workbook},
		},
	}
}

// CycleFinished notifies the scheduling contact that the drop-dead run
// went through.
func CycleFinished(to, schedulerName, periodLabel string) Message {
	return Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Review cycle %s closed", periodLabel),
		HTML: fmt.Sprintf(
			"<p>Dear %s,</p>"+
				"<p>The %s review cycle has been closed: folders are populated, "+
				"access has been granted and all unfinished review forms have "+
				"expired.</p>",
			schedulerName, periodLabel),
	}
}

// AdminFailureReport surfaces a per-row processing failure to the admins.
func AdminFailureReport(admins []string, jobName, context string, err error) Message {
	return Message{
		To:      admins,
		Subject: fmt.Sprintf("[review-cycle] %s: processing failure", jobName),
		HTML: fmt.Sprintf(
			"<p>The <b>%s</b> job hit a failure and skipped the affected row.</p>"+
				"<p>Context: %s</p><p>Error: <code>%s</code></p>",
			jobName, context, err),
	}
}

// JobNotice reports job start or completion to the admins.
func JobNotice(admins []string, jobName, status string, runDate time.Time) Message {
	return Message{
		To:      admins,
		Subject: fmt.Sprintf("[review-cycle] %s %s", jobName, status),
		HTML: fmt.Sprintf("<p>Job <b>%s</b> %s on %s.</p>",
			jobName, status, runDate.Format(dateLayout)),
	}
}

// Lines converts ledger entries into rendered review lines.
func Lines(entries []domain.NeededReview, formBaseURL string) []ReviewLine {
	lines := make([]ReviewLine, 0, len(entries))

	for _, nr := range entries {
		lines = append(lines, ReviewLine{
			Title:        nr.Kind.Title(),
			EmployeeName: nr.EmployeeName,
			ProjectName:  nr.ProjectName,
			DueDate:      nr.DueDate,
			FormLink:     fmt.Sprintf("%s/%s", strings.TrimRight(formBaseURL, "/"), nr.ID),
		})
	}

	return lines
}
