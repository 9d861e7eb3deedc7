package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/fairview/review-cycle-service/internal/apperrors"
	"github.com/fairview/review-cycle-service/internal/calendar"
	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/drive"
	"github.com/fairview/review-cycle-service/internal/kms"
	"github.com/fairview/review-cycle-service/internal/notify"
	"github.com/fairview/review-cycle-service/internal/repository"
	"github.com/fairview/review-cycle-service/internal/schedule"
	"github.com/fairview/review-cycle-service/internal/sheet"
	"github.com/fairview/review-cycle-service/pkg/logger/sl"
)

// FinalizerService closes the cycle on the drop-dead day: builds the
// review artifacts per employee, grants access, schedules the meetings
// and expires everything left unfinished.
type FinalizerService interface {
	// Run executes the drop-dead handling when today is the drop-dead
	// day, or unconditionally when force is set.
	Run(ctx context.Context, force bool) error

	// RunAccessOff strips non-owner folder permissions on the access-off
	// day.
	RunAccessOff(ctx context.Context, force bool) error
}

type FinalizerServiceImpl struct {
	cycle       *Cycle
	roster      repository.RosterQueryRepository
	ledger      repository.LedgerQueryRepository
	ledgerCmd   repository.LedgerCommandRepository
	submissions repository.SubmissionRepository
	folders     repository.FolderRepository
	store       drive.Store
	kms         kms.Client
	inviter     calendar.Inviter
	sender      notify.Sender
	log         *slog.Logger
}

func NewFinalizerService(
	cycle *Cycle,
	roster repository.RosterQueryRepository,
	ledger repository.LedgerQueryRepository,
	ledgerCmd repository.LedgerCommandRepository,
	submissions repository.SubmissionRepository,
	folders repository.FolderRepository,
	store drive.Store,
	kmsClient kms.Client,
	inviter calendar.Inviter,
	sender notify.Sender,
	log *slog.Logger,
) *FinalizerServiceImpl {
	return &FinalizerServiceImpl{
		cycle:       cycle,
		roster:      roster,
		ledger:      ledger,
		ledgerCmd:   ledgerCmd,
		submissions: submissions,
		folders:     folders,
		store:       store,
		kms:         kmsClient,
		inviter:     inviter,
		sender:      sender,
		log:         log,
	}
}

func (s *FinalizerServiceImpl) Run(ctx context.Context, force bool) error {
	const op = "internal.service.FinalizerService.Run"

	if !force && !schedule.SameDay(s.cycle.Today, s.cycle.Milestones.DropDead) {
		s.log.Info("not the drop-dead day, nothing to finalize")
		return nil
	}

	snap, err := LoadSnapshot(ctx, s.roster)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	excluded := make(map[string]struct{}, len(s.cycle.Settings.ExcludedNames))
	for _, name := range s.cycle.Settings.ExcludedNames {
		excluded[normalizeName(name)] = struct{}{}
	}

	for i := range snap.Employees {
		e := &snap.Employees[i]

		if !s.finalizeEligible(snap, e) {
			continue
		}

		if err := s.finalizeEmployee(ctx, snap, e, excluded); err != nil {
			reportFailure(ctx, s.log, s.sender, s.cycle.Settings.AdminEmails, "drop-dead",
				fmt.Sprintf("finalize '%s'", e.Name), err)
		}
	}

	expired, err := s.ledgerCmd.ExpireAllUnfinished(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("unfinished reviews expired", slog.Int64("count", expired))

	if err := s.store.GrantWrite(ctx, s.cycle.Settings.EmployeesFolderID, s.cycle.Settings.WriteAccessEmail); err != nil {
		s.log.Error("failed to restore writer access", sl.Err(err))
	}

	if s.cycle.Settings.SchedulerEmail != "" {
		msg := notify.CycleFinished(s.cycle.Settings.SchedulerEmail,
			s.cycle.Settings.SchedulerName, s.cycle.PeriodLabel())
		if err := s.sender.Send(ctx, msg); err != nil {
			s.log.Error("failed to notify scheduler", sl.Err(err))
		}
	}

	return nil
}

// finalizeEligible mirrors the review-receiving rules: settled
// non-interns with project work in the last six months.
func (s *FinalizerServiceImpl) finalizeEligible(snap *Snapshot, e *domain.Employee) bool {
	today := s.cycle.Today

	if e.TypeTwoMonthsAgo == domain.EmploymentIntern || e.Departed(today) {
		return false
	}

	// A missing join date means the employee predates the roster's
	// record keeping, so the tenure gate does not apply.
	if e.JoinedOn != nil && e.JoinedOn.After(today.AddDate(0, 0, -tenureDays)) {
		return false
	}

	sixMonthsAgo := today.AddDate(0, -6, 0)

	for _, a := range snap.Assignments {
		if normalizeName(a.EmployeeName) != normalizeName(e.Name) {
			continue
		}

		if !a.StartDate.After(today) && !a.EndDate.Before(sixMonthsAgo) {
			return true
		}
	}

	return false
}

func (s *FinalizerServiceImpl) finalizeEmployee(ctx context.Context, snap *Snapshot, e *domain.Employee, excluded map[string]struct{}) error {
	folderID, err := s.ensureEmployeeFolder(ctx, e)
	if err != nil {
		return err
	}

	periodName := fmt.Sprintf("%s %s", e.Name, s.cycle.PeriodLabel())

	periodFolder, err := s.store.EnsureFolder(ctx, folderID, periodName)
	if err != nil {
		return err
	}

	internal, err := s.submissions.GetSubmissionsOfEmployee(ctx, e.ID, "", s.cycle.Anchor)
	if err != nil {
		return err
	}

	byKind := splitByKind(internal)

	if s.cycle.Flavor == domain.FlavorFormal {
		if err := s.writeFormalArtifacts(ctx, snap, e, periodFolder, byKind); err != nil {
			return err
		}
	} else {
		if err := s.mailInformalResults(ctx, e, byKind); err != nil {
			return err
		}
	}

	_, isExcluded := excluded[normalizeName(e.Name)]
	if e.IsPartner || isExcluded {
		return nil
	}

	attendees := s.meetingAttendees(snap, e)

	// Access and the meeting link go to the employee's top-level folder,
	// not just the period subfolder, so older material stays reachable.
	if err := s.store.GrantRead(ctx, folderID, attendees); err != nil {
		return err
	}

	if s.cycle.Settings.SchedulerEmail != "" {
		msg := notify.MeetingScheduleRequest(s.cycle.Settings.SchedulerEmail,
			s.cycle.Settings.SchedulerName, e.Name, s.cycle.PeriodLabel(),
			s.store.FolderLink(folderID))
		if err := s.sender.Send(ctx, msg); err != nil {
			return err
		}
	}

	start := s.cycle.Today.AddDate(0, 0, 7).Add(10 * time.Hour)
	ev := calendar.Event{
		UID:         fmt.Sprintf("review-%s-%s", normalizeName(e.Name), s.cycle.PeriodLabel()),
		Summary:     fmt.Sprintf("%s review: %s", s.cycle.PeriodLabel(), e.Name),
		Description: fmt.Sprintf("Performance review meeting for %s. Material: %s", e.Name, s.store.FolderLink(folderID)),
		Start:       start,
		End:         start.Add(time.Hour),
		Organizer:   s.cycle.Settings.SchedulerEmail,
		Attendees:   append([]string{e.Email}, attendees...),
	}

	if err := s.inviter.Invite(ctx, ev); err != nil {
		return err
	}

	return nil
}

func (s *FinalizerServiceImpl) ensureEmployeeFolder(ctx context.Context, e *domain.Employee) (string, error) {
	mapping, err := s.folders.GetFolder(ctx, e.ID)
	if err == nil {
		return mapping.FolderID, nil
	}

	if !errors.Is(err, apperrors.ErrNotFound) {
		return "", err
	}

	folderID, err := s.store.EnsureFolder(ctx, s.cycle.Settings.EmployeesFolderID, e.Name)
	if err != nil {
		return "", err
	}

	if err := s.folders.SaveFolder(ctx, &domain.FolderMapping{
		EmployeeID:   e.ID,
		EmployeeName: e.Name,
		FolderID:     folderID,
	}); err != nil {
		return "", err
	}

	return folderID, nil
}

type submissionsByKind struct {
	internal []domain.SubmittedReview
	external []domain.SubmittedReview
	self     []domain.SubmittedReview
}

func splitByKind(all []domain.SubmittedReview) submissionsByKind {
	var out submissionsByKind

	for _, sr := range all {
		switch {
		case sr.Kind == domain.ReviewExternal:
			out.external = append(out.external, sr)
		case sr.Kind == domain.ReviewSelf:
			out.self = append(out.self, sr)
		default:
			out.internal = append(out.internal, sr)
		}
	}

	return out
}

func (s *FinalizerServiceImpl) writeFormalArtifacts(ctx context.Context, snap *Snapshot, e *domain.Employee, periodFolder string, byKind submissionsByKind) error {
	writtenBy, err := s.ledger.FindNeededReviews(ctx, repository.NeededReviewFilter{ReviewerID: e.ID})
	if err != nil {
		return err
	}

	receivedFor, err := s.ledger.FindNeededReviews(ctx, repository.NeededReviewFilter{EmployeeID: e.ID})
	if err != nil {
		return err
	}

	training, err := s.roster.GetTrainingRecords(ctx, e.Name)
	if err != nil {
		return err
	}

	// External project counts are decoration on the export; their
	// absence must not block the cycle.
	var counts []kms.ProjectCount
	if s.kms != nil {
		counts, err = s.kms.ProjectCounts(ctx, e.Name)
		if err != nil {
			s.log.Warn("project counts unavailable",
				slog.String("employee", e.Name), sl.Err(err))
		}
	}

	workbook, err := sheet.FormalWorkbook(sheet.FormalData{
		EmployeeName:  e.Name,
		PeriodLabel:   s.cycle.PeriodLabel(),
		Internal:      byKind.internal,
		External:      byKind.external,
		Self:          byKind.self,
		WrittenBy:     writtenBy,
		ReceivedFor:   receivedFor,
		Training:      training,
		ProjectCounts: counts,
	})
	if err != nil {
		return err
	}

	workbookName := fmt.Sprintf("%s %s reviews.xlsx", e.Name, s.cycle.PeriodLabel())
	if _, err := s.store.UploadFile(ctx, periodFolder, workbookName, workbook,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"); err != nil {
		return err
	}

	letter := reviewLetter(e.Name, s.cycle.PeriodLabel())
	letterName := fmt.Sprintf("%s %s review letter.html", e.Name, s.cycle.PeriodLabel())
	if _, err := s.store.UploadFile(ctx, periodFolder, letterName, []byte(letter), "text/html"); err != nil {
		return err
	}

	return nil
}

func (s *FinalizerServiceImpl) mailInformalResults(ctx context.Context, e *domain.Employee, byKind submissionsByKind) error {
	results, err := sheet.InformalResults(sheet.InformalData{
		EmployeeName: e.Name,
		PeriodLabel:  s.cycle.PeriodLabel(),
		Internal:     byKind.internal,
	})
	if err != nil {
		return err
	}

	return s.sender.Send(ctx, notify.ResultsMail(e.Email, e.Name, s.cycle.PeriodLabel(), results))
}

// meetingAttendees collects the addresses that get read access and the
// meeting invite: managers and partners from projects shared in the last
// six months, the standing attendees, the primary manager and the mentor.
func (s *FinalizerServiceImpl) meetingAttendees(snap *Snapshot, e *domain.Employee) []string {
	names := make(map[string]struct{})

	if s.cycle.Flavor == domain.FlavorFormal {
		sixMonthsAgo := s.cycle.Today.AddDate(0, -6, 0)

		for _, a := range snap.Assignments {
			if normalizeName(a.EmployeeName) != normalizeName(e.Name) {
				continue
			}

			if a.EndDate.Before(sixMonthsAgo) || a.StartDate.After(s.cycle.Today) {
				continue
			}

			for _, other := range snap.ProjectAssignments(a.ProjectName) {
				if other.Role != domain.RoleManager && other.Role != domain.RolePartner {
					continue
				}

				if normalizeName(other.EmployeeName) == normalizeName(e.Name) {
					continue
				}

				names[normalizeName(other.EmployeeName)] = struct{}{}
			}
		}
	}

	for _, name := range s.cycle.Settings.AlwaysAttendeeNames {
		names[normalizeName(name)] = struct{}{}
	}

	if e.PrimaryManager != "" {
		names[normalizeName(e.PrimaryManager)] = struct{}{}
	}

	if e.Mentor != "" {
		names[normalizeName(e.Mentor)] = struct{}{}
	}

	var emails []string

	for name := range names {
		if attendee := snap.EmployeeByName(name); attendee != nil && attendee.Email != "" {
			emails = append(emails, attendee.Email)
		}
	}

	sort.Strings(emails)

	return emails
}

func reviewLetter(employeeName, periodLabel string) string {
	var b strings.Builder

	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>%s performance review: %s</h2>", periodLabel, employeeName)
	b.WriteString("<p>This folder contains the collected review material for the period. ")
	b.WriteString("Please read the summary tab first and bring your notes to the review meeting.</p>")
	b.WriteString("</body></html>")

	return b.String()
}

func (s *FinalizerServiceImpl) RunAccessOff(ctx context.Context, force bool) error {
	const op = "internal.service.FinalizerService.RunAccessOff"

	if !force && !schedule.SameDay(s.cycle.Today, s.cycle.Milestones.AccessOff) {
		s.log.Info("not the access-off day, nothing to strip")
		return nil
	}

	if err := s.store.StripPermissions(ctx, s.cycle.Settings.EmployeesFolderID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("folder permissions stripped")

	return nil
}
