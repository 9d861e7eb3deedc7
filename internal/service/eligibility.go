package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fairview/review-cycle-service/internal/apperrors"
	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/notify"
	"github.com/fairview/review-cycle-service/internal/repository"
	"github.com/fairview/review-cycle-service/internal/schedule"
)

// tenureDays is the minimum tenure before an employee takes part in
// reviews, and the window that defines a recent joiner.
const tenureDays = 60

// PartnerApproval is a planned end-date approval request to a project
// partner.
type PartnerApproval struct {
	PartnerName  string
	PartnerEmail string
	EmployeeName string
	ProjectName  string
	EndDate      time.Time
}

// RollOff marks an assignment whose end-date processing started today.
type RollOff struct {
	EmployeeName string
	ProjectName  string
}

// RowFailure records a skipped roster row.
type RowFailure struct {
	Context string
	Err     error
}

// GenerationPlan is the pure output of an eligibility run: everything to
// create, mark and send, with no side effects taken yet.
type GenerationPlan struct {
	Entries          []domain.NeededReview
	PartnerApprovals []PartnerApproval
	RollOffs         []RollOff
	Failures         []RowFailure
}

// GenerationService decides who must review whom and creates the ledger
// entries plus the kickoff notifications.
type GenerationService interface {
	// Plan computes the generation plan for today without side effects.
	Plan(ctx context.Context, snap *Snapshot) (*GenerationPlan, error)

	// Apply persists a plan: ledger inserts, roster marks and the
	// notification emails.
	Apply(ctx context.Context, snap *Snapshot, plan *GenerationPlan) error

	// Run plans and applies in one step.
	Run(ctx context.Context) error
}

type GenerationServiceImpl struct {
	cycle  *Cycle
	roster repository.RosterQueryRepository
	marks  repository.RosterCommandRepository
	ledger repository.LedgerCommandRepository
	sender notify.Sender
	log    *slog.Logger
}

func NewGenerationService(
	cycle *Cycle,
	roster repository.RosterQueryRepository,
	marks repository.RosterCommandRepository,
	ledger repository.LedgerCommandRepository,
	sender notify.Sender,
	log *slog.Logger,
) *GenerationServiceImpl {
	return &GenerationServiceImpl{
		cycle:  cycle,
		roster: roster,
		marks:  marks,
		ledger: ledger,
		sender: sender,
		log:    log,
	}
}

func (s *GenerationServiceImpl) Run(ctx context.Context) error {
	const op = "internal.service.GenerationService.Run"

	snap, err := LoadSnapshot(ctx, s.roster)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	plan, err := s.Plan(ctx, snap)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.Apply(ctx, snap, plan); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *GenerationServiceImpl) Plan(_ context.Context, snap *Snapshot) (*GenerationPlan, error) {
	plan := &GenerationPlan{}
	today := s.cycle.Today
	kickoff := s.cycle.IsKickoffDay()

	for _, a := range snap.Assignments {
		if err := s.planAssignment(snap, plan, a, kickoff); err != nil {
			plan.Failures = append(plan.Failures, RowFailure{
				Context: fmt.Sprintf("assignment of '%s' on '%s'", a.EmployeeName, a.ProjectName),
				Err:     err,
			})
		}
	}

	if kickoff {
		for i := range snap.Employees {
			e := &snap.Employees[i]
			if s.selfAppraisalDue(snap, e, today) {
				plan.Entries = append(plan.Entries, s.newEntry(domain.ReviewSelf, e, e, nil, "", s.cycle.Milestones.Due))
			}
		}
	}

	return plan, nil
}

func (s *GenerationServiceImpl) planAssignment(snap *Snapshot, plan *GenerationPlan, a domain.Assignment, kickoff bool) error {
	today := s.cycle.Today

	reviewee := snap.EmployeeByName(a.EmployeeName)
	if reviewee == nil {
		return fmt.Errorf("employee '%s' is not on the roster", a.EmployeeName)
	}

	if reviewee.Departed(today) || reviewee.RecentFTEJoiner(today) {
		return nil
	}

	s.planPartnerApproval(snap, plan, a)

	if a.RollOffNotified {
		return nil
	}

	// Outside the active window nothing is generated: the assignment has
	// not started, or ended more than seven months ago.
	if today.Before(a.StartDate) || a.EndDate.AddDate(0, 7, 0).Before(today) {
		return nil
	}

	endChain := schedule.ResolveProjectEnd(a.EndDate, s.cycle.Settings.ProjectEndOffsets)

	var dueDate time.Time

	switch {
	case schedule.SameDay(today, endChain.FirstEmail):
		dueDate = endChain.Due
		plan.RollOffs = append(plan.RollOffs, RollOff{
			EmployeeName: a.EmployeeName,
			ProjectName:  a.ProjectName,
		})
	case kickoff:
		dueDate = s.cycle.Milestones.Due
	default:
		return nil
	}

	project := snap.ProjectByName(a.ProjectName)

	for _, r := range snap.ProjectAssignments(a.ProjectName) {
		if normalizeName(r.EmployeeName) == normalizeName(a.EmployeeName) {
			continue
		}

		if !s.overlapSufficient(a, r) {
			continue
		}

		// A reviewer whose own stint ended more than seven months ago is
		// too far removed from the work to judge it.
		if r.EndDate.AddDate(0, 7, 0).Before(today) {
			continue
		}

		reviewer := snap.EmployeeByName(r.EmployeeName)
		if reviewer == nil {
			plan.Failures = append(plan.Failures, RowFailure{
				Context: fmt.Sprintf("reviewer '%s' on '%s'", r.EmployeeName, a.ProjectName),
				Err:     errors.New("reviewer is not on the roster"),
			})
			continue
		}

		if reviewer.TypeTwoMonthsAgo != domain.EmploymentFTE ||
			reviewer.Departed(today) || reviewer.RecentFTEJoiner(today) {
			continue
		}

		kind := domain.KindForRole(r.Role)
		entry := s.newEntry(kind, reviewer, reviewee, project, a.ProjectName, dueDate)
		entry.ReviewerProjectRole = r.Role
		plan.Entries = append(plan.Entries, entry)
	}

	if a.ClientContactName != "" && a.ExternalReviewRequested && a.Role != domain.RolePartner {
		contact := snap.ContactByName(a.ClientContactName)
		if contact == nil {
			return fmt.Errorf("client contact '%s' is not on the roster", a.ClientContactName)
		}

		entry := domain.NeededReview{
			ID:            uuid.NewString(),
			Kind:          domain.ReviewExternal,
			ReviewerID:    contact.ID,
			ReviewerName:  contact.Name,
			ReviewerEmail: contact.Email,
			EmployeeID:    reviewee.ID,
			EmployeeName:  reviewee.Name,
			EmployeeEmail: reviewee.Email,
			ProjectName:   a.ProjectName,
			DueDate:       dueDate,
			Description:   fmt.Sprintf("External Review of %s on %s", reviewee.Name, a.ProjectName),
			Status:        domain.StatusIncomplete,
			CycleStart:    s.cycle.Anchor,
			CreatedAt:     today,
		}
		if project != nil {
			entry.ProjectID = project.ID
		}

		plan.Entries = append(plan.Entries, entry)
	}

	return nil
}

// planPartnerApproval queues the end-date confirmation request that goes
// to the project partner one week and one day before the recorded end.
func (s *GenerationServiceImpl) planPartnerApproval(snap *Snapshot, plan *GenerationPlan, a domain.Assignment) {
	if a.EndDateApproved {
		return
	}

	today := s.cycle.Today

	// The first request goes out a week before the recorded end date. If
	// the end date is still unapproved the day before, ask once more.
	switch {
	case schedule.SameDay(today, a.EndDate.AddDate(0, 0, -7)):
		if a.ApprovalRequested {
			return
		}
	case schedule.SameDay(today, a.EndDate.AddDate(0, 0, -1)):
	default:
		return
	}

	for _, other := range snap.ProjectAssignments(a.ProjectName) {
		if other.Role != domain.RolePartner {
			continue
		}

		partner := snap.EmployeeByName(other.EmployeeName)
		if partner == nil {
			continue
		}

		plan.PartnerApprovals = append(plan.PartnerApprovals, PartnerApproval{
			PartnerName:  partner.Name,
			PartnerEmail: partner.Email,
			EmployeeName: a.EmployeeName,
			ProjectName:  a.ProjectName,
			EndDate:      a.EndDate,
		})

		return
	}
}

// overlapSufficient reports whether the reviewer's assignment r shared
// at least the configured minimum days with the reviewee's assignment a.
func (s *GenerationServiceImpl) overlapSufficient(a domain.Assignment, r *domain.Assignment) bool {
	minDays := s.cycle.Settings.MinOverlapDays

	startedBefore := !r.StartDate.After(a.StartDate) &&
		!r.EndDate.Before(a.StartDate.AddDate(0, 0, minDays))
	startedDuring := !r.StartDate.Before(a.StartDate) &&
		!r.StartDate.After(a.EndDate.AddDate(0, 0, -minDays))

	return startedBefore || startedDuring
}

// selfAppraisalDue reports whether the employee owes a self appraisal
// this cycle: settled non-intern, non-partner staff with recent project
// work.
func (s *GenerationServiceImpl) selfAppraisalDue(snap *Snapshot, e *domain.Employee, today time.Time) bool {
	if e.IsPartner || e.TypeTwoMonthsAgo == domain.EmploymentIntern || e.Departed(today) {
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

func (s *GenerationServiceImpl) newEntry(kind domain.ReviewKind, reviewer, reviewee *domain.Employee, project *domain.Project, projectName string, dueDate time.Time) domain.NeededReview {
	entry := domain.NeededReview{
		ID:            uuid.NewString(),
		Kind:          kind,
		ReviewerID:    reviewer.ID,
		ReviewerName:  reviewer.Name,
		ReviewerEmail: reviewer.Email,
		EmployeeID:    reviewee.ID,
		EmployeeName:  reviewee.Name,
		EmployeeEmail: reviewee.Email,
		ProjectName:   projectName,
		DueDate:       dueDate,
		Status:        domain.StatusIncomplete,
		CycleStart:    s.cycle.Anchor,
		CreatedAt:     s.cycle.Today,
	}

	if project != nil {
		entry.ProjectID = project.ID
	}

	if kind == domain.ReviewSelf {
		entry.Description = fmt.Sprintf("Self Appraisal of %s", reviewee.Name)
	} else {
		entry.Description = fmt.Sprintf("%s of %s on %s", kind.Title(), reviewee.Name, projectName)
	}

	return entry
}

func (s *GenerationServiceImpl) Apply(ctx context.Context, snap *Snapshot, plan *GenerationPlan) error {
	const op = "internal.service.GenerationService.Apply"

	settings := s.cycle.Settings

	created := make([]domain.NeededReview, 0, len(plan.Entries))

	for _, entry := range plan.Entries {
		if err := s.ledger.CreateNeededReview(ctx, &entry); err != nil {
			if errors.Is(err, apperrors.ErrAlreadyExists) {
				s.log.Debug("needed review already exists",
					slog.String("reviewer", entry.ReviewerName),
					slog.String("employee", entry.EmployeeName),
					slog.String("project", entry.ProjectName))
				continue
			}

			reportFailure(ctx, s.log, s.sender, settings.AdminEmails, "generate",
				fmt.Sprintf("create needed review for '%s'", entry.ReviewerName), err)
			continue
		}

		created = append(created, entry)
	}

	for _, ro := range plan.RollOffs {
		if err := s.marks.MarkRollOffNotified(ctx, ro.EmployeeName, ro.ProjectName); err != nil {
			reportFailure(ctx, s.log, s.sender, settings.AdminEmails, "generate",
				fmt.Sprintf("mark roll-off of '%s' on '%s'", ro.EmployeeName, ro.ProjectName), err)
		}
	}

	for _, pa := range plan.PartnerApprovals {
		link := fmt.Sprintf("%s/%s/%s",
			strings.TrimRight(settings.EndDateBaseURL, "/"),
			normalizeName(pa.EmployeeName), normalizeName(pa.ProjectName))

		msg := notify.PartnerApprovalRequest(pa.PartnerEmail, pa.PartnerName,
			pa.EmployeeName, pa.ProjectName, pa.EndDate, link)
		if err := s.sender.Send(ctx, msg); err != nil {
			reportFailure(ctx, s.log, s.sender, settings.AdminEmails, "generate",
				fmt.Sprintf("partner approval mail to '%s'", pa.PartnerName), err)
			continue
		}

		if err := s.marks.MarkApprovalRequested(ctx, pa.EmployeeName, pa.ProjectName); err != nil {
			reportFailure(ctx, s.log, s.sender, settings.AdminEmails, "generate",
				fmt.Sprintf("mark approval requested for '%s' on '%s'", pa.EmployeeName, pa.ProjectName), err)
		}
	}

	s.sendKickoffMail(ctx, created)

	for _, f := range plan.Failures {
		reportFailure(ctx, s.log, s.sender, settings.AdminEmails, "generate", f.Context, f.Err)
	}

	s.log.Info("generation applied",
		slog.Int("created", len(created)),
		slog.Int("roll_offs", len(plan.RollOffs)),
		slog.Int("partner_approvals", len(plan.PartnerApprovals)),
		slog.Int("failures", len(plan.Failures)))

	return nil
}

// sendKickoffMail groups fresh entries by reviewer and sends one message
// per person: the request email for internal reviewers, the external
// variant for client contacts and the self-appraisal note for employees.
func (s *GenerationServiceImpl) sendKickoffMail(ctx context.Context, created []domain.NeededReview) {
	settings := s.cycle.Settings

	internal := make(map[string][]domain.NeededReview)
	external := make(map[string][]domain.NeededReview)

	for _, entry := range created {
		switch {
		case entry.Kind == domain.ReviewSelf:
			msg := notify.SelfAppraisalRequested(entry.ReviewerEmail, entry.ReviewerName,
				entry.DueDate, fmt.Sprintf("%s/%s", strings.TrimRight(settings.FormBaseURL, "/"), entry.ID))
			if err := s.sender.Send(ctx, msg); err != nil {
				reportFailure(ctx, s.log, s.sender, settings.AdminEmails, "generate",
					fmt.Sprintf("self appraisal mail to '%s'", entry.ReviewerName), err)
			}
		case entry.Kind == domain.ReviewExternal:
			external[entry.ReviewerEmail] = append(external[entry.ReviewerEmail], entry)
		default:
			internal[entry.ReviewerEmail] = append(internal[entry.ReviewerEmail], entry)
		}
	}

	for email, entries := range internal {
		msg := notify.NewReviewsRequested(email, entries[0].ReviewerName,
			notify.Lines(entries, settings.FormBaseURL))
		if err := s.sender.Send(ctx, msg); err != nil {
			reportFailure(ctx, s.log, s.sender, settings.AdminEmails, "generate",
				fmt.Sprintf("review request mail to '%s'", entries[0].ReviewerName), err)
		}
	}

	for email, entries := range external {
		msg := notify.ExternalReviewRequested(email, entries[0].ReviewerName,
			notify.Lines(entries, settings.FormBaseURL))
		if err := s.sender.Send(ctx, msg); err != nil {
			reportFailure(ctx, s.log, s.sender, settings.AdminEmails, "generate",
				fmt.Sprintf("external review mail to '%s'", entries[0].ReviewerName), err)
		}
	}
}
