// Package domain holds the core entities of the review cycle: the roster
// (employees, projects, assignments, client contacts), the needed-review
// ledger and submitted reviews, and the derived milestone values.
package domain

import "time"

// EmploymentType is the employment status of an employee at a reference
// point in time.
type EmploymentType string

const (
	EmploymentIntern EmploymentType = "Intern"
	EmploymentFTE    EmploymentType = "FTE"
)

// Role is an employee's role on a project assignment.
type Role string

const (
	RolePartner Role = "Partner"
	RoleManager Role = "Manager"
	RoleStaff   Role = "Staff"
)

// ReviewKind classifies a needed review. Internal project reviews carry
// the reviewer's own role on the shared project.
type ReviewKind string

const (
	ReviewSelf     ReviewKind = "self"
	ReviewStaff    ReviewKind = "staff"
	ReviewManager  ReviewKind = "manager"
	ReviewPartner  ReviewKind = "partner"
	ReviewExternal ReviewKind = "external"
)

// IsInternal reports whether k is one of the internal project review
// kinds (staff, manager, partner).
func (k ReviewKind) IsInternal() bool {
	return k == ReviewStaff || k == ReviewManager || k == ReviewPartner
}

// KindForRole maps a reviewer's project role to the internal review kind.
func KindForRole(r Role) ReviewKind {
	switch r {
	case RolePartner:
		return ReviewPartner
	case RoleManager:
		return ReviewManager
	default:
		return ReviewStaff
	}
}

// Title returns the human-readable review title for a kind.
func (k ReviewKind) Title() string {
	switch k {
	case ReviewSelf:
		return "Self Appraisal"
	case ReviewStaff:
		return "Staff Review"
	case ReviewManager:
		return "Manager Review"
	case ReviewPartner:
		return "Partner Review"
	case ReviewExternal:
		return "External Review"
	default:
		return "Review"
	}
}

// ReviewStatus is the ledger entry lifecycle state.
type ReviewStatus string

const (
	StatusIncomplete ReviewStatus = "incomplete"
	StatusCompleted  ReviewStatus = "completed"
	StatusExpired    ReviewStatus = "expired"
)

// Flavor selects the drop-dead handling of a half-year cycle.
type Flavor string

const (
	FlavorFormal   Flavor = "formal"
	FlavorInformal Flavor = "informal"
)

// Employee is a roster row. All dates are civil dates at UTC midnight;
// JoinedOn and DepartedOn are nil when unknown.
type Employee struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	Email            string         `db:"email"`
	TypeToday        EmploymentType `db:"employment_today"`
	TypeTwoMonthsAgo EmploymentType `db:"employment_two_months_ago"`
	JoinedOn         *time.Time     `db:"joined_on"`
	DepartedOn       *time.Time     `db:"departed_on"`
	IsPartner        bool           `db:"is_partner"`
	Mentor           string         `db:"mentor"`
	PrimaryManager   string         `db:"primary_manager"`
}

// Departed reports whether the employee left before today.
func (e *Employee) Departed(today time.Time) bool {
	return e.DepartedOn != nil && e.DepartedOn.Before(today)
}

// RecentFTEJoiner reports whether the employee joined less than 60 days
// before today and is currently FTE. Such employees neither give nor
// receive reviews yet.
func (e *Employee) RecentFTEJoiner(today time.Time) bool {
	return e.JoinedOn != nil &&
		e.JoinedOn.After(today.AddDate(0, 0, -60)) &&
		e.TypeToday == EmploymentFTE
}

// Assignment links an employee to a project with a role and a work window.
type Assignment struct {
	EmployeeName            string    `db:"employee_name"`
	ProjectName             string    `db:"project_name"`
	Role                    Role      `db:"role"`
	ClientContactName       string    `db:"client_contact_name"`
	StartDate               time.Time `db:"start_date"`
	EndDate                 time.Time `db:"end_date"`
	ExternalReviewRequested bool      `db:"external_review_requested"`
	RollOffNotified         bool      `db:"roll_off_notified"`
	EndDateApproved         bool      `db:"end_date_approved"`
	ApprovalRequested       bool      `db:"approval_requested"`
}

// Project is reference data for an engagement, joined by name.
type Project struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	Status        string    `db:"status"`
	StartDate     time.Time `db:"start_date"`
	EndDate       time.Time `db:"end_date"`
	ClientCompany string    `db:"client_company"`
}

// ClientContact is the external reviewer identity for client-facing reviews.
type ClientContact struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Company string `db:"company"`
	Email   string `db:"email"`
}

// TrainingRecord is one training course attempt by an employee.
type TrainingRecord struct {
	EmployeeName  string    `db:"employee_name"`
	EmployeeEmail string    `db:"employee_email"`
	Course        string    `db:"course"`
	StartDate     time.Time `db:"start_date"`
	EndDate       time.Time `db:"end_date"`
	Rescheduled   bool      `db:"rescheduled"`
	Completed     bool      `db:"completed"`
	Online        bool      `db:"online"`
}

// FormField is one dynamic review-form field definition.
type FormField struct {
	Kind      ReviewKind `db:"kind" json:"-"`
	Position  int        `db:"position" json:"position"`
	Question  string     `db:"question" json:"question"`
	FieldType string     `db:"field_type" json:"field_type"`
	Options   string     `db:"options" json:"options,omitempty"`
}

// NeededReview is a ledger entry: a review that must be written. Reviewer
// and reviewee identities are snapshots taken at creation time, so the
// record stays stable even when the roster changes afterwards.
type NeededReview struct {
	ID                  string       `db:"id" json:"id"`
	Kind                ReviewKind   `db:"kind" json:"kind"`
	ReviewerID          string       `db:"reviewer_id" json:"reviewer_id"`
	ReviewerName        string       `db:"reviewer_name" json:"reviewer_name"`
	ReviewerEmail       string       `db:"reviewer_email" json:"reviewer_email"`
	EmployeeID          string       `db:"employee_id" json:"employee_id"`
	EmployeeName        string       `db:"employee_name" json:"employee_name"`
	EmployeeEmail       string       `db:"employee_email" json:"employee_email"`
	ProjectID           string       `db:"project_id" json:"project_id"`
	ProjectName         string       `db:"project_name" json:"project_name"`
	ReviewerProjectRole Role         `db:"reviewer_project_role" json:"reviewer_project_role"`
	DueDate             time.Time    `db:"due_date" json:"due_date"`
	Description         string       `db:"description" json:"description"`
	Status              ReviewStatus `db:"status" json:"status"`
	CycleStart          time.Time    `db:"cycle_start" json:"cycle_start"`
	CreatedAt           time.Time    `db:"created_at" json:"created_at"`
}

// SubmittedReview is the completed answer set for a needed review.
// Write-once, linked 1:1 to the ledger entry it satisfies.
type SubmittedReview struct {
	ID                  string            `db:"id" json:"id"`
	NeededReviewID      string            `db:"needed_review_id" json:"needed_review_id"`
	Kind                ReviewKind        `db:"kind" json:"kind"`
	Form                map[string]string `db:"-" json:"form"`
	ReviewerID          string            `db:"reviewer_id" json:"reviewer_id"`
	ReviewerName        string            `db:"reviewer_name" json:"reviewer_name"`
	ReviewerEmail       string            `db:"reviewer_email" json:"reviewer_email"`
	EmployeeID          string            `db:"employee_id" json:"employee_id"`
	EmployeeName        string            `db:"employee_name" json:"employee_name"`
	EmployeeEmail       string            `db:"employee_email" json:"employee_email"`
	ProjectID           string            `db:"project_id" json:"project_id"`
	ProjectName         string            `db:"project_name" json:"project_name"`
	ReviewerProjectRole Role              `db:"reviewer_project_role" json:"reviewer_project_role"`
	SubmittedAt         time.Time         `db:"submitted_at" json:"submitted_at"`
}

// FolderMapping caches the document-store folder created for an employee.
type FolderMapping struct {
	EmployeeID   string `db:"employee_id"`
	EmployeeName string `db:"employee_name"`
	FolderID     string `db:"folder_id"`
}

// AuditEntry is one append-only audit-log row.
type AuditEntry struct {
	LoggedOn time.Time `db:"logged_on"`
	Actor    string    `db:"actor"`
	Subject  string    `db:"subject"`
	Project  string    `db:"project"`
	Action   string    `db:"action"`
	Detail   string    `db:"detail"`
}

// ProcessStat is a completed/incomplete pair for one review kind.
type ProcessStat struct {
	Incomplete int `db:"incomplete" json:"incomplete"`
	Completed  int `db:"completed" json:"completed"`
}
