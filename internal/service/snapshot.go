package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/repository"
)

// Snapshot is an in-memory view of the roster, loaded once per job run.
// All cross-entity joins happen against it, so a run sees one consistent
// roster state.
type Snapshot struct {
	Employees   []domain.Employee
	Assignments []domain.Assignment
	Projects    []domain.Project
	Contacts    []domain.ClientContact

	employeesByName map[string]*domain.Employee
	projectsByName  map[string]*domain.Project
	contactsByName  map[string]*domain.ClientContact
	byProject       map[string][]*domain.Assignment
}

// LoadSnapshot reads the full roster.
func LoadSnapshot(ctx context.Context, roster repository.RosterQueryRepository) (*Snapshot, error) {
	const op = "internal.service.LoadSnapshot"

	employees, err := roster.GetEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	assignments, err := roster.GetAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	projects, err := roster.GetProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	contacts, err := roster.GetClientContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return newSnapshot(employees, assignments, projects, contacts), nil
}

func newSnapshot(
	employees []domain.Employee,
	assignments []domain.Assignment,
	projects []domain.Project,
	contacts []domain.ClientContact,
) *Snapshot {
	s := &Snapshot{
		Employees:   employees,
		Assignments: assignments,
		Projects:    projects,
		Contacts:    contacts,

		employeesByName: make(map[string]*domain.Employee, len(employees)),
		projectsByName:  make(map[string]*domain.Project, len(projects)),
		contactsByName:  make(map[string]*domain.ClientContact, len(contacts)),
		byProject:       make(map[string][]*domain.Assignment),
	}

	for i := range employees {
		s.employeesByName[normalizeName(employees[i].Name)] = &employees[i]
	}

	for i := range projects {
		s.projectsByName[normalizeName(projects[i].Name)] = &projects[i]
	}

	for i := range contacts {
		s.contactsByName[normalizeName(contacts[i].Name)] = &contacts[i]
	}

	for i := range assignments {
		key := normalizeName(assignments[i].ProjectName)
		s.byProject[key] = append(s.byProject[key], &assignments[i])
	}

	return s
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// EmployeeByName resolves a roster name, nil when unknown.
func (s *Snapshot) EmployeeByName(name string) *domain.Employee {
	return s.employeesByName[normalizeName(name)]
}

// ProjectByName resolves a project name, nil when unknown.
func (s *Snapshot) ProjectByName(name string) *domain.Project {
	return s.projectsByName[normalizeName(name)]
}

// ContactByName resolves a client contact name, nil when unknown.
func (s *Snapshot) ContactByName(name string) *domain.ClientContact {
	return s.contactsByName[normalizeName(name)]
}

// ProjectAssignments returns all assignments on a project.
func (s *Snapshot) ProjectAssignments(projectName string) []*domain.Assignment {
	return s.byProject[normalizeName(projectName)]
}
