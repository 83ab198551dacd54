// Package employee holds the worker attributes the engine reads: branch,
// employment type (overtime monetization) and role (ranking eligibility).
package employee

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/schedule"
)

var (
	ErrUnknownEmploymentType = errors.New("unknown employment type")
	ErrUnknownRole           = errors.New("unknown role")
	ErrInvalidWorker         = errors.New("invalid worker")
	ErrWorkerNotFound        = errors.New("worker not found")
)

// EmploymentType governs whether overtime is paid.
type EmploymentType string

const (
	EmploymentFactory EmploymentType = "factory"
	EmploymentOffice  EmploymentType = "office"
	EmploymentSales   EmploymentType = "sales"
	EmploymentOwner   EmploymentType = "owner"
)

// ParseEmploymentType rejects values outside the closed set.
func ParseEmploymentType(s string) (EmploymentType, error) {
	switch t := EmploymentType(s); t {
	case EmploymentFactory, EmploymentOffice, EmploymentSales, EmploymentOwner:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEmploymentType, s)
}

// MonetizesOvertime is true only for factory workers.
func (t EmploymentType) MonetizesOvertime() bool {
	return t == EmploymentFactory
}

// Role is the worker's position in the organization.
type Role string

const (
	RoleOwner               Role = "owner"
	RoleGeneralManager      Role = "general_manager"
	RoleLineManager         Role = "line_manager"
	RoleBranchOfficeManager Role = "branch_office_manager"
	RoleAccountant          Role = "accountant"
	RoleSupervisor          Role = "supervisor"
	RoleEmployee            Role = "employee"
)

// ParseRole rejects values outside the closed set.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleOwner, RoleGeneralManager, RoleLineManager, RoleBranchOfficeManager,
		RoleAccountant, RoleSupervisor, RoleEmployee:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// IsRankable is false for management roles exempt from ranking.
func (r Role) IsRankable() bool {
	switch r {
	case RoleOwner, RoleGeneralManager, RoleLineManager, RoleBranchOfficeManager:
		return false
	default:
		return true
	}
}

// Worker is a read-only snapshot of an employee.
type Worker struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Branch         schedule.Branch `json:"branch"`
	EmploymentType EmploymentType  `json:"employment_type"`
	Role           Role            `json:"role"`
	BasicSalary    decimal.Decimal `json:"basic_salary"`
}

// Validate checks the closed enums and salary sign.
// IsClientError is true for every error it returns.
func (w Worker) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidWorker)
	}
	if _, err := ParseEmploymentType(string(w.EmploymentType)); err != nil {
		return fmt.Errorf("worker %s: %w", w.ID, err)
	}
	if _, err := ParseRole(string(w.Role)); err != nil {
		return fmt.Errorf("worker %s: %w", w.ID, err)
	}
	if w.BasicSalary.IsNegative() {
		return fmt.Errorf("%w: %s: basic salary must not be negative", ErrInvalidWorker, w.ID)
	}
	return nil
}

// IsClientError returns true if err comes from malformed worker data.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidWorker) ||
		errors.Is(err, ErrUnknownEmploymentType) ||
		errors.Is(err, ErrUnknownRole)
}
