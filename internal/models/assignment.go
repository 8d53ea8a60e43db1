package models

import (
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/shopspring/decimal"
)

// ResourceAssignment allocates a slice of a resource's capacity to one
// project on one day, split into capital and expense percentages.
// Per-row invariant: CapitalPercentage + ExpensePercentage <= 100.
// Cross-row invariant: for one (resource, date) the sum over all projects
// cannot exceed 100.
type ResourceAssignment struct {
	Model
	ResourceID        uint64          `gorm:"not null;uniqueIndex:idx_resource_project_date" json:"resourceId"`
	ProjectID         uint64          `gorm:"not null;uniqueIndex:idx_resource_project_date" json:"projectId"`
	AssignmentDate    types.Date      `gorm:"not null;uniqueIndex:idx_resource_project_date" json:"assignmentDate"`
	CapitalPercentage decimal.Decimal `gorm:"type:DECIMAL(5,2);not null" json:"capitalPercentage"`
	ExpensePercentage decimal.Decimal `gorm:"type:DECIMAL(5,2);not null" json:"expensePercentage"`
}

func (ResourceAssignment) TableName() string {
	return "resource_assignments"
}

func (*ResourceAssignment) EntityType() string {
	return "resource_assignment"
}

// AllocationTotal is the assignment's combined percentage.
func (a *ResourceAssignment) AllocationTotal() decimal.Decimal {
	return a.CapitalPercentage.Add(a.ExpensePercentage)
}
