package models

import (
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/shopspring/decimal"
)

// Project is a date-bounded unit of work. When a project has phases, they
// must exactly partition [StartDate, EndDate] with no gaps or overlaps.
type Project struct {
	Model
	ProgramID uint64     `gorm:"not null;index" json:"programId"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	StartDate types.Date `gorm:"not null" json:"startDate"`
	EndDate   types.Date `gorm:"not null" json:"endDate"`
	Status    string     `gorm:"size:32;not null;default:active" json:"status"`

	Phases []Phase `gorm:"foreignKey:ProjectID" json:"phases,omitempty"`
}

func (Project) TableName() string {
	return "projects"
}

func (*Project) EntityType() string {
	return "project"
}

// Phase is a user-named, date-bounded budget period within a project.
// CapitalBudget + ExpenseBudget must equal TotalBudget exactly.
type Phase struct {
	Model
	ProjectID     uint64          `gorm:"not null;index" json:"projectId"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	StartDate     types.Date      `gorm:"not null" json:"startDate"`
	EndDate       types.Date      `gorm:"not null" json:"endDate"`
	CapitalBudget decimal.Decimal `gorm:"type:DECIMAL(20,2);not null" json:"capitalBudget"`
	ExpenseBudget decimal.Decimal `gorm:"type:DECIMAL(20,2);not null" json:"expenseBudget"`
	TotalBudget   decimal.Decimal `gorm:"type:DECIMAL(20,2);not null" json:"totalBudget"`
}

func (Phase) TableName() string {
	return "phases"
}

func (*Phase) EntityType() string {
	return "phase"
}
