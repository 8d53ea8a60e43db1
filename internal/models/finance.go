package models

import (
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/shopspring/decimal"
)

// Rate is a daily rate for a worker type, effective from EffectiveDate
// until superseded by a later rate.
type Rate struct {
	Model
	WorkerTypeID  uint64          `gorm:"not null;index" json:"workerTypeId"`
	DailyRate     decimal.Decimal `gorm:"type:DECIMAL(20,2);not null" json:"dailyRate"`
	EffectiveDate types.Date      `gorm:"not null" json:"effectiveDate"`
}

func (Rate) TableName() string {
	return "rates"
}

func (*Rate) EntityType() string {
	return "rate"
}

// Actual is a recorded cost against a project for one worker and day.
type Actual struct {
	Model
	ProjectID         uint64          `gorm:"not null;index" json:"projectId"`
	WorkerID          uint64          `gorm:"not null;index" json:"workerId"`
	ActualDate        types.Date      `gorm:"not null" json:"actualDate"`
	Amount            decimal.Decimal `gorm:"type:DECIMAL(20,2);not null" json:"amount"`
	CapitalPercentage decimal.Decimal `gorm:"type:DECIMAL(5,2);not null" json:"capitalPercentage"`
	ExpensePercentage decimal.Decimal `gorm:"type:DECIMAL(5,2);not null" json:"expensePercentage"`
}

func (Actual) TableName() string {
	return "actuals"
}

func (*Actual) EntityType() string {
	return "actual"
}
