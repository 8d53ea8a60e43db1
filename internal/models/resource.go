package models

import "github.com/shopspring/decimal"

// Resource is an allocatable unit of capacity. A resource can be assigned
// across many projects; its total allocation on any one day cannot exceed
// 100% (see internal/validation).
type Resource struct {
	Model
	Name     string  `gorm:"size:255;not null" json:"name"`
	WorkerID *uint64 `gorm:"index" json:"workerId,omitempty"`
}

func (Resource) TableName() string {
	return "resources"
}

func (*Resource) EntityType() string {
	return "resource"
}

// WorkerType classifies workers for rate lookup.
type WorkerType struct {
	Model
	Name                string          `gorm:"size:255;not null;uniqueIndex" json:"name"`
	DefaultCapitalSplit decimal.Decimal `gorm:"type:DECIMAL(5,2);not null;default:50" json:"defaultCapitalSplit"`
}

func (WorkerType) TableName() string {
	return "worker_types"
}

func (*WorkerType) EntityType() string {
	return "worker_type"
}

// Worker is a person that actuals and rates attach to.
type Worker struct {
	Model
	WorkerTypeID uint64 `gorm:"not null;index" json:"workerTypeId"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Email        string `gorm:"size:255" json:"email"`
}

func (Worker) TableName() string {
	return "workers"
}

func (*Worker) EntityType() string {
	return "worker"
}
