package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of mutations and rejected writes.
// Detail must only ever carry identifying fields (versions, ids) -- never
// entity business data such as budgets, owners or descriptions.
type AuditLog struct {
	ID         string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID     string    `gorm:"size:255;index" json:"userId"`
	Action     string    `gorm:"size:64;not null" json:"action"`
	EntityType string    `gorm:"size:64;not null;index" json:"entityType"`
	EntityID   uint64    `gorm:"not null" json:"entityId"`
	Method     string    `gorm:"size:16" json:"method"`
	Path       string    `gorm:"size:512" json:"path"`
	Detail     JSON      `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate assigns the entry id.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
