package services

import (
	"encoding/json"
	"log"

	"github.com/cadencehq/ppmtrack/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecordAction appends an audit row for a successful mutation. Audit
// failures are logged and swallowed; they never fail the request.
func RecordAction(db *gorm.DB, userID, action, entityType string, entityID uint64, method, path string) {
	entry := models.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Method:     method,
		Path:       path,
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("audit: failed to record %s %s %d: %v", action, entityType, entityID, err)
	}
}

// RecordConflict appends an audit row for an optimistic-lock conflict.
// Detail carries the two versions only -- never descriptions, owners,
// budgets or any other business field.
func RecordConflict(db *gorm.DB, userID, method, path, entityType string, entityID, expectedVersion, currentVersion uint64) {
	detail, _ := json.Marshal(map[string]uint64{
		"expectedVersion": expectedVersion,
		"currentVersion":  currentVersion,
	})
	entry := models.AuditLog{
		UserID:     userID,
		Action:     "conflict",
		EntityType: entityType,
		EntityID:   entityID,
		Method:     method,
		Path:       path,
		Detail:     models.JSON{JSON: datatypes.JSON(detail)},
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("audit: failed to record conflict on %s %d: %v", entityType, entityID, err)
	}
}
