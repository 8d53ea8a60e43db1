package services

import (
	"errors"

	"github.com/cadencehq/ppmtrack/internal/models"
	"github.com/cadencehq/ppmtrack/internal/types"
	"gorm.io/gorm"
)

// conflictFor builds a ConflictError from an already-loaded entity whose
// persisted version did not match the caller's.
func conflictFor(entity models.Editable) *types.ConflictError {
	return &types.ConflictError{
		EntityType:   entity.EntityType(),
		EntityID:     entity.GetID(),
		CurrentState: entity,
	}
}

// refreshedConflict fetches the current server-side state after a
// version-guarded update affected zero rows, which means another writer got
// in between our read and our write.
func refreshedConflict(tx *gorm.DB, entityType string, id uint64, dest models.Editable) error {
	if err := tx.First(dest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &types.NotFoundError{Resource: entityType, ID: id}
		}
		return err
	}
	return &types.ConflictError{
		EntityType:   entityType,
		EntityID:     id,
		CurrentState: dest,
	}
}
