package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cadencehq/ppmtrack/internal/models"
	"github.com/cadencehq/ppmtrack/internal/types"
	"gorm.io/gorm"
)

// entityFactories maps each user-editable entity type to a constructor.
// An immutable lookup table, not a type hierarchy. Phases and assignments
// are registered too so conflict reporting is uniform, but their mutations
// go through their dedicated services which add the domain validation.
var entityFactories = map[string]func() models.Editable{
	"portfolio":           func() models.Editable { return &models.Portfolio{} },
	"program":             func() models.Editable { return &models.Program{} },
	"project":             func() models.Editable { return &models.Project{} },
	"phase":               func() models.Editable { return &models.Phase{} },
	"resource":            func() models.Editable { return &models.Resource{} },
	"worker_type":         func() models.Editable { return &models.WorkerType{} },
	"worker":              func() models.Editable { return &models.Worker{} },
	"resource_assignment": func() models.Editable { return &models.ResourceAssignment{} },
	"rate":                func() models.Editable { return &models.Rate{} },
	"actual":              func() models.Editable { return &models.Actual{} },
	"user":                func() models.Editable { return &models.User{} },
	"user_role":           func() models.Editable { return &models.UserRole{} },
	"scope_assignment":    func() models.Editable { return &models.ScopeAssignment{} },
}

// NewEntity returns a zero value for the entity type. An unknown type is a
// caller bug, not a recoverable input error.
func NewEntity(entityType string) (models.Editable, error) {
	factory, ok := entityFactories[entityType]
	if !ok {
		return nil, fmt.Errorf("unsupported entity type %q", entityType)
	}
	return factory(), nil
}

// dedicatedServiceTypes lists types whose writes run domain validation in
// their own services (timeline checks for phases, allocation checks for
// assignments). The generic mutation path refuses them so those checks
// cannot be sidestepped.
var dedicatedServiceTypes = map[string]bool{
	"phase":               true,
	"resource_assignment": true,
}

// newMutableEntity resolves a type for the generic create/update/delete
// path, rejecting types that must mutate through their dedicated services.
func newMutableEntity(entityType string) (models.Editable, error) {
	if dedicatedServiceTypes[entityType] {
		return nil, &types.ValidationError{
			Code:    "VALIDATION_FAILED",
			Message: fmt.Sprintf("%s must be modified through its dedicated endpoints", entityType),
		}
	}
	return NewEntity(entityType)
}

// CreateEntity decodes body into a fresh entity and persists it with
// version 1.
func CreateEntity(db *gorm.DB, entityType string, body []byte) (models.Editable, error) {
	entity, err := newMutableEntity(entityType)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, entity); err != nil {
		return nil, &types.ValidationError{
			Code:    "VALIDATION_FAILED",
			Message: fmt.Sprintf("invalid %s payload: %v", entityType, err),
		}
	}
	entity.SetID(0)
	entity.SetVersion(1)
	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(entity).Error
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// GetEntity fetches one entity by id.
func GetEntity(db *gorm.DB, entityType string, id uint64) (models.Editable, error) {
	entity, err := NewEntity(entityType)
	if err != nil {
		return nil, err
	}
	if err := db.First(entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &types.NotFoundError{Resource: entityType, ID: id}
		}
		return nil, err
	}
	return entity, nil
}

// ListEntities fetches every row of the entity type ordered by id.
func ListEntities(db *gorm.DB, entityType string) (interface{}, error) {
	entity, err := NewEntity(entityType)
	if err != nil {
		return nil, err
	}
	rows := []map[string]interface{}{}
	if err := db.Model(entity).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateEntity merges the JSON body over the persisted row after an
// optimistic-lock version check. The compare and the increment happen in
// one transaction: the read verifies the caller's version, the write is
// guarded by a version predicate, and zero affected rows means a
// concurrent writer won.
func UpdateEntity(db *gorm.DB, entityType string, id, version uint64, body []byte) (models.Editable, error) {
	entity, err := newMutableEntity(entityType)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(entity, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: entityType, ID: id}
			}
			return err
		}

		if entity.GetVersion() != version {
			return conflictFor(entity)
		}

		// Unmarshaling onto the loaded row gives partial-update
		// semantics: absent fields keep their persisted values.
		if len(body) > 0 {
			if err := json.Unmarshal(body, entity); err != nil {
				return &types.ValidationError{
					Code:    "VALIDATION_FAILED",
					Message: fmt.Sprintf("invalid %s payload: %v", entityType, err),
				}
			}
		}

		// Clients echo id/version in the body; the path and the version
		// check are authoritative.
		entity.SetID(id)
		entity.SetVersion(version + 1)
		res := tx.Model(entity).
			Where("id = ? AND version = ?", id, version).
			Select("*").Omit("id", "created_at").
			Updates(entity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			fresh, _ := NewEntity(entityType)
			return refreshedConflict(tx, entityType, id, fresh)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entity, nil
}

// DeleteEntity removes the entity after the same version check as updates.
func DeleteEntity(db *gorm.DB, entityType string, id, version uint64) error {
	entity, err := newMutableEntity(entityType)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(entity, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: entityType, ID: id}
			}
			return err
		}

		if entity.GetVersion() != version {
			return conflictFor(entity)
		}

		res := tx.Where("version = ?", version).Delete(entity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			fresh, _ := NewEntity(entityType)
			return refreshedConflict(tx, entityType, id, fresh)
		}
		return nil
	})
}
