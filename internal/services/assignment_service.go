package services

import (
	"errors"

	"github.com/cadencehq/ppmtrack/internal/models"
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/cadencehq/ppmtrack/internal/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AssignmentPayload is the request shape for assignment create/update.
// Nil fields on an update retain the persisted values.
type AssignmentPayload struct {
	ResourceID        *uint64          `json:"resourceId"`
	ProjectID         *uint64          `json:"projectId"`
	AssignmentDate    *types.Date      `json:"assignmentDate"`
	CapitalPercentage *decimal.Decimal `json:"capitalPercentage"`
	ExpensePercentage *decimal.Decimal `json:"expensePercentage"`
}

// CreateAssignment validates the allocation against every other assignment
// the resource holds on that date, across all projects, and persists only
// when the combined total stays within 100%.
func CreateAssignment(db *gorm.DB, payload AssignmentPayload) (*models.ResourceAssignment, error) {
	var created *models.ResourceAssignment

	err := db.Transaction(func(tx *gorm.DB) error {
		if payload.ResourceID == nil || payload.ProjectID == nil || payload.AssignmentDate == nil ||
			payload.CapitalPercentage == nil || payload.ExpensePercentage == nil {
			return &types.ValidationError{
				Code:    "VALIDATION_FAILED",
				Message: "resourceId, projectId, assignmentDate, capitalPercentage and expensePercentage are required",
			}
		}

		if err := ensureExists(tx, &models.Resource{}, "resource", *payload.ResourceID); err != nil {
			return err
		}
		if err := ensureExists(tx, &models.Project{}, "project", *payload.ProjectID); err != nil {
			return err
		}

		others, err := assignmentsOn(tx, *payload.ResourceID, *payload.AssignmentDate)
		if err != nil {
			return err
		}

		input := validation.AllocationInput{
			ResourceID: *payload.ResourceID,
			Date:       *payload.AssignmentDate,
			Capital:    *payload.CapitalPercentage,
			Expense:    *payload.ExpensePercentage,
		}
		if err := validation.CheckAllocation(input, others); err != nil {
			return err
		}

		assignment := &models.ResourceAssignment{
			ResourceID:        *payload.ResourceID,
			ProjectID:         *payload.ProjectID,
			AssignmentDate:    *payload.AssignmentDate,
			CapitalPercentage: *payload.CapitalPercentage,
			ExpensePercentage: *payload.ExpensePercentage,
		}
		assignment.Version = 1
		if err := tx.Create(assignment).Error; err != nil {
			return err
		}

		created = assignment
		return nil
	})

	return created, err
}

// UpdateAssignment re-validates the cross-project allocation with the
// assignment's own prior contribution excluded, then applies a
// version-guarded update. A stale version yields a ConflictError carrying
// the current server-side state.
func UpdateAssignment(db *gorm.DB, id, version uint64, payload AssignmentPayload) (*models.ResourceAssignment, error) {
	var updated *models.ResourceAssignment

	err := db.Transaction(func(tx *gorm.DB) error {
		var current models.ResourceAssignment
		if err := tx.First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: "resource_assignment", ID: id}
			}
			return err
		}

		if current.Version != version {
			return conflictFor(&current)
		}

		resourceID := current.ResourceID
		if payload.ResourceID != nil {
			resourceID = *payload.ResourceID
		}
		projectID := current.ProjectID
		if payload.ProjectID != nil {
			projectID = *payload.ProjectID
		}
		date := current.AssignmentDate
		if payload.AssignmentDate != nil {
			date = *payload.AssignmentDate
		}
		capital := current.CapitalPercentage
		if payload.CapitalPercentage != nil {
			capital = *payload.CapitalPercentage
		}
		expense := current.ExpensePercentage
		if payload.ExpensePercentage != nil {
			expense = *payload.ExpensePercentage
		}

		others, err := assignmentsOn(tx, resourceID, date)
		if err != nil {
			return err
		}

		input := validation.AllocationInput{
			AssignmentID: &id,
			ResourceID:   resourceID,
			Date:         date,
			Capital:      capital,
			Expense:      expense,
		}
		if err := validation.CheckAllocation(input, others); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"resource_id":        resourceID,
			"project_id":         projectID,
			"assignment_date":    date,
			"capital_percentage": capital,
			"expense_percentage": expense,
			"version":            version + 1,
		}
		res := tx.Model(&current).Where("version = ?", version).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return refreshedConflict(tx, current.EntityType(), id, &models.ResourceAssignment{})
		}

		current.ResourceID = resourceID
		current.ProjectID = projectID
		current.AssignmentDate = date
		current.CapitalPercentage = capital
		current.ExpensePercentage = expense
		current.Version = version + 1
		updated = &current
		return nil
	})

	return updated, err
}

// DeleteAssignment removes the assignment's contribution from the
// cross-project sum, guarded by the same version check as updates.
func DeleteAssignment(db *gorm.DB, id, version uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var current models.ResourceAssignment
		if err := tx.First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: "resource_assignment", ID: id}
			}
			return err
		}

		if current.Version != version {
			return conflictFor(&current)
		}

		res := tx.Where("version = ?", version).Delete(&current)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return refreshedConflict(tx, current.EntityType(), id, &models.ResourceAssignment{})
		}
		return nil
	})
}

// BulkAssignmentItem is one element of a bulk update request.
type BulkAssignmentItem struct {
	ID      types.FlexUint64 `json:"id"`
	Version types.FlexUint64 `json:"version"`
	AssignmentPayload
}

// BulkItemSuccess reports one applied update with its new version.
type BulkItemSuccess struct {
	ID      uint64 `json:"id"`
	Version uint64 `json:"version"`
}

// BulkItemFailure reports one rejected update. Error is "conflict" for
// version mismatches; CurrentState is set so the caller can reconcile.
type BulkItemFailure struct {
	ID           uint64      `json:"id"`
	Error        string      `json:"error"`
	Message      string      `json:"message"`
	CurrentState interface{} `json:"currentState,omitempty"`
}

// BulkUpdateResult partitions a bulk request into applied and rejected
// items. len(Succeeded) + len(Failed) always equals the input length.
type BulkUpdateResult struct {
	Succeeded []BulkItemSuccess `json:"succeeded"`
	Failed    []BulkItemFailure `json:"failed"`
}

// BulkUpdateAssignments validates and applies each item independently.
// Partial success is the expected, normal outcome: per-item conflicts and
// validation failures become failure entries without aborting the batch.
func BulkUpdateAssignments(db *gorm.DB, items []BulkAssignmentItem) BulkUpdateResult {
	result := BulkUpdateResult{
		Succeeded: []BulkItemSuccess{},
		Failed:    []BulkItemFailure{},
	}

	for i := range items {
		item := &items[i]
		id := item.ID.Uint64()

		updated, err := UpdateAssignment(db, id, item.Version.Uint64(), item.AssignmentPayload)
		if err == nil {
			result.Succeeded = append(result.Succeeded, BulkItemSuccess{ID: updated.ID, Version: updated.Version})
			continue
		}

		failure := BulkItemFailure{ID: id, Message: err.Error()}
		var conflict *types.ConflictError
		var notFound *types.NotFoundError
		var allocErr *validation.AllocationError
		switch {
		case errors.As(err, &conflict):
			failure.Error = "conflict"
			failure.CurrentState = conflict.CurrentState
		case errors.As(err, &notFound):
			failure.Error = "not_found"
		case errors.As(err, &allocErr):
			failure.Error = "validation"
		default:
			failure.Error = "error"
		}
		result.Failed = append(result.Failed, failure)
	}

	return result
}

// ListAssignments returns a resource's assignments on one date across all
// projects.
func ListAssignments(db *gorm.DB, resourceID uint64, date types.Date) ([]models.ResourceAssignment, error) {
	return assignmentsOn(db, resourceID, date)
}

func assignmentsOn(tx *gorm.DB, resourceID uint64, date types.Date) ([]models.ResourceAssignment, error) {
	var assignments []models.ResourceAssignment
	err := tx.Where("resource_id = ? AND assignment_date = ?", resourceID, date).
		Order("id").Find(&assignments).Error
	return assignments, err
}

func ensureExists(tx *gorm.DB, model interface{}, resource string, id uint64) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &types.NotFoundError{Resource: resource, ID: id}
	}
	return nil
}
