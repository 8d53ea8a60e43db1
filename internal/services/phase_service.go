package services

import (
	"errors"
	"fmt"

	"github.com/cadencehq/ppmtrack/internal/models"
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/cadencehq/ppmtrack/internal/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PhasePayload is the request shape for phase create/update. Nil fields on
// an update retain the persisted values (partial-update semantics).
type PhasePayload struct {
	ID            *types.FlexUint64 `json:"id"`
	Version       *types.FlexUint64 `json:"version"`
	Name          *string           `json:"name"`
	StartDate     *types.Date       `json:"startDate"`
	EndDate       *types.Date       `json:"endDate"`
	CapitalBudget *decimal.Decimal  `json:"capitalBudget"`
	ExpenseBudget *decimal.Decimal  `json:"expenseBudget"`
	TotalBudget   *decimal.Decimal  `json:"totalBudget"`
}

// CreatePhase validates the project's full candidate timeline (existing
// phases plus the new one) and persists the phase only if the whole set is
// valid. Unset budgets default to zero; when TotalBudget is unset it
// defaults to capital + expense.
func CreatePhase(db *gorm.DB, projectID uint64, payload PhasePayload) (*models.Phase, error) {
	var created *models.Phase

	err := db.Transaction(func(tx *gorm.DB) error {
		project, err := loadProject(tx, projectID)
		if err != nil {
			return err
		}

		var fieldErrs []types.FieldError
		if payload.Name == nil || *payload.Name == "" {
			fieldErrs = append(fieldErrs, types.FieldError{Field: "name", Message: "name is required"})
		}
		if payload.StartDate == nil {
			fieldErrs = append(fieldErrs, types.FieldError{Field: "startDate", Message: "startDate is required"})
		}
		if payload.EndDate == nil {
			fieldErrs = append(fieldErrs, types.FieldError{Field: "endDate", Message: "endDate is required"})
		}
		if len(fieldErrs) > 0 {
			return &types.ValidationError{
				Code:    "VALIDATION_FAILED",
				Message: "phase is missing required fields",
				Details: fieldErrs,
			}
		}

		capital, expense, total := resolveBudgets(payload, decimal.Zero, decimal.Zero, nil)
		if err := checkBudgetEquality(capital, expense, total); err != nil {
			return err
		}

		existing, err := loadPhases(tx, projectID)
		if err != nil {
			return err
		}

		candidate := phaseInputs(existing)
		candidate = append(candidate, validation.PhaseInput{
			Name:      *payload.Name,
			StartDate: *payload.StartDate,
			EndDate:   *payload.EndDate,
		})

		result := validation.ValidatePhaseTimeline(project.StartDate, project.EndDate, candidate)
		if !result.IsValid {
			return &types.ValidationError{
				Code:    "VALIDATION_FAILED",
				Message: "phase timeline validation failed",
				Details: result.Errors,
			}
		}

		phase := &models.Phase{
			ProjectID:     projectID,
			Name:          *payload.Name,
			StartDate:     *payload.StartDate,
			EndDate:       *payload.EndDate,
			CapitalBudget: capital,
			ExpenseBudget: expense,
			TotalBudget:   total,
		}
		phase.Version = 1
		if err := tx.Create(phase).Error; err != nil {
			return err
		}

		created = phase
		return nil
	})

	return created, err
}

// UpdatePhase substitutes the proposed fields into the project's candidate
// timeline, re-validates the whole set and applies a version-guarded
// update. Nil payload fields keep their current values.
func UpdatePhase(db *gorm.DB, projectID, phaseID, version uint64, payload PhasePayload) (*models.Phase, error) {
	var updated *models.Phase

	err := db.Transaction(func(tx *gorm.DB) error {
		project, err := loadProject(tx, projectID)
		if err != nil {
			return err
		}

		existing, err := loadPhases(tx, projectID)
		if err != nil {
			return err
		}

		var current *models.Phase
		for i := range existing {
			if existing[i].ID == phaseID {
				current = &existing[i]
				break
			}
		}
		if current == nil {
			return &types.NotFoundError{Resource: "phase", ID: phaseID}
		}

		if current.Version != version {
			return conflictFor(current)
		}

		name := current.Name
		if payload.Name != nil {
			name = *payload.Name
		}
		start := current.StartDate
		if payload.StartDate != nil {
			start = *payload.StartDate
		}
		end := current.EndDate
		if payload.EndDate != nil {
			end = *payload.EndDate
		}

		capital, expense, total := resolveBudgets(payload, current.CapitalBudget, current.ExpenseBudget, &current.TotalBudget)
		if err := checkBudgetEquality(capital, expense, total); err != nil {
			return err
		}

		candidate := make([]validation.PhaseInput, 0, len(existing))
		for i := range existing {
			p := &existing[i]
			if p.ID == phaseID {
				id := p.ID
				candidate = append(candidate, validation.PhaseInput{
					ID: &id, Name: name, StartDate: start, EndDate: end,
				})
				continue
			}
			candidate = append(candidate, phaseInput(p))
		}

		result := validation.ValidatePhaseTimeline(project.StartDate, project.EndDate, candidate)
		if !result.IsValid {
			return &types.ValidationError{
				Code:    "VALIDATION_FAILED",
				Message: "phase timeline validation failed",
				Details: result.Errors,
			}
		}

		updates := map[string]interface{}{
			"name":           name,
			"start_date":     start,
			"end_date":       end,
			"capital_budget": capital,
			"expense_budget": expense,
			"total_budget":   total,
			"version":        version + 1,
		}
		res := tx.Model(current).Where("version = ?", version).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return refreshedConflict(tx, current.EntityType(), phaseID, &models.Phase{})
		}

		current.Name = name
		current.StartDate = start
		current.EndDate = end
		current.CapitalBudget = capital
		current.ExpenseBudget = expense
		current.TotalBudget = total
		current.Version = version + 1
		updated = current
		return nil
	})

	return updated, err
}

// DeletePhase refuses to delete the project's only phase, and refuses any
// deletion whose remaining phase set would not itself be a valid timeline.
func DeletePhase(db *gorm.DB, projectID, phaseID uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		project, err := loadProject(tx, projectID)
		if err != nil {
			return err
		}

		existing, err := loadPhases(tx, projectID)
		if err != nil {
			return err
		}

		var target *models.Phase
		remaining := make([]validation.PhaseInput, 0, len(existing))
		for i := range existing {
			p := &existing[i]
			if p.ID == phaseID {
				target = p
				continue
			}
			remaining = append(remaining, phaseInput(p))
		}
		if target == nil {
			return &types.NotFoundError{Resource: "phase", ID: phaseID}
		}

		if len(existing) == 1 {
			return &types.ValidationError{
				Code:    "CANNOT_DELETE_LAST_PHASE",
				Message: fmt.Sprintf("phase %d is the only phase of project %d and cannot be deleted", phaseID, projectID),
			}
		}

		result := validation.ValidatePhaseTimeline(project.StartDate, project.EndDate, remaining)
		if !result.IsValid {
			return &types.ValidationError{
				Code:    "DELETION_CREATES_GAP",
				Message: "deleting this phase would break the project timeline",
				Details: result.Errors,
			}
		}

		return tx.Delete(target).Error
	})
}

// ReplaceProjectPhases applies the complete desired phase list in one
// all-or-nothing call: omitted existing phases are deleted, phases without
// an id are created, phases with an id are updated. Validation of the
// entire proposed set happens before any mutation.
func ReplaceProjectPhases(db *gorm.DB, projectID uint64, payloads []PhasePayload) ([]models.Phase, error) {
	var final []models.Phase

	err := db.Transaction(func(tx *gorm.DB) error {
		project, err := loadProject(tx, projectID)
		if err != nil {
			return err
		}

		existing, err := loadPhases(tx, projectID)
		if err != nil {
			return err
		}
		byID := make(map[uint64]*models.Phase, len(existing))
		for i := range existing {
			byID[existing[i].ID] = &existing[i]
		}

		type resolved struct {
			payload  PhasePayload
			current  *models.Phase
			name     string
			start    types.Date
			end      types.Date
			capital  decimal.Decimal
			expense  decimal.Decimal
			total    decimal.Decimal
			phaseIDp *uint64
		}

		items := make([]resolved, 0, len(payloads))
		candidate := make([]validation.PhaseInput, 0, len(payloads))
		proposedIDs := make(map[uint64]bool, len(payloads))

		for i := range payloads {
			p := payloads[i]
			item := resolved{payload: p}

			if p.ID != nil {
				id := p.ID.Uint64()
				current, ok := byID[id]
				if !ok {
					return &types.NotFoundError{Resource: "phase", ID: id}
				}
				proposedIDs[id] = true
				item.current = current
				item.phaseIDp = &current.ID
				item.name = current.Name
				item.start = current.StartDate
				item.end = current.EndDate
				item.capital, item.expense, item.total = resolveBudgets(p, current.CapitalBudget, current.ExpenseBudget, &current.TotalBudget)
			} else {
				item.capital, item.expense, item.total = resolveBudgets(p, decimal.Zero, decimal.Zero, nil)
			}

			if p.Name != nil {
				item.name = *p.Name
			}
			if p.StartDate != nil {
				item.start = *p.StartDate
			}
			if p.EndDate != nil {
				item.end = *p.EndDate
			}

			if item.current == nil && (item.name == "" || p.StartDate == nil || p.EndDate == nil) {
				return &types.ValidationError{
					Code:    "VALIDATION_FAILED",
					Message: fmt.Sprintf("new phase at position %d is missing required fields", i),
				}
			}

			// Per-phase budget equality aborts the whole batch before
			// any persistence step.
			if err := checkBudgetEquality(item.capital, item.expense, item.total); err != nil {
				return err
			}

			items = append(items, item)
			candidate = append(candidate, validation.PhaseInput{
				ID: item.phaseIDp, Name: item.name, StartDate: item.start, EndDate: item.end,
			})
		}

		result := validation.ValidatePhaseTimeline(project.StartDate, project.EndDate, candidate)
		if !result.IsValid {
			return &types.ValidationError{
				Code:    "VALIDATION_FAILED",
				Message: "phase timeline validation failed",
				Details: result.Errors,
			}
		}

		// Delete phases absent from the proposed set.
		for i := range existing {
			p := &existing[i]
			if !proposedIDs[p.ID] {
				if err := tx.Delete(p).Error; err != nil {
					return err
				}
			}
		}

		for i := range items {
			item := &items[i]
			if item.current != nil {
				updates := map[string]interface{}{
					"name":           item.name,
					"start_date":     item.start,
					"end_date":       item.end,
					"capital_budget": item.capital,
					"expense_budget": item.expense,
					"total_budget":   item.total,
					"version":        item.current.Version + 1,
				}
				res := tx.Model(item.current).Where("version = ?", item.current.Version).Updates(updates)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return refreshedConflict(tx, item.current.EntityType(), item.current.ID, &models.Phase{})
				}
				item.current.Name = item.name
				item.current.StartDate = item.start
				item.current.EndDate = item.end
				item.current.CapitalBudget = item.capital
				item.current.ExpenseBudget = item.expense
				item.current.TotalBudget = item.total
				item.current.Version++
				final = append(final, *item.current)
				continue
			}

			phase := models.Phase{
				ProjectID:     projectID,
				Name:          item.name,
				StartDate:     item.start,
				EndDate:       item.end,
				CapitalBudget: item.capital,
				ExpenseBudget: item.expense,
				TotalBudget:   item.total,
			}
			phase.Version = 1
			if err := tx.Create(&phase).Error; err != nil {
				return err
			}
			final = append(final, phase)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}
	return final, nil
}

// ListPhases returns a project's phases ordered by start date.
func ListPhases(db *gorm.DB, projectID uint64) ([]models.Phase, error) {
	if _, err := loadProject(db, projectID); err != nil {
		return nil, err
	}
	return loadPhases(db, projectID)
}

func loadProject(tx *gorm.DB, projectID uint64) (*models.Project, error) {
	var project models.Project
	if err := tx.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &types.NotFoundError{Resource: "project", ID: projectID}
		}
		return nil, err
	}
	return &project, nil
}

func loadPhases(tx *gorm.DB, projectID uint64) ([]models.Phase, error) {
	var phases []models.Phase
	err := tx.Where("project_id = ?", projectID).Order("start_date").Find(&phases).Error
	return phases, err
}

func phaseInput(p *models.Phase) validation.PhaseInput {
	id := p.ID
	return validation.PhaseInput{ID: &id, Name: p.Name, StartDate: p.StartDate, EndDate: p.EndDate}
}

func phaseInputs(phases []models.Phase) []validation.PhaseInput {
	inputs := make([]validation.PhaseInput, 0, len(phases))
	for i := range phases {
		inputs = append(inputs, phaseInput(&phases[i]))
	}
	return inputs
}

// resolveBudgets merges payload budgets over the current values. When the
// payload sets no TotalBudget and none exists, it defaults to capital +
// expense.
func resolveBudgets(p PhasePayload, curCapital, curExpense decimal.Decimal, curTotal *decimal.Decimal) (capital, expense, total decimal.Decimal) {
	capital = curCapital
	if p.CapitalBudget != nil {
		capital = *p.CapitalBudget
	}
	expense = curExpense
	if p.ExpenseBudget != nil {
		expense = *p.ExpenseBudget
	}
	switch {
	case p.TotalBudget != nil:
		total = *p.TotalBudget
	case curTotal != nil && p.CapitalBudget == nil && p.ExpenseBudget == nil:
		total = *curTotal
	default:
		total = capital.Add(expense)
	}
	return capital, expense, total
}

// checkBudgetEquality rejects negative budget components, then enforces
// capital + expense == total, exact decimal equality with no tolerance.
func checkBudgetEquality(capital, expense, total decimal.Decimal) error {
	components := []struct {
		field string
		value decimal.Decimal
	}{
		{"capitalBudget", capital},
		{"expenseBudget", expense},
		{"totalBudget", total},
	}
	for _, b := range components {
		if b.value.IsNegative() {
			return &types.ValidationError{
				Code:    "INVALID_BUDGET",
				Message: fmt.Sprintf("%s cannot be negative (got %s)", b.field, b.value),
				Details: []types.FieldError{{
					Field:   b.field,
					Message: "budget cannot be negative",
				}},
			}
		}
	}

	if !capital.Add(expense).Equal(total) {
		return &types.ValidationError{
			Code:    "INVALID_BUDGET",
			Message: fmt.Sprintf("capital budget %s plus expense budget %s must equal total budget %s", capital, expense, total),
			Details: []types.FieldError{{
				Field:   "totalBudget",
				Message: "capital_budget + expense_budget must equal total_budget",
			}},
		}
	}
	return nil
}
