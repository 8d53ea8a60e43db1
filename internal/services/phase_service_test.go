package services_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/cadencehq/ppmtrack/internal/services"
	"github.com/cadencehq/ppmtrack/internal/types"
)

func strPtr(s string) *string { return &s }

func datePtr(d types.Date) *types.Date { return &d }

// TestCreatePhaseValid verifies creating a phase that exactly covers the
// project range.
func TestCreatePhaseValid(t *testing.T) {
	db := setupTestDB(t)
	project := createTestProject(t, db, testDate(2026, 1, 1), testDate(2026, 12, 31))

	capital := testDec("600")
	expense := testDec("400")
	phase, err := services.CreatePhase(db, project.ID, services.PhasePayload{
		Name:          strPtr("Whole Year"),
		StartDate:     datePtr(testDate(2026, 1, 1)),
		EndDate:       datePtr(testDate(2026, 12, 31)),
		CapitalBudget: &capital,
		ExpenseBudget: &expense,
	})
	if err != nil {
		t.Fatalf("Expected phase creation to succeed, got: %v", err)
	}

	if phase.Version != 1 {
		t.Errorf("Expected version 1, got %d", phase.Version)
	}
	if !phase.TotalBudget.Equal(testDec("1000")) {
		t.Errorf("Expected total budget to default to 1000, got %s", phase.TotalBudget)
	}
}

// TestCreatePhaseLeavesGap verifies a first phase that does not cover the
// whole project range is rejected.
func TestCreatePhaseLeavesGap(t *testing.T) {
	db := setupTestDB(t)
	project := createTestProject(t, db, testDate(2026, 1, 1), testDate(2026, 12, 31))

	_, err := services.CreatePhase(db, project.ID, services.PhasePayload{
		Name:      strPtr("Partial"),
		StartDate: datePtr(testDate(2026, 1, 1)),
		EndDate:   datePtr(testDate(2026, 6, 30)),
	})
	if err == nil {
		t.Fatal("Expected gap validation failure")
	}

	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	if ve.Code != "VALIDATION_FAILED" {
		t.Errorf("Expected code VALIDATION_FAILED, got %s", ve.Code)
	}
}

// TestCreatePhaseBudgetMismatch verifies capital + expense must equal the
// stated total exactly.
func TestCreatePhaseBudgetMismatch(t *testing.T) {
	db := setupTestDB(t)
	project := createTestProject(t, db, testDate(2026, 1, 1), testDate(2026, 12, 31))

	capital := testDec("600")
	expense := testDec("400")
	total := testDec("999.99")
	_, err := services.CreatePhase(db, project.ID, services.PhasePayload{
		Name:          strPtr("Bad Budget"),
		StartDate:     datePtr(testDate(2026, 1, 1)),
		EndDate:       datePtr(testDate(2026, 12, 31)),
		CapitalBudget: &capital,
		ExpenseBudget: &expense,
		TotalBudget:   &total,
	})

	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if ve.Code != "INVALID_BUDGET" {
		t.Errorf("Expected code INVALID_BUDGET, got %s", ve.Code)
	}
}

// TestCreatePhaseNegativeBudget verifies a negative component is rejected
// even when the equality capital + expense == total holds.
func TestCreatePhaseNegativeBudget(t *testing.T) {
	db := setupTestDB(t)
	project := createTestProject(t, db, testDate(2026, 1, 1), testDate(2026, 12, 31))

	capital := testDec("-100")
	expense := testDec("200")
	total := testDec("100")
	_, err := services.CreatePhase(db, project.ID, services.PhasePayload{
		Name:          strPtr("Negative Budget"),
		StartDate:     datePtr(testDate(2026, 1, 1)),
		EndDate:       datePtr(testDate(2026, 12, 31)),
		CapitalBudget: &capital,
		ExpenseBudget: &expense,
		TotalBudget:   &total,
	})

	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if ve.Code != "INVALID_BUDGET" {
		t.Errorf("Expected code INVALID_BUDGET, got %s", ve.Code)
	}
	if !strings.Contains(ve.Message, "capitalBudget cannot be negative") {
		t.Errorf("Unexpected message: %s", ve.Message)
	}
}

// TestCreatePhaseProjectNotFound verifies a missing project yields a not
// found error, not a validation error.
func TestCreatePhaseProjectNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := services.CreatePhase(db, 999, services.PhasePayload{
		Name:      strPtr("Orphan"),
		StartDate: datePtr(testDate(2026, 1, 1)),
		EndDate:   datePtr(testDate(2026, 12, 31)),
	})

	var nf *types.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

// TestUpdatePhaseVersionConflict verifies a stale version yields a conflict
// carrying the current server-side state.
func TestUpdatePhaseVersionConflict(t *testing.T) {
	db := setupTestDB(t)
	project := createTestProject(t, db, testDate(2026, 1, 1), testDate(2026, 12, 31))
	phase := createTestPhase(t, db, project.ID, "Whole Year", testDate(2026, 1, 1), testDate(2026, 12, 31))

	// First writer renames the phase; version goes 1 -> 2.
	if _, err := services.UpdatePhase(db, project.ID, phase.ID, 1, services.PhasePayload{
		Name: strPtr("Renamed"),
	}); err != nil {
		t.Fatalf("First update failed: %v", err)
	}

	// Second writer still holds version 1.
	_, err := services.UpdatePhase(db, project.ID, phase.ID, 1, services.PhasePayload{
		Name: strPtr("Stale Rename"),
	})

	var conflict *types.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Expected ConflictError, got %v", err)
	}
	if conflict.EntityType != "phase" || conflict.EntityID != phase.ID {
		t.Errorf("Unexpected conflict identity: %s %d", conflict.EntityType, conflict.EntityID)
	}
	if conflict.CurrentState == nil {
		t.Error("Expected conflict to carry current state")
	}

	// The first writer's change must be intact.
	current, err := services.ListPhases(db, project.ID)
	if err != nil {
		t.Fatalf("ListPhases failed: %v", err)
	}
	if current[0].Name != "Renamed" || current[0].Version != 2 {
		t.Errorf("First write was clobbered: name=%s version=%d", current[0].Name, current[0].Version)
	}
}

// TestUpdatePhasePartialFields verifies nil payload fields keep their
// persisted values.
func TestUpdatePhasePartialFields(t *testing.T) {
	db := setupTestDB(t)
	project := createTestProject(t, db, testDate(2026, 1, 1), testDate(2026, 12, 31))
	phase := createTestPhase(t, db, project.ID, "Whole Year", testDate(2026, 1, 1), testDate(2026, 12, 31))

	updated, err := services.UpdatePhase(db, project.ID, phase.ID, 1, services.PhasePayload{
		Name: strPtr("New Name"),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Name != "New Name" {
		t.Errorf("Expected name update, got %s", updated.Name)
	}
	if !updated.StartDate.Equal(testDate(2026, 1, 1)) || !updated.EndDate.Equal(testDate(2026, 12, 31)) {
		t.Errorf("Dates changed unexpectedly: %s to %s", updated.StartDate, updated.EndDate)
	}
	if updated.Version != 2 {
		t.Errorf("Expected version 2, got %d", updated.Version)
	}
}

// TestUpdatePhaseBreaksTimeline verifies an edit that opens a gap between
// phases is rejected and nothing is persisted.
func TestUpdatePhaseBreaksTimeline(t *testing.T) {
	db := setupTestDB(t)
	project := createTestProject(t, db, testDate(2026, 1, 1), testDate(2026, 12, 31))
	first := createTestPhase(t, db, project.ID, "H1", testDate(2026, 1, 1), testDate(2026, 6, 30))
	createTestPhase(t, db, project.ID, "H2", testDate(2026, 7, 1), testDate(2026, 12, 31))

	_, err := services.UpdatePhase(db, project.ID, first.ID, 1, services.PhasePayload{
		EndDate: datePtr(testDate(2026, 5, 31)),
	})

	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}

	phases, _ := services.ListPhases(db, project.ID)
	if !phases[0].EndDate.Equal(testDate(2026, 6, 30)) {
		t.Errorf("Rejected update leaked into storage: end=%s", phases[0].EndDate)
	}
	if phases[0].Version != 1 {
		t.Errorf("Version bumped on rejected update: %d", phases[0].Version)
	}
}

// TestDeleteLastPhase verifies the only phase of a project cannot be
// deleted.
func TestDeleteLastPhase(t *testing.T) {
	db := setupTestDB(t)
	project := createTestProject(t, db, testDate(2026, 1, 1), testDate(2026, 12, 31))
	phase := createTestPhase(t, db, project.ID, "Only", testDate(2026, 1, 1), testDate(2026, 12, 31))

	err := services.DeletePhase(db, project.ID, phase.ID)

	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if ve.Code != "CANNOT_DELETE_LAST_PHASE" {
		t.Errorf("Expected code CANNOT_DELETE_LAST_PHASE, got %s", ve.Code)
	}
}

// TestDeletePhaseCreatesGap verifies deleting a middle phase is rejected
// when the remaining set no longer covers the project range.
func TestDeletePhaseCreatesGap(t *testing.T) {
	db := setupTestDB(t)
	project := createTestProject(t, db, testDate(2026, 1, 1), testDate(2026, 12, 31))
	createTestPhase(t, db, project.ID, "Q1", testDate(2026, 1, 1), testDate(2026, 3, 31))
	middle := createTestPhase(t, db, project.ID, "Q2-Q3", testDate(2026, 4, 1), testDate(2026, 9, 30))
	createTestPhase(t, db, project.ID, "Q4", testDate(2026, 10, 1), testDate(2026, 12, 31))

	err := services.DeletePhase(db, project.ID, middle.ID)

	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if ve.Code != "DELETION_CREATES_GAP" {
		t.Errorf("Expected code DELETION_CREATES_GAP, got %s", ve.Code)
	}

	phases, _ := services.ListPhases(db, project.ID)
	if len(phases) != 3 {
		t.Errorf("Rejected deletion removed a row: %d phases left", len(phases))
	}
}

// TestReplaceProjectPhases verifies the all-or-nothing phase set
// replacement: update, create and implicit delete in one call.
func TestReplaceProjectPhases(t *testing.T) {
	db := setupTestDB(t)
	project := createTestProject(t, db, testDate(2026, 1, 1), testDate(2026, 12, 31))
	kept := createTestPhase(t, db, project.ID, "H1", testDate(2026, 1, 1), testDate(2026, 6, 30))
	createTestPhase(t, db, project.ID, "H2", testDate(2026, 7, 1), testDate(2026, 12, 31))

	keptID := types.FlexUint64(kept.ID)
	final, err := services.ReplaceProjectPhases(db, project.ID, []services.PhasePayload{
		{
			ID:      &keptID,
			EndDate: datePtr(testDate(2026, 4, 30)),
		},
		{
			Name:      strPtr("Mid"),
			StartDate: datePtr(testDate(2026, 5, 1)),
			EndDate:   datePtr(testDate(2026, 8, 31)),
		},
		{
			Name:      strPtr("Tail"),
			StartDate: datePtr(testDate(2026, 9, 1)),
			EndDate:   datePtr(testDate(2026, 12, 31)),
		},
	})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if len(final) != 3 {
		t.Fatalf("Expected 3 phases, got %d", len(final))
	}

	phases, _ := services.ListPhases(db, project.ID)
	if len(phases) != 3 {
		t.Fatalf("Expected 3 stored phases, got %d", len(phases))
	}
	if phases[0].ID != kept.ID || phases[0].Version != 2 {
		t.Errorf("Kept phase not updated in place: id=%d version=%d", phases[0].ID, phases[0].Version)
	}
	if phases[1].Name != "Mid" || phases[1].Version != 1 {
		t.Errorf("New phase wrong: name=%s version=%d", phases[1].Name, phases[1].Version)
	}
}

// TestReplaceProjectPhasesInvalidSetAborts verifies a proposed set with a
// gap changes nothing.
func TestReplaceProjectPhasesInvalidSetAborts(t *testing.T) {
	db := setupTestDB(t)
	project := createTestProject(t, db, testDate(2026, 1, 1), testDate(2026, 12, 31))
	createTestPhase(t, db, project.ID, "Whole", testDate(2026, 1, 1), testDate(2026, 12, 31))

	_, err := services.ReplaceProjectPhases(db, project.ID, []services.PhasePayload{
		{
			Name:      strPtr("Partial"),
			StartDate: datePtr(testDate(2026, 1, 1)),
			EndDate:   datePtr(testDate(2026, 6, 30)),
		},
	})
	if err == nil {
		t.Fatal("Expected replacement to fail validation")
	}

	phases, _ := services.ListPhases(db, project.ID)
	if len(phases) != 1 || phases[0].Name != "Whole" {
		t.Errorf("Failed replacement mutated storage: %+v", phases)
	}
}
