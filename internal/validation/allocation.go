package validation

import (
	"fmt"
	"sort"

	"github.com/cadencehq/ppmtrack/internal/models"
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AllocationError carries the human-readable allocation-rule message.
// Callers match on the message text.
type AllocationError struct {
	Message string
}

func (e *AllocationError) Error() string {
	return e.Message
}

// AllocationInput is a proposed assignment allocation. AssignmentID is nil
// for a create and set for an in-place update, in which case the existing
// row's own contribution is excluded from the cross-project total.
type AllocationInput struct {
	AssignmentID *uint64
	ResourceID   uint64
	Date         types.Date
	Capital      decimal.Decimal
	Expense      decimal.Decimal
}

// checkPercentageBounds rejects a percentage outside 0-100. Runs before
// any sum so a negative field cannot mask an over-range sibling.
func checkPercentageBounds(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return &AllocationError{Message: fmt.Sprintf(
			"%s percentage must be between 0 and 100 (got %s%%)", field, v)}
	}
	return nil
}

// CheckAllocation validates a proposed allocation against the resource's
// other assignments on the same date, across all projects. Field bounds
// and the single-row cap fail fast before the cross-project computation.
func CheckAllocation(input AllocationInput, others []models.ResourceAssignment) error {
	if err := checkPercentageBounds("capital", input.Capital); err != nil {
		return err
	}
	if err := checkPercentageBounds("expense", input.Expense); err != nil {
		return err
	}

	thisTotal := input.Capital.Add(input.Expense)

	if thisTotal.GreaterThan(hundred) {
		return &AllocationError{Message: fmt.Sprintf(
			"capital and expense percentages cannot exceed 100%% for a single assignment (got %s%%)",
			thisTotal)}
	}

	currentOther := decimal.Zero
	for i := range others {
		a := &others[i]
		if input.AssignmentID != nil && a.ID == *input.AssignmentID {
			continue
		}
		currentOther = currentOther.Add(a.AllocationTotal())
	}

	wouldResultIn := currentOther.Add(thisTotal)
	if wouldResultIn.GreaterThan(hundred) {
		return &AllocationError{Message: fmt.Sprintf(
			"assignment would exceed 100%% allocation for resource %d on %s. "+
				"Current total across other projects: %s. This assignment: %s. Would result in: %s",
			input.ResourceID, input.Date, currentOther, thisTotal, wouldResultIn)}
	}

	return nil
}

// BatchAllocationRow is one proposed allocation inside a batch import.
type BatchAllocationRow struct {
	WorkerID uint64
	Date     types.Date
	Capital  decimal.Decimal
	Expense  decimal.Decimal
}

// AllocationConflict flags one (worker, date) key whose summed allocation
// exceeds 100 across the whole batch.
type AllocationConflict struct {
	WorkerID uint64          `json:"workerId"`
	Date     types.Date      `json:"date"`
	Total    decimal.Decimal `json:"total"`
}

// FindBatchAllocationConflicts sums proposed allocations per (worker, date)
// key before any persistence and returns every key over 100 or carrying a
// field outside 0-100, in a stable order. Used to reject an import
// wholesale rather than partially commit.
func FindBatchAllocationConflicts(rows []BatchAllocationRow) []AllocationConflict {
	type key struct {
		workerID uint64
		date     string
	}

	totals := make(map[key]decimal.Decimal)
	dates := make(map[key]types.Date)
	outOfRange := make(map[key]bool)
	for i := range rows {
		r := &rows[i]
		k := key{workerID: r.WorkerID, date: r.Date.String()}
		if checkPercentageBounds("capital", r.Capital) != nil ||
			checkPercentageBounds("expense", r.Expense) != nil {
			outOfRange[k] = true
		}
		totals[k] = totals[k].Add(r.Capital).Add(r.Expense)
		dates[k] = r.Date
	}

	var conflicts []AllocationConflict
	for k, total := range totals {
		if outOfRange[k] || total.GreaterThan(hundred) {
			conflicts = append(conflicts, AllocationConflict{
				WorkerID: k.workerID,
				Date:     dates[k],
				Total:    total,
			})
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].WorkerID != conflicts[j].WorkerID {
			return conflicts[i].WorkerID < conflicts[j].WorkerID
		}
		return conflicts[i].Date.Before(conflicts[j].Date)
	})

	return conflicts
}
