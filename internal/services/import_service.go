package services

import (
	"fmt"

	"github.com/cadencehq/ppmtrack/internal/models"
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/cadencehq/ppmtrack/internal/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ActualRow is one pre-parsed row of an actuals import. Parsing the upload
// format is the caller's concern.
type ActualRow struct {
	ProjectID         uint64          `json:"projectId"`
	WorkerID          uint64          `json:"workerId"`
	ActualDate        types.Date      `json:"actualDate"`
	Amount            decimal.Decimal `json:"amount"`
	CapitalPercentage decimal.Decimal `json:"capitalPercentage"`
	ExpensePercentage decimal.Decimal `json:"expensePercentage"`
}

// ImportActuals sums proposed allocations per (worker, date) key across the
// whole batch before touching the database. Any key over 100% rejects the
// import wholesale; otherwise every row is inserted in one transaction.
func ImportActuals(db *gorm.DB, rows []ActualRow) (int, error) {
	if len(rows) == 0 {
		return 0, &types.ValidationError{
			Code:    "VALIDATION_FAILED",
			Message: "import contains no rows",
		}
	}

	batch := make([]validation.BatchAllocationRow, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		batch = append(batch, validation.BatchAllocationRow{
			WorkerID: r.WorkerID,
			Date:     r.ActualDate,
			Capital:  r.CapitalPercentage,
			Expense:  r.ExpensePercentage,
		})
	}

	conflicts := validation.FindBatchAllocationConflicts(batch)
	if len(conflicts) > 0 {
		details := make([]types.FieldError, 0, len(conflicts))
		for _, c := range conflicts {
			details = append(details, types.FieldError{
				Field: "rows",
				Message: fmt.Sprintf("worker %d on %s would exceed 100%% allocation (total %s%%)",
					c.WorkerID, c.Date, c.Total),
			})
		}
		return 0, &types.ValidationError{
			Code:    "IMPORT_ALLOCATION_CONFLICT",
			Message: fmt.Sprintf("%d worker/date allocations exceed 100%%", len(conflicts)),
			Details: details,
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			r := &rows[i]
			actual := models.Actual{
				ProjectID:         r.ProjectID,
				WorkerID:          r.WorkerID,
				ActualDate:        r.ActualDate,
				Amount:            r.Amount,
				CapitalPercentage: r.CapitalPercentage,
				ExpensePercentage: r.ExpensePercentage,
			}
			actual.Version = 1
			if err := tx.Create(&actual).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(rows), nil
}
