package services

import (
	"github.com/cadencehq/ppmtrack/internal/config"
	"github.com/cadencehq/ppmtrack/internal/models"
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// PhaseForecast is the budget/forecast/actual picture for one phase.
type PhaseForecast struct {
	PhaseID       uint64          `json:"phaseId"`
	Name          string          `json:"name"`
	CapitalBudget decimal.Decimal `json:"capitalBudget"`
	ExpenseBudget decimal.Decimal `json:"expenseBudget"`
	TotalBudget   decimal.Decimal `json:"totalBudget"`
	ForecastCost  decimal.Decimal `json:"forecastCost"`
	ActualCost    decimal.Decimal `json:"actualCost"`
	Variance      decimal.Decimal `json:"variance"`
}

// ProjectForecastReport aggregates the per-phase figures.
type ProjectForecastReport struct {
	ProjectID     uint64          `json:"projectId"`
	ProjectName   string          `json:"projectName"`
	Phases        []PhaseForecast `json:"phases"`
	TotalBudget   decimal.Decimal `json:"totalBudget"`
	TotalForecast decimal.Decimal `json:"totalForecast"`
	TotalActual   decimal.Decimal `json:"totalActual"`
	TotalVariance decimal.Decimal `json:"totalVariance"`
}

// ProjectForecast computes a per-phase forecast from the project's
// assignments and rates, and a variance against the phase budgets.
// Forecast cost for a day is dailyRate * allocation/100; when no rate
// resolves for the worker type, the configured fallback daily rate
// applies. Variance is budget minus forecast, simple sums only.
func ProjectForecast(db *gorm.DB, cfg *config.Config, projectID uint64) (*ProjectForecastReport, error) {
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	phases, err := loadPhases(db, projectID)
	if err != nil {
		return nil, err
	}

	var assignments []models.ResourceAssignment
	if err := db.Clauses(hints.CommentBefore("select", "ppmtrack:forecast")).
		Where("project_id = ?", projectID).
		Order("assignment_date").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	rates, err := loadRateTable(db)
	if err != nil {
		return nil, err
	}
	resourceTypes, err := loadResourceWorkerTypes(db, assignments)
	if err != nil {
		return nil, err
	}

	report := &ProjectForecastReport{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Phases:      []PhaseForecast{},
	}

	for i := range phases {
		phase := &phases[i]
		forecast := decimal.Zero

		for j := range assignments {
			a := &assignments[j]
			if a.AssignmentDate.Before(phase.StartDate) || a.AssignmentDate.After(phase.EndDate) {
				continue
			}
			rate := cfg.ForecastDefaultDailyRate
			if typeID, ok := resourceTypes[a.ResourceID]; ok {
				if r, ok := rates.lookup(typeID, a.AssignmentDate); ok {
					rate = r
				}
			}
			forecast = forecast.Add(rate.Mul(a.AllocationTotal()).Div(decimal.NewFromInt(100)))
		}

		var actualTotal struct {
			Total decimal.Decimal
		}
		if err := db.Clauses(hints.CommentBefore("select", "ppmtrack:forecast")).
			Model(&models.Actual{}).
			Select("COALESCE(SUM(amount), 0) AS total").
			Where("project_id = ? AND actual_date >= ? AND actual_date <= ?",
				projectID, phase.StartDate, phase.EndDate).
			Scan(&actualTotal).Error; err != nil {
			return nil, err
		}

		pf := PhaseForecast{
			PhaseID:       phase.ID,
			Name:          phase.Name,
			CapitalBudget: phase.CapitalBudget,
			ExpenseBudget: phase.ExpenseBudget,
			TotalBudget:   phase.TotalBudget,
			ForecastCost:  forecast,
			ActualCost:    actualTotal.Total,
			Variance:      phase.TotalBudget.Sub(forecast),
		}
		report.Phases = append(report.Phases, pf)
		report.TotalBudget = report.TotalBudget.Add(pf.TotalBudget)
		report.TotalForecast = report.TotalForecast.Add(pf.ForecastCost)
		report.TotalActual = report.TotalActual.Add(pf.ActualCost)
	}
	report.TotalVariance = report.TotalBudget.Sub(report.TotalForecast)

	return report, nil
}

// rateTable indexes rates by worker type, newest effective date first.
type rateTable map[uint64][]models.Rate

func loadRateTable(db *gorm.DB) (rateTable, error) {
	var rates []models.Rate
	if err := db.Order("worker_type_id, effective_date DESC").Find(&rates).Error; err != nil {
		return nil, err
	}
	table := make(rateTable)
	for i := range rates {
		table[rates[i].WorkerTypeID] = append(table[rates[i].WorkerTypeID], rates[i])
	}
	return table, nil
}

// lookup returns the newest rate effective on or before the date.
func (t rateTable) lookup(workerTypeID uint64, date types.Date) (decimal.Decimal, bool) {
	for _, r := range t[workerTypeID] {
		if !r.EffectiveDate.After(date) {
			return r.DailyRate, true
		}
	}
	return decimal.Zero, false
}

// loadResourceWorkerTypes maps each assigned resource to its worker type
// via the resource's linked worker.
func loadResourceWorkerTypes(db *gorm.DB, assignments []models.ResourceAssignment) (map[uint64]uint64, error) {
	ids := make([]uint64, 0, len(assignments))
	seen := make(map[uint64]bool)
	for i := range assignments {
		id := assignments[i].ResourceID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return map[uint64]uint64{}, nil
	}

	var resources []models.Resource
	if err := db.Where("id IN ?", ids).Find(&resources).Error; err != nil {
		return nil, err
	}
	workerIDs := make([]uint64, 0, len(resources))
	resourceWorker := make(map[uint64]uint64)
	for i := range resources {
		r := &resources[i]
		if r.WorkerID != nil {
			resourceWorker[r.ID] = *r.WorkerID
			workerIDs = append(workerIDs, *r.WorkerID)
		}
	}
	if len(workerIDs) == 0 {
		return map[uint64]uint64{}, nil
	}

	var workers []models.Worker
	if err := db.Where("id IN ?", workerIDs).Find(&workers).Error; err != nil {
		return nil, err
	}
	workerType := make(map[uint64]uint64, len(workers))
	for i := range workers {
		workerType[workers[i].ID] = workers[i].WorkerTypeID
	}

	result := make(map[uint64]uint64)
	for resourceID, workerID := range resourceWorker {
		if typeID, ok := workerType[workerID]; ok {
			result[resourceID] = typeID
		}
	}
	return result, nil
}
