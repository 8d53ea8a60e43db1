package handlers

import (
	"github.com/cadencehq/ppmtrack/internal/config"
	"github.com/cadencehq/ppmtrack/internal/services"
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/cadencehq/ppmtrack/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ReportHandler handles forecast reports and actuals imports.
type ReportHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// ProjectForecast handles GET /api/projects/:projectId/forecast
// @Summary Project forecast report
// @Description Per-phase budget, forecast cost, actual cost and variance for a project
// @Tags Reports
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {object} services.ProjectForecastReport
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /projects/{projectId}/forecast [get]
func (h *ReportHandler) ProjectForecast(c *fiber.Ctx) error {
	projectID, ok := parseIDParam(c, "projectId")
	if !ok {
		return nil
	}

	report, err := services.ProjectForecast(h.DB, h.Cfg, projectID)
	if err != nil {
		return respondServiceError(c, h.DB, err, 0)
	}

	return c.Status(fiber.StatusOK).JSON(report)
}

// ImportActuals handles POST /api/actuals/import
// @Summary Import actuals
// @Description Insert a batch of actuals after validating per-worker daily allocation totals
// @Tags Reports
// @Accept json
// @Produce json
// @Param body body object true "Actual rows"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /actuals/import [post]
func (h *ReportHandler) ImportActuals(c *fiber.Ctx) error {
	var body struct {
		Rows types.FlexList[services.ActualRow] `json:"rows"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "tracking.validation.input")
	}

	imported, err := services.ImportActuals(h.DB, body.Rows.Slice())
	if err != nil {
		return respondServiceError(c, h.DB, err, 0)
	}

	services.RecordAction(h.DB, userIDFromCtx(c), "import", "actual", 0, c.Method(), c.OriginalURL())

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":       true,
		"imported": imported,
	})
}
