package handlers

import (
	"github.com/cadencehq/ppmtrack/internal/services"
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/cadencehq/ppmtrack/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// PhaseHandler handles project phase routes.
type PhaseHandler struct {
	DB *gorm.DB
}

// ListPhases handles GET /api/projects/:projectId/phases
// @Summary List project phases
// @Description Get all phases of a project ordered by start date
// @Tags Phases
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {array} models.Phase
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /projects/{projectId}/phases [get]
func (h *PhaseHandler) ListPhases(c *fiber.Ctx) error {
	projectID, ok := parseIDParam(c, "projectId")
	if !ok {
		return nil
	}

	phases, err := services.ListPhases(h.DB, projectID)
	if err != nil {
		return respondServiceError(c, h.DB, err, 0)
	}

	return c.Status(fiber.StatusOK).JSON(phases)
}

// CreatePhase handles POST /api/projects/:projectId/phases
// @Summary Create a phase
// @Description Create a phase after validating the project's whole candidate timeline
// @Tags Phases
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param body body services.PhasePayload true "Phase to create"
// @Success 201 {object} models.Phase
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /projects/{projectId}/phases [post]
func (h *PhaseHandler) CreatePhase(c *fiber.Ctx) error {
	projectID, ok := parseIDParam(c, "projectId")
	if !ok {
		return nil
	}

	var payload services.PhasePayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "tracking.validation.input")
	}

	phase, err := services.CreatePhase(h.DB, projectID, payload)
	if err != nil {
		return respondServiceError(c, h.DB, err, 0)
	}

	services.RecordAction(h.DB, userIDFromCtx(c), "create", phase.EntityType(), phase.ID, c.Method(), c.OriginalURL())

	return c.Status(fiber.StatusCreated).JSON(phase)
}

// UpdatePhase handles PUT /api/projects/:projectId/phases/:phaseId
// @Summary Update a phase
// @Description Update a phase with optimistic version check and full timeline re-validation
// @Tags Phases
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param phaseId path int true "Phase ID"
// @Param body body services.PhasePayload true "Fields to update, with current version"
// @Success 200 {object} models.Phase
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /projects/{projectId}/phases/{phaseId} [put]
func (h *PhaseHandler) UpdatePhase(c *fiber.Ctx) error {
	projectID, ok := parseIDParam(c, "projectId")
	if !ok {
		return nil
	}
	phaseID, ok := parseIDParam(c, "phaseId")
	if !ok {
		return nil
	}

	var payload services.PhasePayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "tracking.validation.input")
	}
	if payload.Version == nil {
		return utils.ErrorResponse(c, "version is required", fiber.StatusBadRequest, "tracking.validation.input")
	}
	version := payload.Version.Uint64()

	phase, err := services.UpdatePhase(h.DB, projectID, phaseID, version, payload)
	if err != nil {
		return respondServiceError(c, h.DB, err, version)
	}

	services.RecordAction(h.DB, userIDFromCtx(c), "update", phase.EntityType(), phase.ID, c.Method(), c.OriginalURL())

	return c.Status(fiber.StatusOK).JSON(phase)
}

// DeletePhase handles DELETE /api/projects/:projectId/phases/:phaseId
// @Summary Delete a phase
// @Description Delete a phase unless it is the last one or its removal breaks the timeline
// @Tags Phases
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param phaseId path int true "Phase ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /projects/{projectId}/phases/{phaseId} [delete]
func (h *PhaseHandler) DeletePhase(c *fiber.Ctx) error {
	projectID, ok := parseIDParam(c, "projectId")
	if !ok {
		return nil
	}
	phaseID, ok := parseIDParam(c, "phaseId")
	if !ok {
		return nil
	}

	if err := services.DeletePhase(h.DB, projectID, phaseID); err != nil {
		return respondServiceError(c, h.DB, err, 0)
	}

	services.RecordAction(h.DB, userIDFromCtx(c), "delete", "phase", phaseID, c.Method(), c.OriginalURL())

	return utils.SuccessResponse(c, fiber.Map{"ok": true, "message": "Phase deleted"}, fiber.StatusOK)
}

// ReplacePhases handles PUT /api/projects/:projectId/phases
// @Summary Replace the project's phase set
// @Description Apply the complete desired phase list in one all-or-nothing call
// @Tags Phases
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param body body object true "Desired phase list"
// @Success 200 {array} models.Phase
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /projects/{projectId}/phases [put]
func (h *PhaseHandler) ReplacePhases(c *fiber.Ctx) error {
	projectID, ok := parseIDParam(c, "projectId")
	if !ok {
		return nil
	}

	var body struct {
		Phases types.FlexList[services.PhasePayload] `json:"phases"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "tracking.validation.input")
	}
	if len(body.Phases) == 0 {
		return utils.ErrorResponse(c, "at least one phase required", fiber.StatusBadRequest, "tracking.validation.input")
	}

	phases, err := services.ReplaceProjectPhases(h.DB, projectID, body.Phases.Slice())
	if err != nil {
		return respondServiceError(c, h.DB, err, 0)
	}

	services.RecordAction(h.DB, userIDFromCtx(c), "replace", "phase", projectID, c.Method(), c.OriginalURL())

	return c.Status(fiber.StatusOK).JSON(phases)
}
