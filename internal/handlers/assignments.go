package handlers

import (
	"github.com/cadencehq/ppmtrack/internal/services"
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/cadencehq/ppmtrack/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AssignmentHandler handles resource assignment routes.
type AssignmentHandler struct {
	DB *gorm.DB
}

// ListAssignments handles GET /api/resources/:resourceId/assignments?date=...
// @Summary List a resource's assignments on a date
// @Description Get every assignment the resource holds on one date across all projects
// @Tags Assignments
// @Accept json
// @Produce json
// @Param resourceId path int true "Resource ID"
// @Param date query string true "Assignment date (YYYY-MM-DD)"
// @Success 200 {array} models.ResourceAssignment
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /resources/{resourceId}/assignments [get]
func (h *AssignmentHandler) ListAssignments(c *fiber.Ctx) error {
	resourceID, ok := parseIDParam(c, "resourceId")
	if !ok {
		return nil
	}

	date, err := types.ParseDate(c.Query("date"))
	if err != nil {
		return utils.ErrorResponse(c, "Invalid or missing date query parameter", fiber.StatusBadRequest, "tracking.validation.input")
	}

	assignments, err := services.ListAssignments(h.DB, resourceID, date)
	if err != nil {
		return respondServiceError(c, h.DB, err, 0)
	}

	return c.Status(fiber.StatusOK).JSON(assignments)
}

// CreateAssignment handles POST /api/assignments
// @Summary Create an assignment
// @Description Create an assignment after validating the cross-project allocation total
// @Tags Assignments
// @Accept json
// @Produce json
// @Param body body services.AssignmentPayload true "Assignment to create"
// @Success 201 {object} models.ResourceAssignment
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /assignments [post]
func (h *AssignmentHandler) CreateAssignment(c *fiber.Ctx) error {
	var payload services.AssignmentPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "tracking.validation.input")
	}

	assignment, err := services.CreateAssignment(h.DB, payload)
	if err != nil {
		return respondServiceError(c, h.DB, err, 0)
	}

	services.RecordAction(h.DB, userIDFromCtx(c), "create", assignment.EntityType(), assignment.ID, c.Method(), c.OriginalURL())

	return c.Status(fiber.StatusCreated).JSON(assignment)
}

// UpdateAssignment handles PUT /api/assignments/:id
// @Summary Update an assignment
// @Description Update an assignment with optimistic version check and allocation re-validation
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param body body object true "Fields to update, with current version"
// @Success 200 {object} models.ResourceAssignment
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /assignments/{id} [put]
func (h *AssignmentHandler) UpdateAssignment(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	var body struct {
		Version *types.FlexUint64 `json:"version"`
		services.AssignmentPayload
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "tracking.validation.input")
	}
	if body.Version == nil {
		return utils.ErrorResponse(c, "version is required", fiber.StatusBadRequest, "tracking.validation.input")
	}
	version := body.Version.Uint64()

	assignment, err := services.UpdateAssignment(h.DB, id, version, body.AssignmentPayload)
	if err != nil {
		return respondServiceError(c, h.DB, err, version)
	}

	services.RecordAction(h.DB, userIDFromCtx(c), "update", assignment.EntityType(), assignment.ID, c.Method(), c.OriginalURL())

	return c.Status(fiber.StatusOK).JSON(assignment)
}

// DeleteAssignment handles DELETE /api/assignments/:id
// @Summary Delete an assignment
// @Description Delete an assignment with optimistic version check
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param body body object true "Version check"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) DeleteAssignment(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	var body struct {
		Version *types.FlexUint64 `json:"version"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "tracking.validation.input")
	}
	if body.Version == nil {
		return utils.ErrorResponse(c, "version is required", fiber.StatusBadRequest, "tracking.validation.input")
	}
	version := body.Version.Uint64()

	if err := services.DeleteAssignment(h.DB, id, version); err != nil {
		return respondServiceError(c, h.DB, err, version)
	}

	services.RecordAction(h.DB, userIDFromCtx(c), "delete", "resource_assignment", id, c.Method(), c.OriginalURL())

	return utils.SuccessResponse(c, fiber.Map{"ok": true, "message": "Assignment deleted"}, fiber.StatusOK)
}

// BulkUpdateAssignments handles POST /api/assignments/bulk
// @Summary Bulk update assignments
// @Description Apply each update independently; partial success is the normal outcome
// @Tags Assignments
// @Accept json
// @Produce json
// @Param body body object true "Assignment updates"
// @Success 200 {object} services.BulkUpdateResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /assignments/bulk [post]
func (h *AssignmentHandler) BulkUpdateAssignments(c *fiber.Ctx) error {
	var body struct {
		Assignments types.FlexList[services.BulkAssignmentItem] `json:"assignments"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "tracking.validation.input")
	}
	if len(body.Assignments) == 0 {
		return utils.ErrorResponse(c, "assignments list is empty", fiber.StatusBadRequest, "tracking.validation.input")
	}

	result := services.BulkUpdateAssignments(h.DB, body.Assignments.Slice())

	userID := userIDFromCtx(c)
	for _, s := range result.Succeeded {
		services.RecordAction(h.DB, userID, "update", "resource_assignment", s.ID, c.Method(), c.OriginalURL())
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
