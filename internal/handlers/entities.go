package handlers

import (
	"github.com/cadencehq/ppmtrack/internal/services"
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/cadencehq/ppmtrack/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// EntityHandler handles the generic CRUD routes shared by every editable
// entity type. Phases and assignments keep these routes for reads but
// mutate through their dedicated handlers, which add the domain validation.
type EntityHandler struct {
	DB *gorm.DB
}

// entityType reads the :entityType path parameter and rejects unknown
// types up front so the error surface is uniform across verbs. On an
// unknown type it writes the error response itself and reports ok=false.
func (h *EntityHandler) entityType(c *fiber.Ctx) (string, bool) {
	entityType := c.Params("entityType")
	if _, err := services.NewEntity(entityType); err != nil {
		_ = utils.ErrorResponse(c, err.Error(), fiber.StatusNotFound, "tracking.entity.type")
		return "", false
	}
	return entityType, true
}

// ListEntities handles GET /api/entities/:entityType
// @Summary List entities
// @Description Get every row of one entity type
// @Tags Entities
// @Accept json
// @Produce json
// @Param entityType path string true "Entity type"
// @Success 200 {array} object
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /entities/{entityType} [get]
func (h *EntityHandler) ListEntities(c *fiber.Ctx) error {
	entityType, ok := h.entityType(c)
	if !ok {
		return nil
	}

	rows, err := services.ListEntities(h.DB, entityType)
	if err != nil {
		return respondServiceError(c, h.DB, err, 0)
	}

	return c.Status(fiber.StatusOK).JSON(rows)
}

// GetEntity handles GET /api/entities/:entityType/:id
// @Summary Get an entity
// @Description Get one entity by id, including its current version
// @Tags Entities
// @Accept json
// @Produce json
// @Param entityType path string true "Entity type"
// @Param id path int true "Entity ID"
// @Success 200 {object} object
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /entities/{entityType}/{id} [get]
func (h *EntityHandler) GetEntity(c *fiber.Ctx) error {
	entityType, ok := h.entityType(c)
	if !ok {
		return nil
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	entity, err := services.GetEntity(h.DB, entityType, id)
	if err != nil {
		return respondServiceError(c, h.DB, err, 0)
	}

	return c.Status(fiber.StatusOK).JSON(entity)
}

// CreateEntity handles POST /api/entities/:entityType
// @Summary Create an entity
// @Description Create an entity; the server assigns id and version 1
// @Tags Entities
// @Accept json
// @Produce json
// @Param entityType path string true "Entity type"
// @Param body body object true "Entity fields"
// @Success 201 {object} object
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /entities/{entityType} [post]
func (h *EntityHandler) CreateEntity(c *fiber.Ctx) error {
	entityType, ok := h.entityType(c)
	if !ok {
		return nil
	}

	entity, err := services.CreateEntity(h.DB, entityType, c.Body())
	if err != nil {
		return respondServiceError(c, h.DB, err, 0)
	}

	services.RecordAction(h.DB, userIDFromCtx(c), "create", entityType, entity.GetID(), c.Method(), c.OriginalURL())

	return c.Status(fiber.StatusCreated).JSON(entity)
}

// UpdateEntity handles PUT /api/entities/:entityType/:id
// @Summary Update an entity
// @Description Update an entity with optimistic version check; absent fields keep their values
// @Tags Entities
// @Accept json
// @Produce json
// @Param entityType path string true "Entity type"
// @Param id path int true "Entity ID"
// @Param body body object true "Fields to update, with current version"
// @Success 200 {object} object
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /entities/{entityType}/{id} [put]
func (h *EntityHandler) UpdateEntity(c *fiber.Ctx) error {
	entityType, ok := h.entityType(c)
	if !ok {
		return nil
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	var versionBody struct {
		Version *types.FlexUint64 `json:"version"`
	}
	if err := c.BodyParser(&versionBody); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "tracking.validation.input")
	}
	if versionBody.Version == nil {
		return utils.ErrorResponse(c, "version is required", fiber.StatusBadRequest, "tracking.validation.input")
	}
	version := versionBody.Version.Uint64()

	entity, err := services.UpdateEntity(h.DB, entityType, id, version, c.Body())
	if err != nil {
		return respondServiceError(c, h.DB, err, version)
	}

	services.RecordAction(h.DB, userIDFromCtx(c), "update", entityType, id, c.Method(), c.OriginalURL())

	return c.Status(fiber.StatusOK).JSON(entity)
}

// DeleteEntity handles DELETE /api/entities/:entityType/:id
// @Summary Delete an entity
// @Description Delete an entity with optimistic version check
// @Tags Entities
// @Accept json
// @Produce json
// @Param entityType path string true "Entity type"
// @Param id path int true "Entity ID"
// @Param body body object true "Version check"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /entities/{entityType}/{id} [delete]
func (h *EntityHandler) DeleteEntity(c *fiber.Ctx) error {
	entityType, ok := h.entityType(c)
	if !ok {
		return nil
	}
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

	if err := services.DeleteEntity(h.DB, entityType, id, version); err != nil {
		return respondServiceError(c, h.DB, err, version)
	}

	services.RecordAction(h.DB, userIDFromCtx(c), "delete", entityType, id, c.Method(), c.OriginalURL())

	return utils.SuccessResponse(c, fiber.Map{"ok": true, "message": "Entity deleted"}, fiber.StatusOK)
}
