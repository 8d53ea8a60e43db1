package handlers

import (
	"errors"
	"strconv"

	"github.com/cadencehq/ppmtrack/internal/models"
	"github.com/cadencehq/ppmtrack/internal/services"
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/cadencehq/ppmtrack/internal/utils"
	"github.com/cadencehq/ppmtrack/internal/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// parseIDParam parses a numeric path parameter. On a bad value it writes
// the error response itself and reports ok=false.
func parseIDParam(c *fiber.Ctx, name string) (uint64, bool) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		_ = utils.ErrorResponse(c, "Invalid "+name+" parameter", fiber.StatusBadRequest, "tracking.validation.input")
		return 0, false
	}
	return id, true
}

// userIDFromCtx extracts the authenticated user's identity set by the auth
// middleware. Falls back to "anonymous" when auth is disabled.
func userIDFromCtx(c *fiber.Ctx) string {
	user := c.Locals("user")
	if user == nil {
		return "anonymous"
	}
	if m, ok := user.(map[string]interface{}); ok {
		if email, ok := m["email"].(string); ok && email != "" {
			return email
		}
		if id, ok := m["id"].(string); ok && id != "" {
			return id
		}
	}
	if s, ok := user.(string); ok && s != "" {
		return s
	}
	return "anonymous"
}

// respondServiceError maps a service-layer error to the matching HTTP
// response. Version conflicts are additionally recorded in the audit trail
// with the expected version from the request.
func respondServiceError(c *fiber.Ctx, db *gorm.DB, err error, expectedVersion uint64) error {
	var notFound *types.NotFoundError
	var validationErr *types.ValidationError
	var conflict *types.ConflictError
	var allocErr *validation.AllocationError

	switch {
	case errors.As(err, &notFound):
		return utils.NotFoundResponse(c, err.Error())
	case errors.As(err, &validationErr):
		return utils.ValidationErrorResponse(c, validationErr)
	case errors.As(err, &conflict):
		currentVersion := uint64(0)
		if entity, ok := conflict.CurrentState.(models.Editable); ok {
			currentVersion = entity.GetVersion()
		}
		services.RecordConflict(db, userIDFromCtx(c), c.Method(), c.OriginalURL(),
			conflict.EntityType, conflict.EntityID, expectedVersion, currentVersion)
		return utils.ConflictResponse(c, conflict)
	case errors.As(err, &allocErr):
		return utils.ErrorResponse(c, allocErr.Error(), fiber.StatusBadRequest, "allocation")
	default:
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "tracking.internal")
	}
}
