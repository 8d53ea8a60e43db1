package utils

import (
	"fmt"
	"time"

	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/gofiber/fiber/v2"
)

// SuccessResponse sends a standard success response.
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// ErrorResponse sends a standard error envelope.
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// NotFoundResponse sends a 404 not found response.
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}

// ValidationErrorResponse sends a 400 with the machine-readable code and
// the field-level error list.
func ValidationErrorResponse(c *fiber.Ctx, ve *types.ValidationError) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":    fiber.StatusBadRequest,
		"message":   ve.Message,
		"ok":        false,
		"code":      ve.Code,
		"errors":    ve.Details,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      "validation",
	})
}

// ConflictResponse sends a 409 version conflict carrying the entity's
// current authoritative state so the caller can retry, merge, or discard.
func ConflictResponse(c *fiber.Ctx, ce *types.ConflictError) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"status":       fiber.StatusConflict,
		"message":      "E_VERSION - Refresh and reconcile with current version and retry.",
		"ok":           false,
		"versionError": true,
		"entityType":   ce.EntityType,
		"entityId":     ce.EntityID,
		"currentState": ce.CurrentState,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"url":          c.OriginalURL(),
		"type":         "version",
	})
}

// MutationSuccessResponse sends a success response for mutations.
func MutationSuccessResponse(c *fiber.Ctx, newVersion uint64) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":    "Success",
		"ok":         true,
		"newVersion": fmt.Sprintf("%d", newVersion),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// ErrorResponseStruct defines the schema for error responses.
type ErrorResponseStruct struct {
	Status       int                `json:"status"`
	Message      string             `json:"message"`
	Ok           bool               `json:"ok"`
	Timestamp    string             `json:"timestamp"`
	URL          string             `json:"url"`
	Type         string             `json:"type,omitempty"`
	Code         string             `json:"code,omitempty"`
	Errors       []types.FieldError `json:"errors,omitempty"`
	VersionError bool               `json:"versionError,omitempty"`
}

// SuccessResponseStruct defines the schema for mutation success responses.
type SuccessResponseStruct struct {
	Message    string `json:"message"`
	Ok         bool   `json:"ok"`
	NewVersion string `json:"newVersion"`
	Timestamp  string `json:"timestamp"`
}
