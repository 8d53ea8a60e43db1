package types

import "fmt"

// APIError is a transport-level error carrying an HTTP status, consumed by
// the global Fiber error handler and the auth middleware.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// FieldError is a single field-level validation failure. PhaseID is set when
// the failure points at one phase of a candidate timeline.
type FieldError struct {
	Field   string  `json:"field"`
	Message string  `json:"message"`
	PhaseID *uint64 `json:"phaseId,omitempty"`
}

// NotFoundError signals that an entity id did not resolve.
type NotFoundError struct {
	Resource string
	ID       uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// ValidationError signals a business-rule violation caught before any write.
// Code is a stable machine-readable identifier; Details carries the
// field-level failures.
type ValidationError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s: %s (%d field errors)", e.Code, e.Message, len(e.Details))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ConflictError signals an optimistic-lock version mismatch. CurrentState is
// the entity as persisted right now, so the caller can decide whether to
// retry, merge, or discard.
type ConflictError struct {
	EntityType   string      `json:"entityType"`
	EntityID     uint64      `json:"entityId"`
	CurrentState interface{} `json:"currentState"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("E_VERSION - %s %d was modified concurrently", e.EntityType, e.EntityID)
}
