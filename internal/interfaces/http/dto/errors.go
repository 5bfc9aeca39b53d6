package dto

import (
	"net/http"
	"strings"
)

// Error codes surfaced by the API. Domain errors carry the same codes, so
// handlers translate without re-mapping.
const (
	ErrCodeInternal            = "INTERNAL"
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeValidation          = "VALIDATION"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeAlreadyInvoiced     = "ALREADY_INVOICED"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeGateBlocked         = "GATE_BLOCKED"
	ErrCodeExternalUnavailable = "EXTERNAL_UNAVAILABLE"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes. A signature
// failure is 401 and never reaches a mutation; a blocked approval gate is
// 403; terminal-state violations are conflicts, not validation errors.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeInvalidState:        http.StatusConflict,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeAlreadyInvoiced:     http.StatusConflict,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeGateBlocked:         http.StatusForbidden,
	ErrCodeExternalUnavailable: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status for an error code. Field-level
// domain codes ("INVALID_AMOUNT", "INVALID_NUMBER", ...) are validation
// failures; anything unknown is an internal error.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
