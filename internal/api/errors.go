// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/figure-editor/backend/internal/document"
	"github.com/figure-editor/backend/internal/figure"
	"github.com/figure-editor/backend/internal/imagemeta"
	"github.com/figure-editor/backend/internal/overlay"
	"github.com/figure-editor/backend/internal/session"
	"github.com/figure-editor/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error with a resource-specific code
func NewNotFoundError(code string, cause error) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    code,
		Message: cause.Error(),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewUnprocessableError creates a 422 error for well-formed requests the
// editor refuses, such as oversized images.
func NewUnprocessableError(code, message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    code,
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// mapError converts an editor error into an APIError. Errors that are already
// APIErrors pass through unchanged.
func mapError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var docErr *figure.DocumentError
	switch {
	case errors.Is(err, session.ErrNotFound):
		return NewNotFoundError("SESSION_NOT_FOUND", err)
	case errors.Is(err, storage.ErrNotFound):
		return NewNotFoundError("FIGURE_NOT_FOUND", err)
	case errors.Is(err, figure.ErrPanelNotFound), errors.Is(err, overlay.ErrUnknownPanel):
		return NewNotFoundError("PANEL_NOT_FOUND", err)
	case errors.Is(err, imagemeta.ErrNotFound):
		return NewNotFoundError("IMAGE_NOT_FOUND", err)
	case errors.Is(err, session.ErrTooManySessions):
		return NewServiceUnavailableError(err.Error())
	case errors.Is(err, overlay.ErrDragInProgress):
		return NewConflictError(err.Error())
	case errors.Is(err, imagemeta.ErrImageTooLarge):
		return NewUnprocessableError("IMAGE_TOO_LARGE", "image exceeds the size limit", err)
	case errors.Is(err, imagemeta.ErrMalformed):
		return &APIError{Status: http.StatusBadGateway, Code: "BAD_IMAGE_METADATA", Message: err.Error()}
	case errors.Is(err, document.ErrUnsupportedVersion), errors.As(err, &docErr):
		return NewUnprocessableError("INVALID_DOCUMENT", "figure document cannot be loaded", err)
	case errors.Is(err, figure.ErrValidation):
		return &APIError{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: err.Error()}
	case errors.Is(err, figure.ErrNoSelection), errors.Is(err, overlay.ErrNoMultiSelection):
		return &APIError{Status: http.StatusBadRequest, Code: "NO_SELECTION", Message: err.Error()}
	}
	return NewInternalError("request failed", err)
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	} else {
		apiErr = mapError(err)
	}

	if apiErr.Status >= http.StatusInternalServerError {
		fmt.Printf("[API] %s %s: %v\n", c.Request().Method, c.Request().URL.Path, err)
	}
	c.JSON(apiErr.Status, apiErr)
}
