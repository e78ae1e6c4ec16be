package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Error codes used across the application. Handlers map these onto HTTP
// statuses; services never touch HTTP themselves.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeAuthRequired = "AUTH_REQUIRED"
	CodeForbidden    = "FORBIDDEN"
	CodeConsistency  = "CONSISTENCY_VIOLATION"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error    string            `json:"error"`
	Code     string            `json:"code,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	LoginURL string            `json:"login_url,omitempty"`
	Details  string            `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	// Fields carries field -> message details for validation errors.
	Fields map[string]string
	// LoginURL is set on AUTH_REQUIRED errors so the transport layer can
	// point anonymous callers at the sign-in page (the 302 contract).
	LoginURL string
	Err      error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewFieldValidationError builds a validation error from a field -> message
// map. The summary message is deterministic (fields sorted) so tests and log
// lines are stable.
func NewFieldValidationError(fields map[string]string) *AppError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return &AppError{
		Code:    CodeValidation,
		Message: "Invalid fields: " + strings.Join(names, ", "),
		Fields:  fields,
	}
}

func NewAuthRequiredError(loginURL string) *AppError {
	return &AppError{
		Code:     CodeAuthRequired,
		Message:  "Authentication required",
		LoginURL: loginURL,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewConsistencyError marks an integrity fault (e.g. a second profile for a
// user). It is a programming error, never user input: the triggering write
// must abort.
func NewConsistencyError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeConsistency,
		Message: message,
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error:    appErr.Message,
			Code:     appErr.Code,
			Fields:   appErr.Fields,
			LoginURL: appErr.LoginURL,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
