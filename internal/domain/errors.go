package domain

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

// Error codes for business logic errors.
const (
	CodeNotFound        = 1
	CodeAlreadyExists   = 2
	CodeValidation      = 3
	CodeInternal        = 4
	CodeUnauthorized    = 5
	CodeForbidden       = 6
	CodeBusy            = 7
	CodeNotFoundLocally = 8
	CodeNetwork         = 9
	CodeSessionExpired  = 10
)

// AppError represents a business logic error with a code, message, and optional wrapped error.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined business errors.
//
// To check whether an error matches one of these categories, use the
// corresponding helper function (IsNotFound, IsBusy, etc.) instead of
// errors.Is. The helpers use errors.As with error-code comparison, so they
// correctly match any *AppError that carries the same code, including freshly
// constructed instances from NewAppError and wrapped errors.
var (
	ErrNotFound        = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists   = &AppError{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation      = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrInternal        = &AppError{Code: CodeInternal, Message: "internal error"}
	ErrUnauthorized    = &AppError{Code: CodeUnauthorized, Message: "invalid credentials"}
	ErrForbidden       = &AppError{Code: CodeForbidden, Message: "forbidden"}
	ErrBusy            = &AppError{Code: CodeBusy, Message: "another request is already in progress"}
	ErrNotFoundLocally = &AppError{Code: CodeNotFoundLocally, Message: "item is not loaded"}
	ErrSessionExpired  = &AppError{Code: CodeSessionExpired, Message: "session expired"}
)

// NewAppError creates a new AppError with the given code, message, and wrapped error.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError lists field-level validation failures keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface. Fields are listed in name order.
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return strings.Join(parts, "; ")
}

// NewValidationError wraps field messages in a CodeValidation AppError.
func NewValidationError(fields map[string]string) *AppError {
	return NewAppError(CodeValidation, "validation error", &ValidationError{Fields: fields})
}

// ValidationFields returns the field messages carried by err, or nil.
func ValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// IsNotFound reports whether err is or wraps an AppError with CodeNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsAlreadyExists reports whether err is or wraps an AppError with CodeAlreadyExists.
func IsAlreadyExists(err error) bool {
	return hasCode(err, CodeAlreadyExists)
}

// IsValidation reports whether err is or wraps an AppError with CodeValidation.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsInternal reports whether err is or wraps an AppError with CodeInternal.
func IsInternal(err error) bool {
	return hasCode(err, CodeInternal)
}

// IsUnauthorized reports whether err is or wraps an AppError with CodeUnauthorized.
func IsUnauthorized(err error) bool {
	return hasCode(err, CodeUnauthorized)
}

// IsBusy reports whether err is or wraps an AppError with CodeBusy.
func IsBusy(err error) bool {
	return hasCode(err, CodeBusy)
}

// IsNotFoundLocally reports whether err is or wraps an AppError with CodeNotFoundLocally.
func IsNotFoundLocally(err error) bool {
	return hasCode(err, CodeNotFoundLocally)
}

// IsNetwork reports whether err is or wraps an AppError with CodeNetwork.
func IsNetwork(err error) bool {
	return hasCode(err, CodeNetwork)
}

// IsSessionExpired reports whether err is or wraps an AppError with CodeSessionExpired.
func IsSessionExpired(err error) bool {
	return hasCode(err, CodeSessionExpired)
}

// hasCode checks whether err is or wraps an *AppError with the given code.
func hasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// HTTPStatusCode maps an error to an HTTP status code.
// If the error is an *AppError, the code is mapped; otherwise http.StatusInternalServerError is returned.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if err != nil && errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeNotFound:
			return http.StatusNotFound
		case CodeAlreadyExists:
			return http.StatusConflict
		case CodeValidation:
			return http.StatusBadRequest
		case CodeUnauthorized, CodeSessionExpired:
			return http.StatusUnauthorized
		case CodeForbidden:
			return http.StatusForbidden
		case CodeInternal:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
