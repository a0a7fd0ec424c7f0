package apperrors

import (
	"errors"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates that the caller is not allowed to perform the action.
var ErrUnauthorized = errors.New("unauthorized")

// ErrRateUnavailable indicates that no usable exchange quote could be found.
// It is a soft failure: writes continue without a USD valuation.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// ErrProviderTransient indicates a timeout or server-side failure at the rate provider.
var ErrProviderTransient = errors.New("rate provider temporarily unavailable")

// ErrConcurrencyConflict indicates that a concurrent writer modified the same row.
var ErrConcurrencyConflict = errors.New("concurrent modification conflict")

// ErrInternal is used for unexpected failures that should surface as HTTP 500.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError wraps ErrNotFound with a resource specific message.
func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}

// NewValidationError wraps ErrValidation with a field specific message.
func NewValidationError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrValidation)
}

// HTTPStatus maps an error from the service layer to an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrProviderTransient), errors.Is(err, ErrRateUnavailable):
		return http.StatusServiceUnavailable
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
