package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the submission pipeline taxonomy.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeServerError      = "SERVER_ERROR"
	CodeTimeout          = "NETWORK_TIMEOUT"
	CodeOffline          = "NETWORK_OFFLINE"
	CodeNetworkError     = "NETWORK_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewValidationError reports user-fixable input problems with per-field detail.
func NewValidationError(message string, fieldErrors map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, fieldErrors)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewRateLimited(message string) error {
	return NewDomainError(CodeRateLimited, message, http.StatusTooManyRequests, nil)
}

// NewServerError reports an upstream 5xx the user may retry later.
func NewServerError(message string, status int) error {
	if status < 500 {
		status = http.StatusBadGateway
	}
	return NewDomainError(CodeServerError, message, status, nil)
}

// NewTimeoutError reports an outbound call that exceeded its deadline.
func NewTimeoutError(message string) error {
	return NewDomainError(CodeTimeout, message, http.StatusGatewayTimeout, nil)
}

// NewOfflineError reports that the upstream endpoint was unreachable.
func NewOfflineError(message string) error {
	return NewDomainError(CodeOffline, message, http.StatusServiceUnavailable, nil)
}

// NewNetworkError reports any other transport failure.
func NewNetworkError(message string, err error) error {
	return &DomainError{
		Code:       CodeNetworkError,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
