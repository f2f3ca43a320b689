package models

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeContextInvalidated = "CONTEXT_INVALIDATED"
	ErrCodeStorage            = "STORAGE_FAILURE"
	ErrCodeBrowser            = "BROWSER_FAILURE"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeNoTab              = "NO_TAB"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ErrContextInvalidated reports that the hosting context (store or tab) was
// torn down. Callers holding it must stop for good; it is never retried.
var ErrContextInvalidated = errors.New("extension context invalidated")

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TitleflixError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type TitleflixError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *TitleflixError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TitleflixError) Unwrap() error {
	return e.Err
}

// NewError creates a new TitleflixError.
func NewError(code, message string, err error) *TitleflixError {
	return &TitleflixError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *TitleflixError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// IsContextInvalidated reports whether err means the hosting context is gone.
// Errors that crossed a process boundary lose their identity, so the message
// is checked as well.
func IsContextInvalidated(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrContextInvalidated) {
		return true
	}
	var te *TitleflixError
	if errors.As(err, &te) && te.Code == ErrCodeContextInvalidated {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "context invalidated")
}
