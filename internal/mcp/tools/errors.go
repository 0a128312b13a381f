package tools

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/cohortware/fedsum/pkg/opal"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeCohortError  = "COHORT_ERROR"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeDisclosure   = "DISCLOSURE"
	ErrCodeTimeout      = "TIMEOUT"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapCohortError converts an opal.APIError or other error to a coded error.
// Disclosure-control refusals get their own code so callers can tell a
// privacy refusal from an infrastructure failure.
func WrapCohortError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError

	var apiErr *opal.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			coded = &CodedError{Code: ErrCodeNotFound, Message: apiErr.Message, Cause: err}
		case apiErr.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(apiErr.Message), "disclosure"):
			coded = &CodedError{Code: ErrCodeDisclosure, Message: apiErr.Message, Cause: err}
		default:
			coded = &CodedError{Code: ErrCodeCohortError, Message: apiErr.Message, Cause: err}
		}
	} else {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			coded = &CodedError{Code: ErrCodeTimeout, Message: "request timed out", Cause: err}
		} else if strings.Contains(err.Error(), "context deadline exceeded") {
			coded = &CodedError{Code: ErrCodeTimeout, Message: "request timed out", Cause: err}
		} else {
			coded = &CodedError{Code: ErrCodeCohortError, Message: err.Error(), Cause: err}
		}
	}

	slog.Warn("cohort server error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
