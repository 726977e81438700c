package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents a specific error type for categorization and exit reporting
type ErrorCode string

const (
	// Validation errors
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED"

	// GitLab API errors
	ErrGitLabAPIFailed ErrorCode = "GITLAB_API_FAILED"
	ErrGitLabAuth      ErrorCode = "GITLAB_AUTH_FAILED"
	ErrGitLabNotFound  ErrorCode = "GITLAB_NOT_FOUND"
	ErrGitLabConflict  ErrorCode = "GITLAB_CONFLICT"
	ErrGitLabTimeout   ErrorCode = "GITLAB_TIMEOUT"
	ErrGitLabTransport ErrorCode = "GITLAB_TRANSPORT_FAILED"
	ErrGitLabDecode    ErrorCode = "GITLAB_DECODE_FAILED"

	// System errors
	ErrConfigurationError ErrorCode = "CONFIGURATION_ERROR"
	ErrOutputFailed       ErrorCode = "OUTPUT_FAILED"
	ErrInternal           ErrorCode = "INTERNAL_ERROR"
)

// ErrorSeverity indicates the severity level of an error
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "LOW"
	SeverityMedium   ErrorSeverity = "MEDIUM"
	SeverityHigh     ErrorSeverity = "HIGH"
	SeverityCritical ErrorSeverity = "CRITICAL"
)

// AppError represents a structured application error with rich context
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Severity  ErrorSeverity          `json:"severity"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"` // Original error, not serialized
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error for Go 1.13+ error unwrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds contextual information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new AppError with the given code and message
func NewError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  defaultSeverity(code),
		Timestamp: time.Now(),
	}
}

// NewErrorWithCause creates a new AppError wrapping an existing error
func NewErrorWithCause(code ErrorCode, message string, cause error) *AppError {
	appErr := NewError(code, message)
	appErr.Cause = cause
	return appErr
}

// NewValidationError creates a validation error with details
func NewValidationError(field, reason string) *AppError {
	return &AppError{
		Code:      ErrValidationFailed,
		Message:   fmt.Sprintf("Validation failed for field '%s'", field),
		Details:   reason,
		Severity:  SeverityLow,
		Timestamp: time.Now(),
	}
}

func defaultSeverity(code ErrorCode) ErrorSeverity {
	switch code {
	case ErrValidationFailed:
		return SeverityLow
	case ErrGitLabAuth, ErrConfigurationError:
		return SeverityHigh
	case ErrInternal:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}
