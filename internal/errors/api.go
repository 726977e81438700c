package errors

import (
	stderrors "errors"
	"fmt"
)

// Operation names the GitLab call an APIError came from
type Operation string

const (
	// OpLookup is the project-by-path lookup; its failures are lookup errors
	OpLookup Operation = "lookup_project"
	// OpSubmit is the merge request creation; its failures are submission errors
	OpSubmit Operation = "create_merge_request"
)

// ErrorKind is the closed set of ways a GitLab call can fail
type ErrorKind string

const (
	// KindTransport means no HTTP response was received; StatusCode is 0
	KindTransport ErrorKind = "transport"
	// KindStatus means GitLab answered with a non-2xx status
	KindStatus ErrorKind = "status"
	// KindDecode means a 2xx body did not match the expected schema
	KindDecode ErrorKind = "decode"
)

// APIError is returned by every failed GitLab call
type APIError struct {
	Op         Operation `json:"operation"`
	Kind       ErrorKind `json:"kind"`
	Method     string    `json:"method"`
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code"`
	Message    string    `json:"message"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed: %s error on %s %s (status %d): %s",
		e.Op, e.Kind, e.Method, e.Endpoint, e.StatusCode, e.Message)
}

// Unwrap returns the underlying error, if any
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Code maps the failure onto the application error codes
func (e *APIError) Code() ErrorCode {
	switch e.Kind {
	case KindTransport:
		if isTimeout(e.Cause) {
			return ErrGitLabTimeout
		}
		return ErrGitLabTransport
	case KindDecode:
		return ErrGitLabDecode
	}

	switch e.StatusCode {
	case 401, 403:
		return ErrGitLabAuth
	case 404:
		return ErrGitLabNotFound
	case 409:
		return ErrGitLabConflict
	default:
		return ErrGitLabAPIFailed
	}
}

// IsLookup reports whether the error came from resolving the project
func (e *APIError) IsLookup() bool {
	return e.Op == OpLookup
}

// IsSubmission reports whether the error came from creating the merge request
func (e *APIError) IsSubmission() bool {
	return e.Op == OpSubmit
}

// NewTransportError wraps a failure that produced no HTTP response
func NewTransportError(op Operation, method, endpoint string, cause error) *APIError {
	return &APIError{
		Op:       op,
		Kind:     KindTransport,
		Method:   method,
		Endpoint: endpoint,
		Message:  cause.Error(),
		Cause:    cause,
	}
}

// NewStatusError records a non-success response and its body
func NewStatusError(op Operation, method, endpoint string, statusCode int, body string) *APIError {
	return &APIError{
		Op:         op,
		Kind:       KindStatus,
		Method:     method,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    body,
	}
}

// NewDecodeError records a success response whose body could not be used
func NewDecodeError(op Operation, method, endpoint string, statusCode int, cause error) *APIError {
	return &APIError{
		Op:         op,
		Kind:       KindDecode,
		Method:     method,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    fmt.Sprintf("unmarshalling: %v", cause),
		Cause:      cause,
	}
}

// AsAPIError finds the first APIError in err's chain
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func isTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return stderrors.As(err, &timeout) && timeout.Timeout()
}
