package errors

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/redhat-data-and-ai/gitlab-util/internal/logging"
	"go.uber.org/zap"
)

// Exit codes returned by Handler.HandleError
const (
	ExitOK      = 0
	ExitFailure = 1
)

// Handler turns errors reaching the process boundary into a log entry,
// a line on the error stream and an exit code
type Handler struct {
	out    io.Writer
	logger *logging.Logger
	// Include endpoint and context in the printed message
	Verbose bool
}

// NewHandler creates a new error handler printing to out
func NewHandler(out io.Writer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Handler{
		out:    out,
		logger: logger,
	}
}

// HandleError reports err and returns the process exit code
func (h *Handler) HandleError(err error) int {
	if err == nil {
		return ExitOK
	}

	code := Classify(err)
	h.logError(err, code)

	if h.Verbose {
		var appErr *AppError
		if stderrors.As(err, &appErr) && len(appErr.Context) > 0 {
			_, _ = fmt.Fprintf(h.out, "Error: %v %v\n", err, appErr.Context)
			return ExitFailure
		}
	}
	_, _ = fmt.Fprintf(h.out, "Error: %v\n", err)
	return ExitFailure
}

// Classify picks the ErrorCode that best describes err
func Classify(err error) ErrorCode {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Code()
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}

	return ErrInternal
}

// logError logs with a level matching the severity of the error
func (h *Handler) logError(err error, code ErrorCode) {
	fields := []zap.Field{
		zap.String("error_code", string(code)),
		zap.Error(err),
	}

	if apiErr, ok := AsAPIError(err); ok {
		fields = append(fields,
			zap.String("operation", string(apiErr.Op)),
			zap.String("kind", string(apiErr.Kind)),
			zap.String("method", apiErr.Method),
			zap.String("endpoint", apiErr.Endpoint),
			zap.Int("status_code", apiErr.StatusCode),
		)
	}

	switch defaultSeverity(code) {
	case SeverityLow:
		h.logger.With(fields...).Warn("Command rejected")
	default:
		h.logger.With(fields...).Error("Command failed")
	}
}
