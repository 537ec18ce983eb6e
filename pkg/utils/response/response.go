package response

import (
	"net/http"

	"coderelay/pkg/errors"
	"coderelay/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorEnvelope is the error body of the execution API.
type ErrorEnvelope struct {
	Error            string `json:"error"`             // Short classification, e.g. "Invalid language"
	Details          string `json:"details"`           // Caller-facing detail
	CompilationError *bool  `json:"compilationError,omitempty"`
}

// MessageBody is the body used by the credential endpoints.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON sends an arbitrary payload with the given status.
func JSON(c *gin.Context, status int, body interface{}) {
	c.JSON(status, body)
}

// Raw sends an already-encoded JSON payload unchanged.
func Raw(c *gin.Context, status int, payload []byte) {
	c.Data(status, "application/json; charset=utf-8", payload)
}

// Error sends an error envelope.
// It automatically extracts error code and message from the error
func Error(c *gin.Context, err error) {
	customErr := errors.GetError(err)
	logError(c, customErr)

	status := customErr.Code.HTTPStatus()
	details := customErr.Error()
	if status >= http.StatusInternalServerError && customErr.Err != nil {
		details = customErr.Title()
	}
	c.JSON(status, ErrorEnvelope{
		Error:   customErr.Title(),
		Details: details,
	})
}

// ExecutionFailure sends the envelope for a failed remote execution.
func ExecutionFailure(c *gin.Context, status int, details string, compilationError bool) {
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	c.JSON(status, ErrorEnvelope{
		Error:            errors.RemoteExecutionFailed.Message(),
		Details:          details,
		CompilationError: &compilationError,
	})
}

// Message sends a {message} body with the given status.
func Message(c *gin.Context, status int, message string) {
	c.JSON(status, MessageBody{Message: message})
}

// ErrorMessage sends an error as a {message} body.
// Internal failures are reported with the generic server error text only.
func ErrorMessage(c *gin.Context, err error) {
	customErr := errors.GetError(err)
	logError(c, customErr)

	status := customErr.Code.HTTPStatus()
	message := customErr.Error()
	if status >= http.StatusInternalServerError {
		message = errors.InternalServerError.Message()
	}
	c.JSON(status, MessageBody{Message: message})
}

// AbortWithErrorMessage aborts the request and sends a {message} body.
func AbortWithErrorMessage(c *gin.Context, err error) {
	ErrorMessage(c, err)
	c.Abort()
}

func logError(c *gin.Context, customErr *errors.Error) {
	fields := []zap.Field{
		zap.Int("code", int(customErr.Code)),
		zap.String("message", customErr.Error()),
		zap.Any("details", customErr.Details),
	}
	if customErr.Err != nil {
		fields = append(fields, zap.NamedError("cause", customErr.Err))
	}
	if customErr.Code.HTTPStatus() >= http.StatusInternalServerError {
		fields = append(fields, zap.String("stack", customErr.Stack))
		logger.Error(c.Request.Context(), "request error", fields...)
		return
	}
	logger.Warn(c.Request.Context(), "request rejected", fields...)
}
