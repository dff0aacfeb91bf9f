// internal/pkg/response/response.go
package response

import (
	"net/http"

	xerrors "singr-service/internal/pkg/errors"
	"singr-service/internal/pkg/validation"

	"github.com/gin-gonic/gin"
)

// Response defines the standard API response format.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody is the error half of the envelope.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error aborts the chain and writes err as an error envelope.
// Errors that are not *xerrors.AppError are mapped by sentinel.
func Error(c *gin.Context, err error) {
	// Abort before writing so later handlers never run
	c.Abort()

	appErr := xerrors.FromError(err)
	_ = c.Error(err)

	c.JSON(appErr.Status, Response{
		Success: false,
		Error: &ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}

// ValidationError sends a 400 Bad Request response with field details.
func ValidationError(c *gin.Context, message string, details interface{}) {
	Error(c, xerrors.Validation(message, details))
}

// BindError reports a failed ShouldBind* call as a 400 with field details.
func BindError(c *gin.Context, err error) {
	ValidationError(c, "validation failed", validation.Details(err))
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, xerrors.Authentication(message, nil))
}

// Forbidden sends a 403 Forbidden response.
func Forbidden(c *gin.Context, message string, details interface{}) {
	Error(c, xerrors.Forbidden(message, details))
}

// NotFound sends a 404 Not Found response.
func NotFound(c *gin.Context, message string) {
	Error(c, xerrors.New(http.StatusNotFound, xerrors.CodeNotFound, message, xerrors.ErrNotFound))
}
