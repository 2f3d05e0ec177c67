package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bizbook/internal/core/apperror"
	"bizbook/pkg/logger"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler renders the last error registered on the context.
// Internal causes are logged and never sent to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		renderError(c)
	}
}

// renderError writes the response for c.Errors unless one was already written.
func renderError(c *gin.Context) {
	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	status, body := errorResponse(c, c.Errors.Last().Err)
	c.JSON(status, body)
}

func errorResponse(c *gin.Context, err error) (int, ErrorBody) {
	ctx := c.Request.Context()

	if appErr, ok := apperror.AsAppError(err); ok {
		if appErr.Err != nil {
			logger.Error(ctx, "request error",
				"code", appErr.Code,
				"path", c.FullPath(),
				"cause", appErr.Err,
			)
		}
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, ErrorBody{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
	}

	logger.Error(ctx, "unhandled error", "path", c.FullPath(), "error", err)
	return http.StatusInternalServerError, ErrorBody{
		Code:    apperror.CodeInternal,
		Message: "Internal server error",
		Details: map[string]any{"request_id": c.GetString("request_id")},
	}
}
