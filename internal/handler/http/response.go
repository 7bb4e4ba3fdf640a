package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	StatusCode int         `json:"status_code"`
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

// RespondWithError sends an error envelope and logs it.
func RespondWithError(c *gin.Context, logger *zap.Logger, statusCode int, message string, err error) {
	logger.Error("API error response",
		zap.Int("status_code", statusCode),
		zap.String("error_message", message),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)

	c.JSON(statusCode, APIResponse{
		StatusCode: statusCode,
		Success:    false,
		Message:    message,
	})
}

// RespondWithSuccess sends a success envelope.
func RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		StatusCode: statusCode,
		Success:    true,
		Message:    message,
		Data:       data,
	})
}
