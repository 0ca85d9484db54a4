// internal/middleware/recovery_middleware.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"print-bridge/internal/utils"
)

// RecoveryMiddleware turns a handler panic into a 500 envelope
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("request_id", utils.GetRequestID(c)),
			zap.Stack("stacktrace"),
		)

		utils.AbortWithError(c, http.StatusInternalServerError, "Internal server error", nil)
	})
}
