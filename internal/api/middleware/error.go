package middleware

import (
	"log/slog"
	"net/http"

	"solar-logger/internal/api/models"

	"github.com/gin-gonic/gin"
)

// ErrorHandler middleware handles panics and errors
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.ErrorContext(c.Request.Context(), "panic recovered",
			"path", c.Request.URL.Path, "panic", recovered)
		if err, ok := recovered.(string); ok {
			c.JSON(http.StatusInternalServerError, models.NewError("INTERNAL_ERROR", err))
		} else {
			c.JSON(http.StatusInternalServerError, models.NewError("INTERNAL_ERROR", "An unexpected error occurred"))
		}
		c.Abort()
	})
}
