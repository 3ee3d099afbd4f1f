package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/skhokho/linkup-backend/internal/logger"
	"github.com/skhokho/linkup-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Доменные ошибки отдаются клиенту со своим статусом и кодом,
// всё остальное маскируется как внутренняя ошибка.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err

			if logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{
					"error":  err.Error(),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("Request error")
			}

			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				c.JSON(appErr.HTTPStatus, gin.H{
					"error": appErr.Message,
					"code":  string(appErr.Code),
				})
				return
			}

			c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка сервера"})
		}
	}
}
