package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/crowdship-backend/internal/interface/http/response"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

// ErrorHandler отвечает на ошибки, добавленные через c.Error, если
// обработчик сам не записал ответ. Внутренние ошибки маскируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		entry := logger.Log.WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": c.GetString(ContextRequestIDKey),
		}).WithError(err)

		if apperror.CodeOf(err) == apperror.ErrCodeInternal || apperror.CodeOf(err) == apperror.ErrCodeDatabaseError {
			entry.Error("ошибка обработки запроса")
		} else {
			entry.Warn("запрос отклонён")
		}
		response.Error(c, err)
	}
}
