package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

// Response единый конверт ответа API: {success, data} или {success, error}.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PaginatedResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Paginated пустая страница отдаётся как [] а не null.
func Paginated(c *gin.Context, data interface{}, total, limit, offset int) {
	if data == nil {
		data = []struct{}{}
	}
	c.JSON(http.StatusOK, PaginatedResponse{
		Success: true,
		Data:    data,
		Pagination: Pagination{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+limit < total,
		},
	})
}

// Error переводит ошибку сценария в HTTP ответ. Всё, что не AppError,
// считается внутренней ошибкой: клиент видит общий текст, причина уходит в лог.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Log.WithError(err).WithField("path", c.FullPath()).Error("ошибка обработки запроса")
		}
		fail(c, appErr.HTTPStatus, appErr.Code, appErr.Message)
		return
	}

	logger.Log.WithError(err).WithField("path", c.FullPath()).Error("необработанная ошибка")
	fail(c, http.StatusInternalServerError, apperror.ErrCodeInternal, "внутренняя ошибка сервера")
}

func BadRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, apperror.ErrCodeBadRequest, message)
}

func Unauthorized(c *gin.Context, message string) {
	fail(c, http.StatusUnauthorized, apperror.ErrCodeUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	fail(c, http.StatusForbidden, apperror.ErrCodeForbidden, message)
}

func fail(c *gin.Context, status int, code apperror.ErrorCode, message string) {
	c.JSON(status, Response{
		Success: false,
		Error:   &ErrorInfo{Code: string(code), Message: message},
	})
}
