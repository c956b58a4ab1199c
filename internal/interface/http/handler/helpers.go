package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/response"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func getUserID(c *gin.Context) (uuid.UUID, error) {
	userIDValue, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, errors.New("user_id не найден в контексте")
	}

	userID, ok := userIDValue.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("некорректный формат user_id")
	}

	return userID, nil
}

// actor текущий пользователь и признак администратора. При отсутствии
// авторизации сразу отвечает 401.
func actor(c *gin.Context) (uuid.UUID, bool, bool) {
	userID, err := getUserID(c)
	if err != nil {
		response.Unauthorized(c, "требуется авторизация")
		return uuid.Nil, false, false
	}
	return userID, c.GetString("role") == string(valueobject.RoleAdmin), true
}

func pathID(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "некорректный ID "+what)
		return uuid.Nil, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func parseFloatQuery(c *gin.Context, key string) *float64 {
	valueStr := c.Query(key)
	if valueStr == "" {
		return nil
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return nil
	}

	return &value
}

func parseTimeQuery(c *gin.Context, key string) *time.Time {
	valueStr := c.Query(key)
	if valueStr == "" {
		return nil
	}
	value, err := time.Parse(time.RFC3339, valueStr)
	if err != nil {
		return nil
	}
	value = value.UTC()
	return &value
}

func parseUUIDQuery(c *gin.Context, key string) (*uuid.UUID, bool) {
	valueStr := strings.TrimSpace(c.Query(key))
	if valueStr == "" {
		return nil, true
	}
	id, err := uuid.Parse(valueStr)
	if err != nil {
		response.BadRequest(c, "параметр "+key+" должен быть валидным UUID")
		return nil, false
	}
	return &id, true
}

// pageParams страница и размер страницы с ограничением сверху.
func pageParams(c *gin.Context) (page, limit int) {
	page = parseIntQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit = parseIntQuery(c, "limit", defaultPageLimit)
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	return page, limit
}

func paginated(c *gin.Context, data interface{}, total, page, limit int) {
	response.Paginated(c, data, total, limit, (page-1)*limit)
}
