package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const healthTimeout = 3 * time.Second

type healthCheck struct {
	name string
	ping func(ctx context.Context) error
	// без обязательной зависимости сервис не работает, без остальных деградирует
	required bool
}

type HealthHandler struct {
	db     *sqlx.DB
	checks []healthCheck
}

// NewHealthHandler redis может быть nil, если он не настроен.
func NewHealthHandler(db *sqlx.DB, redisClient *redis.Client) *HealthHandler {
	h := &HealthHandler{db: db}
	h.checks = append(h.checks, healthCheck{name: "database", ping: db.PingContext, required: true})
	if redisClient != nil {
		h.checks = append(h.checks, healthCheck{
			name: "redis",
			ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	return h
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health GET /health: 200 healthy|degraded, 503 если недоступна база.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Timestamp: time.Now().UTC(), Checks: map[string]string{"redis": "disabled"}}
	code := http.StatusOK

	for _, check := range h.checks {
		if err := check.ping(ctx); err != nil {
			resp.Checks[check.name] = "unhealthy: " + err.Error()
			if check.required {
				resp.Status, code = "unhealthy", http.StatusServiceUnavailable
			} else if code == http.StatusOK {
				resp.Status = "degraded"
			}
			continue
		}
		resp.Checks[check.name] = "healthy"
	}

	if stats := h.db.Stats(); stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections {
		resp.Checks["connection_pool"] = "exhausted"
	}

	c.JSON(code, resp)
}
