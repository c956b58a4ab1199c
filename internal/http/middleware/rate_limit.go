package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/ignatzorin/crowdship-backend/internal/logger"
)

const rateLimitPrefix = "crowdship:limiter"

// RateLimitMiddleware создаёт middleware для ограничения количества запросов.
// По умолчанию: 10 запросов в минуту с одного IP. Счётчики хранятся в
// памяти процесса.
func RateLimitMiddleware(limit int64, period time.Duration) gin.HandlerFunc {
	return newRateLimit(memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix}), limit, period)
}

// RedisRateLimitMiddleware счётчики общие для всех реплик. Если Redis
// недоступен при старте, используется хранилище в памяти.
func RedisRateLimitMiddleware(client *redis.Client, limit int64, period time.Duration) gin.HandlerFunc {
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix})
	if err != nil {
		logger.Log.WithError(err).Warn("лимитер: redis недоступен, используем память")
		return RateLimitMiddleware(limit, period)
	}
	return newRateLimit(store, limit, period)
}

func newRateLimit(store limiter.Store, limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = 1 * time.Minute
	}

	instance := limiter.New(store, limiter.Rate{
		Period: period,
		Limit:  limit,
	})

	return func(c *gin.Context) {
		key := c.ClientIP()
		context, err := instance.Get(c, key)
		if err != nil {
			logger.Log.WithError(err).Error("лимитер: ошибка хранилища")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", context.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", context.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", context.Reset))

		if context.Reached {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "слишком много запросов, попробуйте позже",
				},
			})
			return
		}

		c.Next()
	}
}
