package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	corsAllowHeaders = strings.Join([]string{
		"Authorization", "Content-Type", "Accept", "Origin", "Cache-Control",
		"X-Requested-With", idempotencyHeader, requestIDHeader,
	}, ", ")
	corsExposeHeaders = strings.Join([]string{requestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"}, ", ")
)

const (
	corsAllowMethods = "GET, POST, PATCH, OPTIONS"
	corsMaxAge       = "600"

	idempotencyHeader = "Idempotency-Key"
)

// CORSMiddleware отвечает на preflight и выставляет CORS заголовки только
// для origins из списка. Тот же список проверяет WebSocket апгрейд.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimSuffix(o, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			}
		}

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Max-Age", corsMaxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
