package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/crowdship-backend/internal/interface/http/response"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/ws"
)

// TokenParser проверка access токена из query.
type TokenParser interface {
	ParseAccess(token string) (uuid.UUID, string, error)
}

// WSHandler отвечает за установку WebSocket соединений.
type WSHandler struct {
	hub      *ws.Hub
	tokens   TokenParser
	upgrader websocket.Upgrader
}

// NewWSHandler браузер не может передать заголовок Authorization при
// открытии сокета, поэтому токен приходит в query.
func NewWSHandler(hub *ws.Hub, tokens TokenParser, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Handle обслуживает GET /api/ws?token=...
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		response.Unauthorized(c, "access токен обязателен")
		return
	}

	userID, _, err := h.tokens.ParseAccess(rawToken)
	if err != nil || userID == uuid.Nil {
		response.Unauthorized(c, "невалидный access токен")
		return
	}

	// Upgrade сам пишет ответ об ошибке
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.WithField("user_id", userID).WithError(err).Warn("ws: не удалось установить соединение")
		return
	}

	ws.NewClient(conn, h.hub, userID).Run()
}
