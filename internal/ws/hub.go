package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/goroutine"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/sirupsen/logrus"
)

const broadcastBuffer = 256

// Hub держит подключения пользователей и рассылает им события матчей
// и платежей.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
}

type message struct {
	userID  uuid.UUID
	payload []byte
}

// Message формат кадра для клиента: type имя события, data полезная нагрузка.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

// Run главный цикл хаба. Карта клиентов меняется только здесь.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.userID, msg.payload)
		}
	}
}

// Register после остановки хаба клиент сразу закрывается.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Notify ставит событие в очередь рассылки. При переполненной очереди
// событие отбрасывается: уведомления не гарантируют доставку.
func (h *Hub) Notify(userID uuid.UUID, event string, data any) {
	raw, err := json.Marshal(Message{Type: event, Data: data})
	if err != nil {
		logger.Log.WithField("event", event).WithError(err).Error("ws: не удалось сериализовать сообщение")
		return
	}
	select {
	case h.broadcast <- message{userID: userID, payload: raw}:
	default:
		logger.Log.WithFields(logrus.Fields{
			"user_id": userID,
			"event":   event,
		}).Warn("ws: очередь рассылки переполнена, событие отброшено")
	}
}

func (h *Hub) addClient(client *Client) {
	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) send(userID uuid.UUID, payload []byte) {
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// медленный клиент отключается, чтобы не тормозить остальных
			c := client
			goroutine.SafeGo("ws.close", c.Close)
		}
	}
}

func (h *Hub) closeAll() {
	for userID, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
		delete(h.clients, userID)
	}
}
