package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ignatzorin/crowdship-backend/internal/infrastructure/events"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Silence()
}

type frames struct {
	mu   sync.Mutex
	list []ws.Message
}

func (f *frames) add(m ws.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = append(f.list, m)
}

func (f *frames) first() (ws.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.list) == 0 {
		return ws.Message{}, false
	}
	return f.list[0], true
}

// connect поднимает сервер с хабом и подключает к нему пользователя.
func connect(t *testing.T, hub *ws.Hub, userID uuid.UUID) *frames {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.NewClient(conn, hub, userID).Run()
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	received := &frames{}
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m ws.Message
			if json.Unmarshal(data, &m) == nil {
				received.add(m)
			}
		}
	}()
	return received
}

func TestHub_NotifyReachesUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := ws.NewHub()
	go hub.Run(ctx)

	userID := uuid.New()
	received := connect(t, hub, userID)

	// регистрация асинхронна, поэтому уведомление повторяется до доставки
	require.Eventually(t, func() bool {
		hub.Notify(userID, "match.proposed", map[string]string{"match_id": "m-1"})
		_, ok := received.first()
		return ok
	}, 2*time.Second, 20*time.Millisecond)

	m, _ := received.first()
	assert.Equal(t, "match.proposed", m.Type)
	assert.Equal(t, map[string]any{"match_id": "m-1"}, m.Data)
}

func TestEventRelay_NotifiesRecipientsOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := ws.NewHub()
	go hub.Run(ctx)

	recipient := uuid.New()
	bystander := uuid.New()
	got := connect(t, hub, recipient)
	other := connect(t, hub, bystander)

	relay := ws.NewEventRelay(hub)
	env := events.Envelope{
		Type:       "payment.released",
		Recipients: []uuid.UUID{recipient},
		Payload:    json.RawMessage(`{"amount":19.8}`),
	}

	require.Eventually(t, func() bool {
		_ = relay.Handle(context.Background(), env)
		_, ok := got.first()
		return ok
	}, 2*time.Second, 20*time.Millisecond)

	m, _ := got.first()
	assert.Equal(t, "payment.released", m.Type)
	assert.Equal(t, map[string]any{"amount": 19.8}, m.Data)

	_, leaked := other.first()
	assert.False(t, leaked)
}
