package ws

import (
	"context"

	"github.com/ignatzorin/crowdship-backend/internal/infrastructure/events"
)

// EventRelay доставляет события из Kafka подключённым к этой реплике
// пользователям.
type EventRelay struct {
	hub *Hub
}

func NewEventRelay(hub *Hub) *EventRelay {
	return &EventRelay{hub: hub}
}

// Handle обработчик для events.Consumer.
func (r *EventRelay) Handle(ctx context.Context, env events.Envelope) error {
	for _, userID := range env.Recipients {
		r.hub.Notify(userID, env.Type, env.Payload)
	}
	return nil
}
