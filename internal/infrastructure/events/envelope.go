package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
)

// Envelope формат сообщения в топиках событий. Recipients участники,
// которым реплики API доставляют событие по WebSocket.
type Envelope struct {
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	Recipients []uuid.UUID     `json:"recipients"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

func newEnvelope(eventType, key string, recipients []uuid.UUID, at time.Time, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: не удалось сериализовать %s: %w", eventType, err)
	}
	return Envelope{
		Type:       eventType,
		Key:        key,
		Recipients: recipients,
		OccurredAt: at,
		Payload:    raw,
	}, nil
}

// MatchEnvelope ключ партиции id матча: события одного матча упорядочены.
func MatchEnvelope(ev repository.MatchEvent) (Envelope, error) {
	return newEnvelope(ev.Type, ev.MatchID.String(), []uuid.UUID{ev.SenderID, ev.CarrierID}, ev.OccurredAt, ev)
}

// PaymentEnvelope платежи партиционируются по матчу, как и события матча.
func PaymentEnvelope(ev repository.PaymentEvent) (Envelope, error) {
	return newEnvelope(ev.Type, ev.MatchID.String(), []uuid.UUID{ev.SenderID, ev.CarrierID}, ev.OccurredAt, ev)
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("events: некорректный конверт: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("events: в конверте нет типа события")
	}
	return env, nil
}
