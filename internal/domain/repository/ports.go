package repository

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

// TxManager выполняет fn в одной транзакции. Репозитории, вызванные с
// контекстом fn, пишут в эту же транзакцию.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Типы доменных событий.
const (
	EventMatchProposed   = "match.proposed"
	EventMatchNegotiated = "match.negotiated"
	EventMatchAccepted   = "match.accepted"
	EventMatchRejected   = "match.rejected"
	EventMatchCancelled  = "match.cancelled"
	EventMatchExpired    = "match.expired"

	EventPaymentFunded   = "payment.funded"
	EventPaymentReleased = "payment.released"
	EventPaymentRefunded = "payment.refunded"
	EventPaymentDisputed = "payment.disputed"
)

// MatchEvent событие жизненного цикла матча.
type MatchEvent struct {
	Type       string                  `json:"type"`
	MatchID    uuid.UUID               `json:"match_id"`
	ParcelID   uuid.UUID               `json:"parcel_id"`
	TravelID   uuid.UUID               `json:"travel_id"`
	SenderID   uuid.UUID               `json:"sender_id"`
	CarrierID  uuid.UUID               `json:"carrier_id"`
	Status     valueobject.MatchStatus `json:"status"`
	Fee        float64                 `json:"fee"`
	ActorID    *uuid.UUID              `json:"actor_id,omitempty"`
	OccurredAt time.Time               `json:"occurred_at"`
}

type PaymentEvent struct {
	Type         string                   `json:"type"`
	PaymentID    uuid.UUID                `json:"payment_id"`
	MatchID      uuid.UUID                `json:"match_id"`
	SenderID     uuid.UUID                `json:"sender_id"`
	CarrierID    uuid.UUID                `json:"carrier_id"`
	Amount       float64                  `json:"amount"`
	Currency     string                   `json:"currency"`
	EscrowStatus valueobject.EscrowStatus `json:"escrow_status"`
	OccurredAt   time.Time                `json:"occurred_at"`
}

// EventPublisher публикует доменные события после фиксации изменений.
type EventPublisher interface {
	PublishMatch(ctx context.Context, event MatchEvent) error
	PublishPayment(ctx context.Context, event PaymentEvent) error
}

// Notifier доставляет уведомления пользователю в реальном времени.
type Notifier interface {
	Notify(userID uuid.UUID, event string, data any)
}

// ExpiryScheduler планирует фоновое истечение матча в момент expiresAt.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, matchID uuid.UUID, at time.Time) error
}

// IdempotencyStore запоминает ключ повторного запроса и созданный по нему матч.
type IdempotencyStore interface {
	Lookup(ctx context.Context, scope, key string) (uuid.UUID, bool, error)
	Remember(ctx context.Context, scope, key string, id uuid.UUID) error
}

// PhotoStorage хранилище фотографий посылок.
type PhotoStorage interface {
	Save(ctx context.Context, prefix string, r io.Reader, size int64) (string, error)
	URL(ctx context.Context, key string) (string, error)
}
