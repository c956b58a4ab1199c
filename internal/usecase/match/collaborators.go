package match

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/sirupsen/logrus"
)

// Collaborators внешние зависимости жизненного цикла помимо хранилища.
// Незаданные поля заменяются пустыми реализациями.
type Collaborators struct {
	Publisher   repository.EventPublisher
	Notifier    repository.Notifier
	Scheduler   repository.ExpiryScheduler
	Idempotency repository.IdempotencyStore
	Now         func() time.Time
}

func (c Collaborators) withDefaults() Collaborators {
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	if c.Notifier == nil {
		c.Notifier = noopNotifier{}
	}
	if c.Scheduler == nil {
		c.Scheduler = noopScheduler{}
	}
	if c.Now == nil {
		c.Now = func() time.Time { return time.Now().UTC() }
	}
	return c
}

type noopPublisher struct{}

func (noopPublisher) PublishMatch(context.Context, repository.MatchEvent) error     { return nil }
func (noopPublisher) PublishPayment(context.Context, repository.PaymentEvent) error { return nil }

type noopNotifier struct{}

func (noopNotifier) Notify(uuid.UUID, string, any) {}

type noopScheduler struct{}

func (noopScheduler) ScheduleExpiry(context.Context, uuid.UUID, time.Time) error { return nil }

func matchFields(m *entity.Match) logrus.Fields {
	return logrus.Fields{
		"match_id":  m.ID,
		"parcel_id": m.ParcelID,
		"travel_id": m.TravelID,
	}
}

func newMatchEvent(eventType string, m *entity.Match, actor *uuid.UUID, now time.Time) repository.MatchEvent {
	ev := repository.MatchEvent{
		Type:       eventType,
		MatchID:    m.ID,
		ParcelID:   m.ParcelID,
		TravelID:   m.TravelID,
		SenderID:   m.SenderID,
		CarrierID:  m.CarrierID,
		Status:     m.Status,
		Fee:        m.Negotiation.InitialFee,
		ActorID:    actor,
		OccurredAt: now,
	}
	if m.Negotiation.FinalFee != nil {
		ev.Fee = *m.Negotiation.FinalFee
	} else if m.Negotiation.ProposedFee != nil {
		ev.Fee = *m.Negotiation.ProposedFee
	}
	return ev
}

// announce публикует событие и уведомляет обе стороны. Ошибки доставки
// не отменяют уже зафиксированное изменение.
func (c Collaborators) announce(ctx context.Context, eventType string, m *entity.Match, actor *uuid.UUID) {
	ev := newMatchEvent(eventType, m, actor, c.Now())
	if err := c.Publisher.PublishMatch(ctx, ev); err != nil {
		logger.Log.WithFields(matchFields(m)).WithError(err).Warn("не удалось опубликовать событие матча")
	}
	c.Notifier.Notify(m.SenderID, eventType, ev)
	c.Notifier.Notify(m.CarrierID, eventType, ev)
}

// persistExpiry записывает статус expired для просроченного матча.
// Вызывается, когда операция отклонена из-за истечения срока.
func persistExpiry(ctx context.Context, repo repository.MatchRepository, c Collaborators, m *entity.Match) {
	if !m.Expire(c.Now()) {
		return
	}
	if err := repo.Update(ctx, m); err != nil {
		logger.Log.WithFields(matchFields(m)).WithError(err).Warn("не удалось сохранить истечение матча")
		return
	}
	c.announce(ctx, repository.EventMatchExpired, m, nil)
}
