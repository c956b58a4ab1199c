package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

// Deps зависимости операций с платежами. Publisher и Notifier необязательны.
type Deps struct {
	Payments  repository.PaymentRepository
	Publisher repository.EventPublisher
	Notifier  repository.Notifier
	Now       func() time.Time
}

// UseCases операции с эскроу. Каждый переход сохраняется условной записью
// по версии платежа, параллельный переход получает CONFLICT.
type UseCases struct {
	deps Deps
}

func NewUseCases(deps Deps) *UseCases {
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &UseCases{deps: deps}
}

func (uc *UseCases) Get(ctx context.Context, paymentID, actorID uuid.UUID, isAdmin bool) (*entity.Payment, error) {
	payment, err := uc.deps.Payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !payment.IsParty(actorID) {
		return nil, apperror.ErrForbidden
	}
	return payment, nil
}

type ListInput struct {
	ActorID      uuid.UUID
	IsAdmin      bool
	Status       *valueobject.PaymentStatus
	EscrowStatus *valueobject.EscrowStatus
	MinAmount    *float64
	MaxAmount    *float64
	Page         int
	Limit        int
}

func (uc *UseCases) List(ctx context.Context, input ListInput) ([]*entity.Payment, int, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 20
	}
	if input.MinAmount != nil && input.MaxAmount != nil && *input.MinAmount > *input.MaxAmount {
		return nil, 0, apperror.New(apperror.ErrCodeValidation, "минимальная сумма больше максимальной")
	}
	filter := repository.PaymentFilter{
		Status:       input.Status,
		EscrowStatus: input.EscrowStatus,
		MinAmount:    input.MinAmount,
		MaxAmount:    input.MaxAmount,
		Limit:        input.Limit,
		Offset:       (input.Page - 1) * input.Limit,
	}
	if !input.IsAdmin {
		filter.PartyID = &input.ActorID
	}
	return uc.deps.Payments.List(ctx, filter)
}

type ReleaseInput struct {
	PaymentID uuid.UUID
	ActorID   uuid.UUID
	IsAdmin   bool
}

// Release ручная выплата перевозчику администратором.
func (uc *UseCases) Release(ctx context.Context, input ReleaseInput) (*entity.Payment, error) {
	if !input.IsAdmin {
		return nil, apperror.ErrForbidden
	}
	return uc.transition(ctx, input.PaymentID, repository.EventPaymentReleased, func(p *entity.Payment, now time.Time) error {
		if p.EscrowStatus != valueobject.EscrowStatusFunded {
			return apperror.Newf(apperror.ErrCodeInvalidState, "выплата невозможна из статуса %s", p.EscrowStatus)
		}
		return p.Release(valueobject.ReleaseManual, now)
	})
}

type RefundInput struct {
	PaymentID uuid.UUID
	ActorID   uuid.UUID
	IsAdmin   bool
	Reason    string
}

// Refund возврат отправителю из funded или disputed.
func (uc *UseCases) Refund(ctx context.Context, input RefundInput) (*entity.Payment, error) {
	if !input.IsAdmin {
		return nil, apperror.ErrForbidden
	}
	return uc.transition(ctx, input.PaymentID, repository.EventPaymentRefunded, func(p *entity.Payment, now time.Time) error {
		return p.Refund(input.Reason, now)
	})
}

type DisputeInput struct {
	PaymentID   uuid.UUID
	ActorID     uuid.UUID
	Reason      valueobject.DisputeReason
	Description string
}

func (uc *UseCases) Dispute(ctx context.Context, input DisputeInput) (*entity.Payment, error) {
	return uc.transition(ctx, input.PaymentID, repository.EventPaymentDisputed, func(p *entity.Payment, now time.Time) error {
		return p.OpenDispute(input.ActorID, input.Reason, input.Description, now)
	})
}

type ResolveInput struct {
	PaymentID        uuid.UUID
	ActorID          uuid.UUID
	IsAdmin          bool
	ReleaseToCarrier bool
	Resolution       string
}

func (uc *UseCases) Resolve(ctx context.Context, input ResolveInput) (*entity.Payment, error) {
	if !input.IsAdmin {
		return nil, apperror.ErrForbidden
	}
	eventType := repository.EventPaymentRefunded
	if input.ReleaseToCarrier {
		eventType = repository.EventPaymentReleased
	}
	return uc.transition(ctx, input.PaymentID, eventType, func(p *entity.Payment, now time.Time) error {
		return p.ResolveDispute(input.ActorID, input.ReleaseToCarrier, input.Resolution, now)
	})
}

func (uc *UseCases) transition(ctx context.Context, paymentID uuid.UUID, eventType string, apply func(*entity.Payment, time.Time) error) (*entity.Payment, error) {
	payment, err := uc.deps.Payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	from := payment.EscrowStatus
	now := uc.deps.Now()
	if err := apply(payment, now); err != nil {
		return nil, err
	}
	if err := uc.deps.Payments.Update(ctx, payment); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"match_id":   payment.MatchID,
		"from":       from,
		"to":         payment.EscrowStatus,
	}).Info("статус эскроу изменён")
	uc.announce(ctx, eventType, payment, now)
	return payment, nil
}

func (uc *UseCases) announce(ctx context.Context, eventType string, p *entity.Payment, now time.Time) {
	ev := repository.PaymentEvent{
		Type:         eventType,
		PaymentID:    p.ID,
		MatchID:      p.MatchID,
		SenderID:     p.SenderID,
		CarrierID:    p.CarrierID,
		Amount:       p.Amount,
		Currency:     p.Currency,
		EscrowStatus: p.EscrowStatus,
		OccurredAt:   now,
	}
	if uc.deps.Publisher != nil {
		if err := uc.deps.Publisher.PublishPayment(ctx, ev); err != nil {
			logger.Log.WithField("payment_id", p.ID).WithError(err).Warn("не удалось опубликовать событие платежа")
		}
	}
	if uc.deps.Notifier != nil {
		uc.deps.Notifier.Notify(p.SenderID, eventType, ev)
		uc.deps.Notifier.Notify(p.CarrierID, eventType, ev)
	}
}
