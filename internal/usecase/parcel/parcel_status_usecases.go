package parcel

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

// StatusDeps зависимости переходов статуса посылки. Смена статуса,
// событие отслеживания, платёж и репутация пишутся одной транзакцией.
type StatusDeps struct {
	Tx          repository.TxManager
	Parcels     repository.ParcelRepository
	Payments    repository.PaymentRepository
	Reputations repository.ReputationRepository
	Publisher   repository.EventPublisher
	Now         func() time.Time
}

type StatusInput struct {
	ParcelID    uuid.UUID
	ActorID     uuid.UUID
	IsAdmin     bool
	City        string
	Country     string
	Description string
}

type StatusUseCases struct {
	deps StatusDeps
}

func NewStatusUseCases(deps StatusDeps) *StatusUseCases {
	deps.Now = nowOrDefault(deps.Now)
	return &StatusUseCases{deps: deps}
}

// Cancel отмена посылки отправителем. Если по посылке уже зарезервирован
// платёж, он возвращается отправителю.
func (uc *StatusUseCases) Cancel(ctx context.Context, input StatusInput) (*entity.Parcel, error) {
	parcel, err := uc.deps.Parcels.FindByID(ctx, input.ParcelID)
	if err != nil {
		return nil, err
	}
	if !parcel.IsOwnedBy(input.ActorID) && !input.IsAdmin {
		return nil, apperror.ErrForbidden
	}
	now := uc.deps.Now()
	from := parcel.Status
	if err := parcel.Cancel(now); err != nil {
		return nil, err
	}

	var refunded *entity.Payment
	if from == valueobject.ParcelStatusMatched {
		payment, err := uc.deps.Payments.FindByParcelID(ctx, parcel.ID)
		if err != nil && !apperror.IsNotFound(err) {
			return nil, err
		}
		if payment != nil && payment.EscrowStatus == valueobject.EscrowStatusFunded {
			if err := payment.Refund("посылка отменена отправителем", now); err != nil {
				return nil, err
			}
			refunded = payment
		}
	}

	err = uc.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.deps.Parcels.UpdateStatus(ctx, parcel, from); err != nil {
			return err
		}
		if refunded != nil {
			return uc.deps.Payments.Update(ctx, refunded)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log(parcel, from).Info("посылка отменена")
	if refunded != nil {
		uc.publishPayment(ctx, repository.EventPaymentRefunded, refunded)
	}
	return parcel, nil
}

// PickUp перевозчик забрал посылку.
func (uc *StatusUseCases) PickUp(ctx context.Context, input StatusInput) (*entity.Parcel, error) {
	return uc.carrierTransition(ctx, input, valueobject.TrackingPickedUp, (*entity.Parcel).PickUp, nil)
}

// Deliver подтверждение доставки перевозчиком или отправителем: эскроу
// выплачивается перевозчику, доставка засчитывается в репутацию.
func (uc *StatusUseCases) Deliver(ctx context.Context, input StatusInput) (*entity.Parcel, error) {
	parcel, err := uc.deps.Parcels.FindByID(ctx, input.ParcelID)
	if err != nil {
		return nil, err
	}
	if !parcel.IsCarriedBy(input.ActorID) && !parcel.IsOwnedBy(input.ActorID) && !input.IsAdmin {
		return nil, apperror.ErrForbidden
	}
	return uc.apply(ctx, parcel, input, valueobject.TrackingDelivered, (*entity.Parcel).Deliver, func(ctx context.Context, now time.Time) (*entity.Payment, error) {
		if err := uc.deps.Reputations.AddDelivery(ctx, *parcel.MatchedCarrierID, true); err != nil {
			return nil, err
		}
		payment, err := uc.deps.Payments.FindByParcelID(ctx, parcel.ID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		if payment.EscrowStatus != valueobject.EscrowStatusFunded {
			return nil, nil
		}
		if err := payment.Release(valueobject.ReleaseDeliveryConfirmed, now); err != nil {
			return nil, err
		}
		return payment, uc.deps.Payments.Update(ctx, payment)
	})
}

// MarkLost посылка утеряна в пути. Доставка засчитывается как неуспешная.
func (uc *StatusUseCases) MarkLost(ctx context.Context, input StatusInput) (*entity.Parcel, error) {
	if !input.IsAdmin {
		return nil, apperror.ErrForbidden
	}
	parcel, err := uc.deps.Parcels.FindByID(ctx, input.ParcelID)
	if err != nil {
		return nil, err
	}
	return uc.apply(ctx, parcel, input, valueobject.TrackingFailedDelivery, (*entity.Parcel).MarkLost, func(ctx context.Context, _ time.Time) (*entity.Payment, error) {
		return nil, uc.deps.Reputations.AddDelivery(ctx, *parcel.MatchedCarrierID, false)
	})
}

type sideEffect func(ctx context.Context, now time.Time) (*entity.Payment, error)

func (uc *StatusUseCases) carrierTransition(ctx context.Context, input StatusInput, event valueobject.TrackingEventType, transition func(*entity.Parcel, time.Time) error, effect sideEffect) (*entity.Parcel, error) {
	parcel, err := uc.deps.Parcels.FindByID(ctx, input.ParcelID)
	if err != nil {
		return nil, err
	}
	if !parcel.IsCarriedBy(input.ActorID) && !input.IsAdmin {
		return nil, apperror.ErrForbidden
	}
	return uc.apply(ctx, parcel, input, event, transition, effect)
}

func (uc *StatusUseCases) apply(
	ctx context.Context,
	parcel *entity.Parcel,
	input StatusInput,
	event valueobject.TrackingEventType,
	transition func(*entity.Parcel, time.Time) error,
	effect sideEffect,
) (*entity.Parcel, error) {
	now := uc.deps.Now()
	from := parcel.Status
	if err := transition(parcel, now); err != nil {
		return nil, err
	}
	tracking := parcel.NewTrackingEvent(event, input.City, input.Country, input.Description, input.ActorID, now)

	var released *entity.Payment
	err := uc.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.deps.Parcels.UpdateStatus(ctx, parcel, from); err != nil {
			return err
		}
		if err := uc.deps.Parcels.AddTrackingEvent(ctx, &tracking); err != nil {
			return err
		}
		if effect == nil {
			return nil
		}
		var err error
		released, err = effect(ctx, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	parcel.TrackingEvents = append(parcel.TrackingEvents, tracking)

	uc.log(parcel, from).Info("статус посылки изменён")
	if released != nil {
		uc.publishPayment(ctx, repository.EventPaymentReleased, released)
	}
	return parcel, nil
}

func (uc *StatusUseCases) log(p *entity.Parcel, from valueobject.ParcelStatus) *logrus.Entry {
	return logger.Log.WithFields(logrus.Fields{
		"parcel_id": p.ID,
		"from":      from,
		"to":        p.Status,
	})
}

func (uc *StatusUseCases) publishPayment(ctx context.Context, eventType string, p *entity.Payment) {
	if uc.deps.Publisher == nil {
		return
	}
	err := uc.deps.Publisher.PublishPayment(ctx, repository.PaymentEvent{
		Type:         eventType,
		PaymentID:    p.ID,
		MatchID:      p.MatchID,
		SenderID:     p.SenderID,
		CarrierID:    p.CarrierID,
		Amount:       p.Amount,
		Currency:     p.Currency,
		EscrowStatus: p.EscrowStatus,
		OccurredAt:   uc.deps.Now(),
	})
	if err != nil {
		logger.Log.WithField("payment_id", p.ID).WithError(err).Warn("не удалось опубликовать событие платежа")
	}
}
