package match

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

type AcceptMatchInput struct {
	MatchID   uuid.UUID
	ActorID   uuid.UUID
	FinalFee  *float64
	Agreement *entity.Agreement
}

type AcceptMatchResult struct {
	Match   *entity.Match
	Parcel  *entity.Parcel
	Payment *entity.Payment
}

type AcceptMatchUseCase struct {
	tx          repository.TxManager
	matchRepo   repository.MatchRepository
	parcelRepo  repository.ParcelRepository
	travelRepo  repository.TravelRepository
	bookingRepo repository.BookingRepository
	paymentRepo repository.PaymentRepository
	collab      Collaborators
}

func NewAcceptMatchUseCase(
	tx repository.TxManager,
	matchRepo repository.MatchRepository,
	parcelRepo repository.ParcelRepository,
	travelRepo repository.TravelRepository,
	bookingRepo repository.BookingRepository,
	paymentRepo repository.PaymentRepository,
	collab Collaborators,
) *AcceptMatchUseCase {
	return &AcceptMatchUseCase{
		tx:          tx,
		matchRepo:   matchRepo,
		parcelRepo:  parcelRepo,
		travelRepo:  travelRepo,
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		collab:      collab.withDefaults(),
	}
}

// Execute принимает матч. Матч, посылка, журнал поездки и платёж
// записываются в одной транзакции: либо всё, либо ничего.
func (uc *AcceptMatchUseCase) Execute(ctx context.Context, input AcceptMatchInput) (*AcceptMatchResult, error) {
	m, err := uc.matchRepo.FindByID(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}
	parcel, err := uc.parcelRepo.FindByID(ctx, m.ParcelID)
	if err != nil {
		return nil, err
	}

	now := uc.collab.Now()
	if err := m.Accept(input.ActorID, input.FinalFee, input.Agreement, parcel.DeclaredValue, now); err != nil {
		if apperror.IsExpired(err) {
			persistExpiry(ctx, uc.matchRepo, uc.collab, m)
		}
		return nil, err
	}

	travel, err := uc.travelRepo.FindByID(ctx, m.TravelID)
	if err != nil {
		return nil, err
	}
	if !travel.IsBookable() {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "поездка больше не принимает посылки")
	}

	payment, err := entity.NewPaymentForMatch(m, parcel, now)
	if err != nil {
		return nil, err
	}
	if err := parcel.MarkMatched(travel.ID, travel.CarrierID, payment.DeliveryFee, payment.PlatformFee, payment.Amount, now); err != nil {
		return nil, err
	}
	tracking := parcel.NewTrackingEvent(valueobject.TrackingMatched, travel.Departure.City, travel.Departure.Country,
		"посылка закреплена за поездкой", input.ActorID, now)
	booking := entity.NewTravelBooking(m, parcel, now)

	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.matchRepo.Update(ctx, m); err != nil {
			return err
		}
		if err := uc.parcelRepo.UpdateStatus(ctx, parcel, valueobject.ParcelStatusPending); err != nil {
			return err
		}
		if err := uc.parcelRepo.AddTrackingEvent(ctx, &tracking); err != nil {
			return err
		}
		if err := uc.bookingRepo.Create(ctx, booking); err != nil {
			return err
		}
		return uc.paymentRepo.Create(ctx, payment)
	})
	if err != nil {
		logger.Log.WithFields(matchFields(m)).WithError(err).Warn("принятие матча отменено")
		return nil, err
	}
	parcel.TrackingEvents = append(parcel.TrackingEvents, tracking)

	logger.Log.WithFields(matchFields(m)).WithField("final_fee", payment.DeliveryFee).Info("матч принят")
	uc.collab.announce(ctx, repository.EventMatchAccepted, m, &input.ActorID)
	announcePayment(ctx, uc.collab, repository.EventPaymentFunded, payment)

	return &AcceptMatchResult{Match: m, Parcel: parcel, Payment: payment}, nil
}

func announcePayment(ctx context.Context, c Collaborators, eventType string, p *entity.Payment) {
	ev := repository.PaymentEvent{
		Type:         eventType,
		PaymentID:    p.ID,
		MatchID:      p.MatchID,
		SenderID:     p.SenderID,
		CarrierID:    p.CarrierID,
		Amount:       p.Amount,
		Currency:     p.Currency,
		EscrowStatus: p.EscrowStatus,
		OccurredAt:   c.Now(),
	}
	if err := c.Publisher.PublishPayment(ctx, ev); err != nil {
		logger.Log.WithField("payment_id", p.ID).WithError(err).Warn("не удалось опубликовать событие платежа")
	}
	c.Notifier.Notify(p.SenderID, eventType, ev)
	c.Notifier.Notify(p.CarrierID, eventType, ev)
}
