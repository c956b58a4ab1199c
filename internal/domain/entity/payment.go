package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

type Dispute struct {
	Reason      valueobject.DisputeReason
	Description string
	OpenedBy    uuid.UUID
	OpenedAt    time.Time
	Resolution  string
	ResolvedBy  *uuid.UUID
	ResolvedAt  *time.Time
}

type Payment struct {
	ID               uuid.UUID
	MatchID          uuid.UUID
	ParcelID         uuid.UUID
	SenderID         uuid.UUID
	CarrierID        uuid.UUID
	DeliveryFee      float64
	PlatformFee      float64
	InsuranceFee     float64
	Amount           float64
	Currency         string
	Status           valueobject.PaymentStatus
	EscrowStatus     valueobject.EscrowStatus
	ReleaseCondition *valueobject.ReleaseCondition
	Dispute          *Dispute
	RefundReason     string
	ReleasedAt       *time.Time
	RefundedAt       *time.Time
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPaymentForMatch создаёт платёж по принятому матчу: средства
// резервируются в эскроу до подтверждения доставки.
func NewPaymentForMatch(m *Match, p *Parcel, now time.Time) (*Payment, error) {
	if m.Status != valueobject.MatchStatusAccepted || m.Negotiation.FinalFee == nil {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "платёж создаётся только для принятого матча")
	}
	deliveryFee := *m.Negotiation.FinalFee
	platformFee := valueobject.PlatformFee(deliveryFee)
	insuranceFee := p.InsuranceFee()

	return &Payment{
		ID:           uuid.New(),
		MatchID:      m.ID,
		ParcelID:     m.ParcelID,
		SenderID:     m.SenderID,
		CarrierID:    m.CarrierID,
		DeliveryFee:  deliveryFee,
		PlatformFee:  platformFee,
		InsuranceFee: insuranceFee,
		Amount:       valueobject.RoundMoney(deliveryFee + platformFee + insuranceFee),
		Currency:     m.Negotiation.Currency,
		Status:       valueobject.PaymentStatusPending,
		EscrowStatus: valueobject.EscrowStatusFunded,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (p *Payment) IsParty(userID uuid.UUID) bool {
	return p.SenderID == userID || p.CarrierID == userID
}

func (p *Payment) escrowTo(to valueobject.EscrowStatus, now time.Time) error {
	if !p.EscrowStatus.CanTransitionTo(to) {
		return apperror.Newf(apperror.ErrCodeInvalidState,
			"переход эскроу из статуса %s в %s недопустим", p.EscrowStatus, to)
	}
	p.EscrowStatus = to
	p.UpdatedAt = now
	return nil
}

func (p *Payment) Release(condition valueobject.ReleaseCondition, now time.Time) error {
	if err := p.escrowTo(valueobject.EscrowStatusReleased, now); err != nil {
		return err
	}
	p.Status = valueobject.PaymentStatusCompleted
	p.ReleaseCondition = &condition
	p.ReleasedAt = &now
	return nil
}

func (p *Payment) Refund(reason string, now time.Time) error {
	if err := p.escrowTo(valueobject.EscrowStatusRefunded, now); err != nil {
		return err
	}
	p.Status = valueobject.PaymentStatusRefunded
	p.RefundReason = strings.TrimSpace(reason)
	p.RefundedAt = &now
	return nil
}

func (p *Payment) OpenDispute(by uuid.UUID, reason valueobject.DisputeReason, description string, now time.Time) error {
	if !p.IsParty(by) {
		return apperror.New(apperror.ErrCodeUnauthorized, "спор может открыть только участник доставки")
	}
	if err := p.escrowTo(valueobject.EscrowStatusDisputed, now); err != nil {
		return err
	}
	p.Status = valueobject.PaymentStatusDisputed
	p.Dispute = &Dispute{
		Reason:      reason,
		Description: strings.TrimSpace(description),
		OpenedBy:    by,
		OpenedAt:    now,
	}
	return nil
}

// ResolveDispute закрывает спор выплатой перевозчику или возвратом отправителю.
func (p *Payment) ResolveDispute(by uuid.UUID, releaseToCarrier bool, resolution string, now time.Time) error {
	if p.EscrowStatus != valueobject.EscrowStatusDisputed || p.Dispute == nil {
		return apperror.New(apperror.ErrCodeInvalidState, "по платежу нет открытого спора")
	}
	var err error
	if releaseToCarrier {
		err = p.Release(valueobject.ReleaseManual, now)
	} else {
		err = p.Refund(resolution, now)
	}
	if err != nil {
		return err
	}
	p.Dispute.Resolution = strings.TrimSpace(resolution)
	p.Dispute.ResolvedBy = &by
	p.Dispute.ResolvedAt = &now
	return nil
}
