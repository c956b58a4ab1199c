package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
)

type RefundRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type DisputeRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description" binding:"required,max=2000"`
}

type ResolveDisputeRequest struct {
	ReleaseToCarrier bool   `json:"release_to_carrier"`
	Resolution       string `json:"resolution" binding:"required,max=2000"`
}

type DisputeResponse struct {
	Reason      string     `json:"reason"`
	Description string     `json:"description"`
	OpenedBy    uuid.UUID  `json:"opened_by"`
	OpenedAt    time.Time  `json:"opened_at"`
	Resolution  string     `json:"resolution,omitempty"`
	ResolvedBy  *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

type PaymentResponse struct {
	ID               uuid.UUID        `json:"id"`
	MatchID          uuid.UUID        `json:"match_id"`
	ParcelID         uuid.UUID        `json:"parcel_id"`
	SenderID         uuid.UUID        `json:"sender_id"`
	CarrierID        uuid.UUID        `json:"carrier_id"`
	DeliveryFee      float64          `json:"delivery_fee"`
	PlatformFee      float64          `json:"platform_fee"`
	InsuranceFee     float64          `json:"insurance_fee"`
	Amount           float64          `json:"amount"`
	Currency         string           `json:"currency"`
	Status           string           `json:"status"`
	EscrowStatus     string           `json:"escrow_status"`
	ReleaseCondition *string          `json:"release_condition,omitempty"`
	Dispute          *DisputeResponse `json:"dispute,omitempty"`
	RefundReason     string           `json:"refund_reason,omitempty"`
	ReleasedAt       *time.Time       `json:"released_at,omitempty"`
	RefundedAt       *time.Time       `json:"refunded_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func ToPaymentResponse(p *entity.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:           p.ID,
		MatchID:      p.MatchID,
		ParcelID:     p.ParcelID,
		SenderID:     p.SenderID,
		CarrierID:    p.CarrierID,
		DeliveryFee:  p.DeliveryFee,
		PlatformFee:  p.PlatformFee,
		InsuranceFee: p.InsuranceFee,
		Amount:       p.Amount,
		Currency:     p.Currency,
		Status:       string(p.Status),
		EscrowStatus: string(p.EscrowStatus),
		RefundReason: p.RefundReason,
		ReleasedAt:   p.ReleasedAt,
		RefundedAt:   p.RefundedAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.ReleaseCondition != nil {
		cond := string(*p.ReleaseCondition)
		resp.ReleaseCondition = &cond
	}
	if d := p.Dispute; d != nil {
		resp.Dispute = &DisputeResponse{
			Reason:      string(d.Reason),
			Description: d.Description,
			OpenedBy:    d.OpenedBy,
			OpenedAt:    d.OpenedAt,
			Resolution:  d.Resolution,
			ResolvedBy:  d.ResolvedBy,
			ResolvedAt:  d.ResolvedAt,
		}
	}
	return resp
}

func ToPaymentResponses(payments []*entity.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, ToPaymentResponse(p))
	}
	return out
}
