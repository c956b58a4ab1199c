package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	scoring "github.com/ignatzorin/crowdship-backend/internal/matching"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/matching"
)

type AgreementDTO struct {
	PickupLocation      string     `json:"pickup_location,omitempty"`
	PickupDate          *time.Time `json:"pickup_date,omitempty"`
	DeliveryLocation    string     `json:"delivery_location,omitempty"`
	DeliveryDate        *time.Time `json:"delivery_date,omitempty"`
	SpecialInstructions string     `json:"special_instructions,omitempty" binding:"max=1000"`
	InsuranceRequired   bool       `json:"insurance_required"`
	InsuranceAmount     *float64   `json:"insurance_amount,omitempty" binding:"omitempty,gte=0"`
}

func (a *AgreementDTO) ToAgreement() *entity.Agreement {
	if a == nil {
		return nil
	}
	return &entity.Agreement{
		PickupLocation:      a.PickupLocation,
		PickupDate:          a.PickupDate,
		DeliveryLocation:    a.DeliveryLocation,
		DeliveryDate:        a.DeliveryDate,
		SpecialInstructions: a.SpecialInstructions,
		InsuranceRequired:   a.InsuranceRequired,
		InsuranceAmount:     a.InsuranceAmount,
	}
}

func fromAgreement(a *entity.Agreement) *AgreementDTO {
	if a == nil {
		return nil
	}
	return &AgreementDTO{
		PickupLocation:      a.PickupLocation,
		PickupDate:          a.PickupDate,
		DeliveryLocation:    a.DeliveryLocation,
		DeliveryDate:        a.DeliveryDate,
		SpecialInstructions: a.SpecialInstructions,
		InsuranceRequired:   a.InsuranceRequired,
		InsuranceAmount:     a.InsuranceAmount,
	}
}

type CreateMatchRequest struct {
	ParcelID   uuid.UUID     `json:"parcel_id" binding:"required"`
	TravelID   uuid.UUID     `json:"travel_id" binding:"required"`
	SenderID   *uuid.UUID    `json:"sender_id,omitempty"`
	CarrierID  *uuid.UUID    `json:"carrier_id,omitempty"`
	InitialFee float64       `json:"initial_fee" binding:"required,gt=0"`
	Currency   string        `json:"currency,omitempty" binding:"omitempty,len=3"`
	Agreement  *AgreementDTO `json:"agreement,omitempty"`
}

type NegotiateRequest struct {
	Fee     float64 `json:"fee" binding:"required,gt=0"`
	Message string  `json:"message,omitempty" binding:"max=500"`
}

type AcceptMatchRequest struct {
	FinalFee  *float64      `json:"final_fee,omitempty" binding:"omitempty,gt=0"`
	Agreement *AgreementDTO `json:"agreement,omitempty"`
}

type CloseMatchRequest struct {
	Reason string `json:"reason,omitempty" binding:"max=500"`
}

type AutoMatchRequest struct {
	ParcelID uuid.UUID `json:"parcel_id" binding:"required"`
}

type MatchScoreDTO struct {
	Total    float64 `json:"total"`
	Route    float64 `json:"route"`
	Capacity float64 `json:"capacity"`
	Timing   float64 `json:"timing"`
	Price    float64 `json:"price"`
	Rating   float64 `json:"rating"`
}

type PricingDTO struct {
	SuggestedFee float64 `json:"suggested_fee"`
	MinFee       float64 `json:"min_fee"`
	MaxFee       float64 `json:"max_fee"`
}

type NegotiationEntryDTO struct {
	ProposedBy uuid.UUID `json:"proposed_by"`
	Amount     float64   `json:"amount"`
	Message    string    `json:"message,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type NegotiationResponse struct {
	InitialFee  float64               `json:"initial_fee"`
	ProposedFee *float64              `json:"proposed_fee,omitempty"`
	FinalFee    *float64              `json:"final_fee,omitempty"`
	Currency    string                `json:"currency"`
	History     []NegotiationEntryDTO `json:"history"`
}

type MatchResponse struct {
	ID                 uuid.UUID           `json:"id"`
	ParcelID           uuid.UUID           `json:"parcel_id"`
	TravelID           uuid.UUID           `json:"travel_id"`
	SenderID           uuid.UUID           `json:"sender_id"`
	CarrierID          uuid.UUID           `json:"carrier_id"`
	Status             string              `json:"status"`
	Score              MatchScoreDTO       `json:"score"`
	Pricing            PricingDTO          `json:"pricing"`
	Negotiation        NegotiationResponse `json:"negotiation"`
	Agreement          *AgreementDTO       `json:"agreement,omitempty"`
	RejectionReason    string              `json:"rejection_reason,omitempty"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
	ProposedAt         time.Time           `json:"proposed_at"`
	AcceptedAt         *time.Time          `json:"accepted_at,omitempty"`
	RejectedAt         *time.Time          `json:"rejected_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	ExpiresAt          time.Time           `json:"expires_at"`
	Version            int                 `json:"version"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Details            *scoring.Details    `json:"details,omitempty"`
}

func ToNegotiationResponse(n entity.Negotiation) NegotiationResponse {
	resp := NegotiationResponse{
		InitialFee:  n.InitialFee,
		ProposedFee: n.ProposedFee,
		FinalFee:    n.FinalFee,
		Currency:    n.Currency,
		History:     make([]NegotiationEntryDTO, 0, len(n.History)),
	}
	for _, e := range n.History {
		resp.History = append(resp.History, NegotiationEntryDTO{
			ProposedBy: e.ProposedBy,
			Amount:     e.Amount,
			Message:    e.Message,
			Timestamp:  e.Timestamp,
		})
	}
	return resp
}

func toScoreDTO(s entity.MatchScore) MatchScoreDTO {
	return MatchScoreDTO{
		Total:    s.Total,
		Route:    s.Route,
		Capacity: s.Capacity,
		Timing:   s.Timing,
		Price:    s.Price,
		Rating:   s.Rating,
	}
}

func toPricingDTO(p entity.Pricing) PricingDTO {
	return PricingDTO{SuggestedFee: p.SuggestedFee, MinFee: p.MinFee, MaxFee: p.MaxFee}
}

func ToMatchResponse(m *entity.Match) MatchResponse {
	return MatchResponse{
		ID:                 m.ID,
		ParcelID:           m.ParcelID,
		TravelID:           m.TravelID,
		SenderID:           m.SenderID,
		CarrierID:          m.CarrierID,
		Status:             string(m.Status),
		Score:              toScoreDTO(m.Score),
		Pricing:            toPricingDTO(m.Pricing),
		Negotiation:        ToNegotiationResponse(m.Negotiation),
		Agreement:          fromAgreement(m.Agreement),
		RejectionReason:    m.RejectionReason,
		CancellationReason: m.CancellationReason,
		ProposedAt:         m.ProposedAt,
		AcceptedAt:         m.AcceptedAt,
		RejectedAt:         m.RejectedAt,
		CancelledAt:        m.CancelledAt,
		ExpiresAt:          m.ExpiresAt,
		Version:            m.Version,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func ToMatchResponses(matches []*entity.Match) []MatchResponse {
	out := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, ToMatchResponse(m))
	}
	return out
}

// AcceptMatchResponse итог принятия: матч, посылка и зарезервированный платёж.
type AcceptMatchResponse struct {
	Match   MatchResponse    `json:"match"`
	Parcel  ParcelResponse   `json:"parcel"`
	Payment *PaymentResponse `json:"payment,omitempty"`
}

type CarrierDTO struct {
	UserID              uuid.UUID `json:"user_id"`
	Rating              float64   `json:"rating"`
	TotalReviews        int       `json:"total_reviews"`
	CompletedDeliveries int       `json:"completed_deliveries"`
	SuccessRate         float64   `json:"success_rate"`
}

func toCarrierDTO(rep *entity.Reputation, fallback uuid.UUID) CarrierDTO {
	if rep == nil {
		return CarrierDTO{UserID: fallback}
	}
	return CarrierDTO{
		UserID:              rep.UserID,
		Rating:              rep.Average(),
		TotalReviews:        rep.TotalReviews,
		CompletedDeliveries: rep.CompletedDeliveries,
		SuccessRate:         rep.SuccessRate(),
	}
}

type CandidateResponse struct {
	Travel       TravelResponse  `json:"travel"`
	Carrier      CarrierDTO      `json:"carrier"`
	Score        MatchScoreDTO   `json:"score"`
	Details      scoring.Details `json:"details"`
	Pricing      PricingDTO      `json:"pricing"`
	EstimatedFee float64         `json:"estimated_fee"`
}

func ToCandidateResponses(candidates []matching.Candidate) []CandidateResponse {
	out := make([]CandidateResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, CandidateResponse{
			Travel:       ToTravelResponse(c.Travel),
			Carrier:      toCarrierDTO(c.Carrier, c.Travel.CarrierID),
			Score:        toScoreDTO(c.Score.Breakdown()),
			Details:      c.Details,
			Pricing:      toPricingDTO(c.Pricing),
			EstimatedFee: c.EstimatedFee,
		})
	}
	return out
}

type TravelListingResponse struct {
	Travel               TravelResponse `json:"travel"`
	Carrier              CarrierDTO     `json:"carrier"`
	EstimatedDeliveryFee float64        `json:"estimated_delivery_fee"`
}

func ToTravelListingResponses(listings []matching.TravelListing) []TravelListingResponse {
	out := make([]TravelListingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, TravelListingResponse{
			Travel:               ToTravelResponse(l.Travel),
			Carrier:              toCarrierDTO(l.Carrier, l.Travel.CarrierID),
			EstimatedDeliveryFee: l.EstimatedDeliveryFee,
		})
	}
	return out
}
