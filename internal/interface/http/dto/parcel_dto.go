package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

type RecipientDTO struct {
	Name        string     `json:"name" binding:"required"`
	PhoneNumber string     `json:"phone_number" binding:"required"`
	Email       string     `json:"email,omitempty" binding:"omitempty,email"`
	Address     AddressDTO `json:"address" binding:"required"`
}

type DimensionsDTO struct {
	Length float64 `json:"length" binding:"gt=0"`
	Width  float64 `json:"width" binding:"gt=0"`
	Height float64 `json:"height" binding:"gt=0"`
}

type CreateParcelRequest struct {
	Recipient         RecipientDTO  `json:"recipient" binding:"required"`
	Description       string        `json:"description" binding:"required,max=1000"`
	Category          string        `json:"category" binding:"required"`
	Dimensions        DimensionsDTO `json:"dimensions" binding:"required"`
	Weight            float64       `json:"weight" binding:"required,gt=0"`
	DeclaredValue     float64       `json:"declared_value" binding:"required,gt=0"`
	Currency          string        `json:"currency,omitempty" binding:"omitempty,len=3"`
	InsuranceRequired bool          `json:"insurance_required"`
	InsuranceAmount   *float64      `json:"insurance_amount,omitempty"`
	SpecialHandling   []string      `json:"special_handling,omitempty"`
	DeliveryDeadline  time.Time     `json:"delivery_deadline" binding:"required"`
}

// ToParams проверяет перечисления и собирает параметры новой посылки.
func (r CreateParcelRequest) ToParams(senderID uuid.UUID) (entity.NewParcelParams, error) {
	category, err := valueobject.NewParcelCategory(r.Category)
	if err != nil {
		return entity.NewParcelParams{}, err
	}
	handling := make([]valueobject.SpecialHandling, 0, len(r.SpecialHandling))
	for _, h := range r.SpecialHandling {
		v, err := valueobject.NewSpecialHandling(h)
		if err != nil {
			return entity.NewParcelParams{}, err
		}
		handling = append(handling, v)
	}
	return entity.NewParcelParams{
		SenderID: senderID,
		Recipient: entity.Recipient{
			Name:        r.Recipient.Name,
			PhoneNumber: r.Recipient.PhoneNumber,
			Email:       r.Recipient.Email,
			Address:     r.Recipient.Address.ToAddress(),
		},
		Description: r.Description,
		Category:    category,
		Dimensions: entity.Dimensions{
			Length: r.Dimensions.Length,
			Width:  r.Dimensions.Width,
			Height: r.Dimensions.Height,
		},
		Weight:            r.Weight,
		DeclaredValue:     r.DeclaredValue,
		Currency:          r.Currency,
		InsuranceRequired: r.InsuranceRequired,
		InsuranceAmount:   r.InsuranceAmount,
		SpecialHandling:   handling,
		DeliveryDeadline:  r.DeliveryDeadline.UTC(),
	}, nil
}

// StatusChangeRequest необязательное место и комментарий к переходу.
type StatusChangeRequest struct {
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	Description string `json:"description,omitempty" binding:"max=500"`
}

type TrackingEventRequest struct {
	Event       string `form:"event" json:"event" binding:"required"`
	City        string `form:"city" json:"city"`
	Country     string `form:"country" json:"country"`
	Description string `form:"description" json:"description" binding:"max=500"`
}

type TrackingEventResponse struct {
	ID          uuid.UUID `json:"id"`
	Event       string    `json:"event"`
	City        string    `json:"city,omitempty"`
	Country     string    `json:"country,omitempty"`
	Description string    `json:"description,omitempty"`
	PhotoKeys   []string  `json:"photo_keys,omitempty"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type ParcelResponse struct {
	ID                uuid.UUID               `json:"id"`
	SenderID          uuid.UUID               `json:"sender_id"`
	Recipient         RecipientDTO            `json:"recipient"`
	Description       string                  `json:"description"`
	Category          string                  `json:"category"`
	Dimensions        DimensionsDTO           `json:"dimensions"`
	Weight            float64                 `json:"weight"`
	Volume            float64                 `json:"volume"`
	DeclaredValue     float64                 `json:"declared_value"`
	Currency          string                  `json:"currency"`
	InsuranceRequired bool                    `json:"insurance_required"`
	InsuranceAmount   *float64                `json:"insurance_amount,omitempty"`
	SpecialHandling   []string                `json:"special_handling"`
	DeliveryDeadline  time.Time               `json:"delivery_deadline"`
	Status            string                  `json:"status"`
	MatchedTravelID   *uuid.UUID              `json:"matched_travel_id,omitempty"`
	MatchedCarrierID  *uuid.UUID              `json:"matched_carrier_id,omitempty"`
	AgreedDeliveryFee *float64                `json:"agreed_delivery_fee,omitempty"`
	PlatformFee       *float64                `json:"platform_fee,omitempty"`
	TotalAmount       *float64                `json:"total_amount,omitempty"`
	PhotoKeys         []string                `json:"photo_keys"`
	TrackingEvents    []TrackingEventResponse `json:"tracking_events"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

func ToTrackingEventResponse(ev entity.TrackingEvent) TrackingEventResponse {
	return TrackingEventResponse{
		ID:          ev.ID,
		Event:       string(ev.Event),
		City:        ev.City,
		Country:     ev.Country,
		Description: ev.Description,
		PhotoKeys:   ev.PhotoKeys,
		CreatedBy:   ev.CreatedBy,
		CreatedAt:   ev.CreatedAt,
	}
}

func ToParcelResponse(p *entity.Parcel) ParcelResponse {
	resp := ParcelResponse{
		ID:       p.ID,
		SenderID: p.SenderID,
		Recipient: RecipientDTO{
			Name:        p.Recipient.Name,
			PhoneNumber: p.Recipient.PhoneNumber,
			Email:       p.Recipient.Email,
			Address:     FromAddress(p.Recipient.Address),
		},
		Description: p.Description,
		Category:    string(p.Category),
		Dimensions: DimensionsDTO{
			Length: p.Dimensions.Length,
			Width:  p.Dimensions.Width,
			Height: p.Dimensions.Height,
		},
		Weight:            p.Weight,
		Volume:            p.Volume,
		DeclaredValue:     p.DeclaredValue,
		Currency:          p.Currency,
		InsuranceRequired: p.InsuranceRequired,
		InsuranceAmount:   p.InsuranceAmount,
		SpecialHandling:   make([]string, 0, len(p.SpecialHandling)),
		DeliveryDeadline:  p.DeliveryDeadline,
		Status:            string(p.Status),
		MatchedTravelID:   p.MatchedTravelID,
		MatchedCarrierID:  p.MatchedCarrierID,
		AgreedDeliveryFee: p.AgreedDeliveryFee,
		PlatformFee:       p.PlatformFee,
		TotalAmount:       p.TotalAmount,
		PhotoKeys:         p.PhotoKeys,
		TrackingEvents:    make([]TrackingEventResponse, 0, len(p.TrackingEvents)),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if resp.PhotoKeys == nil {
		resp.PhotoKeys = []string{}
	}
	for _, h := range p.SpecialHandling {
		resp.SpecialHandling = append(resp.SpecialHandling, string(h))
	}
	for _, ev := range p.TrackingEvents {
		resp.TrackingEvents = append(resp.TrackingEvents, ToTrackingEventResponse(ev))
	}
	return resp
}

func ToParcelResponses(parcels []*entity.Parcel) []ParcelResponse {
	out := make([]ParcelResponse, 0, len(parcels))
	for _, p := range parcels {
		out = append(out, ToParcelResponse(p))
	}
	return out
}
