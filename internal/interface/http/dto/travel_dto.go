package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

type CapacityDTO struct {
	Weight float64 `json:"weight" binding:"gt=0"`
	Volume float64 `json:"volume" binding:"gte=0"`
}

type CreateTravelRequest struct {
	Departure         LocationDTO `json:"departure" binding:"required"`
	Arrival           LocationDTO `json:"arrival" binding:"required"`
	TravelMode        string      `json:"travel_mode" binding:"required"`
	DepartureDate     time.Time   `json:"departure_date" binding:"required"`
	ArrivalDate       time.Time   `json:"arrival_date" binding:"required"`
	AvailableCapacity CapacityDTO `json:"available_capacity" binding:"required"`
	BaseDeliveryFee   float64     `json:"base_delivery_fee" binding:"gte=0"`
	Currency          string      `json:"currency,omitempty" binding:"omitempty,len=3"`
	Negotiable        bool        `json:"negotiable"`
}

func (r CreateTravelRequest) ToParams(carrierID uuid.UUID) (entity.NewTravelParams, error) {
	mode, err := valueobject.NewTravelMode(r.TravelMode)
	if err != nil {
		return entity.NewTravelParams{}, err
	}
	departure, err := r.Departure.ToLocation()
	if err != nil {
		return entity.NewTravelParams{}, err
	}
	arrival, err := r.Arrival.ToLocation()
	if err != nil {
		return entity.NewTravelParams{}, err
	}
	return entity.NewTravelParams{
		CarrierID:     carrierID,
		Departure:     departure,
		Arrival:       arrival,
		TravelMode:    mode,
		DepartureDate: r.DepartureDate.UTC(),
		ArrivalDate:   r.ArrivalDate.UTC(),
		AvailableCapacity: entity.Capacity{
			Weight: r.AvailableCapacity.Weight,
			Volume: r.AvailableCapacity.Volume,
		},
		BaseDeliveryFee: r.BaseDeliveryFee,
		Currency:        r.Currency,
		Negotiable:      r.Negotiable,
	}, nil
}

type UpdateTravelStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type TravelTotalsDTO struct {
	TotalParcels int     `json:"total_parcels"`
	TotalWeight  float64 `json:"total_weight"`
	TotalValue   float64 `json:"total_value"`
}

type TravelResponse struct {
	ID                uuid.UUID       `json:"id"`
	CarrierID         uuid.UUID       `json:"carrier_id"`
	Departure         LocationDTO     `json:"departure"`
	Arrival           LocationDTO     `json:"arrival"`
	TravelMode        string          `json:"travel_mode"`
	DepartureDate     time.Time       `json:"departure_date"`
	ArrivalDate       time.Time       `json:"arrival_date"`
	AvailableCapacity CapacityDTO     `json:"available_capacity"`
	BaseDeliveryFee   float64         `json:"base_delivery_fee"`
	Currency          string          `json:"currency"`
	Negotiable        bool            `json:"negotiable"`
	Status            string          `json:"status"`
	Totals            TravelTotalsDTO `json:"totals"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func ToTravelResponse(t *entity.Travel) TravelResponse {
	return TravelResponse{
		ID:            t.ID,
		CarrierID:     t.CarrierID,
		Departure:     FromLocation(t.Departure),
		Arrival:       FromLocation(t.Arrival),
		TravelMode:    string(t.TravelMode),
		DepartureDate: t.DepartureDate,
		ArrivalDate:   t.ArrivalDate,
		AvailableCapacity: CapacityDTO{
			Weight: t.AvailableCapacity.Weight,
			Volume: t.AvailableCapacity.Volume,
		},
		BaseDeliveryFee: t.BaseDeliveryFee,
		Currency:        t.Currency,
		Negotiable:      t.Negotiable,
		Status:          string(t.Status),
		Totals: TravelTotalsDTO{
			TotalParcels: t.Totals.TotalParcels,
			TotalWeight:  t.Totals.TotalWeight,
			TotalValue:   t.Totals.TotalValue,
		},
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func ToTravelResponses(travels []*entity.Travel) []TravelResponse {
	out := make([]TravelResponse, 0, len(travels))
	for _, t := range travels {
		out = append(out, ToTravelResponse(t))
	}
	return out
}
