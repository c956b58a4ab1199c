package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

type Capacity struct {
	Weight float64
	Volume float64
}

// TravelTotals агрегаты по журналу бронирований поездки.
type TravelTotals struct {
	TotalParcels int
	TotalWeight  float64
	TotalValue   float64
}

type Travel struct {
	ID                uuid.UUID
	CarrierID         uuid.UUID
	Departure         valueobject.Location
	Arrival           valueobject.Location
	TravelMode        valueobject.TravelMode
	DepartureDate     time.Time
	ArrivalDate       time.Time
	AvailableCapacity Capacity
	BaseDeliveryFee   float64
	Currency          string
	Negotiable        bool
	Status            valueobject.TravelStatus
	Totals            TravelTotals
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type NewTravelParams struct {
	CarrierID         uuid.UUID
	Departure         valueobject.Location
	Arrival           valueobject.Location
	TravelMode        valueobject.TravelMode
	DepartureDate     time.Time
	ArrivalDate       time.Time
	AvailableCapacity Capacity
	BaseDeliveryFee   float64
	Currency          string
	Negotiable        bool
}

func NewTravel(p NewTravelParams, now time.Time) (*Travel, error) {
	if !p.DepartureDate.Before(p.ArrivalDate) {
		return nil, apperror.New(apperror.ErrCodeValidation, "дата отправления должна быть раньше даты прибытия")
	}
	if p.AvailableCapacity.Weight <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "доступная грузоподъёмность должна быть больше 0")
	}
	if p.AvailableCapacity.Volume < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "доступный объём не может быть отрицательным")
	}
	if p.BaseDeliveryFee < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "базовая плата не может быть отрицательной")
	}
	currency := p.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &Travel{
		ID:                uuid.New(),
		CarrierID:         p.CarrierID,
		Departure:         p.Departure,
		Arrival:           p.Arrival,
		TravelMode:        p.TravelMode,
		DepartureDate:     p.DepartureDate,
		ArrivalDate:       p.ArrivalDate,
		AvailableCapacity: p.AvailableCapacity,
		BaseDeliveryFee:   valueobject.RoundMoney(p.BaseDeliveryFee),
		Currency:          currency,
		Negotiable:        p.Negotiable,
		Status:            valueobject.TravelStatusPlanned,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func (t *Travel) ChangeStatus(to valueobject.TravelStatus, now time.Time) error {
	if !t.Status.CanTransitionTo(to) {
		return apperror.Newf(apperror.ErrCodeInvalidState,
			"переход поездки из статуса %s в %s недопустим", t.Status, to)
	}
	t.Status = to
	t.UpdatedAt = now
	return nil
}

func (t *Travel) IsOwnedBy(userID uuid.UUID) bool {
	return t.CarrierID == userID
}

func (t *Travel) IsBookable() bool {
	return t.Status.IsBookable()
}

// TravelBooking запись журнала: один принятый матч на поездке.
// Журнал только дополняется, итоги поездки считаются агрегацией по нему.
type TravelBooking struct {
	ID        uuid.UUID
	TravelID  uuid.UUID
	MatchID   uuid.UUID
	ParcelID  uuid.UUID
	Weight    float64
	Value     float64
	CreatedAt time.Time
}

func NewTravelBooking(m *Match, p *Parcel, now time.Time) *TravelBooking {
	return &TravelBooking{
		ID:        uuid.New(),
		TravelID:  m.TravelID,
		MatchID:   m.ID,
		ParcelID:  p.ID,
		Weight:    p.Weight,
		Value:     p.DeclaredValue,
		CreatedAt: now,
	}
}
