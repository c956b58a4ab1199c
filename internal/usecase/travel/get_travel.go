package travel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

type GetTravelUseCase struct {
	travelRepo  repository.TravelRepository
	bookingRepo repository.BookingRepository
}

func NewGetTravelUseCase(travelRepo repository.TravelRepository, bookingRepo repository.BookingRepository) *GetTravelUseCase {
	return &GetTravelUseCase{travelRepo: travelRepo, bookingRepo: bookingRepo}
}

// Execute итоги поездки считаются по журналу бронирований.
func (uc *GetTravelUseCase) Execute(ctx context.Context, travelID uuid.UUID) (*entity.Travel, error) {
	travel, err := uc.travelRepo.FindByID(ctx, travelID)
	if err != nil {
		return nil, err
	}
	totals, err := uc.bookingRepo.Totals(ctx, travel.ID)
	if err != nil {
		return nil, err
	}
	travel.Totals = totals
	return travel, nil
}

type ListTravelsInput struct {
	CarrierID        *uuid.UUID
	Status           *valueobject.TravelStatus
	DepartureCity    string
	DepartureCountry string
	ArrivalCity      string
	ArrivalCountry   string
	TravelMode       *valueobject.TravelMode
	MinCapacity      float64
	MaxFee           *float64
	DepartureFrom    *time.Time
	ArrivalBy        *time.Time
	Page             int
	Limit            int
}

type ListTravelsUseCase struct {
	travelRepo  repository.TravelRepository
	bookingRepo repository.BookingRepository
}

func NewListTravelsUseCase(travelRepo repository.TravelRepository, bookingRepo repository.BookingRepository) *ListTravelsUseCase {
	return &ListTravelsUseCase{travelRepo: travelRepo, bookingRepo: bookingRepo}
}

func (uc *ListTravelsUseCase) Execute(ctx context.Context, input ListTravelsInput) ([]*entity.Travel, int, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 20
	}
	filter := repository.TravelFilter{
		CarrierID:        input.CarrierID,
		DepartureCity:    input.DepartureCity,
		DepartureCountry: input.DepartureCountry,
		ArrivalCity:      input.ArrivalCity,
		ArrivalCountry:   input.ArrivalCountry,
		TravelMode:       input.TravelMode,
		MinWeight:        input.MinCapacity,
		MaxFee:           input.MaxFee,
		DepartureFrom:    input.DepartureFrom,
		ArrivalBy:        input.ArrivalBy,
		Limit:            input.Limit,
		Offset:           (input.Page - 1) * input.Limit,
	}
	if input.Status != nil {
		filter.Statuses = []valueobject.TravelStatus{*input.Status}
	}

	travels, total, err := uc.travelRepo.Search(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if len(travels) == 0 {
		return travels, total, nil
	}

	ids := make([]uuid.UUID, 0, len(travels))
	for _, t := range travels {
		ids = append(ids, t.ID)
	}
	totals, err := uc.bookingRepo.TotalsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, t := range travels {
		t.Totals = totals[t.ID]
	}
	return travels, total, nil
}
