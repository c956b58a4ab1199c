package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

// TravelFilter условия поиска поездок. Пустые поля не участвуют в отборе.
type TravelFilter struct {
	CarrierID        *uuid.UUID
	Statuses         []valueobject.TravelStatus
	DepartureCity    string
	DepartureCountry string
	ArrivalCity      string
	ArrivalCountry   string
	TravelMode       *valueobject.TravelMode
	MinWeight        float64
	MinVolume        float64
	MaxFee           *float64
	MinRating        *float64
	DepartureFrom    *time.Time
	DepartureTo      *time.Time
	ArrivalBy        *time.Time
	// ByRating сортировка по рейтингу перевозчика, иначе по дате отправления.
	ByRating bool
	Limit    int
	Offset   int
}

type TravelRepository interface {
	Create(ctx context.Context, travel *entity.Travel) error
	UpdateStatus(ctx context.Context, travel *entity.Travel, from valueobject.TravelStatus) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Travel, error)
	Search(ctx context.Context, filter TravelFilter) ([]*entity.Travel, int, error)
}

// BookingRepository журнал бронирований поездок.
type BookingRepository interface {
	Create(ctx context.Context, booking *entity.TravelBooking) error
	Totals(ctx context.Context, travelID uuid.UUID) (entity.TravelTotals, error)
	TotalsFor(ctx context.Context, travelIDs []uuid.UUID) (map[uuid.UUID]entity.TravelTotals, error)
}
