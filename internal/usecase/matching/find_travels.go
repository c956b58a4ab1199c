package matching

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

type TravelCriteria struct {
	DepartureCity    string
	DepartureCountry string
	ArrivalCity      string
	ArrivalCountry   string
	Weight           float64
	Volume           float64
	MaxFee           *float64
	TravelMode       *valueobject.TravelMode
	DeliveryDeadline *time.Time
	Page             int
	Limit            int
}

type TravelListing struct {
	Travel               *entity.Travel
	Carrier              *entity.Reputation
	EstimatedDeliveryFee float64
}

type FindTravelsUseCase struct {
	travelRepo     repository.TravelRepository
	reputationRepo repository.ReputationRepository
}

func NewFindTravelsUseCase(travelRepo repository.TravelRepository, reputationRepo repository.ReputationRepository) *FindTravelsUseCase {
	return &FindTravelsUseCase{travelRepo: travelRepo, reputationRepo: reputationRepo}
}

// Execute поиск открытых поездок по критериям, лучшие перевозчики первыми.
func (uc *FindTravelsUseCase) Execute(ctx context.Context, c TravelCriteria) ([]TravelListing, int, error) {
	if c.Page < 1 {
		c.Page = 1
	}
	if c.Limit <= 0 || c.Limit > 100 {
		c.Limit = 20
	}
	travels, total, err := uc.travelRepo.Search(ctx, repository.TravelFilter{
		Statuses:         []valueobject.TravelStatus{valueobject.TravelStatusPlanned, valueobject.TravelStatusConfirmed},
		DepartureCity:    c.DepartureCity,
		DepartureCountry: c.DepartureCountry,
		ArrivalCity:      c.ArrivalCity,
		ArrivalCountry:   c.ArrivalCountry,
		MinWeight:        c.Weight,
		MinVolume:        c.Volume,
		MaxFee:           c.MaxFee,
		TravelMode:       c.TravelMode,
		ArrivalBy:        c.DeliveryDeadline,
		ByRating:         true,
		Limit:            c.Limit,
		Offset:           (c.Page - 1) * c.Limit,
	})
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, 0, len(travels))
	for _, t := range travels {
		ids = append(ids, t.CarrierID)
	}
	reps, err := uc.reputationRepo.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	listings := make([]TravelListing, len(travels))
	for i, t := range travels {
		listings[i] = TravelListing{
			Travel:               t,
			Carrier:              reps[t.CarrierID],
			EstimatedDeliveryFee: t.BaseDeliveryFee,
		}
	}
	return listings, total, nil
}
