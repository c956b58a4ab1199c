package travel

import (
	"context"
	"time"

	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/sirupsen/logrus"
)

type CreateTravelUseCase struct {
	travelRepo repository.TravelRepository
	now        func() time.Time
}

func NewCreateTravelUseCase(travelRepo repository.TravelRepository, now func() time.Time) *CreateTravelUseCase {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &CreateTravelUseCase{travelRepo: travelRepo, now: now}
}

func (uc *CreateTravelUseCase) Execute(ctx context.Context, params entity.NewTravelParams) (*entity.Travel, error) {
	travel, err := entity.NewTravel(params, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.travelRepo.Create(ctx, travel); err != nil {
		return nil, err
	}
	logger.Log.WithFields(logrus.Fields{
		"travel_id":  travel.ID,
		"carrier_id": travel.CarrierID,
	}).Info("поездка создана")
	return travel, nil
}
