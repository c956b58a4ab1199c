package travel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

type UpdateTravelStatusUseCase struct {
	travelRepo repository.TravelRepository
	now        func() time.Time
}

func NewUpdateTravelStatusUseCase(travelRepo repository.TravelRepository, now func() time.Time) *UpdateTravelStatusUseCase {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &UpdateTravelStatusUseCase{travelRepo: travelRepo, now: now}
}

func (uc *UpdateTravelStatusUseCase) Execute(ctx context.Context, travelID, carrierID uuid.UUID, status valueobject.TravelStatus) (*entity.Travel, error) {
	travel, err := uc.travelRepo.FindByID(ctx, travelID)
	if err != nil {
		return nil, err
	}
	if !travel.IsOwnedBy(carrierID) {
		return nil, apperror.ErrForbidden
	}

	from := travel.Status
	if err := travel.ChangeStatus(status, uc.now()); err != nil {
		return nil, err
	}
	if err := uc.travelRepo.UpdateStatus(ctx, travel, from); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"travel_id": travel.ID,
		"from":      from,
		"to":        travel.Status,
	}).Info("статус поездки изменён")
	return travel, nil
}
