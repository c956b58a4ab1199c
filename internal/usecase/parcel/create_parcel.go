package parcel

import (
	"context"
	"time"

	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/ignatzorin/crowdship-backend/internal/validation"
)

type CreateParcelUseCase struct {
	parcelRepo repository.ParcelRepository
	now        func() time.Time
}

func NewCreateParcelUseCase(parcelRepo repository.ParcelRepository, now func() time.Time) *CreateParcelUseCase {
	return &CreateParcelUseCase{parcelRepo: parcelRepo, now: nowOrDefault(now)}
}

func (uc *CreateParcelUseCase) Execute(ctx context.Context, params entity.NewParcelParams) (*entity.Parcel, error) {
	if err := validateRecipient(params.Recipient); err != nil {
		return nil, err
	}
	parcel, err := entity.NewParcel(params, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.parcelRepo.Create(ctx, parcel); err != nil {
		return nil, err
	}
	logger.Log.WithField("parcel_id", parcel.ID).Info("посылка создана")
	return parcel, nil
}

func validateRecipient(r entity.Recipient) error {
	if err := validation.ValidatePhone(r.PhoneNumber); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if r.Email != "" {
		if err := validation.ValidateEmail(r.Email); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	return nil
}

func nowOrDefault(now func() time.Time) func() time.Time {
	if now != nil {
		return now
	}
	return func() time.Time { return time.Now().UTC() }
}
