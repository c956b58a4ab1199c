package parcel

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

type GetParcelUseCase struct {
	parcelRepo repository.ParcelRepository
}

func NewGetParcelUseCase(parcelRepo repository.ParcelRepository) *GetParcelUseCase {
	return &GetParcelUseCase{parcelRepo: parcelRepo}
}

// Execute ожидающие посылки видны всем перевозчикам, остальные только участникам.
func (uc *GetParcelUseCase) Execute(ctx context.Context, parcelID, actorID uuid.UUID, isAdmin bool) (*entity.Parcel, error) {
	parcel, err := uc.parcelRepo.FindByID(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	if isAdmin || parcel.Status == valueobject.ParcelStatusPending ||
		parcel.IsOwnedBy(actorID) || parcel.IsCarriedBy(actorID) {
		return parcel, nil
	}
	return nil, apperror.ErrForbidden
}

type ListParcelsInput struct {
	ActorID   uuid.UUID
	IsAdmin   bool
	AsCarrier bool
	Status    *valueobject.ParcelStatus
	Category  *valueobject.ParcelCategory
	Page      int
	Limit     int
}

type ListParcelsUseCase struct {
	parcelRepo repository.ParcelRepository
}

func NewListParcelsUseCase(parcelRepo repository.ParcelRepository) *ListParcelsUseCase {
	return &ListParcelsUseCase{parcelRepo: parcelRepo}
}

func (uc *ListParcelsUseCase) Execute(ctx context.Context, input ListParcelsInput) ([]*entity.Parcel, int, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 20
	}
	filter := repository.ParcelFilter{
		Status:   input.Status,
		Category: input.Category,
		Limit:    input.Limit,
		Offset:   (input.Page - 1) * input.Limit,
	}
	switch {
	case input.IsAdmin:
	case input.AsCarrier:
		filter.CarrierID = &input.ActorID
	default:
		filter.SenderID = &input.ActorID
	}
	return uc.parcelRepo.List(ctx, filter)
}
