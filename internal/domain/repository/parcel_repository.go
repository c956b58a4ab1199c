package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

type ParcelFilter struct {
	SenderID  *uuid.UUID
	CarrierID *uuid.UUID
	Status    *valueobject.ParcelStatus
	Category  *valueobject.ParcelCategory
	Limit     int
	Offset    int
}

type ParcelRepository interface {
	Create(ctx context.Context, parcel *entity.Parcel) error
	// UpdateStatus переводит посылку в новый статус, только если текущий
	// статус в базе равен from. Иначе ErrConcurrentUpdate.
	UpdateStatus(ctx context.Context, parcel *entity.Parcel, from valueobject.ParcelStatus) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Parcel, error)
	List(ctx context.Context, filter ParcelFilter) ([]*entity.Parcel, int, error)
	AddTrackingEvent(ctx context.Context, event *entity.TrackingEvent) error
	AddPhoto(ctx context.Context, parcelID uuid.UUID, key string) error
}
