package parcel

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

// Upload загружаемый файл.
type Upload struct {
	Reader io.Reader
	Size   int64
}

type AddTrackingEventInput struct {
	ParcelID    uuid.UUID
	ActorID     uuid.UUID
	Event       valueobject.TrackingEventType
	City        string
	Country     string
	Description string
	Photo       *Upload
}

type AddTrackingEventUseCase struct {
	parcelRepo repository.ParcelRepository
	storage    repository.PhotoStorage
	now        func() time.Time
}

func NewAddTrackingEventUseCase(parcelRepo repository.ParcelRepository, storage repository.PhotoStorage, now func() time.Time) *AddTrackingEventUseCase {
	return &AddTrackingEventUseCase{parcelRepo: parcelRepo, storage: storage, now: nowOrDefault(now)}
}

// Execute событие отслеживания от перевозчика. Статус посылки не меняется:
// для переходов есть отдельные операции.
func (uc *AddTrackingEventUseCase) Execute(ctx context.Context, input AddTrackingEventInput) (*entity.TrackingEvent, error) {
	parcel, err := uc.parcelRepo.FindByID(ctx, input.ParcelID)
	if err != nil {
		return nil, err
	}
	if !parcel.IsCarriedBy(input.ActorID) {
		return nil, apperror.ErrForbidden
	}
	if parcel.Status != valueobject.ParcelStatusMatched && parcel.Status != valueobject.ParcelStatusInTransit {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "события отслеживания доступны только для посылки в пути")
	}

	ev := parcel.NewTrackingEvent(input.Event, input.City, input.Country, input.Description, input.ActorID, uc.now())
	if input.Photo != nil {
		key, err := uc.storage.Save(ctx, "tracking/"+parcel.ID.String(), input.Photo.Reader, input.Photo.Size)
		if err != nil {
			return nil, err
		}
		ev.PhotoKeys = []string{key}
	}
	if err := uc.parcelRepo.AddTrackingEvent(ctx, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

type UploadPhotoUseCase struct {
	parcelRepo repository.ParcelRepository
	storage    repository.PhotoStorage
}

func NewUploadPhotoUseCase(parcelRepo repository.ParcelRepository, storage repository.PhotoStorage) *UploadPhotoUseCase {
	return &UploadPhotoUseCase{parcelRepo: parcelRepo, storage: storage}
}

// Execute сохраняет фото посылки и возвращает ссылку на него.
func (uc *UploadPhotoUseCase) Execute(ctx context.Context, parcelID, actorID uuid.UUID, photo Upload) (string, error) {
	parcel, err := uc.parcelRepo.FindByID(ctx, parcelID)
	if err != nil {
		return "", err
	}
	if !parcel.IsOwnedBy(actorID) {
		return "", apperror.ErrForbidden
	}
	if parcel.Status.IsTerminal() {
		return "", apperror.New(apperror.ErrCodeInvalidState, "посылка уже закрыта")
	}

	key, err := uc.storage.Save(ctx, "parcels/"+parcel.ID.String(), photo.Reader, photo.Size)
	if err != nil {
		return "", err
	}
	if err := uc.parcelRepo.AddPhoto(ctx, parcel.ID, key); err != nil {
		return "", err
	}
	return uc.storage.URL(ctx, key)
}
