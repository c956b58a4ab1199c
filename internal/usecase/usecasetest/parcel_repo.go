package usecasetest

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

type ParcelRepository struct {
	mu      sync.Mutex
	parcels map[uuid.UUID]*entity.Parcel
	Writes  int
}

func NewParcelRepository() *ParcelRepository {
	return &ParcelRepository{parcels: make(map[uuid.UUID]*entity.Parcel)}
}

func (r *ParcelRepository) Put(p *entity.Parcel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parcels[p.ID] = cloneParcel(p)
}

func (r *ParcelRepository) Stored(id uuid.UUID) *entity.Parcel {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.parcels[id]; ok {
		return cloneParcel(p)
	}
	return nil
}

func (r *ParcelRepository) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[uuid.UUID]*entity.Parcel, len(r.parcels))
	for id, p := range r.parcels {
		saved[id] = cloneParcel(p)
	}
	writes := r.Writes
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.parcels = saved
		r.Writes = writes
	}
}

func (r *ParcelRepository) Create(ctx context.Context, p *entity.Parcel) error {
	r.Put(p)
	r.mu.Lock()
	r.Writes++
	r.mu.Unlock()
	return nil
}

func (r *ParcelRepository) UpdateStatus(ctx context.Context, p *entity.Parcel, from valueobject.ParcelStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.parcels[p.ID]
	if !ok {
		return apperror.ErrParcelNotFound
	}
	if stored.Status != from {
		return apperror.ErrConcurrentUpdate
	}
	events := stored.TrackingEvents
	c := cloneParcel(p)
	c.TrackingEvents = events
	r.parcels[p.ID] = c
	r.Writes++
	return nil
}

func (r *ParcelRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Parcel, error) {
	if p := r.Stored(id); p != nil {
		return p, nil
	}
	return nil, apperror.ErrParcelNotFound
}

func (r *ParcelRepository) List(ctx context.Context, f repository.ParcelFilter) ([]*entity.Parcel, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Parcel
	for _, p := range r.parcels {
		switch {
		case f.SenderID != nil && p.SenderID != *f.SenderID,
			f.CarrierID != nil && !p.IsCarriedBy(*f.CarrierID),
			f.Status != nil && p.Status != *f.Status,
			f.Category != nil && p.Category != *f.Category:
			continue
		}
		result = append(result, cloneParcel(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return paginate(result, f.Offset, f.Limit), len(result), nil
}

func (r *ParcelRepository) AddTrackingEvent(ctx context.Context, ev *entity.TrackingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parcels[ev.ParcelID]
	if !ok {
		return apperror.ErrParcelNotFound
	}
	p.TrackingEvents = append(p.TrackingEvents, *ev)
	r.Writes++
	return nil
}

func (r *ParcelRepository) AddPhoto(ctx context.Context, parcelID uuid.UUID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parcels[parcelID]
	if !ok {
		return apperror.ErrParcelNotFound
	}
	p.PhotoKeys = append(p.PhotoKeys, key)
	r.Writes++
	return nil
}
