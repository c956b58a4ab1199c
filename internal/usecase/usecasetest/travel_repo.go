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

type TravelRepository struct {
	mu      sync.Mutex
	travels map[uuid.UUID]*entity.Travel
	// Ratings средний рейтинг перевозчика для сортировки и фильтра MinRating.
	Ratings    map[uuid.UUID]float64
	LastFilter repository.TravelFilter
}

func NewTravelRepository() *TravelRepository {
	return &TravelRepository{
		travels: make(map[uuid.UUID]*entity.Travel),
		Ratings: make(map[uuid.UUID]float64),
	}
}

func (r *TravelRepository) Put(t *entity.Travel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.travels[t.ID] = cloneTravel(t)
}

func (r *TravelRepository) Create(ctx context.Context, t *entity.Travel) error {
	r.Put(t)
	return nil
}

func (r *TravelRepository) UpdateStatus(ctx context.Context, t *entity.Travel, from valueobject.TravelStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.travels[t.ID]
	if !ok {
		return apperror.ErrTravelNotFound
	}
	if stored.Status != from {
		return apperror.ErrConcurrentUpdate
	}
	r.travels[t.ID] = cloneTravel(t)
	return nil
}

func (r *TravelRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Travel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.travels[id]; ok {
		return cloneTravel(t), nil
	}
	return nil, apperror.ErrTravelNotFound
}

func (r *TravelRepository) Search(ctx context.Context, f repository.TravelFilter) ([]*entity.Travel, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.LastFilter = f

	var result []*entity.Travel
	for _, t := range r.travels {
		if r.fits(t, f) {
			result = append(result, cloneTravel(t))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if f.ByRating {
			ri, rj := r.Ratings[result[i].CarrierID], r.Ratings[result[j].CarrierID]
			if ri != rj {
				return ri > rj
			}
		}
		return result[i].DepartureDate.Before(result[j].DepartureDate)
	})
	return paginate(result, f.Offset, f.Limit), len(result), nil
}

func (r *TravelRepository) fits(t *entity.Travel, f repository.TravelFilter) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			found = found || t.Status == s
		}
		if !found {
			return false
		}
	}
	switch {
	case f.CarrierID != nil && t.CarrierID != *f.CarrierID,
		f.DepartureCity != "" && t.Departure.City != f.DepartureCity,
		f.DepartureCountry != "" && t.Departure.Country != f.DepartureCountry,
		f.ArrivalCity != "" && t.Arrival.City != f.ArrivalCity,
		f.ArrivalCountry != "" && t.Arrival.Country != f.ArrivalCountry,
		f.TravelMode != nil && t.TravelMode != *f.TravelMode,
		t.AvailableCapacity.Weight < f.MinWeight,
		t.AvailableCapacity.Volume < f.MinVolume,
		f.MaxFee != nil && t.BaseDeliveryFee > *f.MaxFee,
		f.MinRating != nil && r.Ratings[t.CarrierID] < *f.MinRating,
		f.DepartureFrom != nil && t.DepartureDate.Before(*f.DepartureFrom),
		f.DepartureTo != nil && t.DepartureDate.After(*f.DepartureTo),
		f.ArrivalBy != nil && t.ArrivalDate.After(*f.ArrivalBy):
		return false
	}
	return true
}

type BookingRepository struct {
	mu       sync.Mutex
	bookings []*entity.TravelBooking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{}
}

func (r *BookingRepository) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := append([]*entity.TravelBooking(nil), r.bookings...)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.bookings = saved
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *entity.TravelBooking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.bookings {
		if existing.MatchID == b.MatchID {
			return apperror.New(apperror.ErrCodeConflict, "бронирование по матчу уже есть")
		}
	}
	c := *b
	r.bookings = append(r.bookings, &c)
	return nil
}

func (r *BookingRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

func (r *BookingRepository) Totals(ctx context.Context, travelID uuid.UUID) (entity.TravelTotals, error) {
	totals, _ := r.TotalsFor(ctx, []uuid.UUID{travelID})
	return totals[travelID], nil
}

func (r *BookingRepository) TotalsFor(ctx context.Context, travelIDs []uuid.UUID) (map[uuid.UUID]entity.TravelTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[uuid.UUID]entity.TravelTotals, len(travelIDs))
	for _, id := range travelIDs {
		var t entity.TravelTotals
		for _, b := range r.bookings {
			if b.TravelID == id {
				t.TotalParcels++
				t.TotalWeight += b.Weight
				t.TotalValue += b.Value
			}
		}
		result[id] = t
	}
	return result, nil
}
