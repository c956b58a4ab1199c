package usecasetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

type MatchRepository struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*entity.Match
	Writes  int
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{matches: make(map[uuid.UUID]*entity.Match)}
}

// Put кладёт матч в хранилище без проверок.
func (r *MatchRepository) Put(m *entity.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[m.ID] = cloneMatch(m)
}

// Stored возвращает копию сохранённого матча или nil.
func (r *MatchRepository) Stored(id uuid.UUID) *entity.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.matches[id]; ok {
		return cloneMatch(m)
	}
	return nil
}

func (r *MatchRepository) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[uuid.UUID]*entity.Match, len(r.matches))
	for id, m := range r.matches {
		saved[id] = cloneMatch(m)
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.matches = saved
	}
}

func (r *MatchRepository) Create(ctx context.Context, m *entity.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.matches {
		if existing.ParcelID == m.ParcelID && existing.TravelID == m.TravelID && existing.Status.IsActive() {
			return apperror.ErrActiveMatchExists
		}
	}
	r.matches[m.ID] = cloneMatch(m)
	r.Writes++
	return nil
}

func (r *MatchRepository) Update(ctx context.Context, m *entity.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.matches[m.ID]
	if !ok {
		return apperror.ErrMatchNotFound
	}
	if stored.Version != m.Version {
		return apperror.ErrConcurrentUpdate
	}
	m.Version++
	r.matches[m.ID] = cloneMatch(m)
	r.Writes++
	return nil
}

func (r *MatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Match, error) {
	if m := r.Stored(id); m != nil {
		return m, nil
	}
	return nil, apperror.ErrMatchNotFound
}

func (r *MatchRepository) FindActiveByPair(ctx context.Context, parcelID, travelID uuid.UUID) (*entity.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.ParcelID == parcelID && m.TravelID == travelID && m.Status.IsActive() {
			return cloneMatch(m), nil
		}
	}
	return nil, nil
}

func (r *MatchRepository) List(ctx context.Context, f repository.MatchFilter) ([]*entity.Match, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Match
	for _, m := range r.matches {
		if !matchFits(m, f) {
			continue
		}
		result = append(result, cloneMatch(m))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score.Total != result[j].Score.Total {
			return result[i].Score.Total > result[j].Score.Total
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	total := len(result)
	return paginate(result, f.Offset, f.Limit), total, nil
}

func matchFits(m *entity.Match, f repository.MatchFilter) bool {
	switch {
	case f.ParcelID != nil && m.ParcelID != *f.ParcelID,
		f.TravelID != nil && m.TravelID != *f.TravelID,
		f.SenderID != nil && m.SenderID != *f.SenderID,
		f.CarrierID != nil && m.CarrierID != *f.CarrierID,
		f.PartyID != nil && !m.IsParty(*f.PartyID),
		f.MinScore != nil && m.Score.Total < *f.MinScore,
		f.Status != nil && m.EffectiveStatus(f.Now) != *f.Status:
		return false
	}
	if f.MaxFee != nil && (m.Negotiation.FinalFee == nil || *m.Negotiation.FinalFee > *f.MaxFee) {
		return false
	}
	return true
}

func (r *MatchRepository) ExpireStale(ctx context.Context, parcelID, travelID uuid.UUID, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.matches {
		if m.ParcelID == parcelID && m.TravelID == travelID && m.Expire(now) {
			m.Version++
			n++
		}
	}
	return n, nil
}

func (r *MatchRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*entity.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Match
	for _, m := range r.matches {
		if m.Status == valueobject.MatchStatusProposed && m.IsExpired(now) {
			result = append(result, cloneMatch(m))
		}
	}
	return paginate(result, 0, limit), nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
