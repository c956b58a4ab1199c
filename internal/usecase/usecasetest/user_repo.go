package usecasetest

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

type UserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*entity.User)}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperror.ErrEmailAlreadyExists
		}
	}
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, apperror.ErrUserNotFound
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, apperror.ErrUserNotFound
}

type RatingRepository struct {
	mu      sync.Mutex
	ratings []*entity.Rating
}

func NewRatingRepository() *RatingRepository {
	return &RatingRepository{}
}

func (r *RatingRepository) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := append([]*entity.Rating(nil), r.ratings...)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.ratings = saved
	}
}

func (r *RatingRepository) Create(ctx context.Context, rating *entity.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.ratings {
		if existing.ParcelID == rating.ParcelID && existing.ReviewerID == rating.ReviewerID && existing.Type == rating.Type {
			return apperror.ErrRatingExists
		}
	}
	c := *rating
	r.ratings = append(r.ratings, &c)
	return nil
}

func (r *RatingRepository) List(ctx context.Context, f repository.RatingFilter) ([]*entity.Rating, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Rating
	for _, rating := range r.ratings {
		switch {
		case f.ReviewedID != nil && rating.ReviewedID != *f.ReviewedID,
			f.ReviewerID != nil && rating.ReviewerID != *f.ReviewerID,
			f.ParcelID != nil && rating.ParcelID != *f.ParcelID,
			f.MinRating != nil && rating.Overall < *f.MinRating,
			f.OnlyPublic && !rating.IsPublic:
			continue
		}
		c := *rating
		result = append(result, &c)
	}
	return paginate(result, f.Offset, f.Limit), len(result), nil
}

type ReputationRepository struct {
	mu   sync.Mutex
	reps map[uuid.UUID]*entity.Reputation
}

func NewReputationRepository() *ReputationRepository {
	return &ReputationRepository{reps: make(map[uuid.UUID]*entity.Reputation)}
}

func (r *ReputationRepository) Put(rep *entity.Reputation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *rep
	r.reps[rep.UserID] = &c
}

func (r *ReputationRepository) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[uuid.UUID]*entity.Reputation, len(r.reps))
	for id, rep := range r.reps {
		c := *rep
		saved[id] = &c
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.reps = saved
	}
}

func (r *ReputationRepository) row(userID uuid.UUID) *entity.Reputation {
	rep, ok := r.reps[userID]
	if !ok {
		rep = &entity.Reputation{UserID: userID}
		r.reps[userID] = rep
	}
	return rep
}

func (r *ReputationRepository) AddReview(ctx context.Context, userID uuid.UUID, rating int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep := r.row(userID)
	rep.RatingSum += float64(rating)
	rep.TotalReviews++
	return nil
}

func (r *ReputationRepository) AddDelivery(ctx context.Context, userID uuid.UUID, successful bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep := r.row(userID)
	rep.CompletedDeliveries++
	if successful {
		rep.SuccessfulDeliveries++
	}
	return nil
}

func (r *ReputationRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Reputation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rep, ok := r.reps[userID]; ok {
		c := *rep
		return &c, nil
	}
	return nil, nil
}

func (r *ReputationRepository) FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*entity.Reputation, error) {
	result := make(map[uuid.UUID]*entity.Reputation, len(userIDs))
	for _, id := range userIDs {
		rep, _ := r.FindByUserID(ctx, id)
		if rep != nil {
			result[id] = rep
		}
	}
	return result, nil
}
