package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

type RatingFilter struct {
	ReviewedID *uuid.UUID
	ReviewerID *uuid.UUID
	ParcelID   *uuid.UUID
	MinRating  *int
	OnlyPublic bool
	Limit      int
	Offset     int
}

type RatingRepository interface {
	// Create возвращает ErrRatingExists при повторном отзыве.
	Create(ctx context.Context, rating *entity.Rating) error
	List(ctx context.Context, filter RatingFilter) ([]*entity.Rating, int, error)
}

// ReputationRepository агрегат отзывов и доставок. Отсутствующая запись
// означает пользователя без истории.
type ReputationRepository interface {
	AddReview(ctx context.Context, userID uuid.UUID, rating int) error
	AddDelivery(ctx context.Context, userID uuid.UUID, successful bool) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Reputation, error)
	FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*entity.Reputation, error)
}
