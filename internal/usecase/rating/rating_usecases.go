package rating

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/sirupsen/logrus"
)

type CreateRatingInput struct {
	ParcelID   uuid.UUID
	ReviewerID uuid.UUID
	Overall    int
	Detailed   entity.DetailedRatings
	Title      string
	Content    string
	IsPublic   bool
}

type CreateRatingUseCase struct {
	tx             repository.TxManager
	parcelRepo     repository.ParcelRepository
	ratingRepo     repository.RatingRepository
	reputationRepo repository.ReputationRepository
	now            func() time.Time
}

func NewCreateRatingUseCase(
	tx repository.TxManager,
	parcelRepo repository.ParcelRepository,
	ratingRepo repository.RatingRepository,
	reputationRepo repository.ReputationRepository,
	now func() time.Time,
) *CreateRatingUseCase {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &CreateRatingUseCase{
		tx:             tx,
		parcelRepo:     parcelRepo,
		ratingRepo:     ratingRepo,
		reputationRepo: reputationRepo,
		now:            now,
	}
}

// Execute отзыв и прирост агрегата репутации пишутся в одной транзакции.
func (uc *CreateRatingUseCase) Execute(ctx context.Context, input CreateRatingInput) (*entity.Rating, error) {
	parcel, err := uc.parcelRepo.FindByID(ctx, input.ParcelID)
	if err != nil {
		return nil, err
	}
	rating, err := entity.NewRating(entity.NewRatingParams{
		Parcel:     parcel,
		ReviewerID: input.ReviewerID,
		Overall:    input.Overall,
		Detailed:   input.Detailed,
		Title:      input.Title,
		Content:    input.Content,
		IsPublic:   input.IsPublic,
	}, uc.now())
	if err != nil {
		return nil, err
	}

	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.ratingRepo.Create(ctx, rating); err != nil {
			return err
		}
		return uc.reputationRepo.AddReview(ctx, rating.ReviewedID, rating.Overall)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"rating_id":   rating.ID,
		"parcel_id":   rating.ParcelID,
		"reviewed_id": rating.ReviewedID,
		"type":        rating.Type,
	}).Info("отзыв опубликован")
	return rating, nil
}

type ListRatingsInput struct {
	ReviewedID *uuid.UUID
	ReviewerID *uuid.UUID
	ParcelID   *uuid.UUID
	MinRating  *int
	// IncludePrivate скрытые отзывы видны только автору и адресату.
	IncludePrivate bool
	Page           int
	Limit          int
}

type ListRatingsUseCase struct {
	ratingRepo repository.RatingRepository
}

func NewListRatingsUseCase(ratingRepo repository.RatingRepository) *ListRatingsUseCase {
	return &ListRatingsUseCase{ratingRepo: ratingRepo}
}

func (uc *ListRatingsUseCase) Execute(ctx context.Context, input ListRatingsInput) ([]*entity.Rating, int, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 20
	}
	return uc.ratingRepo.List(ctx, repository.RatingFilter{
		ReviewedID: input.ReviewedID,
		ReviewerID: input.ReviewerID,
		ParcelID:   input.ParcelID,
		MinRating:  input.MinRating,
		OnlyPublic: !input.IncludePrivate,
		Limit:      input.Limit,
		Offset:     (input.Page - 1) * input.Limit,
	})
}
