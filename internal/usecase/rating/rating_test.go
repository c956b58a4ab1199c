package rating_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/rating"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/usecasetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Silence()
}

var start = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

type env struct {
	parcels *usecasetest.ParcelRepository
	ratings *usecasetest.RatingRepository
	reps    *usecasetest.ReputationRepository
	tx      *usecasetest.TxManager
	create  *rating.CreateRatingUseCase
	parcel  *entity.Parcel
	carrier uuid.UUID
}

func newEnv(status valueobject.ParcelStatus) *env {
	e := &env{
		parcels: usecasetest.NewParcelRepository(),
		ratings: usecasetest.NewRatingRepository(),
		reps:    usecasetest.NewReputationRepository(),
		carrier: uuid.New(),
	}
	e.tx = usecasetest.NewTxManager(e.ratings, e.reps)
	e.create = rating.NewCreateRatingUseCase(e.tx, e.parcels, e.ratings, e.reps, usecasetest.NewClock(start).Now)

	e.parcel = usecasetest.Parcel(uuid.New(), start)
	e.parcel.Status = status
	e.parcel.MatchedCarrierID = &e.carrier
	e.parcels.Put(e.parcel)
	return e
}

func intPtr(v int) *int { return &v }

func TestCreateRating_SenderToCarrier(t *testing.T) {
	e := newEnv(valueobject.ParcelStatusDelivered)

	r, err := e.create.Execute(context.Background(), rating.CreateRatingInput{
		ParcelID:   e.parcel.ID,
		ReviewerID: e.parcel.SenderID,
		Overall:    5,
		Detailed:   entity.DetailedRatings{Punctuality: intPtr(4)},
		Content:    "Всё доставлено вовремя",
		IsPublic:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.RatingSenderToCarrier, r.Type)
	assert.Equal(t, e.carrier, r.ReviewedID)

	rep, err := e.reps.FindByUserID(context.Background(), e.carrier)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TotalReviews)
	assert.Equal(t, 5.0, rep.Average())
}

func TestCreateRating_CarrierToSender(t *testing.T) {
	e := newEnv(valueobject.ParcelStatusDelivered)

	r, err := e.create.Execute(context.Background(), rating.CreateRatingInput{
		ParcelID:   e.parcel.ID,
		ReviewerID: e.carrier,
		Overall:    3,
		Content:    "Посылка была упакована плохо",
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.RatingCarrierToSender, r.Type)
	assert.Equal(t, e.parcel.SenderID, r.ReviewedID)
}

func TestCreateRating_Duplicate(t *testing.T) {
	e := newEnv(valueobject.ParcelStatusDelivered)
	input := rating.CreateRatingInput{ParcelID: e.parcel.ID, ReviewerID: e.parcel.SenderID, Overall: 4, Content: "Хорошо"}

	_, err := e.create.Execute(context.Background(), input)
	require.NoError(t, err)
	_, err = e.create.Execute(context.Background(), input)
	assert.True(t, apperror.IsConflict(err))

	rep, _ := e.reps.FindByUserID(context.Background(), e.carrier)
	assert.Equal(t, 1, rep.TotalReviews)
	assert.Equal(t, 1, e.tx.Aborts)
}

func TestCreateRating_Rejected(t *testing.T) {
	cases := []struct {
		name   string
		status valueobject.ParcelStatus
		input  func(e *env) rating.CreateRatingInput
		check  func(error) bool
	}{
		{
			name:   "посылка в пути",
			status: valueobject.ParcelStatusInTransit,
			input: func(e *env) rating.CreateRatingInput {
				return rating.CreateRatingInput{ParcelID: e.parcel.ID, ReviewerID: e.parcel.SenderID, Overall: 5, Content: "ok"}
			},
			check: apperror.IsInvalidState,
		},
		{
			name:   "оценка вне диапазона",
			status: valueobject.ParcelStatusDelivered,
			input: func(e *env) rating.CreateRatingInput {
				return rating.CreateRatingInput{ParcelID: e.parcel.ID, ReviewerID: e.parcel.SenderID, Overall: 6, Content: "ok"}
			},
			check: apperror.IsValidation,
		},
		{
			name:   "детальная оценка вне диапазона",
			status: valueobject.ParcelStatusDelivered,
			input: func(e *env) rating.CreateRatingInput {
				return rating.CreateRatingInput{ParcelID: e.parcel.ID, ReviewerID: e.parcel.SenderID, Overall: 5, Content: "ok",
					Detailed: entity.DetailedRatings{Care: intPtr(0)}}
			},
			check: apperror.IsValidation,
		},
		{
			name:   "слишком длинный текст",
			status: valueobject.ParcelStatusDelivered,
			input: func(e *env) rating.CreateRatingInput {
				return rating.CreateRatingInput{ParcelID: e.parcel.ID, ReviewerID: e.parcel.SenderID, Overall: 5,
					Content: strings.Repeat("я", entity.MaxReviewContentLen+1)}
			},
			check: apperror.IsValidation,
		},
		{
			name:   "посторонний",
			status: valueobject.ParcelStatusDelivered,
			input: func(e *env) rating.CreateRatingInput {
				return rating.CreateRatingInput{ParcelID: e.parcel.ID, ReviewerID: uuid.New(), Overall: 5, Content: "ok"}
			},
			check: apperror.IsUnauthorized,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(tc.status)
			_, err := e.create.Execute(context.Background(), tc.input(e))
			assert.True(t, tc.check(err), "unexpected error: %v", err)
			assert.Zero(t, e.tx.Commits)
		})
	}
}

func TestListRatings(t *testing.T) {
	e := newEnv(valueobject.ParcelStatusDelivered)
	_, err := e.create.Execute(context.Background(), rating.CreateRatingInput{
		ParcelID: e.parcel.ID, ReviewerID: e.parcel.SenderID, Overall: 5, Content: "Отлично", IsPublic: true,
	})
	require.NoError(t, err)
	_, err = e.create.Execute(context.Background(), rating.CreateRatingInput{
		ParcelID: e.parcel.ID, ReviewerID: e.carrier, Overall: 2, Content: "Скрытый отзыв",
	})
	require.NoError(t, err)

	uc := rating.NewListRatingsUseCase(e.ratings)
	items, total, err := uc.Execute(context.Background(), rating.ListRatingsInput{ParcelID: &e.parcel.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 5, items[0].Overall)

	_, total, err = uc.Execute(context.Background(), rating.ListRatingsInput{ParcelID: &e.parcel.ID, IncludePrivate: true, MinRating: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
