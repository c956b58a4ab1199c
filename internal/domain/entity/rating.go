package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

const (
	MinRatingValue      = 1
	MaxRatingValue      = 5
	MaxReviewContentLen = 1000
)

type DetailedRatings struct {
	Communication   *int
	Reliability     *int
	Punctuality     *int
	Care            *int
	Professionalism *int
}

func (d DetailedRatings) values() []*int {
	return []*int{d.Communication, d.Reliability, d.Punctuality, d.Care, d.Professionalism}
}

type Rating struct {
	ID          uuid.UUID
	ParcelID    uuid.UUID
	ReviewerID  uuid.UUID
	ReviewedID  uuid.UUID
	Type        valueobject.RatingType
	Overall     int
	Detailed    DetailedRatings
	Title       string
	Content     string
	IsPublic    bool
	Status      string
	PublishedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type NewRatingParams struct {
	Parcel     *Parcel
	ReviewerID uuid.UUID
	Overall    int
	Detailed   DetailedRatings
	Title      string
	Content    string
	IsPublic   bool
}

func validRating(v int) bool {
	return v >= MinRatingValue && v <= MaxRatingValue
}

// NewRating оценивать можно только доставленную посылку; тип отзыва
// определяется тем, кто из участников его оставляет.
func NewRating(p NewRatingParams, now time.Time) (*Rating, error) {
	if !validRating(p.Overall) {
		return nil, apperror.New(apperror.ErrCodeValidation, "оценка должна быть от 1 до 5")
	}
	for _, v := range p.Detailed.values() {
		if v != nil && !validRating(*v) {
			return nil, apperror.New(apperror.ErrCodeValidation, "детальные оценки должны быть от 1 до 5")
		}
	}
	content := strings.TrimSpace(p.Content)
	if content == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "текст отзыва обязателен")
	}
	if utf8.RuneCountInString(content) > MaxReviewContentLen {
		return nil, apperror.New(apperror.ErrCodeValidation, "текст отзыва не должен превышать 1000 символов")
	}
	if p.Parcel.Status != valueobject.ParcelStatusDelivered {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "оценить можно только доставленную посылку")
	}

	var (
		ratingType valueobject.RatingType
		reviewedID uuid.UUID
	)
	switch {
	case p.Parcel.IsOwnedBy(p.ReviewerID) && p.Parcel.MatchedCarrierID != nil:
		ratingType = valueobject.RatingSenderToCarrier
		reviewedID = *p.Parcel.MatchedCarrierID
	case p.Parcel.IsCarriedBy(p.ReviewerID):
		ratingType = valueobject.RatingCarrierToSender
		reviewedID = p.Parcel.SenderID
	default:
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "оставить отзыв может только участник доставки")
	}

	return &Rating{
		ID:          uuid.New(),
		ParcelID:    p.Parcel.ID,
		ReviewerID:  p.ReviewerID,
		ReviewedID:  reviewedID,
		Type:        ratingType,
		Overall:     p.Overall,
		Detailed:    p.Detailed,
		Title:       strings.TrimSpace(p.Title),
		Content:     content,
		IsPublic:    p.IsPublic,
		Status:      "published",
		PublishedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
