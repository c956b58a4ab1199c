package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
)

type DetailedRatingsDTO struct {
	Communication   *int `json:"communication,omitempty" binding:"omitempty,min=1,max=5"`
	Reliability     *int `json:"reliability,omitempty" binding:"omitempty,min=1,max=5"`
	Punctuality     *int `json:"punctuality,omitempty" binding:"omitempty,min=1,max=5"`
	Care            *int `json:"care,omitempty" binding:"omitempty,min=1,max=5"`
	Professionalism *int `json:"professionalism,omitempty" binding:"omitempty,min=1,max=5"`
}

type CreateRatingRequest struct {
	ParcelID uuid.UUID          `json:"parcel_id" binding:"required"`
	Overall  int                `json:"overall" binding:"required,min=1,max=5"`
	Detailed DetailedRatingsDTO `json:"detailed"`
	Title    string             `json:"title,omitempty" binding:"max=200"`
	Content  string             `json:"content" binding:"required,max=1000"`
	IsPublic *bool              `json:"is_public,omitempty"`
}

func (d DetailedRatingsDTO) ToEntity() entity.DetailedRatings {
	return entity.DetailedRatings{
		Communication:   d.Communication,
		Reliability:     d.Reliability,
		Punctuality:     d.Punctuality,
		Care:            d.Care,
		Professionalism: d.Professionalism,
	}
}

type RatingResponse struct {
	ID          uuid.UUID          `json:"id"`
	ParcelID    uuid.UUID          `json:"parcel_id"`
	ReviewerID  uuid.UUID          `json:"reviewer_id"`
	ReviewedID  uuid.UUID          `json:"reviewed_id"`
	Type        string             `json:"type"`
	Overall     int                `json:"overall"`
	Detailed    DetailedRatingsDTO `json:"detailed"`
	Title       string             `json:"title,omitempty"`
	Content     string             `json:"content"`
	IsPublic    bool               `json:"is_public"`
	PublishedAt time.Time          `json:"published_at"`
	CreatedAt   time.Time          `json:"created_at"`
}

func ToRatingResponse(r *entity.Rating) RatingResponse {
	return RatingResponse{
		ID:         r.ID,
		ParcelID:   r.ParcelID,
		ReviewerID: r.ReviewerID,
		ReviewedID: r.ReviewedID,
		Type:       string(r.Type),
		Overall:    r.Overall,
		Detailed: DetailedRatingsDTO{
			Communication:   r.Detailed.Communication,
			Reliability:     r.Detailed.Reliability,
			Punctuality:     r.Detailed.Punctuality,
			Care:            r.Detailed.Care,
			Professionalism: r.Detailed.Professionalism,
		},
		Title:       r.Title,
		Content:     r.Content,
		IsPublic:    r.IsPublic,
		PublishedAt: r.PublishedAt,
		CreatedAt:   r.CreatedAt,
	}
}

func ToRatingResponses(ratings []*entity.Rating) []RatingResponse {
	out := make([]RatingResponse, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, ToRatingResponse(r))
	}
	return out
}
