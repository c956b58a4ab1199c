package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/crowdship-backend/internal/interface/http/dto"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/response"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/rating"
)

type RatingHandler struct {
	createUC *rating.CreateRatingUseCase
	listUC   *rating.ListRatingsUseCase
}

func NewRatingHandler(createUC *rating.CreateRatingUseCase, listUC *rating.ListRatingsUseCase) *RatingHandler {
	return &RatingHandler{createUC: createUC, listUC: listUC}
}

func (h *RatingHandler) CreateRating(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CreateRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	r, err := h.createUC.Execute(c.Request.Context(), rating.CreateRatingInput{
		ParcelID:   req.ParcelID,
		ReviewerID: userID,
		Overall:    req.Overall,
		Detailed:   req.Detailed.ToEntity(),
		Title:      req.Title,
		Content:    req.Content,
		IsPublic:   isPublic,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToRatingResponse(r))
}

// ListRatings скрытые отзывы видны автору, адресату и администратору.
func (h *RatingHandler) ListRatings(c *gin.Context) {
	userID, isAdmin, ok := actor(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)

	input := rating.ListRatingsInput{Page: page, Limit: limit}
	if input.ReviewedID, ok = parseUUIDQuery(c, "reviewedId"); !ok {
		return
	}
	if input.ReviewerID, ok = parseUUIDQuery(c, "reviewerId"); !ok {
		return
	}
	if input.ParcelID, ok = parseUUIDQuery(c, "parcelId"); !ok {
		return
	}
	if v := parseIntQuery(c, "minRating", 0); v > 0 {
		input.MinRating = &v
	}
	input.IncludePrivate = isAdmin ||
		(input.ReviewedID != nil && *input.ReviewedID == userID) ||
		(input.ReviewerID != nil && *input.ReviewerID == userID)

	ratings, total, err := h.listUC.Execute(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	paginated(c, dto.ToRatingResponses(ratings), total, page, limit)
}
