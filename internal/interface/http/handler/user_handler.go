package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/crowdship-backend/internal/interface/http/dto"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/response"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/rating"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/user"
)

// UserHandler публичные профили.
type UserHandler struct {
	profileUC     *user.GetProfileUseCase
	listRatingsUC *rating.ListRatingsUseCase
}

func NewUserHandler(profileUC *user.GetProfileUseCase, listRatingsUC *rating.ListRatingsUseCase) *UserHandler {
	return &UserHandler{profileUC: profileUC, listRatingsUC: listRatingsUC}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := pathID(c, "id", "пользователя")
	if !ok {
		return
	}

	profile, err := h.profileUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToProfileResponse(profile, false))
}

// ListRatings публичные отзывы о пользователе.
func (h *UserHandler) ListRatings(c *gin.Context) {
	userID, ok := pathID(c, "id", "пользователя")
	if !ok {
		return
	}
	page, limit := pageParams(c)

	ratings, total, err := h.listRatingsUC.Execute(c.Request.Context(), rating.ListRatingsInput{
		ReviewedID: &userID,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	paginated(c, dto.ToRatingResponses(ratings), total, page, limit)
}
