package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/dto"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/response"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/user"
)

type AuthHandler struct {
	auth      *user.AuthUseCases
	profileUC *user.GetProfileUseCase
}

func NewAuthHandler(auth *user.AuthUseCases, profileUC *user.GetProfileUseCase) *AuthHandler {
	return &AuthHandler{auth: auth, profileUC: profileUC}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	roles := make([]valueobject.UserRole, 0, len(req.Roles))
	for _, r := range req.Roles {
		role, err := valueobject.NewUserRole(r)
		if err != nil {
			response.Error(c, err)
			return
		}
		roles = append(roles, role)
	}

	result, err := h.auth.Register(c.Request.Context(), user.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Roles:       roles,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToAuthResponse(result))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), user.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAuthResponse(result))
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "refresh_token обязателен")
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAuthResponse(result))
}

// Me профиль текущего пользователя вместе с email.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}

	profile, err := h.profileUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToProfileResponse(profile, true))
}
