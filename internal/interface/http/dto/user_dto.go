package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/service"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/user"
)

type RegisterRequest struct {
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password" binding:"required,min=8"`
	DisplayName string   `json:"display_name" binding:"required,max=100"`
	Roles       []string `json:"roles,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name"`
	Roles       []string  `json:"roles"`
	CreatedAt   time.Time `json:"created_at"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresIn время жизни access токена в секундах.
	ExpiresIn int64 `json:"expires_in"`
}

type AuthResponse struct {
	User   UserResponse  `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

type ReputationResponse struct {
	Rating               float64 `json:"rating"`
	TotalReviews         int     `json:"total_reviews"`
	CompletedDeliveries  int     `json:"completed_deliveries"`
	SuccessfulDeliveries int     `json:"successful_deliveries"`
	SuccessRate          float64 `json:"success_rate"`
}

type ProfileResponse struct {
	User       UserResponse       `json:"user"`
	Reputation ReputationResponse `json:"reputation"`
}

// ToUserResponse email отдаётся только владельцу аккаунта.
func ToUserResponse(u *entity.User, withEmail bool) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Roles:       make([]string, 0, len(u.Roles)),
		CreatedAt:   u.CreatedAt,
	}
	if withEmail {
		resp.Email = u.Email
	}
	for _, r := range u.Roles {
		resp.Roles = append(resp.Roles, string(r))
	}
	return resp
}

func ToTokenResponse(t *service.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    int64(t.ExpiresIn.Seconds()),
	}
}

func ToAuthResponse(r *user.AuthResult) AuthResponse {
	return AuthResponse{
		User:   ToUserResponse(r.User, true),
		Tokens: ToTokenResponse(r.Tokens),
	}
}

func ToProfileResponse(p *user.Profile, withEmail bool) ProfileResponse {
	return ProfileResponse{
		User: ToUserResponse(p.User, withEmail),
		Reputation: ReputationResponse{
			Rating:               p.Reputation.Average(),
			TotalReviews:         p.Reputation.TotalReviews,
			CompletedDeliveries:  p.Reputation.CompletedDeliveries,
			SuccessfulDeliveries: p.Reputation.SuccessfulDeliveries,
			SuccessRate:          p.Reputation.SuccessRate(),
		},
	}
}
