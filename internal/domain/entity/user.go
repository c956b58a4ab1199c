package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

type User struct {
	ID           uuid.UUID
	Email        string
	DisplayName  string
	PasswordHash string
	Roles        []valueobject.UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewUser(email, displayName, passwordHash string, roles []valueobject.UserRole, now time.Time) *User {
	return &User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: passwordHash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (u *User) HasRole(role valueobject.UserRole) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PrimaryRole роль, которая попадает в access токен.
func (u *User) PrimaryRole() valueobject.UserRole {
	if u.HasRole(valueobject.RoleAdmin) {
		return valueobject.RoleAdmin
	}
	if len(u.Roles) > 0 {
		return u.Roles[0]
	}
	return valueobject.RoleSender
}

// Reputation накопительный агрегат отзывов и доставок пользователя.
// Обновляется инкрементально при каждом новом отзыве или доставке.
type Reputation struct {
	UserID               uuid.UUID
	RatingSum            float64
	TotalReviews         int
	CompletedDeliveries  int
	SuccessfulDeliveries int
	UpdatedAt            time.Time
}

func (r *Reputation) Average() float64 {
	if r == nil || r.TotalReviews == 0 {
		return 0
	}
	return r.RatingSum / float64(r.TotalReviews)
}

func (r *Reputation) HasHistory() bool {
	return r != nil && r.TotalReviews > 0
}

// SuccessRate доля успешных доставок; без доставок считается как 0.
func (r *Reputation) SuccessRate() float64 {
	if r == nil || r.CompletedDeliveries == 0 {
		return 0
	}
	return float64(r.SuccessfulDeliveries) / float64(r.CompletedDeliveries)
}
