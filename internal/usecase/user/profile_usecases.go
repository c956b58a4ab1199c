package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
)

// Profile публичный профиль с агрегатом репутации.
type Profile struct {
	User       *entity.User
	Reputation *entity.Reputation
}

type GetProfileUseCase struct {
	userRepo       repository.UserRepository
	reputationRepo repository.ReputationRepository
}

func NewGetProfileUseCase(userRepo repository.UserRepository, reputationRepo repository.ReputationRepository) *GetProfileUseCase {
	return &GetProfileUseCase{userRepo: userRepo, reputationRepo: reputationRepo}
}

// Execute пользователь без отзывов и доставок получает пустой агрегат.
func (uc *GetProfileUseCase) Execute(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	rep, err := uc.reputationRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		rep = &entity.Reputation{UserID: userID}
	}
	return &Profile{User: user, Reputation: rep}, nil
}
