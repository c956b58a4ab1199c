package match

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/ignatzorin/crowdship-backend/internal/validation"
)

type NegotiateInput struct {
	MatchID uuid.UUID
	ActorID uuid.UUID
	Fee     float64
	Message string
}

type NegotiateMatchUseCase struct {
	matchRepo  repository.MatchRepository
	parcelRepo repository.ParcelRepository
	collab     Collaborators
}

func NewNegotiateMatchUseCase(matchRepo repository.MatchRepository, parcelRepo repository.ParcelRepository, collab Collaborators) *NegotiateMatchUseCase {
	return &NegotiateMatchUseCase{
		matchRepo:  matchRepo,
		parcelRepo: parcelRepo,
		collab:     collab.withDefaults(),
	}
}

// Execute добавляет встречное предложение цены. История и текущая цена
// сохраняются одной условной записью.
func (uc *NegotiateMatchUseCase) Execute(ctx context.Context, input NegotiateInput) (*entity.Match, error) {
	if err := validation.ValidateOptionalText("сообщение", input.Message, validation.MaxNegotiationMessageLen); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	m, err := uc.matchRepo.FindByID(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}
	parcel, err := uc.parcelRepo.FindByID(ctx, m.ParcelID)
	if err != nil {
		return nil, err
	}

	entry, err := m.Negotiate(input.ActorID, input.Fee, input.Message, parcel.DeclaredValue, uc.collab.Now())
	if err != nil {
		if apperror.IsExpired(err) {
			persistExpiry(ctx, uc.matchRepo, uc.collab, m)
		}
		return nil, err
	}

	if err := uc.matchRepo.Update(ctx, m); err != nil {
		return nil, err
	}

	logger.Log.WithFields(matchFields(m)).WithField("amount", entry.Amount).Info("новое предложение цены")
	uc.collab.announce(ctx, repository.EventMatchNegotiated, m, &input.ActorID)
	return m, nil
}

type GetNegotiationUseCase struct {
	matchRepo repository.MatchRepository
}

func NewGetNegotiationUseCase(matchRepo repository.MatchRepository) *GetNegotiationUseCase {
	return &GetNegotiationUseCase{matchRepo: matchRepo}
}

func (uc *GetNegotiationUseCase) Execute(ctx context.Context, matchID, actorID uuid.UUID, isAdmin bool) (*entity.Negotiation, error) {
	m, err := uc.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !m.IsParty(actorID) {
		return nil, apperror.ErrNotMatchParty
	}
	return &m.Negotiation, nil
}
