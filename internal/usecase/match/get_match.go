package match

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type GetMatchUseCase struct {
	matchRepo repository.MatchRepository
	now       func() time.Time
}

func NewGetMatchUseCase(matchRepo repository.MatchRepository, collab Collaborators) *GetMatchUseCase {
	return &GetMatchUseCase{matchRepo: matchRepo, now: collab.withDefaults().Now}
}

// Execute возвращает матч со статусом на текущий момент: просроченное
// предложение отображается как expired даже до фоновой записи.
func (uc *GetMatchUseCase) Execute(ctx context.Context, matchID, actorID uuid.UUID, isAdmin bool) (*entity.Match, error) {
	m, err := uc.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !m.IsParty(actorID) {
		return nil, apperror.ErrNotMatchParty
	}
	m.Status = m.EffectiveStatus(uc.now())
	return m, nil
}

type ListMatchesInput struct {
	Filter  repository.MatchFilter
	ActorID uuid.UUID
	IsAdmin bool
}

type ListMatchesUseCase struct {
	matchRepo repository.MatchRepository
	now       func() time.Time
}

func NewListMatchesUseCase(matchRepo repository.MatchRepository, collab Collaborators) *ListMatchesUseCase {
	return &ListMatchesUseCase{matchRepo: matchRepo, now: collab.withDefaults().Now}
}

func (uc *ListMatchesUseCase) Execute(ctx context.Context, input ListMatchesInput) ([]*entity.Match, int, error) {
	filter := input.Filter
	if !input.IsAdmin {
		filter.PartyID = &input.ActorID
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	now := uc.now()
	filter.Now = now

	matches, total, err := uc.matchRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for _, m := range matches {
		m.Status = m.EffectiveStatus(now)
	}
	return matches, total, nil
}
