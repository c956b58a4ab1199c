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

type CloseMatchInput struct {
	MatchID uuid.UUID
	ActorID uuid.UUID
	IsAdmin bool
	Reason  string
}

// RejectMatchUseCase отклонение предложения одной из сторон.
type RejectMatchUseCase struct {
	matchRepo repository.MatchRepository
	collab    Collaborators
}

func NewRejectMatchUseCase(matchRepo repository.MatchRepository, collab Collaborators) *RejectMatchUseCase {
	return &RejectMatchUseCase{matchRepo: matchRepo, collab: collab.withDefaults()}
}

func (uc *RejectMatchUseCase) Execute(ctx context.Context, input CloseMatchInput) (*entity.Match, error) {
	return closeMatch(ctx, uc.matchRepo, uc.collab, input, repository.EventMatchRejected, func(m *entity.Match) error {
		return m.Reject(input.ActorID, input.Reason, uc.collab.Now())
	})
}

// CancelMatchUseCase явная отмена: матч остаётся в истории со статусом cancelled.
type CancelMatchUseCase struct {
	matchRepo repository.MatchRepository
	collab    Collaborators
}

func NewCancelMatchUseCase(matchRepo repository.MatchRepository, collab Collaborators) *CancelMatchUseCase {
	return &CancelMatchUseCase{matchRepo: matchRepo, collab: collab.withDefaults()}
}

func (uc *CancelMatchUseCase) Execute(ctx context.Context, input CloseMatchInput) (*entity.Match, error) {
	return closeMatch(ctx, uc.matchRepo, uc.collab, input, repository.EventMatchCancelled, func(m *entity.Match) error {
		return m.Cancel(input.ActorID, input.IsAdmin, input.Reason, uc.collab.Now())
	})
}

func closeMatch(
	ctx context.Context,
	repo repository.MatchRepository,
	collab Collaborators,
	input CloseMatchInput,
	eventType string,
	transition func(m *entity.Match) error,
) (*entity.Match, error) {
	if err := validation.ValidateOptionalText("причина", input.Reason, validation.MaxReasonLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	m, err := repo.FindByID(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}
	if err := transition(m); err != nil {
		if apperror.IsExpired(err) {
			persistExpiry(ctx, repo, collab, m)
		}
		return nil, err
	}
	if err := repo.Update(ctx, m); err != nil {
		return nil, err
	}

	logger.Log.WithFields(matchFields(m)).WithField("status", m.Status).Info("матч закрыт")
	collab.announce(ctx, eventType, m, &input.ActorID)
	return m, nil
}
