package match

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

const defaultSweepBatch = 200

// ExpireMatchUseCase фиксирует истечение срока в хранилище. Используется
// фоновой задачей и командой sweep; корректность от него не зависит.
type ExpireMatchUseCase struct {
	matchRepo repository.MatchRepository
	collab    Collaborators
}

func NewExpireMatchUseCase(matchRepo repository.MatchRepository, collab Collaborators) *ExpireMatchUseCase {
	return &ExpireMatchUseCase{matchRepo: matchRepo, collab: collab.withDefaults()}
}

// Execute возвращает true, если матч был переведён в expired.
func (uc *ExpireMatchUseCase) Execute(ctx context.Context, matchID uuid.UUID) (bool, error) {
	m, err := uc.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if !m.Expire(uc.collab.Now()) {
		return false, nil
	}
	if err := uc.matchRepo.Update(ctx, m); err != nil {
		// матч успели изменить параллельно, истекать уже нечему
		if apperror.IsConflict(err) {
			return false, nil
		}
		return false, err
	}
	logger.Log.WithFields(matchFields(m)).Info("матч истёк")
	uc.collab.announce(ctx, repository.EventMatchExpired, m, nil)
	return true, nil
}

// Sweep обрабатывает пачку просроченных матчей и возвращает число истёкших.
func (uc *ExpireMatchUseCase) Sweep(ctx context.Context, batch int) (int, error) {
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	overdue, err := uc.matchRepo.ListOverdue(ctx, uc.collab.Now(), batch)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, m := range overdue {
		ok, err := uc.Execute(ctx, m.ID)
		if err != nil {
			return expired, err
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}
