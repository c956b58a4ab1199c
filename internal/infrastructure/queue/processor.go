package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/sirupsen/logrus"
)

// MatchExpirer операции истечения матчей, которые выполняет воркер.
type MatchExpirer interface {
	Execute(ctx context.Context, matchID uuid.UUID) (bool, error)
	Sweep(ctx context.Context, batch int) (int, error)
}

type Processor struct {
	expirer MatchExpirer
}

func NewProcessor(expirer MatchExpirer) *Processor {
	return &Processor{expirer: expirer}
}

func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeMatchExpire, p.handleExpire)
	mux.HandleFunc(TypeMatchSweep, p.handleSweep)
	return mux
}

func (p *Processor) handleExpire(ctx context.Context, task *asynq.Task) error {
	var payload ExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	expired, err := p.expirer.Execute(ctx, payload.MatchID)
	if err != nil {
		logger.Log.WithField("match_id", payload.MatchID).WithError(err).Warn("не удалось завершить истечение матча")
		return err
	}
	logger.Log.WithFields(logrus.Fields{
		"match_id": payload.MatchID,
		"expired":  expired,
	}).Debug("задача истечения матча выполнена")
	return nil
}

func (p *Processor) handleSweep(ctx context.Context, task *asynq.Task) error {
	var payload SweepPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	n, err := p.expirer.Sweep(ctx, payload.Batch)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Log.WithField("expired", n).Info("обход просроченных матчей завершён")
	}
	return nil
}
