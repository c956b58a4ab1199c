package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// TypeMatchExpire ставится при создании матча на момент истечения срока.
	TypeMatchExpire = "match:expire"
	// TypeMatchSweep периодический обход просроченных матчей.
	TypeMatchSweep = "match:sweep"

	// expirySkew запас на расхождение часов API и воркера.
	expirySkew = time.Second
	maxRetry   = 5
)

type ExpirePayload struct {
	MatchID uuid.UUID `json:"match_id"`
}

type SweepPayload struct {
	Batch int `json:"batch"`
}

func NewExpireTask(matchID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(ExpirePayload{MatchID: matchID})
	if err != nil {
		return nil, fmt.Errorf("queue: marshal payload: %w", err)
	}
	return asynq.NewTask(TypeMatchExpire, data), nil
}

func NewSweepTask(batch int) (*asynq.Task, error) {
	data, err := json.Marshal(SweepPayload{Batch: batch})
	if err != nil {
		return nil, fmt.Errorf("queue: marshal payload: %w", err)
	}
	return asynq.NewTask(TypeMatchSweep, data), nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ExpiryScheduler планирует истечение матча через asynq. Идентификатор
// задачи выводится из матча, повторное планирование не создаёт дублей.
type ExpiryScheduler struct {
	client enqueuer
}

func NewExpiryScheduler(client enqueuer) *ExpiryScheduler {
	return &ExpiryScheduler{client: client}
}

func (s *ExpiryScheduler) ScheduleExpiry(ctx context.Context, matchID uuid.UUID, at time.Time) error {
	task, err := NewExpireTask(matchID)
	if err != nil {
		return err
	}
	_, err = s.client.EnqueueContext(ctx, task,
		asynq.TaskID(TypeMatchExpire+":"+matchID.String()),
		asynq.ProcessAt(at.Add(expirySkew)),
		asynq.MaxRetry(maxRetry),
	)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("queue: enqueue %s: %w", TypeMatchExpire, err)
	}
	return nil
}

// RedisOpt параметры подключения asynq к Redis.
func RedisOpt(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}
}
