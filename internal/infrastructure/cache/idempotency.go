package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultIdempotencyTTL = 24 * time.Hour
	idempotencyPrefix     = "idem:"
)

// kv команды Redis, которые нужны хранилищу ключей.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// IdempotencyStore запоминает, какой матч создан по ключу повторного запроса.
// Первый записанный результат не перезаписывается.
type IdempotencyStore struct {
	client kv
	ttl    time.Duration
}

func NewIdempotencyStore(client kv, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

func idempotencyKey(scope, key string) string {
	return idempotencyPrefix + scope + ":" + key
}

func (s *IdempotencyStore) Lookup(ctx context.Context, scope, key string) (uuid.UUID, bool, error) {
	raw, err := s.client.Get(ctx, idempotencyKey(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось прочитать ключ идемпотентности")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, apperror.Wrap(err, apperror.ErrCodeInternal, "повреждён ключ идемпотентности")
	}
	return id, true, nil
}

func (s *IdempotencyStore) Remember(ctx context.Context, scope, key string, id uuid.UUID) error {
	if err := s.client.SetNX(ctx, idempotencyKey(scope, key), id.String(), s.ttl).Err(); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить ключ идемпотентности")
	}
	return nil
}
