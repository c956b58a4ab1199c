package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryKV минимальная замена Redis для Get/SetNX.
type memoryKV struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.err != nil {
		return redis.NewStringResult("", m.err)
	}
	v, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryKV) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	if m.err != nil {
		return redis.NewBoolResult(false, m.err)
	}
	if _, ok := m.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func TestIdempotencyStore_RoundTrip(t *testing.T) {
	kv := newMemoryKV()
	store := NewIdempotencyStore(kv, 0)
	ctx := context.Background()

	_, found, err := store.Lookup(ctx, "match:create", "abc")
	require.NoError(t, err)
	assert.False(t, found)

	first := uuid.New()
	require.NoError(t, store.Remember(ctx, "match:create", "abc", first))
	require.NoError(t, store.Remember(ctx, "match:create", "abc", uuid.New()))

	got, found, err := store.Lookup(ctx, "match:create", "abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, first, got)
	assert.Equal(t, DefaultIdempotencyTTL, kv.ttls["idem:match:create:abc"])
}

func TestIdempotencyStore_ScopesAreIsolated(t *testing.T) {
	store := NewIdempotencyStore(newMemoryKV(), time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Remember(ctx, "user-a", "k", uuid.New()))
	_, found, err := store.Lookup(ctx, "user-b", "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIdempotencyStore_Errors(t *testing.T) {
	kv := newMemoryKV()
	store := NewIdempotencyStore(kv, time.Hour)
	ctx := context.Background()

	kv.values["idem:s:broken"] = "not-a-uuid"
	_, _, err := store.Lookup(ctx, "s", "broken")
	assert.Error(t, err)

	kv.err = errors.New("connection refused")
	_, _, err = store.Lookup(ctx, "s", "k")
	assert.Error(t, err)
	assert.Error(t, store.Remember(ctx, "s", "k", uuid.New()))
}

func TestMemoryIdempotencyStore_KeepsFirstUntilExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryIdempotencyStore(time.Hour)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	first, second := uuid.New(), uuid.New()
	require.NoError(t, store.Remember(ctx, "match:create", "k1", first))
	require.NoError(t, store.Remember(ctx, "match:create", "k1", second))

	id, ok, err := store.Lookup(ctx, "match:create", "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, first, id)

	_, ok, _ = store.Lookup(ctx, "other", "k1")
	assert.False(t, ok)

	now = now.Add(time.Hour)
	_, ok, _ = store.Lookup(ctx, "match:create", "k1")
	assert.False(t, ok, "ключ истёк")

	require.NoError(t, store.Remember(ctx, "match:create", "k1", second))
	id, _, _ = store.Lookup(ctx, "match:create", "k1")
	assert.Equal(t, second, id)
}
