package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// purgeEvery через сколько записей выполняется очистка просроченных ключей.
const purgeEvery = 256

// MemoryIdempotencyStore ключи идемпотентности в памяти процесса. Используется,
// когда Redis не настроен; между репликами API ключи не разделяются.
type MemoryIdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	writes  int
	now     func() time.Time
}

type memoryEntry struct {
	id        uuid.UUID
	expiresAt time.Time
}

func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &MemoryIdempotencyStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryIdempotencyStore) Lookup(_ context.Context, scope, key string) (uuid.UUID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[idempotencyKey(scope, key)]
	if !ok || !s.now().Before(entry.expiresAt) {
		return uuid.Nil, false, nil
	}
	return entry.id, true, nil
}

// Remember как и SETNX не перезаписывает живой ключ.
func (s *MemoryIdempotencyStore) Remember(_ context.Context, scope, key string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	k := idempotencyKey(scope, key)
	if entry, ok := s.entries[k]; ok && now.Before(entry.expiresAt) {
		return nil
	}
	s.entries[k] = memoryEntry{id: id, expiresAt: now.Add(s.ttl)}

	s.writes++
	if s.writes%purgeEvery == 0 {
		for key, entry := range s.entries {
			if !now.Before(entry.expiresAt) {
				delete(s.entries, key)
			}
		}
	}
	return nil
}
