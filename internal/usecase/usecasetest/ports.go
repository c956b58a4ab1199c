package usecasetest

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
)

// Publisher запоминает опубликованные события.
type Publisher struct {
	mu       sync.Mutex
	Matches  []repository.MatchEvent
	Payments []repository.PaymentEvent
}

func (p *Publisher) PublishMatch(ctx context.Context, ev repository.MatchEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Matches = append(p.Matches, ev)
	return nil
}

func (p *Publisher) PublishPayment(ctx context.Context, ev repository.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Payments = append(p.Payments, ev)
	return nil
}

// MatchTypes типы опубликованных событий матча по порядку.
func (p *Publisher) MatchTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.Matches))
	for i, ev := range p.Matches {
		types[i] = ev.Type
	}
	return types
}

type Notification struct {
	UserID uuid.UUID
	Event  string
}

type Notifier struct {
	mu   sync.Mutex
	Sent []Notification
}

func (n *Notifier) Notify(userID uuid.UUID, event string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, Notification{UserID: userID, Event: event})
}

type Scheduler struct {
	mu        sync.Mutex
	Scheduled map[uuid.UUID]time.Time
}

func (s *Scheduler) ScheduleExpiry(ctx context.Context, matchID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Scheduled == nil {
		s.Scheduled = make(map[uuid.UUID]time.Time)
	}
	s.Scheduled[matchID] = at
	return nil
}

type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]uuid.UUID
}

func (s *IdempotencyStore) Lookup(ctx context.Context, scope, key string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.keys[scope+"|"+key]
	return id, ok, nil
}

func (s *IdempotencyStore) Remember(ctx context.Context, scope, key string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		s.keys = make(map[string]uuid.UUID)
	}
	s.keys[scope+"|"+key] = id
	return nil
}

// Clock управляемое время для тестов.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// PhotoStorage хранит файлы в памяти.
type PhotoStorage struct {
	mu    sync.Mutex
	Files map[string][]byte
}

func (s *PhotoStorage) Save(ctx context.Context, prefix string, r io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Files == nil {
		s.Files = make(map[string][]byte)
	}
	key := prefix + "/" + uuid.NewString()
	s.Files[key] = data
	return key, nil
}

func (s *PhotoStorage) URL(ctx context.Context, key string) (string, error) {
	return "/media/" + key, nil
}
