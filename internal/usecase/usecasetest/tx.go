package usecasetest

import (
	"context"
	"sync"
)

type snapshotter interface {
	snapshot() (restore func())
}

// TxManager откатывает все подключённые хранилища, если fn вернула ошибку.
type TxManager struct {
	mu      sync.Mutex
	stores  []snapshotter
	Commits int
	Aborts  int
}

func NewTxManager(stores ...snapshotter) *TxManager {
	return &TxManager{stores: stores}
}

func (t *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	restores := make([]func(), 0, len(t.stores))
	for _, s := range t.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		t.Aborts++
		return err
	}
	t.Commits++
	return nil
}
