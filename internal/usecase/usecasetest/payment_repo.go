package usecasetest

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

type PaymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*entity.Payment
	// FailCreate заставляет Create вернуть ошибку, чтобы проверить откат.
	FailCreate error
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{payments: make(map[uuid.UUID]*entity.Payment)}
}

func (r *PaymentRepository) Put(p *entity.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID] = clonePayment(p)
}

func (r *PaymentRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payments)
}

func (r *PaymentRepository) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[uuid.UUID]*entity.Payment, len(r.payments))
	for id, p := range r.payments {
		saved[id] = clonePayment(p)
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.payments = saved
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreate != nil {
		return r.FailCreate
	}
	for _, existing := range r.payments {
		if existing.MatchID == p.MatchID {
			return apperror.ErrPaymentExists
		}
	}
	r.payments[p.ID] = clonePayment(p)
	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.payments[p.ID]
	if !ok {
		return apperror.ErrPaymentNotFound
	}
	if stored.Version != p.Version {
		return apperror.ErrConcurrentUpdate
	}
	p.Version++
	r.payments[p.ID] = clonePayment(p)
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[id]; ok {
		return clonePayment(p), nil
	}
	return nil, apperror.ErrPaymentNotFound
}

func (r *PaymentRepository) FindByParcelID(ctx context.Context, parcelID uuid.UUID) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ParcelID == parcelID {
			return clonePayment(p), nil
		}
	}
	return nil, apperror.ErrPaymentNotFound
}

func (r *PaymentRepository) List(ctx context.Context, f repository.PaymentFilter) ([]*entity.Payment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Payment
	for _, p := range r.payments {
		switch {
		case f.PartyID != nil && !p.IsParty(*f.PartyID),
			f.Status != nil && p.Status != *f.Status,
			f.EscrowStatus != nil && p.EscrowStatus != *f.EscrowStatus,
			f.MinAmount != nil && p.Amount < *f.MinAmount,
			f.MaxAmount != nil && p.Amount > *f.MaxAmount:
			continue
		}
		result = append(result, clonePayment(p))
	}
	return paginate(result, f.Offset, f.Limit), len(result), nil
}
