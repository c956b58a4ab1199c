package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

type PaymentFilter struct {
	PartyID      *uuid.UUID
	Status       *valueobject.PaymentStatus
	EscrowStatus *valueobject.EscrowStatus
	MinAmount    *float64
	MaxAmount    *float64
	Limit        int
	Offset       int
}

type PaymentRepository interface {
	// Create возвращает ErrPaymentExists при повторном платеже по матчу.
	Create(ctx context.Context, payment *entity.Payment) error
	Update(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByParcelID(ctx context.Context, parcelID uuid.UUID) (*entity.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]*entity.Payment, int, error)
}
