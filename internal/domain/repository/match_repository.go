package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

type MatchFilter struct {
	ParcelID  *uuid.UUID
	TravelID  *uuid.UUID
	SenderID  *uuid.UUID
	CarrierID *uuid.UUID
	// PartyID ограничивает выборку матчами, где пользователь отправитель или перевозчик.
	PartyID  *uuid.UUID
	// Status сравнивается с эффективным статусом на момент Now:
	// просроченные proposed матчи считаются expired.
	Status   *valueobject.MatchStatus
	Now      time.Time
	MinScore *float64
	MaxFee   *float64
	Limit    int
	Offset   int
}

type MatchRepository interface {
	// Create возвращает ErrActiveMatchExists, если у пары уже есть активный матч.
	Create(ctx context.Context, match *entity.Match) error
	// Update условная запись по версии. При успехе версия матча увеличивается,
	// при гонке возвращается ErrConcurrentUpdate.
	Update(ctx context.Context, match *entity.Match) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Match, error)
	// FindActiveByPair возвращает nil без ошибки, если активного матча нет.
	FindActiveByPair(ctx context.Context, parcelID, travelID uuid.UUID) (*entity.Match, error)
	List(ctx context.Context, filter MatchFilter) ([]*entity.Match, int, error)
	// ExpireStale переводит в expired просроченные proposed матчи пары.
	ExpireStale(ctx context.Context, parcelID, travelID uuid.UUID, now time.Time) (int64, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]*entity.Match, error)
}
