package match

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/matching"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

const idempotencyScope = "match:create"

type CreateMatchInput struct {
	ActorID        uuid.UUID
	ParcelID       uuid.UUID
	TravelID       uuid.UUID
	SenderID       *uuid.UUID
	CarrierID      *uuid.UUID
	InitialFee     float64
	Currency       string
	Agreement      *entity.Agreement
	IdempotencyKey string
}

type CreateMatchResult struct {
	Match   *entity.Match
	Details *matching.Details
	// Replayed запрос с тем же ключом идемпотентности уже выполнялся.
	Replayed bool
}

type CreateMatchUseCase struct {
	parcelRepo     repository.ParcelRepository
	travelRepo     repository.TravelRepository
	matchRepo      repository.MatchRepository
	reputationRepo repository.ReputationRepository
	scorer         *matching.Scorer
	collab         Collaborators
}

func NewCreateMatchUseCase(
	parcelRepo repository.ParcelRepository,
	travelRepo repository.TravelRepository,
	matchRepo repository.MatchRepository,
	reputationRepo repository.ReputationRepository,
	scorer *matching.Scorer,
	collab Collaborators,
) *CreateMatchUseCase {
	return &CreateMatchUseCase{
		parcelRepo:     parcelRepo,
		travelRepo:     travelRepo,
		matchRepo:      matchRepo,
		reputationRepo: reputationRepo,
		scorer:         scorer,
		collab:         collab.withDefaults(),
	}
}

func (uc *CreateMatchUseCase) Execute(ctx context.Context, input CreateMatchInput) (*CreateMatchResult, error) {
	if replay, err := uc.replay(ctx, input); err != nil || replay != nil {
		return replay, err
	}

	parcel, err := uc.parcelRepo.FindByID(ctx, input.ParcelID)
	if err != nil {
		return nil, err
	}
	travel, err := uc.travelRepo.FindByID(ctx, input.TravelID)
	if err != nil {
		return nil, err
	}

	if !parcel.IsOwnedBy(input.ActorID) && !travel.IsOwnedBy(input.ActorID) {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "создать матч может только отправитель посылки или перевозчик")
	}
	if input.SenderID != nil && *input.SenderID != parcel.SenderID {
		return nil, apperror.New(apperror.ErrCodeValidation, "отправитель не совпадает с владельцем посылки")
	}
	if input.CarrierID != nil && *input.CarrierID != travel.CarrierID {
		return nil, apperror.New(apperror.ErrCodeValidation, "перевозчик не совпадает с владельцем поездки")
	}
	if parcel.SenderID == travel.CarrierID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя перевозить собственную посылку")
	}

	rep, err := uc.reputationRepo.FindByUserID(ctx, travel.CarrierID)
	if err != nil {
		return nil, err
	}
	score := uc.scorer.Score(parcel, travel, rep)
	details := uc.scorer.Details(parcel, travel, rep)

	now := uc.collab.Now()
	m, err := entity.NewMatch(entity.NewMatchParams{
		Parcel:     parcel,
		Travel:     travel,
		InitialFee: input.InitialFee,
		Currency:   input.Currency,
		Agreement:  input.Agreement,
		Score:      score.Breakdown(),
		Pricing:    matching.SuggestPricing(parcel, travel),
	}, now)
	if err != nil {
		return nil, err
	}

	if _, err := uc.matchRepo.ExpireStale(ctx, parcel.ID, travel.ID, now); err != nil {
		return nil, err
	}
	existing, err := uc.matchRepo.FindActiveByPair(ctx, parcel.ID, travel.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.ErrActiveMatchExists
	}

	if err := uc.matchRepo.Create(ctx, m); err != nil {
		return nil, err
	}

	log := logger.Log.WithFields(matchFields(m))
	log.WithField("score", m.Score.Total).Info("матч предложен")

	if input.IdempotencyKey != "" && uc.collab.Idempotency != nil {
		if err := uc.collab.Idempotency.Remember(ctx, scopeFor(input.ActorID), input.IdempotencyKey, m.ID); err != nil {
			log.WithError(err).Warn("не удалось сохранить ключ идемпотентности")
		}
	}
	if err := uc.collab.Scheduler.ScheduleExpiry(ctx, m.ID, m.ExpiresAt); err != nil {
		log.WithError(err).Warn("не удалось запланировать истечение матча")
	}
	uc.collab.announce(ctx, repository.EventMatchProposed, m, &input.ActorID)

	return &CreateMatchResult{Match: m, Details: &details}, nil
}

func scopeFor(actorID uuid.UUID) string {
	return idempotencyScope + ":" + actorID.String()
}

// replay возвращает ранее созданный матч, если ключ уже использовался.
func (uc *CreateMatchUseCase) replay(ctx context.Context, input CreateMatchInput) (*CreateMatchResult, error) {
	if input.IdempotencyKey == "" || uc.collab.Idempotency == nil {
		return nil, nil
	}
	id, ok, err := uc.collab.Idempotency.Lookup(ctx, scopeFor(input.ActorID), input.IdempotencyKey)
	if err != nil {
		logger.Log.WithError(err).Warn("хранилище идемпотентности недоступно")
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	m, err := uc.matchRepo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &CreateMatchResult{Match: m, Replayed: true}, nil
}
