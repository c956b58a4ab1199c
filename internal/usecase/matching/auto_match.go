package matching

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/match"
)

type AutoMatchUseCase struct {
	finder      *FindMatchesUseCase
	createMatch *match.CreateMatchUseCase
}

func NewAutoMatchUseCase(finder *FindMatchesUseCase, createMatch *match.CreateMatchUseCase) *AutoMatchUseCase {
	return &AutoMatchUseCase{
		finder:      finder,
		createMatch: createMatch,
	}
}

// Suggest лучшие кандидаты с баллом не ниже порога, без записи.
func (uc *AutoMatchUseCase) Suggest(ctx context.Context, parcelID uuid.UUID, criteria Criteria) ([]Candidate, error) {
	parcel, err := uc.finder.parcelRepo.FindByID(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	return uc.suggest(ctx, parcel, criteria)
}

func (uc *AutoMatchUseCase) suggest(ctx context.Context, parcel *entity.Parcel, criteria Criteria) ([]Candidate, error) {
	if parcel.Status != valueobject.ParcelStatusPending {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "автоподбор доступен только для ожидающей посылки")
	}
	criteria.Limit = 0
	candidates, err := uc.finder.forParcel(ctx, parcel, criteria)
	if err != nil {
		return nil, err
	}

	cfg := uc.finder.cfg
	result := make([]Candidate, 0, cfg.AutoMatchLimit)
	for _, c := range candidates {
		if c.Score.Total < cfg.AutoMatchMinScore {
			// кандидаты отсортированы по убыванию балла
			break
		}
		result = append(result, c)
		if len(result) == cfg.AutoMatchLimit {
			break
		}
	}
	return result, nil
}

// Propose создаёт предложения по кандидатам автоподбора. Пары, у которых
// уже есть активный матч, пропускаются.
func (uc *AutoMatchUseCase) Propose(ctx context.Context, actorID, parcelID uuid.UUID, criteria Criteria) ([]*entity.Match, error) {
	parcel, err := uc.finder.parcelRepo.FindByID(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	if !parcel.IsOwnedBy(actorID) {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "автоподбор доступен только отправителю посылки")
	}
	candidates, err := uc.suggest(ctx, parcel, criteria)
	if err != nil {
		return nil, err
	}

	created := make([]*entity.Match, 0, len(candidates))
	for _, c := range candidates {
		res, err := uc.createMatch.Execute(ctx, match.CreateMatchInput{
			ActorID:    actorID,
			ParcelID:   parcel.ID,
			TravelID:   c.Travel.ID,
			InitialFee: initialFee(c.Pricing, parcel.DeclaredValue),
			Currency:   parcel.Currency,
		})
		if err != nil {
			if apperror.IsConflict(err) || apperror.IsInvalidState(err) || apperror.IsValidation(err) {
				logger.Log.WithField("parcel_id", parcel.ID).WithField("travel_id", c.Travel.ID).
					WithError(err).Info("кандидат автоподбора пропущен")
				continue
			}
			return created, err
		}
		created = append(created, res.Match)
	}
	return created, nil
}

// initialFee рекомендуемая цена, не выше потолка стоимости посылки.
func initialFee(p entity.Pricing, declaredValue float64) float64 {
	return valueobject.RoundMoney(math.Min(p.SuggestedFee, valueobject.MaxAcceptableFee(declaredValue)))
}
