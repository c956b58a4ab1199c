package matching

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	scoring "github.com/ignatzorin/crowdship-backend/internal/matching"
)

// Config ограничения подбора.
type Config struct {
	CandidateLimit    int
	AutoMatchMinScore float64
	AutoMatchLimit    int
}

func DefaultConfig() Config {
	return Config{
		CandidateLimit:    50,
		AutoMatchMinScore: 70,
		AutoMatchLimit:    5,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = d.CandidateLimit
	}
	if c.AutoMatchMinScore <= 0 {
		c.AutoMatchMinScore = d.AutoMatchMinScore
	}
	if c.AutoMatchLimit <= 0 {
		c.AutoMatchLimit = d.AutoMatchLimit
	}
	return c
}

type Criteria struct {
	MaxFee           *float64
	MinRating        *float64
	TravelMode       *valueobject.TravelMode
	DepartureCountry string
	ArrivalCountry   string
	Limit            int
}

// Candidate поездка, подходящая для посылки, с оценкой и пояснением.
type Candidate struct {
	Travel       *entity.Travel
	Carrier      *entity.Reputation
	Score        scoring.Result
	Details      scoring.Details
	Pricing      entity.Pricing
	EstimatedFee float64
}

type FindMatchesUseCase struct {
	parcelRepo     repository.ParcelRepository
	travelRepo     repository.TravelRepository
	reputationRepo repository.ReputationRepository
	scorer         *scoring.Scorer
	cfg            Config
}

func NewFindMatchesUseCase(
	parcelRepo repository.ParcelRepository,
	travelRepo repository.TravelRepository,
	reputationRepo repository.ReputationRepository,
	scorer *scoring.Scorer,
	cfg Config,
) *FindMatchesUseCase {
	return &FindMatchesUseCase{
		parcelRepo:     parcelRepo,
		travelRepo:     travelRepo,
		reputationRepo: reputationRepo,
		scorer:         scorer,
		cfg:            cfg.withDefaults(),
	}
}

func (uc *FindMatchesUseCase) Execute(ctx context.Context, parcelID uuid.UUID, criteria Criteria) ([]Candidate, error) {
	parcel, err := uc.parcelRepo.FindByID(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	return uc.forParcel(ctx, parcel, criteria)
}

func (uc *FindMatchesUseCase) forParcel(ctx context.Context, parcel *entity.Parcel, criteria Criteria) ([]Candidate, error) {
	deadline := parcel.DeliveryDeadline
	travels, _, err := uc.travelRepo.Search(ctx, repository.TravelFilter{
		Statuses:         []valueobject.TravelStatus{valueobject.TravelStatusPlanned, valueobject.TravelStatusConfirmed},
		MinWeight:        parcel.Weight,
		MinVolume:        parcel.Volume,
		DepartureTo:      &deadline,
		MaxFee:           criteria.MaxFee,
		MinRating:        criteria.MinRating,
		TravelMode:       criteria.TravelMode,
		DepartureCountry: criteria.DepartureCountry,
		ArrivalCountry:   criteria.ArrivalCountry,
		ByRating:         true,
		Limit:            uc.cfg.CandidateLimit,
	})
	if err != nil {
		return nil, err
	}

	carrierIDs := make([]uuid.UUID, 0, len(travels))
	for _, t := range travels {
		carrierIDs = append(carrierIDs, t.CarrierID)
	}
	reps, err := uc.reputationRepo.FindByUserIDs(ctx, carrierIDs)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(travels))
	for _, t := range travels {
		// своя поездка не может везти свою посылку
		if t.CarrierID == parcel.SenderID {
			continue
		}
		rep := reps[t.CarrierID]
		candidates = append(candidates, Candidate{
			Travel:       t,
			Carrier:      rep,
			Score:        uc.scorer.Score(parcel, t, rep),
			Details:      uc.scorer.Details(parcel, t, rep),
			Pricing:      scoring.SuggestPricing(parcel, t),
			EstimatedFee: scoring.EstimateFee(parcel, t),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score.Total != candidates[j].Score.Total {
			return candidates[i].Score.Total > candidates[j].Score.Total
		}
		return candidates[i].Travel.DepartureDate.Before(candidates[j].Travel.DepartureDate)
	})

	if criteria.Limit > 0 && len(candidates) > criteria.Limit {
		candidates = candidates[:criteria.Limit]
	}
	return candidates, nil
}
