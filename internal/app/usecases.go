package app

import (
	"time"

	"github.com/ignatzorin/crowdship-backend/internal/config"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/infrastructure/cache"
	"github.com/ignatzorin/crowdship-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/crowdship-backend/internal/infrastructure/queue"
	scoring "github.com/ignatzorin/crowdship-backend/internal/matching"
	"github.com/ignatzorin/crowdship-backend/internal/service"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/match"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/matching"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/parcel"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/payment"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/rating"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/travel"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/user"
)

type Repositories struct {
	Tx          repository.TxManager
	Users       repository.UserRepository
	Parcels     repository.ParcelRepository
	Travels     repository.TravelRepository
	Bookings    repository.BookingRepository
	Matches     repository.MatchRepository
	Payments    repository.PaymentRepository
	Ratings     repository.RatingRepository
	Reputations repository.ReputationRepository
}

func NewRepositories(infra *Infra) Repositories {
	conn := infra.DB
	return Repositories{
		Tx:          persistence.NewTxManager(conn),
		Users:       persistence.NewUserRepositoryAdapter(conn),
		Parcels:     persistence.NewParcelRepositoryAdapter(conn),
		Travels:     persistence.NewTravelRepositoryAdapter(conn),
		Bookings:    persistence.NewBookingRepositoryAdapter(conn),
		Matches:     persistence.NewMatchRepositoryAdapter(conn),
		Payments:    persistence.NewPaymentRepositoryAdapter(conn),
		Ratings:     persistence.NewRatingRepositoryAdapter(conn),
		Reputations: persistence.NewReputationRepositoryAdapter(conn),
	}
}

type UseCases struct {
	Tokens *service.TokenManager
	Scorer *scoring.Scorer

	Auth    *user.AuthUseCases
	Profile *user.GetProfileUseCase

	CreateParcel *parcel.CreateParcelUseCase
	GetParcel    *parcel.GetParcelUseCase
	ListParcels  *parcel.ListParcelsUseCase
	ParcelStatus *parcel.StatusUseCases
	Tracking     *parcel.AddTrackingEventUseCase
	UploadPhoto  *parcel.UploadPhotoUseCase

	CreateTravel *travel.CreateTravelUseCase
	GetTravel    *travel.GetTravelUseCase
	ListTravels  *travel.ListTravelsUseCase
	TravelStatus *travel.UpdateTravelStatusUseCase

	CreateMatch    *match.CreateMatchUseCase
	GetMatch       *match.GetMatchUseCase
	ListMatches    *match.ListMatchesUseCase
	Negotiate      *match.NegotiateMatchUseCase
	GetNegotiation *match.GetNegotiationUseCase
	AcceptMatch    *match.AcceptMatchUseCase
	RejectMatch    *match.RejectMatchUseCase
	CancelMatch    *match.CancelMatchUseCase
	ExpireMatch    *match.ExpireMatchUseCase

	FindMatches *matching.FindMatchesUseCase
	FindTravels *matching.FindTravelsUseCase
	AutoMatch   *matching.AutoMatchUseCase

	Payments *payment.UseCases

	CreateRating *rating.CreateRatingUseCase
	ListRatings  *rating.ListRatingsUseCase
}

// NewUseCases собирает сценарии поверх репозиториев. notifier может быть
// nil: тогда уведомления доходят до клиентов только через Kafka.
func NewUseCases(cfg *config.Config, infra *Infra, repos Repositories, notifier repository.Notifier) *UseCases {
	now := func() time.Time { return time.Now().UTC() }

	var publisher repository.EventPublisher
	if infra.Publisher != nil {
		publisher = infra.Publisher
	}
	collab := match.Collaborators{
		Publisher: publisher,
		Notifier:  notifier,
		Now:       now,
	}
	if infra.Redis != nil {
		collab.Idempotency = cache.NewIdempotencyStore(infra.Redis, cache.DefaultIdempotencyTTL)
	} else {
		collab.Idempotency = cache.NewMemoryIdempotencyStore(cache.DefaultIdempotencyTTL)
	}
	if infra.Queue != nil {
		collab.Scheduler = queue.NewExpiryScheduler(infra.Queue)
	}

	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	scorer := scoring.NewDefaultScorer()

	uc := &UseCases{
		Tokens: tokens,
		Scorer: scorer,

		Auth:    user.NewAuthUseCases(repos.Users, tokens, now),
		Profile: user.NewGetProfileUseCase(repos.Users, repos.Reputations),

		CreateParcel: parcel.NewCreateParcelUseCase(repos.Parcels, now),
		GetParcel:    parcel.NewGetParcelUseCase(repos.Parcels),
		ListParcels:  parcel.NewListParcelsUseCase(repos.Parcels),
		ParcelStatus: parcel.NewStatusUseCases(parcel.StatusDeps{
			Tx:          repos.Tx,
			Parcels:     repos.Parcels,
			Payments:    repos.Payments,
			Reputations: repos.Reputations,
			Publisher:   publisher,
			Now:         now,
		}),
		Tracking:    parcel.NewAddTrackingEventUseCase(repos.Parcels, infra.Storage, now),
		UploadPhoto: parcel.NewUploadPhotoUseCase(repos.Parcels, infra.Storage),

		CreateTravel: travel.NewCreateTravelUseCase(repos.Travels, now),
		GetTravel:    travel.NewGetTravelUseCase(repos.Travels, repos.Bookings),
		ListTravels:  travel.NewListTravelsUseCase(repos.Travels, repos.Bookings),
		TravelStatus: travel.NewUpdateTravelStatusUseCase(repos.Travels, now),

		CreateMatch:    match.NewCreateMatchUseCase(repos.Parcels, repos.Travels, repos.Matches, repos.Reputations, scorer, collab),
		GetMatch:       match.NewGetMatchUseCase(repos.Matches, collab),
		ListMatches:    match.NewListMatchesUseCase(repos.Matches, collab),
		Negotiate:      match.NewNegotiateMatchUseCase(repos.Matches, repos.Parcels, collab),
		GetNegotiation: match.NewGetNegotiationUseCase(repos.Matches),
		AcceptMatch: match.NewAcceptMatchUseCase(repos.Tx, repos.Matches, repos.Parcels, repos.Travels,
			repos.Bookings, repos.Payments, collab),
		RejectMatch: match.NewRejectMatchUseCase(repos.Matches, collab),
		CancelMatch: match.NewCancelMatchUseCase(repos.Matches, collab),
		ExpireMatch: match.NewExpireMatchUseCase(repos.Matches, collab),

		FindTravels: matching.NewFindTravelsUseCase(repos.Travels, repos.Reputations),

		Payments: payment.NewUseCases(payment.Deps{
			Payments:  repos.Payments,
			Publisher: publisher,
			Notifier:  notifier,
			Now:       now,
		}),

		CreateRating: rating.NewCreateRatingUseCase(repos.Tx, repos.Parcels, repos.Ratings, repos.Reputations, now),
		ListRatings:  rating.NewListRatingsUseCase(repos.Ratings),
	}

	uc.FindMatches = matching.NewFindMatchesUseCase(repos.Parcels, repos.Travels, repos.Reputations, scorer, matching.Config{
		CandidateLimit:    cfg.Matching.CandidateLimit,
		AutoMatchMinScore: cfg.Matching.AutoMatchMinScore,
		AutoMatchLimit:    cfg.Matching.AutoMatchLimit,
	})
	uc.AutoMatch = matching.NewAutoMatchUseCase(uc.FindMatches, uc.CreateMatch)
	return uc
}
