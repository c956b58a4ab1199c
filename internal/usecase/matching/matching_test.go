package matching_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	scoring "github.com/ignatzorin/crowdship-backend/internal/matching"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/match"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/matching"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/usecasetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Silence()
}

var start = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	parcels *usecasetest.ParcelRepository
	travels *usecasetest.TravelRepository
	matches *usecasetest.MatchRepository
	reps    *usecasetest.ReputationRepository
	clock   *usecasetest.Clock

	sender uuid.UUID
	parcel *entity.Parcel
}

func newFixture() *fixture {
	f := &fixture{
		parcels: usecasetest.NewParcelRepository(),
		travels: usecasetest.NewTravelRepository(),
		matches: usecasetest.NewMatchRepository(),
		reps:    usecasetest.NewReputationRepository(),
		clock:   usecasetest.NewClock(start),
		sender:  uuid.New(),
	}
	f.parcel = usecasetest.Parcel(f.sender, start)
	f.parcels.Put(f.parcel)
	return f
}

func (f *fixture) addTravel(mutate func(t *entity.Travel)) *entity.Travel {
	t := usecasetest.Travel(uuid.New(), start)
	if mutate != nil {
		mutate(t)
	}
	f.travels.Put(t)
	return t
}

func (f *fixture) finder() *matching.FindMatchesUseCase {
	return matching.NewFindMatchesUseCase(f.parcels, f.travels, f.reps, scoring.NewDefaultScorer(), matching.DefaultConfig())
}

func (f *fixture) autoMatch() *matching.AutoMatchUseCase {
	create := match.NewCreateMatchUseCase(f.parcels, f.travels, f.matches, f.reps, scoring.NewDefaultScorer(),
		match.Collaborators{Now: f.clock.Now})
	return matching.NewAutoMatchUseCase(f.finder(), create)
}

func tightCapacity(t *entity.Travel) {
	t.AvailableCapacity = entity.Capacity{Weight: 3, Volume: 1200}
}

func TestFindMatches_HardConstraintsAndOrder(t *testing.T) {
	f := newFixture()
	best := f.addTravel(tightCapacity)
	loose := f.addTravel(nil)
	f.addTravel(func(t *entity.Travel) { t.AvailableCapacity.Weight = 2 })
	f.addTravel(func(t *entity.Travel) { t.AvailableCapacity.Volume = 500 })
	f.addTravel(func(t *entity.Travel) {
		t.DepartureDate = f.parcel.DeliveryDeadline.Add(time.Hour)
		t.ArrivalDate = t.DepartureDate.Add(time.Hour)
	})
	f.addTravel(func(t *entity.Travel) { t.Status = valueobject.TravelStatusInProgress })
	f.addTravel(func(t *entity.Travel) { t.CarrierID = f.sender })

	got, err := f.finder().Execute(context.Background(), f.parcel.ID, matching.Criteria{})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, best.ID, got[0].Travel.ID)
	assert.Equal(t, loose.ID, got[1].Travel.ID)
	assert.Equal(t, 76.17, got[0].Score.Total)
	assert.Equal(t, 57.42, got[1].Score.Total)
	assert.Equal(t, 20.0, got[0].EstimatedFee)
	assert.Equal(t, 20.25, got[0].Pricing.SuggestedFee)
	assert.Equal(t, 50, f.travels.LastFilter.Limit)
	assert.True(t, f.travels.LastFilter.ByRating)
}

func TestFindMatches_TiesByEarlierDeparture(t *testing.T) {
	f := newFixture()
	later := f.addTravel(func(t *entity.Travel) { t.DepartureDate = start.Add(36 * time.Hour) })
	earlier := f.addTravel(nil)

	got, err := f.finder().Execute(context.Background(), f.parcel.ID, matching.Criteria{})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, got[0].Score.Total, got[1].Score.Total)
	assert.Equal(t, earlier.ID, got[0].Travel.ID)
	assert.Equal(t, later.ID, got[1].Travel.ID)
}

func TestFindMatches_Filters(t *testing.T) {
	f := newFixture()
	f.addTravel(nil)
	sea := f.addTravel(func(t *entity.Travel) {
		t.TravelMode = valueobject.TravelModeSea
		t.BaseDeliveryFee = 10
	})

	maxFee := 15.0
	got, err := f.finder().Execute(context.Background(), f.parcel.ID, matching.Criteria{MaxFee: &maxFee})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sea.ID, got[0].Travel.ID)

	mode := valueobject.TravelModeSea
	got, err = f.finder().Execute(context.Background(), f.parcel.ID, matching.Criteria{TravelMode: &mode, DepartureCountry: "FR"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.finder().Execute(context.Background(), f.parcel.ID, matching.Criteria{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFindMatches_ParcelNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.finder().Execute(context.Background(), uuid.New(), matching.Criteria{})
	assert.True(t, apperror.IsNotFound(err))
}

func TestAutoMatch_SuggestKeepsHighScores(t *testing.T) {
	f := newFixture()
	best := f.addTravel(tightCapacity)
	f.addTravel(nil)

	got, err := f.autoMatch().Suggest(context.Background(), f.parcel.ID, matching.Criteria{})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, best.ID, got[0].Travel.ID)
	assert.GreaterOrEqual(t, got[0].Score.Total, 70.0)
}

func TestAutoMatch_TopFive(t *testing.T) {
	f := newFixture()
	for i := 0; i < 7; i++ {
		f.addTravel(tightCapacity)
	}

	got, err := f.autoMatch().Suggest(context.Background(), f.parcel.ID, matching.Criteria{})
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestAutoMatch_RequiresPendingParcel(t *testing.T) {
	f := newFixture()
	f.parcel.Status = valueobject.ParcelStatusMatched
	f.parcels.Put(f.parcel)

	_, err := f.autoMatch().Suggest(context.Background(), f.parcel.ID, matching.Criteria{})
	assert.Equal(t, apperror.ErrCodeInvalidState, apperror.CodeOf(err))
}

func TestAutoMatch_ProposeCreatesOnce(t *testing.T) {
	f := newFixture()
	best := f.addTravel(tightCapacity)

	created, err := f.autoMatch().Propose(context.Background(), f.sender, f.parcel.ID, matching.Criteria{})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, best.ID, created[0].TravelID)
	assert.Equal(t, 20.25, created[0].Negotiation.InitialFee)

	again, err := f.autoMatch().Propose(context.Background(), f.sender, f.parcel.ID, matching.Criteria{})
	require.NoError(t, err)
	assert.Empty(t, again)

	_, err = f.autoMatch().Propose(context.Background(), uuid.New(), f.parcel.ID, matching.Criteria{})
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestAutoMatch_ProposeCapsFee(t *testing.T) {
	f := newFixture()
	f.addTravel(func(t *entity.Travel) {
		tightCapacity(t)
		t.Departure = valueobject.Location{City: "Berlin", Country: "DE"}
		t.BaseDeliveryFee = 22
	})

	created, err := f.autoMatch().Propose(context.Background(), f.sender, f.parcel.ID, matching.Criteria{})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.LessOrEqual(t, created[0].Negotiation.InitialFee, 22.5)
}

func TestFindTravels_Pagination(t *testing.T) {
	f := newFixture()
	carrierA, carrierB := uuid.New(), uuid.New()
	f.addTravel(func(t *entity.Travel) { t.CarrierID = carrierA })
	f.addTravel(func(t *entity.Travel) { t.CarrierID = carrierB })
	f.addTravel(func(t *entity.Travel) { t.Status = valueobject.TravelStatusCancelled })
	f.travels.Ratings[carrierB] = 4.8
	f.reps.Put(&entity.Reputation{UserID: carrierB, RatingSum: 48, TotalReviews: 10})

	uc := matching.NewFindTravelsUseCase(f.travels, f.reps)
	got, total, err := uc.Execute(context.Background(), matching.TravelCriteria{ArrivalCountry: "DE", Limit: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, total)
	require.Len(t, got, 1)
	assert.Equal(t, carrierB, got[0].Travel.CarrierID)
	require.NotNil(t, got[0].Carrier)
	assert.Equal(t, 10, got[0].Carrier.TotalReviews)
	assert.Equal(t, 20.0, got[0].EstimatedDeliveryFee)

	page2, _, err := uc.Execute(context.Background(), matching.TravelCriteria{ArrivalCountry: "DE", Limit: 1, Page: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, carrierA, page2[0].Travel.CarrierID)
	assert.Nil(t, page2[0].Carrier)
}
