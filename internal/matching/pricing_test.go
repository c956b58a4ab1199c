package matching

import (
	"testing"

	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/stretchr/testify/assert"
)

func TestEstimateFee(t *testing.T) {
	p := testParcel()
	tr := testTravel()
	assert.Equal(t, 20.0, EstimateFee(p, tr))

	p.SpecialHandling = []valueobject.SpecialHandling{valueobject.HandlingFragile}
	assert.Equal(t, 22.0, EstimateFee(p, tr))

	p.InsuranceRequired = true
	assert.Equal(t, 25.0, EstimateFee(p, tr))

	amount := 10.0
	p.InsuranceAmount = &amount
	assert.Equal(t, 32.0, EstimateFee(p, tr))
}

func TestEstimateFee_LongDistance(t *testing.T) {
	p := testParcel()
	tr := testTravel()
	tr.Departure.Coordinates = &valueobject.Coordinates{Latitude: 55.7558, Longitude: 37.6173}
	tr.Arrival.Coordinates = &valueobject.Coordinates{Latitude: 52.52, Longitude: 13.405}

	assert.Equal(t, 21.0, EstimateFee(p, tr))
}

func TestHaversineKm(t *testing.T) {
	moscow := valueobject.Coordinates{Latitude: 55.7558, Longitude: 37.6173}
	berlin := valueobject.Coordinates{Latitude: 52.52, Longitude: 13.405}

	assert.InDelta(t, 1608, HaversineKm(moscow, berlin), 10)
	assert.Equal(t, 0.0, HaversineKm(moscow, moscow))
}

func TestSuggestPricing(t *testing.T) {
	p := testParcel()
	tr := testTravel()

	got := SuggestPricing(p, tr)
	assert.Equal(t, 18.0, got.MinFee)
	assert.Equal(t, 22.5, got.MaxFee)
	assert.Equal(t, 20.25, got.SuggestedFee)

	p.DeclaredValue = 1000
	got = SuggestPricing(p, tr)
	assert.Equal(t, 24.0, got.MaxFee)
	assert.Equal(t, 21.0, got.SuggestedFee)
}

func TestScorer_Details(t *testing.T) {
	s := NewDefaultScorer()
	p := testParcel()
	tr := testTravel()
	rep := reputation(4.5, 12)
	rep.CompletedDeliveries = 10
	rep.SuccessfulDeliveries = 9

	d := s.Details(p, tr, rep)

	assert.False(t, d.Route.Departure)
	assert.True(t, d.Route.Arrival)
	assert.Nil(t, d.Route.DistanceKm)
	assert.True(t, d.Capacity.Weight)
	assert.True(t, d.Timing.CanMeetDeadline)
	assert.Equal(t, 2, d.Timing.BufferDays)
	assert.Equal(t, 22.5, d.Price.MaxAcceptableFee)
	assert.True(t, d.Price.IsAffordable)
	assert.Equal(t, 4.5, d.Carrier.Rating)
	assert.Equal(t, 0.9, d.Carrier.SuccessRate)
}

func TestScorer_DetailsAffordableAtExactCap(t *testing.T) {
	p := testParcel()
	p.DeclaredValue = 18
	tr := testTravel()
	tr.BaseDeliveryFee = 2.7

	d := NewDefaultScorer().Details(p, tr, nil)

	assert.Equal(t, 2.7, d.Price.MaxAcceptableFee)
	assert.True(t, d.Price.IsAffordable)
}
