package travel_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/travel"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/usecasetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Silence()
}

var start = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func TestCreateTravel(t *testing.T) {
	repo := usecasetest.NewTravelRepository()
	clock := usecasetest.NewClock(start)
	uc := travel.NewCreateTravelUseCase(repo, clock.Now)
	carrierID := uuid.New()

	params := entity.NewTravelParams{
		CarrierID:         carrierID,
		Departure:         valueobject.Location{City: "Moscow", Country: "RU"},
		Arrival:           valueobject.Location{City: "Berlin", Country: "DE"},
		TravelMode:        valueobject.TravelModeAir,
		DepartureDate:     start.Add(24 * time.Hour),
		ArrivalDate:       start.Add(48 * time.Hour),
		AvailableCapacity: entity.Capacity{Weight: 8, Volume: 3000},
		BaseDeliveryFee:   19.999,
	}

	tr, err := uc.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, valueobject.TravelStatusPlanned, tr.Status)
	assert.Equal(t, 20.0, tr.BaseDeliveryFee)
	assert.Equal(t, valueobject.DefaultCurrency, tr.Currency)

	stored, err := repo.FindByID(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, carrierID, stored.CarrierID)
}

func TestCreateTravel_Validation(t *testing.T) {
	uc := travel.NewCreateTravelUseCase(usecasetest.NewTravelRepository(), nil)
	base := entity.NewTravelParams{
		CarrierID:         uuid.New(),
		DepartureDate:     start.Add(48 * time.Hour),
		ArrivalDate:       start.Add(24 * time.Hour),
		AvailableCapacity: entity.Capacity{Weight: 5},
	}

	_, err := uc.Execute(context.Background(), base)
	assert.True(t, apperror.IsValidation(err))

	base.ArrivalDate = start.Add(72 * time.Hour)
	base.AvailableCapacity.Weight = 0
	_, err = uc.Execute(context.Background(), base)
	assert.True(t, apperror.IsValidation(err))

	base.AvailableCapacity.Weight = 5
	base.BaseDeliveryFee = -1
	_, err = uc.Execute(context.Background(), base)
	assert.True(t, apperror.IsValidation(err))
}

func TestGetTravel_TotalsFromLedger(t *testing.T) {
	repo := usecasetest.NewTravelRepository()
	bookings := usecasetest.NewBookingRepository()
	tr := usecasetest.Travel(uuid.New(), start)
	repo.Put(tr)

	for _, weight := range []float64{1.5, 2.5} {
		p := usecasetest.Parcel(uuid.New(), start)
		p.Weight = weight
		m := &entity.Match{ID: uuid.New(), TravelID: tr.ID, ParcelID: p.ID}
		require.NoError(t, bookings.Create(context.Background(), entity.NewTravelBooking(m, p, start)))
	}

	got, err := travel.NewGetTravelUseCase(repo, bookings).Execute(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Totals.TotalParcels)
	assert.Equal(t, 4.0, got.Totals.TotalWeight)
	assert.Equal(t, 300.0, got.Totals.TotalValue)

	_, err = travel.NewGetTravelUseCase(repo, bookings).Execute(context.Background(), uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestListTravels(t *testing.T) {
	repo := usecasetest.NewTravelRepository()
	bookings := usecasetest.NewBookingRepository()
	for i := 0; i < 3; i++ {
		tr := usecasetest.Travel(uuid.New(), start)
		tr.DepartureDate = start.Add(time.Duration(i+1) * time.Hour)
		repo.Put(tr)
	}
	sea := usecasetest.Travel(uuid.New(), start)
	sea.TravelMode = valueobject.TravelModeSea
	repo.Put(sea)

	uc := travel.NewListTravelsUseCase(repo, bookings)
	air := valueobject.TravelModeAir
	items, total, err := uc.Execute(context.Background(), travel.ListTravelsInput{TravelMode: &air, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.True(t, items[0].DepartureDate.Before(items[1].DepartureDate))
	assert.Equal(t, 2, repo.LastFilter.Limit)

	_, _, err = uc.Execute(context.Background(), travel.ListTravelsInput{MinCapacity: 50})
	require.NoError(t, err)
	assert.Equal(t, 50.0, repo.LastFilter.MinWeight)
	assert.Equal(t, 20, repo.LastFilter.Limit)
}

func TestUpdateTravelStatus(t *testing.T) {
	repo := usecasetest.NewTravelRepository()
	carrierID := uuid.New()
	tr := usecasetest.Travel(carrierID, start)
	repo.Put(tr)
	uc := travel.NewUpdateTravelStatusUseCase(repo, nil)

	_, err := uc.Execute(context.Background(), tr.ID, uuid.New(), valueobject.TravelStatusConfirmed)
	assert.True(t, apperror.IsForbidden(err))

	got, err := uc.Execute(context.Background(), tr.ID, carrierID, valueobject.TravelStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, valueobject.TravelStatusInProgress, got.Status)

	_, err = uc.Execute(context.Background(), tr.ID, carrierID, valueobject.TravelStatusPlanned)
	assert.Equal(t, apperror.ErrCodeInvalidState, apperror.CodeOf(err))
}
