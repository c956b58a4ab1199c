package parcel_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/parcel"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/usecasetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Silence()
}

var start = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

type env struct {
	parcels   *usecasetest.ParcelRepository
	payments  *usecasetest.PaymentRepository
	reps      *usecasetest.ReputationRepository
	publisher *usecasetest.Publisher
	storage   *usecasetest.PhotoStorage
	clock     *usecasetest.Clock
	status    *parcel.StatusUseCases

	sender  uuid.UUID
	carrier uuid.UUID
}

func newEnv() *env {
	e := &env{
		parcels:   usecasetest.NewParcelRepository(),
		payments:  usecasetest.NewPaymentRepository(),
		reps:      usecasetest.NewReputationRepository(),
		publisher: &usecasetest.Publisher{},
		storage:   &usecasetest.PhotoStorage{},
		clock:     usecasetest.NewClock(start),
		sender:    uuid.New(),
		carrier:   uuid.New(),
	}
	e.status = parcel.NewStatusUseCases(parcel.StatusDeps{
		Tx:          usecasetest.NewTxManager(e.parcels, e.payments, e.reps),
		Parcels:     e.parcels,
		Payments:    e.payments,
		Reputations: e.reps,
		Publisher:   e.publisher,
		Now:         e.clock.Now,
	})
	return e
}

// matched посылка, закреплённая за перевозчиком, с зарезервированным платежом.
func (e *env) matched() (*entity.Parcel, *entity.Payment) {
	p := usecasetest.Parcel(e.sender, start)
	travelID := uuid.New()
	fee, platform, total := 15.0, 0.75, 15.75
	p.Status = valueobject.ParcelStatusMatched
	p.MatchedTravelID = &travelID
	p.MatchedCarrierID = &e.carrier
	p.AgreedDeliveryFee = &fee
	p.PlatformFee = &platform
	p.TotalAmount = &total
	e.parcels.Put(p)

	pay := &entity.Payment{
		ID:           uuid.New(),
		MatchID:      uuid.New(),
		ParcelID:     p.ID,
		SenderID:     e.sender,
		CarrierID:    e.carrier,
		DeliveryFee:  fee,
		PlatformFee:  platform,
		Amount:       total,
		Currency:     "USD",
		Status:       valueobject.PaymentStatusPending,
		EscrowStatus: valueobject.EscrowStatusFunded,
		Version:      1,
	}
	e.payments.Put(pay)
	return p, pay
}

func TestCreateParcel(t *testing.T) {
	e := newEnv()
	uc := parcel.NewCreateParcelUseCase(e.parcels, e.clock.Now)

	p, err := uc.Execute(context.Background(), entity.NewParcelParams{
		SenderID:         e.sender,
		Recipient:        entity.Recipient{Name: "Анна", PhoneNumber: "+4930000", Address: valueobject.Address{City: "Berlin", Country: "DE"}},
		Description:      "Книги",
		Category:         valueobject.CategoryBooks,
		Dimensions:       entity.Dimensions{Length: 20, Width: 10, Height: 5},
		Weight:           1.2,
		DeclaredValue:    80,
		DeliveryDeadline: start.Add(72 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, valueobject.ParcelStatusPending, p.Status)
	assert.Equal(t, 1000.0, p.Volume)
	assert.Equal(t, "USD", p.Currency)
	require.Len(t, p.TrackingEvents, 1)
	assert.Equal(t, valueobject.TrackingCreated, p.TrackingEvents[0].Event)
	assert.NotNil(t, e.parcels.Stored(p.ID))
}

func TestCreateParcel_Validation(t *testing.T) {
	e := newEnv()
	uc := parcel.NewCreateParcelUseCase(e.parcels, e.clock.Now)
	valid := entity.NewParcelParams{
		SenderID:         e.sender,
		Recipient:        entity.Recipient{Name: "Анна", PhoneNumber: "+4930000"},
		Description:      "Книги",
		Dimensions:       entity.Dimensions{Length: 1, Width: 1, Height: 1},
		Weight:           1,
		DeclaredValue:    10,
		DeliveryDeadline: start.Add(time.Hour),
	}

	cases := map[string]func(p *entity.NewParcelParams){
		"нулевой вес":       func(p *entity.NewParcelParams) { p.Weight = 0 },
		"нулевая стоимость": func(p *entity.NewParcelParams) { p.DeclaredValue = 0 },
		"срок в прошлом":    func(p *entity.NewParcelParams) { p.DeliveryDeadline = start.Add(-time.Hour) },
		"нет получателя":    func(p *entity.NewParcelParams) { p.Recipient.Name = "" },
		"нет габаритов":     func(p *entity.NewParcelParams) { p.Dimensions.Height = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			params := valid
			mutate(&params)
			_, err := uc.Execute(context.Background(), params)
			assert.True(t, apperror.IsValidation(err))
		})
	}
}

func TestGetParcel_Visibility(t *testing.T) {
	e := newEnv()
	pending := usecasetest.Parcel(e.sender, start)
	e.parcels.Put(pending)
	matched, _ := e.matched()
	uc := parcel.NewGetParcelUseCase(e.parcels)

	_, err := uc.Execute(context.Background(), pending.ID, uuid.New(), false)
	assert.NoError(t, err)

	_, err = uc.Execute(context.Background(), matched.ID, uuid.New(), false)
	assert.True(t, apperror.IsForbidden(err))

	_, err = uc.Execute(context.Background(), matched.ID, e.carrier, false)
	assert.NoError(t, err)
}

func TestListParcels(t *testing.T) {
	e := newEnv()
	e.parcels.Put(usecasetest.Parcel(e.sender, start))
	e.parcels.Put(usecasetest.Parcel(uuid.New(), start))
	e.matched()
	uc := parcel.NewListParcelsUseCase(e.parcels)

	mine, total, err := uc.Execute(context.Background(), parcel.ListParcelsInput{ActorID: e.sender})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, mine, 2)

	carried, total, err := uc.Execute(context.Background(), parcel.ListParcelsInput{ActorID: e.carrier, AsCarrier: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, e.sender, carried[0].SenderID)
}

func TestCancel_RefundsEscrow(t *testing.T) {
	e := newEnv()
	p, pay := e.matched()

	got, err := e.status.Cancel(context.Background(), parcel.StatusInput{ParcelID: p.ID, ActorID: e.sender})
	require.NoError(t, err)
	assert.Equal(t, valueobject.ParcelStatusCancelled, got.Status)

	stored, err := e.payments.FindByID(context.Background(), pay.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusRefunded, stored.EscrowStatus)
	require.Len(t, e.publisher.Payments, 1)
}

func TestCancel_OnlyOwner(t *testing.T) {
	e := newEnv()
	p, _ := e.matched()

	_, err := e.status.Cancel(context.Background(), parcel.StatusInput{ParcelID: p.ID, ActorID: e.carrier})
	assert.True(t, apperror.IsForbidden(err))
}

func TestDeliveryFlow(t *testing.T) {
	e := newEnv()
	p, pay := e.matched()

	_, err := e.status.Deliver(context.Background(), parcel.StatusInput{ParcelID: p.ID, ActorID: e.carrier})
	assert.Equal(t, apperror.ErrCodeInvalidState, apperror.CodeOf(err))

	_, err = e.status.PickUp(context.Background(), parcel.StatusInput{ParcelID: p.ID, ActorID: e.sender})
	assert.True(t, apperror.IsForbidden(err))

	got, err := e.status.PickUp(context.Background(), parcel.StatusInput{ParcelID: p.ID, ActorID: e.carrier, City: "Moscow"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.ParcelStatusInTransit, got.Status)

	got, err = e.status.Deliver(context.Background(), parcel.StatusInput{ParcelID: p.ID, ActorID: e.sender})
	require.NoError(t, err)
	assert.Equal(t, valueobject.ParcelStatusDelivered, got.Status)

	stored, err := e.payments.FindByID(context.Background(), pay.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusReleased, stored.EscrowStatus)
	assert.Equal(t, valueobject.PaymentStatusCompleted, stored.Status)
	require.NotNil(t, stored.ReleaseCondition)
	assert.Equal(t, valueobject.ReleaseDeliveryConfirmed, *stored.ReleaseCondition)

	rep, err := e.reps.FindByUserID(context.Background(), e.carrier)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.CompletedDeliveries)
	assert.Equal(t, 1, rep.SuccessfulDeliveries)

	events := e.parcels.Stored(p.ID).TrackingEvents
	require.Len(t, events, 2)
	assert.Equal(t, valueobject.TrackingPickedUp, events[0].Event)
	assert.Equal(t, valueobject.TrackingDelivered, events[1].Event)
}

func TestMarkLost_AdminOnly(t *testing.T) {
	e := newEnv()
	p, _ := e.matched()
	_, err := e.status.PickUp(context.Background(), parcel.StatusInput{ParcelID: p.ID, ActorID: e.carrier})
	require.NoError(t, err)

	_, err = e.status.MarkLost(context.Background(), parcel.StatusInput{ParcelID: p.ID, ActorID: e.sender})
	assert.True(t, apperror.IsForbidden(err))

	got, err := e.status.MarkLost(context.Background(), parcel.StatusInput{ParcelID: p.ID, ActorID: uuid.New(), IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, valueobject.ParcelStatusLost, got.Status)

	rep, err := e.reps.FindByUserID(context.Background(), e.carrier)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.CompletedDeliveries)
	assert.Equal(t, 0, rep.SuccessfulDeliveries)
}

func TestAddTrackingEvent_WithPhoto(t *testing.T) {
	e := newEnv()
	p, _ := e.matched()
	uc := parcel.NewAddTrackingEventUseCase(e.parcels, e.storage, e.clock.Now)

	ev, err := uc.Execute(context.Background(), parcel.AddTrackingEventInput{
		ParcelID: p.ID,
		ActorID:  e.carrier,
		Event:    valueobject.TrackingInTransit,
		City:     "Warsaw",
		Photo:    &parcel.Upload{Reader: strings.NewReader("jpeg"), Size: 4},
	})
	require.NoError(t, err)
	require.Len(t, ev.PhotoKeys, 1)
	assert.True(t, strings.HasPrefix(ev.PhotoKeys[0], "tracking/"+p.ID.String()))

	_, err = uc.Execute(context.Background(), parcel.AddTrackingEventInput{ParcelID: p.ID, ActorID: e.sender, Event: valueobject.TrackingInTransit})
	assert.True(t, apperror.IsForbidden(err))
}

func TestUploadPhoto(t *testing.T) {
	e := newEnv()
	p := usecasetest.Parcel(e.sender, start)
	e.parcels.Put(p)
	uc := parcel.NewUploadPhotoUseCase(e.parcels, e.storage)

	url, err := uc.Execute(context.Background(), p.ID, e.sender, parcel.Upload{Reader: strings.NewReader("png"), Size: 3})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/parcels/"))
	assert.Len(t, e.parcels.Stored(p.ID).PhotoKeys, 1)

	_, err = uc.Execute(context.Background(), p.ID, uuid.New(), parcel.Upload{Reader: strings.NewReader("png"), Size: 3})
	assert.True(t, apperror.IsForbidden(err))
}
