package payment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/payment"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/usecasetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Silence()
}

var start = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

type env struct {
	repo      *usecasetest.PaymentRepository
	publisher *usecasetest.Publisher
	notifier  *usecasetest.Notifier
	uc        *payment.UseCases
	payment   *entity.Payment
	admin     uuid.UUID
}

func newEnv() *env {
	e := &env{
		repo:      usecasetest.NewPaymentRepository(),
		publisher: &usecasetest.Publisher{},
		notifier:  &usecasetest.Notifier{},
		admin:     uuid.New(),
	}
	e.uc = payment.NewUseCases(payment.Deps{
		Payments:  e.repo,
		Publisher: e.publisher,
		Notifier:  e.notifier,
		Now:       usecasetest.NewClock(start).Now,
	})
	e.payment = &entity.Payment{
		ID:           uuid.New(),
		MatchID:      uuid.New(),
		ParcelID:     uuid.New(),
		SenderID:     uuid.New(),
		CarrierID:    uuid.New(),
		DeliveryFee:  20,
		PlatformFee:  1,
		Amount:       21,
		Currency:     valueobject.DefaultCurrency,
		Status:       valueobject.PaymentStatusPending,
		EscrowStatus: valueobject.EscrowStatusFunded,
		Version:      1,
	}
	e.repo.Put(e.payment)
	return e
}

func TestGet_PartiesOnly(t *testing.T) {
	e := newEnv()

	_, err := e.uc.Get(context.Background(), e.payment.ID, e.payment.SenderID, false)
	assert.NoError(t, err)
	_, err = e.uc.Get(context.Background(), e.payment.ID, e.admin, true)
	assert.NoError(t, err)
	_, err = e.uc.Get(context.Background(), e.payment.ID, uuid.New(), false)
	assert.True(t, apperror.IsForbidden(err))
	_, err = e.uc.Get(context.Background(), uuid.New(), e.admin, true)
	assert.True(t, apperror.IsNotFound(err))
}

func TestList(t *testing.T) {
	e := newEnv()
	other := *e.payment
	other.ID = uuid.New()
	other.MatchID = uuid.New()
	other.SenderID = uuid.New()
	other.Amount = 100
	e.repo.Put(&other)

	mine, total, err := e.uc.List(context.Background(), payment.ListInput{ActorID: e.payment.CarrierID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, mine, 2)

	own, total, err := e.uc.List(context.Background(), payment.ListInput{ActorID: other.SenderID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, other.ID, own[0].ID)

	minAmount := 50.0
	all, _, err := e.uc.List(context.Background(), payment.ListInput{IsAdmin: true, MinAmount: &minAmount})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 100.0, all[0].Amount)

	maxAmount := 10.0
	_, _, err = e.uc.List(context.Background(), payment.ListInput{IsAdmin: true, MinAmount: &minAmount, MaxAmount: &maxAmount})
	assert.True(t, apperror.IsValidation(err))
}

func TestRelease(t *testing.T) {
	e := newEnv()

	_, err := e.uc.Release(context.Background(), payment.ReleaseInput{PaymentID: e.payment.ID, ActorID: e.payment.SenderID})
	assert.True(t, apperror.IsForbidden(err))

	got, err := e.uc.Release(context.Background(), payment.ReleaseInput{PaymentID: e.payment.ID, ActorID: e.admin, IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusReleased, got.EscrowStatus)
	assert.Equal(t, valueobject.PaymentStatusCompleted, got.Status)
	require.NotNil(t, got.ReleaseCondition)
	assert.Equal(t, valueobject.ReleaseManual, *got.ReleaseCondition)
	assert.Equal(t, 2, got.Version)

	require.Len(t, e.publisher.Payments, 1)
	assert.Equal(t, repository.EventPaymentReleased, e.publisher.Payments[0].Type)
	assert.Len(t, e.notifier.Sent, 2)

	_, err = e.uc.Refund(context.Background(), payment.RefundInput{PaymentID: e.payment.ID, ActorID: e.admin, IsAdmin: true})
	assert.Equal(t, apperror.ErrCodeInvalidState, apperror.CodeOf(err))
}

func TestDisputeAndResolve(t *testing.T) {
	e := newEnv()

	_, err := e.uc.Dispute(context.Background(), payment.DisputeInput{PaymentID: e.payment.ID, ActorID: uuid.New(), Reason: valueobject.DisputeDamage})
	assert.True(t, apperror.IsUnauthorized(err))

	got, err := e.uc.Dispute(context.Background(), payment.DisputeInput{
		PaymentID:   e.payment.ID,
		ActorID:     e.payment.SenderID,
		Reason:      valueobject.DisputeDamage,
		Description: " коробка помята ",
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusDisputed, got.EscrowStatus)
	require.NotNil(t, got.Dispute)
	assert.Equal(t, "коробка помята", got.Dispute.Description)

	_, err = e.uc.Release(context.Background(), payment.ReleaseInput{PaymentID: e.payment.ID, ActorID: e.admin, IsAdmin: true})
	assert.Equal(t, apperror.ErrCodeInvalidState, apperror.CodeOf(err))

	got, err = e.uc.Resolve(context.Background(), payment.ResolveInput{
		PaymentID:  e.payment.ID,
		ActorID:    e.admin,
		IsAdmin:    true,
		Resolution: "возврат",
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusRefunded, got.EscrowStatus)
	assert.Equal(t, valueobject.PaymentStatusRefunded, got.Status)
	require.NotNil(t, got.Dispute.ResolvedBy)
	assert.Equal(t, e.admin, *got.Dispute.ResolvedBy)

	types := make([]string, 0, len(e.publisher.Payments))
	for _, ev := range e.publisher.Payments {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{repository.EventPaymentDisputed, repository.EventPaymentRefunded}, types)
}

func TestResolve_ReleaseToCarrier(t *testing.T) {
	e := newEnv()
	_, err := e.uc.Resolve(context.Background(), payment.ResolveInput{PaymentID: e.payment.ID, ActorID: e.admin, IsAdmin: true})
	assert.Equal(t, apperror.ErrCodeInvalidState, apperror.CodeOf(err))

	_, err = e.uc.Dispute(context.Background(), payment.DisputeInput{PaymentID: e.payment.ID, ActorID: e.payment.CarrierID, Reason: valueobject.DisputeOther})
	require.NoError(t, err)

	got, err := e.uc.Resolve(context.Background(), payment.ResolveInput{PaymentID: e.payment.ID, ActorID: e.admin, IsAdmin: true, ReleaseToCarrier: true})
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusReleased, got.EscrowStatus)
}

func TestConcurrentTransitions_SingleWinner(t *testing.T) {
	e := newEnv()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := e.uc.Release(context.Background(), payment.ReleaseInput{PaymentID: e.payment.ID, ActorID: e.admin, IsAdmin: true})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := e.uc.Refund(context.Background(), payment.RefundInput{PaymentID: e.payment.ID, ActorID: e.admin, IsAdmin: true})
		errs <- err
	}()
	wg.Wait()
	close(errs)

	var succeeded int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperror.IsConflict(err) || apperror.IsInvalidState(err))
	}
	assert.Equal(t, 1, succeeded)
}
