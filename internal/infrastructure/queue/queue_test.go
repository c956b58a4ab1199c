package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Silence()
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "t"}, nil
}

func optionValue(opts []asynq.Option, typ asynq.OptionType) interface{} {
	for _, o := range opts {
		if o.Type() == typ {
			return o.Value()
		}
	}
	return nil
}

func TestScheduleExpiry(t *testing.T) {
	enq := &fakeEnqueuer{}
	s := NewExpiryScheduler(enq)
	matchID := uuid.New()
	at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.ScheduleExpiry(context.Background(), matchID, at))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TypeMatchExpire, enq.tasks[0].Type())

	var payload ExpirePayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	assert.Equal(t, matchID, payload.MatchID)

	assert.Equal(t, "match:expire:"+matchID.String(), optionValue(enq.opts[0], asynq.TaskIDOpt))
	assert.Equal(t, at.Add(expirySkew), optionValue(enq.opts[0], asynq.ProcessAtOpt))
}

func TestScheduleExpiry_DuplicateIsNotAnError(t *testing.T) {
	s := NewExpiryScheduler(&fakeEnqueuer{err: asynq.ErrTaskIDConflict})
	assert.NoError(t, s.ScheduleExpiry(context.Background(), uuid.New(), time.Now()))

	s = NewExpiryScheduler(&fakeEnqueuer{err: errors.New("redis down")})
	assert.Error(t, s.ScheduleExpiry(context.Background(), uuid.New(), time.Now()))
}

type mockExpirer struct {
	mock.Mock
}

func (m *mockExpirer) Execute(ctx context.Context, matchID uuid.UUID) (bool, error) {
	args := m.Called(ctx, matchID)
	return args.Bool(0), args.Error(1)
}

func (m *mockExpirer) Sweep(ctx context.Context, batch int) (int, error) {
	args := m.Called(ctx, batch)
	return args.Int(0), args.Error(1)
}

func TestProcessor_Expire(t *testing.T) {
	expirer := &mockExpirer{}
	p := NewProcessor(expirer)
	matchID := uuid.New()
	expirer.On("Execute", mock.Anything, matchID).Return(true, nil).Once()

	task, err := NewExpireTask(matchID)
	require.NoError(t, err)
	require.NoError(t, p.Handler().ProcessTask(context.Background(), task))
	expirer.AssertExpectations(t)
}

func TestProcessor_ExpireErrorIsRetried(t *testing.T) {
	expirer := &mockExpirer{}
	p := NewProcessor(expirer)
	expirer.On("Execute", mock.Anything, mock.Anything).Return(false, errors.New("db down"))

	task, err := NewExpireTask(uuid.New())
	require.NoError(t, err)
	err = p.Handler().ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestProcessor_BadPayloadSkipsRetry(t *testing.T) {
	p := NewProcessor(&mockExpirer{})
	err := p.Handler().ProcessTask(context.Background(), asynq.NewTask(TypeMatchExpire, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestProcessor_Sweep(t *testing.T) {
	expirer := &mockExpirer{}
	p := NewProcessor(expirer)
	expirer.On("Sweep", mock.Anything, 50).Return(3, nil).Once()

	task, err := NewSweepTask(50)
	require.NoError(t, err)
	require.NoError(t, p.Handler().ProcessTask(context.Background(), task))
	expirer.AssertExpectations(t)
}
