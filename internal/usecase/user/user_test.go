package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/ignatzorin/crowdship-backend/internal/service"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/user"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/usecasetest"
)

func init() {
	logger.Silence()
}

type mockTokens struct {
	mock.Mock
}

func (m *mockTokens) GeneratePair(u *entity.User) (*service.TokenPair, error) {
	args := m.Called(u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *mockTokens) ParseRefresh(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

var pair = &service.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: time.Minute}

func newAuth(tokens *mockTokens) (*user.AuthUseCases, *usecasetest.UserRepository) {
	repo := usecasetest.NewUserRepository()
	uc := user.NewAuthUseCases(repo, tokens, nil).WithBcryptCost(bcrypt.MinCost)
	return uc, repo
}

func TestRegister(t *testing.T) {
	tokens := &mockTokens{}
	tokens.On("GeneratePair", mock.Anything).Return(pair, nil)
	uc, repo := newAuth(tokens)

	res, err := uc.Register(context.Background(), user.RegisterInput{
		Email:       " Carrier@Example.com ",
		Password:    "Parcel2026",
		DisplayName: "Пётр",
		Roles:       []valueobject.UserRole{valueobject.RoleCarrier, valueobject.RoleCarrier},
	})
	require.NoError(t, err)
	assert.Equal(t, "carrier@example.com", res.User.Email)
	assert.Equal(t, []valueobject.UserRole{valueobject.RoleCarrier}, res.User.Roles)
	assert.Equal(t, pair, res.Tokens)
	assert.NotEqual(t, "Parcel2026", res.User.PasswordHash)

	stored, err := repo.FindByEmail(context.Background(), "carrier@example.com")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, stored.ID)
	tokens.AssertExpectations(t)
}

func TestRegister_Rejected(t *testing.T) {
	tokens := &mockTokens{}
	tokens.On("GeneratePair", mock.Anything).Return(pair, nil)
	uc, _ := newAuth(tokens)

	valid := user.RegisterInput{Email: "a@example.com", Password: "Parcel2026", DisplayName: "Анна"}
	_, err := uc.Register(context.Background(), valid)
	require.NoError(t, err)

	_, err = uc.Register(context.Background(), valid)
	assert.True(t, apperror.IsConflict(err))

	cases := map[string]user.RegisterInput{
		"плохой email":  {Email: "nope", Password: "Parcel2026", DisplayName: "Анна"},
		"слабый пароль": {Email: "b@example.com", Password: "parcel", DisplayName: "Анна"},
		"нет имени":     {Email: "b@example.com", Password: "Parcel2026"},
		"роль admin":    {Email: "b@example.com", Password: "Parcel2026", DisplayName: "Анна", Roles: []valueobject.UserRole{valueobject.RoleAdmin}},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Register(context.Background(), input)
			assert.True(t, apperror.IsValidation(err), "unexpected error: %v", err)
		})
	}
}

func TestLogin(t *testing.T) {
	tokens := &mockTokens{}
	tokens.On("GeneratePair", mock.Anything).Return(pair, nil)
	uc, _ := newAuth(tokens)
	_, err := uc.Register(context.Background(), user.RegisterInput{Email: "a@example.com", Password: "Parcel2026", DisplayName: "Анна"})
	require.NoError(t, err)

	res, err := uc.Login(context.Background(), user.LoginInput{Email: "A@example.com", Password: "Parcel2026"})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", res.User.Email)

	_, err = uc.Login(context.Background(), user.LoginInput{Email: "a@example.com", Password: "Wrong2026"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = uc.Login(context.Background(), user.LoginInput{Email: "ghost@example.com", Password: "Parcel2026"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	tokens := &mockTokens{}
	tokens.On("GeneratePair", mock.Anything).Return(pair, nil)
	uc, _ := newAuth(tokens)
	reg, err := uc.Register(context.Background(), user.RegisterInput{Email: "a@example.com", Password: "Parcel2026", DisplayName: "Анна"})
	require.NoError(t, err)

	tokens.On("ParseRefresh", "good").Return(reg.User.ID, nil)
	tokens.On("ParseRefresh", "bad").Return(uuid.Nil, errors.New("token is expired"))
	tokens.On("ParseRefresh", "orphan").Return(uuid.New(), nil)

	res, err := uc.Refresh(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)

	_, err = uc.Refresh(context.Background(), "bad")
	assert.True(t, apperror.IsUnauthorized(err))

	_, err = uc.Refresh(context.Background(), "orphan")
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestGetProfile(t *testing.T) {
	users := usecasetest.NewUserRepository()
	reps := usecasetest.NewReputationRepository()
	u := entity.NewUser("c@example.com", "Пётр", "hash", []valueobject.UserRole{valueobject.RoleCarrier}, time.Now())
	require.NoError(t, users.Create(context.Background(), u))
	uc := user.NewGetProfileUseCase(users, reps)

	p, err := uc.Execute(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, p.Reputation.HasHistory())

	require.NoError(t, reps.AddReview(context.Background(), u.ID, 4))
	require.NoError(t, reps.AddReview(context.Background(), u.ID, 5))
	p, err = uc.Execute(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, p.Reputation.Average())

	_, err = uc.Execute(context.Background(), uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}
