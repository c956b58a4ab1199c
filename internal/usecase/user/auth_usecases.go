package user

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/ignatzorin/crowdship-backend/internal/service"
	"github.com/ignatzorin/crowdship-backend/internal/validation"
)

// TokenIssuer выпуск и проверка JWT.
type TokenIssuer interface {
	GeneratePair(user *entity.User) (*service.TokenPair, error)
	ParseRefresh(token string) (uuid.UUID, error)
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Roles       []valueobject.UserRole
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthResult итог регистрации или входа.
type AuthResult struct {
	User   *entity.User
	Tokens *service.TokenPair
}

type AuthUseCases struct {
	userRepo   repository.UserRepository
	tokens     TokenIssuer
	now        func() time.Time
	bcryptCost int
}

func NewAuthUseCases(userRepo repository.UserRepository, tokens TokenIssuer, now func() time.Time) *AuthUseCases {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &AuthUseCases{userRepo: userRepo, tokens: tokens, now: now, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost понижает стоимость хеширования в тестах.
func (uc *AuthUseCases) WithBcryptCost(cost int) *AuthUseCases {
	uc.bcryptCost = cost
	return uc
}

// Register роль admin через регистрацию не выдаётся.
func (uc *AuthUseCases) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := validation.ValidateEmail(input.Email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateDisplayName(input.DisplayName); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	roles, err := normalizeRoles(input.Roles)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), uc.bcryptCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}

	user := entity.NewUser(input.Email, input.DisplayName, string(hash), roles, uc.now())
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Log.WithField("user_id", user.ID).Info("пользователь зарегистрирован")

	return uc.issue(user)
}

func (uc *AuthUseCases) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := uc.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}
	return uc.issue(user)
}

// Refresh выпускает новую пару по действующему refresh токену.
func (uc *AuthUseCases) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := uc.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "недействительный refresh токен")
	}
	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}
	return uc.issue(user)
}

func (uc *AuthUseCases) issue(user *entity.User) (*AuthResult, error) {
	tokens, err := uc.tokens.GeneratePair(user)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токены")
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

func normalizeRoles(roles []valueobject.UserRole) ([]valueobject.UserRole, error) {
	if len(roles) == 0 {
		return []valueobject.UserRole{valueobject.RoleSender}, nil
	}
	seen := make(map[valueobject.UserRole]bool, len(roles))
	result := make([]valueobject.UserRole, 0, len(roles))
	for _, r := range roles {
		if r != valueobject.RoleSender && r != valueobject.RoleCarrier {
			return nil, apperror.Newf(apperror.ErrCodeValidation, "роль %q недоступна при регистрации", r)
		}
		if !seen[r] {
			seen[r] = true
			result = append(result, r)
		}
	}
	return result, nil
}
