package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const userColumns = `id, email, display_name, password_hash, roles, created_at, updated_at`

type userRow struct {
	ID           uuid.UUID      `db:"id"`
	Email        string         `db:"email"`
	DisplayName  string         `db:"display_name"`
	PasswordHash string         `db:"password_hash"`
	Roles        pq.StringArray `db:"roles"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r userRow) toEntity() *entity.User {
	roles := make([]valueobject.UserRole, 0, len(r.Roles))
	for _, role := range r.Roles {
		roles = append(roles, valueobject.UserRole(role))
	}
	return &entity.User{
		ID:           r.ID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		PasswordHash: r.PasswordHash,
		Roles:        roles,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type UserRepositoryAdapter struct {
	db *sqlx.DB
}

func NewUserRepositoryAdapter(db *sqlx.DB) *UserRepositoryAdapter {
	return &UserRepositoryAdapter{db: db}
}

func (r *UserRepositoryAdapter) Create(ctx context.Context, u *entity.User) error {
	roles := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		roles = append(roles, string(role))
	}
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Email, u.DisplayName, u.PasswordHash, textArray(roles), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return dbError(err, "не удалось создать пользователя", apperror.ErrEmailAlreadyExists)
	}
	return nil
}

func (r *UserRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var row userRow
	if err := conn(ctx, r.db).GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, apperror.ErrUserNotFound, "не удалось получить пользователя")
	}
	return row.toEntity(), nil
}

func (r *UserRepositoryAdapter) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var row userRow
	err := conn(ctx, r.db).GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, notFoundOr(err, apperror.ErrUserNotFound, "не удалось получить пользователя")
	}
	return row.toEntity(), nil
}
