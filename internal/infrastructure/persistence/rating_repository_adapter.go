package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const ratingColumns = `id, parcel_id, reviewer_id, reviewed_id, type, overall, communication,
	reliability, punctuality, care, professionalism, title, content, is_public, status,
	published_at, created_at, updated_at`

type ratingRow struct {
	ID              uuid.UUID     `db:"id"`
	ParcelID        uuid.UUID     `db:"parcel_id"`
	ReviewerID      uuid.UUID     `db:"reviewer_id"`
	ReviewedID      uuid.UUID     `db:"reviewed_id"`
	Type            string        `db:"type"`
	Overall         int           `db:"overall"`
	Communication   sql.NullInt32 `db:"communication"`
	Reliability     sql.NullInt32 `db:"reliability"`
	Punctuality     sql.NullInt32 `db:"punctuality"`
	Care            sql.NullInt32 `db:"care"`
	Professionalism sql.NullInt32 `db:"professionalism"`
	Title           string        `db:"title"`
	Content         string        `db:"content"`
	IsPublic        bool          `db:"is_public"`
	Status          string        `db:"status"`
	PublishedAt     time.Time     `db:"published_at"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

func nullableInt(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int32)
	return &n
}

func (r ratingRow) toEntity() *entity.Rating {
	return &entity.Rating{
		ID:         r.ID,
		ParcelID:   r.ParcelID,
		ReviewerID: r.ReviewerID,
		ReviewedID: r.ReviewedID,
		Type:       valueobject.RatingType(r.Type),
		Overall:    r.Overall,
		Detailed: entity.DetailedRatings{
			Communication:   nullableInt(r.Communication),
			Reliability:     nullableInt(r.Reliability),
			Punctuality:     nullableInt(r.Punctuality),
			Care:            nullableInt(r.Care),
			Professionalism: nullableInt(r.Professionalism),
		},
		Title:       r.Title,
		Content:     r.Content,
		IsPublic:    r.IsPublic,
		Status:      r.Status,
		PublishedAt: r.PublishedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type RatingRepositoryAdapter struct {
	db *sqlx.DB
}

func NewRatingRepositoryAdapter(db *sqlx.DB) *RatingRepositoryAdapter {
	return &RatingRepositoryAdapter{db: db}
}

func (r *RatingRepositoryAdapter) Create(ctx context.Context, rt *entity.Rating) error {
	d := rt.Detailed
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO ratings (`+ratingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, rt.ID, rt.ParcelID, rt.ReviewerID, rt.ReviewedID, string(rt.Type), rt.Overall,
		d.Communication, d.Reliability, d.Punctuality, d.Care, d.Professionalism,
		rt.Title, rt.Content, rt.IsPublic, rt.Status, rt.PublishedAt, rt.CreatedAt, rt.UpdatedAt)
	if err != nil {
		return dbError(err, "не удалось сохранить отзыв", apperror.ErrRatingExists)
	}
	return nil
}

func (r *RatingRepositoryAdapter) List(ctx context.Context, f repository.RatingFilter) ([]*entity.Rating, int, error) {
	w := newWhere()
	if f.ReviewedID != nil {
		w.add("reviewed_id = $%d", *f.ReviewedID)
	}
	if f.ReviewerID != nil {
		w.add("reviewer_id = $%d", *f.ReviewerID)
	}
	if f.ParcelID != nil {
		w.add("parcel_id = $%d", *f.ParcelID)
	}
	if f.MinRating != nil {
		w.add("overall >= $%d", *f.MinRating)
	}
	if f.OnlyPublic {
		w.raw("is_public")
	}

	q := conn(ctx, r.db)
	var total int
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM ratings`+w.sql(), w.args...); err != nil {
		return nil, 0, dbError(err, "не удалось посчитать отзывы", nil)
	}

	pageClause, args := w.page(f.Limit, f.Offset)
	var rows []ratingRow
	query := `SELECT ` + ratingColumns + ` FROM ratings` + w.sql() + ` ORDER BY created_at DESC` + pageClause
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, dbError(err, "не удалось получить отзывы", nil)
	}
	result := make([]*entity.Rating, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toEntity())
	}
	return result, total, nil
}

type reputationRow struct {
	UserID               uuid.UUID `db:"user_id"`
	RatingSum            float64   `db:"rating_sum"`
	TotalReviews         int       `db:"total_reviews"`
	CompletedDeliveries  int       `db:"completed_deliveries"`
	SuccessfulDeliveries int       `db:"successful_deliveries"`
	UpdatedAt            time.Time `db:"updated_at"`
}

func (r reputationRow) toEntity() *entity.Reputation {
	rep := entity.Reputation(r)
	return &rep
}

// ReputationRepositoryAdapter агрегат обновляется атомарным UPSERT,
// параллельные отзывы не теряют инкременты.
type ReputationRepositoryAdapter struct {
	db *sqlx.DB
}

func NewReputationRepositoryAdapter(db *sqlx.DB) *ReputationRepositoryAdapter {
	return &ReputationRepositoryAdapter{db: db}
}

func (r *ReputationRepositoryAdapter) AddReview(ctx context.Context, userID uuid.UUID, rating int) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO user_reputation (user_id, rating_sum, total_reviews, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET rating_sum = user_reputation.rating_sum + EXCLUDED.rating_sum,
		    total_reviews = user_reputation.total_reviews + 1,
		    updated_at = NOW()
	`, userID, rating)
	if err != nil {
		return dbError(err, "не удалось обновить репутацию", nil)
	}
	return nil
}

func (r *ReputationRepositoryAdapter) AddDelivery(ctx context.Context, userID uuid.UUID, successful bool) error {
	success := 0
	if successful {
		success = 1
	}
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO user_reputation (user_id, completed_deliveries, successful_deliveries, updated_at)
		VALUES ($1, 1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET completed_deliveries = user_reputation.completed_deliveries + 1,
		    successful_deliveries = user_reputation.successful_deliveries + EXCLUDED.successful_deliveries,
		    updated_at = NOW()
	`, userID, success)
	if err != nil {
		return dbError(err, "не удалось обновить репутацию", nil)
	}
	return nil
}

// FindByUserID возвращает nil без ошибки для пользователя без истории.
func (r *ReputationRepositoryAdapter) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Reputation, error) {
	var rows []reputationRow
	err := conn(ctx, r.db).SelectContext(ctx, &rows, `
		SELECT user_id, rating_sum, total_reviews, completed_deliveries, successful_deliveries, updated_at
		FROM user_reputation WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, dbError(err, "не удалось получить репутацию", nil)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toEntity(), nil
}

func (r *ReputationRepositoryAdapter) FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*entity.Reputation, error) {
	result := make(map[uuid.UUID]*entity.Reputation, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id.String())
	}
	var rows []reputationRow
	err := conn(ctx, r.db).SelectContext(ctx, &rows, `
		SELECT user_id, rating_sum, total_reviews, completed_deliveries, successful_deliveries, updated_at
		FROM user_reputation WHERE user_id = ANY($1::uuid[])
	`, pq.Array(ids))
	if err != nil {
		return nil, dbError(err, "не удалось получить репутацию", nil)
	}
	for _, row := range rows {
		result[row.UserID] = row.toEntity()
	}
	return result, nil
}
