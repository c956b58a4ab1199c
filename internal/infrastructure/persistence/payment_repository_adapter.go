package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

const paymentColumns = `id, match_id, parcel_id, sender_id, carrier_id, delivery_fee, platform_fee,
	insurance_fee, amount, currency, status, escrow_status, release_condition, dispute,
	refund_reason, released_at, refunded_at, version, created_at, updated_at`

type disputeJSON struct {
	Reason      string     `json:"reason"`
	Description string     `json:"description,omitempty"`
	OpenedBy    uuid.UUID  `json:"opened_by"`
	OpenedAt    time.Time  `json:"opened_at"`
	Resolution  string     `json:"resolution,omitempty"`
	ResolvedBy  *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

type paymentRow struct {
	ID               uuid.UUID      `db:"id"`
	MatchID          uuid.UUID      `db:"match_id"`
	ParcelID         uuid.UUID      `db:"parcel_id"`
	SenderID         uuid.UUID      `db:"sender_id"`
	CarrierID        uuid.UUID      `db:"carrier_id"`
	DeliveryFee      float64        `db:"delivery_fee"`
	PlatformFee      float64        `db:"platform_fee"`
	InsuranceFee     float64        `db:"insurance_fee"`
	Amount           float64        `db:"amount"`
	Currency         string         `db:"currency"`
	Status           string         `db:"status"`
	EscrowStatus     string         `db:"escrow_status"`
	ReleaseCondition sql.NullString `db:"release_condition"`
	Dispute          []byte         `db:"dispute"`
	RefundReason     string         `db:"refund_reason"`
	ReleasedAt       *time.Time     `db:"released_at"`
	RefundedAt       *time.Time     `db:"refunded_at"`
	Version          int            `db:"version"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r paymentRow) toEntity() (*entity.Payment, error) {
	p := &entity.Payment{
		ID:           r.ID,
		MatchID:      r.MatchID,
		ParcelID:     r.ParcelID,
		SenderID:     r.SenderID,
		CarrierID:    r.CarrierID,
		DeliveryFee:  r.DeliveryFee,
		PlatformFee:  r.PlatformFee,
		InsuranceFee: r.InsuranceFee,
		Amount:       r.Amount,
		Currency:     r.Currency,
		Status:       valueobject.PaymentStatus(r.Status),
		EscrowStatus: valueobject.EscrowStatus(r.EscrowStatus),
		RefundReason: r.RefundReason,
		ReleasedAt:   r.ReleasedAt,
		RefundedAt:   r.RefundedAt,
		Version:      r.Version,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.ReleaseCondition.Valid {
		condition := valueobject.ReleaseCondition(r.ReleaseCondition.String)
		p.ReleaseCondition = &condition
	}
	if len(r.Dispute) > 0 {
		var d disputeJSON
		if err := json.Unmarshal(r.Dispute, &d); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждены данные спора")
		}
		p.Dispute = &entity.Dispute{
			Reason:      valueobject.DisputeReason(d.Reason),
			Description: d.Description,
			OpenedBy:    d.OpenedBy,
			OpenedAt:    d.OpenedAt,
			Resolution:  d.Resolution,
			ResolvedBy:  d.ResolvedBy,
			ResolvedAt:  d.ResolvedAt,
		}
	}
	return p, nil
}

func encodePaymentExtras(p *entity.Payment) (interface{}, interface{}, error) {
	var condition interface{}
	if p.ReleaseCondition != nil {
		condition = string(*p.ReleaseCondition)
	}
	if p.Dispute == nil {
		return condition, nil, nil
	}
	raw, err := json.Marshal(disputeJSON{
		Reason:      string(p.Dispute.Reason),
		Description: p.Dispute.Description,
		OpenedBy:    p.Dispute.OpenedBy,
		OpenedAt:    p.Dispute.OpenedAt,
		Resolution:  p.Dispute.Resolution,
		ResolvedBy:  p.Dispute.ResolvedBy,
		ResolvedAt:  p.Dispute.ResolvedAt,
	})
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать спор")
	}
	return condition, string(raw), nil
}

type PaymentRepositoryAdapter struct {
	db *sqlx.DB
}

func NewPaymentRepositoryAdapter(db *sqlx.DB) *PaymentRepositoryAdapter {
	return &PaymentRepositoryAdapter{db: db}
}

func (r *PaymentRepositoryAdapter) Create(ctx context.Context, p *entity.Payment) error {
	condition, dispute, err := encodePaymentExtras(p)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err = conn(ctx, r.db).ExecContext(ctx, query,
		p.ID, p.MatchID, p.ParcelID, p.SenderID, p.CarrierID, p.DeliveryFee, p.PlatformFee,
		p.InsuranceFee, p.Amount, p.Currency, string(p.Status), string(p.EscrowStatus), condition, dispute,
		p.RefundReason, p.ReleasedAt, p.RefundedAt, p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return dbError(err, "не удалось создать платёж", apperror.ErrPaymentExists)
	}
	return nil
}

// Update условная запись по версии, как у матчей.
func (r *PaymentRepositoryAdapter) Update(ctx context.Context, p *entity.Payment) error {
	condition, dispute, err := encodePaymentExtras(p)
	if err != nil {
		return err
	}
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE payments
		SET status = $3, escrow_status = $4, release_condition = $5, dispute = $6, refund_reason = $7,
		    released_at = $8, refunded_at = $9, updated_at = $10, version = version + 1
		WHERE id = $1 AND version = $2
	`, p.ID, p.Version, string(p.Status), string(p.EscrowStatus), condition, dispute, p.RefundReason,
		p.ReleasedAt, p.RefundedAt, p.UpdatedAt)
	if err != nil {
		return dbError(err, "не удалось обновить платёж", nil)
	}
	if err := expectOne(res, apperror.ErrConcurrentUpdate); err != nil {
		return err
	}
	p.Version++
	return nil
}

func (r *PaymentRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var row paymentRow
	if err := conn(ctx, r.db).GetContext(ctx, &row, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, apperror.ErrPaymentNotFound, "не удалось получить платёж")
	}
	return row.toEntity()
}

// FindByParcelID последний платёж посылки.
func (r *PaymentRepositoryAdapter) FindByParcelID(ctx context.Context, parcelID uuid.UUID) (*entity.Payment, error) {
	var row paymentRow
	err := conn(ctx, r.db).GetContext(ctx, &row, `
		SELECT `+paymentColumns+` FROM payments
		WHERE parcel_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, parcelID)
	if err != nil {
		return nil, notFoundOr(err, apperror.ErrPaymentNotFound, "не удалось получить платёж")
	}
	return row.toEntity()
}

func (r *PaymentRepositoryAdapter) List(ctx context.Context, f repository.PaymentFilter) ([]*entity.Payment, int, error) {
	w := newWhere()
	if f.PartyID != nil {
		w.add("(sender_id = $%d OR carrier_id = $%d)", *f.PartyID)
	}
	if f.Status != nil {
		w.add("status = $%d", string(*f.Status))
	}
	if f.EscrowStatus != nil {
		w.add("escrow_status = $%d", string(*f.EscrowStatus))
	}
	if f.MinAmount != nil {
		w.add("amount >= $%d", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		w.add("amount <= $%d", *f.MaxAmount)
	}

	q := conn(ctx, r.db)
	var total int
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM payments`+w.sql(), w.args...); err != nil {
		return nil, 0, dbError(err, "не удалось посчитать платежи", nil)
	}

	pageClause, args := w.page(f.Limit, f.Offset)
	var rows []paymentRow
	query := `SELECT ` + paymentColumns + ` FROM payments` + w.sql() + ` ORDER BY created_at DESC` + pageClause
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, dbError(err, "не удалось получить платежи", nil)
	}
	result := make([]*entity.Payment, 0, len(rows))
	for _, row := range rows {
		p, err := row.toEntity()
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, nil
}
