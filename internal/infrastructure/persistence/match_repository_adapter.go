package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

const matchColumns = `id, parcel_id, travel_id, sender_id, carrier_id, status,
	score_total, score_route, score_capacity, score_timing, score_price, score_rating,
	suggested_fee, min_fee, max_fee, initial_fee, proposed_fee, final_fee, currency,
	negotiation_history, agreement, rejection_reason, cancellation_reason,
	proposed_at, accepted_at, rejected_at, cancelled_at, expires_at, version, created_at, updated_at`

type negotiationEntryJSON struct {
	ProposedBy uuid.UUID `json:"proposed_by"`
	Amount     float64   `json:"amount"`
	Message    string    `json:"message,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type agreementJSON struct {
	PickupLocation      string     `json:"pickup_location,omitempty"`
	PickupDate          *time.Time `json:"pickup_date,omitempty"`
	DeliveryLocation    string     `json:"delivery_location,omitempty"`
	DeliveryDate        *time.Time `json:"delivery_date,omitempty"`
	SpecialInstructions string     `json:"special_instructions,omitempty"`
	InsuranceRequired   bool       `json:"insurance_required"`
	InsuranceAmount     *float64   `json:"insurance_amount,omitempty"`
}

type matchRow struct {
	ID                 uuid.UUID  `db:"id"`
	ParcelID           uuid.UUID  `db:"parcel_id"`
	TravelID           uuid.UUID  `db:"travel_id"`
	SenderID           uuid.UUID  `db:"sender_id"`
	CarrierID          uuid.UUID  `db:"carrier_id"`
	Status             string     `db:"status"`
	ScoreTotal         float64    `db:"score_total"`
	ScoreRoute         float64    `db:"score_route"`
	ScoreCapacity      float64    `db:"score_capacity"`
	ScoreTiming        float64    `db:"score_timing"`
	ScorePrice         float64    `db:"score_price"`
	ScoreRating        float64    `db:"score_rating"`
	SuggestedFee       float64    `db:"suggested_fee"`
	MinFee             float64    `db:"min_fee"`
	MaxFee             float64    `db:"max_fee"`
	InitialFee         float64    `db:"initial_fee"`
	ProposedFee        *float64   `db:"proposed_fee"`
	FinalFee           *float64   `db:"final_fee"`
	Currency           string     `db:"currency"`
	NegotiationHistory []byte     `db:"negotiation_history"`
	Agreement          []byte     `db:"agreement"`
	RejectionReason    string     `db:"rejection_reason"`
	CancellationReason string     `db:"cancellation_reason"`
	ProposedAt         time.Time  `db:"proposed_at"`
	AcceptedAt         *time.Time `db:"accepted_at"`
	RejectedAt         *time.Time `db:"rejected_at"`
	CancelledAt        *time.Time `db:"cancelled_at"`
	ExpiresAt          time.Time  `db:"expires_at"`
	Version            int        `db:"version"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

func (r matchRow) toEntity() (*entity.Match, error) {
	var history []negotiationEntryJSON
	if len(r.NegotiationHistory) > 0 {
		if err := json.Unmarshal(r.NegotiationHistory, &history); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждена история переговоров")
		}
	}
	entries := make([]entity.NegotiationEntry, 0, len(history))
	for _, h := range history {
		entries = append(entries, entity.NegotiationEntry(h))
	}

	var agreement *entity.Agreement
	if len(r.Agreement) > 0 {
		var a agreementJSON
		if err := json.Unmarshal(r.Agreement, &a); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждены условия соглашения")
		}
		converted := entity.Agreement(a)
		agreement = &converted
	}

	return &entity.Match{
		ID:        r.ID,
		ParcelID:  r.ParcelID,
		TravelID:  r.TravelID,
		SenderID:  r.SenderID,
		CarrierID: r.CarrierID,
		Status:    valueobject.MatchStatus(r.Status),
		Score: entity.MatchScore{
			Total:    r.ScoreTotal,
			Route:    r.ScoreRoute,
			Capacity: r.ScoreCapacity,
			Timing:   r.ScoreTiming,
			Price:    r.ScorePrice,
			Rating:   r.ScoreRating,
		},
		Pricing: entity.Pricing{SuggestedFee: r.SuggestedFee, MinFee: r.MinFee, MaxFee: r.MaxFee},
		Negotiation: entity.Negotiation{
			InitialFee:  r.InitialFee,
			ProposedFee: r.ProposedFee,
			FinalFee:    r.FinalFee,
			Currency:    r.Currency,
			History:     entries,
		},
		Agreement:          agreement,
		RejectionReason:    r.RejectionReason,
		CancellationReason: r.CancellationReason,
		ProposedAt:         r.ProposedAt,
		AcceptedAt:         r.AcceptedAt,
		RejectedAt:         r.RejectedAt,
		CancelledAt:        r.CancelledAt,
		ExpiresAt:          r.ExpiresAt,
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}, nil
}

// encodeNegotiation JSONB передаётся строкой: []byte драйвер кодирует как bytea.
func encodeNegotiation(m *entity.Match) (string, interface{}, error) {
	history := make([]negotiationEntryJSON, 0, len(m.Negotiation.History))
	for _, h := range m.Negotiation.History {
		history = append(history, negotiationEntryJSON(h))
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return "", nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать историю переговоров")
	}
	if m.Agreement == nil {
		return string(historyJSON), nil, nil
	}
	agreementRaw, err := json.Marshal(agreementJSON(*m.Agreement))
	if err != nil {
		return "", nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать соглашение")
	}
	return string(historyJSON), string(agreementRaw), nil
}

type MatchRepositoryAdapter struct {
	db *sqlx.DB
}

func NewMatchRepositoryAdapter(db *sqlx.DB) *MatchRepositoryAdapter {
	return &MatchRepositoryAdapter{db: db}
}

// Create второй активный матч пары отсекается частичным уникальным индексом.
func (r *MatchRepositoryAdapter) Create(ctx context.Context, m *entity.Match) error {
	history, agreement, err := encodeNegotiation(m)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)
	`
	_, err = conn(ctx, r.db).ExecContext(ctx, query,
		m.ID, m.ParcelID, m.TravelID, m.SenderID, m.CarrierID, string(m.Status),
		m.Score.Total, m.Score.Route, m.Score.Capacity, m.Score.Timing, m.Score.Price, m.Score.Rating,
		m.Pricing.SuggestedFee, m.Pricing.MinFee, m.Pricing.MaxFee,
		m.Negotiation.InitialFee, m.Negotiation.ProposedFee, m.Negotiation.FinalFee, m.Negotiation.Currency,
		history, agreement, m.RejectionReason, m.CancellationReason,
		m.ProposedAt, m.AcceptedAt, m.RejectedAt, m.CancelledAt, m.ExpiresAt, m.Version, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return dbError(err, "не удалось создать матч", apperror.ErrActiveMatchExists)
	}
	return nil
}

func (r *MatchRepositoryAdapter) Update(ctx context.Context, m *entity.Match) error {
	history, agreement, err := encodeNegotiation(m)
	if err != nil {
		return err
	}
	query := `
		UPDATE matches
		SET status = $3, proposed_fee = $4, final_fee = $5, negotiation_history = $6, agreement = $7,
		    rejection_reason = $8, cancellation_reason = $9, accepted_at = $10, rejected_at = $11,
		    cancelled_at = $12, updated_at = $13, version = version + 1
		WHERE id = $1 AND version = $2
	`
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		m.ID, m.Version, string(m.Status), m.Negotiation.ProposedFee, m.Negotiation.FinalFee,
		history, agreement, m.RejectionReason, m.CancellationReason,
		m.AcceptedAt, m.RejectedAt, m.CancelledAt, m.UpdatedAt,
	)
	if err != nil {
		return dbError(err, "не удалось обновить матч", apperror.ErrActiveMatchExists)
	}
	if err := expectOne(res, apperror.ErrConcurrentUpdate); err != nil {
		return err
	}
	m.Version++
	return nil
}

func (r *MatchRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Match, error) {
	var row matchRow
	if err := conn(ctx, r.db).GetContext(ctx, &row, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, apperror.ErrMatchNotFound, "не удалось получить матч")
	}
	return row.toEntity()
}

func (r *MatchRepositoryAdapter) FindActiveByPair(ctx context.Context, parcelID, travelID uuid.UUID) (*entity.Match, error) {
	var rows []matchRow
	err := conn(ctx, r.db).SelectContext(ctx, &rows, `
		SELECT `+matchColumns+` FROM matches
		WHERE parcel_id = $1 AND travel_id = $2 AND status IN ('proposed', 'accepted')
		LIMIT 1
	`, parcelID, travelID)
	if err != nil {
		return nil, dbError(err, "не удалось проверить активный матч", nil)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toEntity()
}

func (r *MatchRepositoryAdapter) List(ctx context.Context, f repository.MatchFilter) ([]*entity.Match, int, error) {
	w := newWhere()
	if f.ParcelID != nil {
		w.add("parcel_id = $%d", *f.ParcelID)
	}
	if f.TravelID != nil {
		w.add("travel_id = $%d", *f.TravelID)
	}
	if f.SenderID != nil {
		w.add("sender_id = $%d", *f.SenderID)
	}
	if f.CarrierID != nil {
		w.add("carrier_id = $%d", *f.CarrierID)
	}
	if f.PartyID != nil {
		w.add("(sender_id = $%d OR carrier_id = $%d)", *f.PartyID)
	}
	if f.MinScore != nil {
		w.add("score_total >= $%d", *f.MinScore)
	}
	if f.MaxFee != nil {
		w.add("final_fee <= $%d", *f.MaxFee)
	}
	if f.Status != nil {
		now := f.Now
		if now.IsZero() {
			now = time.Now().UTC()
		}
		switch *f.Status {
		case valueobject.MatchStatusProposed:
			w.raw("status = 'proposed'")
			w.add("expires_at > $%d", now)
		case valueobject.MatchStatusExpired:
			w.add("(status = 'expired' OR (status = 'proposed' AND expires_at <= $%d))", now)
		default:
			w.add("status = $%d", string(*f.Status))
		}
	}

	q := conn(ctx, r.db)
	var total int
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM matches`+w.sql(), w.args...); err != nil {
		return nil, 0, dbError(err, "не удалось посчитать матчи", nil)
	}

	pageClause, args := w.page(f.Limit, f.Offset)
	var rows []matchRow
	query := `SELECT ` + matchColumns + ` FROM matches` + w.sql() + ` ORDER BY score_total DESC, created_at DESC, id` + pageClause
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, dbError(err, "не удалось получить матчи", nil)
	}
	result, err := matchesFromRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// ExpireStale освобождает пару перед созданием нового матча: просроченное
// предложение не должно блокировать уникальный индекс.
func (r *MatchRepositoryAdapter) ExpireStale(ctx context.Context, parcelID, travelID uuid.UUID, now time.Time) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE matches
		SET status = 'expired', updated_at = $3, version = version + 1
		WHERE parcel_id = $1 AND travel_id = $2 AND status = 'proposed' AND expires_at <= $3
	`, parcelID, travelID, now)
	if err != nil {
		return 0, dbError(err, "не удалось закрыть просроченные матчи", nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbError(err, "не удалось проверить результат записи", nil)
	}
	return n, nil
}

func (r *MatchRepositoryAdapter) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*entity.Match, error) {
	var rows []matchRow
	err := conn(ctx, r.db).SelectContext(ctx, &rows, `
		SELECT `+matchColumns+` FROM matches
		WHERE status = 'proposed' AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, dbError(err, "не удалось получить просроченные матчи", nil)
	}
	return matchesFromRows(rows)
}

func matchesFromRows(rows []matchRow) ([]*entity.Match, error) {
	result := make([]*entity.Match, 0, len(rows))
	for _, row := range rows {
		m, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, nil
}
