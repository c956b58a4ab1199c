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
	"github.com/lib/pq"
)

const parcelColumns = `id, sender_id, recipient, description, category, length_cm, width_cm, height_cm,
	weight_kg, volume_cm3, declared_value, currency, insurance_required, insurance_amount,
	special_handling, delivery_deadline, status, matched_travel_id, matched_carrier_id,
	agreed_delivery_fee, platform_fee, total_amount, photo_keys, created_at, updated_at`

type recipientJSON struct {
	Name        string                   `json:"name"`
	PhoneNumber string                   `json:"phone_number"`
	Email       string                   `json:"email,omitempty"`
	Street      string                   `json:"street,omitempty"`
	City        string                   `json:"city"`
	State       string                   `json:"state,omitempty"`
	Country     string                   `json:"country"`
	PostalCode  string                   `json:"postal_code,omitempty"`
	Coordinates *valueobject.Coordinates `json:"coordinates,omitempty"`
}

type parcelRow struct {
	ID                uuid.UUID      `db:"id"`
	SenderID          uuid.UUID      `db:"sender_id"`
	Recipient         []byte         `db:"recipient"`
	Description       string         `db:"description"`
	Category          string         `db:"category"`
	Length            float64        `db:"length_cm"`
	Width             float64        `db:"width_cm"`
	Height            float64        `db:"height_cm"`
	Weight            float64        `db:"weight_kg"`
	Volume            float64        `db:"volume_cm3"`
	DeclaredValue     float64        `db:"declared_value"`
	Currency          string         `db:"currency"`
	InsuranceRequired bool           `db:"insurance_required"`
	InsuranceAmount   *float64       `db:"insurance_amount"`
	SpecialHandling   pq.StringArray `db:"special_handling"`
	DeliveryDeadline  time.Time      `db:"delivery_deadline"`
	Status            string         `db:"status"`
	MatchedTravelID   *uuid.UUID     `db:"matched_travel_id"`
	MatchedCarrierID  *uuid.UUID     `db:"matched_carrier_id"`
	AgreedDeliveryFee *float64       `db:"agreed_delivery_fee"`
	PlatformFee       *float64       `db:"platform_fee"`
	TotalAmount       *float64       `db:"total_amount"`
	PhotoKeys         pq.StringArray `db:"photo_keys"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r parcelRow) toEntity() (*entity.Parcel, error) {
	var rec recipientJSON
	if err := json.Unmarshal(r.Recipient, &rec); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждены данные получателя")
	}
	handling := make([]valueobject.SpecialHandling, 0, len(r.SpecialHandling))
	for _, h := range r.SpecialHandling {
		handling = append(handling, valueobject.SpecialHandling(h))
	}
	return &entity.Parcel{
		ID:       r.ID,
		SenderID: r.SenderID,
		Recipient: entity.Recipient{
			Name:        rec.Name,
			PhoneNumber: rec.PhoneNumber,
			Email:       rec.Email,
			Address: valueobject.Address{
				Street:      rec.Street,
				City:        rec.City,
				State:       rec.State,
				Country:     rec.Country,
				PostalCode:  rec.PostalCode,
				Coordinates: rec.Coordinates,
			},
		},
		Description:       r.Description,
		Category:          valueobject.ParcelCategory(r.Category),
		Dimensions:        entity.Dimensions{Length: r.Length, Width: r.Width, Height: r.Height},
		Weight:            r.Weight,
		Volume:            r.Volume,
		DeclaredValue:     r.DeclaredValue,
		Currency:          r.Currency,
		InsuranceRequired: r.InsuranceRequired,
		InsuranceAmount:   r.InsuranceAmount,
		SpecialHandling:   handling,
		DeliveryDeadline:  r.DeliveryDeadline,
		Status:            valueobject.ParcelStatus(r.Status),
		MatchedTravelID:   r.MatchedTravelID,
		MatchedCarrierID:  r.MatchedCarrierID,
		AgreedDeliveryFee: r.AgreedDeliveryFee,
		PlatformFee:       r.PlatformFee,
		TotalAmount:       r.TotalAmount,
		PhotoKeys:         []string(r.PhotoKeys),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}, nil
}

type trackingRow struct {
	ID          uuid.UUID      `db:"id"`
	ParcelID    uuid.UUID      `db:"parcel_id"`
	Event       string         `db:"event"`
	City        string         `db:"city"`
	Country     string         `db:"country"`
	Description string         `db:"description"`
	PhotoKeys   pq.StringArray `db:"photo_keys"`
	CreatedBy   uuid.UUID      `db:"created_by"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r trackingRow) toEntity() entity.TrackingEvent {
	return entity.TrackingEvent{
		ID:          r.ID,
		ParcelID:    r.ParcelID,
		Event:       valueobject.TrackingEventType(r.Event),
		City:        r.City,
		Country:     r.Country,
		Description: r.Description,
		PhotoKeys:   []string(r.PhotoKeys),
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

type ParcelRepositoryAdapter struct {
	db *sqlx.DB
}

func NewParcelRepositoryAdapter(db *sqlx.DB) *ParcelRepositoryAdapter {
	return &ParcelRepositoryAdapter{db: db}
}

func (r *ParcelRepositoryAdapter) Create(ctx context.Context, p *entity.Parcel) error {
	recipient, err := json.Marshal(recipientJSON{
		Name:        p.Recipient.Name,
		PhoneNumber: p.Recipient.PhoneNumber,
		Email:       p.Recipient.Email,
		Street:      p.Recipient.Address.Street,
		City:        p.Recipient.Address.City,
		State:       p.Recipient.Address.State,
		Country:     p.Recipient.Address.Country,
		PostalCode:  p.Recipient.Address.PostalCode,
		Coordinates: p.Recipient.Address.Coordinates,
	})
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать получателя")
	}
	handling := make([]string, 0, len(p.SpecialHandling))
	for _, h := range p.SpecialHandling {
		handling = append(handling, string(h))
	}

	query := `
		INSERT INTO parcels (` + parcelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`
	_, err = conn(ctx, r.db).ExecContext(ctx, query,
		p.ID, p.SenderID, string(recipient), p.Description, string(p.Category),
		p.Dimensions.Length, p.Dimensions.Width, p.Dimensions.Height,
		p.Weight, p.Volume, p.DeclaredValue, p.Currency, p.InsuranceRequired, p.InsuranceAmount,
		textArray(handling), p.DeliveryDeadline, string(p.Status), p.MatchedTravelID, p.MatchedCarrierID,
		p.AgreedDeliveryFee, p.PlatformFee, p.TotalAmount, textArray(p.PhotoKeys), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return dbError(err, "не удалось создать посылку", nil)
	}

	for i := range p.TrackingEvents {
		if err := r.AddTrackingEvent(ctx, &p.TrackingEvents[i]); err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatus условная запись: строка обновляется, только если статус
// в базе всё ещё равен from.
func (r *ParcelRepositoryAdapter) UpdateStatus(ctx context.Context, p *entity.Parcel, from valueobject.ParcelStatus) error {
	query := `
		UPDATE parcels
		SET status = $3, matched_travel_id = $4, matched_carrier_id = $5,
		    agreed_delivery_fee = $6, platform_fee = $7, total_amount = $8, updated_at = $9
		WHERE id = $1 AND status = $2
	`
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.ID, string(from), string(p.Status), p.MatchedTravelID, p.MatchedCarrierID,
		p.AgreedDeliveryFee, p.PlatformFee, p.TotalAmount, p.UpdatedAt,
	)
	if err != nil {
		return dbError(err, "не удалось обновить статус посылки", nil)
	}
	return expectOne(res, apperror.ErrConcurrentUpdate)
}

func (r *ParcelRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Parcel, error) {
	q := conn(ctx, r.db)
	var row parcelRow
	if err := q.GetContext(ctx, &row, `SELECT `+parcelColumns+` FROM parcels WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, apperror.ErrParcelNotFound, "не удалось получить посылку")
	}
	parcel, err := row.toEntity()
	if err != nil {
		return nil, err
	}

	var events []trackingRow
	err = q.SelectContext(ctx, &events, `
		SELECT id, parcel_id, event, city, country, description, photo_keys, created_by, created_at
		FROM parcel_tracking_events
		WHERE parcel_id = $1
		ORDER BY created_at, id
	`, id)
	if err != nil {
		return nil, dbError(err, "не удалось получить историю отслеживания", nil)
	}
	parcel.TrackingEvents = make([]entity.TrackingEvent, 0, len(events))
	for _, ev := range events {
		parcel.TrackingEvents = append(parcel.TrackingEvents, ev.toEntity())
	}
	return parcel, nil
}

// List события отслеживания в список не загружаются.
func (r *ParcelRepositoryAdapter) List(ctx context.Context, f repository.ParcelFilter) ([]*entity.Parcel, int, error) {
	w := newWhere()
	if f.SenderID != nil {
		w.add("sender_id = $%d", *f.SenderID)
	}
	if f.CarrierID != nil {
		w.add("matched_carrier_id = $%d", *f.CarrierID)
	}
	if f.Status != nil {
		w.add("status = $%d", string(*f.Status))
	}
	if f.Category != nil {
		w.add("category = $%d", string(*f.Category))
	}

	q := conn(ctx, r.db)
	var total int
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM parcels`+w.sql(), w.args...); err != nil {
		return nil, 0, dbError(err, "не удалось посчитать посылки", nil)
	}

	pageClause, args := w.page(f.Limit, f.Offset)
	var rows []parcelRow
	query := `SELECT ` + parcelColumns + ` FROM parcels` + w.sql() + ` ORDER BY created_at DESC, id` + pageClause
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, dbError(err, "не удалось получить посылки", nil)
	}

	result := make([]*entity.Parcel, 0, len(rows))
	for _, row := range rows {
		p, err := row.toEntity()
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, nil
}

func (r *ParcelRepositoryAdapter) AddTrackingEvent(ctx context.Context, ev *entity.TrackingEvent) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO parcel_tracking_events (id, parcel_id, event, city, country, description, photo_keys, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, ev.ID, ev.ParcelID, string(ev.Event), ev.City, ev.Country, ev.Description, textArray(ev.PhotoKeys), ev.CreatedBy, ev.CreatedAt)
	if err != nil {
		return dbError(err, "не удалось сохранить событие отслеживания", nil)
	}
	return nil
}

func (r *ParcelRepositoryAdapter) AddPhoto(ctx context.Context, parcelID uuid.UUID, key string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE parcels SET photo_keys = array_append(photo_keys, $2), updated_at = NOW() WHERE id = $1
	`, parcelID, key)
	if err != nil {
		return dbError(err, "не удалось сохранить фото посылки", nil)
	}
	return expectOne(res, apperror.ErrParcelNotFound)
}
