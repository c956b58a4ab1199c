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

const travelColumns = `t.id, t.carrier_id, t.departure_city, t.departure_country, t.departure_airport,
	t.departure_lat, t.departure_lng, t.arrival_city, t.arrival_country, t.arrival_airport,
	t.arrival_lat, t.arrival_lng, t.travel_mode, t.departure_date, t.arrival_date,
	t.capacity_weight, t.capacity_volume, t.base_delivery_fee, t.currency, t.negotiable,
	t.status, t.created_at, t.updated_at`

type travelRow struct {
	ID               uuid.UUID       `db:"id"`
	CarrierID        uuid.UUID       `db:"carrier_id"`
	DepartureCity    string          `db:"departure_city"`
	DepartureCountry string          `db:"departure_country"`
	DepartureAirport string          `db:"departure_airport"`
	DepartureLat     sql.NullFloat64 `db:"departure_lat"`
	DepartureLng     sql.NullFloat64 `db:"departure_lng"`
	ArrivalCity      string          `db:"arrival_city"`
	ArrivalCountry   string          `db:"arrival_country"`
	ArrivalAirport   string          `db:"arrival_airport"`
	ArrivalLat       sql.NullFloat64 `db:"arrival_lat"`
	ArrivalLng       sql.NullFloat64 `db:"arrival_lng"`
	TravelMode       string          `db:"travel_mode"`
	DepartureDate    time.Time       `db:"departure_date"`
	ArrivalDate      time.Time       `db:"arrival_date"`
	CapacityWeight   float64         `db:"capacity_weight"`
	CapacityVolume   float64         `db:"capacity_volume"`
	BaseDeliveryFee  float64         `db:"base_delivery_fee"`
	Currency         string          `db:"currency"`
	Negotiable       bool            `db:"negotiable"`
	Status           string          `db:"status"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

func coords(lat, lng sql.NullFloat64) *valueobject.Coordinates {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &valueobject.Coordinates{Latitude: lat.Float64, Longitude: lng.Float64}
}

func latLng(c *valueobject.Coordinates) (interface{}, interface{}) {
	if c == nil {
		return nil, nil
	}
	return c.Latitude, c.Longitude
}

func (r travelRow) toEntity() *entity.Travel {
	return &entity.Travel{
		ID:        r.ID,
		CarrierID: r.CarrierID,
		Departure: valueobject.Location{
			City:        r.DepartureCity,
			Country:     r.DepartureCountry,
			Airport:     r.DepartureAirport,
			Coordinates: coords(r.DepartureLat, r.DepartureLng),
		},
		Arrival: valueobject.Location{
			City:        r.ArrivalCity,
			Country:     r.ArrivalCountry,
			Airport:     r.ArrivalAirport,
			Coordinates: coords(r.ArrivalLat, r.ArrivalLng),
		},
		TravelMode:        valueobject.TravelMode(r.TravelMode),
		DepartureDate:     r.DepartureDate,
		ArrivalDate:       r.ArrivalDate,
		AvailableCapacity: entity.Capacity{Weight: r.CapacityWeight, Volume: r.CapacityVolume},
		BaseDeliveryFee:   r.BaseDeliveryFee,
		Currency:          r.Currency,
		Negotiable:        r.Negotiable,
		Status:            valueobject.TravelStatus(r.Status),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type TravelRepositoryAdapter struct {
	db *sqlx.DB
}

func NewTravelRepositoryAdapter(db *sqlx.DB) *TravelRepositoryAdapter {
	return &TravelRepositoryAdapter{db: db}
}

func (r *TravelRepositoryAdapter) Create(ctx context.Context, t *entity.Travel) error {
	depLat, depLng := latLng(t.Departure.Coordinates)
	arrLat, arrLng := latLng(t.Arrival.Coordinates)
	query := `
		INSERT INTO travels (id, carrier_id, departure_city, departure_country, departure_airport,
			departure_lat, departure_lng, arrival_city, arrival_country, arrival_airport,
			arrival_lat, arrival_lng, travel_mode, departure_date, arrival_date,
			capacity_weight, capacity_volume, base_delivery_fee, currency, negotiable,
			status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		t.ID, t.CarrierID, t.Departure.City, t.Departure.Country, t.Departure.Airport,
		depLat, depLng, t.Arrival.City, t.Arrival.Country, t.Arrival.Airport,
		arrLat, arrLng, string(t.TravelMode), t.DepartureDate, t.ArrivalDate,
		t.AvailableCapacity.Weight, t.AvailableCapacity.Volume, t.BaseDeliveryFee, t.Currency, t.Negotiable,
		string(t.Status), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return dbError(err, "не удалось создать поездку", nil)
	}
	return nil
}

func (r *TravelRepositoryAdapter) UpdateStatus(ctx context.Context, t *entity.Travel, from valueobject.TravelStatus) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE travels SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		t.ID, string(from), string(t.Status), t.UpdatedAt,
	)
	if err != nil {
		return dbError(err, "не удалось обновить статус поездки", nil)
	}
	return expectOne(res, apperror.ErrConcurrentUpdate)
}

func (r *TravelRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Travel, error) {
	var row travelRow
	err := conn(ctx, r.db).GetContext(ctx, &row, `SELECT `+travelColumns+` FROM travels t WHERE t.id = $1`, id)
	if err != nil {
		return nil, notFoundOr(err, apperror.ErrTravelNotFound, "не удалось получить поездку")
	}
	return row.toEntity(), nil
}

// Search рейтинг перевозчика берётся из агрегата user_reputation.
func (r *TravelRepositoryAdapter) Search(ctx context.Context, f repository.TravelFilter) ([]*entity.Travel, int, error) {
	w := newWhere()
	if f.CarrierID != nil {
		w.add("t.carrier_id = $%d", *f.CarrierID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		w.add("t.status = ANY($%d)", pq.Array(statuses))
	}
	if f.DepartureCity != "" {
		w.add("LOWER(t.departure_city) = LOWER($%d)", f.DepartureCity)
	}
	if f.DepartureCountry != "" {
		w.add("t.departure_country = $%d", f.DepartureCountry)
	}
	if f.ArrivalCity != "" {
		w.add("LOWER(t.arrival_city) = LOWER($%d)", f.ArrivalCity)
	}
	if f.ArrivalCountry != "" {
		w.add("t.arrival_country = $%d", f.ArrivalCountry)
	}
	if f.TravelMode != nil {
		w.add("t.travel_mode = $%d", string(*f.TravelMode))
	}
	if f.MinWeight > 0 {
		w.add("t.capacity_weight >= $%d", f.MinWeight)
	}
	if f.MinVolume > 0 {
		w.add("t.capacity_volume >= $%d", f.MinVolume)
	}
	if f.MaxFee != nil {
		w.add("t.base_delivery_fee <= $%d", *f.MaxFee)
	}
	if f.MinRating != nil {
		w.add("COALESCE(rep.rating_sum / NULLIF(rep.total_reviews, 0), 0) >= $%d", *f.MinRating)
	}
	if f.DepartureFrom != nil {
		w.add("t.departure_date >= $%d", *f.DepartureFrom)
	}
	if f.DepartureTo != nil {
		w.add("t.departure_date <= $%d", *f.DepartureTo)
	}
	if f.ArrivalBy != nil {
		w.add("t.arrival_date <= $%d", *f.ArrivalBy)
	}

	from := ` FROM travels t LEFT JOIN user_reputation rep ON rep.user_id = t.carrier_id`
	q := conn(ctx, r.db)

	var total int
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*)`+from+w.sql(), w.args...); err != nil {
		return nil, 0, dbError(err, "не удалось посчитать поездки", nil)
	}

	order := ` ORDER BY t.departure_date ASC, t.id`
	if f.ByRating {
		order = ` ORDER BY COALESCE(rep.rating_sum / NULLIF(rep.total_reviews, 0), 0) DESC, t.departure_date ASC, t.id`
	}
	pageClause, args := w.page(f.Limit, f.Offset)

	var rows []travelRow
	if err := q.SelectContext(ctx, &rows, `SELECT `+travelColumns+from+w.sql()+order+pageClause, args...); err != nil {
		return nil, 0, dbError(err, "не удалось найти поездки", nil)
	}
	result := make([]*entity.Travel, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toEntity())
	}
	return result, total, nil
}

// BookingRepositoryAdapter журнал бронирований поездок.
type BookingRepositoryAdapter struct {
	db *sqlx.DB
}

func NewBookingRepositoryAdapter(db *sqlx.DB) *BookingRepositoryAdapter {
	return &BookingRepositoryAdapter{db: db}
}

func (r *BookingRepositoryAdapter) Create(ctx context.Context, b *entity.TravelBooking) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO travel_bookings (id, travel_id, match_id, parcel_id, weight_kg, value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, b.ID, b.TravelID, b.MatchID, b.ParcelID, b.Weight, b.Value, b.CreatedAt)
	if err != nil {
		return dbError(err, "не удалось сохранить бронирование", apperror.New(apperror.ErrCodeConflict, "бронирование по матчу уже есть"))
	}
	return nil
}

func (r *BookingRepositoryAdapter) Totals(ctx context.Context, travelID uuid.UUID) (entity.TravelTotals, error) {
	totals, err := r.TotalsFor(ctx, []uuid.UUID{travelID})
	if err != nil {
		return entity.TravelTotals{}, err
	}
	return totals[travelID], nil
}

type totalsRow struct {
	TravelID     uuid.UUID `db:"travel_id"`
	TotalParcels int       `db:"total_parcels"`
	TotalWeight  float64   `db:"total_weight"`
	TotalValue   float64   `db:"total_value"`
}

// TotalsFor поездки без бронирований в ответ не попадают, их итоги нулевые.
func (r *BookingRepositoryAdapter) TotalsFor(ctx context.Context, travelIDs []uuid.UUID) (map[uuid.UUID]entity.TravelTotals, error) {
	result := make(map[uuid.UUID]entity.TravelTotals, len(travelIDs))
	if len(travelIDs) == 0 {
		return result, nil
	}
	ids := make([]string, 0, len(travelIDs))
	for _, id := range travelIDs {
		ids = append(ids, id.String())
	}

	var rows []totalsRow
	err := conn(ctx, r.db).SelectContext(ctx, &rows, `
		SELECT travel_id, COUNT(*) AS total_parcels,
		       COALESCE(SUM(weight_kg), 0) AS total_weight,
		       COALESCE(SUM(value), 0) AS total_value
		FROM travel_bookings
		WHERE travel_id = ANY($1::uuid[])
		GROUP BY travel_id
	`, pq.Array(ids))
	if err != nil {
		return nil, dbError(err, "не удалось посчитать итоги поездок", nil)
	}
	for _, row := range rows {
		result[row.TravelID] = entity.TravelTotals{
			TotalParcels: row.TotalParcels,
			TotalWeight:  row.TotalWeight,
			TotalValue:   row.TotalValue,
		}
	}
	return result, nil
}
