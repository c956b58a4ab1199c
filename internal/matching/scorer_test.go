package matching

import (
	"testing"
	"time"

	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testParcel() *entity.Parcel {
	return &entity.Parcel{
		Recipient: entity.Recipient{
			Name: "Анна",
			Address: valueobject.Address{
				City:    "Berlin",
				Country: "DE",
			},
		},
		Weight:           2.5,
		Volume:           1000,
		DeclaredValue:    150,
		Currency:         "USD",
		DeliveryDeadline: baseTime.Add(5 * 24 * time.Hour),
		Status:           valueobject.ParcelStatusPending,
	}
}

func testTravel() *entity.Travel {
	return &entity.Travel{
		Departure:         valueobject.Location{City: "Moscow", Country: "RU"},
		Arrival:           valueobject.Location{City: "Berlin", Country: "DE"},
		DepartureDate:     baseTime.Add(24 * time.Hour),
		ArrivalDate:       baseTime.Add(3 * 24 * time.Hour),
		AvailableCapacity: entity.Capacity{Weight: 10, Volume: 4000},
		BaseDeliveryFee:   20,
		Status:            valueobject.TravelStatusPlanned,
	}
}

func reputation(avg float64, reviews int) *entity.Reputation {
	return &entity.Reputation{RatingSum: avg * float64(reviews), TotalReviews: reviews}
}

func TestScorer_Scenario(t *testing.T) {
	s := NewDefaultScorer()

	r := s.Score(testParcel(), testTravel(), reputation(4.5, 12))

	assert.Equal(t, 0.5, r.Route)
	assert.Equal(t, 0.25, r.Capacity)
	assert.Equal(t, 1.0, r.Timing)
	assert.InDelta(t, 0.8667, r.Price, 0.0001)
	assert.Equal(t, 1.0, r.Rating)
	assert.Equal(t, 62.42, r.Total)
}

func TestScorer_Deterministic(t *testing.T) {
	s := NewDefaultScorer()
	p, tr, rep := testParcel(), testTravel(), reputation(3.7, 6)

	first := s.Score(p, tr, rep)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Score(p, tr, rep))
	}
}

func TestScorer_TotalBounds(t *testing.T) {
	s := NewDefaultScorer()

	best := testParcel()
	best.Recipient.Address = valueobject.Address{City: "Berlin", Country: "DE"}
	best.Weight = 9
	best.Volume = 3900
	travel := testTravel()
	travel.Departure = valueobject.Location{City: "Berlin", Country: "DE"}
	travel.BaseDeliveryFee = 0

	r := s.Score(best, travel, reputation(5, 20))
	assert.Equal(t, 100.0, r.Total)

	worst := testParcel()
	worst.Recipient.Address = valueobject.Address{City: "Tokyo", Country: "JP"}
	worst.DeliveryDeadline = travel.ArrivalDate.Add(-time.Hour)
	worst.DeclaredValue = 10
	travel.BaseDeliveryFee = 50
	r = s.Score(worst, travel, reputation(0.5, 1))
	assert.GreaterOrEqual(t, r.Total, 0.0)
	assert.LessOrEqual(t, r.Total, 100.0)
	assert.Equal(t, 0.0, r.Timing)
	assert.Equal(t, 0.0, r.Price)
}

func TestRouteScore(t *testing.T) {
	tests := []struct {
		name string
		addr valueobject.Address
		dep  valueobject.Location
		arr  valueobject.Location
		want float64
	}{
		{
			name: "город совпадает с прибытием",
			addr: valueobject.Address{City: "Berlin", Country: "DE"},
			dep:  valueobject.Location{City: "Moscow", Country: "RU"},
			arr:  valueobject.Location{City: "Berlin", Country: "DE"},
			want: 0.5,
		},
		{
			name: "город совпадает с обеими точками",
			addr: valueobject.Address{City: "Berlin", Country: "DE"},
			dep:  valueobject.Location{City: "Berlin", Country: "DE"},
			arr:  valueobject.Location{City: "Berlin", Country: "DE"},
			want: 1.0,
		},
		{
			name: "только страна прибытия",
			addr: valueobject.Address{City: "Munich", Country: "DE"},
			dep:  valueobject.Location{City: "Moscow", Country: "RU"},
			arr:  valueobject.Location{City: "Berlin", Country: "DE"},
			want: 0.25,
		},
		{
			name: "страна совпадает на обоих плечах",
			addr: valueobject.Address{City: "Munich", Country: "DE"},
			dep:  valueobject.Location{City: "Hamburg", Country: "DE"},
			arr:  valueobject.Location{City: "Berlin", Country: "DE"},
			want: 0.5,
		},
		{
			name: "город отправления и страна прибытия",
			addr: valueobject.Address{City: "Berlin", Country: "DE"},
			dep:  valueobject.Location{City: "Berlin", Country: "DE"},
			arr:  valueobject.Location{City: "Munich", Country: "DE"},
			want: 0.75,
		},
		{
			name: "нет совпадений",
			addr: valueobject.Address{City: "Tokyo", Country: "JP"},
			dep:  valueobject.Location{City: "Moscow", Country: "RU"},
			arr:  valueobject.Location{City: "Berlin", Country: "DE"},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParcel()
			p.Recipient.Address = tt.addr
			tr := testTravel()
			tr.Departure = tt.dep
			tr.Arrival = tt.arr

			assert.Equal(t, tt.want, RouteScore(p, tr))
		})
	}
}

func TestCapacityScore(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		volume float64
		availW float64
		availV float64
		want   float64
	}{
		{"низкая загрузка", 2, 1000, 10, 10000, 0.15},
		{"ровно 80% насыщает", 8, 8000, 10, 10000, 1},
		{"чуть ниже порога", 7.9, 7900, 10, 10000, 0.79},
		{"превышение обрезается", 20, 20000, 10, 10000, 1},
		{"смешанная загрузка", 9, 1000, 10, 10000, 0.55},
		{"нулевой объём поездки", 5, 1000, 10, 0, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParcel()
			p.Weight = tt.weight
			p.Volume = tt.volume
			tr := testTravel()
			tr.AvailableCapacity = entity.Capacity{Weight: tt.availW, Volume: tt.availV}

			assert.InDelta(t, tt.want, CapacityScore(p, tr), 1e-9)
		})
	}
}

func TestTimingScore(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		name   string
		buffer time.Duration
		want   float64
	}{
		{"прибытие после срока", -time.Minute, 0},
		{"прибытие ровно в срок", 0, 0.5},
		{"запас меньше суток", 23 * time.Hour, 0.5},
		{"ровно сутки", day, 1},
		{"неделя", 7 * day, 1},
		{"больше недели", 7*day + time.Hour, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParcel()
			tr := testTravel()
			p.DeliveryDeadline = tr.ArrivalDate.Add(tt.buffer)

			assert.Equal(t, tt.want, TimingScore(p, tr))
		})
	}
}

func TestTimingScore_ZeroWheneverLate(t *testing.T) {
	s := NewDefaultScorer()
	for hours := 1; hours < 24*30; hours += 7 {
		p := testParcel()
		tr := testTravel()
		p.DeliveryDeadline = tr.ArrivalDate.Add(-time.Duration(hours) * time.Hour)

		assert.Equal(t, 0.0, s.Score(p, tr, nil).Timing)
	}
}

func TestPriceScore(t *testing.T) {
	tests := []struct {
		name  string
		fee   float64
		value float64
		want  float64
	}{
		{"бесплатно", 0, 100, 1},
		{"ровно потолок", 15, 100, 0.85},
		{"выше потолка", 15.01, 100, 0},
		{"потолок 18", 2.7, 18, 0.85},
		{"потолок 3", 0.45, 3, 0.85},
		{"потолок 23", 3.45, 23, 0.85},
		{"нулевая стоимость", 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParcel()
			p.DeclaredValue = tt.value
			tr := testTravel()
			tr.BaseDeliveryFee = tt.fee

			assert.InDelta(t, tt.want, PriceScore(p, tr), 1e-9)
		})
	}
}

func TestRatingScore(t *testing.T) {
	assert.Equal(t, 0.5, RatingScore(nil))
	assert.Equal(t, 0.5, RatingScore(&entity.Reputation{}))
	assert.InDelta(t, 0.8, RatingScore(reputation(4, 4)), 1e-9)
	assert.InDelta(t, 0.85, RatingScore(reputation(4, 5)), 1e-9)
	assert.InDelta(t, 0.9, RatingScore(reputation(4, 10)), 1e-9)
	assert.Equal(t, 1.0, RatingScore(reputation(5, 50)))
	assert.InDelta(t, 0.2, RatingScore(reputation(1, 1)), 1e-9)
}

func TestWeights(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())
	assert.InDelta(t, 1.0, DefaultWeights().Sum(), 1e-12)

	bad := Weights{Route: 0.5, Capacity: 0.5, Timing: 0.5}
	assert.Error(t, bad.Validate())

	s := NewScorer(bad)
	assert.Equal(t, DefaultWeights(), s.Weights())
}
