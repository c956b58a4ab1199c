// Package matching оценивает совместимость посылки и поездки.
// Пакет не выполняет ввода-вывода: все данные передаются аргументами.
package matching

import (
	"math"

	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

const (
	// CapacitySaturation доля загрузки, начиная с которой измерение даёт полный балл.
	CapacitySaturation = 0.8

	minPriceScore   = 0.5
	neutralRating   = 0.5
	maxRatingValue  = 5.0
	highTrustBonus  = 0.10
	lowTrustBonus   = 0.05
	highTrustCount  = 10
	lowTrustCount   = 5
	idealBufferMin  = 1.0
	idealBufferMax  = 7.0
	looseBufferRate = 0.8
	tightBufferRate = 0.5
)

type Result struct {
	Total    float64
	Route    float64
	Capacity float64
	Timing   float64
	Price    float64
	Rating   float64
}

// Breakdown переводит результат в доменную структуру матча.
func (r Result) Breakdown() entity.MatchScore {
	return entity.MatchScore{
		Total:    r.Total,
		Route:    r.Route,
		Capacity: r.Capacity,
		Timing:   r.Timing,
		Price:    r.Price,
		Rating:   r.Rating,
	}
}

type Scorer struct {
	weights Weights
}

// NewScorer возвращает оценщик с заданными весами. Некорректные веса
// заменяются весами по умолчанию.
func NewScorer(w Weights) *Scorer {
	if w.Validate() != nil {
		w = DefaultWeights()
	}
	return &Scorer{weights: w}
}

func NewDefaultScorer() *Scorer {
	return &Scorer{weights: DefaultWeights()}
}

func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score детерминированно оценивает пару посылка/поездка с учётом репутации перевозчика.
// rep может быть nil, если у перевозчика нет истории.
func (s *Scorer) Score(p *entity.Parcel, t *entity.Travel, rep *entity.Reputation) Result {
	r := Result{
		Route:    RouteScore(p, t),
		Capacity: CapacityScore(p, t),
		Timing:   TimingScore(p, t),
		Price:    PriceScore(p, t),
		Rating:   RatingScore(rep),
	}
	total := r.Route*s.weights.Route +
		r.Capacity*s.weights.Capacity +
		r.Timing*s.weights.Timing +
		r.Price*s.weights.Price +
		r.Rating*s.weights.Rating
	r.Total = clamp(round2(total*100), 0, 100)
	return r
}

// RouteScore сравнивает город и страну получателя с обеими точками поездки.
func RouteScore(p *entity.Parcel, t *entity.Travel) float64 {
	addr := p.Recipient.Address
	score := legScore(addr, t.Departure) + legScore(addr, t.Arrival)
	return math.Min(score, 1)
}

func legScore(addr valueobject.Address, loc valueobject.Location) float64 {
	if addr.City != "" && addr.City == loc.City {
		return 0.5
	}
	if addr.Country != "" && addr.Country == loc.Country {
		return 0.25
	}
	return 0
}

// CapacityScore среднее загрузки по весу и объёму.
func CapacityScore(p *entity.Parcel, t *entity.Travel) float64 {
	w := utilisation(p.Weight, t.AvailableCapacity.Weight)
	v := utilisation(p.Volume, t.AvailableCapacity.Volume)
	return (w + v) / 2
}

func utilisation(required, available float64) float64 {
	if available <= 0 {
		return 1
	}
	ratio := math.Min(required/available, 1)
	if ratio < 0 {
		ratio = 0
	}
	if ratio >= CapacitySaturation {
		return 1
	}
	return ratio
}

// BufferDays запас в днях между прибытием и сроком доставки.
func BufferDays(p *entity.Parcel, t *entity.Travel) float64 {
	return p.DeliveryDeadline.Sub(t.ArrivalDate).Hours() / 24
}

func TimingScore(p *entity.Parcel, t *entity.Travel) float64 {
	if p.DeliveryDeadline.Before(t.ArrivalDate) {
		return 0
	}
	days := BufferDays(p, t)
	switch {
	case days >= idealBufferMin && days <= idealBufferMax:
		return 1
	case days > idealBufferMax:
		return looseBufferRate
	default:
		return tightBufferRate
	}
}

func PriceScore(p *entity.Parcel, t *entity.Travel) float64 {
	if p.DeclaredValue <= 0 {
		return 0
	}
	if !valueobject.FeeWithinCap(t.BaseDeliveryFee, p.DeclaredValue) {
		return 0
	}
	return math.Max(minPriceScore, 1-t.BaseDeliveryFee/p.DeclaredValue)
}

func RatingScore(rep *entity.Reputation) float64 {
	if !rep.HasHistory() {
		return neutralRating
	}
	score := rep.Average() / maxRatingValue
	switch {
	case rep.TotalReviews >= highTrustCount:
		score += highTrustBonus
	case rep.TotalReviews >= lowTrustCount:
		score += lowTrustBonus
	}
	return clamp(score, 0, 1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
