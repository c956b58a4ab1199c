package matching

import (
	"math"

	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

const (
	specialHandlingMarkup = 1.10
	longDistanceMarkup    = 1.05
	longDistanceKm        = 1000.0

	minFeeFactor = 0.9
	maxFeeFactor = 1.2
)

// EstimateFee ориентировочная стоимость доставки: базовая плата поездки с
// надбавками за особую обработку, страховку и дальнее расстояние.
func EstimateFee(p *entity.Parcel, t *entity.Travel) float64 {
	fee := t.BaseDeliveryFee
	if p.HasSpecialHandling() {
		fee *= specialHandlingMarkup
	}
	fee += p.InsuranceFee()
	if km, ok := RouteDistanceKm(t); ok && km > longDistanceKm {
		fee *= longDistanceMarkup
	}
	return valueobject.RoundMoney(fee)
}

// SuggestPricing коридор цены для переговоров. Верхняя граница не выходит за
// потолок в 15% стоимости посылки.
func SuggestPricing(p *entity.Parcel, t *entity.Travel) entity.Pricing {
	minFee := t.BaseDeliveryFee * minFeeFactor
	maxFee := math.Min(t.BaseDeliveryFee*maxFeeFactor, valueobject.MaxAcceptableFee(p.DeclaredValue))
	return entity.Pricing{
		SuggestedFee: valueobject.RoundMoney((minFee + maxFee) / 2),
		MinFee:       valueobject.RoundMoney(minFee),
		MaxFee:       valueobject.RoundMoney(maxFee),
	}
}
