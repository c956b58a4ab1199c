package matching

import (
	"math"
	"time"

	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

type RouteDetails struct {
	Departure     bool     `json:"departure"`
	Arrival       bool     `json:"arrival"`
	DepartureCity string   `json:"departure_city"`
	ArrivalCity   string   `json:"arrival_city"`
	DistanceKm    *float64 `json:"distance_km,omitempty"`
}

type CapacityDetails struct {
	Weight          bool    `json:"weight"`
	Volume          bool    `json:"volume"`
	AvailableWeight float64 `json:"available_weight"`
	RequiredWeight  float64 `json:"required_weight"`
	AvailableVolume float64 `json:"available_volume"`
	RequiredVolume  float64 `json:"required_volume"`
}

type TimingDetails struct {
	CanMeetDeadline  bool      `json:"can_meet_deadline"`
	TravelArrival    time.Time `json:"travel_arrival"`
	DeliveryDeadline time.Time `json:"delivery_deadline"`
	BufferDays       int       `json:"buffer_days"`
}

type PriceDetails struct {
	BaseFee          float64 `json:"base_fee"`
	MaxAcceptableFee float64 `json:"max_acceptable_fee"`
	IsAffordable     bool    `json:"is_affordable"`
}

type CarrierInfo struct {
	Rating              float64 `json:"rating"`
	TotalReviews        int     `json:"total_reviews"`
	CompletedDeliveries int     `json:"completed_deliveries"`
	SuccessRate         float64 `json:"success_rate"`
}

// Details пояснение к оценке, которое отдаётся клиенту вместе с баллом.
type Details struct {
	Route    RouteDetails    `json:"route"`
	Capacity CapacityDetails `json:"capacity"`
	Timing   TimingDetails   `json:"timing"`
	Price    PriceDetails    `json:"price"`
	Carrier  CarrierInfo     `json:"carrier"`
}

func sameLocation(addr valueobject.Address, loc valueobject.Location) bool {
	return addr.City == loc.City && addr.Country == loc.Country
}

func (s *Scorer) Details(p *entity.Parcel, t *entity.Travel, rep *entity.Reputation) Details {
	addr := p.Recipient.Address
	d := Details{
		Route: RouteDetails{
			Departure:     sameLocation(addr, t.Departure),
			Arrival:       sameLocation(addr, t.Arrival),
			DepartureCity: t.Departure.City,
			ArrivalCity:   t.Arrival.City,
		},
		Capacity: CapacityDetails{
			Weight:          t.AvailableCapacity.Weight >= p.Weight,
			Volume:          t.AvailableCapacity.Volume >= p.Volume,
			AvailableWeight: t.AvailableCapacity.Weight,
			RequiredWeight:  p.Weight,
			AvailableVolume: t.AvailableCapacity.Volume,
			RequiredVolume:  p.Volume,
		},
		Timing: TimingDetails{
			CanMeetDeadline:  !t.ArrivalDate.After(p.DeliveryDeadline),
			TravelArrival:    t.ArrivalDate,
			DeliveryDeadline: p.DeliveryDeadline,
			BufferDays:       int(math.Floor(BufferDays(p, t))),
		},
		Price: PriceDetails{
			BaseFee:          t.BaseDeliveryFee,
			MaxAcceptableFee: valueobject.MaxAcceptableFee(p.DeclaredValue),
			IsAffordable:     valueobject.FeeWithinCap(t.BaseDeliveryFee, p.DeclaredValue),
		},
	}
	if km, ok := RouteDistanceKm(t); ok {
		d.Route.DistanceKm = &km
	}
	if rep != nil {
		d.Carrier = CarrierInfo{
			Rating:              round2(rep.Average()),
			TotalReviews:        rep.TotalReviews,
			CompletedDeliveries: rep.CompletedDeliveries,
			SuccessRate:         round2(rep.SuccessRate()),
		}
	}
	return d
}
