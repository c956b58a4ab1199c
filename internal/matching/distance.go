package matching

import (
	"math"

	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

const earthRadiusKm = 6371.0

// HaversineKm расстояние по дуге большого круга между двумя точками.
func HaversineKm(a, b valueobject.Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// RouteDistanceKm расстояние между точками поездки; ok=false, если у одной
// из точек нет координат.
func RouteDistanceKm(t *entity.Travel) (float64, bool) {
	if t.Departure.Coordinates == nil || t.Arrival.Coordinates == nil {
		return 0, false
	}
	return HaversineKm(*t.Departure.Coordinates, *t.Arrival.Coordinates), true
}
