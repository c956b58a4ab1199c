package matching

import (
	"fmt"
	"math"
)

// Weights доли подоценок в итоговом балле. Сумма должна быть равна 1.
type Weights struct {
	Route    float64
	Capacity float64
	Timing   float64
	Price    float64
	Rating   float64
}

func DefaultWeights() Weights {
	return Weights{
		Route:    0.35,
		Capacity: 0.25,
		Timing:   0.20,
		Price:    0.10,
		Rating:   0.10,
	}
}

func (w Weights) Sum() float64 {
	return w.Route + w.Capacity + w.Timing + w.Price + w.Rating
}

func (w Weights) Validate() error {
	for _, v := range []float64{w.Route, w.Capacity, w.Timing, w.Price, w.Rating} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("вес не может быть отрицательным: %v", v)
		}
	}
	if math.Abs(w.Sum()-1) > 1e-9 {
		return fmt.Errorf("сумма весов должна быть 1, получено %.4f", w.Sum())
	}
	return nil
}
