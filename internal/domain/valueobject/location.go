package valueobject

import (
	"strings"

	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

type Location struct {
	City        string
	Country     string
	Airport     string
	Coordinates *Coordinates
}

func NewLocation(city, country, airport string, coords *Coordinates) (Location, error) {
	city = strings.TrimSpace(city)
	country = strings.TrimSpace(country)
	if city == "" || country == "" {
		return Location{}, apperror.New(apperror.ErrCodeValidation, "город и страна обязательны")
	}
	if coords != nil {
		if coords.Latitude < -90 || coords.Latitude > 90 || coords.Longitude < -180 || coords.Longitude > 180 {
			return Location{}, apperror.New(apperror.ErrCodeValidation, "некорректные координаты")
		}
	}
	return Location{City: city, Country: country, Airport: strings.TrimSpace(airport), Coordinates: coords}, nil
}

// Address адрес получателя. Город и страна сравниваются со
// станциями поездки при подборе.
type Address struct {
	Street      string
	City        string
	State       string
	Country     string
	PostalCode  string
	Coordinates *Coordinates
}
