package dto

import (
	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

type CoordinatesDTO struct {
	Latitude  float64 `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" binding:"gte=-180,lte=180"`
}

type LocationDTO struct {
	City        string          `json:"city" binding:"required"`
	Country     string          `json:"country" binding:"required"`
	Airport     string          `json:"airport,omitempty"`
	Coordinates *CoordinatesDTO `json:"coordinates,omitempty"`
}

type AddressDTO struct {
	Street      string          `json:"street"`
	City        string          `json:"city" binding:"required"`
	State       string          `json:"state,omitempty"`
	Country     string          `json:"country" binding:"required"`
	PostalCode  string          `json:"postal_code,omitempty"`
	Coordinates *CoordinatesDTO `json:"coordinates,omitempty"`
}

func (c *CoordinatesDTO) toValue() *valueobject.Coordinates {
	if c == nil {
		return nil
	}
	return &valueobject.Coordinates{Latitude: c.Latitude, Longitude: c.Longitude}
}

func fromCoordinates(c *valueobject.Coordinates) *CoordinatesDTO {
	if c == nil {
		return nil
	}
	return &CoordinatesDTO{Latitude: c.Latitude, Longitude: c.Longitude}
}

func (l LocationDTO) ToLocation() (valueobject.Location, error) {
	return valueobject.NewLocation(l.City, l.Country, l.Airport, l.Coordinates.toValue())
}

func FromLocation(l valueobject.Location) LocationDTO {
	return LocationDTO{
		City:        l.City,
		Country:     l.Country,
		Airport:     l.Airport,
		Coordinates: fromCoordinates(l.Coordinates),
	}
}

func (a AddressDTO) ToAddress() valueobject.Address {
	return valueobject.Address{
		Street:      a.Street,
		City:        a.City,
		State:       a.State,
		Country:     a.Country,
		PostalCode:  a.PostalCode,
		Coordinates: a.Coordinates.toValue(),
	}
}

func FromAddress(a valueobject.Address) AddressDTO {
	return AddressDTO{
		Street:      a.Street,
		City:        a.City,
		State:       a.State,
		Country:     a.Country,
		PostalCode:  a.PostalCode,
		Coordinates: fromCoordinates(a.Coordinates),
	}
}

// ParseOptionalUUID пустая строка означает отсутствие значения.
func ParseOptionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
