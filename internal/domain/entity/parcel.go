package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

type Recipient struct {
	Name        string
	PhoneNumber string
	Email       string
	Address     valueobject.Address
}

type Dimensions struct {
	Length float64
	Width  float64
	Height float64
}

// Volume объём в кубических сантиметрах.
func (d Dimensions) Volume() float64 {
	return d.Length * d.Width * d.Height
}

type TrackingEvent struct {
	ID          uuid.UUID
	ParcelID    uuid.UUID
	Event       valueobject.TrackingEventType
	City        string
	Country     string
	Description string
	PhotoKeys   []string
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
}

type Parcel struct {
	ID                uuid.UUID
	SenderID          uuid.UUID
	Recipient         Recipient
	Description       string
	Category          valueobject.ParcelCategory
	Dimensions        Dimensions
	Weight            float64
	Volume            float64
	DeclaredValue     float64
	Currency          string
	InsuranceRequired bool
	InsuranceAmount   *float64
	SpecialHandling   []valueobject.SpecialHandling
	DeliveryDeadline  time.Time
	Status            valueobject.ParcelStatus
	MatchedTravelID   *uuid.UUID
	MatchedCarrierID  *uuid.UUID
	AgreedDeliveryFee *float64
	PlatformFee       *float64
	TotalAmount       *float64
	PhotoKeys         []string
	TrackingEvents    []TrackingEvent
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type NewParcelParams struct {
	SenderID          uuid.UUID
	Recipient         Recipient
	Description       string
	Category          valueobject.ParcelCategory
	Dimensions        Dimensions
	Weight            float64
	DeclaredValue     float64
	Currency          string
	InsuranceRequired bool
	InsuranceAmount   *float64
	SpecialHandling   []valueobject.SpecialHandling
	DeliveryDeadline  time.Time
}

func NewParcel(p NewParcelParams, now time.Time) (*Parcel, error) {
	if strings.TrimSpace(p.Description) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "описание посылки обязательно")
	}
	if strings.TrimSpace(p.Recipient.Name) == "" || strings.TrimSpace(p.Recipient.PhoneNumber) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "имя и телефон получателя обязательны")
	}
	if p.Dimensions.Length <= 0 || p.Dimensions.Width <= 0 || p.Dimensions.Height <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "габариты посылки должны быть положительными")
	}
	if p.Weight <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "вес посылки должен быть положительным")
	}
	if p.DeclaredValue <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "объявленная стоимость должна быть положительной")
	}
	if p.InsuranceAmount != nil && *p.InsuranceAmount < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма страховки не может быть отрицательной")
	}
	if !p.DeliveryDeadline.After(now) {
		return nil, apperror.New(apperror.ErrCodeValidation, "срок доставки должен быть в будущем")
	}
	currency := p.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	parcel := &Parcel{
		ID:                uuid.New(),
		SenderID:          p.SenderID,
		Recipient:         p.Recipient,
		Description:       strings.TrimSpace(p.Description),
		Category:          p.Category,
		Dimensions:        p.Dimensions,
		Weight:            p.Weight,
		Volume:            p.Dimensions.Volume(),
		DeclaredValue:     p.DeclaredValue,
		Currency:          currency,
		InsuranceRequired: p.InsuranceRequired,
		InsuranceAmount:   p.InsuranceAmount,
		SpecialHandling:   p.SpecialHandling,
		DeliveryDeadline:  p.DeliveryDeadline,
		Status:            valueobject.ParcelStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	parcel.TrackingEvents = []TrackingEvent{parcel.NewTrackingEvent(valueobject.TrackingCreated, "", "", "посылка создана", p.SenderID, now)}
	return parcel, nil
}

func (p *Parcel) transition(to valueobject.ParcelStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(to) {
		return apperror.Newf(apperror.ErrCodeInvalidState,
			"переход посылки из статуса %s в %s недопустим", p.Status, to)
	}
	p.Status = to
	p.UpdatedAt = now
	return nil
}

// MarkMatched связывает посылку с поездкой и фиксирует итоговую цену.
func (p *Parcel) MarkMatched(travelID, carrierID uuid.UUID, fee, platformFee, total float64, now time.Time) error {
	if err := p.transition(valueobject.ParcelStatusMatched, now); err != nil {
		return err
	}
	p.MatchedTravelID = &travelID
	p.MatchedCarrierID = &carrierID
	p.AgreedDeliveryFee = &fee
	p.PlatformFee = &platformFee
	p.TotalAmount = &total
	return nil
}

func (p *Parcel) PickUp(now time.Time) error {
	return p.transition(valueobject.ParcelStatusInTransit, now)
}

func (p *Parcel) Deliver(now time.Time) error {
	return p.transition(valueobject.ParcelStatusDelivered, now)
}

func (p *Parcel) MarkLost(now time.Time) error {
	return p.transition(valueobject.ParcelStatusLost, now)
}

func (p *Parcel) Cancel(now time.Time) error {
	return p.transition(valueobject.ParcelStatusCancelled, now)
}

func (p *Parcel) IsOwnedBy(userID uuid.UUID) bool {
	return p.SenderID == userID
}

func (p *Parcel) IsCarriedBy(userID uuid.UUID) bool {
	return p.MatchedCarrierID != nil && *p.MatchedCarrierID == userID
}

func (p *Parcel) HasSpecialHandling() bool {
	return len(p.SpecialHandling) > 0
}

// InsuranceFee страховой сбор: явная сумма или 2% стоимости.
func (p *Parcel) InsuranceFee() float64 {
	if !p.InsuranceRequired {
		return 0
	}
	if p.InsuranceAmount != nil {
		return valueobject.RoundMoney(*p.InsuranceAmount)
	}
	return valueobject.RoundMoney(p.DeclaredValue * valueobject.DefaultInsuranceRate)
}

func (p *Parcel) NewTrackingEvent(event valueobject.TrackingEventType, city, country, description string, by uuid.UUID, now time.Time) TrackingEvent {
	return TrackingEvent{
		ID:          uuid.New(),
		ParcelID:    p.ID,
		Event:       event,
		City:        city,
		Country:     country,
		Description: description,
		CreatedBy:   by,
		CreatedAt:   now,
	}
}
