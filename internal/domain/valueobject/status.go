package valueobject

import "github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"

// canTransition проверяет переход по таблице допустимых переходов.
func canTransition[S comparable](transitions map[S][]S, from, to S) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == to {
			return true
		}
	}
	return false
}

type ParcelStatus string

const (
	ParcelStatusPending   ParcelStatus = "pending"
	ParcelStatusMatched   ParcelStatus = "matched"
	ParcelStatusInTransit ParcelStatus = "in_transit"
	ParcelStatusDelivered ParcelStatus = "delivered"
	ParcelStatusCancelled ParcelStatus = "cancelled"
	ParcelStatusLost      ParcelStatus = "lost"
)

var parcelTransitions = map[ParcelStatus][]ParcelStatus{
	ParcelStatusPending:   {ParcelStatusMatched, ParcelStatusCancelled},
	ParcelStatusMatched:   {ParcelStatusInTransit, ParcelStatusCancelled},
	ParcelStatusInTransit: {ParcelStatusDelivered, ParcelStatusLost},
	ParcelStatusDelivered: {},
	ParcelStatusCancelled: {},
	ParcelStatusLost:      {},
}

func (s ParcelStatus) IsValid() bool {
	_, ok := parcelTransitions[s]
	return ok
}

// CanTransitionTo статусы посылки движутся только вперёд, кроме отмены.
func (s ParcelStatus) CanTransitionTo(newStatus ParcelStatus) bool {
	return canTransition(parcelTransitions, s, newStatus)
}

func (s ParcelStatus) IsTerminal() bool {
	return s == ParcelStatusDelivered || s == ParcelStatusCancelled || s == ParcelStatusLost
}

func NewParcelStatus(status string) (ParcelStatus, error) {
	s := ParcelStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус посылки")
	}
	return s, nil
}

type TravelStatus string

const (
	TravelStatusPlanned    TravelStatus = "planned"
	TravelStatusConfirmed  TravelStatus = "confirmed"
	TravelStatusInProgress TravelStatus = "in_progress"
	TravelStatusCompleted  TravelStatus = "completed"
	TravelStatusCancelled  TravelStatus = "cancelled"
)

var travelTransitions = map[TravelStatus][]TravelStatus{
	TravelStatusPlanned:    {TravelStatusConfirmed, TravelStatusInProgress, TravelStatusCancelled},
	TravelStatusConfirmed:  {TravelStatusInProgress, TravelStatusCancelled},
	TravelStatusInProgress: {TravelStatusCompleted},
	TravelStatusCompleted:  {},
	TravelStatusCancelled:  {},
}

func (s TravelStatus) IsValid() bool {
	_, ok := travelTransitions[s]
	return ok
}

func (s TravelStatus) CanTransitionTo(newStatus TravelStatus) bool {
	return canTransition(travelTransitions, s, newStatus)
}

// IsBookable поездка принимает посылки только до начала.
func (s TravelStatus) IsBookable() bool {
	return s == TravelStatusPlanned || s == TravelStatusConfirmed
}

func NewTravelStatus(status string) (TravelStatus, error) {
	s := TravelStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус поездки")
	}
	return s, nil
}

type MatchStatus string

const (
	MatchStatusProposed  MatchStatus = "proposed"
	MatchStatusAccepted  MatchStatus = "accepted"
	MatchStatusRejected  MatchStatus = "rejected"
	MatchStatusExpired   MatchStatus = "expired"
	MatchStatusCancelled MatchStatus = "cancelled"
)

var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusProposed:  {MatchStatusAccepted, MatchStatusRejected, MatchStatusExpired, MatchStatusCancelled},
	MatchStatusAccepted:  {},
	MatchStatusRejected:  {},
	MatchStatusExpired:   {},
	MatchStatusCancelled: {},
}

func (s MatchStatus) IsValid() bool {
	_, ok := matchTransitions[s]
	return ok
}

func (s MatchStatus) CanTransitionTo(newStatus MatchStatus) bool {
	return canTransition(matchTransitions, s, newStatus)
}

func (s MatchStatus) IsTerminal() bool {
	return s.IsValid() && s != MatchStatusProposed
}

// IsActive активный матч блокирует повторное предложение той же пары.
func (s MatchStatus) IsActive() bool {
	return s == MatchStatusProposed || s == MatchStatusAccepted
}

func NewMatchStatus(status string) (MatchStatus, error) {
	s := MatchStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус матча")
	}
	return s, nil
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusDisputed   PaymentStatus = "disputed"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusDisputed:
		return true
	}
	return false
}

func NewPaymentStatus(status string) (PaymentStatus, error) {
	s := PaymentStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус платежа")
	}
	return s, nil
}

type EscrowStatus string

const (
	EscrowStatusFunded   EscrowStatus = "funded"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
	EscrowStatusDisputed EscrowStatus = "disputed"
)

var escrowTransitions = map[EscrowStatus][]EscrowStatus{
	EscrowStatusFunded:   {EscrowStatusReleased, EscrowStatusRefunded, EscrowStatusDisputed},
	EscrowStatusDisputed: {EscrowStatusReleased, EscrowStatusRefunded},
	EscrowStatusReleased: {},
	EscrowStatusRefunded: {},
}

func (s EscrowStatus) IsValid() bool {
	_, ok := escrowTransitions[s]
	return ok
}

func (s EscrowStatus) CanTransitionTo(newStatus EscrowStatus) bool {
	return canTransition(escrowTransitions, s, newStatus)
}

func NewEscrowStatus(status string) (EscrowStatus, error) {
	s := EscrowStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус эскроу")
	}
	return s, nil
}

type ReleaseCondition string

const (
	ReleaseDeliveryConfirmed ReleaseCondition = "delivery_confirmed"
	ReleaseTimeElapsed       ReleaseCondition = "time_elapsed"
	ReleaseManual            ReleaseCondition = "manual_release"
)

type DisputeReason string

const (
	DisputeNonDelivery DisputeReason = "non_delivery"
	DisputeDamage      DisputeReason = "damage"
	DisputeDelay       DisputeReason = "delay"
	DisputeWrongItem   DisputeReason = "wrong_item"
	DisputeOther       DisputeReason = "other"
)

func NewDisputeReason(reason string) (DisputeReason, error) {
	switch r := DisputeReason(reason); r {
	case DisputeNonDelivery, DisputeDamage, DisputeDelay, DisputeWrongItem, DisputeOther:
		return r, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "некорректная причина спора")
}

type RatingType string

const (
	RatingSenderToCarrier RatingType = "sender_to_carrier"
	RatingCarrierToSender RatingType = "carrier_to_sender"
)

func (t RatingType) IsValid() bool {
	return t == RatingSenderToCarrier || t == RatingCarrierToSender
}

type TravelMode string

const (
	TravelModeAir   TravelMode = "air"
	TravelModeLand  TravelMode = "land"
	TravelModeSea   TravelMode = "sea"
	TravelModeMixed TravelMode = "mixed"
)

func NewTravelMode(mode string) (TravelMode, error) {
	switch m := TravelMode(mode); m {
	case TravelModeAir, TravelModeLand, TravelModeSea, TravelModeMixed:
		return m, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "некорректный способ передвижения")
}

type UserRole string

const (
	RoleSender  UserRole = "sender"
	RoleCarrier UserRole = "carrier"
	RoleAdmin   UserRole = "admin"
)

func NewUserRole(role string) (UserRole, error) {
	switch r := UserRole(role); r {
	case RoleSender, RoleCarrier, RoleAdmin:
		return r, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "некорректная роль пользователя")
}

type ParcelCategory string

const (
	CategoryElectronics ParcelCategory = "electronics"
	CategoryClothing    ParcelCategory = "clothing"
	CategoryDocuments   ParcelCategory = "documents"
	CategoryBooks       ParcelCategory = "books"
	CategoryFood        ParcelCategory = "food"
	CategoryCosmetics   ParcelCategory = "cosmetics"
	CategoryOther       ParcelCategory = "other"
)

func NewParcelCategory(category string) (ParcelCategory, error) {
	switch c := ParcelCategory(category); c {
	case CategoryElectronics, CategoryClothing, CategoryDocuments, CategoryBooks,
		CategoryFood, CategoryCosmetics, CategoryOther:
		return c, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "некорректная категория посылки")
}

type SpecialHandling string

const (
	HandlingFragile               SpecialHandling = "fragile"
	HandlingTemperatureControlled SpecialHandling = "temperature_controlled"
	HandlingUrgent                SpecialHandling = "urgent"
	HandlingSignatureRequired     SpecialHandling = "signature_required"
	HandlingPhotoProof            SpecialHandling = "photo_proof"
)

func NewSpecialHandling(value string) (SpecialHandling, error) {
	switch h := SpecialHandling(value); h {
	case HandlingFragile, HandlingTemperatureControlled, HandlingUrgent,
		HandlingSignatureRequired, HandlingPhotoProof:
		return h, nil
	}
	return "", apperror.Newf(apperror.ErrCodeValidation, "неизвестный тип обработки: %s", value)
}

type TrackingEventType string

const (
	TrackingCreated        TrackingEventType = "created"
	TrackingMatched        TrackingEventType = "matched"
	TrackingPickedUp       TrackingEventType = "picked_up"
	TrackingInTransit      TrackingEventType = "in_transit"
	TrackingOutForDelivery TrackingEventType = "out_for_delivery"
	TrackingDelivered      TrackingEventType = "delivered"
	TrackingFailedDelivery TrackingEventType = "failed_delivery"
)

func NewTrackingEventType(value string) (TrackingEventType, error) {
	switch e := TrackingEventType(value); e {
	case TrackingCreated, TrackingMatched, TrackingPickedUp, TrackingInTransit,
		TrackingOutForDelivery, TrackingDelivered, TrackingFailedDelivery:
		return e, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "некорректный тип события отслеживания")
}
