package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

// MatchTTL фиксированное окно, в течение которого предложение можно
// обсуждать и принять.
const MatchTTL = 24 * time.Hour

type MatchScore struct {
	Total    float64
	Route    float64
	Capacity float64
	Timing   float64
	Price    float64
	Rating   float64
}

type Pricing struct {
	SuggestedFee float64
	MinFee       float64
	MaxFee       float64
}

type NegotiationEntry struct {
	ProposedBy uuid.UUID
	Amount     float64
	Message    string
	Timestamp  time.Time
}

type Negotiation struct {
	InitialFee  float64
	ProposedFee *float64
	FinalFee    *float64
	Currency    string
	History     []NegotiationEntry
}

type Agreement struct {
	PickupLocation      string
	PickupDate          *time.Time
	DeliveryLocation    string
	DeliveryDate        *time.Time
	SpecialInstructions string
	InsuranceRequired   bool
	InsuranceAmount     *float64
}

type Match struct {
	ID                 uuid.UUID
	ParcelID           uuid.UUID
	TravelID           uuid.UUID
	SenderID           uuid.UUID
	CarrierID          uuid.UUID
	Status             valueobject.MatchStatus
	Score              MatchScore
	Pricing            Pricing
	Negotiation        Negotiation
	Agreement          *Agreement
	RejectionReason    string
	CancellationReason string
	ProposedAt         time.Time
	AcceptedAt         *time.Time
	RejectedAt         *time.Time
	CancelledAt        *time.Time
	ExpiresAt          time.Time
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type NewMatchParams struct {
	Parcel     *Parcel
	Travel     *Travel
	InitialFee float64
	Currency   string
	Agreement  *Agreement
	Score      MatchScore
	Pricing    Pricing
}

// NewMatch создаёт предложение в статусе proposed.
func NewMatch(p NewMatchParams, now time.Time) (*Match, error) {
	if p.Parcel.Status != valueobject.ParcelStatusPending {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "посылка недоступна для подбора")
	}
	if !p.Travel.IsBookable() {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "поездка недоступна для подбора")
	}
	if err := valueobject.ValidateFee(p.InitialFee, p.Parcel.DeclaredValue); err != nil {
		return nil, err
	}
	currency := p.Currency
	if currency == "" {
		currency = p.Parcel.Currency
	}

	return &Match{
		ID:        uuid.New(),
		ParcelID:  p.Parcel.ID,
		TravelID:  p.Travel.ID,
		SenderID:  p.Parcel.SenderID,
		CarrierID: p.Travel.CarrierID,
		Status:    valueobject.MatchStatusProposed,
		Score:     p.Score,
		Pricing:   p.Pricing,
		Negotiation: Negotiation{
			InitialFee: valueobject.RoundMoney(p.InitialFee),
			Currency:   currency,
		},
		Agreement:  p.Agreement,
		ProposedAt: now,
		ExpiresAt:  now.Add(MatchTTL),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (m *Match) IsParty(userID uuid.UUID) bool {
	return m.SenderID == userID || m.CarrierID == userID
}

// IsExpired предложение просрочено, если срок наступил, а решения нет.
func (m *Match) IsExpired(now time.Time) bool {
	return m.Status == valueobject.MatchStatusProposed && !now.Before(m.ExpiresAt)
}

// EffectiveStatus статус с учётом ленивой проверки срока.
func (m *Match) EffectiveStatus(now time.Time) valueobject.MatchStatus {
	if m.IsExpired(now) {
		return valueobject.MatchStatusExpired
	}
	return m.Status
}

func (m *Match) ensureOpen(now time.Time) error {
	if m.Status != valueobject.MatchStatusProposed {
		return apperror.Newf(apperror.ErrCodeInvalidState, "матч в статусе %s, ожидался proposed", m.Status)
	}
	if m.IsExpired(now) {
		return apperror.ErrMatchExpired
	}
	return nil
}

func (m *Match) touch(now time.Time) {
	m.UpdatedAt = now
}

// Negotiate добавляет встречное предложение. История только дополняется.
func (m *Match) Negotiate(proposerID uuid.UUID, fee float64, message string, declaredValue float64, now time.Time) (NegotiationEntry, error) {
	if !m.IsParty(proposerID) {
		return NegotiationEntry{}, apperror.ErrNotMatchParty
	}
	if err := m.ensureOpen(now); err != nil {
		return NegotiationEntry{}, err
	}
	if err := valueobject.ValidateFee(fee, declaredValue); err != nil {
		return NegotiationEntry{}, err
	}

	amount := valueobject.RoundMoney(fee)
	entry := NegotiationEntry{
		ProposedBy: proposerID,
		Amount:     amount,
		Message:    strings.TrimSpace(message),
		Timestamp:  now,
	}
	m.Negotiation.History = append(m.Negotiation.History, entry)
	m.Negotiation.ProposedFee = &amount
	m.touch(now)
	return entry, nil
}

// ResolveFinalFee порядок: явная цена, последнее предложение, начальная цена.
// Явно переданная цена должна быть положительной.
func (m *Match) ResolveFinalFee(explicit *float64) (float64, error) {
	if explicit != nil {
		if *explicit <= 0 {
			return 0, apperror.New(apperror.ErrCodeValidation, "итоговая плата должна быть положительной")
		}
		return *explicit, nil
	}
	if m.Negotiation.ProposedFee != nil {
		return *m.Negotiation.ProposedFee, nil
	}
	return m.Negotiation.InitialFee, nil
}

func (m *Match) Accept(actorID uuid.UUID, finalFee *float64, agreement *Agreement, declaredValue float64, now time.Time) error {
	if !m.IsParty(actorID) {
		return apperror.ErrNotMatchParty
	}
	if err := m.ensureOpen(now); err != nil {
		return err
	}
	fee, err := m.ResolveFinalFee(finalFee)
	if err != nil {
		return err
	}
	if err := valueobject.ValidateFee(fee, declaredValue); err != nil {
		return err
	}

	fee = valueobject.RoundMoney(fee)
	m.Negotiation.FinalFee = &fee
	if agreement != nil {
		m.Agreement = agreement
	}
	m.Status = valueobject.MatchStatusAccepted
	m.AcceptedAt = &now
	m.touch(now)
	return nil
}

func (m *Match) Reject(actorID uuid.UUID, reason string, now time.Time) error {
	if !m.IsParty(actorID) {
		return apperror.ErrNotMatchParty
	}
	if err := m.ensureOpen(now); err != nil {
		return err
	}
	m.Status = valueobject.MatchStatusRejected
	m.RejectionReason = strings.TrimSpace(reason)
	m.RejectedAt = &now
	m.touch(now)
	return nil
}

// Cancel административная отмена; доступна участникам и администратору.
func (m *Match) Cancel(actorID uuid.UUID, isAdmin bool, reason string, now time.Time) error {
	if !isAdmin && !m.IsParty(actorID) {
		return apperror.ErrNotMatchParty
	}
	if err := m.ensureOpen(now); err != nil {
		return err
	}
	m.Status = valueobject.MatchStatusCancelled
	m.CancellationReason = strings.TrimSpace(reason)
	m.CancelledAt = &now
	m.touch(now)
	return nil
}

// Expire фиксирует истечение срока. Возвращает false, если матч не просрочен.
func (m *Match) Expire(now time.Time) bool {
	if !m.IsExpired(now) {
		return false
	}
	m.Status = valueobject.MatchStatusExpired
	m.touch(now)
	return true
}
