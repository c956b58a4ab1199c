package valueobject

import (
	"fmt"
	"math"

	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

const (
	DefaultCurrency = "USD"

	// MaxFeeShare максимальная доля объявленной стоимости, которую может
	// составлять плата за доставку.
	MaxFeeShare = 0.15
	// PlatformFeeRate комиссия платформы от платы за доставку.
	PlatformFeeRate = 0.05
	// DefaultInsuranceRate страховой сбор, если сумма страховки не указана.
	DefaultInsuranceRate = 0.02
)

type Money struct {
	Amount   float64
	Currency string
}

func NewMoney(amount float64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "некорректная сумма")
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: RoundMoney(amount), Currency: currency}, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%s %.2f", m.Currency, m.Amount)
}

// RoundMoney округляет до центов.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// feeCapEpsilon поглощает ошибку двоичного представления value*0.15:
// 3*0.15 даёт 0.44999999999999996, а потолок должен быть ровно 45 центов.
const feeCapEpsilon = 1e-6

// maxFeeCents потолок платы в целых центах, округлённый вниз.
func maxFeeCents(declaredValue float64) float64 {
	return math.Floor(declaredValue*MaxFeeShare*100 + feeCapEpsilon)
}

// MaxAcceptableFee наибольшая допустимая плата за доставку с точностью до цента.
func MaxAcceptableFee(declaredValue float64) float64 {
	return maxFeeCents(declaredValue) / 100
}

// FeeWithinCap плата не превышает 15% стоимости. Сравнение идёт в центах,
// плата ровно на потолке допустима.
func FeeWithinCap(fee, declaredValue float64) bool {
	return math.Round(fee*100) <= maxFeeCents(declaredValue)
}

// ValidateFee проверяет предложенную плату против потолка в 15% стоимости.
func ValidateFee(fee, declaredValue float64) error {
	if fee <= 0 || math.IsNaN(fee) || math.IsInf(fee, 0) {
		return apperror.New(apperror.ErrCodeValidation, "плата за доставку должна быть положительной")
	}
	if !FeeWithinCap(fee, declaredValue) {
		return apperror.Newf(apperror.ErrCodeValidation,
			"плата за доставку %.2f превышает максимально допустимую %.2f", fee, MaxAcceptableFee(declaredValue))
	}
	return nil
}

// PlatformFee комиссия платформы, округлённая до центов.
func PlatformFee(deliveryFee float64) float64 {
	return RoundMoney(deliveryFee * PlatformFeeRate)
}
