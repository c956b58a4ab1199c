package valueobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

func TestValidateFee_ExactCap(t *testing.T) {
	tests := []struct {
		value float64
		cap   float64
		over  float64
	}{
		{3, 0.45, 0.46},
		{18, 2.70, 2.71},
		{23, 3.45, 3.46},
		{100, 15, 15.01},
		{150, 22.5, 22.51},
		{10.05, 1.50, 1.51},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.cap, valueobject.MaxAcceptableFee(tt.value), "потолок для %v", tt.value)
		assert.NoError(t, valueobject.ValidateFee(tt.cap, tt.value), "плата на потолке для %v", tt.value)
		assert.True(t, valueobject.FeeWithinCap(tt.cap, tt.value))

		err := valueobject.ValidateFee(tt.over, tt.value)
		assert.True(t, apperror.IsValidation(err), "плата выше потолка для %v", tt.value)
		assert.False(t, valueobject.FeeWithinCap(tt.over, tt.value))
	}
}

func TestValidateFee_NonPositive(t *testing.T) {
	assert.True(t, apperror.IsValidation(valueobject.ValidateFee(0, 100)))
	assert.True(t, apperror.IsValidation(valueobject.ValidateFee(-1, 100)))
}

func TestValidateFee_NoCapWithoutValue(t *testing.T) {
	assert.Equal(t, 0.0, valueobject.MaxAcceptableFee(0))
	assert.True(t, apperror.IsValidation(valueobject.ValidateFee(0.01, 0)))
}
