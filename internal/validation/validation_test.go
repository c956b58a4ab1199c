package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/crowdship-backend/internal/validation"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, validation.ValidateEmail("Anna.Ivanova+ship@example.com"))

	for _, email := range []string{"", "anna", "anna@", "@example.com", "anna@example", "an na@example.com", "a@b@c.com"} {
		assert.Error(t, validation.ValidateEmail(email), email)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, validation.ValidatePassword("Parcel2026"))

	assert.NoError(t, validation.ValidatePassword("Посылка2026"), "длина считается в символах")

	for _, password := range []string{"Short1", "alllower123", "ALLUPPER123", "NoDigitsHere", "Aa1" + strings.Repeat("x", 70)} {
		assert.Error(t, validation.ValidatePassword(password), password)
	}

	err := validation.ValidatePassword("onlylowercase")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "заглавную букву и цифру")
}

func TestValidateDisplayName(t *testing.T) {
	assert.NoError(t, validation.ValidateDisplayName("Иван П."))
	assert.Error(t, validation.ValidateDisplayName(" "))
	assert.Error(t, validation.ValidateDisplayName("я"))
	assert.Error(t, validation.ValidateDisplayName("<script>"))
	assert.Error(t, validation.ValidateDisplayName(strings.Repeat("a", validation.MaxDisplayNameLength+1)))
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, validation.ValidatePhone("+49 (30) 123-4567"))
	assert.Error(t, validation.ValidatePhone(""))
	assert.Error(t, validation.ValidatePhone("12345"))
	assert.Error(t, validation.ValidatePhone("49+301234567"))
	assert.Error(t, validation.ValidatePhone("+49 30 CALL ME"))
}

func TestValidateOptionalText(t *testing.T) {
	assert.NoError(t, validation.ValidateOptionalText("сообщение", "", validation.MaxNegotiationMessageLen))
	assert.Error(t, validation.ValidateOptionalText("сообщение", strings.Repeat("ё", validation.MaxNegotiationMessageLen+1), validation.MaxNegotiationMessageLen))
}
