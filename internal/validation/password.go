package validation

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	// bcrypt отбрасывает всё после 72 байт.
	MaxPasswordBytes = 72
)

// ValidatePassword пароль от 8 символов, не длиннее 72 байт, со строчной и
// заглавной буквой и цифрой. В ошибке перечислено всё, чего не хватает.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return errors.New("пароль должен быть не менее 8 символов")
	}
	if len(password) > MaxPasswordBytes {
		return errors.New("пароль длиннее 72 байт")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	var missing []string
	if !hasUpper {
		missing = append(missing, "заглавную букву")
	}
	if !hasLower {
		missing = append(missing, "строчную букву")
	}
	if !hasDigit {
		missing = append(missing, "цифру")
	}
	if len(missing) > 0 {
		return errors.New("пароль должен содержать " + strings.Join(missing, " и "))
	}
	return nil
}
