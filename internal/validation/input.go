package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinDisplayNameLength     = 2
	MaxDisplayNameLength     = 100
	MaxNegotiationMessageLen = 500
	MaxReasonLength          = 500
	MinPhoneDigits           = 7
	MaxPhoneDigits           = 15
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	displayNameRegex = regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ0-9\s\-_.,!?()]+$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}
	localPart, domainPart := parts[0], parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}
	return nil
}

func ValidateDisplayName(displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return fmt.Errorf("отображаемое имя обязательно")
	}
	if err := ValidateLength("отображаемое имя", displayName, MinDisplayNameLength, MaxDisplayNameLength); err != nil {
		return err
	}
	if !displayNameRegex.MatchString(displayName) {
		return fmt.Errorf("отображаемое имя содержит недопустимые символы")
	}
	return nil
}

// ValidatePhone телефон получателя: цифры, пробелы, дефисы, скобки и ведущий плюс.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("телефон обязателен")
	}
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0, r == ' ', r == '-', r == '(', r == ')':
		default:
			return fmt.Errorf("телефон содержит недопустимые символы")
		}
	}
	if digits < MinPhoneDigits || digits > MaxPhoneDigits {
		return fmt.Errorf("телефон должен содержать от %d до %d цифр", MinPhoneDigits, MaxPhoneDigits)
	}
	return nil
}

// ValidateOptionalText проверяет необязательный текст: сообщение к
// встречной цене, причину отклонения и т.п.
func ValidateOptionalText(fieldName, value string, max int) error {
	return ValidateLength(fieldName, strings.TrimSpace(value), 0, max)
}
