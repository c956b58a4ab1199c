package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInvalidState  ErrorCode = "INVALID_STATE"
	ErrCodeExpired       ErrorCode = "EXPIRED"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Newf то же, что New, но с форматированием сообщения.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidState, ErrCodeExpired:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или INTERNAL_ERROR для посторонних ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return is(err, ErrCodeNotFound)
}

func IsUnauthorized(err error) bool {
	return is(err, ErrCodeUnauthorized)
}

func IsForbidden(err error) bool {
	return is(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return is(err, ErrCodeValidation)
}

func IsConflict(err error) bool {
	return is(err, ErrCodeConflict)
}

// IsInvalidState истинна и для истёкших матчей: просрочка это частный случай
// недопустимого состояния.
func IsInvalidState(err error) bool {
	return is(err, ErrCodeInvalidState) || is(err, ErrCodeExpired)
}

func IsExpired(err error) bool {
	return is(err, ErrCodeExpired)
}

var (
	ErrParcelNotFound  = New(ErrCodeNotFound, "посылка не найдена")
	ErrTravelNotFound  = New(ErrCodeNotFound, "поездка не найдена")
	ErrMatchNotFound   = New(ErrCodeNotFound, "матч не найден")
	ErrPaymentNotFound = New(ErrCodeNotFound, "платёж не найден")
	ErrRatingNotFound  = New(ErrCodeNotFound, "отзыв не найден")
	ErrUserNotFound    = New(ErrCodeNotFound, "пользователь не найден")

	ErrUnauthorized       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrNotMatchParty      = New(ErrCodeUnauthorized, "пользователь не является участником матча")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "неверные учетные данные")

	ErrMatchExpired       = New(ErrCodeExpired, "срок действия матча истёк")
	ErrActiveMatchExists  = New(ErrCodeConflict, "для этой посылки и поездки уже есть активный матч")
	ErrPaymentExists      = New(ErrCodeConflict, "платёж для матча уже создан")
	ErrRatingExists       = New(ErrCodeConflict, "вы уже оценили эту посылку")
	ErrConcurrentUpdate   = New(ErrCodeConflict, "запись была изменена параллельным запросом")
	ErrEmailAlreadyExists = New(ErrCodeConflict, "пользователь с таким email уже существует")
)
