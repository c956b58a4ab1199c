package persistence

import (
	"database/sql"
	"errors"

	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// dbError оборачивает ошибку драйвера; нарушение уникальности становится
// conflict, если он задан.
func dbError(err error, message string, conflict *apperror.AppError) error {
	if conflict != nil && isUniqueViolation(err) {
		return apperror.Wrap(err, conflict.Code, conflict.Message)
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}

func notFoundOr(err error, notFound *apperror.AppError, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}

// expectOne проверяет, что условная запись затронула ровно одну строку.
func expectOne(res sql.Result, onZero *apperror.AppError) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить результат записи")
	}
	if n == 0 {
		return onZero
	}
	return nil
}
