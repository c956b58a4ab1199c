package persistence

import (
	"database/sql/driver"

	"github.com/lib/pq"
)

// textArray колонки TEXT[] объявлены NOT NULL, nil-срез пишется как '{}'.
func textArray(values []string) driver.Valuer {
	if values == nil {
		values = []string{}
	}
	return pq.StringArray(values)
}
