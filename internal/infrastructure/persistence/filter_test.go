package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhereBuilder(t *testing.T) {
	w := newWhere()
	assert.Empty(t, w.sql())

	w.add("sender_id = $%d", "a")
	w.raw("status <> 'cancelled'")
	w.add("(sender_id = $%d OR carrier_id = $%d)", "b")

	assert.Equal(t, " WHERE sender_id = $1 AND status <> 'cancelled' AND (sender_id = $2 OR carrier_id = $2)", w.sql())

	clause, args := w.page(20, 40)
	assert.Equal(t, " LIMIT $3 OFFSET $4", clause)
	assert.Equal(t, []interface{}{"a", "b", 20, 40}, args)
	assert.Len(t, w.args, 2)

	clause, args = w.page(10, 0)
	assert.Equal(t, " LIMIT $3", clause)
	assert.Len(t, args, 3)
}
