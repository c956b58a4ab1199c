package persistence

import (
	"fmt"
	"strings"
)

// whereBuilder собирает условия с позиционными параметрами $1, $2, ...
type whereBuilder struct {
	conds    []string
	args     []interface{}
	argIndex int
}

func newWhere() *whereBuilder {
	return &whereBuilder{argIndex: 1}
}

// add подставляет номер параметра вместо каждого %d в условии.
func (w *whereBuilder) add(cond string, arg interface{}) {
	n := strings.Count(cond, "%d")
	idx := make([]interface{}, n)
	for i := range idx {
		idx[i] = w.argIndex
	}
	w.conds = append(w.conds, fmt.Sprintf(cond, idx...))
	w.args = append(w.args, arg)
	w.argIndex++
}

// raw условие без параметров.
func (w *whereBuilder) raw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page добавляет LIMIT/OFFSET и возвращает итоговые аргументы.
func (w *whereBuilder) page(limit, offset int) (string, []interface{}) {
	args := append([]interface{}{}, w.args...)
	clause := ""
	idx := w.argIndex
	if limit > 0 {
		clause += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, limit)
		idx++
	}
	if offset > 0 {
		clause += fmt.Sprintf(" OFFSET $%d", idx)
		args = append(args, offset)
	}
	return clause, args
}
