package repository

import (
	"fmt"
	"strings"
)

// where accumulates AND-ed filter clauses with numbered placeholders,
// which both pgx and modernc sqlite accept.
type where struct {
	clauses []string
	args    []any
}

// add appends a clause; every "?" in expr is bound to arg.
func (w *where) add(expr string, arg any) {
	ph := w.bind(arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(expr, "?", ph))
}

func (w *where) addRaw(expr string) {
	w.clauses = append(w.clauses, expr)
}

// bind appends arg and returns its placeholder.
func (w *where) bind(arg any) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}
