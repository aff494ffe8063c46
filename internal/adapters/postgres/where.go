package postgres

import (
	"fmt"
	"strings"

	"github.com/DanielPopoola/ficmart-billing/internal/core/domain"
)

// where accumulates AND-ed conditions with positional arguments.
// Each condition holds exactly one "?" which becomes the next $n.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1))
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// limitOffset appends the page bounds as further arguments.
func (w *where) limitOffset(page domain.PageRequest) string {
	w.args = append(w.args, page.Size, page.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(w.args)-1, len(w.args))
}
