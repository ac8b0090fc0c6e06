// Package search builds parameterised PostgreSQL predicates and full-text
// clauses for thesis queries. Predicates compile to SQL against a storage
// layout and can also be evaluated in memory against a Document, which keeps
// term and field composition testable without a database.
package search

import (
	"fmt"
	"strings"
)

// Params accumulates bind arguments and hands out $N placeholders.
type Params struct {
	args []any
}

// NewParams returns a Params whose first placeholder is $start.
func NewParams(start int) *Params {
	p := &Params{}
	if start > 1 {
		p.args = make([]any, start-1)
	}
	return p
}

// Add appends v and returns its placeholder.
func (p *Params) Add(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

// Args returns the bind arguments in placeholder order.
func (p *Params) Args() []any {
	return p.args
}

// likeEscaper escapes LIKE metacharacters using the default backslash escape.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns an ILIKE pattern matching s anywhere in a value.
// Metacharacters in s match literally.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
