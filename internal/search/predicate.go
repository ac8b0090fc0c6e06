package search

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GyroZepelix/thesis-archive/internal/schema"
)

// ErrFieldUnavailable is returned when a predicate references a field the
// layout cannot filter on in SQL.
var ErrFieldUnavailable = errors.New("field not available for filtering")

// Document is the in-memory view of a record that predicates evaluate against.
type Document interface {
	// Text returns a scalar text field, "" when absent.
	Text(f schema.Field) string
	// List returns a collection field, nil when absent.
	List(f schema.Field) []string
	// Time returns a date or timestamp field, the zero time when absent.
	Time(f schema.Field) time.Time
}

// Predicate is a filter that compiles to SQL and evaluates in memory.
type Predicate interface {
	// SQL renders the predicate for layout l, adding bind values to p.
	// An empty string means the predicate imposes no condition.
	SQL(l schema.Layout, p *Params) (string, error)
	// Match reports whether d satisfies the predicate.
	Match(d Document) bool
}

// And is satisfied when every child is. An empty And matches everything.
type And []Predicate

// SQL joins the non-empty child clauses with AND.
func (a And) SQL(l schema.Layout, p *Params) (string, error) {
	return join(a, " AND ", l, p)
}

// Match reports whether d satisfies every child.
func (a And) Match(d Document) bool {
	for _, c := range a {
		if !c.Match(d) {
			return false
		}
	}
	return true
}

// Or is satisfied when any child is. An empty Or matches nothing.
type Or []Predicate

// SQL joins the non-empty child clauses with OR.
func (o Or) SQL(l schema.Layout, p *Params) (string, error) {
	if len(o) == 0 {
		return "FALSE", nil
	}
	return join(o, " OR ", l, p)
}

// Match reports whether d satisfies any child.
func (o Or) Match(d Document) bool {
	for _, c := range o {
		if c.Match(d) {
			return true
		}
	}
	return false
}

func join(children []Predicate, sep string, l schema.Layout, p *Params) (string, error) {
	var parts []string
	for _, c := range children {
		s, err := c.SQL(l, p)
		if err != nil {
			return "", err
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// Contains matches when Value occurs case-insensitively inside the field. For
// collection fields it matches when any element contains Value.
type Contains struct {
	Field schema.Field
	Value string
}

// SQL renders an ILIKE against the column; array columns are flattened with a
// space separator first, which cannot produce false matches for values
// without whitespace. Profile columns compile on layouts that join them.
func (c Contains) SQL(l schema.Layout, p *Params) (string, error) {
	col, err := searchable(l, c.Field)
	if err != nil {
		return "", err
	}
	expr := l.Expr(col)
	if col.Type == schema.ColumnTextArray {
		expr = fmt.Sprintf("array_to_string(%s, ' ')", expr)
	}
	return fmt.Sprintf("%s ILIKE %s", expr, p.Add(ContainsPattern(c.Value))), nil
}

// Match checks the scalar value and every list element of the field.
func (c Contains) Match(d Document) bool {
	needle := strings.ToLower(c.Value)
	if text := d.Text(c.Field); text != "" && strings.Contains(strings.ToLower(text), needle) {
		return true
	}
	for _, v := range d.List(c.Field) {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

// Range matches dates in the half-open interval [From, To).
type Range struct {
	Field    schema.Field
	From, To time.Time
}

// SQL renders an inclusive lower and exclusive upper bound. Date columns are
// compared against date literals so the session time zone plays no part.
func (r Range) SQL(l schema.Layout, p *Params) (string, error) {
	col, err := queryable(l, r.Field)
	if err != nil {
		return "", err
	}
	expr := l.Expr(col)
	if col.Type == schema.ColumnDate {
		from := p.Add(r.From.Format(time.DateOnly)) + "::date"
		to := p.Add(r.To.Format(time.DateOnly)) + "::date"
		return fmt.Sprintf("(%s >= %s AND %s < %s)", expr, from, expr, to), nil
	}
	return fmt.Sprintf("(%s >= %s AND %s < %s)", expr, p.Add(r.From), expr, p.Add(r.To)), nil
}

// Match reports whether the field's time lies in [From, To). Absent dates
// never match.
func (r Range) Match(d Document) bool {
	t := d.Time(r.Field)
	if t.IsZero() {
		return false
	}
	return !t.Before(r.From) && t.Before(r.To)
}

func queryable(l schema.Layout, f schema.Field) (schema.Column, error) {
	col, ok := l.Column(f)
	if !ok || !l.Queryable(f) {
		return schema.Column{}, fmt.Errorf("%w: %s on layout %s", ErrFieldUnavailable, f, l.Name)
	}
	return col, nil
}

// searchable is queryable widened to profile columns reached by the join.
func searchable(l schema.Layout, f schema.Field) (schema.Column, error) {
	col, ok := l.Column(f)
	if !ok || !l.Searchable(f) {
		return schema.Column{}, fmt.Errorf("%w: %s on layout %s", ErrFieldUnavailable, f, l.Name)
	}
	return col, nil
}

// Where compiles pred into a WHERE clause, or "" when it imposes nothing.
func Where(pred Predicate, l schema.Layout, p *Params) (string, error) {
	if pred == nil {
		return "", nil
	}
	s, err := pred.SQL(l, p)
	if err != nil || s == "" {
		return "", err
	}
	return "WHERE " + s, nil
}

// In matches when the field equals one of Values, ignoring case and
// surrounding whitespace. For collection fields any element may match.
type In struct {
	Field  schema.Field
	Values []string
}

// SQL renders a comparison against a lower-cased text array parameter.
func (in In) SQL(l schema.Layout, p *Params) (string, error) {
	col, err := queryable(l, in.Field)
	if err != nil {
		return "", err
	}
	values := make([]string, len(in.Values))
	for i, v := range in.Values {
		values[i] = strings.ToLower(strings.TrimSpace(v))
	}
	ph := p.Add(values)
	if col.Type == schema.ColumnTextArray {
		return fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(%s) AS e WHERE lower(btrim(e)) = ANY(%s))", l.Expr(col), ph), nil
	}
	return fmt.Sprintf("lower(btrim(%s)) = ANY(%s)", l.Expr(col), ph), nil
}

// Match reports whether the field, or any of its elements, is in Values.
func (in In) Match(d Document) bool {
	candidates := d.List(in.Field)
	if text := d.Text(in.Field); text != "" {
		candidates = append([]string{text}, candidates...)
	}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		for _, v := range in.Values {
			if strings.EqualFold(c, strings.TrimSpace(v)) {
				return true
			}
		}
	}
	return false
}
