package schema

import (
	"fmt"
	"strings"
)

// Table aliases used in generated SQL.
const (
	thesisAlias  = "t"
	profileAlias = "p"
)

// QuoteIdent quotes a SQL identifier using double quotes, escaping any
// embedded double quotes by doubling them.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Column returns the column mapped to f.
func (l Layout) Column(f Field) (Column, bool) {
	for _, c := range l.Columns {
		if c.Field == f {
			return c, true
		}
	}
	return Column{}, false
}

// Queryable reports whether a structured filter on f can be expressed in the
// thesis query. Fields that live on the joined profile are projected but are
// filtered in memory instead.
func (l Layout) Queryable(f Field) bool {
	c, ok := l.Column(f)
	return ok && c.source() == SourceThesis
}

// Searchable reports whether free text can be matched against f in SQL. This
// includes profile columns, which are reachable through the outer join; a
// thesis without a profile simply never matches on them.
func (l Layout) Searchable(f Field) bool {
	c, ok := l.Column(f)
	if !ok {
		return false
	}
	return c.source() == SourceThesis || l.Profile != nil
}

// Expr returns the alias-qualified column expression for c.
func (l Layout) Expr(c Column) string {
	alias := thesisAlias
	if c.source() == SourceProfile {
		alias = profileAlias
	}
	return QuoteIdent(alias) + "." + QuoteIdent(c.Name)
}

// SearchVectorExpr returns the qualified search vector column, or "" when the
// layout has none.
func (l Layout) SearchVectorExpr() string {
	if l.SearchVector == "" {
		return ""
	}
	return QuoteIdent(thesisAlias) + "." + QuoteIdent(l.SearchVector)
}

// SelectList returns every mapped column aliased to its canonical field name,
// so decoded rows are keyed by Field regardless of layout.
func (l Layout) SelectList() string {
	parts := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		parts[i] = fmt.Sprintf("%s AS %s", l.Expr(c), QuoteIdent(string(c.Field)))
	}
	return strings.Join(parts, ", ")
}

// Target returns the aliased thesis table, as used by UPDATE statements.
func (l Layout) Target() string {
	return QuoteIdent(l.Table) + " AS " + QuoteIdent(thesisAlias)
}

// From returns the FROM clause, including the profile join when present.
func (l Layout) From() string {
	from := l.Target()
	if l.Profile == nil {
		return from
	}
	return fmt.Sprintf("%s LEFT JOIN %s AS %s ON %s.%s = %s.%s",
		from,
		QuoteIdent(l.Profile.Table), QuoteIdent(profileAlias),
		QuoteIdent(profileAlias), QuoteIdent(l.Profile.Key),
		QuoteIdent(thesisAlias), QuoteIdent(l.Profile.ForeignKey),
	)
}

func (c Column) source() Source {
	if c.Source == "" {
		return SourceThesis
	}
	return c.Source
}
