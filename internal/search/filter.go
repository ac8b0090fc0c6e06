package search

import (
	"strings"
	"time"

	"github.com/GyroZepelix/thesis-archive/internal/schema"
)

// TextFields are the fields a free-text term may match in the substring
// fallback. Layouts with a profile join match the author through
// FieldProfileName; flat layouts through the author name columns.
var TextFields = []schema.Field{
	schema.FieldTitle,
	schema.FieldAbstract,
	schema.FieldDepartment,
	schema.FieldProgram,
	schema.FieldAuthorFirstName,
	schema.FieldAuthorLastName,
	schema.FieldProfileName,
	schema.FieldKeywords,
	schema.FieldAdvisors,
}

// Tokenize splits free text on whitespace into lower-cased, de-duplicated
// terms in first-seen order.
func Tokenize(text string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, t := range strings.Fields(strings.ToLower(text)) {
		if seen[t] {
			continue
		}
		seen[t] = true
		terms = append(terms, t)
	}
	return terms
}

// TermPredicate matches when term occurs in any of fields.
func TermPredicate(term string, fields []schema.Field) Predicate {
	or := make(Or, len(fields))
	for i, f := range fields {
		or[i] = Contains{Field: f, Value: term}
	}
	return or
}

// TextPredicate requires every term to match at least one of fields; each
// term may match a different field. It returns nil when there are no terms.
func TextPredicate(terms []string, fields []schema.Field) Predicate {
	if len(terms) == 0 {
		return nil
	}
	and := make(And, len(terms))
	for i, t := range terms {
		and[i] = TermPredicate(t, fields)
	}
	return and
}

// YearPredicate matches dates within calendar year y, as the half-open
// interval [y-01-01, (y+1)-01-01) in UTC.
func YearPredicate(f schema.Field, y int) Predicate {
	return Range{
		Field: f,
		From:  time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:    time.Date(y+1, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// AnyOf matches when the field contains any of values. It returns nil when
// values is empty so that an absent filter group is omitted rather than
// matching nothing.
func AnyOf(f schema.Field, values []string) Predicate {
	if len(values) == 0 {
		return nil
	}
	or := make(Or, len(values))
	for i, v := range values {
		or[i] = Contains{Field: f, Value: v}
	}
	return or
}

// AllOf combines the non-nil predicates with AND, or returns nil when none
// remain.
func AllOf(preds ...Predicate) Predicate {
	var and And
	for _, p := range preds {
		if p != nil {
			and = append(and, p)
		}
	}
	if len(and) == 0 {
		return nil
	}
	return and
}

// Searchable returns the subset of fields the layout can match free text
// against in SQL.
func Searchable(l schema.Layout, fields []schema.Field) []schema.Field {
	var out []schema.Field
	for _, f := range fields {
		if l.Searchable(f) {
			out = append(out, f)
		}
	}
	return out
}
