package thesis

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/GyroZepelix/thesis-archive/internal/search"
)

// Valid range for the year filter.
const (
	minYear = 1
	maxYear = 9999
)

// Payload is the raw search request body. Fields are loosely typed because
// clients send year as a string or a number and the category filters as a
// string or a list.
type Payload struct {
	FilterAndSearchQuery any `json:"filterAndSearchQuery"`
	Year                 any `json:"year"`
	Departments          any `json:"departments"`
	Programs             any `json:"programs"`
}

// Query is a validated search request.
type Query struct {
	// Text is the trimmed free-text query as entered.
	Text string
	// Terms are the lower-cased, de-duplicated whitespace tokens of Text.
	Terms []string
	// Year filters on the calendar year of the degree date; 0 means unset.
	Year int
	// Departments and Programs are de-duplicated non-empty values.
	Departments []string
	Programs    []string
}

// Empty reports whether the query carries no criterion at all.
func (q Query) Empty() bool {
	return q.Text == "" && q.Year == 0 && len(q.Departments) == 0 && len(q.Programs) == 0
}

// ValidationError is returned for malformed or insufficient search requests.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ParseQuery validates and normalizes a raw payload. When requireCriteria is
// set, a payload without any criterion is rejected.
func ParseQuery(p Payload, requireCriteria bool) (Query, error) {
	var q Query

	switch v := p.FilterAndSearchQuery.(type) {
	case nil:
	case string:
		q.Text = strings.TrimSpace(v)
		q.Terms = search.Tokenize(q.Text)
	default:
		return Query{}, &ValidationError{Field: "filterAndSearchQuery", Message: "must be a string"}
	}

	year, err := parseYear(p.Year)
	if err != nil {
		return Query{}, err
	}
	q.Year = year

	if q.Departments, err = parseStringSet("departments", p.Departments); err != nil {
		return Query{}, err
	}
	if q.Programs, err = parseStringSet("programs", p.Programs); err != nil {
		return Query{}, err
	}

	if requireCriteria && q.Empty() {
		return Query{}, &ValidationError{Message: "at least one search criterion is required"}
	}

	return q, nil
}

func parseYear(v any) (int, error) {
	var (
		n   int
		err error
	)
	switch t := v.(type) {
	case nil:
		return 0, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, nil
		}
		n, err = strconv.Atoi(s)
	case json.Number:
		var i int64
		if i, err = t.Int64(); err == nil {
			n = int(i)
			break
		}
		// 2023.0 is a valid year even though it is not an integer literal.
		var f float64
		if f, err = t.Float64(); err == nil {
			n, err = integral(f)
		}
	case float64:
		n, err = integral(t)
	case int:
		n = t
	case int64:
		n = int(t)
	default:
		return 0, &ValidationError{Field: "year", Message: "must be a number or numeric string"}
	}
	if err != nil {
		return 0, &ValidationError{Field: "year", Message: "must be an integer"}
	}
	if n < minYear || n > maxYear {
		return 0, &ValidationError{Field: "year", Message: fmt.Sprintf("must be between %d and %d", minYear, maxYear)}
	}
	return n, nil
}

// integral converts a whole float to int. Values outside the year range map
// to 0 so the range check rejects them without overflowing int.
func integral(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not an integer")
	}
	if f < minYear || f > maxYear {
		return 0, nil
	}
	return int(f), nil
}

// parseStringSet accepts a single string or a list of strings and returns
// the trimmed, non-empty, de-duplicated values in first-seen order.
func parseStringSet(field string, v any) ([]string, error) {
	var raw []string
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		raw = []string{t}
	case []string:
		raw = t
	case []any:
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, &ValidationError{Field: field, Message: "must contain only strings"}
			}
			raw = append(raw, s)
		}
	default:
		return nil, &ValidationError{Field: field, Message: "must be a string or a list of strings"}
	}

	seen := make(map[string]bool, len(raw))
	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}
