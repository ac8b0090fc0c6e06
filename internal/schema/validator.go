package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// identPattern matches valid table and column names.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// maxIdentLength is the PostgreSQL identifier limit.
const maxIdentLength = 63

// requiredFields must be mapped by every layout.
var requiredFields = []Field{FieldID, FieldTitle, FieldDegreeAwarded}

// ValidationError holds every problem found across a set of layouts.
type ValidationError struct {
	Problems []string
}

// Error returns a human-readable summary of all validation problems.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("layout validation failed with %d problem(s):\n- %s",
		len(e.Problems), strings.Join(e.Problems, "\n- "))
}

// ValidateLayouts validates all layouts and returns a *ValidationError listing
// every problem, or nil.
func ValidateLayouts(layouts []Layout) error {
	var all []string

	nameCount := make(map[string]int, len(layouts))
	for _, l := range layouts {
		nameCount[l.Name]++
	}
	names := make([]string, 0, len(nameCount))
	for name := range nameCount {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if nameCount[name] > 1 && name != "" {
			all = append(all, fmt.Sprintf("layout name %q is defined %d times", name, nameCount[name]))
		}
	}

	for _, l := range layouts {
		for _, msg := range validateLayout(l) {
			all = append(all, fmt.Sprintf("layout %q: %s", l.Name, msg))
		}
	}

	if len(all) == 0 {
		return nil
	}
	return &ValidationError{Problems: all}
}

func validIdent(name string) bool {
	return identPattern.MatchString(name) && len(name) <= maxIdentLength
}

func validateLayout(l Layout) []string {
	var problems []string

	if l.Name == "" {
		problems = append(problems, "name is required")
	}
	if !validIdent(l.Table) {
		problems = append(problems, fmt.Sprintf("table %q must match %s", l.Table, identPattern))
	}
	if l.SearchVector != "" && !validIdent(l.SearchVector) {
		problems = append(problems, fmt.Sprintf("search_vector %q must match %s", l.SearchVector, identPattern))
	}

	if l.Profile != nil {
		for key, v := range map[string]string{
			"profile.table":       l.Profile.Table,
			"profile.foreign_key": l.Profile.ForeignKey,
			"profile.key":         l.Profile.Key,
		} {
			if !validIdent(v) {
				problems = append(problems, fmt.Sprintf("%s %q must match %s", key, v, identPattern))
			}
		}
	}

	seen := make(map[Field]bool, len(l.Columns))
	for i, c := range l.Columns {
		prefix := fmt.Sprintf("column[%d] (%s)", i, c.Field)

		if !canonicalFields[c.Field] {
			problems = append(problems, fmt.Sprintf("%s: unknown field", prefix))
		}
		if seen[c.Field] {
			problems = append(problems, fmt.Sprintf("%s: field is mapped more than once", prefix))
		}
		seen[c.Field] = true

		if !validIdent(c.Name) {
			problems = append(problems, fmt.Sprintf("%s: name %q must match %s", prefix, c.Name, identPattern))
		}
		if !validColumnTypes[c.Type] {
			problems = append(problems, fmt.Sprintf("%s: unknown type %q", prefix, c.Type))
		}

		switch c.Source {
		case "", SourceThesis:
		case SourceProfile:
			if l.Profile == nil {
				problems = append(problems, fmt.Sprintf("%s: source profile requires a profile join", prefix))
			}
		default:
			problems = append(problems, fmt.Sprintf("%s: unknown source %q", prefix, c.Source))
		}
	}

	for _, f := range requiredFields {
		if !seen[f] {
			problems = append(problems, fmt.Sprintf("field %q must be mapped", f))
		}
	}

	return problems
}
