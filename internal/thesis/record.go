// Package thesis implements the thesis catalog search: request
// normalization, a ranked full-text strategy with a substring fallback, an
// in-memory post-filter for joined fields, and normalization of stored rows
// into a stable API shape.
package thesis

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GyroZepelix/thesis-archive/internal/schema"
)

// Record is a stored thesis in canonical form, independent of the table
// layout it was read from. Collection fields are resolved to sequences once,
// when the row is decoded; nil means the column was absent or NULL.
type Record struct {
	ID               string
	Title            string
	Abstract         string
	Keywords         []string
	Department       string
	Program          string
	AuthorFirstName  string
	AuthorMiddleName string
	AuthorLastName   string
	Advisors         []string
	DegreeAwarded    time.Time
	CreatedAt        time.Time
	CoverImage       string
	Recommendations  *int
	Language         string
	Profile          *Profile
}

// Profile is the author profile joined onto a record.
type Profile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Affiliation   string `json:"affiliation,omitempty"`
	Department    string `json:"department,omitempty"`
	DegreeProgram string `json:"degreeProgram,omitempty"`
	Bio           string `json:"bio,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
}

// Text implements search.Document.
func (r Record) Text(f schema.Field) string {
	switch f {
	case schema.FieldID:
		return r.ID
	case schema.FieldTitle:
		return r.Title
	case schema.FieldAbstract:
		return r.Abstract
	case schema.FieldDepartment:
		return r.Department
	case schema.FieldProgram:
		return r.Program
	case schema.FieldAuthorFirstName:
		return r.AuthorFirstName
	case schema.FieldAuthorMiddleName:
		return r.AuthorMiddleName
	case schema.FieldAuthorLastName:
		return r.AuthorLastName
	case schema.FieldCoverImage:
		return r.CoverImage
	case schema.FieldLanguage:
		return r.Language
	}
	if r.Profile == nil {
		return ""
	}
	switch f {
	case schema.FieldProfileName:
		return r.Profile.Name
	case schema.FieldProfileEmail:
		return r.Profile.Email
	case schema.FieldProfileDepartment:
		return r.Profile.Department
	case schema.FieldProfileDegreeProgram:
		return r.Profile.DegreeProgram
	}
	return ""
}

// List implements search.Document.
func (r Record) List(f schema.Field) []string {
	switch f {
	case schema.FieldKeywords:
		return r.Keywords
	case schema.FieldAdvisors:
		return r.Advisors
	}
	return nil
}

// Time implements search.Document.
func (r Record) Time(f schema.Field) time.Time {
	switch f {
	case schema.FieldDegreeAwarded:
		return r.DegreeAwarded
	case schema.FieldCreatedAt:
		return r.CreatedAt
	}
	return time.Time{}
}

// recordFromRow decodes a row keyed by canonical field names. Keys missing
// from the row leave the corresponding field at its zero value.
func recordFromRow(row map[string]any) Record {
	r := Record{
		ID:               textValue(row[string(schema.FieldID)]),
		Title:            textValue(row[string(schema.FieldTitle)]),
		Abstract:         textValue(row[string(schema.FieldAbstract)]),
		Keywords:         textList(row[string(schema.FieldKeywords)]),
		Department:       textValue(row[string(schema.FieldDepartment)]),
		Program:          textValue(row[string(schema.FieldProgram)]),
		AuthorFirstName:  textValue(row[string(schema.FieldAuthorFirstName)]),
		AuthorMiddleName: textValue(row[string(schema.FieldAuthorMiddleName)]),
		AuthorLastName:   textValue(row[string(schema.FieldAuthorLastName)]),
		Advisors:         textList(row[string(schema.FieldAdvisors)]),
		DegreeAwarded:    timeValue(row[string(schema.FieldDegreeAwarded)]),
		CreatedAt:        timeValue(row[string(schema.FieldCreatedAt)]),
		CoverImage:       textValue(row[string(schema.FieldCoverImage)]),
		Recommendations:  intValue(row[string(schema.FieldRecommendations)]),
		Language:         textValue(row[string(schema.FieldLanguage)]),
	}

	if id := textValue(row[string(schema.FieldProfileID)]); id != "" {
		r.Profile = &Profile{
			ID:            id,
			Name:          textValue(row[string(schema.FieldProfileName)]),
			Email:         textValue(row[string(schema.FieldProfileEmail)]),
			Affiliation:   textValue(row[string(schema.FieldProfileAffiliation)]),
			Department:    textValue(row[string(schema.FieldProfileDepartment)]),
			DegreeProgram: textValue(row[string(schema.FieldProfileDegreeProgram)]),
			Bio:           textValue(row[string(schema.FieldProfileBio)]),
			ImageURL:      textValue(row[string(schema.FieldProfileImageURL)]),
		}
	}

	return r
}

// textValue renders a scalar column value as text.
func textValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case [16]byte:
		return uuid.UUID(t).String()
	case uuid.UUID:
		return t.String()
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

// textList resolves a column stored either as a scalar or as an array into a
// sequence. A scalar, including the empty string, becomes a one-element
// sequence; NULL and absent columns yield nil. Applying it to its own output
// returns an equal sequence.
func textList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if e == nil {
				continue
			}
			out = append(out, textValue(e))
		}
		return out
	}
	return []string{textValue(v)}
}

func timeValue(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
			if parsed, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

func intValue(v any) *int {
	var n int
	switch t := v.(type) {
	case int:
		n = t
	case int16:
		n = int(t)
	case int32:
		n = int(t)
	case int64:
		n = int(t)
	default:
		return nil
	}
	return &n
}
