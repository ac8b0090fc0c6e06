package thesis

import (
	"strings"
	"time"
)

// Defaults applied by Normalize.
const (
	DefaultLanguage = "English"
	DefaultAdvisor  = "N/A"
)

// SearchResult is the normalized record returned to API callers.
type SearchResult struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Abstract          string    `json:"abstract"`
	DegreeAwardedYear int       `json:"degreeAwardedYear"`
	Keywords          []string  `json:"keywords"`
	Authors           string    `json:"authors"`
	Advisors          []string  `json:"advisors"`
	Department        string    `json:"department"`
	Program           string    `json:"program"`
	CoverImage        string    `json:"coverImage"`
	Recommendations   int       `json:"recommendations"`
	Language          string    `json:"language"`
	CreatedAt         time.Time `json:"createdAt"`
	Author            *Profile  `json:"author,omitempty"`
}

// Normalize maps one stored record onto the API shape:
//   - degreeAwardedYear is the calendar year of the stored date (0 if absent)
//   - keywords and advisors are sequences; absent advisors become ["N/A"]
//   - authors joins the non-empty name parts with single spaces, falling back
//     to the joined profile's name
//   - coverImage, recommendations and language take defaults when absent
func Normalize(r Record, coverPlaceholder string) SearchResult {
	res := SearchResult{
		ID:         r.ID,
		Title:      r.Title,
		Abstract:   r.Abstract,
		Keywords:   r.Keywords,
		Authors:    formatAuthors(r),
		Advisors:   r.Advisors,
		Department: r.Department,
		Program:    r.Program,
		CoverImage: r.CoverImage,
		Language:   r.Language,
		CreatedAt:  r.CreatedAt,
		Author:     r.Profile,
	}

	if !r.DegreeAwarded.IsZero() {
		res.DegreeAwardedYear = r.DegreeAwarded.Year()
	}
	if res.Keywords == nil {
		res.Keywords = []string{}
	}
	if res.Advisors == nil {
		res.Advisors = []string{DefaultAdvisor}
	}
	if res.CoverImage == "" {
		res.CoverImage = coverPlaceholder
	}
	if r.Recommendations != nil {
		res.Recommendations = *r.Recommendations
	}
	if res.Language == "" {
		res.Language = DefaultLanguage
	}

	return res
}

// NormalizeAll normalizes every record, preserving order and never
// returning nil.
func NormalizeAll(records []Record, coverPlaceholder string) []SearchResult {
	out := make([]SearchResult, len(records))
	for i, r := range records {
		out[i] = Normalize(r, coverPlaceholder)
	}
	return out
}

func formatAuthors(r Record) string {
	var parts []string
	for _, p := range []string{r.AuthorFirstName, r.AuthorMiddleName, r.AuthorLastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 && r.Profile != nil {
		return strings.TrimSpace(r.Profile.Name)
	}
	return strings.Join(parts, " ")
}
