package search

import (
	"fmt"

	"github.com/GyroZepelix/thesis-archive/internal/schema"
)

// FullTextConfig is the text search configuration used for the vector and
// the query.
const FullTextConfig = "english"

// BuildFullTextClause generates the PostgreSQL full-text match and rank
// ordering for query against the layout's search vector. The query uses
// websearch syntax: quoted phrases, implicit AND, and -exclusion.
//
// Returns:
//   - whereClause: e.g., "t"."search_vector" @@ websearch_to_tsquery('english', $3)
//   - rankExpr: e.g., ts_rank("t"."search_vector", websearch_to_tsquery('english', $3))
//
// If the layout has no search vector, both are empty (full-text search not
// available).
func BuildFullTextClause(query string, l schema.Layout, p *Params) (whereClause, rankExpr string) {
	vec := l.SearchVectorExpr()
	if vec == "" {
		return "", ""
	}

	tsquery := fmt.Sprintf("websearch_to_tsquery('%s', %s)", FullTextConfig, p.Add(query))

	whereClause = fmt.Sprintf("%s @@ %s", vec, tsquery)
	rankExpr = fmt.Sprintf("ts_rank(%s, %s)", vec, tsquery)
	return whereClause, rankExpr
}
