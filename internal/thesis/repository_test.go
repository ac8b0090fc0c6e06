package thesis

import (
	"errors"
	"strings"
	"testing"

	"github.com/GyroZepelix/thesis-archive/internal/schema"
	"github.com/GyroZepelix/thesis-archive/internal/search"
)

func TestBuildFindQuery_NoFilter(t *testing.T) {
	l := mustLayout(t, schema.LayoutFlat)

	sql, args, err := buildFindQuery(l, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "SELECT " + l.SelectList() + ` FROM "thesis_tbl" AS "t" ORDER BY "t"."degree_awarded" DESC NULLS LAST, "t"."created_at" DESC NULLS LAST, "t"."id"`
	if sql != want {
		t.Errorf("sql:\n  got:  %s\n  want: %s", sql, want)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestBuildFindQuery_GroupsAreParameterised(t *testing.T) {
	l := mustLayout(t, schema.LayoutFlat)
	filter := search.AllOf(
		search.TextPredicate([]string{"50%_off"}, []schema.Field{schema.FieldTitle}),
		search.AnyOf(schema.FieldDepartment, []string{"CCS", "CAS"}),
	)

	sql, args, err := buildFindQuery(l, filter)
	if err != nil {
		t.Fatal(err)
	}
	wantWhere := `WHERE ("t"."title" ILIKE $1 AND ("t"."department" ILIKE $2 OR "t"."department" ILIKE $3))`
	if !strings.Contains(sql, wantWhere) {
		t.Errorf("expected %q in:\n%s", wantWhere, sql)
	}
	if strings.Contains(sql, "50%") {
		t.Errorf("user input leaked into SQL: %s", sql)
	}
	want := []any{`%50\%\_off%`, "%CCS%", "%CAS%"}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %v, want %v", i, args[i], want[i])
		}
	}
}

func TestBuildFindQuery_JoinedLayout(t *testing.T) {
	l := mustLayout(t, schema.LayoutJoined)

	sql, _, err := buildFindQuery(l, search.AnyOf(schema.FieldKeywords, []string{"ai"}))
	if err != nil {
		t.Fatal(err)
	}
	for _, part := range []string{
		`FROM "tblthesis" AS "t" LEFT JOIN "tblprofiles" AS "p" ON "p"."id" = "t"."profile_id"`,
		`WHERE array_to_string("t"."keywords", ' ') ILIKE $1`,
		`ORDER BY "t"."publication_date" DESC NULLS LAST`,
		`"p"."degree_program" AS "program"`,
	} {
		if !strings.Contains(sql, part) {
			t.Errorf("expected %q in:\n%s", part, sql)
		}
	}
}

func TestBuildFindQuery_ProfileFieldUnavailable(t *testing.T) {
	l := mustLayout(t, schema.LayoutJoined)

	_, _, err := buildFindQuery(l, search.In{Field: schema.FieldProgram, Values: []string{"BSCS"}})
	if !errors.Is(err, search.ErrFieldUnavailable) {
		t.Errorf("expected ErrFieldUnavailable, got %v", err)
	}
}

func TestBuildFindQuery_JoinedAuthorText(t *testing.T) {
	l := mustLayout(t, schema.LayoutJoined)

	sql, args, err := buildFindQuery(l, search.TextPredicate([]string{"doe"}, search.Searchable(l, search.TextFields)))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sql, `"p"."name" ILIKE $`) {
		t.Errorf("expected author name match in:\n%s", sql)
	}
	for _, a := range args {
		if a != "%doe%" {
			t.Errorf("unexpected arg %v", a)
		}
	}
}

func TestBuildFullTextQuery(t *testing.T) {
	l := mustLayout(t, schema.LayoutFlat)
	filter := search.YearPredicate(schema.FieldDegreeAwarded, 2024)

	sql, args, err := buildFullTextQuery(l, `"deep learning" -vision`, filter)
	if err != nil {
		t.Fatal(err)
	}
	wantWhere := `WHERE "t"."search_vector" @@ websearch_to_tsquery('english', $1) AND ("t"."degree_awarded" >= $2::date AND "t"."degree_awarded" < $3::date)`
	if !strings.Contains(sql, wantWhere) {
		t.Errorf("expected %q in:\n%s", wantWhere, sql)
	}
	wantOrder := `ORDER BY ts_rank("t"."search_vector", websearch_to_tsquery('english', $1)) DESC, "t"."degree_awarded" DESC NULLS LAST`
	if !strings.Contains(sql, wantOrder) {
		t.Errorf("expected %q in:\n%s", wantOrder, sql)
	}
	if len(args) != 3 || args[0] != `"deep learning" -vision` || args[1] != "2024-01-01" || args[2] != "2025-01-01" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildFullTextQuery_NoSearchVector(t *testing.T) {
	l := mustLayout(t, schema.LayoutFlat)
	l.SearchVector = ""

	_, _, err := buildFullTextQuery(l, "machine", nil)
	if !errors.Is(err, ErrSearchEngineUnavailable) {
		t.Errorf("expected ErrSearchEngineUnavailable, got %v", err)
	}
}

func TestBuildIncrementQuery(t *testing.T) {
	l := mustLayout(t, schema.LayoutJoined)

	sql, err := buildIncrementQuery(l)
	if err != nil {
		t.Fatal(err)
	}
	want := `UPDATE "tblthesis" AS "t" SET "recommendations" = COALESCE("t"."recommendations", 0) + 1 WHERE "t"."id" = $1 RETURNING "t"."recommendations"`
	if sql != want {
		t.Errorf("sql:\n  got:  %s\n  want: %s", sql, want)
	}

	l.Columns = l.Columns[:1]
	if _, err := buildIncrementQuery(l); !errors.Is(err, ErrRecommendationsUnsupported) {
		t.Errorf("expected ErrRecommendationsUnsupported, got %v", err)
	}
}
