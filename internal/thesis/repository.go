package thesis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/GyroZepelix/thesis-archive/internal/database"
	"github.com/GyroZepelix/thesis-archive/internal/schema"
	"github.com/GyroZepelix/thesis-archive/internal/search"
)

// Repository generates and executes SQL for one storage layout.
type Repository struct {
	db     database.Querier
	layout schema.Layout
}

// NewRepository creates a Repository for layout.
func NewRepository(db database.Querier, layout schema.Layout) *Repository {
	return &Repository{db: db, layout: layout}
}

// Layout returns the layout the repository queries.
func (r *Repository) Layout() schema.Layout {
	return r.layout
}

// FullText runs a ranked full-text search.
func (r *Repository) FullText(ctx context.Context, text string, filter search.Predicate) ([]Record, error) {
	sql, args, err := buildFullTextQuery(r.layout, text, filter)
	if err != nil {
		return nil, err
	}
	records, err := r.query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchEngineUnavailable, err)
	}
	return records, nil
}

// Find returns the records matching filter.
func (r *Repository) Find(ctx context.Context, filter search.Predicate) ([]Record, error) {
	sql, args, err := buildFindQuery(r.layout, filter)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, sql, args)
}

// Get retrieves a single record by UUID.
func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	idCol, _ := r.layout.Column(schema.FieldID)
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		r.layout.SelectList(),
		r.layout.From(),
		r.layout.Expr(idCol),
	)

	rows, err := r.db.Query(ctx, sql, id)
	if err != nil {
		return Record{}, fmt.Errorf("querying thesis: %w", err)
	}
	defer rows.Close()

	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("scanning thesis: %w", err)
	}
	return recordFromRow(row), nil
}

// Count returns the number of stored records.
func (r *Repository) Count(ctx context.Context) (int, error) {
	sql := "SELECT count(*) FROM " + r.layout.Target()

	var n int
	if err := r.db.QueryRow(ctx, sql).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting theses: %w", err)
	}
	return n, nil
}

// IncrementRecommendations adds one to the recommendation counter in a
// single statement and returns the new value.
func (r *Repository) IncrementRecommendations(ctx context.Context, id string) (int, error) {
	sql, err := buildIncrementQuery(r.layout)
	if err != nil {
		return 0, err
	}

	var n int
	if err := r.db.QueryRow(ctx, sql, id).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("incrementing recommendations: %w", err)
	}
	return n, nil
}

func (r *Repository) query(ctx context.Context, sql string, args []any) ([]Record, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying theses: %w", err)
	}
	defer rows.Close()

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("scanning theses: %w", err)
	}

	records := make([]Record, len(maps))
	for i, m := range maps {
		records[i] = recordFromRow(m)
	}
	return records, nil
}

// buildFullTextQuery renders the ranked search. The text is matched against
// the search vector and filter is AND-ed with it.
func buildFullTextQuery(l schema.Layout, text string, filter search.Predicate) (string, []any, error) {
	p := search.NewParams(1)
	match, rank := search.BuildFullTextClause(text, l, p)
	if match == "" {
		return "", nil, fmt.Errorf("%w: layout %s has no search vector", ErrSearchEngineUnavailable, l.Name)
	}

	where := "WHERE " + match
	if filter != nil {
		cond, err := filter.SQL(l, p)
		if err != nil {
			return "", nil, err
		}
		if cond != "" {
			where += " AND " + cond
		}
	}

	order := append([]string{rank + " DESC"}, dateOrder(l)...)
	sql := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY %s",
		l.SelectList(), l.From(), where, strings.Join(order, ", "))
	return sql, p.Args(), nil
}

// buildFindQuery renders the unranked search, newest degree first.
func buildFindQuery(l schema.Layout, filter search.Predicate) (string, []any, error) {
	p := search.NewParams(1)
	where, err := search.Where(filter, l, p)
	if err != nil {
		return "", nil, err
	}

	parts := []string{"SELECT", l.SelectList(), "FROM", l.From()}
	if where != "" {
		parts = append(parts, where)
	}
	parts = append(parts, "ORDER BY", strings.Join(dateOrder(l), ", "))
	return strings.Join(parts, " "), p.Args(), nil
}

func buildIncrementQuery(l schema.Layout) (string, error) {
	if !l.Queryable(schema.FieldRecommendations) {
		return "", ErrRecommendationsUnsupported
	}
	col, _ := l.Column(schema.FieldRecommendations)
	idCol, _ := l.Column(schema.FieldID)
	return fmt.Sprintf("UPDATE %s SET %s = COALESCE(%s, 0) + 1 WHERE %s = $1 RETURNING %s",
		l.Target(),
		schema.QuoteIdent(col.Name), l.Expr(col),
		l.Expr(idCol),
		l.Expr(col),
	), nil
}

// dateOrder is the recency ordering: degree date, then creation time, then
// id for a stable result.
func dateOrder(l schema.Layout) []string {
	var order []string
	if col, ok := l.Column(schema.FieldDegreeAwarded); ok && l.Queryable(schema.FieldDegreeAwarded) {
		order = append(order, l.Expr(col)+" DESC NULLS LAST")
	}
	if col, ok := l.Column(schema.FieldCreatedAt); ok && l.Queryable(schema.FieldCreatedAt) {
		order = append(order, l.Expr(col)+" DESC NULLS LAST")
	}
	idCol, _ := l.Column(schema.FieldID)
	return append(order, l.Expr(idCol))
}
