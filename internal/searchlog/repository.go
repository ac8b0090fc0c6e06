// Package searchlog records thesis searches for later review. Events are
// written asynchronously to the search_log table so that recording never
// slows down or fails a search.
package searchlog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/GyroZepelix/thesis-archive/internal/database"
)

// Event describes one completed search.
type Event struct {
	Catalog     string
	Query       string
	Year        int
	Departments []string
	Programs    []string
	Strategy    string
	Results     int
	Duration    time.Duration
}

// Entry is a stored search_log row.
type Entry struct {
	ID          string    `json:"id"`
	Catalog     string    `json:"catalog"`
	Query       *string   `json:"query,omitempty"`
	Year        *int      `json:"year,omitempty"`
	Departments []string  `json:"departments"`
	Programs    []string  `json:"programs"`
	Strategy    string    `json:"strategy"`
	Results     int       `json:"results"`
	DurationMS  int       `json:"durationMs"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Repository provides database operations for the search_log table.
type Repository struct {
	db database.Querier
}

// NewRepository creates a new search log Repository.
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

// Insert writes a single event. An empty query and a zero year are stored as
// NULL.
func (r *Repository) Insert(ctx context.Context, event Event) error {
	var year *int
	if event.Year != 0 {
		year = &event.Year
	}

	_, err := r.db.Exec(ctx, insertSQL,
		event.Catalog,
		nullIfEmpty(event.Query),
		year,
		nonNil(event.Departments),
		nonNil(event.Programs),
		event.Strategy,
		event.Results,
		event.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting search log event: %w", err)
	}
	return nil
}

const insertSQL = `INSERT INTO search_log (catalog, query, year, departments, programs, strategy, results, duration_ms)
 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Recent returns the newest entries, optionally restricted to one catalog.
func (r *Repository) Recent(ctx context.Context, catalog string, limit int) ([]Entry, error) {
	sql, args := buildRecentQuery(catalog, limit)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying search log: %w", err)
	}
	defer rows.Close()

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.ID, &e.Catalog, &e.Query, &e.Year, &e.Departments, &e.Programs,
			&e.Strategy, &e.Results, &e.DurationMS, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning search log: %w", err)
	}
	return entries, nil
}

// buildRecentQuery renders the listing query. Column names are constants;
// only values are parameterised.
func buildRecentQuery(catalog string, limit int) (string, []any) {
	sql := `SELECT id::text, catalog, query, year, departments, programs, strategy, results, duration_ms, created_at
 FROM search_log`
	var args []any
	if catalog != "" {
		args = append(args, catalog)
		sql += fmt.Sprintf(" WHERE catalog = $%d", len(args))
	}
	args = append(args, limit)
	sql += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	return sql, args
}

// nullIfEmpty maps an empty string to SQL NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
