package thesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GyroZepelix/thesis-archive/internal/schema"
	"github.com/GyroZepelix/thesis-archive/internal/search"
)

// Sentinel errors returned by the service and its stores.
var (
	// ErrNotFound is returned when a thesis record does not exist.
	ErrNotFound = errors.New("thesis not found")

	// ErrSearchEngineUnavailable marks a failed full-text attempt. It is
	// recovered by falling back and never reaches API callers.
	ErrSearchEngineUnavailable = errors.New("full-text search unavailable")

	// ErrRecommendationsUnsupported is returned when the layout has no
	// recommendations column to increment.
	ErrRecommendationsUnsupported = errors.New("recommendations not supported by layout")
)

// Strategy names the search path that produced a result set.
type Strategy string

// Search strategies.
const (
	StrategyFullText Strategy = "full-text"
	StrategyFallback Strategy = "fallback"
)

// Store is the storage capability the service composes queries against.
type Store interface {
	// Layout returns the storage layout queries are compiled for.
	Layout() schema.Layout
	// FullText runs a ranked full-text search for text, restricted by filter,
	// ordered by rank and then degree date, newest first.
	FullText(ctx context.Context, text string, filter search.Predicate) ([]Record, error)
	// Find returns the records matching filter, newest degree date first. A
	// nil filter returns every record.
	Find(ctx context.Context, filter search.Predicate) ([]Record, error)
	// Get returns one record by id, or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)
	// IncrementRecommendations atomically adds one to a record's
	// recommendation counter and returns the new value.
	IncrementRecommendations(ctx context.Context, id string) (int, error)
}

// Options configures a Service.
type Options struct {
	// RequireCriteria rejects searches that carry no criterion.
	RequireCriteria bool
	// CoverPlaceholder is the coverImage of records without a cover.
	CoverPlaceholder string
}

// Service is the search query composer for one catalog. It holds no mutable
// state and is safe for concurrent use.
type Service struct {
	store Store
	opts  Options
}

// NewService creates a Service over store.
func NewService(store Store, opts Options) *Service {
	return &Service{store: store, opts: opts}
}

// Results is the outcome of a search.
type Results struct {
	Items    []SearchResult
	Strategy Strategy
	// Query is the validated request the results answer.
	Query Query
}

// plan is a query split into the part storage evaluates and the part
// evaluated in memory afterwards.
type plan struct {
	text    search.Predicate
	filters search.Predicate
	post    search.Predicate
}

// Search validates payload and runs it. A full-text attempt is made first
// when the query has free text; any failure of that attempt falls back to
// the substring strategy. Storage failures of the fallback are returned.
func (s *Service) Search(ctx context.Context, payload Payload) (*Results, error) {
	q, err := ParseQuery(payload, s.opts.RequireCriteria)
	if err != nil {
		return nil, err
	}

	pl := s.buildPlan(q)
	layout := s.store.Layout()

	if q.Text != "" {
		records, err := s.store.FullText(ctx, q.Text, pl.filters)
		if err == nil {
			return s.finish(q, records, pl, StrategyFullText), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("full-text search failed, falling back to substring search",
			"layout", layout.Name,
			"error", err,
		)
	}

	records, err := s.store.Find(ctx, search.AllOf(pl.text, pl.filters))
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", layout.Name, err)
	}
	return s.finish(q, records, pl, StrategyFallback), nil
}

func (s *Service) finish(q Query, records []Record, pl plan, strategy Strategy) *Results {
	records = PostFilter(records, pl.post)
	return &Results{
		Items:    NormalizeAll(records, s.opts.CoverPlaceholder),
		Strategy: strategy,
		Query:    q,
	}
}

// buildPlan builds the predicate groups for q. Each group is AND-ed with the
// others and internally OR-ed across its alternatives; absent groups are
// omitted. Free text reaches joined profile columns through the outer join;
// structured groups on fields the layout cannot filter in SQL are moved to
// the in-memory post-filter.
func (s *Service) buildPlan(q Query) plan {
	layout := s.store.Layout()

	var pl plan
	pl.text = search.TextPredicate(q.Terms, search.Searchable(layout, search.TextFields))

	var sqlGroups, postGroups []search.Predicate
	add := func(f schema.Field, pred search.Predicate) {
		if pred == nil {
			return
		}
		if layout.Queryable(f) {
			sqlGroups = append(sqlGroups, pred)
		} else {
			postGroups = append(postGroups, pred)
		}
	}

	if q.Year != 0 {
		add(schema.FieldDegreeAwarded, search.YearPredicate(schema.FieldDegreeAwarded, q.Year))
	}
	add(schema.FieldDepartment, search.AnyOf(schema.FieldDepartment, q.Departments))
	if layout.Queryable(schema.FieldProgram) {
		add(schema.FieldProgram, search.AnyOf(schema.FieldProgram, q.Programs))
	} else if len(q.Programs) > 0 {
		postGroups = append(postGroups, search.In{Field: schema.FieldProgram, Values: q.Programs})
	}

	pl.filters = search.AllOf(sqlGroups...)
	pl.post = search.AllOf(postGroups...)
	return pl
}

// Get returns one normalized record.
func (s *Service) Get(ctx context.Context, id string) (SearchResult, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return SearchResult{}, fmt.Errorf("getting thesis %s: %w", id, err)
	}
	return Normalize(r, s.opts.CoverPlaceholder), nil
}

// Recommend increments a record's recommendation counter.
func (s *Service) Recommend(ctx context.Context, id string) (int, error) {
	if !s.store.Layout().Queryable(schema.FieldRecommendations) {
		return 0, ErrRecommendationsUnsupported
	}
	n, err := s.store.IncrementRecommendations(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("recommending thesis %s: %w", id, err)
	}
	return n, nil
}
