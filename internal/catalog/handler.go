// Package catalog provides catalog introspection, letting clients discover
// the searchable catalogs, which fields each one can filter in storage, and
// how many records each holds.
package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"github.com/GyroZepelix/thesis-archive/internal/schema"
	"github.com/GyroZepelix/thesis-archive/internal/server"
)

// Counter counts the records of one catalog.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Catalog is one searchable catalog.
type Catalog struct {
	Name    string
	Layout  schema.Layout
	Counter Counter
}

// FieldResponse describes one canonical field of a catalog.
type FieldResponse struct {
	Field  schema.Field      `json:"field"`
	Column string            `json:"column"`
	Type   schema.ColumnType `json:"type"`
	// Filterable is false for fields read from a joined table; filters on
	// them are applied after the query.
	Filterable bool `json:"filterable"`
}

// Response is a catalog in the introspection API response.
type Response struct {
	Name        string          `json:"name"`
	Layout      string          `json:"layout"`
	Table       string          `json:"table"`
	FullText    bool            `json:"fullText"`
	Fields      []FieldResponse `json:"fields"`
	RecordCount int             `json:"recordCount"`
}

// Handler serves GET /api/catalogs.
type Handler struct {
	catalogs []Catalog
}

// NewHandler creates a Handler. Catalogs are listed sorted by name.
func NewHandler(catalogs []Catalog) *Handler {
	sorted := make([]Catalog, len(catalogs))
	copy(sorted, catalogs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return &Handler{catalogs: sorted}
}

// List handles GET /api/catalogs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	responses := make([]Response, 0, len(h.catalogs))
	for _, c := range h.catalogs {
		count := 0
		if c.Counter != nil {
			n, err := c.Counter.Count(r.Context())
			if err != nil {
				// A missing count should not hide the catalog.
				slog.Error("failed to count records", "catalog", c.Name, "error", err)
			} else {
				count = n
			}
		}
		responses = append(responses, buildResponse(c, count))
	}

	server.List(w, responses, len(responses), "")
}

func buildResponse(c Catalog, count int) Response {
	fields := make([]FieldResponse, len(c.Layout.Columns))
	for i, col := range c.Layout.Columns {
		fields[i] = FieldResponse{
			Field:      col.Field,
			Column:     col.Name,
			Type:       col.Type,
			Filterable: c.Layout.Queryable(col.Field),
		}
	}

	return Response{
		Name:        c.Name,
		Layout:      c.Layout.Name,
		Table:       c.Layout.Table,
		FullText:    c.Layout.SearchVector != "",
		Fields:      fields,
		RecordCount: count,
	}
}
