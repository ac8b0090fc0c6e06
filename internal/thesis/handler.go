package thesis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GyroZepelix/thesis-archive/internal/searchlog"
	"github.com/GyroZepelix/thesis-archive/internal/server"
)

// maxBodySize is the maximum allowed request body size (64 KiB).
const maxBodySize = 64 << 10

// Recorder receives one event per successful search.
type Recorder interface {
	Log(ctx context.Context, event searchlog.Event)
}

// Handler provides the HTTP handlers of one catalog.
type Handler struct {
	catalog  string
	service  *Service
	recorder Recorder
}

// NewHandler creates a Handler for the named catalog. recorder may be nil.
func NewHandler(catalog string, service *Service, recorder Recorder) *Handler {
	return &Handler{catalog: catalog, service: service, recorder: recorder}
}

// Search handles POST /api/{catalog}/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	start := time.Now()
	res, err := h.service.Search(r.Context(), payload)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	elapsed := time.Since(start)

	slog.Debug("search completed",
		"catalog", h.catalog,
		"strategy", res.Strategy,
		"count", len(res.Items),
		"duration", elapsed.String(),
	)
	if h.recorder != nil {
		h.recorder.Log(r.Context(), searchlog.Event{
			Catalog:     h.catalog,
			Query:       res.Query.Text,
			Year:        res.Query.Year,
			Departments: res.Query.Departments,
			Programs:    res.Query.Programs,
			Strategy:    string(res.Strategy),
			Results:     len(res.Items),
			Duration:    elapsed,
		})
	}
	server.List(w, res.Items, len(res.Items), "results from "+string(res.Strategy)+" search")
}

// Get handles GET /api/{catalog}/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, result)
}

// Recommend handles POST /api/{catalog}/{id}/recommend.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	n, err := h.service.Recommend(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, map[string]any{"id": id, "recommendations": n})
}

// decodePayload reads the search body. An empty body is an empty payload.
func decodePayload(w http.ResponseWriter, r *http.Request) (Payload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var p Payload
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	err := dec.Decode(&p)
	if errors.Is(err, io.EOF) {
		return Payload{}, true
	}
	if err == nil {
		// The body must hold exactly one value.
		if err = dec.Decode(&struct{}{}); errors.Is(err, io.EOF) {
			return p, true
		}
	}
	server.Error(w, http.StatusBadRequest, "Invalid request body",
		"body must be a single JSON object no larger than 64 KiB")
	return Payload{}, false
}

func parseID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		server.Error(w, http.StatusBadRequest, "Invalid id", "id must be a UUID")
		return "", false
	}
	return id.String(), true
}

// handleServiceError writes the appropriate error response for service errors.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		server.Error(w, http.StatusBadRequest, "Validation failed", valErr.Error())
		return
	}
	if errors.Is(err, ErrNotFound) {
		server.Error(w, http.StatusNotFound, "Thesis not found", "")
		return
	}
	if errors.Is(err, ErrRecommendationsUnsupported) {
		server.Error(w, http.StatusNotFound, "Recommendations are not available for this catalog", "")
		return
	}
	slog.Error("thesis service error", "catalog", h.catalog, "error", err)
	server.Error(w, http.StatusInternalServerError, "Internal server error", "")
}
