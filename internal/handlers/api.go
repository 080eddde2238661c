package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/session"
)

const maxFilterBody = 1 << 20

type APIHandlers struct {
	analytics *services.Analytics
	sessions  *session.Store
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, sessions *session.Store, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		sessions:  sessions,
		logger:    logger,
	}
}

// ViewResponse is the JSON form of a session's derived views.
type ViewResponse struct {
	*models.View
	Rows []models.Row `json:"rows,omitempty"`
}

type FilterResponse struct {
	Applied bool           `json:"applied"`
	Notice  *models.Notice `json:"notice,omitempty"`
	View    ViewResponse   `json:"view"`
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.Options(), map[string]string{
		"Cache-Control": "public, max-age=300",
	})
}

func (h *APIHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	state, err := stateFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, viewResponse(state.View(), r), map[string]string{
		"Cache-Control": "no-store",
	})
}

// HandleFilter applies a selection sent as JSON. An empty dimension is not an
// error: the response carries the notice and the unchanged views.
func (h *APIHandlers) HandleFilter(w http.ResponseWriter, r *http.Request) {
	state, err := stateFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var sel models.Selection
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFilterBody)).Decode(&sel); err != nil {
		h.writeError(w, r, errors.BadRequestWrap(err, "invalid selection body"))
		return
	}
	if err := h.analytics.Validate(sel); err != nil {
		h.writeError(w, r, errors.ValidationWrap(err, "invalid selection"))
		return
	}

	c := &collector{}
	applied, err := state.OnFilter(r.Context(), sel, c)
	if err != nil {
		h.writeError(w, r, errors.InternalWrap(err, "apply selection"))
		return
	}

	errors.WriteSuccessWithHeaders(w, FilterResponse{
		Applied: applied,
		Notice:  c.notice,
		View:    viewResponse(state.View(), r),
	}, map[string]string{"Cache-Control": "no-store"})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.analytics.Stats()
	stats["sessions"] = h.sessions.Stats()
	errors.WriteSuccess(w, stats)
}

func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, r, h.logger, err, observability.GetRequestID(r.Context()))
}

// viewResponse includes the filtered rows only when asked with ?rows=true.
func viewResponse(v *models.View, r *http.Request) ViewResponse {
	resp := ViewResponse{View: v}
	if r.URL.Query().Get("rows") == "true" {
		resp.Rows = v.Filtered
	}
	return resp
}

// collector is the renderer for JSON clients, which read the outcome from the
// response instead of receiving pushed updates.
type collector struct {
	notice *models.Notice
}

var _ session.Renderer = (*collector)(nil)

func (c *collector) Render(_ context.Context, _ *models.View) error {
	return nil
}

func (c *collector) Notify(_ context.Context, n models.Notice) error {
	c.notice = &n
	return nil
}

func stateFrom(r *http.Request) (*session.State, error) {
	state, ok := middleware.StateFrom(r.Context())
	if !ok {
		return nil, errors.InternalWrap(fmt.Errorf("no session in request context"), "session unavailable")
	}
	return state, nil
}
