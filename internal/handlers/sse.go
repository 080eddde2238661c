package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/session"
	"sales-dashboard/internal/ui/templates"
)

const invalidSelectionMessage = "Invalid selection. Reload the page."

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleView pushes the session's current views.
func (h *SSEHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	state, err := stateFrom(r)
	if err != nil {
		h.logger.Error("sse view", "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := newSSERenderer(sse).Render(r.Context(), state.View()); err != nil {
		h.logger.Error("render view", "error", err, "session_id", state.ID())
	}
}

// HandleFilter reads the selection signals and runs the selection-change
// handler, which either patches the new views or a notice.
func (h *SSEHandlers) HandleFilter(w http.ResponseWriter, r *http.Request) {
	state, err := stateFrom(r)
	if err != nil {
		h.logger.Error("sse filter", "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	var sel models.Selection
	if err := datastar.ReadSignals(r, &sel); err != nil {
		h.logger.Warn("read signals", "error", err, "session_id", state.ID())
		http.Error(w, "invalid signals", http.StatusBadRequest)
		return
	}

	sse := datastar.NewSSE(w, r)
	renderer := newSSERenderer(sse)

	if err := h.analytics.Validate(sel); err != nil {
		h.logger.Warn("invalid selection", "error", err, "session_id", state.ID())
		if err := renderer.Notify(r.Context(), models.Notice{Level: models.NoticeError, Message: invalidSelectionMessage}); err != nil {
			h.logger.Error("patch notice", "error", err)
		}
		return
	}

	ctx, span := observability.StartSpan(r.Context(), "filter")
	applied, err := state.OnFilter(ctx, sel, renderer)
	span.SetTag("applied", boolTag(applied))
	if err != nil {
		span.SetError(err)
		h.logger.Error("apply selection", "error", err, "session_id", state.ID())
	}
	span.Finish(h.logger)
}

// sseRenderer patches the page through Datastar: HTML fragments for the cards,
// charts and notice, and signals carrying the chart data.
type sseRenderer struct {
	sse *datastar.ServerSentEventGenerator
}

var _ session.Renderer = (*sseRenderer)(nil)

func newSSERenderer(sse *datastar.ServerSentEventGenerator) *sseRenderer {
	return &sseRenderer{sse: sse}
}

func (s *sseRenderer) Render(ctx context.Context, v *models.View) error {
	for _, c := range []templ.Component{
		templates.ClearNotice(),
		templates.SummaryCards(v.Summary),
		templates.Charts(v.Version),
	} {
		html, err := templates.RenderString(ctx, c)
		if err != nil {
			return err
		}
		if err := s.sse.PatchElements(html); err != nil {
			return err
		}
	}

	signals, err := json.Marshal(map[string]any{
		"salesByRegion":      v.SalesByRegion,
		"salesBySubCategory": v.SalesBySubCategory,
		"summary":            v.Summary,
	})
	if err != nil {
		return err
	}
	return s.sse.PatchSignals(signals)
}

func (s *sseRenderer) Notify(ctx context.Context, n models.Notice) error {
	html, err := templates.RenderString(ctx, templates.Notice(n))
	if err != nil {
		return err
	}
	return s.sse.PatchElements(html)
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
