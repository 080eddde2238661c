package handlers

import (
	"log/slog"
	"net/http"

	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const pageTitle = "Sales Dashboard"

type PageHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewPageHandlers(analytics *services.Analytics, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	state, err := stateFrom(r)
	if err != nil {
		h.logger.Error("dashboard", "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	page := templates.Dashboard(templates.PageData{
		Title:     pageTitle,
		Options:   h.analytics.Options(),
		Selection: state.Selection(),
		View:      state.View(),
	})
	if err := page.Render(r.Context(), w); err != nil {
		h.logger.Error("render dashboard", "error", err, "session_id", state.ID())
	}
}
