package handlers

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"sales-dashboard/internal/charts"
	"sales-dashboard/internal/config"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

// ChartHandlers serve the two bar charts of the session's current view as
// SVG, or PNG with ?format=png.
type ChartHandlers struct {
	opts   charts.Options
	logger *slog.Logger
}

func NewChartHandlers(cfg config.ChartsConfig, logger *slog.Logger) *ChartHandlers {
	return &ChartHandlers{
		opts:   charts.Options{Width: cfg.Width, Height: cfg.Height},
		logger: logger,
	}
}

func (h *ChartHandlers) HandleSalesByRegion(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(buf *bytes.Buffer, v *models.View, f charts.Format) error {
		return charts.SalesByRegion(buf, v.SalesByRegion, f, h.opts)
	})
}

func (h *ChartHandlers) HandleSalesBySubCategory(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(buf *bytes.Buffer, v *models.View, f charts.Format) error {
		return charts.SalesBySubCategory(buf, v.SalesBySubCategory, f, h.opts)
	})
}

func (h *ChartHandlers) serve(w http.ResponseWriter, r *http.Request, draw func(*bytes.Buffer, *models.View, charts.Format) error) {
	state, err := stateFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	format, err := charts.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, r, errors.BadRequestWrap(err, "invalid chart format"))
		return
	}

	// Rendered into a buffer so a failure can still produce an error response.
	var buf bytes.Buffer
	if err := draw(&buf, state.View(), format); err != nil {
		if stderrors.Is(err, charts.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.writeError(w, r, errors.InternalWrap(err, "render chart"))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write chart", "error", err)
	}
}

func (h *ChartHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, r, h.logger, err, observability.GetRequestID(r.Context()))
}
