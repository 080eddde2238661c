package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/export"
	"sales-dashboard/internal/observability"
)

const exportFilename = "sales-dashboard.xlsx"

type ExportHandlers struct {
	logger *slog.Logger
}

func NewExportHandlers(logger *slog.Logger) *ExportHandlers {
	return &ExportHandlers{logger: logger}
}

// HandleWorkbook downloads the session's current view as a workbook.
func (h *ExportHandlers) HandleWorkbook(w http.ResponseWriter, r *http.Request) {
	state, err := stateFrom(r)
	if err != nil {
		errors.WriteError(w, r, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, state.View()); err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "build workbook"), observability.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write workbook", "error", err)
	}
}
