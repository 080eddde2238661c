package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/session"
)

var testRows = []models.Row{
	{Region: "West", Category: "Furniture", Segment: "Consumer", SubCategory: "Chairs", Sales: 100, ProfitRatio: 0.10},
	{Region: "East", Category: "Technology", Segment: "Corporate", SubCategory: "Phones", Sales: 300, ProfitRatio: 0.20},
	{Region: "West", Category: "Technology", Segment: "Consumer", SubCategory: "Phones", Sales: 50, ProfitRatio: 0.30},
	{Region: "East", Category: "Furniture", Segment: "Consumer", SubCategory: "Tables", Sales: 200, ProfitRatio: -0.05},
}

var sessionCfg = config.SessionConfig{
	CookieName:    "dashboard_session",
	TTL:           time.Hour,
	SweepInterval: time.Minute,
	MaxSessions:   10,
}

type testEnv struct {
	analytics *services.Analytics
	store     *session.Store
	logger    *slog.Logger
}

func newTestEnv(rows []models.Row) *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := services.NewAnalytics()
	a.SetData(rows)
	return &testEnv{
		analytics: a,
		store: session.NewStore(a, session.StoreConfig{
			TTL:           sessionCfg.TTL,
			SweepInterval: sessionCfg.SweepInterval,
			MaxSessions:   sessionCfg.MaxSessions,
		}, logger),
		logger: logger,
	}
}

// serve runs h behind the session middleware, reusing cookie when set.
func (e *testEnv) serve(h http.HandlerFunc, r *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	middleware.Session(e.store, sessionCfg)(h).ServeHTTP(w, r)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCfg.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope[T]
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !env.Success {
		t.Fatalf("expected success=true")
	}
	return env.Data
}

func filterBody(t *testing.T, sel models.Selection) io.Reader {
	t.Helper()
	b, err := json.Marshal(sel)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(b)
}

func TestAPI_HandleOptions(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewAPIHandlers(env.analytics, env.store, env.logger)

	w := httptest.NewRecorder()
	h.HandleOptions(w, httptest.NewRequest(http.MethodGet, "/api/options", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("cache-control = %q", cc)
	}
	opts := decode[models.Options](t, w)
	if got := strings.Join(opts.Regions, ","); got != "West,East" {
		t.Errorf("regions = %q, want first-seen order", got)
	}
	if len(opts.Categories) != 2 || len(opts.Segments) != 2 {
		t.Errorf("options = %+v", opts)
	}
}

func TestAPI_HandleView_InitialSelectionCoversEverything(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewAPIHandlers(env.analytics, env.store, env.logger)

	w := env.serve(h.HandleView, httptest.NewRequest(http.MethodGet, "/api/view", nil), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	v := decode[ViewResponse](t, w)
	if v.View == nil {
		t.Fatal("missing view")
	}
	if v.Summary.Count != 4 || v.Summary.TotalSales != 650 {
		t.Errorf("summary = %+v", v.Summary)
	}
	if v.Rows != nil {
		t.Errorf("rows included without ?rows=true")
	}
	if v.Version != 1 {
		t.Errorf("version = %d, want 1", v.Version)
	}
}

func TestAPI_HandleView_WithRows(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewAPIHandlers(env.analytics, env.store, env.logger)

	w := env.serve(h.HandleView, httptest.NewRequest(http.MethodGet, "/api/view?rows=true", nil), nil)
	v := decode[ViewResponse](t, w)
	if len(v.Rows) != len(testRows) {
		t.Errorf("rows = %d, want %d", len(v.Rows), len(testRows))
	}
}

func TestAPI_HandleFilter_Applies(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewAPIHandlers(env.analytics, env.store, env.logger)

	sel := models.Selection{
		Regions:    []string{"West"},
		Categories: []string{"Furniture", "Technology"},
		Segments:   []string{"Consumer"},
	}
	w := env.serve(h.HandleFilter, httptest.NewRequest(http.MethodPost, "/api/filter", filterBody(t, sel)), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("cache-control = %q", cc)
	}

	resp := decode[FilterResponse](t, w)
	if !resp.Applied || resp.Notice != nil {
		t.Fatalf("applied = %v, notice = %v", resp.Applied, resp.Notice)
	}
	if resp.View.Summary.TotalSales != 150 || resp.View.Summary.Count != 2 {
		t.Errorf("summary = %+v", resp.View.Summary)
	}
	subs := resp.View.SalesBySubCategory
	if len(subs) != 2 || subs[0].SubCategory != "Phones" || subs[1].SubCategory != "Chairs" {
		t.Errorf("sales by sub-category = %+v, want ascending by sales", subs)
	}
	if resp.View.Version != 2 {
		t.Errorf("version = %d, want 2", resp.View.Version)
	}
}

func TestAPI_HandleFilter_EmptyDimensionKeepsView(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewAPIHandlers(env.analytics, env.store, env.logger)

	sel := models.Selection{
		Regions:    []string{"West"},
		Categories: nil,
		Segments:   []string{"Consumer"},
	}
	w := env.serve(h.HandleFilter, httptest.NewRequest(http.MethodPost, "/api/filter", filterBody(t, sel)), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	resp := decode[FilterResponse](t, w)
	if resp.Applied {
		t.Error("empty selection should not be applied")
	}
	if resp.Notice == nil || resp.Notice.Message != models.EmptySelectionMessage {
		t.Fatalf("notice = %+v", resp.Notice)
	}
	if resp.View.Version != 1 || resp.View.Summary.Count != 4 {
		t.Errorf("view changed: version = %d, summary = %+v", resp.View.Version, resp.View.Summary)
	}
}

func TestAPI_HandleFilter_Errors(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewAPIHandlers(env.analytics, env.store, env.logger)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"regions":`},
		{"wrong type", `{"regions":"West"}`},
		{"unknown value", `{"regions":["North"],"categories":["Furniture"],"segments":["Consumer"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/filter", strings.NewReader(tt.body))
			w := env.serve(h.HandleFilter, r, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestAPI_SessionsAreIndependent(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewAPIHandlers(env.analytics, env.store, env.logger)

	first := env.serve(h.HandleView, httptest.NewRequest(http.MethodGet, "/api/view", nil), nil)
	cookie := sessionCookie(t, first)

	sel := models.Selection{Regions: []string{"East"}, Categories: []string{"Technology"}, Segments: []string{"Corporate"}}
	env.serve(h.HandleFilter, httptest.NewRequest(http.MethodPost, "/api/filter", filterBody(t, sel)), cookie)

	same := decode[ViewResponse](t, env.serve(h.HandleView, httptest.NewRequest(http.MethodGet, "/api/view", nil), cookie))
	if same.Summary.TotalSales != 300 {
		t.Errorf("filtered session total = %v, want 300", same.Summary.TotalSales)
	}

	other := decode[ViewResponse](t, env.serve(h.HandleView, httptest.NewRequest(http.MethodGet, "/api/view", nil), nil))
	if other.Summary.TotalSales != 650 {
		t.Errorf("new session total = %v, want 650", other.Summary.TotalSales)
	}
}

func TestAPI_NoSession(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewAPIHandlers(env.analytics, env.store, env.logger)

	w := httptest.NewRecorder()
	h.HandleView(w, httptest.NewRequest(http.MethodGet, "/api/view", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestAPI_HandleHealthAndStats(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewAPIHandlers(env.analytics, env.store, env.logger)

	w := httptest.NewRecorder()
	h.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	health := decode[map[string]string](t, w)
	if health["status"] != "healthy" {
		t.Errorf("status = %q", health["status"])
	}

	env.store.Create()
	w = httptest.NewRecorder()
	h.HandleStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	stats := decode[map[string]any](t, w)
	if stats["record_count"] != float64(len(testRows)) {
		t.Errorf("record_count = %v", stats["record_count"])
	}
	sessions, ok := stats["sessions"].(map[string]any)
	if !ok {
		t.Fatalf("sessions = %v", stats["sessions"])
	}
	if sessions["live"] != float64(1) {
		t.Errorf("live sessions = %v", sessions["live"])
	}
	if _, ok := sessions["oldest_created_at"]; !ok {
		t.Error("oldest_created_at should be reported")
	}
}

func assertSSEHeaders(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("content-type = %q, should contain 'text/event-stream'", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("cache-control = %q, want 'no-cache'", cc)
	}
}

func TestSSE_HandleView(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewSSEHandlers(env.analytics, env.logger)

	w := env.serve(h.HandleView, httptest.NewRequest(http.MethodGet, "/sse/view", nil), nil)
	assertSSEHeaders(t, w)

	body := w.Body.String()
	for _, want := range []string{"datastar-patch-elements", "datastar-patch-signals", `id="summary-cards"`, "650$", "salesBySubCategory"} {
		if !strings.Contains(body, want) {
			t.Errorf("body should contain %q", want)
		}
	}
}

func TestSSE_HandleFilter(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewSSEHandlers(env.analytics, env.logger)

	sel := models.Selection{Regions: []string{"East"}, Categories: []string{"Furniture"}, Segments: []string{"Consumer"}}
	w := env.serve(h.HandleFilter, httptest.NewRequest(http.MethodPost, "/sse/filter", filterBody(t, sel)), nil)
	assertSSEHeaders(t, w)

	body := w.Body.String()
	if !strings.Contains(body, "200$") {
		t.Errorf("body should carry the filtered total, got %s", body)
	}
	if !strings.Contains(body, "?v=2") {
		t.Error("charts should reference the new version")
	}
}

func TestSSE_HandleFilter_EmptySelection(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewSSEHandlers(env.analytics, env.logger)

	sel := models.Selection{Regions: []string{"East"}, Categories: []string{"Furniture"}}
	w := env.serve(h.HandleFilter, httptest.NewRequest(http.MethodPost, "/sse/filter", filterBody(t, sel)), nil)
	assertSSEHeaders(t, w)

	body := w.Body.String()
	if !strings.Contains(body, models.EmptySelectionMessage) {
		t.Errorf("body should contain the notice, got %s", body)
	}
	if strings.Contains(body, "datastar-patch-signals") {
		t.Error("views should not be patched for an empty selection")
	}
}

func TestSSE_HandleFilter_UnknownValue(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewSSEHandlers(env.analytics, env.logger)

	sel := models.Selection{Regions: []string{"North"}, Categories: []string{"Furniture"}, Segments: []string{"Consumer"}}
	w := env.serve(h.HandleFilter, httptest.NewRequest(http.MethodPost, "/sse/filter", filterBody(t, sel)), nil)
	assertSSEHeaders(t, w)

	if !strings.Contains(w.Body.String(), invalidSelectionMessage) {
		t.Error("body should contain the invalid selection notice")
	}
}

func TestSSE_HandleFilter_BadSignals(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewSSEHandlers(env.analytics, env.logger)

	r := httptest.NewRequest(http.MethodPost, "/sse/filter", strings.NewReader("{"))
	w := env.serve(h.HandleFilter, r, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCharts(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewChartHandlers(config.ChartsConfig{Width: 640, Height: 360}, env.logger)

	tests := []struct {
		name        string
		handler     http.HandlerFunc
		target      string
		status      int
		contentType string
	}{
		{"region svg", h.HandleSalesByRegion, "/charts/sales-by-region.svg", http.StatusOK, "image/svg+xml"},
		{"sub-category svg", h.HandleSalesBySubCategory, "/charts/sales-by-sub-category.svg?v=1", http.StatusOK, "image/svg+xml"},
		{"region png", h.HandleSalesByRegion, "/charts/sales-by-region.svg?format=png", http.StatusOK, "image/png"},
		{"bad format", h.HandleSalesByRegion, "/charts/sales-by-region.svg?format=gif", http.StatusBadRequest, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(tt.handler, httptest.NewRequest(http.MethodGet, tt.target, nil), nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}
			if w.Body.Len() == 0 {
				t.Error("empty body")
			}
		})
	}
}

func TestCharts_NoData(t *testing.T) {
	env := newTestEnv(nil)
	h := NewChartHandlers(config.ChartsConfig{Width: 640, Height: 360}, env.logger)

	w := env.serve(h.HandleSalesByRegion, httptest.NewRequest(http.MethodGet, "/charts/sales-by-region.svg", nil), nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestExport_HandleWorkbook(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewExportHandlers(env.logger)

	w := env.serve(h.HandleWorkbook, httptest.NewRequest(http.MethodGet, "/export.xlsx", nil), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, exportFilename) {
		t.Errorf("content-disposition = %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("workbook should be a zip archive")
	}
}

func TestPage_HandleDashboard(t *testing.T) {
	env := newTestEnv(testRows)
	h := NewPageHandlers(env.analytics, env.logger)

	w := env.serve(h.HandleDashboard, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("content-type = %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{pageTitle, "Total Sales", "Average Profit Ratio", `data-bind="regions"`, `value="West"`} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard should contain %q", want)
		}
	}
}
