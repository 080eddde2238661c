package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/session"
)

// Test helper to create the full handler with test data
func newTestHandler() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

	a := services.NewAnalytics()
	a.SetData([]models.Row{
		{Region: "West", Category: "Furniture", Segment: "Consumer", SubCategory: "Chairs", Sales: 261.96, ProfitRatio: 0.16},
		{Region: "East", Category: "Technology", Segment: "Corporate", SubCategory: "Phones", Sales: 907.15, ProfitRatio: 0.08},
		{Region: "Central", Category: "Office Supplies", Segment: "Home Office", SubCategory: "Paper", Sales: 15.55, ProfitRatio: 0.35},
	})

	cfg := config.Default()
	cfg.Security.EnableRateLimit = false
	store := session.NewStore(a, session.StoreConfig{
		TTL:         cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxSessions,
	}, logger)

	return newHandler(cfg, a, store, middleware.NewRateLimiter(cfg.Security), logger)
}

// Integration tests for HTTP routes
func TestServer_Routes(t *testing.T) {
	handler := newTestHandler()

	tests := []struct {
		method         string
		path           string
		body           string
		expectedStatus int
		contentType    string
	}{
		{"GET", "/", "", http.StatusOK, "text/html"},
		{"GET", "/api/options", "", http.StatusOK, "application/json"},
		{"GET", "/api/view", "", http.StatusOK, "application/json"},
		{"POST", "/api/filter", `{"regions":["West"],"categories":["Furniture"],"segments":["Consumer"]}`, http.StatusOK, "application/json"},
		{"GET", "/health", "", http.StatusOK, "application/json"},
		{"GET", "/admin/stats", "", http.StatusOK, "application/json"},
		{"GET", "/sse/view", "", http.StatusOK, "text/event-stream"},
		{"POST", "/sse/filter", `{"regions":["East"],"categories":["Technology"],"segments":["Corporate"]}`, http.StatusOK, "text/event-stream"},
		{"GET", "/charts/sales-by-region.svg", "", http.StatusOK, "image/svg+xml"},
		{"GET", "/charts/sales-by-sub-category.svg?format=png", "", http.StatusOK, "image/png"},
		{"GET", "/export.xlsx", "", http.StatusOK, "spreadsheetml"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))

			handler.ServeHTTP(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			ct := w.Header().Get("Content-Type")
			if !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}

			if w.Header().Get("X-Request-ID") == "" {
				t.Error("missing request id header")
			}

			// Validate JSON responses
			if tt.contentType == "application/json" {
				var result any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}
		})
	}
}

// Session routes hand out a cookie; the stateless ones do not.
func TestServer_SessionCookie(t *testing.T) {
	handler := newTestHandler()

	tests := []struct {
		path       string
		wantCookie bool
	}{
		{"/", true},
		{"/api/view", true},
		{"/api/options", false},
		{"/health", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))

			got := strings.Contains(w.Header().Get("Set-Cookie"), "dashboard_session=")
			if got != tt.wantCookie {
				t.Errorf("set-cookie present = %v, want %v", got, tt.wantCookie)
			}
		})
	}
}

// The filter posted in one request shapes the views served later in the same session.
func TestServer_FilterThenView(t *testing.T) {
	handler := newTestHandler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}

	post := httptest.NewRequest("POST", "/api/filter", strings.NewReader(`{"regions":["East"],"categories":["Technology"],"segments":["Corporate"]}`))
	post.AddCookie(cookies[0])
	handler.ServeHTTP(httptest.NewRecorder(), post)

	get := httptest.NewRequest("GET", "/api/view", nil)
	get.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, get)

	var response struct {
		Data struct {
			Summary models.Summary `json:"summary"`
			Version uint64         `json:"version"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if response.Data.Summary.TotalSales != 907.15 {
		t.Errorf("total sales = %v, want 907.15", response.Data.Summary.TotalSales)
	}
	if response.Data.Version != 2 {
		t.Errorf("version = %d, want 2", response.Data.Version)
	}
}

// Test error handling for invalid methods and paths
func TestServer_ErrorHandling(t *testing.T) {
	handler := newTestHandler()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"POST", "/api/options", http.StatusMethodNotAllowed},
		{"GET", "/api/filter", http.StatusMethodNotAllowed},
		{"PUT", "/", http.StatusMethodNotAllowed},
		{"DELETE", "/health", http.StatusMethodNotAllowed},
		{"GET", "/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, tt.path, nil)

			handler.ServeHTTP(w, r)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}
