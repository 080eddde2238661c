package server

import (
	"log/slog"
	"net/http"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/session"
)

type Server struct {
	analytics      *services.Analytics
	mux            *http.ServeMux
	logger         *slog.Logger
	withSession    middleware.Middleware
	apiHandlers    *handlers.APIHandlers
	sseHandlers    *handlers.SSEHandlers
	pageHandlers   *handlers.PageHandlers
	chartHandlers  *handlers.ChartHandlers
	exportHandlers *handlers.ExportHandlers
}

func NewServer(analytics *services.Analytics, store *session.Store, cfg *config.Config, logger *slog.Logger) *Server {
	s := &Server{
		analytics:      analytics,
		mux:            http.NewServeMux(),
		logger:         logger,
		withSession:    middleware.Session(store, cfg.Session),
		apiHandlers:    handlers.NewAPIHandlers(analytics, store, logger),
		sseHandlers:    handlers.NewSSEHandlers(analytics, logger),
		pageHandlers:   handlers.NewPageHandlers(analytics, logger),
		chartHandlers:  handlers.NewChartHandlers(cfg.Charts, logger),
		exportHandlers: handlers.NewExportHandlers(logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard
	s.session("GET /{$}", s.pageHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/options", s.apiHandlers.HandleOptions)
	s.session("GET /api/view", s.apiHandlers.HandleView)
	s.session("POST /api/filter", s.apiHandlers.HandleFilter)

	// Datastar SSE endpoints
	s.session("GET /sse/view", s.sseHandlers.HandleView)
	s.session("POST /sse/filter", s.sseHandlers.HandleFilter)

	// Charts and export of the session's current view
	s.session("GET /charts/sales-by-region.svg", s.chartHandlers.HandleSalesByRegion)
	s.session("GET /charts/sales-by-sub-category.svg", s.chartHandlers.HandleSalesBySubCategory)
	s.session("GET /export.xlsx", s.exportHandlers.HandleWorkbook)
}

func (s *Server) session(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.withSession(h))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
