package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vbonduro/movequote/internal/service"
)

type Server struct {
	service        *service.QuoteService
	router         chi.Router
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewServer builds the JSON API. maxUploadMB bounds a multipart upload
// request; zero selects the default.
func NewServer(svc *service.QuoteService, logger *slog.Logger, maxUploadMB int64) *Server {
	if maxUploadMB <= 0 {
		maxUploadMB = defaultMaxUploadMB
	}
	s := &Server{
		service:        svc,
		router:         chi.NewRouter(),
		logger:         logger,
		maxUploadBytes: maxUploadMB << 20,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/job", s.handleGetJob)
	r.Put("/job", s.handleUpdateJob)
	r.Get("/inventory", s.handleGetInventory)

	r.Get("/rates", s.handleGetRates)
	r.Put("/rates", s.handleUpdateRates)
	r.Delete("/rates", s.handleResetRates)

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", s.handleCreateRoom)
		r.Route("/{roomID}", func(r chi.Router) {
			r.Get("/", s.handleGetRoom)
			r.Patch("/", s.handleUpdateRoom)
			r.Delete("/", s.handleDeleteRoom)
			r.Put("/overrides", s.handleSetOverrides)
			r.Post("/reaggregate", s.handleReaggregate)

			r.Post("/photos", s.handleUploadRoomPhotos)
			r.Get("/photos/{photoID}", s.handleGetPhoto)
			r.Delete("/photos/{photoID}", s.handleDeleteRoomPhoto)

			r.Post("/items", s.handleCreateItem)
			r.Patch("/items/{itemID}", s.handleUpdateItem)
			r.Delete("/items/{itemID}", s.handleDeleteItem)
			r.Put("/items/{itemID}/photo", s.handleSetItemPhoto)
			r.Delete("/items/{itemID}/photo", s.handleDeleteItemPhoto)
		})
	})

	r.Get("/estimate", s.handleEstimate)
	r.Get("/report", s.handleReportJSON)
	r.Get("/report.csv", s.handleReportCSV)
	r.Get("/report.txt", s.handleReportText)

	r.Post("/quotes", s.handleSaveQuote)
	r.Get("/quotes", s.handleListQuotes)
	r.Get("/quotes/{quoteID}", s.handleGetQuote)
	r.Delete("/quotes/{quoteID}", s.handleDeleteQuote)
}

// securityHeaders sets browser hardening headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.router)).ServeHTTP(w, r)
}

// HTTPServer returns an http.Server for addr with the standard timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	return s.HTTPServer(addr).ListenAndServe()
}
