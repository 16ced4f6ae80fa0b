// Package api exposes the dispatcher to the host UI over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/local/stopoverdispatch/internal/appconfig"
	"github.com/local/stopoverdispatch/internal/dispatch"
	"github.com/local/stopoverdispatch/internal/metrics"
	"github.com/local/stopoverdispatch/internal/statuscheck"
)

// StatusReporter summarises the health of collaborators.
type StatusReporter interface {
	Summary(ctx context.Context) statuscheck.Summary
}

// Options wires the HTTP server.
type Options struct {
	Service        *dispatch.Service
	Config         *appconfig.Store
	Status         StatusReporter
	UploadDir      string
	MaxUploadMB    int64
	RequestTimeout time.Duration
}

// Server holds the handlers.
type Server struct {
	svc       *dispatch.Service
	cfg       *appconfig.Store
	status    StatusReporter
	uploadDir string
	maxUpload int64
	timeout   time.Duration
}

func New(opts Options) *Server {
	maxMB := opts.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 64
	}
	return &Server{
		svc:       opts.Service,
		cfg:       opts.Config,
		status:    opts.Status,
		uploadDir: opts.UploadDir,
		maxUpload: maxMB << 20,
		timeout:   opts.RequestTimeout,
	}
}

// Router builds the chi router with every route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	if s.timeout > 0 {
		r.Use(chimiddleware.Timeout(s.timeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/status", s.handleStatus)
	r.Handle("/metrics", metrics.Handler())

	r.Post("/analyze", s.handleAnalyze)
	r.Route("/jobs/{id}", func(r chi.Router) {
		r.Get("/", s.handleJob)
		r.Get("/drafts", s.handleDrafts)
		r.Get("/pages/{page}/preview", s.handlePreview)
		r.Post("/send", s.handleSend)
	})

	r.Get("/mappings", s.handleListMappings)
	r.Put("/mappings/{code}", s.handlePutMapping)
	r.Delete("/mappings/{code}", s.handleDeleteMapping)

	r.Get("/template", s.handleGetTemplate)
	r.Put("/template", s.handlePutTemplate)

	r.Get("/stopovers", s.handleGetStopovers)
	r.Put("/stopovers", s.handlePutStopovers)
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		writeJSON(w, http.StatusOK, statuscheck.Summary{})
		return
	}
	sum := s.status.Summary(r.Context())
	code := http.StatusOK
	if !sum.Healthy() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, sum)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
