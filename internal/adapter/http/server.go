package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/mgrs-geocode-etl/internal/csvio"
	"github.com/couchcryptid/mgrs-geocode-etl/internal/domain"
	"github.com/couchcryptid/mgrs-geocode-etl/internal/pipeline"
)

const maxUploadBytes = 32 << 20

// Server exposes health, readiness, and metrics endpoints plus the MGRS
// conversion API.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	processor  *pipeline.Processor
	opts       pipeline.Options
	logger     *slog.Logger
}

// NewServer creates an HTTP server. opts configures POST /v1/convert; its
// Column can be overridden per request with the "column" query parameter.
func NewServer(addr string, ready sharedobs.ReadinessChecker, processor *pipeline.Processor, opts pipeline.Options, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		processor: processor,
		opts:      opts,
		logger:    logger,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", sharedobs.LivenessHandler())
	s.router.Get("/readyz", sharedobs.ReadinessHandler(ready))
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(20 * time.Second))
		r.Get("/mgrs/{ref}", s.handleConvertOne)
		r.Post("/convert", s.handleConvertCSV)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type pointResponse struct {
	MGRS            string  `json:"mgrs"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	PrecisionMeters float64 `json:"precision_m"`
}

func (s *Server) handleConvertOne(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}

	parsed, err := domain.Parse(ref)
	var pt domain.GeodeticPoint
	if err == nil {
		pt, err = parsed.Geodetic()
	}
	if err != nil {
		sharedobs.WriteJSON(w, conversionStatus(err), map[string]string{"error": err.Error()})
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, pointResponse{
		MGRS:            parsed.String(),
		Latitude:        pt.Latitude,
		Longitude:       pt.Longitude,
		PrecisionMeters: parsed.Precision(),
	})
}

func (s *Server) handleConvertCSV(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	src, err := csvio.NewReader(body, csvio.ReaderOptions{Encoding: r.URL.Query().Get("encoding")})
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	processor := s.processor
	if col := r.URL.Query().Get("column"); col != "" {
		opts := s.opts
		opts.Column = col
		processor = pipeline.NewProcessor(opts, s.logger, nil)
	}

	// Buffer the result so a late failure can still be reported with a status code.
	var buf bytes.Buffer
	dst := csvio.NewWriter(&buf)
	summary, err := processor.Process(r.Context(), src, dst)
	if err == nil {
		err = dst.Flush()
	}
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, pipeline.ErrNoMGRSColumn):
			status = http.StatusUnprocessableEntity
		case errors.As(err, &tooLarge):
			status = http.StatusRequestEntityTooLarge
		case r.Context().Err() != nil:
			status = http.StatusServiceUnavailable
		}
		s.logger.Warn("csv conversion failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("X-Run-ID", summary.RunID.String())
	h.Set("X-MGRS-Column", summary.Column)
	h.Set("X-Rows", strconv.Itoa(summary.Rows))
	h.Set("X-Converted", strconv.Itoa(summary.Converted))
	h.Set("X-Failed", strconv.Itoa(summary.Failed))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// conversionStatus maps a conversion error to an HTTP status.
func conversionStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRange):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
