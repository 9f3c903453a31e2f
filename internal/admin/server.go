// Package admin serves the JSON API over the pipeline, store and analytics.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
	"threatwatch/internal/logging"
	"threatwatch/internal/pipeline"
	"threatwatch/internal/store"
)

// Server exposes the pipeline to HTTP callers.
type Server struct {
	pipeline *pipeline.Pipeline
	recorder *pipeline.Recorder
	store    store.Store
	reporter *pipeline.Reporter
	validate *validator.Validate
	now      func() time.Time

	frameLimit  int
	frameWindow time.Duration
	corsOrigins []string
}

// NewServer returns a Server. Frames posted to it are processed by p and
// recorded by rec.
func NewServer(p *pipeline.Pipeline, rec *pipeline.Recorder, st store.Store, rep *pipeline.Reporter) *Server {
	return &Server{
		pipeline: p,
		recorder: rec,
		store:    st,
		reporter: rep,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// WithFrameRateLimit caps POST /frames at n requests per window per client IP.
func (s *Server) WithFrameRateLimit(n int, window time.Duration) *Server {
	s.frameLimit, s.frameWindow = n, window
	return s
}

// WithCORS allows browser calls from the given origins.
func (s *Server) WithCORS(origins []string) *Server {
	s.corsOrigins = origins
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	if s.frameLimit > 0 && s.frameWindow > 0 {
		r.With(httprate.LimitByIP(s.frameLimit, s.frameWindow)).Post("/frames", s.handleFrame)
	} else {
		r.Post("/frames", s.handleFrame)
	}
	r.Get("/alerts", s.handleAlerts)
	r.Post("/alerts/{id}/status", s.handleAlertStatus)
	r.Get("/threat-level", s.handleThreatLevel)
	r.Get("/analytics/behavior", s.handleBehavior)
	return r
}

// Start serves on addr until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	log := logging.FromContext(ctx)
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info("admin API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type rawDetectionRequest struct {
	Label      string         `json:"label" validate:"required,max=64"`
	Confidence float64        `json:"confidence"`
	BBox       detection.BBox `json:"bbox"`
}

type frameRequest struct {
	SourceID   string                `json:"source_id" validate:"max=128"`
	Width      float64               `json:"width"`
	Height     float64               `json:"height"`
	Location   *detection.Location   `json:"location"`
	Timestamp  time.Time             `json:"ts"`
	Detections []rawDetectionRequest `json:"detections" validate:"max=500,dive"`
}

func (f frameRequest) frame() detection.Frame {
	out := detection.Frame{
		SourceID:   f.SourceID,
		Width:      f.Width,
		Height:     f.Height,
		Location:   f.Location,
		Timestamp:  f.Timestamp,
		Detections: make([]detection.RawDetection, 0, len(f.Detections)),
	}
	for _, d := range f.Detections {
		out.Detections = append(out.Detections, detection.RawDetection{Label: d.Label, Confidence: d.Confidence, BBox: d.BBox})
	}
	return out
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=new acknowledged investigating resolved false_alarm"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	var req frameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.pipeline.Process(req.frame())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if s.recorder != nil {
		if err := s.recorder.Record(r.Context(), res); err != nil {
			logging.FromContext(r.Context()).Error("record frame failed", "source_id", res.SourceID, "err", err)
			writeError(w, statusFor(err), err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.store.ListAlerts(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if q := r.URL.Query().Get("status"); q != "" {
		st, err := alert.ParseStatus(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filtered := alerts[:0]
		for _, a := range alerts {
			if a.Status == st {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}
	if alerts == nil {
		alerts = []alert.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleAlertStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ok, err := s.store.UpdateAlertStatus(r.Context(), id, alert.Status(req.Status))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}

func (s *Server) handleThreatLevel(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.store.ListAlerts(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	level := alert.CurrentLevel(alerts, s.now(), time.Hour)
	writeJSON(w, http.StatusOK, map[string]string{"level": string(level)})
}

func (s *Server) handleBehavior(w http.ResponseWriter, r *http.Request) {
	var window time.Duration
	if q := r.URL.Query().Get("window"); q != "" {
		d, err := time.ParseDuration(q)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "invalid window "+q)
			return
		}
		window = d
	}
	snap, err := s.reporter.Report(r.Context(), window)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// statusFor maps pipeline and store errors to HTTP status codes.
func statusFor(err error) int {
	var frameErr *detection.InvalidFrameError
	var confErr *detection.InvalidConfidenceError
	var storeErr *store.UnavailableError
	switch {
	case errors.As(err, &frameErr), errors.As(err, &confErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, alert.ErrInvalidTransition):
		return http.StatusConflict
	case errors.As(err, &storeErr):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
