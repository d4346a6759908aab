// Package server provides the HTTP server for facetrack.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/facetrack/internal/capture"
	"github.com/ayusman/facetrack/internal/logging"
	"github.com/ayusman/facetrack/internal/orientation"
	"github.com/ayusman/facetrack/internal/overlay"
	"github.com/ayusman/facetrack/internal/server/api"
	"github.com/ayusman/facetrack/internal/store"
	"github.com/ayusman/facetrack/internal/tracker"
)

// Config holds the server configuration. Nil collaborators leave their
// routes unregistered.
type Config struct {
	StaticDir   string
	Store       *store.Store
	Preview     *capture.Preview
	Latest      *overlay.Latest
	Hub         *OverlayHub
	Surface     *tracker.Surface
	Orientation *orientation.Tracker
	Validator   *validator.Validate
	Logger      logrus.FieldLogger

	// StreamFPS caps the MJPEG preview frame rate. JPEGQuality is 1..100.
	StreamFPS   float64
	JPEGQuality int
}

// Server represents the HTTP server for facetrack.
type Server struct {
	config     Config
	router     *chi.Mux
	httpServer *http.Server
	log        *logrus.Entry
	start      time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Validator == nil {
		config.Validator = validator.New(validator.WithRequiredStructEnabled())
	}

	s := &Server{
		config: config,
		router: chi.NewRouter(),
		log:    logging.Component(config.Logger, "server"),
		start:  time.Now(),
	}

	s.router.Use(chiMiddleware.RequestID)
	s.router.Use(chiMiddleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(chiMiddleware.Recoverer)

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		if s.config.Preview != nil {
			r.Method(http.MethodGet, "/stream", NewStreamHandler(s.config.Preview, s.config.StreamFPS, s.config.JPEGQuality))
		}

		if s.config.Latest != nil {
			r.Get("/overlay", api.NewOverlayHandler(s.config.Latest).Get)
		}
		if s.config.Hub != nil {
			r.Method(http.MethodGet, "/overlay/ws", s.config.Hub)
		}

		if s.config.Surface != nil {
			display := api.NewDisplayHandler(s.config.Surface, s.config.Store, s.config.Validator, s.log)
			r.Get("/display", display.Get)
			r.Put("/display", display.Put)
			r.Get("/display/videobox", display.VideoBox)
		}

		if s.config.Orientation != nil {
			orient := api.NewOrientationHandler(s.config.Orientation, s.config.Store, s.config.Validator, s.log)
			r.Get("/orientation", orient.Get)
			r.Put("/orientation", orient.Put)
		}

		if s.config.Store != nil {
			settings := api.NewSettingsHandler(s.config.Store, s.log)
			r.Get("/settings", settings.List)
			r.Delete("/settings/{key}", settings.Delete)
		}
	})

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router returns the chi router.
func (s *Server) Router() *chi.Mux {
	return s.router
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).Round(time.Second).String(),
	})
}

// ListenAndServe serves on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.log.WithField("addr", addr).Info("starting http server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server and disconnects websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.config.Hub != nil {
		s.config.Hub.Close()
	}
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// requestLogger logs each request with logrus.
func requestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start),
				"request_id": chiMiddleware.GetReqID(r.Context()),
			}).Debug("http request")
		})
	}
}
