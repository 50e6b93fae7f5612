// Package server provides the HTTP server for posturewatch.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ayusman/posturewatch/internal/app"
	"github.com/ayusman/posturewatch/internal/server/api"
	"github.com/ayusman/posturewatch/internal/store"
)

// DefaultInferenceTimeout bounds a single /process_frame classification.
const DefaultInferenceTimeout = 5 * time.Second

// Config holds the server configuration.
type Config struct {
	StaticDir string
	// App is the monitoring session. Without it only /api/health and static
	// files are served.
	App *app.App
	// Store enables the class label endpoints.
	Store            *store.Store
	InferenceTimeout time.Duration
	Logger           *zap.SugaredLogger
}

// Server represents the HTTP server for posturewatch.
type Server struct {
	config  Config
	mux     *http.ServeMux
	handler http.Handler
	hub     *Hub
	logger  *zap.SugaredLogger
	start   time.Time

	unsubscribe func()
	// base is the parent of every request context; Shutdown cancels it so
	// long-lived streams end.
	base   context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	http *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.InferenceTimeout <= 0 {
		config.InferenceTimeout = DefaultInferenceTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		logger: logger,
		start:  time.Now(),
	}
	s.base, s.cancel = context.WithCancel(context.Background())
	s.setupRoutes()
	s.handler = cors.AllowAll().Handler(s.mux)
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if a := s.config.App; a != nil {
		s.mux.Handle("/video_feed", NewStreamHandler(a, s.logger.Named("stream")))
		s.mux.HandleFunc("/metrics", s.handleMetrics)
		s.mux.HandleFunc("/start_camera", s.handleStartCamera)
		s.mux.HandleFunc("/stop_camera", s.handleStopCamera)
		s.mux.HandleFunc("/process_frame", s.handleProcessFrame)
		s.mux.Handle("/api/settings", api.NewSettingsHandler(a))

		s.hub = NewHub(func() any { return a.Metrics() }, s.logger.Named("ws"))
		s.unsubscribe = a.Subscribe(func(snap app.Snapshot) {
			s.hub.Broadcast(snap)
		})
		s.mux.Handle("/api/ws", s.hub)

		if s.config.Store != nil {
			labels := api.NewLabelsHandler(s.config.Store.Labels(), a.ReloadLabels)
			s.mux.Handle("/api/labels", labels)
			s.mux.Handle("/api/labels/", labels)
		}
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// ListenAndServe starts the HTTP server on the given address. It returns
// nil after Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.base },
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	s.logger.Infow("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, disconnects websocket clients and
// waits for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if s.hub != nil {
		s.hub.Close()
	}

	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}
