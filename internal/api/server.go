// Package api provides the HTTP API server for MindfulTube.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mindfultube/mindfultube/internal/agent"
	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/logging"
	"github.com/mindfultube/mindfultube/internal/metrics"
	"github.com/mindfultube/mindfultube/internal/scheduler"
)

const maxMessageBytes = 1 << 20

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	// Components
	agent     *agent.Agent
	metrics   *metrics.Metrics
	scheduler *scheduler.Scheduler
	wsHub     *WebSocketHub

	log *logging.Logger
}

// Config for the server
type Config struct {
	Addr           string
	Agent          *agent.Agent
	Metrics        *metrics.Metrics     // Optional, serves /metrics when set
	Scheduler      *scheduler.Scheduler // Optional, serves /api/v1/maintenance when set
	AllowedOrigins []string         // Defaults to any origin
}

// New creates a new API server and registers its hub as the agent's
// interface notifier
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8750"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	hub := NewWebSocketHub()
	hub.metrics = cfg.Metrics

	s := &Server{
		agent:     cfg.Agent,
		metrics:   cfg.Metrics,
		scheduler: cfg.Scheduler,
		wsHub:     hub,
		log:       logging.Component("api"),
	}
	if s.agent != nil {
		s.agent.SetNotifier(hub)
	}

	s.setupRouter(cfg.AllowedOrigins)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// setupRouter configures all routes
func (s *Server) setupRouter(origins []string) {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// API routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger)
		r.Use(middleware.Timeout(30 * time.Second))

		r.Route("/api/v1", func(r chi.Router) {
			// Page layer messages
			r.Post("/messages", s.handleMessage)

			// Read-only views
			r.Get("/insights", s.handleGetInsights)
			r.Get("/usage", s.handleGetUsage)

			// Sessions
			r.Post("/session/start", s.handleStartSession)
			r.Post("/session/end", s.handleEndSession)

			// Privacy and consent
			r.Get("/privacy", s.handleGetPrivacy)
			r.Put("/privacy", s.handleUpdatePrivacy)
			r.Post("/consent", s.handleGrantConsent)
			r.Delete("/consent", s.handleRevokeConsent)

			// Agents
			r.Post("/agents/{name}/reset", s.handleResetAgent)

			// Maintenance tasks
			if s.scheduler != nil {
				r.Route("/maintenance", func(r chi.Router) {
					r.Get("/", s.handleListMaintenance)
					r.Get("/{id}", s.handleGetMaintenanceTask)
					r.Post("/{id}/run", s.handleRunMaintenanceTask)
					r.Post("/{id}/enable", s.handleEnableMaintenanceTask)
					r.Post("/{id}/disable", s.handleDisableMaintenanceTask)
				})
			}
		})

		r.Get("/health", s.handleHealth)
		if s.metrics != nil {
			r.Handle("/metrics", s.metrics.Handler())
		}
	})

	// WebSocket, outside the request timeout
	r.Get("/ws", s.wsHub.ServeHTTP)

	s.router = r
}

// Start starts the hub and the HTTP server
func (s *Server) Start() error {
	go s.wsHub.Run()

	s.log.Info("API server listening on http://%s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.wsHub.Stop()
	return s.httpServer.Shutdown(ctx)
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps sentinel errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownRequest),
		errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrMissingRequired):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnknownAgent),
		errors.Is(err, scheduler.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNoActiveVideo):
		return http.StatusConflict
	case errors.Is(err, core.ErrSessionBlocked):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// --- Handlers ---

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	req, err := agent.DecodeRequest(body)
	if err != nil {
		s.respondError(w, errorStatus(err), err.Error())
		return
	}

	resp, err := s.agent.Handle(r.Context(), req)
	if err != nil {
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.agent.Insights())
}

func (s *Server) handleGetUsage(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.agent.Usage())
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	start := s.agent.StartSession(r.Context())
	if !start.Allowed {
		s.respondJSON(w, errorStatus(core.ErrSessionBlocked), start)
		return
	}
	s.respondJSON(w, http.StatusOK, start)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	s.agent.EndSession(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

func (s *Server) handleGetPrivacy(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.agent.Settings().Privacy)
}

func (s *Server) handleUpdatePrivacy(w http.ResponseWriter, r *http.Request) {
	privacy := s.agent.Settings().Privacy
	if err := json.NewDecoder(r.Body).Decode(&privacy); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := s.agent.UpdatePrivacy(r.Context(), privacy); err != nil {
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, privacy)
}

func (s *Server) handleGrantConsent(w http.ResponseWriter, r *http.Request) {
	if err := s.agent.GrantConsent(r.Context()); err != nil {
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, s.agent.Settings().Consent)
}

func (s *Server) handleRevokeConsent(w http.ResponseWriter, r *http.Request) {
	if err := s.agent.RevokeConsent(r.Context()); err != nil {
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, s.agent.Settings().Consent)
}

func (s *Server) handleResetAgent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.agent.ResetAgent(r.Context(), name); err != nil {
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "reset", "agent": name})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]string{
		"status":  "ok",
		"session": s.agent.State().String(),
	}
	if s.scheduler != nil {
		health["scheduler"] = "stopped"
		if s.scheduler.GetStats().Started {
			health["scheduler"] = "running"
		}
	}
	s.respondJSON(w, http.StatusOK, health)
}

// MaintenanceStatus lists the scheduler state and its tasks
type MaintenanceStatus struct {
	Stats scheduler.Stats  `json:"stats"`
	Tasks []scheduler.Task `json:"tasks"`
}

func (s *Server) handleListMaintenance(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, MaintenanceStatus{
		Stats: s.scheduler.GetStats(),
		Tasks: s.scheduler.ListTasks(),
	})
}

func (s *Server) handleGetMaintenanceTask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.scheduler.GetTask(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, http.StatusNotFound, "Task not found")
		return
	}
	s.respondJSON(w, http.StatusOK, task)
}

// handleRunMaintenanceTask runs a task synchronously. A failed run still
// answers with the task so the caller sees its error count.
func (s *Server) handleRunMaintenanceTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.scheduler.RunNow(r.Context(), id); err != nil {
		if errors.Is(err, scheduler.ErrTaskNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.log.WithError(err).WithField("task", id).Warn("Manual maintenance run failed")
		task, _ := s.scheduler.GetTask(id)
		s.respondJSON(w, http.StatusInternalServerError, task)
		return
	}
	task, _ := s.scheduler.GetTask(id)
	s.respondJSON(w, http.StatusOK, task)
}

func (s *Server) handleEnableMaintenanceTask(w http.ResponseWriter, r *http.Request) {
	s.toggleMaintenanceTask(w, r, s.scheduler.Enable)
}

func (s *Server) handleDisableMaintenanceTask(w http.ResponseWriter, r *http.Request) {
	s.toggleMaintenanceTask(w, r, s.scheduler.Disable)
}

func (s *Server) toggleMaintenanceTask(w http.ResponseWriter, r *http.Request, toggle func(string) error) {
	id := chi.URLParam(r, "id")
	if err := toggle(id); err != nil {
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	task, _ := s.scheduler.GetTask(id)
	s.respondJSON(w, http.StatusOK, task)
}
