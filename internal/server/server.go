// Package server implements the container liveness sidecar: two static
// endpoints that keep the platform health check green while an operator uses
// the diagnostic CLI.
package server

import (
	"encoding/json"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/hazz-dev/infracheck/internal/version"
)

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Container string `json:"container"`
	Runtime   string `json:"runtime,omitempty"`
}

// InfoResponse is the / payload: service metadata plus the static listing of
// diagnostic entry points shipped in the image.
type InfoResponse struct {
	Service     string            `json:"service"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Container   string            `json:"container"`
	Runtime     string            `json:"runtime"`
	Endpoints   map[string]string `json:"endpoints"`
	Commands    map[string]string `json:"commands"`
	Timestamp   string            `json:"timestamp"`
}

// Server holds the chi router and its dependencies.
type Server struct {
	router chi.Router
	logger *logrus.Logger
}

// New creates a new Server and registers all routes.
func New(logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		router: chi.NewRouter(),
		logger: logger,
	}
	s.registerRoutes()
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleInfo)
	r.Get("/health", s.handleHealth)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Container: ContainerType(),
		Runtime:   RuntimeType(),
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Service:     "infracheck",
		Description: "debug container for managed-infrastructure troubleshooting",
		Version:     version.Version,
		Container:   ContainerType(),
		Runtime:     RuntimeType(),
		Endpoints: map[string]string{
			"/":       "this info page",
			"/health": "health check endpoint",
		},
		Commands: map[string]string{
			"infracheck all":        "run every configured connectivity check",
			"infracheck network":    "external DNS/HTTPS/registry reachability",
			"infracheck database":   "PostgreSQL/MySQL/MongoDB validation",
			"infracheck cache":      "Redis/Valkey validation",
			"infracheck kafka":      "Kafka broker validation",
			"infracheck opensearch": "OpenSearch cluster validation",
			"infracheck spaces":     "object storage validation",
			"infracheck gradient":   "inference API validation",
			"infracheck env":        "environment variable audit",
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ContainerType reports the container flavor, overridable via
// DEBUG_CONTAINER_TYPE.
func ContainerType() string {
	if v := os.Getenv("DEBUG_CONTAINER_TYPE"); v != "" {
		return v
	}
	return "debug"
}

// RuntimeType reports which application runtime the image carries,
// overridable via DEBUG_RUNTIME.
func RuntimeType() string {
	if v := os.Getenv("DEBUG_RUNTIME"); v != "" {
		return v
	}
	if _, err := exec.LookPath("node"); err == nil {
		return "node"
	}
	if _, err := exec.LookPath("python3"); err == nil {
		return "python"
	}
	return "go"
}
