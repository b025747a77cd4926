package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestServer() *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(logger)
}

func TestHealthEndpoint(t *testing.T) {
	t.Setenv("DEBUG_CONTAINER_TYPE", "debug")
	t.Setenv("DEBUG_RUNTIME", "node")

	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var body HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("expected status healthy, got %q", body.Status)
	}
	if body.Container != "debug" {
		t.Errorf("expected container debug, got %q", body.Container)
	}
	if body.Runtime != "node" {
		t.Errorf("expected runtime node, got %q", body.Runtime)
	}
	if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
		t.Errorf("timestamp not RFC3339: %q", body.Timestamp)
	}
}

func TestInfoEndpoint(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body InfoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Service != "infracheck" {
		t.Errorf("expected service infracheck, got %q", body.Service)
	}
	if _, ok := body.Endpoints["/health"]; !ok {
		t.Error("expected /health in endpoint listing")
	}
	if _, ok := body.Commands["infracheck all"]; !ok {
		t.Error("expected 'infracheck all' in command listing")
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestContainerTypeOverride(t *testing.T) {
	t.Setenv("DEBUG_CONTAINER_TYPE", "")
	if got := ContainerType(); got != "debug" {
		t.Errorf("expected default debug, got %q", got)
	}
	t.Setenv("DEBUG_CONTAINER_TYPE", "staging-debug")
	if got := ContainerType(); got != "staging-debug" {
		t.Errorf("expected override, got %q", got)
	}
}

func TestRuntimeTypeOverride(t *testing.T) {
	t.Setenv("DEBUG_RUNTIME", "python")
	if got := RuntimeType(); got != "python" {
		t.Errorf("expected override python, got %q", got)
	}
}
