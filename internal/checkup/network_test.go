package checkup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCheckEgressIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("203.0.113.7\n"))
	}))
	defer srv.Close()

	old := egressIPEndpoints
	egressIPEndpoints = []string{srv.URL}
	defer func() { egressIPEndpoints = old }()

	r := NewNetworkRunner(testOpts())
	r.httpClient = srv.Client()
	ok, msg := r.checkEgressIP(context.Background())
	if !ok {
		t.Fatalf("expected success: %s", msg)
	}
	if !strings.Contains(msg, "203.0.113.7") {
		t.Errorf("expected IP in message, got %q", msg)
	}
}

func TestCheckEgressIP_FallsBackAcrossEndpoints(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an ip</html>"))
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("198.51.100.2"))
	}))
	defer good.Close()

	old := egressIPEndpoints
	egressIPEndpoints = []string{bad.URL, good.URL}
	defer func() { egressIPEndpoints = old }()

	r := NewNetworkRunner(testOpts())
	ok, msg := r.checkEgressIP(context.Background())
	if !ok {
		t.Fatalf("expected fallback to second endpoint: %s", msg)
	}
	if !strings.Contains(msg, "198.51.100.2") {
		t.Errorf("expected second endpoint's IP, got %q", msg)
	}
}

func TestCheckHTTPS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	old := httpsTests
	httpsTests = []struct{ url, name string }{{srv.URL, "test server"}}
	defer func() { httpsTests = old }()

	r := NewNetworkRunner(testOpts())
	ok, msg := r.checkHTTPS(context.Background())
	if !ok {
		t.Fatalf("expected success: %s", msg)
	}
}

func TestCheckDNS_FailureNamesHost(t *testing.T) {
	old := dnsTestHosts
	dnsTestHosts = []string{"nonexistent-host.invalid"}
	defer func() { dnsTestHosts = old }()

	r := NewNetworkRunner(testOpts())
	ok, msg := r.checkDNS(context.Background())
	if ok {
		t.Fatal("expected DNS failure")
	}
	if !strings.Contains(msg, "nonexistent-host.invalid") {
		t.Errorf("expected host named in failure, got %q", msg)
	}
}
