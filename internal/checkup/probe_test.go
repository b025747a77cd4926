package checkup

import (
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

func listenerPort(t *testing.T, ln net.Listener) int {
	t.Helper()
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}
	return port
}

func TestTCPProbe_Success(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	ok, msg := TCPProbe(context.Background(), "127.0.0.1", listenerPort(t, ln), 2*time.Second)
	if !ok {
		t.Fatalf("expected success, got: %s", msg)
	}
	if !strings.Contains(msg, "successful") {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestTCPProbe_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := listenerPort(t, ln)
	ln.Close()

	ok, msg := TCPProbe(context.Background(), "127.0.0.1", port, 2*time.Second)
	if ok {
		t.Fatal("expected failure on closed port")
	}
	if !strings.Contains(msg, "refused") {
		t.Errorf("expected refusal classified, got: %q", msg)
	}
}

func TestTCPProbe_DNSFailure(t *testing.T) {
	ok, msg := TCPProbe(context.Background(), "nonexistent-host.invalid", 5432, 2*time.Second)
	if ok {
		t.Fatal("expected failure for unresolvable host")
	}
	if !strings.Contains(msg, "DNS resolution failed") {
		t.Errorf("expected DNS failure classified, got: %q", msg)
	}
}

func TestDNSProbe_Localhost(t *testing.T) {
	ok, addrs, msg := DNSProbe(context.Background(), "localhost")
	if !ok {
		t.Fatalf("expected localhost to resolve, got: %s", msg)
	}
	if len(addrs) == 0 {
		t.Error("expected at least one address")
	}
}

func TestSuiteFailed(t *testing.T) {
	s := Suite{System: "test"}
	s.add("a", true, "")
	if s.Failed() {
		t.Error("all-pass suite must not be failed")
	}
	s.add("b", false, "boom")
	if !s.Failed() {
		t.Error("suite with a failing record must be failed")
	}

	skipped := Suite{System: "test", Skipped: true}
	if skipped.Failed() {
		t.Error("skipped suite must never be failed")
	}
}

func TestShortID(t *testing.T) {
	id := shortID()
	if len(id) != 8 {
		t.Errorf("shortID length = %d, want 8", len(id))
	}
	if id == shortID() {
		t.Error("expected unique IDs")
	}
}
