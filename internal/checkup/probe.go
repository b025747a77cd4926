package checkup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"time"
)

// TCPProbe attempts a raw connection to host:port within timeout and
// classifies the failure mode. The message distinguishes DNS failures,
// active refusals, and timeouts so the operator knows whether to look at
// naming, firewalls, or routing.
func TCPProbe(ctx context.Context, host string, port int, timeout time.Duration) (bool, string) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err == nil {
		conn.Close()
		return true, fmt.Sprintf("TCP connection to %s successful", addr)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return false, fmt.Sprintf("DNS resolution failed for %s: %v", host, dnsErr)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return false, fmt.Sprintf("TCP connection to %s refused", addr)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return false, fmt.Sprintf("TCP connection to %s timed out after %s", addr, timeout)
	}
	return false, fmt.Sprintf("TCP connection to %s failed: %v", addr, err)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// DNSProbe resolves hostname and returns the addresses found.
func DNSProbe(ctx context.Context, hostname string) (bool, []string, string) {
	addrs, err := net.DefaultResolver.LookupHost(ctx, hostname)
	if err != nil {
		return false, nil, fmt.Sprintf("DNS resolution failed for %s: %v", hostname, err)
	}
	return true, addrs, fmt.Sprintf("resolved %s: %v", hostname, addrs)
}
