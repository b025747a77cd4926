package checkup

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// NetworkRunner validates general egress: external DNS, HTTPS, platform API
// and registry reachability, and VPC status. It needs no credentials and is
// never skipped.
type NetworkRunner struct {
	opts Options

	// httpClient overrides the default client in tests.
	httpClient *http.Client
}

func NewNetworkRunner(opts Options) *NetworkRunner {
	return &NetworkRunner{opts: opts}
}

func (r *NetworkRunner) System() string { return "network" }

func (r *NetworkRunner) client() *http.Client {
	if r.httpClient != nil {
		return r.httpClient
	}
	return &http.Client{Timeout: r.opts.Timeouts.Driver.Duration}
}

var (
	dnsTestHosts = []string{"google.com", "api.digitalocean.com", "registry.digitalocean.com"}
	httpsTests   = []struct{ url, name string }{
		{"https://api.digitalocean.com/v2/", "DigitalOcean API"},
		{"https://www.google.com/", "Google"},
	}
	egressIPEndpoints = []string{
		"https://api.ipify.org",
		"https://icanhazip.com",
		"https://ifconfig.me/ip",
	}
)

func (r *NetworkRunner) Run(ctx context.Context) Suite {
	suite := Suite{System: r.System()}
	rep := r.opts.reporter()

	inVPC := r.opts.Resolver.InVPC()
	if inVPC {
		rep.Info("VPC interface detected")
	} else {
		rep.Info("no VPC interface - using public network")
	}

	dctx, cancel := runCtx(ctx, r.opts.Timeouts.Driver)
	defer cancel()

	ok, msg := r.checkDNS(dctx)
	suite.add("DNS Resolution", ok, msg)
	rep.Check("DNS Resolution", ok, msg)

	ok, msg = r.checkHTTPS(dctx)
	suite.add("External HTTPS", ok, msg)
	rep.Check("External HTTPS", ok, msg)

	ok, msg = r.checkPlatformAPI(dctx)
	suite.add("DigitalOcean API", ok, msg)
	rep.Check("DigitalOcean API", ok, msg)

	ok, msg = r.checkRegistryTLS(ctx, "registry.digitalocean.com")
	suite.add("DO Container Registry", ok, msg)
	rep.Check("DO Container Registry", ok, msg)

	ok, msg = r.checkRegistryTLS(ctx, "ghcr.io")
	suite.add("GitHub Container Registry", ok, msg)
	rep.Check("GitHub Container Registry", ok, msg)

	// Metadata-service reachability only means anything inside a VPC, and
	// its absence there is still not a failure.
	if inVPC {
		reachable, _ := TCPProbe(ctx, "169.254.169.254", 80, r.opts.Timeouts.TCP.Duration)
		if reachable {
			suite.add("Internal Metadata", true, "metadata service reachable")
			rep.Check("Internal Metadata", true, "")
		} else {
			suite.add("Internal Metadata", true, "metadata service not available (may be normal)")
			rep.Check("Internal Metadata", true, "metadata service not available (may be normal)")
		}
	}

	if inVPC {
		suite.add("VPC Connectivity", true, "VPC interface present")
	} else {
		suite.add("VPC Connectivity", true, "no VPC interface (public network)")
	}
	rep.Check("VPC Connectivity", true, "")

	ok, msg = r.checkEgressIP(dctx)
	suite.add("Egress IP", ok, msg)
	rep.Check("Egress IP", ok, msg)

	return suite
}

func (r *NetworkRunner) checkDNS(ctx context.Context) (bool, string) {
	for _, host := range dnsTestHosts {
		if ok, _, msg := DNSProbe(ctx, host); !ok {
			return false, msg
		}
	}
	return true, fmt.Sprintf("DNS resolution working (tested: %s)", strings.Join(dnsTestHosts, ", "))
}

func (r *NetworkRunner) checkHTTPS(ctx context.Context) (bool, string) {
	for _, test := range httpsTests {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, test.url, nil)
		if err != nil {
			return false, err.Error()
		}
		resp, err := r.client().Do(req)
		if err != nil {
			return false, fmt.Sprintf("failed to connect to %s (%s): %v", test.name, test.url, err)
		}
		resp.Body.Close()
	}
	return true, "external HTTPS connectivity working"
}

// checkPlatformAPI treats auth-required statuses as proof of reachability.
func (r *NetworkRunner) checkPlatformAPI(ctx context.Context) (bool, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.digitalocean.com/v2/", nil)
	if err != nil {
		return false, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client().Do(req)
	if err != nil {
		return false, fmt.Sprintf("failed to reach DigitalOcean API: %v", err)
	}
	resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true, "DigitalOcean API reachable (auth required, as expected)"
	}
	return false, fmt.Sprintf("DigitalOcean API returned unexpected status %d", resp.StatusCode)
}

func (r *NetworkRunner) checkRegistryTLS(ctx context.Context, host string) (bool, string) {
	ok, msg := TCPProbe(ctx, host, 443, r.opts.Timeouts.TCP.Duration)
	if !ok {
		return false, msg
	}
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: r.opts.Timeouts.TCP.Duration},
		Config:    &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12},
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, "443"))
	if err != nil {
		return false, fmt.Sprintf("%s TLS handshake failed: %v", host, err)
	}
	conn.Close()
	return true, fmt.Sprintf("%s reachable (TLS verified)", host)
}

func (r *NetworkRunner) checkEgressIP(ctx context.Context) (bool, string) {
	for _, endpoint := range egressIPEndpoints {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			continue
		}
		req.Header.Set("User-Agent", "curl/8.0")
		resp, err := r.client().Do(req)
		if err != nil {
			continue
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64))
		resp.Body.Close()
		ip := strings.TrimSpace(string(body))
		if net.ParseIP(ip) != nil {
			return true, "egress IP: " + ip
		}
	}
	return false, "could not determine egress IP"
}
