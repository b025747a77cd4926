package target

import (
	"context"
	"net"
	"os"
	"strings"
	"time"
)

// VPCDetector reports whether the process appears to be attached to a VPC
// network. Implementations are best-effort; detection failure means "no VPC".
type VPCDetector interface {
	InVPC() bool
}

// vpcRange is the private range managed platforms hand out for VPC interfaces.
// Any address in it is taken as a VPC signal, which can misfire on container
// networks that also use 10.x addressing; set VPC_ENABLED to override.
var vpcRange = func() *net.IPNet {
	_, n, _ := net.ParseCIDR("10.0.0.0/8")
	return n
}()

type detector struct {
	addrs   func() ([]net.Addr, error)
	lookup  func(ctx context.Context, host string) ([]net.IP, error)
	environ func() []string
}

// NewDetector returns the default VPCDetector, combining a local interface
// scan with DNS resolution of any private- prefixed hosts found in the
// environment's connection URLs.
func NewDetector() VPCDetector {
	return &detector{
		addrs: net.InterfaceAddrs,
		lookup: func(ctx context.Context, host string) ([]net.IP, error) {
			addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
			if err != nil {
				return nil, err
			}
			ips := make([]net.IP, 0, len(addrs))
			for _, a := range addrs {
				ips = append(ips, a.IP)
			}
			return ips, nil
		},
		environ: os.Environ,
	}
}

func (d *detector) InVPC() bool {
	// Explicit override wins over any probing.
	switch strings.ToLower(os.Getenv("VPC_ENABLED")) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}

	if d.scanInterfaces() {
		return true
	}
	return d.resolvePrivateHosts()
}

// scanInterfaces looks for a local IPv4 address in the VPC range.
func (d *detector) scanInterfaces() bool {
	addrs, err := d.addrs()
	if err != nil {
		return false
	}
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.To4() == nil {
			continue
		}
		if vpcRange.Contains(ip) {
			return true
		}
	}
	return false
}

// resolvePrivateHosts resolves any "private-" prefixed hostnames appearing in
// connection-URL environment variables and checks whether they land in the
// VPC range.
func (d *detector) resolvePrivateHosts() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, kv := range d.environ() {
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			continue
		}
		name, value := kv[:eq], kv[eq+1:]
		if !strings.Contains(name, "URL") && !strings.Contains(name, "URI") {
			continue
		}
		t, err := ParseURL(value)
		if err != nil || !strings.HasPrefix(t.Host, "private-") {
			continue
		}
		ips, err := d.lookup(ctx, t.Host)
		if err != nil {
			continue
		}
		for _, ip := range ips {
			if ip.To4() != nil && vpcRange.Contains(ip) {
				return true
			}
		}
	}
	return false
}
