package target

import (
	"errors"
	"os"
)

// ErrUnconfigured means no candidate environment variable was set for a
// subsystem. It is a skip signal, not a failure: callers must not count it
// against the run.
var ErrUnconfigured = errors.New("not configured")

// Resolver picks the connection URL a check should use, preferring private
// (VPC) variants only when a VPC interface is actually present. The VPC probe
// runs at most once per Resolver.
type Resolver struct {
	detector VPCDetector
	getenv   func(string) string

	probed bool
	inVPC  bool
}

// NewResolver returns a Resolver using the given detector. A nil detector
// falls back to the default interface/DNS probe.
func NewResolver(detector VPCDetector) *Resolver {
	if detector == nil {
		detector = NewDetector()
	}
	return &Resolver{detector: detector, getenv: os.Getenv}
}

// InVPC reports the memoized VPC detection result.
func (r *Resolver) InVPC() bool {
	if !r.probed {
		r.inVPC = r.detector.InVPC()
		r.probed = true
	}
	return r.inVPC
}

// Lookup returns the raw connection string for the public/private variable
// pair, or ErrUnconfigured when neither is set. privateVar may be empty for
// subsystems without a private variant.
func (r *Resolver) Lookup(publicVar, privateVar string) (string, error) {
	if privateVar != "" && r.InVPC() {
		if v := r.getenv(privateVar); v != "" {
			return v, nil
		}
	}
	if v := r.getenv(publicVar); v != "" {
		return v, nil
	}
	return "", ErrUnconfigured
}

// Resolve looks up the variable pair and parses the winner into a
// ConnectionTarget. Parse failures propagate as ErrMalformedURL.
func (r *Resolver) Resolve(publicVar, privateVar string) (*ConnectionTarget, error) {
	raw, err := r.Lookup(publicVar, privateVar)
	if err != nil {
		return nil, err
	}
	return ParseURL(raw)
}

// EnvPair names a public environment variable and its private (VPC) variant.
type EnvPair struct {
	Public  string
	Private string
}

// ResolveFirst walks the alias list in order and resolves the first pair with
// a value set. The winning variable name is returned for display. When no
// pair is configured it returns ErrUnconfigured.
func (r *Resolver) ResolveFirst(pairs []EnvPair) (*ConnectionTarget, string, error) {
	for _, p := range pairs {
		raw, err := r.Lookup(p.Public, p.Private)
		if errors.Is(err, ErrUnconfigured) {
			continue
		}
		t, err := ParseURL(raw)
		if err != nil {
			return nil, p.Public, err
		}
		return t, p.Public, nil
	}
	return nil, "", ErrUnconfigured
}
