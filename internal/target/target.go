// Package target resolves connection parameters for managed services from
// the process environment.
package target

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ErrMalformedURL is wrapped by every parse failure in this package.
var ErrMalformedURL = errors.New("malformed connection URL")

// defaultPorts maps URL schemes to the port used when the URL omits one.
var defaultPorts = map[string]int{
	"postgresql":  5432,
	"postgres":    5432,
	"mysql":       3306,
	"mongodb":     27017,
	"mongodb+srv": 27017,
	"redis":       6379,
	"rediss":      6379,
}

// ConnectionTarget holds the parsed components of a connection URL.
// It is immutable once constructed and scoped to a single invocation.
type ConnectionTarget struct {
	Scheme   string
	Username string
	Password string
	Host     string
	Port     int
	Database string
	Params   map[string]string

	// Raw is the URL the target was parsed from, suitable for handing to
	// drivers that accept a full connection string.
	Raw string
}

// Addr returns host:port for dialing.
func (t *ConnectionTarget) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// TLS reports whether the scheme implies an encrypted transport.
func (t *ConnectionTarget) TLS() bool {
	switch t.Scheme {
	case "rediss", "https", "mongodb+srv":
		return true
	}
	return false
}

// ParseURL parses a connection string of the form
// scheme://[user[:pass]@]host[:port][/database][?k=v] into a ConnectionTarget.
// Percent-encoded credentials are decoded. Schemes listed in the default-port
// table get their port filled in when the URL omits one; unknown schemes leave
// Port zero and the caller must supply it. Repeated query keys keep the last
// occurrence.
func ParseURL(raw string) (*ConnectionTarget, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty string", ErrMalformedURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: missing scheme in %q", ErrMalformedURL, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrMalformedURL, raw)
	}

	t := &ConnectionTarget{
		Scheme: strings.ToLower(u.Scheme),
		Host:   u.Hostname(),
		Raw:    raw,
	}

	if u.User != nil {
		t.Username = u.User.Username()
		t.Password, _ = u.User.Password()
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("%w: invalid port %q", ErrMalformedURL, p)
		}
		t.Port = port
	} else {
		t.Port = defaultPorts[t.Scheme]
	}

	t.Database = strings.TrimPrefix(u.Path, "/")

	if u.RawQuery != "" {
		values, err := url.ParseQuery(u.RawQuery)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid query %q", ErrMalformedURL, u.RawQuery)
		}
		t.Params = make(map[string]string, len(values))
		for k, vs := range values {
			// Last occurrence wins.
			t.Params[k] = vs[len(vs)-1]
		}
	}

	return t, nil
}
