// Package rmurl parses resource-manager URLs such as "fork://localhost" or
// "sio://scheduler.example.org:8080/jobs". The scheme selects the adaptor.
package rmurl

import (
	"fmt"
	"net/url"
	"strings"
)

// URL is an immutable, parsed resource-manager URL.
type URL struct {
	u *url.URL
}

// Parse parses raw. An empty string yields a URL without scheme, which only
// scheme-agnostic adaptors accept.
func Parse(raw string) (*URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &URL{u: &url.URL{}}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid resource manager URL %q: %w", raw, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	return &URL{u: u}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(raw string) *URL {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// Scheme returns the lower-cased scheme, empty when absent.
func (u *URL) Scheme() string { return u.u.Scheme }

// Host returns host or host:port.
func (u *URL) Host() string { return u.u.Host }

// Hostname returns the host without port.
func (u *URL) Hostname() string { return u.u.Hostname() }

// Port returns the port, empty when absent.
func (u *URL) Port() string { return u.u.Port() }

// Path returns the URL path.
func (u *URL) Path() string { return u.u.Path }

// Username returns the user component, empty when absent.
func (u *URL) Username() string { return u.u.User.Username() }

// Query returns a copy of the parsed query parameters.
func (u *URL) Query() url.Values { return u.u.Query() }

// IsZero reports whether the URL is empty.
func (u *URL) IsZero() bool { return u == nil || *u.u == url.URL{} }

// WithScheme returns a copy of u using scheme s.
func (u *URL) WithScheme(s string) *URL {
	c := *u.u
	c.Scheme = strings.ToLower(s)
	return &URL{u: &c}
}

// String returns the URL without its password.
func (u *URL) String() string {
	if u == nil {
		return ""
	}
	return u.u.Redacted()
}

// Std returns a copy of the underlying net/url value, password included.
func (u *URL) Std() *url.URL {
	c := *u.u
	if u.u.User != nil {
		user := *u.u.User
		c.User = &user
	}
	return &c
}
