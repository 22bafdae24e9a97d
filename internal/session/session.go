// Package session holds the security contexts a caller hands to adaptors.
// The engine never looks inside a Session; it is passed unchanged to adaptor
// constructors, which pick the contexts they understand.
package session

import (
	"errors"
	"log/slog"
	"os/user"
	"strings"
	"sync"
)

// ErrInvalidContext is returned when adding a context without a type.
var ErrInvalidContext = errors.New("session: context type must not be empty")

// Context is one set of credentials, e.g. "ssh", "UserPass" or "X509".
type Context struct {
	Type      string
	UserID    string
	UserPass  string
	UserCert  string
	UserProxy string
}

// LogValue implements slog.LogValuer and never prints secrets.
func (c Context) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", c.Type),
		slog.String("user_id", c.UserID),
		slog.Bool("has_pass", c.UserPass != ""),
		slog.String("user_cert", c.UserCert),
		slog.String("user_proxy", c.UserProxy),
	)
}

// Session is a concurrency-safe collection of security contexts.
type Session struct {
	mu       sync.RWMutex
	contexts []Context
}

// New returns a session without any context.
func New() *Session {
	return &Session{}
}

// Default returns a session populated with an "ssh" context for the current
// OS user. If the user cannot be determined the session is empty.
func Default() *Session {
	s := New()
	if u, err := user.Current(); err == nil {
		_ = s.AddContext(Context{Type: "ssh", UserID: u.Username})
	}
	return s
}

// AddContext appends c to the session.
func (s *Session) AddContext(c Context) error {
	if strings.TrimSpace(c.Type) == "" {
		return ErrInvalidContext
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts = append(s.contexts, c)
	return nil
}

// Contexts returns a copy of all contexts in insertion order.
func (s *Session) Contexts() []Context {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Context, len(s.contexts))
	copy(out, s.contexts)
	return out
}

// ContextsOfType returns the contexts whose type matches t case-insensitively.
func (s *Session) ContextsOfType(t string) []Context {
	var out []Context
	for _, c := range s.Contexts() {
		if strings.EqualFold(c.Type, t) {
			out = append(out, c)
		}
	}
	return out
}

// LogValue implements slog.LogValuer.
func (s *Session) LogValue() slog.Value {
	if s == nil {
		return slog.StringValue("<nil>")
	}
	types := make([]string, 0)
	for _, c := range s.Contexts() {
		types = append(types, c.Type)
	}
	return slog.GroupValue(
		slog.Int("contexts", len(types)),
		slog.String("types", strings.Join(types, ",")),
	)
}
