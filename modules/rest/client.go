package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
)

type options struct {
	Timeout      time.Duration
	PollInterval time.Duration
	MaxIdleConns int
}

func parseOptions(state map[string]any) (options, error) {
	o := options{Timeout: 30 * time.Second, PollInterval: time.Second, MaxIdleConns: 10}
	for key, dst := range map[string]*time.Duration{"timeout": &o.Timeout, "poll_interval": &o.PollInterval} {
		v, ok := state[key]
		if !ok {
			continue
		}
		s, isString := v.(string)
		if !isString {
			return o, fmt.Errorf("rest: %s must be a duration string, got %T", key, v)
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return o, fmt.Errorf("rest: invalid %s: %w", key, err)
		}
		if d <= 0 {
			return o, fmt.Errorf("rest: %s must be positive", key)
		}
		*dst = d
	}
	if v, ok := state["max_idle_conns"]; ok {
		n, isInt := v.(int)
		if !isInt || n < 0 {
			return o, fmt.Errorf("rest: max_idle_conns must be a non-negative int, got %v", v)
		}
		o.MaxIdleConns = n
	}
	return o, nil
}

func newHTTPClient(o options) *http.Client {
	return &http.Client{
		Timeout: o.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        o.MaxIdleConns,
			MaxIdleConnsPerHost: o.MaxIdleConns,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// jobResponse is the body of every per-job answer.
type jobResponse struct {
	JobID    string `json:"job_id,omitempty"`
	State    string `json:"state,omitempty"`
	ExitCode *int   `json:"exit_code,omitempty"`
	Error    string `json:"error,omitempty"`
}

type listResponse struct {
	IDs []string `json:"ids"`
}

type client struct {
	http   *http.Client
	base   string
	logger *slog.Logger
}

// do sends one request and decodes a JSON answer into out.
func (c *client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("rest: failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	url := strings.TrimSuffix(c.base, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Making HTTP request", "method", method, "url", url)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	c.logger.Debug("Received HTTP response", "status", resp.Status)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		var e jobResponse
		_ = json.Unmarshal(raw, &e)
		msg := e.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", adaptor.ErrJobNotFound, msg)
		}
		return fmt.Errorf("rest: %s %s: %s: %s", method, path, resp.Status, msg)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("rest: invalid response from %s %s: %w", method, path, err)
	}
	return nil
}
