package socketio

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/rmurl"
	"github.com/zclconf/go-cty/cty"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	requestEvent  = "job.request"
	responseEvent = "job.response"
)

// client multiplexes request/response pairs over one socket.
type client struct {
	io      *socket.Socket
	emit    func(ev string, args ...any)
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]chan reply
	closed  bool
}

type reply struct {
	body cty.Value
	err  error
}

// baseURL maps sio to http and sios to https.
func baseURL(u *rmurl.URL) (string, error) {
	switch u.Scheme() {
	case "sio":
		return "http://" + u.Host(), nil
	case "sios":
		return "https://" + u.Host(), nil
	default:
		return "", fmt.Errorf("socketio: unsupported scheme %q", u.Scheme())
	}
}

// dial connects and waits for the handshake.
func dial(ctx context.Context, u *rmurl.URL, o options, logger *slog.Logger) (*client, error) {
	base, err := baseURL(u)
	if err != nil {
		return nil, err
	}
	if u.Host() == "" {
		return nil, fmt.Errorf("socketio: %s has no host", u)
	}

	opts := socket.DefaultOptions()
	if p := u.Path(); p != "" && p != "/" {
		opts.SetPath(p)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(base, opts)
	io := manager.Socket(o.Namespace, opts)
	c := newClient(io, logger, o.RequestTimeout)

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("EVENT HANDLER: 'connect_error' event fired", "error", err)
		connectChan <- err
	})
	io.On(types.EventName(responseEvent), c.deliver)

	logger.Debug("Initiating connection...")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(o.ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", o.ConnectTimeout)
	}
}

func newClient(io *socket.Socket, logger *slog.Logger, timeout time.Duration) *client {
	c := &client{io: io, logger: logger, timeout: timeout, pending: map[string]chan reply{}}
	if io != nil {
		c.emit = func(ev string, args ...any) { io.Emit(ev, args...) }
	}
	return c
}

// call emits one request and waits for its response.
func (c *client) call(ctx context.Context, op string, fields map[string]any) (cty.Value, error) {
	id := uuid.NewString()
	payload := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		payload[k] = v
	}
	payload["request_id"] = id
	payload["op"] = op

	ch := make(chan reply, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return cty.NilVal, errors.New("socketio: client is closed")
	}
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	c.logger.Debug("Emitting event", "event", requestEvent, "op", op, "request_id", id)
	c.emit(requestEvent, payload)

	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	select {
	case r := <-ch:
		return r.body, r.err
	case <-opCtx.Done():
		return cty.NilVal, fmt.Errorf("socketio: timed out waiting for %s response: %w", op, opCtx.Err())
	}
}

// deliver routes a response event to the waiting call.
func (c *client) deliver(data ...any) {
	if len(data) == 0 {
		c.logger.Warn("Ignoring empty response event")
		return
	}
	body, err := interfaceToCtyValue(data[0])
	if err != nil {
		c.logger.Warn("Failed to convert received data to cty.Value", "error", err)
		return
	}
	id := attrString(body, "request_id")
	if id == "" {
		c.logger.Warn("Ignoring response without request_id")
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[id]
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("Ignoring response for unknown request", "request_id", id)
		return
	}

	r := reply{body: body}
	if msg := attrString(body, "error"); msg != "" {
		r.err = fmt.Errorf("socketio: remote error: %s", msg)
		if attrString(body, "code") == "not_found" {
			r.err = fmt.Errorf("%w: %s", adaptor.ErrJobNotFound, msg)
		}
	}
	select {
	case ch <- r:
	default:
	}
}

// close disconnects the socket. Calls still pending run into their timeout.
func (c *client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	if c.io != nil {
		c.logger.Debug("Disconnecting socket client")
		c.io.Disconnect()
	}
}
