package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
)

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

type adaptorInfo struct {
	Name    string         `json:"name"`
	Kinds   []adaptor.Kind `json:"kinds"`
	Schemes []string       `json:"schemes"`
	Modes   string         `json:"modes"`
}

func (a *App) adaptorInfos() []adaptorInfo {
	entries := a.engine.Registry().Entries()
	out := make([]adaptorInfo, 0, len(entries))
	for _, e := range entries {
		d := e.Descriptor
		out = append(out, adaptorInfo{Name: d.Name, Kinds: d.Kinds, Schemes: d.Schemes, Modes: d.Modes.String()})
	}
	return out
}

// adaptorsHandler lists the registry in registration order.
func (a *App) adaptorsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a.adaptorInfos()); err != nil {
		a.logger.Error("Failed to encode adaptor list", "error", err)
	}
}

func (a *App) healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/adaptors", a.adaptorsHandler)
	return mux
}

// startHealthcheckServer binds the port before returning so that a busy port
// is reported to the caller.
func (a *App) startHealthcheckServer(port int) error {
	a.logger.Debug("Configuring health check server.")
	addr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("health check server: %w", err)
	}
	a.httpServer = &http.Server{Handler: a.healthMux(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closeHealthcheckServer(ctx context.Context) error {
	if a.httpServer == nil {
		a.logger.Debug("Health check server was not running.")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down health check server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Health check server shutdown failed", "error", err)
		return err
	}
	a.httpServer = nil
	return nil
}
