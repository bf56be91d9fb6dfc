// Package health exposes an HTTP endpoint reporting the state of the backing
// services the process depends on.
package health

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Koyo-os/questionnaire-service/pkg/logger"
	"go.uber.org/zap"
)

type (
	// Healther defines the interface that any component must implement
	// to participate in health checking. IsHealthy should return quickly.
	Healther interface {
		IsHealthy() bool
	}

	// HealtherFunc adapts a plain function to Healther
	HealtherFunc func() bool

	component struct {
		name     string
		healther Healther
	}

	// HealthChecker aggregates named components and reports overall health
	HealthChecker struct {
		logger     *logger.Logger
		mu         sync.RWMutex
		components []component
		routes     map[string]http.Handler
	}
)

func (f HealtherFunc) IsHealthy() bool { return f() }

// NewHealthChecker creates a checker without components
//
// Example:
//
//	checker := NewHealthChecker(log)
//	checker.Add("database", repo)
//	checker.Add("cache", casher)
func NewHealthChecker(logger *logger.Logger) *HealthChecker {
	return &HealthChecker{
		logger: logger,
	}
}

// Add registers a component under name
func (h *HealthChecker) Add(name string, healther Healther) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.components = append(h.components, component{name: name, healther: healther})
}

// Handle mounts an extra endpoint, such as /metrics, on the health server
func (h *HealthChecker) Handle(pattern string, handler http.Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.routes == nil {
		h.routes = make(map[string]http.Handler)
	}
	h.routes[pattern] = handler
}

// Failing returns the names of unhealthy components in registration order
func (h *HealthChecker) Failing() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var failed []string
	for _, c := range h.components {
		if !c.healther.IsHealthy() {
			failed = append(failed, c.name)
			h.logger.Error("health check failed", zap.String("component", c.name))
		}
	}
	return failed
}

// HealthCheck responds 200 "OK" when every component is healthy and 500
// "Not OK: <names>" otherwise. All components are checked on each request.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	failed := h.Failing()

	if len(failed) == 0 {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte("Not OK: " + strings.Join(failed, ", ")))
}

// Serve runs the health endpoint on port until ctx is done
func (h *HealthChecker) Serve(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.HealthCheck)

	h.mu.RLock()
	for pattern, handler := range h.routes {
		mux.Handle(pattern, handler)
	}
	h.mu.RUnlock()

	srv := &http.Server{
		Addr:              port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	h.logger.Info("starting health check server", zap.String("port", port))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		h.logger.Error("failed to start health check server", zap.Error(err))
		return err
	}
	return nil
}
