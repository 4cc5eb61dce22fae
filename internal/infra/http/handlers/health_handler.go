package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	Checks    map[string]HealthCheck
	Info      map[string]string
	Version   string
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		Checks:    make(map[string]HealthCheck),
		Info:      make(map[string]string),
		Version:   version,
		StartTime: time.Now(),
	}
}

// AddCheck registers a dependency probed on every request.
func (h *HealthHandler) AddCheck(name string, check HealthCheck) {
	h.Checks[name] = check
}

// SetInfo records a dependency that is reported but not probed, such as "configured".
func (h *HealthHandler) SetInfo(name, value string) {
	h.Info[name] = value
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	deps := make(map[string]string, len(h.Checks)+len(h.Info))
	for name, value := range h.Info {
		deps[name] = value
	}

	status := "ok"
	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.Checks[name](ctx); err != nil {
			deps[name] = fmt.Sprintf("unhealthy: %v", err)
			status = "degraded"
		} else {
			deps[name] = "healthy"
		}
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	})
}
