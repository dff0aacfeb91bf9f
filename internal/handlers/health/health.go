// internal/handlers/health/health.go
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const checkTimeout = 2 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

// ServiceStatus is one entry of the detailed report.
type ServiceStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthHandler struct {
	checks map[string]Check
	ready  Check
	now    func() time.Time
	logger *zap.Logger
}

// NewHealthHandler reports on checks. ready decides readiness.
func NewHealthHandler(checks map[string]Check, ready Check, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		ready:  ready,
		now:    time.Now,
		logger: logger.Named("health"),
	}
}

// Health is the basic liveness-with-timestamp probe.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

// Detailed runs every dependency check. Any failure answers 503 "degraded".
func (h *HealthHandler) Detailed(c *gin.Context) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	services := make(map[string]ServiceStatus, len(names))
	healthy := true
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		err := h.checks[name](ctx)
		cancel()

		if err != nil {
			healthy = false
			h.logger.Warn("health check failed", zap.String("service", name), zap.Error(err))
			services[name] = ServiceStatus{Status: "error", Message: err.Error()}
			continue
		}
		services[name] = ServiceStatus{Status: "ok"}
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
		"services":  services,
	})
}

// Ready reports whether the service can take traffic.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	if err := h.ready(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

// Live always answers while the process is up.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alive": true})
}
