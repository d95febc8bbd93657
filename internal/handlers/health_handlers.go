package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"rentdesk/internal/caching"
	"rentdesk/internal/supervisor"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db         *pgxpool.Pool
	redisSvc   caching.CacheService
	boundaries []*supervisor.Boundary
}

// NewHealthHandlers creates a new health handlers instance. Boundaries are the
// fault-isolation tiers whose state the health endpoint reports.
func NewHealthHandlers(db *pgxpool.Pool, redisSvc caching.CacheService, boundaries ...*supervisor.Boundary) *HealthHandlers {
	return &HealthHandlers{
		db:         db,
		redisSvc:   redisSvc,
		boundaries: boundaries,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Services   map[string]string `json:"services"`
	Boundaries map[string]string `json:"boundaries"`
	Goroutines int               `json:"goroutines"`
}

// HealthCheck reports dependency connectivity and boundary states.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	health := &HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Services:   make(map[string]string),
		Boundaries: make(map[string]string),
		Goroutines: runtime.NumGoroutine(),
	}

	if err := h.checkDatabase(ctx); err != nil {
		health.Services["database"] = "unhealthy"
		health.Status = "degraded"
	} else {
		health.Services["database"] = "healthy"
	}

	if err := h.checkRedis(ctx); err != nil {
		health.Services["redis"] = "unhealthy"
		health.Status = "degraded"
	} else {
		health.Services["redis"] = "healthy"
	}

	for _, b := range h.boundaries {
		state := b.State()
		health.Boundaries[b.Scope()] = state.String()
		if state != supervisor.Healthy {
			health.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusPartialContent
	}
	return c.JSON(statusCode, health)
}

func (h *HealthHandlers) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	_, err := h.db.Exec(ctx, "SELECT 1")
	return err
}

func (h *HealthHandlers) checkRedis(ctx context.Context) error {
	if h.redisSvc == nil {
		return nil
	}
	return h.redisSvc.Client().Ping(ctx).Err()
}

// ReadinessCheck determines if the application is ready to serve traffic
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.checkDatabase(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "Database unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// LivenessCheck determines if the application is running (basic liveness probe)
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
