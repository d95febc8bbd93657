package handlers

import (
	"net/http"

	"rentdesk/internal/supervisor"

	"github.com/labstack/echo/v4"
)

// BoundaryHandlers exposes the fault-isolation tiers for operators: inspect
// which tier tripped and clear it without restarting the process.
type BoundaryHandlers struct {
	boundaries map[string]*supervisor.Boundary
}

func NewBoundaryHandlers(boundaries ...*supervisor.Boundary) *BoundaryHandlers {
	m := make(map[string]*supervisor.Boundary, len(boundaries))
	for _, b := range boundaries {
		m[b.Scope()] = b
	}
	return &BoundaryHandlers{boundaries: m}
}

type boundaryStatus struct {
	Scope      string `json:"scope"`
	State      string `json:"state"`
	RetryCount int    `json:"retry_count"`
	LastFault  string `json:"last_fault,omitempty"`
}

// List reports the state of every boundary tier.
func (h *BoundaryHandlers) List(c echo.Context) error {
	statuses := make([]boundaryStatus, 0, len(h.boundaries))
	for _, b := range h.boundaries {
		s := boundaryStatus{
			Scope:      b.Scope(),
			State:      b.State().String(),
			RetryCount: b.RetryCount(),
		}
		if fault, ok := b.LastFault(); ok {
			s.LastFault = fault.Message
		}
		statuses = append(statuses, s)
	}
	return c.JSON(http.StatusOK, statuses)
}

// Retry clears the fault on one tier. Retrying a healthy tier is a no-op.
func (h *BoundaryHandlers) Retry(c echo.Context) error {
	scope := c.Param("scope")
	b, ok := h.boundaries[scope]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Unknown boundary scope")
	}
	b.Retry()
	return c.JSON(http.StatusOK, map[string]string{
		"scope": scope,
		"state": b.State().String(),
	})
}
