package handlers

import (
	"net/http"
	"time"

	"rentdesk/internal/common"
	"rentdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// ReportHandlers serves management reports
type ReportHandlers struct {
	reportService services.ReportService
}

func NewReportHandlers(reportService services.ReportService) *ReportHandlers {
	return &ReportHandlers{reportService: reportService}
}

func (h *ReportHandlers) FleetUtilization(c echo.Context) error {
	report, err := h.reportService.FleetUtilization(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build fleet report")
	}
	return c.JSON(http.StatusOK, report)
}

func (h *ReportHandlers) Revenue(c echo.Context) error {
	fromStr := c.QueryParam("from")
	toStr := c.QueryParam("to")
	if err := common.ValidateDateFormat(fromStr, "from"); err != nil {
		return common.SendValidationError(c, "from", err.Error())
	}
	if err := common.ValidateDateFormat(toStr, "to"); err != nil {
		return common.SendValidationError(c, "to", err.Error())
	}

	// Default to the current month when no range is given.
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := now
	if fromStr != "" {
		from, _ = time.Parse("2006-01-02", fromStr)
	}
	if toStr != "" {
		to, _ = time.Parse("2006-01-02", toStr)
	}
	if err := common.ValidateDateRange(from, to); err != nil {
		return common.SendValidationError(c, "from", err.Error())
	}

	report, err := h.reportService.Revenue(c.Request().Context(), from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build revenue report")
	}
	return c.JSON(http.StatusOK, report)
}
