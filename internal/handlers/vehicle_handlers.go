package handlers

import (
	"net/http"

	"rentdesk/internal/common"
	"rentdesk/internal/models"
	"rentdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// VehicleHandlers handles fleet management HTTP requests
type VehicleHandlers struct {
	vehicleService services.VehicleService
}

func NewVehicleHandlers(vehicleService services.VehicleService) *VehicleHandlers {
	return &VehicleHandlers{vehicleService: vehicleService}
}

type ListVehiclesRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

func (h *VehicleHandlers) List(c echo.Context) error {
	var req ListVehiclesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if req.Limit > 200 {
		req.Limit = 200
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	vehicles, err := h.vehicleService.List(c.Request().Context(), req.Limit, req.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list vehicles")
	}
	return c.JSON(http.StatusOK, vehicles)
}

func (h *VehicleHandlers) ListAvailable(c echo.Context) error {
	branchCode := c.QueryParam("branch")
	class := c.QueryParam("class")
	if err := common.ValidateRequiredString(branchCode, "branch"); err != nil {
		return common.SendValidationError(c, "branch", err.Error())
	}

	vehicles, err := h.vehicleService.ListAvailable(c.Request().Context(), branchCode, class)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list available vehicles")
	}
	return c.JSON(http.StatusOK, vehicles)
}

func (h *VehicleHandlers) Get(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	vehicle, err := h.vehicleService.GetByID(c.Request().Context(), id)
	if err != nil {
		return common.SendNotFoundError(c, "Vehicle")
	}
	return c.JSON(http.StatusOK, vehicle)
}

func (h *VehicleHandlers) Create(c echo.Context) error {
	var vehicle models.Vehicle
	if err := c.Bind(&vehicle); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if err := h.vehicleService.Create(c.Request().Context(), &vehicle); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, vehicle)
}

func (h *VehicleHandlers) Update(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var vehicle models.Vehicle
	if err := c.Bind(&vehicle); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	vehicle.ID = id

	if err := h.vehicleService.Update(c.Request().Context(), &vehicle); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update vehicle")
	}
	return c.JSON(http.StatusOK, vehicle)
}

func (h *VehicleHandlers) Retire(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.vehicleService.Retire(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "retired"})
}
