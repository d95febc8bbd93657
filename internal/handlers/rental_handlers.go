package handlers

import (
	"net/http"

	"rentdesk/internal/common"
	"rentdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// RentalHandlers drives the rent, return, and exchange counter operations.
type RentalHandlers struct {
	rentalService services.RentalService
}

func NewRentalHandlers(rentalService services.RentalService) *RentalHandlers {
	return &RentalHandlers{rentalService: rentalService}
}

type RentRequest struct {
	ConfirmationNo string `json:"confirmation_no"`
	VehicleID      string `json:"vehicle_id"`
}

func (h *RentalHandlers) Rent(c echo.Context) error {
	var req RentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := common.ValidateRequiredString(req.ConfirmationNo, "confirmation_no"); err != nil {
		return common.SendValidationError(c, "confirmation_no", err.Error())
	}
	vehicleID, err := common.ValidateUUID(req.VehicleID, "vehicle_id")
	if err != nil {
		return common.SendValidationError(c, "vehicle_id", err.Error())
	}

	reservation, err := h.rentalService.RentVehicle(c.Request().Context(), req.ConfirmationNo, vehicleID)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, reservation)
}

type ReturnRequest struct {
	ConfirmationNo string `json:"confirmation_no"`
	Odometer       int    `json:"odometer"`
	Notes          string `json:"notes"`
}

func (h *RentalHandlers) Return(c echo.Context) error {
	var req ReturnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := common.ValidateRequiredString(req.ConfirmationNo, "confirmation_no"); err != nil {
		return common.SendValidationError(c, "confirmation_no", err.Error())
	}

	summary, err := h.rentalService.ReturnVehicle(c.Request().Context(), req.ConfirmationNo, req.Odometer, req.Notes)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}

type ExchangeRequest struct {
	ConfirmationNo string `json:"confirmation_no"`
	NewVehicleID   string `json:"new_vehicle_id"`
	Reason         string `json:"reason"`
}

func (h *RentalHandlers) Exchange(c echo.Context) error {
	var req ExchangeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := common.ValidateRequiredString(req.ConfirmationNo, "confirmation_no"); err != nil {
		return common.SendValidationError(c, "confirmation_no", err.Error())
	}
	if err := common.ValidateRequiredString(req.Reason, "reason"); err != nil {
		return common.SendValidationError(c, "reason", err.Error())
	}
	newVehicleID, err := common.ValidateUUID(req.NewVehicleID, "new_vehicle_id")
	if err != nil {
		return common.SendValidationError(c, "new_vehicle_id", err.Error())
	}

	reservation, err := h.rentalService.ExchangeVehicle(c.Request().Context(), req.ConfirmationNo, newVehicleID, req.Reason)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, reservation)
}
