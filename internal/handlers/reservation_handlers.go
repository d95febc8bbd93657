package handlers

import (
	"net/http"
	"time"

	"rentdesk/internal/common"
	"rentdesk/internal/models"
	"rentdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// ReservationHandlers serves the reservation lookup screen and reservation
// management endpoints.
type ReservationHandlers struct {
	reservationService services.ReservationService
	documentService    services.DocumentService
}

func NewReservationHandlers(reservationService services.ReservationService, documentService services.DocumentService) *ReservationHandlers {
	return &ReservationHandlers{
		reservationService: reservationService,
		documentService:    documentService,
	}
}

// Lookup handles the filtered, searched, paginated reservation listing.
func (h *ReservationHandlers) Lookup(c echo.Context) error {
	var params services.LookupParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	if err := common.ValidateDateFormat(params.StartDate, "start_date"); err != nil {
		return common.SendValidationError(c, "start_date", err.Error())
	}
	if err := common.ValidateDateFormat(params.EndDate, "end_date"); err != nil {
		return common.SendValidationError(c, "end_date", err.Error())
	}
	pageIndex, pageSize, err := common.ValidatePaginationParams(params.PageIndex, params.PageSize)
	if err != nil {
		return common.SendValidationError(c, "page_index", err.Error())
	}
	params.PageIndex = pageIndex
	params.PageSize = pageSize
	params.Search = common.SanitizeSearchQuery(params.Search)

	result, lookupErr := h.reservationService.Lookup(c.Request().Context(), params)
	if lookupErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load reservations")
	}
	return c.JSON(http.StatusOK, result)
}

// Get returns one reservation by confirmation number.
func (h *ReservationHandlers) Get(c echo.Context) error {
	confirmationNo := c.Param("confirmation_no")
	if err := common.ValidateRequiredString(confirmationNo, "confirmation_no"); err != nil {
		return common.SendValidationError(c, "confirmation_no", err.Error())
	}

	reservation, err := h.reservationService.GetByConfirmationNo(c.Request().Context(), confirmationNo)
	if err != nil {
		return common.SendNotFoundError(c, "Reservation")
	}
	return c.JSON(http.StatusOK, reservation)
}

// Create registers a new reservation.
func (h *ReservationHandlers) Create(c echo.Context) error {
	var reservation models.Reservation
	if err := c.Bind(&reservation); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := common.ValidateRequiredString(reservation.CustomerName, "customer_name"); err != nil {
		return common.SendValidationError(c, "customer_name", err.Error())
	}
	if err := common.ValidateRequiredString(reservation.PickupBranch, "pickup_branch"); err != nil {
		return common.SendValidationError(c, "pickup_branch", err.Error())
	}
	if reservation.Status != "" {
		if err := common.ValidateReservationStatus(reservation.Status); err != nil {
			return common.SendValidationError(c, "status", err.Error())
		}
	}

	if err := h.reservationService.Create(c.Request().Context(), &reservation); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create reservation")
	}
	return c.JSON(http.StatusCreated, reservation)
}

// Cancel cancels a pending or confirmed reservation.
func (h *ReservationHandlers) Cancel(c echo.Context) error {
	confirmationNo := c.Param("confirmation_no")
	if err := common.ValidateRequiredString(confirmationNo, "confirmation_no"); err != nil {
		return common.SendValidationError(c, "confirmation_no", err.Error())
	}

	if err := h.reservationService.Cancel(c.Request().Context(), confirmationNo); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}

// UploadAgreement stores a signed rental agreement for a reservation.
func (h *ReservationHandlers) UploadAgreement(c echo.Context) error {
	confirmationNo := c.Param("confirmation_no")
	if err := common.ValidateRequiredString(confirmationNo, "confirmation_no"); err != nil {
		return common.SendValidationError(c, "confirmation_no", err.Error())
	}

	file, err := c.FormFile("agreement")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "agreement file is required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read agreement file")
	}
	defer src.Close()

	objectName, err := h.documentService.UploadAgreement(c.Request().Context(), confirmationNo, src, file.Size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store agreement")
	}
	return c.JSON(http.StatusCreated, map[string]string{"object": objectName})
}

// AgreementURL returns a time-limited download link for a stored agreement.
func (h *ReservationHandlers) AgreementURL(c echo.Context) error {
	confirmationNo := c.Param("confirmation_no")
	if err := common.ValidateRequiredString(confirmationNo, "confirmation_no"); err != nil {
		return common.SendValidationError(c, "confirmation_no", err.Error())
	}

	url, err := h.documentService.AgreementURL(confirmationNo, 15*time.Minute)
	if err != nil {
		return common.SendNotFoundError(c, "Agreement")
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
