package handlers

import (
	"net/http"

	"rentdesk/internal/common"
	"rentdesk/internal/models"
	"rentdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// BranchHandlers manages rental locations
type BranchHandlers struct {
	branchRepo repositories.BranchRepository
}

func NewBranchHandlers(branchRepo repositories.BranchRepository) *BranchHandlers {
	return &BranchHandlers{branchRepo: branchRepo}
}

// List returns every branch; the lookup screen uses it to populate the
// pickup-location filter dropdown.
func (h *BranchHandlers) List(c echo.Context) error {
	branches, err := h.branchRepo.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list branches")
	}
	return c.JSON(http.StatusOK, branches)
}

func (h *BranchHandlers) Get(c echo.Context) error {
	code := c.Param("code")
	if err := common.ValidateRequiredString(code, "code"); err != nil {
		return common.SendValidationError(c, "code", err.Error())
	}

	branch, err := h.branchRepo.GetByCode(c.Request().Context(), code)
	if err != nil {
		return common.SendNotFoundError(c, "Branch")
	}
	return c.JSON(http.StatusOK, branch)
}

func (h *BranchHandlers) Create(c echo.Context) error {
	var branch models.Branch
	if err := c.Bind(&branch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := common.ValidateRequiredString(branch.Code, "code"); err != nil {
		return common.SendValidationError(c, "code", err.Error())
	}
	if err := common.ValidateRequiredString(branch.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}
	if branch.ID == uuid.Nil {
		branch.ID = uuid.New()
	}
	if branch.Status == "" {
		branch.Status = "active"
	}

	if err := h.branchRepo.Create(c.Request().Context(), &branch); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create branch")
	}
	return c.JSON(http.StatusCreated, branch)
}
