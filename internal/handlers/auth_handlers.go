package handlers

import (
	"log"
	"net/http"
	"time"

	"rentdesk/internal/caching"
	"rentdesk/internal/common"
	"rentdesk/internal/models"
	"rentdesk/internal/services"
	"rentdesk/internal/session"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles login, token refresh, and logout
type AuthHandlers struct {
	authService  services.AuthService
	sessionStore *session.Store
	cacheSvc     caching.CacheService
}

func NewAuthHandlers(authService services.AuthService, sessionStore *session.Store, cacheSvc caching.CacheService) *AuthHandlers {
	return &AuthHandlers{
		authService:  authService,
		sessionStore: sessionStore,
		cacheSvc:     cacheSvc,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// Login authenticates a user and returns a token pair. Attempts are rate
// limited per email to slow credential stuffing.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := common.ValidateRequiredString(req.Email, "email"); err != nil {
		return common.SendValidationError(c, "email", err.Error())
	}
	if err := common.ValidateRequiredString(req.Password, "password"); err != nil {
		return common.SendValidationError(c, "password", err.Error())
	}

	ctx := c.Request().Context()
	rateKey := "login:" + req.Email
	if limited, err := h.cacheSvc.IsRateLimited(ctx, rateKey, loginRateLimit, loginRateWindow); err == nil && limited {
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts")
	}

	tokens, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if rlErr := h.cacheSvc.IncrementRateLimit(ctx, rateKey, loginRateWindow); rlErr != nil {
			log.Printf("auth: failed to record login attempt: %v", rlErr)
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	h.sessionStore.Login(ctx, tokens.UserID, req.Email, "", tokens.Role)
	return c.JSON(http.StatusOK, tokens)
}

// Refresh exchanges a refresh token for a new token pair.
func (h *AuthHandlers) Refresh(c echo.Context) error {
	var req models.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return common.SendValidationError(c, "refresh_token", "refresh_token is required")
	}

	tokens, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}
	return c.JSON(http.StatusOK, tokens)
}

// Revoke invalidates an access or refresh token.
func (h *AuthHandlers) Revoke(c echo.Context) error {
	var req models.RevokeTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Token == "" {
		return common.SendValidationError(c, "token", "token is required")
	}

	if err := h.authService.RevokeToken(c.Request().Context(), req.Token, req.TokenTypeHint); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to revoke token")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "revoked"})
}

// Logout clears the server-side session record for the caller.
func (h *AuthHandlers) Logout(c echo.Context) error {
	h.sessionStore.Logout(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me returns the authenticated caller's identity from the request context.
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	role, _ := common.GetRoleFromContext(ctx)
	return c.JSON(http.StatusOK, map[string]string{
		"user_id": userID.String(),
		"role":    role,
	})
}
