package middleware

import (
	"net/http"

	"rentdesk/internal/common"

	"github.com/labstack/echo/v4"
)

// Paths the API reports for redirect-style failures. Clients use these to
// route the user; the server never issues an HTTP redirect for API calls.
const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

// RoleGate guards route groups by role allow-list.
type RoleGate struct{}

func NewRoleGate() *RoleGate {
	return &RoleGate{}
}

// RequireRole allows the request through only when the authenticated caller
// holds one of the given roles. Unauthenticated callers get 401 with the
// login path plus the path they were trying to reach, so the client can come
// back after login. Authenticated callers with the wrong role get 403.
func (g *RoleGate) RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			role, ok := common.GetRoleFromContext(ctx)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error":       "Not authenticated",
					"redirect_to": LoginPath,
					"return_to":   c.Request().URL.Path,
				})
			}

			if !allowed[role] {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error":       "Insufficient role",
					"redirect_to": UnauthorizedPath,
				})
			}

			return next(c)
		}
	}
}
