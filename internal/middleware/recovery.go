package middleware

import (
	"net/http"

	"rentdesk/internal/supervisor"

	"github.com/labstack/echo/v4"
)

// RetryHeader asks a faulted boundary on the request path to clear its fault
// and try again before handling this request.
const RetryHeader = "X-Boundary-Retry"

// Boundary wraps a tier of the route tree in a supervisor boundary. A panic
// anywhere under it trips only this boundary: requests to the rest of the
// tree keep being served by their own tiers. While tripped, every request
// under this tier gets the boundary's fallback payload with 503 until a
// caller sends the retry header.
//
// Handler errors returned the normal way (echo.HTTPError etc.) pass through
// untouched; only panics fault the tier.
func Boundary(b *supervisor.Boundary) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(RetryHeader) != "" {
				b.Retry()
			}

			var handlerErr error
			err := b.Do(func() error {
				handlerErr = next(c)
				return nil
			})
			if err != nil {
				// Faulted, either just now or on an earlier request.
				payload := b.Fallback()
				payload["retry_header"] = RetryHeader
				return c.JSON(http.StatusServiceUnavailable, payload)
			}
			return handlerErr
		}
	}
}
