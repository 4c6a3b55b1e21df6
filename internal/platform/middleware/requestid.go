package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestID returns middleware that assigns each request a unique identifier.
// An incoming X-Request-ID header is honored so that IDs can be traced across
// services; otherwise a new UUID is generated. The ID is stored on the echo
// context (read by the logger and recovery middleware) and echoed back on the
// response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}

			c.Set("request_id", rid)
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			return next(c)
		}
	}
}
