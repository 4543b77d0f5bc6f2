package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/identity"
)

// IdentityFrom returns the identity JWTAuth stored on the context.  The
// boolean is false on routes that are not authenticated.
func IdentityFrom(c echo.Context) (identity.Identity, bool) {
	id, ok := c.Get(ctxIdentity).(identity.Identity)
	return id, ok
}

// userID returns the caller's id as a string for keys and log fields, or
// "anon" when the request carries no identity.
func userID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
