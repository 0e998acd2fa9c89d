package middleware

// identity.go defines helpers for reading the authenticated identity that
// JWTAuth stored in the Echo context. JWT numeric claims decode as
// float64, and some issuers encode the subject as a string, so UserID
// normalizes both forms to a uint64.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID extracts the authenticated user's ID from context. The second
// return value is false when no valid identity is present.
func UserID(c echo.Context) (uint64, bool) {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v), true
	case uint64:
		return v, true
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// Role extracts the authenticated user's role from context, or "" when
// unauthenticated.
func Role(c echo.Context) string {
	if s, ok := c.Get("role").(string); ok {
		return s
	}
	return ""
}
