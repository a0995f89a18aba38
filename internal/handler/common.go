package handler

import (
	"github.com/labstack/echo/v4"
)

// requesterID extracts the verified identity-provider subject the JWT
// middleware stored in the context.  It returns the empty string for
// guests so callers can distinguish authenticated requesters from
// anonymous ones.
func requesterID(c echo.Context) string {
	if v := c.Get("user_id"); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
