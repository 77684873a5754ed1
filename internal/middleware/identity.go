package middleware

// identity.go holds the context keys set by JWTAuth and helpers that read
// them back for rate-limit and cache keys.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys populated by JWTAuth.
const (
	CtxUserID   = "user_id"   // uint64
	CtxRole     = "role"      // string
	CtxJTI      = "jti"       // string
	CtxTokenExp = "token_exp" // time.Time
	CtxUser     = "user"      // *model.User
)

// userKey renders the authenticated account id for use in keys, or
// fallback when the request is anonymous.
func userKey(c echo.Context, fallback string) string {
	switch v := c.Get(CtxUserID).(type) {
	case uint64:
		if v != 0 {
			return strconv.FormatUint(v, 10)
		}
	case string:
		if v != "" {
			return v
		}
	}
	return fallback
}
