package middleware

import (
    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// subject identifies the caller for rate limit keys.  It prefers the
// user_id set by JWTAuth, falls back to the sub claim of a stored token and
// returns "anon" for unauthenticated requests.
func subject(c echo.Context) string {
    if s, ok := c.Get("user_id").(string); ok && s != "" {
        return s
    }
    if tok, ok := c.Get("user").(*jwt.Token); ok {
        if cl, ok := tok.Claims.(jwt.MapClaims); ok {
            if v, ok := cl["sub"].(string); ok && v != "" {
                return v
            }
        }
    }
    return "anon"
}
