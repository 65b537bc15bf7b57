package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// userID returns the authenticated user id as a key component, or "anon"
// when the request carries no verified token.
func userID(c echo.Context) string {
    if id, ok := c.Get(CtxUserID).(uint64); ok && id != 0 {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
