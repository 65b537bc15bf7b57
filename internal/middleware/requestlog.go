package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

// RequestLogger assigns every request an id (kept from X-Request-ID when the
// client sends one) and logs one line per request once it completes.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            id := c.Request().Header.Get(echo.HeaderXRequestID)
            if id == "" {
                id = uuid.NewString()
            }
            c.Response().Header().Set(echo.HeaderXRequestID, id)

            err := next(c)
            if err != nil {
                // Let echo's error handler write the response so the status is final.
                c.Error(err)
            }

            entry := log.WithFields(logrus.Fields{
                "request_id": id,
                "method":     c.Request().Method,
                "path":       c.Request().URL.Path,
                "route":      c.Path(),
                "status":     c.Response().Status,
                "latency_ms": time.Since(start).Milliseconds(),
                "user_id":    userID(c),
            })
            switch status := c.Response().Status; {
            case status >= 500:
                entry.WithError(err).Error("request failed")
            case status >= 400:
                entry.Warn("request rejected")
            default:
                entry.Info("request served")
            }
            return nil
        }
    }
}
