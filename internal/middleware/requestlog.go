package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// RequestLogger logs one line per request with zap.  Server errors are
// logged at error level.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }

            status := c.Response().Status
            fields := []zap.Field{
                zap.String("method", c.Request().Method),
                zap.String("path", c.Request().URL.Path),
                zap.String("route", c.Path()),
                zap.Int("status", status),
                zap.Duration("latency", time.Since(start)),
                zap.String("caller", callerKey(c)),
                zap.String("ip", c.RealIP()),
            }
            if status >= 500 {
                log.Error("request", fields...)
            } else {
                log.Info("request", fields...)
            }
            return nil
        }
    }
}
