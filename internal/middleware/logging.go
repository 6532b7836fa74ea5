package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// Logging writes one line per request on completion. Scrape runs are
// long-lived and their responses carry whole result sets, so the line
// includes the response size and rounds latency to the millisecond.
func Logging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			rid, _ := c.Get(ContextKeyRequestID).(string)
			log.Printf("request_id=%s method=%s path=%s status=%d bytes_out=%d latency=%s",
				rid, c.Request().Method, c.Request().URL.Path, c.Response().Status,
				c.Response().Size, latency.Round(time.Millisecond))

			return err
		}
	}
}
