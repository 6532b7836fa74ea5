package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leads-generator/worker/internal/config"
	"github.com/octobees/leads-generator/worker/internal/handler"
	middlewarepkg "github.com/octobees/leads-generator/worker/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Scrape *handler.ScrapeHandler
}

// Register wires all HTTP routes for the worker.
func Register(e *echo.Echo, cfg *config.Config, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/scrape", handlers.Scrape.Run, middlewarepkg.ScrapeRateLimiter(cfg.RateLimitScrape))
}
