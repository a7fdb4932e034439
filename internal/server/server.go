package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/docsage/docsage/config"
	"github.com/docsage/docsage/internal/rag"
	"github.com/docsage/docsage/provider"
	"github.com/docsage/docsage/session/inmemory"
	"github.com/docsage/docsage/tools/extract"
)

// Run wires the full service together and serves it. Dependencies are built
// once here (top-level DI) and injected into the handlers; nothing is
// reached through ambient globals.
func Run(cfg *config.Config) error {
	prov, err := provider.NewProvider(cfg.Provider)
	if err != nil {
		return fmt.Errorf("initializing provider: %w", err)
	}
	extractor := extract.NewService(cfg.Extractor.URL, cfg.Extractor.Timeout)
	store := inmemory.NewStore()

	ragLogger := log.New(log.Writer(), "[RAG] ", log.LstdFlags)
	svc := rag.NewService(store, prov, extractor,
		cfg.Chunking.Size, cfg.Chunking.Overlap, cfg.Session.Timeout, ragLogger)

	h := &Handler{
		Pipeline:  svc,
		UploadDir: cfg.Upload.Dir,
		Logger:    log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
	}

	e := newEcho(h, cfg.RateLimit)
	log.Printf("listening on %s", cfg.Server.Address)
	return e.Start(cfg.Server.Address)
}

// newEcho builds the echo instance with middleware and routes. Split from Run
// so handler tests can exercise the wiring without real model backends.
func newEcho(h *Handler, rl config.RateLimitConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, ErrorResponse{Error: msg})
		}
	}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, StatusResponse{Status: "healthy"})
	})
	e.GET("/readyz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, StatusResponse{Status: "ready"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/upload", h.upload, rateLimiter(rl.Upload, rl.Window))
	e.POST("/ask", h.ask, rateLimiter(rl.Ask, rl.Window))
	e.POST("/summarize", h.summarize, rateLimiter(rl.Summarize, rl.Window))
	e.POST("/compare", h.compare, rateLimiter(rl.Compare, rl.Window))

	return e
}

// rateLimiter allows limit requests per client IP within window. Exceeding
// the budget yields the uniform 200-status error payload, consistent with
// the rest of the API's failure surface.
func rateLimiter(limit int, window time.Duration) echo.MiddlewareFunc {
	if limit <= 0 || window <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(limit) / window.Seconds()),
		Burst:     limit,
		ExpiresIn: window,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusOK, ErrorResponse{Error: "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusOK, ErrorResponse{Error: "rate limit exceeded"})
		},
	})
}
