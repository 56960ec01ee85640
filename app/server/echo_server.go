package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mahesh-hegde/qalam/app/common"
	"github.com/mahesh-hegde/qalam/app/config"
	"golang.org/x/time/rate"
)

type errorResponse struct {
	Error string `json:"error"`
}

func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprintf("%v", he.Message)
		}
	}

	var ue *common.UserVisibleError
	if errors.As(err, &ue) {
		code = ue.HttpCode
		msg = ue.Message
	}

	if !c.Response().Committed {
		if jsonErr := c.JSON(code, errorResponse{Error: msg}); jsonErr != nil {
			c.Logger().Error(jsonErr)
		}
	}
}

// NewServer builds the editor bridge with its middleware and routes.
func NewServer(controller *QalamController, serverConf config.ServerConfig, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = errorHandler
	e.HideBanner = true
	e.HidePort = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// configure rate limiting if enabled
	if serverConf.RateLimit > 0 {
		config := middleware.RateLimiterConfig{
			Skipper: middleware.DefaultSkipper,
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(serverConf.RateLimit),
					Burst:     3 * serverConf.RateLimit,
					ExpiresIn: 3 * time.Minute,
				},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.Request().RemoteAddr, nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return context.JSON(http.StatusForbidden, errorResponse{Error: "Forbidden"})
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				return context.JSON(http.StatusTooManyRequests, errorResponse{Error: "Too Many Requests"})
			},
		}
		e.Use(middleware.RateLimiterWithConfig(config))
	}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogError:    true,
		LogLatency:  true,
		HandleError: true, // forwards error to the global error handler, so it can decide appropriate status code
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				logger.LogAttrs(context.Background(), slog.LevelDebug, "REQUEST",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Int64("latency_ms", v.Latency.Milliseconds()),
				)
			} else {
				logger.LogAttrs(context.Background(), slog.LevelError, "REQUEST_ERROR",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.String("err", v.Error.Error()),
					slog.Int64("latency_ms", v.Latency.Milliseconds()),
				)
			}
			return nil
		},
	}))

	e.POST("/transliterate", controller.Transliterate)
	e.GET("/suggest", controller.Suggest)
	e.POST("/digest", controller.Digest)
	e.POST("/save", controller.Save)
	e.GET("/words", controller.MatchWords)
	e.POST("/grammar/analyze", controller.Analyze)
	e.GET("/grammar/annotations", controller.Annotations)
	e.GET("/grammar/solve", controller.Solve)
	e.POST("/grammar/upvote", controller.Upvote)
	e.GET("/spell", controller.Spell)
	e.POST("/exceptions", controller.AddException)
	e.GET("/stats", controller.Stats)
	return e
}

// StartServer serves e until ctx is cancelled, then shuts it down.
func StartServer(ctx context.Context, e *echo.Echo, serverConf config.ServerConfig) error {
	addr := fmt.Sprintf("%s:%d", serverConf.Addr, serverConf.Port)
	errc := make(chan error, 1)
	go func() {
		slog.Info("editor bridge listening", "addr", addr)
		errc <- e.Start(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
