package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/sporttracker-backend-go/internal/api"
	"github.com/jengzang/sporttracker-backend-go/internal/config"
	"github.com/jengzang/sporttracker-backend-go/internal/handler"
	"github.com/jengzang/sporttracker-backend-go/internal/middleware"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
	"github.com/jengzang/sporttracker-backend-go/pkg/telemetry"
)

// Router builds the HTTP handler of a. The returned limiter must be stopped.
func (a *App) Router(cfg *config.Config, l logger.Logger) (*gin.Engine, *middleware.RateLimiter) {
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)

	router := api.SetupRouter(api.Dependencies{
		Workouts:     handler.NewWorkoutHandler(a.Workouts, a.Tiles, cfg.HTTP.MaxUploadBytes, l),
		Tiles:        handler.NewTileHandler(a.Tiles, a.Workouts, l),
		PlannedTours: handler.NewPlannedTourHandler(a.PlannedTours, cfg.HTTP.MaxUploadBytes, l),
		RateLimiter:  limiter,
		JWTSecret:    []byte(cfg.JWTSecret),
		Logger:       l,
	})

	return router, limiter
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM
func Run() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l := logger.NewZapLogger(cfg.Logger.Level)
	defer l.Sync()

	l.Info("starting sport tracker server", "port", cfg.HTTP.Port, "base_zoom", cfg.Tile.BaseZoom)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
	}

	a, err := New(cfg, l)
	if err != nil {
		l.Fatal("failed to initialize application", "error", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			l.Error("failed to close application", "error", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router, limiter := a.Router(cfg, l)
	defer limiter.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		l.Info("starting http server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		l.Error("server forced to shutdown", "error", err)
		return
	}

	l.Info("server stopped")
}
