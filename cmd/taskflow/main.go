package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/taskflow/config"
	"github.com/ncobase/taskflow/data"
	"github.com/ncobase/taskflow/handler"
	"github.com/ncobase/taskflow/middleware"
	"github.com/ncobase/taskflow/pkg/email"
	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/service"
	"github.com/ncobase/taskflow/storage"
	"github.com/ncobase/taskflow/websocket"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Init()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanup, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := data.New(cfg.Data, logger.StdLogger())
	if err != nil {
		return fmt.Errorf("failed to initialize data layer: %w", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Error(ctx, "failed to close data layer", "error", err)
		}
	}()

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	sender, err := email.SenderFromConfig(cfg.Email)
	if err != nil {
		return fmt.Errorf("failed to initialize email sender: %w", err)
	}
	if sender == nil {
		logger.Warn(ctx, "no email provider configured, outgoing mail disabled")
	}

	hub := websocket.NewHub(d.Redis(), cfg.Realtime.Channel, logger.StdLogger())
	go hub.Run(ctx)

	svc := service.New(cfg, d, store, sender, hub, logger.StdLogger())

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.Trace(), middleware.RequestLog(), gin.Recovery())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": hub.ClientCount()})
	})
	engine.Static(cfg.Storage.PublicPath, store.Folder())

	handler.New(svc, hub).RegisterRoutes(engine)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server listening", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
