package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gearledger/adapters/sqlitestore"
	"gearledger/discovery"
	"gearledger/handlers"
	"gearledger/service"

	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

const (
	clientStaleAfter = 10 * time.Second
	clientSweepEvery = 2 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync server and its LAN broadcaster",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(); err != nil {
			level.Error(logger).Log("msg", "server failed", "err", err)
			os.Exit(1)
		}
	},
}

func runServe() error {
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	level.Info(logger).Log(
		"msg", "configuration loaded",
		"http_port", config.HTTPPort,
		"name", config.Name,
		"db_path", config.DBPath,
	)

	store, err := sqlitestore.Open(context.Background(), config.DBPath, config.PoolSize, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	hub := service.NewHub(logger)
	syncService := service.NewSync(store, hub, nil, logger)

	roster := service.NewRoster(clientStaleAfter, clientSweepEvery, nil, logger)
	roster.Start()
	defer roster.Stop()

	var e *echo.Echo
	{
		e = echo.New()
		e.HideBanner = true
		service.RegisterErrorHandler(e, logger)
		handlers.NewHTTPServer(syncService, roster, config.Name, logger).Register(e)
	}

	broadcaster := discovery.NewBroadcaster(config.Name, config.HTTPPort, logger)
	if err := broadcaster.Start(); err != nil {
		return err
	}
	defer broadcaster.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf(":%d", config.HTTPPort)
		level.Info(logger).Log("msg", "starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			level.Error(logger).Log("msg", "HTTP server error", "err", err)
		}
	}()

	<-quit
	level.Info(logger).Log("msg", "shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		level.Error(logger).Log("msg", "error during server shutdown", "err", err)
	}

	level.Info(logger).Log("msg", "server stopped")
	return nil
}
