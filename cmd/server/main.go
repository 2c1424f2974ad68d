package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nantokaworks/spinwheel/internal/env"
	"github.com/nantokaworks/spinwheel/internal/localdb"
	"github.com/nantokaworks/spinwheel/internal/settings"
	"github.com/nantokaworks/spinwheel/internal/shared/logger"
	"github.com/nantokaworks/spinwheel/internal/show"
	"github.com/nantokaworks/spinwheel/internal/twitchchat"
	"github.com/nantokaworks/spinwheel/internal/version"
	"github.com/nantokaworks/spinwheel/internal/webserver"
	"github.com/nantokaworks/spinwheel/internal/winnerhub"
	"go.uber.org/zap"
)

func main() {
	logger.Init(false)
	defer logger.Sync()

	logger.Info("Starting spinwheel server", zap.String("version", version.String()))

	if err := env.LoadEnv(); err != nil {
		logger.Fatal("Failed to load environment", zap.Error(err))
	}
	if env.Value.DebugMode {
		logger.Init(true)
		logger.Info("Debug mode enabled")
	}

	if err := os.MkdirAll(filepath.Dir(env.Value.DBPath), 0o755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}
	if _, err := localdb.SetupDB(env.Value.DBPath); err != nil {
		logger.Fatal("Failed to setup database", zap.Error(err))
	}

	settingsManager := settings.NewSettingsManager(localdb.GetDB())
	spinEnabled := settingsManager.GetBool("SPIN_ENABLED", true)

	hub := winnerhub.NewHub()
	manager := show.NewManager(hub, spinEnabled)

	webserver.SetShowManager(manager)
	webserver.SetWinnerFeed(hub)
	twitchchat.SetShowManager(manager)

	port := env.Value.ServerPort
	if port == 0 {
		port = 3001
	}

	if err := webserver.StartWebServer(port); err != nil {
		logger.Fatal("Failed to start web server", zap.Error(err))
	}

	tokenRefreshDone := make(chan struct{})
	startTwitchBackground(tokenRefreshDone)

	logger.Info("Server started",
		zap.Int("port", port),
		zap.Bool("spin_enabled", spinEnabled),
		zap.String("session_id", manager.CurrentSession().ID),
		zap.String("api", fmt.Sprintf("http://localhost:%d/api/", port)))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")

	close(tokenRefreshDone)
	twitchchat.Stop()
	webserver.Shutdown()

	logger.Info("Shutdown complete")
}
