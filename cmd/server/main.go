package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hrfunc/hrfunc-site/internal/config"
	"github.com/hrfunc/hrfunc-site/internal/handlers"
	"github.com/hrfunc/hrfunc-site/internal/logging"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	// Local development convenience; a missing .env is not an error
	if err := godotenv.Load(); err == nil {
		logging.Debugf("loaded environment from .env")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}
	logging.SetDebug(cfg.Server.Debug)

	server := handlers.NewServer(cfg)

	// Start server in a goroutine
	go func() {
		logging.Infof("Starting server on port %s", cfg.Server.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Infof("Shutting down server...")
	if err := server.Shutdown(); err != nil {
		logging.Errorf("Server shutdown error: %v", err)
	}
	logging.Infof("Server stopped")
}
