package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Juliapixel/twitch-emote-api/internal/aggregator"
	"github.com/Juliapixel/twitch-emote-api/internal/config"
	"github.com/Juliapixel/twitch-emote-api/internal/logger"
	"github.com/Juliapixel/twitch-emote-api/internal/version"
	"github.com/Juliapixel/twitch-emote-api/internal/webserver"
	"go.uber.org/zap"
)

func main() {
	logger.Init(false)
	defer logger.Sync()

	logger.Info("starting twitch emote aggregation gateway", zap.String("version", version.String()))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if cfg.Debug {
		logger.Init(true)
		logger.Info("debug mode enabled")
	}

	manager, err := aggregator.New(cfg.ClientID, cfg.ClientSecret)
	if err != nil {
		logger.Fatal("failed to build emote manager", zap.Error(err))
	}

	if err := webserver.Start(cfg.Port, manager); err != nil {
		logger.Fatal("failed to start web server", zap.Error(err))
	}

	logger.Info("server started",
		zap.Int("port", cfg.Port),
		zap.String("url", fmt.Sprintf("http://localhost:%d/", cfg.Port)))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down...")
	webserver.Shutdown()
	logger.Info("shutdown complete")
}
