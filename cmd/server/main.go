package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insights-agent/internal/di"
	"insights-agent/internal/infrastructure/config"
	"insights-agent/internal/infrastructure/env"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		debug      = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	envService := env.NewEnvService()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.Monday.Token == "" {
		cfg.Monday.Token = envService.Get("MONDAY_API_TOKEN")
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = envService.Get("OPENROUTER_API_KEY")
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = envService.GetDefault("OPENROUTER_MODEL_NAME", "openai/gpt-4o-mini")
	}
	if cfg.Boards.WorkOrdersID == 0 {
		cfg.Boards.WorkOrdersID = envService.GetInt64("WORK_ORDERS_BOARD_ID", 0)
	}
	if cfg.Boards.DealsID == 0 {
		cfg.Boards.DealsID = envService.GetInt64("DEALS_BOARD_ID", 0)
	}
	if addr := envService.Get("LISTEN_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}

	if cfg.Monday.Token == "" {
		log.Fatal("MONDAY_API_TOKEN is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.NewContainer(ctx, di.Options{Config: cfg, Debug: *debug, WithServer: true})
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer container.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- container.Server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			container.Logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		container.Logger.Info("Shutting down", "signal", sig.String())
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := container.Server.Shutdown(shutdownCtx); err != nil {
			container.Logger.Error("Shutdown error", "error", err)
		}
	}
}
