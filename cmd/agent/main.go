package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"insights-agent/internal/di"
	"insights-agent/internal/infrastructure/config"
	"insights-agent/internal/infrastructure/env"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		genReport  = flag.Bool("report", false, "generate a leadership report and exit")
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

	if cfg.Monday.Token == "" {
		log.Fatal("MONDAY_API_TOKEN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container, err := di.NewContainer(ctx, di.Options{Config: cfg, Debug: *debug})
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer container.Close()

	if *genReport {
		runReport(ctx, container)
		return
	}

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		fmt.Println("usage: agent [flags] <question>")
		fmt.Println("       agent --report")
		os.Exit(2)
	}

	result, err := container.Chat.Ask(ctx, "", question)
	if err != nil {
		container.Logger.Error("Question failed", "error", err)
		color.Red("error: %v", err)
		os.Exit(1)
	}

	color.Cyan("Q: %s\n", question)
	fmt.Println(result.Reply)
	if *debug {
		color.Yellow("\n[engine: %s, intents: %s]",
			result.Metadata.Engine, strings.Join(result.Metadata.Intents, ", "))
	}
}

func runReport(ctx context.Context, container *di.Container) {
	r, err := container.Reports.Generate(ctx)
	if err != nil {
		color.Red("report error: %v", err)
		os.Exit(1)
	}
	fmt.Println(r.Markdown)
	color.Green("\nreport %s stored (health %.0f/100, %s)", r.ID, r.HealthScore, r.Status)
}
