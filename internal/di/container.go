package di

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"insights-agent/internal/adapter/tool"
	"insights-agent/internal/application/port/input"
	"insights-agent/internal/application/port/output"
	"insights-agent/internal/application/service"
	"insights-agent/internal/dataset"
	"insights-agent/internal/infrastructure/config"
	"insights-agent/internal/infrastructure/httpserver"
	"insights-agent/internal/infrastructure/llm/openrouter"
	"insights-agent/internal/infrastructure/logger"
	"insights-agent/internal/infrastructure/monday"
	"insights-agent/internal/infrastructure/prompts"
	"insights-agent/internal/infrastructure/store"
	"insights-agent/internal/usecase/chat"
	"insights-agent/internal/usecase/executor"
	"insights-agent/internal/usecase/insights"
	"insights-agent/internal/usecase/report"
)

type Container struct {
	Logger       output.LoggerPort
	Boards       output.BoardPort
	Data         *dataset.CachedLoader
	Store        *store.SQLiteStore
	Engine       *insights.Engine
	Tools        output.ToolRegistry
	LLM          output.LLMPort
	TaskExecutor input.TaskExecutor
	Reports      input.ReportGenerator
	Chat         input.ChatService
	Metrics      *httpserver.Metrics
	Server       *httpserver.Server
}

type Options struct {
	Config *config.Config
	Debug  bool
	// WithServer controls whether the HTTP server (and its metrics) are
	// built. The CLI runs without it.
	WithServer bool
}

func NewContainer(ctx context.Context, opts Options) (*Container, error) {
	cfg := opts.Config

	log, err := logger.NewLoggerAdapter(opts.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c := &Container{Logger: log}

	if opts.WithServer {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		c.Metrics = httpserver.NewMetrics(registry)
	}

	client := monday.NewClient(monday.Config{
		APIURL:     cfg.Monday.APIURL,
		APIVersion: cfg.Monday.APIVersion,
		Token:      cfg.Monday.Token,
	}, log)
	if c.Metrics != nil {
		client.RecordCall = c.Metrics.RecordBoardCall
	}
	c.Boards = client

	loader := dataset.NewLoader(client, dataset.LoaderConfig{
		WorkBoardID:  cfg.Boards.WorkOrdersID,
		DealsBoardID: cfg.Boards.DealsID,
		WorkMapping:  dataset.DefaultWorkOrderMapping().Override(cfg.Boards.WorkColumns),
		DealMapping:  dataset.DefaultDealMapping().Override(cfg.Boards.DealColumns),
	}, log)
	c.Data = dataset.NewCachedLoader(loader, cfg.Monday.CacheTTL, log)

	db, err := store.NewSQLiteStore(cfg.Database.Path, log)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	c.Store = db

	kpis := make([]insights.KPI, 0, len(cfg.KPIs))
	for _, k := range cfg.KPIs {
		kpis = append(kpis, insights.KPI{Name: k.Name, Expr: k.Expr})
	}
	c.Engine = insights.NewEngine(kpis, log)
	for _, err := range c.Engine.ValidateKPIs() {
		log.Warn("Ignoring invalid KPI expression", "error", err)
	}

	c.Reports = report.NewGenerator(c.Data, db, log)

	tools := service.NewToolRegistry()
	tools.Register(tool.NewListBoardsTool(c.Boards, log))
	tools.Register(tool.NewBoardColumnsTool(c.Boards, log))
	tools.Register(tool.NewBoardRowsTool(c.Boards, log))
	tools.Register(tool.NewConversionMetricsTool(c.Data, log))
	tools.Register(tool.NewCollectionsTool(c.Data, log))
	tools.Register(tool.NewSectorBreakdownTool(c.Data, log))
	tools.Register(tool.NewPipelineFunnelTool(c.Data, log))
	tools.Register(tool.NewLeadershipReportTool(c.Reports, log))
	c.Tools = tools

	if cfg.LLM.APIKey != "" {
		llmCfg := openrouter.DefaultConfig(cfg.LLM.APIKey, cfg.LLM.Model)
		if cfg.LLM.BaseURL != "" {
			llmCfg.BaseURL = cfg.LLM.BaseURL
		}
		if opts.Debug {
			llmCfg.Logger = log
		}
		c.LLM = openrouter.NewOpenRouterAdapter(llmCfg)

		// Best effort: the prompt carries a data snapshot when boards are
		// reachable at startup.
		ds, err := c.Data.Dataset(ctx)
		if err != nil {
			log.Warn("Boards unreachable at startup, prompt carries no data snapshot", "error", err)
			ds = nil
		}
		systemPrompt, err := prompts.GenerateSystemPrompt(prompts.DefaultSystemPrompt, tools, ds)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to generate system prompt: %w", err)
		}
		c.TaskExecutor = executor.New(c.LLM, tools, log, systemPrompt)
	}

	c.Chat = chat.NewService(db, c.Data, c.Engine, c.TaskExecutor, log)

	if opts.WithServer {
		c.Server = httpserver.New(
			httpserver.Config{Addr: cfg.Server.Addr, Debug: opts.Debug},
			c.Chat, c.Reports, db, c.Boards, c.Data, c.Metrics, log,
		)
		if cfg.Monday.RefreshSpec != "" {
			if err := c.Data.StartSchedule(cfg.Monday.RefreshSpec); err != nil {
				c.Close()
				return nil, fmt.Errorf("failed to start refresh schedule: %w", err)
			}
		}
	}

	return c, nil
}

func (c *Container) Close() {
	if c.Data != nil {
		c.Data.StopSchedule()
	}
	if c.Store != nil {
		c.Store.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
