package httpserver

import (
	"context"
	_ "embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"insights-agent/internal/application/port/input"
	"insights-agent/internal/application/port/output"
)

//go:embed web/index.html
var indexPage []byte

// Server exposes the chat, report and board endpoints.
type Server struct {
	chat    input.ChatService
	reports input.ReportGenerator
	store   output.ReportStore
	boards  output.BoardPort
	data    output.DatasetPort
	metrics *Metrics
	logger  output.LoggerPort
	md      goldmark.Markdown

	httpServer *http.Server
}

type Config struct {
	Addr  string
	Debug bool
}

func New(
	cfg Config,
	chat input.ChatService,
	reports input.ReportGenerator,
	store output.ReportStore,
	boards output.BoardPort,
	data output.DatasetPort,
	metrics *Metrics,
	logger output.LoggerPort,
) *Server {
	s := &Server{
		chat:    chat,
		reports: reports,
		store:   store,
		boards:  boards,
		data:    data,
		metrics: metrics,
		logger:  logger,
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) router(cfg Config) http.Handler {
	requestLogger := httplog.NewLogger("insights-agent", httplog.Options{
		JSON:    true,
		Concise: !cfg.Debug,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httplog.RequestLogger(requestLogger))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if s.metrics != nil {
		gatherer = s.metrics.registry
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/sessions/{id}/messages", s.handleSessionMessages)

		r.Post("/reports", s.handleGenerateReport)
		r.Get("/reports", s.handleListReports)
		r.Get("/reports/{id}", s.handleGetReport)
		r.Get("/reports/{id}/html", s.handleReportHTML)

		r.Get("/boards", s.handleBoards)
		r.Get("/status", s.handleStatus)
		r.Post("/refresh", s.handleRefresh)
	})

	return r
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
