package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors of the server.
type Metrics struct {
	registry         *prometheus.Registry
	requestCount     *prometheus.CounterVec
	chatMessages     *prometheus.CounterVec
	boardAPICalls    *prometheus.CounterVec
	reportsGenerated prometheus.Counter
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		chatMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_messages_total",
				Help: "Chat messages answered, labeled by answering engine.",
			},
			[]string{"engine"},
		),
		boardAPICalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "board_api_calls_total",
				Help: "Monday.com API calls, labeled by operation.",
			},
			[]string{"operation"},
		),
		reportsGenerated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reports_generated_total",
				Help: "Leadership reports generated.",
			},
		),
	}
	reg.MustRegister(m.requestCount, m.chatMessages, m.boardAPICalls, m.reportsGenerated)
	return m
}

// RecordBoardCall is wired into the Monday client as its per-call hook.
func (m *Metrics) RecordBoardCall(operation string) {
	m.boardAPICalls.WithLabelValues(operation).Inc()
}

// Middleware counts every request by method, route pattern and status.
// /metrics itself is excluded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		m.requestCount.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
	})
}
