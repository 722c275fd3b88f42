package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights-agent/internal/application/port/input"
	"insights-agent/internal/application/port/output"
	"insights-agent/internal/domain/entity"
	"insights-agent/internal/infrastructure/logger"
)

type fakeChat struct {
	result *input.ChatResult
	err    error
}

func (f *fakeChat) Ask(ctx context.Context, sessionID, message string) (*input.ChatResult, error) {
	return f.result, f.err
}

func (f *fakeChat) History(ctx context.Context, sessionID string) ([]entity.ChatMessage, error) {
	return []entity.ChatMessage{
		{ID: "m1", SessionID: sessionID, Role: entity.RoleUser, Content: "hi"},
	}, nil
}

type fakeReports struct {
	report *entity.Report
	err    error
}

func (f *fakeReports) Generate(ctx context.Context) (*entity.Report, error) {
	return f.report, f.err
}

type fakeReportStore struct {
	reports map[string]entity.Report
}

func (f *fakeReportStore) SaveReport(ctx context.Context, r entity.Report) error {
	f.reports[r.ID] = r
	return nil
}

func (f *fakeReportStore) GetReport(ctx context.Context, id string) (*entity.Report, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, output.ErrReportNotFound
	}
	return &r, nil
}

func (f *fakeReportStore) ListReports(ctx context.Context, limit int) ([]entity.Report, error) {
	var out []entity.Report
	for _, r := range f.reports {
		out = append(out, r)
	}
	return out, nil
}

type fakeBoards struct{}

func (f *fakeBoards) ListBoards(ctx context.Context) ([]entity.Board, error) {
	return []entity.Board{{ID: 101, Name: "Work Orders", ItemCount: 42}}, nil
}

func (f *fakeBoards) BoardColumns(ctx context.Context, boardID int64) ([]entity.Column, error) {
	return nil, nil
}

func (f *fakeBoards) BoardRows(ctx context.Context, boardID int64) ([]entity.Row, error) {
	return nil, nil
}

func (f *fakeBoards) FindBoard(ctx context.Context, namePattern string) (*entity.Board, error) {
	return &entity.Board{ID: 101, Name: "Work Orders"}, nil
}

type fakeData struct {
	ds *entity.Dataset
}

func (f *fakeData) Dataset(ctx context.Context) (*entity.Dataset, error) { return f.ds, nil }
func (f *fakeData) Refresh(ctx context.Context) (*entity.Dataset, error) { return f.ds, nil }

func newTestServer(t *testing.T, chat input.ChatService, reports input.ReportGenerator, store output.ReportStore) (*Server, *Metrics) {
	t.Helper()
	metrics := NewMetrics(prometheus.NewRegistry())
	ds := &entity.Dataset{
		WorkOrders: []entity.WorkOrder{{Name: "WO-1", BilledValue: 1_500_000}},
		Deals:      []entity.Deal{{Name: "D-1", Value: 2_000_000}},
		FetchedAt:  time.Now(),
	}
	srv := New(Config{Addr: ":0"}, chat, reports, store, &fakeBoards{}, &fakeData{ds: ds}, metrics, logger.NewNopLogger())
	return srv, metrics
}

func TestHandleChat(t *testing.T) {
	chat := &fakeChat{result: &input.ChatResult{
		SessionID: "s1",
		Reply:     "Revenue is 1M.",
		Metadata:  entity.AnswerMetadata{Engine: entity.EngineInsights},
	}}
	srv, metrics := newTestServer(t, chat, &fakeReports{}, &fakeReportStore{reports: map[string]entity.Report{}})

	body, _ := json.Marshal(chatRequest{Message: "how is revenue"})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "Revenue is 1M.", resp.Reply)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.chatMessages.WithLabelValues(entity.EngineInsights)))
}

func TestHandleChatEmptyMessage(t *testing.T) {
	srv, _ := newTestServer(t, &fakeChat{}, &fakeReports{}, &fakeReportStore{reports: map[string]entity.Report{}})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(`{"message":""}`))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSessionMessages(t *testing.T) {
	srv, _ := newTestServer(t, &fakeChat{}, &fakeReports{}, &fakeReportStore{reports: map[string]entity.Report{}})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/s1/messages", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)
}

func TestHandleGenerateAndGetReport(t *testing.T) {
	report := &entity.Report{
		ID:          "r1",
		GeneratedAt: time.Now(),
		Markdown:    "# Executive Leadership Report\n\n| Metric | Value |\n|---|---|\n| Revenue | 1M |",
		HealthScore: 72,
		Status:      "Healthy",
	}
	store := &fakeReportStore{reports: map[string]entity.Report{"r1": *report}}
	srv, metrics := newTestServer(t, &fakeChat{}, &fakeReports{report: report}, store)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reports", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.reportsGenerated))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/r1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp reportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Healthy", resp.Status)
	assert.Contains(t, resp.Markdown, "Executive Leadership Report")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleReportHTML(t *testing.T) {
	report := entity.Report{
		ID:       "r1",
		Markdown: "# Report\n\n| A | B |\n|---|---|\n| 1 | 2 |",
	}
	store := &fakeReportStore{reports: map[string]entity.Report{"r1": report}}
	srv, _ := newTestServer(t, &fakeChat{}, &fakeReports{}, store)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/r1/html", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1>Report</h1>")
	// GFM tables render as real tables.
	assert.Contains(t, rec.Body.String(), "<table>")
}

func TestHandleBoardsAndStatus(t *testing.T) {
	srv, _ := newTestServer(t, &fakeChat{}, &fakeReports{}, &fakeReportStore{reports: map[string]entity.Report{}})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/boards", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Work Orders")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.WorkOrders)
	assert.Equal(t, 1, status.Deals)
	assert.Equal(t, "₹ 1.5M", status.RevenueDisplay)
	assert.Equal(t, "₹ 2.0M", status.PipelineDisplay)
}

func TestRequestMetricsMiddleware(t *testing.T) {
	srv, metrics := newTestServer(t, &fakeChat{}, &fakeReports{}, &fakeReportStore{reports: map[string]entity.Report{}})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestCount.WithLabelValues("GET", "/healthz", "200")))
}

func TestIndexPage(t *testing.T) {
	srv, _ := newTestServer(t, &fakeChat{}, &fakeReports{}, &fakeReportStore{reports: map[string]entity.Report{}})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Business Insights Agent")
}
