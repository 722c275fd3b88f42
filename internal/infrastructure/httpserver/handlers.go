package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"insights-agent/internal/application/port/output"
	"insights-agent/internal/domain/entity"
	"insights-agent/internal/usecase/insights"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string                `json:"session_id"`
	Reply     string                `json:"reply"`
	Metadata  entity.AnswerMetadata `json:"metadata"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	result, err := s.chat.Ask(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.logger.Error("Chat request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to answer"})
		return
	}

	if s.metrics != nil {
		s.metrics.chatMessages.WithLabelValues(result.Metadata.Engine).Inc()
	}
	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: result.SessionID,
		Reply:     result.Reply,
		Metadata:  result.Metadata,
	})
}

type messageResponse struct {
	ID        string                 `json:"id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Metadata  *entity.AnswerMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	msgs, err := s.chat.History(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("History lookup failed", "session", sessionID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load history"})
		return
	}

	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			Metadata:  m.Metadata,
			CreatedAt: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type reportResponse struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	HealthScore float64   `json:"health_score"`
	Revenue     float64   `json:"revenue"`
	Pipeline    float64   `json:"pipeline"`
	Status      string    `json:"status"`
	Markdown    string    `json:"markdown,omitempty"`
}

func reportToResponse(r *entity.Report, includeBody bool) reportResponse {
	resp := reportResponse{
		ID:          r.ID,
		GeneratedAt: r.GeneratedAt,
		HealthScore: r.HealthScore,
		Revenue:     r.Revenue,
		Pipeline:    r.Pipeline,
		Status:      r.Status,
	}
	if includeBody {
		resp.Markdown = r.Markdown
	}
	return resp
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.reports.Generate(r.Context())
	if err != nil {
		s.logger.Error("Report generation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to generate report"})
		return
	}

	if s.metrics != nil {
		s.metrics.reportsGenerated.Inc()
	}
	writeJSON(w, http.StatusCreated, reportToResponse(report, true))
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.ListReports(r.Context(), 50)
	if err != nil {
		s.logger.Error("Report listing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list reports"})
		return
	}

	out := make([]reportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, reportToResponse(&reports[i], false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.GetReport(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, output.ErrReportNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "report not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load report"})
		return
	}
	writeJSON(w, http.StatusOK, reportToResponse(report, true))
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.GetReport(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, output.ErrReportNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to load report", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(report.Markdown), &buf); err != nil {
		s.logger.Error("Markdown conversion failed", "report", report.ID, "error", err)
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

type boardResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ItemCount int    `json:"item_count"`
}

func (s *Server) handleBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.boards.ListBoards(r.Context())
	if err != nil {
		s.logger.Error("Board listing failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "failed to reach boards"})
		return
	}

	out := make([]boardResponse, 0, len(boards))
	for _, b := range boards {
		out = append(out, boardResponse{ID: b.ID, Name: b.Name, ItemCount: b.ItemCount})
	}
	writeJSON(w, http.StatusOK, out)
}

type statusResponse struct {
	WorkOrders      int       `json:"work_orders"`
	Deals           int       `json:"deals"`
	Revenue         float64   `json:"revenue"`
	RevenueDisplay  string    `json:"revenue_display"`
	Pipeline        float64   `json:"pipeline"`
	PipelineDisplay string    `json:"pipeline_display"`
	HealthScore     float64   `json:"health_score"`
	FetchedAt       time.Time `json:"fetched_at"`
}

func datasetStatus(ds *entity.Dataset) statusResponse {
	m := insights.Conversion(ds)
	return statusResponse{
		WorkOrders:      len(ds.WorkOrders),
		Deals:           len(ds.Deals),
		Revenue:         m.TotalRevenue,
		RevenueDisplay:  insights.MoneyCompact(m.TotalRevenue),
		Pipeline:        m.TotalPipeline,
		PipelineDisplay: insights.MoneyCompact(m.TotalPipeline),
		HealthScore:     m.HealthScore,
		FetchedAt:       ds.FetchedAt,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ds, err := s.data.Dataset(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "no data available"})
		return
	}
	writeJSON(w, http.StatusOK, datasetStatus(ds))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ds, err := s.data.Refresh(r.Context())
	if err != nil {
		s.logger.Error("Manual refresh failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "refresh failed"})
		return
	}
	writeJSON(w, http.StatusOK, datasetStatus(ds))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
