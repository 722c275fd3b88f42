package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"insights-agent/internal/application/port/input"
	"insights-agent/internal/application/port/output"
	"insights-agent/internal/domain/entity"
	"insights-agent/internal/usecase/insights"
)

func noParameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

type ListBoardsTool struct {
	boards output.BoardPort
	logger output.LoggerPort
}

func NewListBoardsTool(boards output.BoardPort, logger output.LoggerPort) *ListBoardsTool {
	return &ListBoardsTool{boards: boards, logger: logger}
}

func (t *ListBoardsTool) Name() entity.ToolName { return entity.ToolListBoards }
func (t *ListBoardsTool) Description() string {
	return "Lists all accessible boards with their IDs and item counts"
}
func (t *ListBoardsTool) Parameters() map[string]interface{} { return noParameters() }

func (t *ListBoardsTool) Execute(ctx context.Context, args string) (string, error) {
	boards, err := t.boards.ListBoards(ctx)
	if err != nil {
		return "", err
	}
	if len(boards) == 0 {
		return "No boards accessible with the current token", nil
	}
	var b strings.Builder
	for _, board := range boards {
		fmt.Fprintf(&b, "- %s (id %d, %d items)\n", board.Name, board.ID, board.ItemCount)
	}
	return b.String(), nil
}

type BoardColumnsTool struct {
	boards output.BoardPort
	logger output.LoggerPort
}

func NewBoardColumnsTool(boards output.BoardPort, logger output.LoggerPort) *BoardColumnsTool {
	return &BoardColumnsTool{boards: boards, logger: logger}
}

func (t *BoardColumnsTool) Name() entity.ToolName { return entity.ToolBoardColumns }
func (t *BoardColumnsTool) Description() string {
	return "Lists the columns of a board by board name"
}
func (t *BoardColumnsTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"board": map[string]interface{}{
				"type":        "string",
				"description": "Board name or a part of it",
			},
		},
		"required": []string{"board"},
	}
}

func (t *BoardColumnsTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Board string `json:"board"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", err
	}
	board, err := t.boards.FindBoard(ctx, input.Board)
	if err != nil {
		return "", err
	}
	columns, err := t.boards.BoardColumns(ctx, board.ID)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Columns of %q:\n", board.Name)
	for _, c := range columns {
		fmt.Fprintf(&b, "- %s (%s)\n", c.Title, c.Type)
	}
	return b.String(), nil
}

type BoardRowsTool struct {
	boards output.BoardPort
	logger output.LoggerPort
}

func NewBoardRowsTool(boards output.BoardPort, logger output.LoggerPort) *BoardRowsTool {
	return &BoardRowsTool{boards: boards, logger: logger}
}

func (t *BoardRowsTool) Name() entity.ToolName { return entity.ToolBoardRows }
func (t *BoardRowsTool) Description() string {
	return "Returns the rows of a board as JSON, optionally limited"
}
func (t *BoardRowsTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"board": map[string]interface{}{
				"type":        "string",
				"description": "Board name or a part of it",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of rows to return, 0 for all",
			},
		},
		"required": []string{"board"},
	}
}

func (t *BoardRowsTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Board string `json:"board"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", err
	}
	board, err := t.boards.FindBoard(ctx, input.Board)
	if err != nil {
		return "", err
	}
	rows, err := t.boards.BoardRows(ctx, board.ID)
	if err != nil {
		return "", err
	}
	if input.Limit > 0 && input.Limit < len(rows) {
		rows = rows[:input.Limit]
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type ConversionMetricsTool struct {
	data   output.DatasetPort
	logger output.LoggerPort
}

func NewConversionMetricsTool(data output.DatasetPort, logger output.LoggerPort) *ConversionMetricsTool {
	return &ConversionMetricsTool{data: data, logger: logger}
}

func (t *ConversionMetricsTool) Name() entity.ToolName { return entity.ToolConversionMetrics }
func (t *ConversionMetricsTool) Description() string {
	return "Computes win rate, conversion rate, realization rate and the business health score"
}
func (t *ConversionMetricsTool) Parameters() map[string]interface{} { return noParameters() }

func (t *ConversionMetricsTool) Execute(ctx context.Context, args string) (string, error) {
	ds, err := t.data.Dataset(ctx)
	if err != nil {
		return "", err
	}
	m := insights.Conversion(ds)
	return fmt.Sprintf(
		"Deals: %d total, %d won, %d lost, %d active\nWin rate: %s\nConversion rate: %s\nRevenue: %s of %s pipeline (realization %s)\nHealth score: %.0f/100 (%s)",
		m.TotalDeals, m.WonDeals, m.LostDeals, m.ActiveDeals,
		insights.Pct(m.WinRate), insights.Pct(m.ConversionRate),
		insights.Money(m.TotalRevenue), insights.Money(m.TotalPipeline), insights.Pct(m.RealizationRate),
		m.HealthScore, m.HealthStatus(),
	), nil
}

type CollectionsTool struct {
	data   output.DatasetPort
	logger output.LoggerPort
}

func NewCollectionsTool(data output.DatasetPort, logger output.LoggerPort) *CollectionsTool {
	return &CollectionsTool{data: data, logger: logger}
}

func (t *CollectionsTool) Name() entity.ToolName { return entity.ToolCollections }
func (t *CollectionsTool) Description() string {
	return "Summarizes billing, cash collected and outstanding receivables"
}
func (t *CollectionsTool) Parameters() map[string]interface{} { return noParameters() }

func (t *CollectionsTool) Execute(ctx context.Context, args string) (string, error) {
	ds, err := t.data.Dataset(ctx)
	if err != nil {
		return "", err
	}
	c := insights.Collections(ds)
	return fmt.Sprintf("Billed: %s\nCollected: %s (%s)\nReceivables: %s",
		insights.Money(c.TotalBilled), insights.Money(c.TotalCollected),
		insights.Pct(c.CollectionRate), insights.Money(c.Receivables)), nil
}

type SectorBreakdownTool struct {
	data   output.DatasetPort
	logger output.LoggerPort
}

func NewSectorBreakdownTool(data output.DatasetPort, logger output.LoggerPort) *SectorBreakdownTool {
	return &SectorBreakdownTool{data: data, logger: logger}
}

func (t *SectorBreakdownTool) Name() entity.ToolName { return entity.ToolSectorBreakdown }
func (t *SectorBreakdownTool) Description() string {
	return "Breaks revenue and project counts down by sector, highest revenue first"
}
func (t *SectorBreakdownTool) Parameters() map[string]interface{} { return noParameters() }

func (t *SectorBreakdownTool) Execute(ctx context.Context, args string) (string, error) {
	ds, err := t.data.Dataset(ctx)
	if err != nil {
		return "", err
	}
	sectors := insights.Sectors(ds)
	if len(sectors) == 0 {
		return "No sector data available", nil
	}
	var b strings.Builder
	for i, s := range sectors {
		fmt.Fprintf(&b, "%d. %s: %s across %d projects\n", i+1, s.Sector, insights.Money(s.Revenue), s.DealCount)
	}
	return b.String(), nil
}

type PipelineFunnelTool struct {
	data   output.DatasetPort
	logger output.LoggerPort
}

func NewPipelineFunnelTool(data output.DatasetPort, logger output.LoggerPort) *PipelineFunnelTool {
	return &PipelineFunnelTool{data: data, logger: logger}
}

func (t *PipelineFunnelTool) Name() entity.ToolName { return entity.ToolPipelineFunnel }
func (t *PipelineFunnelTool) Description() string {
	return "Shows open pipeline value per funnel stage plus the weighted total"
}
func (t *PipelineFunnelTool) Parameters() map[string]interface{} { return noParameters() }

func (t *PipelineFunnelTool) Execute(ctx context.Context, args string) (string, error) {
	ds, err := t.data.Dataset(ctx)
	if err != nil {
		return "", err
	}
	p := insights.Pipeline(ds)
	funnel := insights.Funnel(ds)
	var b strings.Builder
	fmt.Fprintf(&b, "Open deals: %d worth %s (weighted %s, avg %s)\n",
		p.OpenDeals, insights.Money(p.OpenPipeline),
		insights.Money(p.WeightedPipeline), insights.Money(p.AvgDealSize))
	for _, stage := range funnel {
		fmt.Fprintf(&b, "- %s: %s (%d deals)\n", stage.Stage, insights.Money(stage.Value), stage.Deals)
	}
	return b.String(), nil
}

type LeadershipReportTool struct {
	reports input.ReportGenerator
	logger  output.LoggerPort
}

func NewLeadershipReportTool(reports input.ReportGenerator, logger output.LoggerPort) *LeadershipReportTool {
	return &LeadershipReportTool{reports: reports, logger: logger}
}

func (t *LeadershipReportTool) Name() entity.ToolName { return entity.ToolLeadershipReport }
func (t *LeadershipReportTool) Description() string {
	return "Generates and stores the full executive leadership report, returning its markdown"
}
func (t *LeadershipReportTool) Parameters() map[string]interface{} { return noParameters() }

func (t *LeadershipReportTool) Execute(ctx context.Context, args string) (string, error) {
	r, err := t.reports.Generate(ctx)
	if err != nil {
		return "", err
	}
	t.logger.Info("Report generated via tool", "id", r.ID)
	return r.Markdown, nil
}
