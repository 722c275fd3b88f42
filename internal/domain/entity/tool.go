package entity

type ToolName string

const (
	ToolListBoards        ToolName = "list_boards"
	ToolBoardColumns      ToolName = "board_columns"
	ToolBoardRows         ToolName = "board_rows"
	ToolConversionMetrics ToolName = "conversion_metrics"
	ToolCollections       ToolName = "collections_summary"
	ToolSectorBreakdown   ToolName = "sector_breakdown"
	ToolPipelineFunnel    ToolName = "pipeline_funnel"
	ToolLeadershipReport  ToolName = "leadership_report"
)

func (t ToolName) String() string {
	return string(t)
}
