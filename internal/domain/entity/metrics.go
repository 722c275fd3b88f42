package entity

// ConversionMetrics are the pipeline effectiveness numbers computed from
// both boards.
type ConversionMetrics struct {
	TotalDeals  int
	WonDeals    int
	LostDeals   int
	ActiveDeals int

	// WinRate is won / (won + lost), over closed deals only, in percent.
	WinRate float64
	// ConversionRate is won / total, over all deals, in percent.
	ConversionRate float64

	TotalPipeline float64
	TotalRevenue  float64
	// RealizationRate is revenue / pipeline, in percent.
	RealizationRate float64

	// HealthScore is win rate weighted 0.4 plus realization rate (capped
	// at 100) weighted 0.6, capped at 100. Zero when there are no deals.
	HealthScore float64

	StatusCounts map[string]int
}

// HealthStatus buckets the health score the way the reports present it.
func (m ConversionMetrics) HealthStatus() string {
	switch {
	case m.HealthScore > 70:
		return "Healthy"
	case m.HealthScore > 40:
		return "Needs Attention"
	default:
		return "Critical"
	}
}

// CollectionsSummary describes billing and cash collection.
type CollectionsSummary struct {
	TotalBilled    float64
	TotalCollected float64
	// CollectionRate is collected / billed, in percent.
	CollectionRate float64
	Receivables    float64
}

// SectorStat is revenue and deal volume of one sector.
type SectorStat struct {
	Sector    string  `json:"sector"`
	Revenue   float64 `json:"revenue"`
	DealCount int     `json:"deal_count"`
}

// PipelineSummary describes the open portion of the deals funnel.
type PipelineSummary struct {
	OpenDeals        int
	OpenPipeline     float64
	WeightedPipeline float64
	AvgDealSize      float64
}

// FunnelStage is the aggregate open-pipeline value at one deal stage.
type FunnelStage struct {
	Stage string  `json:"stage"`
	Value float64 `json:"value"`
	Deals int     `json:"deals"`
}
