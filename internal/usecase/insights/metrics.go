package insights

import (
	"sort"

	"insights-agent/internal/domain/entity"
)

// Conversion computes the pipeline effectiveness metrics from both boards.
func Conversion(ds *entity.Dataset) entity.ConversionMetrics {
	m := entity.ConversionMetrics{
		StatusCounts: make(map[string]int),
	}
	if ds == nil {
		return m
	}

	m.TotalDeals = len(ds.Deals)
	for _, d := range ds.Deals {
		if d.Status != "" {
			m.StatusCounts[d.Status]++
		}
		m.TotalPipeline += d.Value
	}

	m.WonDeals = m.StatusCounts[entity.DealStatusWon] + m.StatusCounts["Closed Won"]
	m.LostDeals = m.StatusCounts[entity.DealStatusLost] + m.StatusCounts["Closed Lost"]
	m.ActiveDeals = m.TotalDeals - m.WonDeals - m.LostDeals

	for _, wo := range ds.WorkOrders {
		m.TotalRevenue += wo.BilledValue
	}

	if closed := m.WonDeals + m.LostDeals; closed > 0 {
		m.WinRate = float64(m.WonDeals) / float64(closed) * 100
	}
	if m.TotalDeals > 0 {
		m.ConversionRate = float64(m.WonDeals) / float64(m.TotalDeals) * 100
	}
	if m.TotalPipeline > 0 {
		m.RealizationRate = m.TotalRevenue / m.TotalPipeline * 100
	}

	if m.TotalDeals > 0 {
		score := m.WinRate*0.4 + min(m.RealizationRate, 100)*0.6
		m.HealthScore = min(score, 100)
	}
	return m
}

// Collections summarizes billing against cash collected. When no row
// carries an explicit receivable the gap between billed and collected is
// used instead.
func Collections(ds *entity.Dataset) entity.CollectionsSummary {
	var s entity.CollectionsSummary
	if ds == nil {
		return s
	}

	for _, wo := range ds.WorkOrders {
		s.TotalBilled += wo.BilledValue
		s.TotalCollected += wo.CollectedAmount
		s.Receivables += wo.Receivable
	}

	if s.TotalBilled > 0 {
		s.CollectionRate = s.TotalCollected / s.TotalBilled * 100
	}
	if s.Receivables == 0 {
		s.Receivables = s.TotalBilled - s.TotalCollected
	}
	return s
}

// Sectors groups work-order revenue by sector, highest revenue first.
// Rows without a sector are excluded.
func Sectors(ds *entity.Dataset) []entity.SectorStat {
	if ds == nil {
		return nil
	}

	bySector := make(map[string]*entity.SectorStat)
	var order []string
	for _, wo := range ds.WorkOrders {
		if wo.Sector == "" {
			continue
		}
		stat, ok := bySector[wo.Sector]
		if !ok {
			stat = &entity.SectorStat{Sector: wo.Sector}
			bySector[wo.Sector] = stat
			order = append(order, wo.Sector)
		}
		stat.Revenue += wo.BilledValue
		stat.DealCount++
	}

	stats := make([]entity.SectorStat, 0, len(order))
	for _, sector := range order {
		stats = append(stats, *bySector[sector])
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Revenue > stats[j].Revenue
	})
	return stats
}

// Pipeline summarizes the open portion of the deals funnel.
func Pipeline(ds *entity.Dataset) entity.PipelineSummary {
	var p entity.PipelineSummary
	if ds == nil {
		return p
	}

	for _, d := range ds.Deals {
		if d.Status != entity.DealStatusOpen {
			continue
		}
		p.OpenDeals++
		p.OpenPipeline += d.Value
		p.WeightedPipeline += d.WeightedValue
	}
	if p.OpenDeals > 0 {
		p.AvgDealSize = p.OpenPipeline / float64(p.OpenDeals)
	}
	return p
}

// Funnel aggregates open deals per stage in funnel order.
func Funnel(ds *entity.Dataset) []entity.FunnelStage {
	if ds == nil {
		return nil
	}

	byStage := make(map[string]*entity.FunnelStage)
	var order []string
	for _, d := range ds.Deals {
		if d.Status != entity.DealStatusOpen || d.Stage == "" {
			continue
		}
		stage, ok := byStage[d.Stage]
		if !ok {
			stage = &entity.FunnelStage{Stage: d.Stage}
			byStage[d.Stage] = stage
			order = append(order, d.Stage)
		}
		stage.Value += d.Value
		stage.Deals++
	}

	stages := make([]entity.FunnelStage, 0, len(order))
	for _, name := range order {
		stages = append(stages, *byStage[name])
	}
	sort.SliceStable(stages, func(i, j int) bool {
		return entity.FunnelStageIndex(stages[i].Stage) < entity.FunnelStageIndex(stages[j].Stage)
	})
	return stages
}

// SectorNames lists the distinct sectors present in the work orders.
func SectorNames(ds *entity.Dataset) []string {
	stats := Sectors(ds)
	names := make([]string, 0, len(stats))
	for _, s := range stats {
		names = append(names, s.Sector)
	}
	return names
}
