package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights-agent/internal/domain/entity"
)

func sampleDataset() *entity.Dataset {
	return &entity.Dataset{
		WorkOrders: []entity.WorkOrder{
			{Sector: "Energy", BilledValue: 600000, CollectedAmount: 500000, Receivable: 100000},
			{Sector: "Energy", BilledValue: 200000, CollectedAmount: 200000},
			{Sector: "Defence", BilledValue: 200000, CollectedAmount: 100000, Receivable: 100000},
		},
		Deals: []entity.Deal{
			{Status: "Won", Value: 500000, Stage: "G. Project Won"},
			{Status: "Won", Value: 300000, Stage: "G. Project Won"},
			{Status: "Lost", Value: 400000, Stage: "F. Negotiations"},
			{Status: "Open", Value: 600000, Stage: "F. Negotiations", WeightedValue: 300000},
			{Status: "Open", Value: 200000, Stage: "C. Demo Done", WeightedValue: 100000},
		},
		FetchedAt: time.Now(),
	}
}

func TestConversion(t *testing.T) {
	m := Conversion(sampleDataset())

	assert.Equal(t, 5, m.TotalDeals)
	assert.Equal(t, 2, m.WonDeals)
	assert.Equal(t, 1, m.LostDeals)
	assert.Equal(t, 2, m.ActiveDeals)

	// 2 won of 3 closed.
	assert.InDelta(t, 66.666, m.WinRate, 0.01)
	// 2 won of 5 total.
	assert.InDelta(t, 40.0, m.ConversionRate, 0.01)

	assert.Equal(t, 2000000.0, m.TotalPipeline)
	assert.Equal(t, 1000000.0, m.TotalRevenue)
	assert.InDelta(t, 50.0, m.RealizationRate, 0.01)

	// win_rate*0.4 + realization*0.6
	assert.InDelta(t, 66.666*0.4+50*0.6, m.HealthScore, 0.01)
	assert.Equal(t, "Needs Attention", m.HealthStatus())
}

func TestConversion_ClosedWonVariants(t *testing.T) {
	ds := &entity.Dataset{Deals: []entity.Deal{
		{Status: "Closed Won", Value: 100},
		{Status: "Closed Lost", Value: 100},
	}}

	m := Conversion(ds)
	assert.Equal(t, 1, m.WonDeals)
	assert.Equal(t, 1, m.LostDeals)
	assert.Equal(t, 0, m.ActiveDeals)
	assert.InDelta(t, 50.0, m.WinRate, 0.01)
}

func TestConversion_EmptyDataset(t *testing.T) {
	m := Conversion(&entity.Dataset{})

	assert.Zero(t, m.TotalDeals)
	assert.Zero(t, m.WinRate)
	assert.Zero(t, m.RealizationRate)
	assert.Zero(t, m.HealthScore, "no deals means health score 0, not NaN")
	assert.Equal(t, "Critical", m.HealthStatus())
}

func TestConversion_HealthScoreCapped(t *testing.T) {
	// Revenue far above pipeline: realization over 100 must be capped
	// before weighting.
	ds := &entity.Dataset{
		WorkOrders: []entity.WorkOrder{{BilledValue: 10000}},
		Deals:      []entity.Deal{{Status: "Won", Value: 100}},
	}

	m := Conversion(ds)
	assert.InDelta(t, 100.0, m.HealthScore, 0.01)
}

func TestCollections(t *testing.T) {
	c := Collections(sampleDataset())

	assert.Equal(t, 1000000.0, c.TotalBilled)
	assert.Equal(t, 800000.0, c.TotalCollected)
	assert.InDelta(t, 80.0, c.CollectionRate, 0.01)
	assert.Equal(t, 200000.0, c.Receivables)
}

func TestCollections_ReceivableFallback(t *testing.T) {
	ds := &entity.Dataset{WorkOrders: []entity.WorkOrder{
		{BilledValue: 1000, CollectedAmount: 400},
	}}

	c := Collections(ds)
	assert.Equal(t, 600.0, c.Receivables, "no explicit receivables: billed minus collected")
}

func TestSectors(t *testing.T) {
	stats := Sectors(sampleDataset())

	require.Len(t, stats, 2)
	assert.Equal(t, "Energy", stats[0].Sector)
	assert.Equal(t, 800000.0, stats[0].Revenue)
	assert.Equal(t, 2, stats[0].DealCount)
	assert.Equal(t, "Defence", stats[1].Sector)
}

func TestSectors_SkipsEmptySector(t *testing.T) {
	ds := &entity.Dataset{WorkOrders: []entity.WorkOrder{
		{Sector: "", BilledValue: 100},
		{Sector: "Rail", BilledValue: 50},
	}}

	stats := Sectors(ds)
	require.Len(t, stats, 1)
	assert.Equal(t, "Rail", stats[0].Sector)
}

func TestPipeline(t *testing.T) {
	p := Pipeline(sampleDataset())

	assert.Equal(t, 2, p.OpenDeals)
	assert.Equal(t, 800000.0, p.OpenPipeline)
	assert.Equal(t, 400000.0, p.WeightedPipeline)
	assert.Equal(t, 400000.0, p.AvgDealSize)
}

func TestFunnel_OrderedByStage(t *testing.T) {
	stages := Funnel(sampleDataset())

	require.Len(t, stages, 2)
	assert.Equal(t, "C. Demo Done", stages[0].Stage)
	assert.Equal(t, "F. Negotiations", stages[1].Stage)
	assert.Equal(t, 600000.0, stages[1].Value)
}

func TestSectorNames(t *testing.T) {
	assert.Equal(t, []string{"Energy", "Defence"}, SectorNames(sampleDataset()))
}
