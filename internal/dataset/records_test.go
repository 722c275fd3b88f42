package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights-agent/internal/domain/entity"
)

func TestWorkOrderFromRow(t *testing.T) {
	row := entity.Row{
		entity.RowItemName: "WO-001",
		"Sector":           "energy",
		"Execution Status": "ongoing",
		"Amount in Rupees (Excl of GST) (Masked)":            "₹ 1,00,000",
		"Billed Value in Rupees (Incl of GST.) (Masked)":     "80,000",
		"Collected Amount in Rupees (Incl of GST.) (Masked)": "50000",
		"Amount Receivable (Masked)":                         "30000",
		"Date of PO/LOI":                                     "2024-01-10",
	}

	wo := WorkOrderFromRow(row, DefaultWorkOrderMapping())

	assert.Equal(t, "WO-001", wo.Name)
	assert.Equal(t, "Energy", wo.Sector)
	assert.Equal(t, "Ongoing", wo.ExecutionStatus)
	assert.Equal(t, 100000.0, wo.ContractValue)
	assert.Equal(t, 80000.0, wo.BilledValue)
	assert.Equal(t, 50000.0, wo.CollectedAmount)
	assert.Equal(t, 30000.0, wo.Receivable)
	assert.Equal(t, 2024, wo.PODate.Year())
	assert.Equal(t, 1.0, wo.QualityScore)
}

func TestWorkOrderFromRow_QualityScore(t *testing.T) {
	// Missing sector and zero contract value: only execution status counts.
	row := entity.Row{
		entity.RowItemName:                        "WO-002",
		"Execution Status":                        "Completed",
		"Amount in Rupees (Excl of GST) (Masked)": "0",
	}

	wo := WorkOrderFromRow(row, DefaultWorkOrderMapping())
	assert.InDelta(t, 1.0/3.0, wo.QualityScore, 1e-9)
}

func TestWorkOrderFromRow_CaseInsensitiveTitles(t *testing.T) {
	row := entity.Row{
		entity.RowItemName: "WO-003",
		"sector":           "Defence",
	}

	wo := WorkOrderFromRow(row, DefaultWorkOrderMapping())
	assert.Equal(t, "Defence", wo.Sector)
}

func TestDealFromRow(t *testing.T) {
	row := entity.Row{
		entity.RowItemName:    "Deal X",
		"Deal Status":         "open",
		"Deal Stage":          "F. Negotiations",
		"Masked Deal value":   "2,50,000",
		"Closure Probability": "High",
		"Created Date":        "2024-02-01",
	}

	d := DealFromRow(row, DefaultDealMapping())

	assert.Equal(t, entity.DealStatusOpen, d.Status)
	assert.Equal(t, 250000.0, d.Value)
	assert.Equal(t, 0.8, d.ProbabilityScore)
	assert.Equal(t, 200000.0, d.WeightedValue)
}

func TestMappingOverride(t *testing.T) {
	m := DefaultWorkOrderMapping().Override(map[string]string{
		FieldSector:   "Industry",
		"unknown_key": "Whatever",
	})

	assert.Equal(t, "Industry", m[FieldSector])
	_, ok := m["unknown_key"]
	assert.False(t, ok)

	row := entity.Row{entity.RowItemName: "WO", "Industry": "Rail"}
	wo := WorkOrderFromRow(row, m)
	assert.Equal(t, "Rail", wo.Sector)
}

func TestIsHeaderArtifact(t *testing.T) {
	m := DefaultDealMapping()

	header := entity.Row{"Deal Status": "Deal Status"}
	data := entity.Row{"Deal Status": "Won"}

	assert.True(t, isHeaderArtifact(header, m, FieldDealStatus))
	assert.False(t, isHeaderArtifact(data, m, FieldDealStatus))
}

func TestFunnelStageIndex(t *testing.T) {
	require.Less(t,
		entity.FunnelStageIndex("A. Lead Generated"),
		entity.FunnelStageIndex("G. Project Won"))
	assert.Greater(t,
		entity.FunnelStageIndex("Z. Unknown"),
		entity.FunnelStageIndex("H. Work Order Received"))
}
