package dataset

import (
	"insights-agent/internal/domain/entity"
)

// criticalFields drive the per-row data quality score.
var criticalFields = []string{FieldContractValue, FieldSector, FieldExecutionStatus}

// WorkOrderFromRow cleans one board row into a WorkOrder.
func WorkOrderFromRow(row entity.Row, m Mapping) entity.WorkOrder {
	idx := newLookup(row)

	wo := entity.WorkOrder{
		Name:            row[entity.RowItemName],
		DealName:        idx.get(m, FieldDealName),
		CustomerCode:    idx.get(m, FieldCustomerCode),
		WorkType:        NormalizeStatus(idx.get(m, FieldWorkType)),
		Sector:          NormalizeStatus(idx.get(m, FieldSector)),
		ExecutionStatus: NormalizeStatus(idx.get(m, FieldExecutionStatus)),
		ContractValue:   ParseCurrency(idx.get(m, FieldContractValue)),
		BilledValue:     ParseCurrency(idx.get(m, FieldBilledValue)),
		CollectedAmount: ParseCurrency(idx.get(m, FieldCollectedAmount)),
		Receivable:      ParseCurrency(idx.get(m, FieldReceivable)),
		PODate:          ParseDate(idx.get(m, FieldPODate)),
		StartDate:       ParseDate(idx.get(m, FieldStartDate)),
		EndDate:         ParseDate(idx.get(m, FieldEndDate)),
	}
	wo.QualityScore = qualityScore(idx, m)
	return wo
}

// DealFromRow cleans one board row into a Deal. The weighted value scales
// the deal value by the closure probability.
func DealFromRow(row entity.Row, m Mapping) entity.Deal {
	idx := newLookup(row)

	d := entity.Deal{
		Name:               row[entity.RowItemName],
		Status:             NormalizeStatus(idx.get(m, FieldDealStatus)),
		Stage:              idx.get(m, FieldDealStage),
		Value:              ParseCurrency(idx.get(m, FieldDealValue)),
		ClosureProbability: idx.get(m, FieldDealProbability),
		CreatedDate:        ParseDate(idx.get(m, FieldDealCreated)),
		CloseDate:          ParseDate(idx.get(m, FieldDealClose)),
	}
	d.ProbabilityScore = ProbabilityScore(d.ClosureProbability)
	d.WeightedValue = d.Value * d.ProbabilityScore
	return d
}

// qualityScore is the fraction of critical fields that are present and
// non-zero for one row.
func qualityScore(idx lookup, m Mapping) float64 {
	present := 0
	for _, field := range criticalFields {
		value := idx.get(m, field)
		if value == "" {
			continue
		}
		if field == FieldContractValue && ParseCurrency(value) == 0 {
			continue
		}
		present++
	}
	return float64(present) / float64(len(criticalFields))
}

// isHeaderArtifact reports rows that repeat the column header as data, an
// artifact of board exports.
func isHeaderArtifact(row entity.Row, m Mapping, statusField string) bool {
	idx := newLookup(row)
	return idx.get(m, statusField) == m[statusField]
}
