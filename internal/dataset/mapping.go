package dataset

import "strings"

// Field keys used in column mappings. Config overrides reference these.
const (
	FieldDealName        = "deal_name"
	FieldCustomerCode    = "customer_code"
	FieldWorkType        = "work_type"
	FieldSector          = "sector"
	FieldExecutionStatus = "execution_status"
	FieldContractValue   = "contract_value"
	FieldBilledValue     = "billed_value"
	FieldCollectedAmount = "collected_amount"
	FieldReceivable      = "receivable"
	FieldPODate          = "po_date"
	FieldStartDate       = "start_date"
	FieldEndDate         = "end_date"

	FieldDealStatus      = "status"
	FieldDealStage       = "stage"
	FieldDealValue       = "value"
	FieldDealProbability = "probability"
	FieldDealCreated     = "created"
	FieldDealClose       = "close"
)

// Mapping resolves record fields to board column titles. Lookups are
// case-insensitive because column titles on the boards are hand-edited.
type Mapping map[string]string

// DefaultWorkOrderMapping matches the column titles of the work-orders
// board as exported.
func DefaultWorkOrderMapping() Mapping {
	return Mapping{
		FieldDealName:        "Deal name masked",
		FieldCustomerCode:    "Customer Name Code",
		FieldWorkType:        "Nature of Work",
		FieldSector:          "Sector",
		FieldExecutionStatus: "Execution Status",
		FieldContractValue:   "Amount in Rupees (Excl of GST) (Masked)",
		FieldBilledValue:     "Billed Value in Rupees (Incl of GST.) (Masked)",
		FieldCollectedAmount: "Collected Amount in Rupees (Incl of GST.) (Masked)",
		FieldReceivable:      "Amount Receivable (Masked)",
		FieldPODate:          "Date of PO/LOI",
		FieldStartDate:       "Probable Start Date",
		FieldEndDate:         "Probable End Date",
	}
}

// DefaultDealMapping matches the column titles of the deals funnel board.
func DefaultDealMapping() Mapping {
	return Mapping{
		FieldDealStatus:      "Deal Status",
		FieldDealStage:       "Deal Stage",
		FieldDealValue:       "Masked Deal value",
		FieldDealProbability: "Closure Probability",
		FieldDealCreated:     "Created Date",
		FieldDealClose:       "Tentative Close Date",
	}
}

// Override returns a copy of m with the given field→title overrides
// applied. Unknown field keys are ignored.
func (m Mapping) Override(overrides map[string]string) Mapping {
	result := make(Mapping, len(m))
	for k, v := range m {
		result[k] = v
	}
	for field, title := range overrides {
		if _, ok := result[field]; ok && title != "" {
			result[field] = title
		}
	}
	return result
}

// lookup builds a case-insensitive title→value index for one row.
type lookup map[string]string

func newLookup(row map[string]string) lookup {
	idx := make(lookup, len(row))
	for title, value := range row {
		idx[normalizeTitle(title)] = value
	}
	return idx
}

func (l lookup) get(m Mapping, field string) string {
	return l[normalizeTitle(m[field])]
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
