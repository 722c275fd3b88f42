package entity

import "time"

// WorkOrder is a cleaned row of the work-orders board.
type WorkOrder struct {
	Name            string
	DealName        string
	CustomerCode    string
	WorkType        string
	Sector          string
	ExecutionStatus string

	ContractValue   float64
	BilledValue     float64
	CollectedAmount float64
	Receivable      float64

	PODate    time.Time
	StartDate time.Time
	EndDate   time.Time

	// QualityScore is the fraction of critical fields present, in [0,1].
	QualityScore float64
}

// Deal is a cleaned row of the deals funnel board.
type Deal struct {
	Name               string
	Status             string
	Stage              string
	Value              float64
	ClosureProbability string

	// ProbabilityScore maps the closure probability label to a weight.
	ProbabilityScore float64
	// WeightedValue is Value scaled by ProbabilityScore.
	WeightedValue float64

	CreatedDate time.Time
	CloseDate   time.Time
}

// Deal status values after normalization.
const (
	DealStatusOpen = "Open"
	DealStatusWon  = "Won"
	DealStatusLost = "Lost"
)

// FunnelStages lists the deal stages in funnel order. Stages not in this
// list sort last.
var FunnelStages = []string{
	"A. Lead Generated",
	"B. Sales Qualified Leads",
	"C. Demo Done",
	"D. Feasibility",
	"E. Proposal/Commercials Sent",
	"F. Negotiations",
	"G. Project Won",
	"H. Work Order Received",
}

// FunnelStageIndex returns the funnel position of a stage, or a value past
// the end for unknown stages.
func FunnelStageIndex(stage string) int {
	for i, s := range FunnelStages {
		if s == stage {
			return i
		}
	}
	return len(FunnelStages) + 1
}

// Dataset is one consistent snapshot of both boards.
type Dataset struct {
	WorkOrders []WorkOrder
	Deals      []Deal
	FetchedAt  time.Time
}

func (d *Dataset) Empty() bool {
	return d == nil || (len(d.WorkOrders) == 0 && len(d.Deals) == 0)
}
