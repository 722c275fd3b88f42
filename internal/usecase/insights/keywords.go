package insights

import "strings"

// Intent categories detected in user questions.
const (
	IntentConversion  = "conversion"
	IntentRevenue     = "revenue"
	IntentPipeline    = "pipeline"
	IntentSector      = "sector"
	IntentPerformance = "performance"
	IntentCollection  = "collection"
	IntentTrends      = "trends"
	IntentLeadership  = "leadership"
)

// intentKeywords maps each intent to the phrases that signal it.
var intentKeywords = map[string][]string{
	IntentConversion:  {"convert", "conversion", "converting", "effectively", "efficiency", "win rate", "close rate"},
	IntentRevenue:     {"revenue", "billed", "collected", "realized", "income", "earnings", "money made"},
	IntentPipeline:    {"pipeline", "deals", "opportunities", "forecast", "upcoming"},
	IntentSector:      {"sector", "industry", "vertical", "segment", "domain", "category"},
	IntentPerformance: {"performance", "overview", "summary", "health", "status", "how are we doing"},
	IntentCollection:  {"collection", "collect", "receivable", "outstanding", "payment", "unpaid", "pending"},
	IntentTrends:      {"trend", "growth", "decline", "change", "compare", "over time", "quarter", "monthly"},
	IntentLeadership:  {"leadership", "executive", "founder", "ceo", "report", "board", "investor"},
}

// intentOrder keeps ExtractIntents deterministic.
var intentOrder = []string{
	IntentConversion, IntentRevenue, IntentPipeline, IntentSector,
	IntentPerformance, IntentCollection, IntentTrends, IntentLeadership,
}

// ExtractIntents returns every intent whose keywords appear in the query.
func ExtractIntents(query string) []string {
	query = strings.ToLower(query)

	var detected []string
	for _, intent := range intentOrder {
		for _, word := range intentKeywords[intent] {
			if strings.Contains(query, word) {
				detected = append(detected, intent)
				break
			}
		}
	}
	return detected
}

func hasIntent(intents []string, intent string) bool {
	for _, i := range intents {
		if i == intent {
			return true
		}
	}
	return false
}
