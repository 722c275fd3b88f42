package chat

import (
	"fmt"
	"strings"

	"insights-agent/internal/domain/entity"
	"insights-agent/internal/usecase/insights"
)

// Clarification topics, used to avoid asking about the same thing twice
// in a session.
const (
	askedSector  = "sector"
	askedQuarter = "quarter"
	askedVague   = "vague"
)

var vagueOpeners = []string{"how", "what", "tell me", "update", "status"}

var quarterTokens = []string{"q1", "q2", "q3", "q4", "first quarter", "second quarter", "third quarter", "fourth quarter", "last quarter", "this quarter"}

// NeedsClarification decides whether a query is too ambiguous to answer
// and, if so, returns the question to ask. sectors are the sector names
// present in the current dataset.
func NeedsClarification(query string, sectors []string, sc entity.SessionContext) (string, string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", "", false
	}

	if strings.Contains(q, "sector") && sc.ClarificationAskedFor != askedSector {
		if !mentionsKnownSector(q, sectors) && !wantsAllSectors(q) {
			return askedSector, sectorQuestion(sectors), true
		}
	}

	if strings.Contains(q, "quarter") && sc.ClarificationAskedFor != askedQuarter {
		if !mentionsQuarter(q) {
			return askedQuarter, "Which quarter would you like me to look at? For example Q1, Q2, or the last quarter.", true
		}
	}

	if sc.ClarificationAskedFor != askedVague && isVague(q) {
		return askedVague, "Could you be more specific? For example: \"How is our win rate?\", \"Show collections status\", or \"Give me a leadership summary\".", true
	}

	return "", "", false
}

// CombineQuery merges the original ambiguous query with the user's
// clarifying reply.
func CombineQuery(pending, reply string) string {
	pending = strings.TrimSpace(pending)
	reply = strings.TrimSpace(reply)
	if pending == "" {
		return reply
	}
	return fmt.Sprintf("%s (%s)", pending, reply)
}

func sectorQuestion(sectors []string) string {
	if len(sectors) == 0 {
		return "Which sector are you interested in?"
	}
	if len(sectors) > 5 {
		sectors = sectors[:5]
	}
	return fmt.Sprintf("Which sector are you interested in? We currently track: %s. You can also say \"all sectors\".",
		strings.Join(sectors, ", "))
}

func mentionsKnownSector(q string, sectors []string) bool {
	for _, s := range sectors {
		if s != "" && strings.Contains(q, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func wantsAllSectors(q string) bool {
	return strings.Contains(q, "all sector") ||
		strings.Contains(q, "every sector") ||
		strings.Contains(q, "by sector") ||
		strings.Contains(q, "across sector") ||
		strings.Contains(q, "sector breakdown") ||
		strings.Contains(q, "sector-wise") ||
		strings.Contains(q, "sector wise") ||
		strings.Contains(q, "which sector") ||
		strings.Contains(q, "top sector") ||
		strings.Contains(q, "best sector")
}

func mentionsQuarter(q string) bool {
	for _, tok := range quarterTokens {
		if strings.Contains(q, tok) {
			return true
		}
	}
	return false
}

// isVague flags very short queries with a generic opener and no business
// keyword the answer engine could route on.
func isVague(q string) bool {
	if len(strings.Fields(q)) >= 4 {
		return false
	}
	if len(insights.ExtractIntents(q)) > 0 {
		return false
	}
	for _, opener := range vagueOpeners {
		if strings.HasPrefix(q, opener) {
			return true
		}
	}
	return false
}
