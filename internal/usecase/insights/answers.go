package insights

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"insights-agent/internal/application/port/output"
	"insights-agent/internal/domain/entity"
)

// Engine produces deterministic markdown answers from the current
// dataset, routed by query intent.
type Engine struct {
	kpi    *KPIEngine
	logger output.LoggerPort
}

func NewEngine(kpis []KPI, log output.LoggerPort) *Engine {
	return &Engine{kpi: NewKPIEngine(kpis), logger: log}
}

// ValidateKPIs compile-checks every configured KPI expression so a bad
// one is reported at startup instead of silently dropping out of
// answers.
func (e *Engine) ValidateKPIs() []error {
	return e.kpi.Validate()
}

// Answer analyzes the query and returns a markdown answer plus the
// detected intents.
func (e *Engine) Answer(query string, ds *entity.Dataset) (string, []string) {
	intents := ExtractIntents(query)
	lower := strings.ToLower(query)

	metrics := Conversion(ds)
	collections := Collections(ds)
	sectors := Sectors(ds)

	switch {
	case hasIntent(intents, IntentConversion) || containsAny(lower,
		"effectively", "efficiency", "win rate", "close rate", "converting"):
		return e.conversionAnswer(metrics), intents
	case hasIntent(intents, IntentCollection):
		return e.collectionsAnswer(collections), intents
	case hasIntent(intents, IntentSector):
		return e.sectorAnswer(sectors), intents
	case hasIntent(intents, IntentRevenue):
		return e.revenueAnswer(metrics, collections), intents
	case hasIntent(intents, IntentPipeline):
		return e.pipelineAnswer(metrics), intents
	case hasIntent(intents, IntentTrends):
		return e.trendsAnswer(metrics, collections), intents
	case hasIntent(intents, IntentLeadership) || hasIntent(intents, IntentPerformance):
		return e.leadershipAnswer(metrics, collections, sectors), intents
	default:
		return e.fallbackAnswer(query, metrics, intents), intents
	}
}

// FollowUps suggests follow-up questions for intents that have natural
// next steps.
func FollowUps(intents []string) []string {
	switch {
	case hasIntent(intents, IntentPipeline):
		return []string{
			"Which deals are at risk?",
			"What's our average deal size?",
			"How long is our sales cycle?",
		}
	case hasIntent(intents, IntentRevenue):
		return []string{
			"What's outstanding in receivables?",
			"Which sector drives most revenue?",
			"How does this compare to last quarter?",
		}
	default:
		return nil
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var answerFuncs = template.FuncMap{
	"money": Money,
	"pct":   Pct,
}

func render(name, text string, data any) string {
	tmpl := template.Must(template.New(name).Funcs(answerFuncs).Parse(text))
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return fmt.Sprintf("Failed to render answer: %v", err)
	}
	return strings.TrimSpace(b.String())
}

func healthEmoji(score float64) string {
	switch {
	case score > 70:
		return "🟢"
	case score > 40:
		return "🟡"
	default:
		return "🔴"
	}
}

const conversionTemplate = `
🎯 **Pipeline Conversion Effectiveness Analysis**

**Conversion Metrics:**
• Total Deals: **{{.M.TotalDeals}}**
• Won: **{{.M.WonDeals}}** | Lost: **{{.M.LostDeals}}** | Active: **{{.M.ActiveDeals}}**
• **Win Rate: {{pct .M.WinRate}}** (closed deals only)
• **Overall Conversion: {{pct .M.ConversionRate}}** (all deals)

**Financial Realization:**
• Pipeline Value: {{money .M.TotalPipeline}}
• Realized Revenue: {{money .M.TotalRevenue}}
• **Realization Rate: {{pct .M.RealizationRate}}**
• Pipeline Health Score: **{{.HealthLabel}}** ({{printf "%.0f" .M.HealthScore}}/100)

**Assessment:**
{{.Assessment}}

**Recommendations:**
1. {{.Rec1}}
2. {{.Rec2}}
3. {{.Rec3}}
`

func (e *Engine) conversionAnswer(m entity.ConversionMetrics) string {
	assessment := "⚠️ Revenue significantly lags pipeline. Focus on deal qualification and closing techniques."
	if m.RealizationRate > 80 {
		assessment = "✅ Excellent conversion efficiency! Revenue closely matches pipeline."
	} else if m.RealizationRate > 50 {
		assessment = "✅ Good conversion rate. Monitor pipeline quality."
	}

	rec1 := "Review sales methodology and training"
	if m.WinRate > 40 {
		rec1 = "Maintain current sales process"
	}
	rec2 := "Generate new pipeline"
	if m.ActiveDeals > m.WonDeals {
		rec2 = "Accelerate active deal closure"
	}
	rec3 := "Scale successful approaches"
	if m.LostDeals > m.WonDeals {
		rec3 = "Improve deal qualification to reduce losses"
	}

	return render("conversion", conversionTemplate, map[string]any{
		"M":           m,
		"HealthLabel": healthEmoji(m.HealthScore) + " " + m.HealthStatus(),
		"Assessment":  assessment,
		"Rec1":        rec1,
		"Rec2":        rec2,
		"Rec3":        rec3,
	})
}

const collectionsTemplate = `
💰 **Collection & Receivables Analysis**

**Collection Performance:**
• Total Billed: {{money .C.TotalBilled}}
• Total Collected: {{money .C.TotalCollected}}
• Outstanding Receivables: {{money .C.Receivables}}
• **Collection Rate: {{pct .C.CollectionRate}}**

**Cash Flow Health:**
{{.Health}}

**Action Items:**
1. {{.Action1}}
2. {{.Action2}}
3. Consider early payment incentives or automated reminders
`

func (e *Engine) collectionsAnswer(c entity.CollectionsSummary) string {
	if c.TotalBilled == 0 {
		return "❌ Collection data not available in work orders."
	}

	health := "🔴 Poor collection rate. Immediate attention required on receivables."
	if c.CollectionRate > 90 {
		health = "✅ Excellent collection rate. Strong cash flow position."
	} else if c.CollectionRate > 70 {
		health = "⚠️ Moderate collections. Monitor aging receivables."
	}

	action1 := "Implement stricter payment terms"
	if c.CollectionRate > 90 {
		action1 = "Continue proactive collection practices"
	}
	action2 := "Maintain current credit policies"
	if c.Receivables > c.TotalBilled*0.2 {
		action2 = "Review outstanding invoices >30 days"
	}

	return render("collections", collectionsTemplate, map[string]any{
		"C":       c,
		"Health":  health,
		"Action1": action1,
		"Action2": action2,
	})
}

const sectorTemplate = `
🏆 **Sector Performance Analysis**

**Top Performing Sector: {{.Top.Sector}}**
• Revenue: {{money .Top.Revenue}} ({{pct .TopShare}} of total)
• Deals: {{.Top.DealCount}}

**Sector Breakdown:**
{{.Breakdown}}

**Strategic Insights:**
• {{.Diversification}}
• {{.Opportunity}}

**Recommendations:**
1. Double down on {{.Top.Sector}} success factors
2. {{.Rec2}}
3. Align marketing spend with high-conversion sectors
`

func (e *Engine) sectorAnswer(sectors []entity.SectorStat) string {
	if len(sectors) == 0 {
		return "❌ Sector data not available in work orders."
	}

	var total float64
	for _, s := range sectors {
		total += s.Revenue
	}

	top := sectors[0]
	topShare := 0.0
	if total > 0 {
		topShare = top.Revenue / total * 100
	}

	var lines []string
	for i, s := range sectors {
		if i >= 5 {
			break
		}
		share := 0.0
		if total > 0 {
			share = s.Revenue / total * 100
		}
		lines = append(lines, fmt.Sprintf("  • %s: %s (%s) - %d deals",
			s.Sector, Money(s.Revenue), Pct(share), s.DealCount))
	}

	diversification := fmt.Sprintf("Heavy reliance on %s - consider diversification", top.Sector)
	if topShare < 50 {
		diversification = "Revenue is well-diversified across sectors"
	}
	opportunity := "Focus on core competency expansion"
	if len(sectors) > 3 {
		opportunity = "Opportunity to strengthen secondary sectors"
	}
	rec2 := "Develop additional sector expertise"
	if len(sectors) > 1 {
		rec2 = "Invest in underperforming sectors"
	}

	return render("sector", sectorTemplate, map[string]any{
		"Top":             top,
		"TopShare":        topShare,
		"Breakdown":       strings.Join(lines, "\n"),
		"Diversification": diversification,
		"Opportunity":     opportunity,
		"Rec2":            rec2,
	})
}

const revenueTemplate = `
💰 **Revenue Analysis**

**Realized Revenue:**
• Total Billed: {{money .M.TotalRevenue}}
• Collected: {{money .C.TotalCollected}}
• Collection Efficiency: {{pct .C.CollectionRate}}

**Revenue vs Pipeline:**
• Pipeline: {{money .M.TotalPipeline}}
• Conversion Gap: {{money .Gap}}

**Performance Indicators:**
{{.Indicator1}}
{{.Indicator2}}

**Focus Areas:**
1. Convert remaining pipeline to revenue ({{.M.ActiveDeals}} active deals)
2. {{.Focus2}}
3. Review pricing in top sectors
`

func (e *Engine) revenueAnswer(m entity.ConversionMetrics, c entity.CollectionsSummary) string {
	indicator1 := "⚠️ Gap between pipeline and revenue needs attention"
	if m.RealizationRate > 60 {
		indicator1 = "✅ Revenue realization is strong"
	}
	indicator2 := "⚠️ Improve collection processes"
	if c.CollectionRate > 80 {
		indicator2 = "✅ Collections are healthy"
	}
	focus2 := "Maintain collection momentum"
	if c.CollectionRate < 90 {
		focus2 = "Accelerate collections"
	}

	return render("revenue", revenueTemplate, map[string]any{
		"M":          m,
		"C":          c,
		"Gap":        m.TotalPipeline - m.TotalRevenue,
		"Indicator1": indicator1,
		"Indicator2": indicator2,
		"Focus2":     focus2,
	})
}

const pipelineTemplate = `
📈 **Pipeline Overview**

**Current Pipeline Status:**
• Total Value: {{money .M.TotalPipeline}}
• Total Deals: {{.M.TotalDeals}}
• Active Opportunities: {{.M.ActiveDeals}}
• Won: {{.M.WonDeals}} | Lost: {{.M.LostDeals}}

**Deal Status Distribution:**
{{.Distribution}}

**Pipeline Health:**
• Win Rate: {{pct .M.WinRate}}
• Most Common Status: {{.MostCommon}}

**Strategic Insight:**
The pipeline of {{money .M.TotalPipeline}} represents {{.Potential}} future revenue potential.
{{.NextStep}}
`

func (e *Engine) pipelineAnswer(m entity.ConversionMetrics) string {
	var lines []string
	mostCommon := "N/A"
	best := 0
	for _, status := range sortedStatuses(m.StatusCounts) {
		count := m.StatusCounts[status]
		if len(lines) < 5 {
			lines = append(lines, fmt.Sprintf("  • %s: %d", status, count))
		}
		if count > best {
			best = count
			mostCommon = status
		}
	}
	distribution := "  • No status data available"
	if len(lines) > 0 {
		distribution = strings.Join(lines, "\n")
	}

	potential := "concerning"
	if m.TotalPipeline > m.TotalRevenue {
		potential = "strong"
	}
	nextStep := "Generate new opportunities to replenish pipeline."
	if m.ActiveDeals > 0 {
		nextStep = "Focus on closing active deals to realize value."
	}

	return render("pipeline", pipelineTemplate, map[string]any{
		"M":            m,
		"Distribution": distribution,
		"MostCommon":   mostCommon,
		"Potential":    potential,
		"NextStep":     nextStep,
	})
}

const trendsTemplate = `
📊 **Business Trends & Trajectory**

**Current Position:**
• Revenue: {{money .M.TotalRevenue}}
• Pipeline: {{money .M.TotalPipeline}}
• Ratio (Rev/Pipe): {{pct .M.RealizationRate}}

**Trend Indicators:**
• {{.Growth}}
• {{.WinTrend}} ({{pct .M.WinRate}})
• {{.CollectionTrend}}

*Note: Connect time-series data for month-over-month trend analysis*
`

func (e *Engine) trendsAnswer(m entity.ConversionMetrics, c entity.CollectionsSummary) string {
	growth := "Maturing: Revenue catching up to pipeline"
	if m.TotalPipeline > m.TotalRevenue {
		growth = "Growing: Pipeline exceeds revenue"
	}
	winTrend := "Improve win rate needed"
	if m.WinRate > 30 {
		winTrend = "Healthy win rate"
	}
	collectionTrend := "Collection process needs optimization"
	if c.CollectionRate > 80 {
		collectionTrend = "Strong collection foundation"
	}

	return render("trends", trendsTemplate, map[string]any{
		"M":               m,
		"Growth":          growth,
		"WinTrend":        winTrend,
		"CollectionTrend": collectionTrend,
	})
}

const leadershipTemplate = `
📢 **Executive Leadership Summary**

{{.HealthEmoji}} **Overall Health Score: {{printf "%.0f" .M.HealthScore}}/100**

**Financial Snapshot:**
• 💰 Revenue Realized: {{money .M.TotalRevenue}}
• 📈 Active Pipeline: {{money .M.TotalPipeline}}
• 🎯 Conversion Rate: {{pct .M.ConversionRate}}
• 💵 Collection Rate: {{pct .C.CollectionRate}}

**Operational Highlights:**
• Top Sector: {{.TopSector}}
• Deal Success: {{.M.WonDeals}} won / {{.M.LostDeals}} lost
• Outstanding Receivables: {{money .C.Receivables}}

**CEO Priorities:**
1. **Conversion:** {{.Priority1}}
2. **Cash Flow:** {{.Priority2}}
3. **Growth:** {{.Priority3}}
{{if .KPILines}}
**Custom KPIs:**
{{.KPILines}}
{{end}}
**Board-Ready Insight:**
We are {{.BoardInsight}}.
`

func (e *Engine) leadershipAnswer(m entity.ConversionMetrics, c entity.CollectionsSummary, sectors []entity.SectorStat) string {
	topSector := "N/A"
	if len(sectors) > 0 {
		topSector = sectors[0].Sector
	}

	priority1 := "Fix funnel - too many losses"
	if m.ConversionRate > 40 {
		priority1 = "Scale success"
	}
	priority2 := "Maintain strong collections"
	if c.Receivables > m.TotalRevenue*0.3 {
		priority2 = "Optimize working capital"
	}
	priority3 := "Dominate top sectors"
	if len(sectors) < 3 {
		priority3 = "Diversify sectors"
	}

	boardInsight := "in critical need of strategy reset"
	if m.HealthScore > 70 {
		boardInsight = "hitting targets with strong unit economics"
	} else if m.HealthScore > 40 {
		boardInsight = "operationally challenged but fixable"
	}

	return render("leadership", leadershipTemplate, map[string]any{
		"M":            m,
		"C":            c,
		"HealthEmoji":  healthEmoji(m.HealthScore),
		"TopSector":    topSector,
		"Priority1":    priority1,
		"Priority2":    priority2,
		"Priority3":    priority3,
		"KPILines":     e.kpiLines(m, c),
		"BoardInsight": boardInsight,
	})
}

const fallbackTemplate = `
📊 **Business Intelligence Summary**

I analyzed your query: *"{{.Query}}"*

**Available Metrics:**
• Revenue: {{money .M.TotalRevenue}}
• Pipeline: {{money .M.TotalPipeline}}
• Win Rate: {{pct .M.WinRate}}
• Active Deals: {{.M.ActiveDeals}}

**Try asking about:**
• "How effective is our pipeline conversion?"
• "Which sector performs best?"
• "What's our collection rate?"
• "Give me a leadership summary"
• "Are we converting pipeline effectively?"

*Detected intents: {{.Intents}}*
`

func (e *Engine) fallbackAnswer(query string, m entity.ConversionMetrics, intents []string) string {
	detected := "General inquiry"
	if len(intents) > 0 {
		detected = strings.Join(intents, ", ")
	}

	return render("fallback", fallbackTemplate, map[string]any{
		"Query":   query,
		"M":       m,
		"Intents": detected,
	})
}

// kpiLines renders the configured custom KPIs, or "" when none are
// defined or all fail.
func (e *Engine) kpiLines(m entity.ConversionMetrics, c entity.CollectionsSummary) string {
	values, errs := e.kpi.Evaluate(MetricEnv(m, c))
	for _, err := range errs {
		e.logger.Warn("Custom KPI failed", "error", err)
	}
	if len(values) == 0 {
		return ""
	}

	var lines []string
	for _, kpi := range e.kpi.kpis {
		if v, ok := values[kpi.Name]; ok {
			lines = append(lines, fmt.Sprintf("• %s: %.2f", kpi.Name, v))
		}
	}
	return strings.Join(lines, "\n")
}

// sortedStatuses orders statuses by count descending, name as tie-break.
func sortedStatuses(counts map[string]int) []string {
	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool {
		if counts[statuses[i]] != counts[statuses[j]] {
			return counts[statuses[i]] > counts[statuses[j]]
		}
		return statuses[i] < statuses[j]
	})
	return statuses
}
