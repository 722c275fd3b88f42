package report

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"insights-agent/internal/application/port/input"
	"insights-agent/internal/application/port/output"
	"insights-agent/internal/domain/entity"
	"insights-agent/internal/usecase/insights"
)

var _ input.ReportGenerator = (*Generator)(nil)

// Generator builds leadership reports from the current dataset and
// persists them.
type Generator struct {
	data   output.DatasetPort
	store  output.ReportStore
	logger output.LoggerPort

	// now is swappable for tests.
	now func() time.Time
}

func NewGenerator(data output.DatasetPort, store output.ReportStore, logger output.LoggerPort) *Generator {
	return &Generator{
		data:   data,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

const reportTemplate = `# 📊 Executive Leadership Report
**Generated:** {{.GeneratedAt}}

---

## 🎯 Overall Business Health: {{.HealthEmoji}} {{.Status}} ({{printf "%.0f" .M.HealthScore}}/100)

---

## 💰 Financial Performance

| Metric | Value | Status |
|--------|-------|--------|
| **Total Revenue** | {{money .M.TotalRevenue}} | {{.RevenueStatus}} |
| **Active Pipeline** | {{money .M.TotalPipeline}} | {{.PipelineStatus}} |
| **Realization Rate** | {{pct .M.RealizationRate}} | {{.RealizationStatus}} |
| **Collection Rate** | {{pct .C.CollectionRate}} | {{.CollectionStatus}} |

---

## 📈 Operational Metrics

- **Total Deals:** {{.M.TotalDeals}}
- **Win Rate:** {{pct .M.WinRate}} ({{.M.WonDeals}} won / {{.M.LostDeals}} lost)
- **Active Opportunities:** {{.M.ActiveDeals}} deals in progress
- **Weighted Open Pipeline:** {{money .P.WeightedPipeline}}
- **Top Performing Sector:** {{.TopSector}}

---

## 🏗️ Sales Funnel

{{.FunnelLines}}

---

## 🎯 CEO Action Items

1. **Revenue Growth:** {{.Action1}}
2. **Conversion:** {{.Action2}}
3. **Cash Flow:** {{.Action3}}

---

## 📢 Board-Ready Summary

We are currently operating at **{{.Status}}** levels with {{money .M.TotalRevenue}} in realized revenue
and {{money .M.TotalPipeline}} in active pipeline. The {{.TopSector}} sector is driving our growth with
a {{pct .M.WinRate}} win rate. {{.CollectionNote}}
`

var reportFuncs = template.FuncMap{
	"money": insights.Money,
	"pct":   insights.Pct,
}

// Generate computes all metrics, renders the markdown report and stores
// it.
func (g *Generator) Generate(ctx context.Context) (*entity.Report, error) {
	ds, err := g.data.Dataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if ds.Empty() {
		return nil, fmt.Errorf("no board data available to generate report")
	}

	m := insights.Conversion(ds)
	c := insights.Collections(ds)
	p := insights.Pipeline(ds)
	sectors := insights.Sectors(ds)
	funnel := insights.Funnel(ds)

	generatedAt := g.now()

	topSector := "N/A"
	if len(sectors) > 0 {
		topSector = sectors[0].Sector
	}

	markdown, err := g.render(m, c, p, topSector, funnel, generatedAt)
	if err != nil {
		return nil, err
	}

	r := entity.Report{
		ID:          uuid.NewString(),
		GeneratedAt: generatedAt,
		Markdown:    markdown,
		HealthScore: m.HealthScore,
		Revenue:     m.TotalRevenue,
		Pipeline:    m.TotalPipeline,
		Status:      m.HealthStatus(),
	}

	if err := g.store.SaveReport(ctx, r); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	g.logger.Info("Leadership report generated",
		"id", r.ID,
		"healthScore", r.HealthScore,
		"status", r.Status)
	return &r, nil
}

func (g *Generator) render(
	m entity.ConversionMetrics,
	c entity.CollectionsSummary,
	p entity.PipelineSummary,
	topSector string,
	funnel []entity.FunnelStage,
	generatedAt time.Time,
) (string, error) {
	healthEmoji := "🔴"
	if m.HealthScore > 70 {
		healthEmoji = "🟢"
	} else if m.HealthScore > 40 {
		healthEmoji = "🟡"
	}

	revenueStatus := "⚠️ Low"
	if m.TotalRevenue > 1000000 {
		revenueStatus = "✅ Strong"
	}
	pipelineStatus := "⚠️ Stagnant"
	if m.TotalPipeline > m.TotalRevenue {
		pipelineStatus = "✅ Growing"
	}
	realizationStatus := "⚠️ Needs Work"
	if m.RealizationRate > 50 {
		realizationStatus = "✅ Good"
	}
	collectionStatus := "⚠️ Poor"
	if c.CollectionRate > 80 {
		collectionStatus = "✅ Healthy"
	}

	action1 := "Generate new pipeline"
	if m.ActiveDeals > 5 {
		action1 = "Accelerate deal closures"
	}
	action2 := "Review sales process"
	if m.WinRate > 30 {
		action2 = "Maintain momentum"
	}
	action3 := "Optimize working capital"
	if c.Receivables > 1000000 {
		action3 = "Monitor receivables"
	}

	collectionNote := "Collections are on track."
	if c.CollectionRate < 70 {
		collectionNote = "Immediate attention required on collections."
	}

	var funnelLines []string
	for _, stage := range funnel {
		funnelLines = append(funnelLines, fmt.Sprintf("- %s: %s (%d deals)",
			stage.Stage, insights.Money(stage.Value), stage.Deals))
	}
	funnelText := "- No open deals in the funnel"
	if len(funnelLines) > 0 {
		funnelText = strings.Join(funnelLines, "\n")
	}

	tmpl := template.Must(template.New("report").Funcs(reportFuncs).Parse(reportTemplate))
	var b strings.Builder
	err := tmpl.Execute(&b, map[string]any{
		"M":                 m,
		"C":                 c,
		"P":                 p,
		"GeneratedAt":       generatedAt.Format("January 2, 2006 at 3:04 PM"),
		"HealthEmoji":       healthEmoji,
		"Status":            m.HealthStatus(),
		"TopSector":         topSector,
		"RevenueStatus":     revenueStatus,
		"PipelineStatus":    pipelineStatus,
		"RealizationStatus": realizationStatus,
		"CollectionStatus":  collectionStatus,
		"Action1":           action1,
		"Action2":           action2,
		"Action3":           action3,
		"CollectionNote":    collectionNote,
		"FunnelLines":       funnelText,
	})
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return b.String(), nil
}
