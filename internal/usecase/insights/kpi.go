package insights

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"insights-agent/internal/domain/entity"
)

// KPI is a user-defined metric evaluated against the base metric
// environment.
type KPI struct {
	Name string
	Expr string
}

// KPIEngine compiles and evaluates custom KPI expressions. Programs are
// compiled once and cached.
type KPIEngine struct {
	kpis []KPI

	mu       sync.Mutex
	programs map[string]*vm.Program
}

func NewKPIEngine(kpis []KPI) *KPIEngine {
	return &KPIEngine{
		kpis:     kpis,
		programs: make(map[string]*vm.Program),
	}
}

// MetricEnv exposes the base metrics to KPI expressions.
func MetricEnv(m entity.ConversionMetrics, c entity.CollectionsSummary) map[string]interface{} {
	return map[string]interface{}{
		"total_deals":      m.TotalDeals,
		"won_deals":        m.WonDeals,
		"lost_deals":       m.LostDeals,
		"active_deals":     m.ActiveDeals,
		"win_rate":         m.WinRate,
		"conversion_rate":  m.ConversionRate,
		"total_pipeline":   m.TotalPipeline,
		"total_revenue":    m.TotalRevenue,
		"realization_rate": m.RealizationRate,
		"health_score":     m.HealthScore,
		"total_billed":     c.TotalBilled,
		"total_collected":  c.TotalCollected,
		"collection_rate":  c.CollectionRate,
		"receivables":      c.Receivables,
	}
}

// Validate compiles every configured expression against the metric
// environment and reports the ones that do not compile.
func (e *KPIEngine) Validate() []error {
	env := MetricEnv(entity.ConversionMetrics{}, entity.CollectionsSummary{})
	var errs []error
	for _, kpi := range e.kpis {
		if _, err := e.program(kpi.Expr, env); err != nil {
			errs = append(errs, fmt.Errorf("kpi %q: %w", kpi.Name, err))
		}
	}
	return errs
}

// Evaluate runs every configured KPI against the environment. A KPI that
// fails to compile or run is reported as an error without aborting the
// rest.
func (e *KPIEngine) Evaluate(env map[string]interface{}) (map[string]float64, []error) {
	results := make(map[string]float64, len(e.kpis))
	var errs []error

	for _, kpi := range e.kpis {
		program, err := e.program(kpi.Expr, env)
		if err != nil {
			errs = append(errs, fmt.Errorf("kpi %q: %w", kpi.Name, err))
			continue
		}
		out, err := expr.Run(program, env)
		if err != nil {
			errs = append(errs, fmt.Errorf("kpi %q: %w", kpi.Name, err))
			continue
		}
		value, ok := toFloat(out)
		if !ok {
			errs = append(errs, fmt.Errorf("kpi %q: result %v is not numeric", kpi.Name, out))
			continue
		}
		results[kpi.Name] = value
	}
	return results, errs
}

func (e *KPIEngine) program(src string, env map[string]interface{}) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.programs[src]; ok {
		return p, nil
	}
	p, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return nil, err
	}
	e.programs[src] = p
	return p, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
