package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for planning and hierarchy operations
type Metrics struct {
	// Planning metrics
	Analyses           *prometheus.CounterVec
	AnalysisDuration   *prometheus.HistogramVec
	AffectedComponents *prometheus.HistogramVec
	EstimatedBuildTime *prometheus.HistogramVec
	HotSwapVerdicts    *prometheus.CounterVec
	RestartVerdicts    *prometheus.CounterVec
	PlanWarnings       *prometheus.CounterVec
	Optimizations      *prometheus.CounterVec
	UnknownComponents  prometheus.Counter

	// Hierarchy metrics
	StructuralChanges *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	HierarchyNodes    prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all collectors registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Analyses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopeplan_analyses_total",
				Help: "Total number of impact analyses by requested scope",
			},
			[]string{"scope"},
		),
		AnalysisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scopeplan_analysis_duration_seconds",
				Help:    "Wall time spent computing a build plan",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"scope"},
		),
		AffectedComponents: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scopeplan_affected_components",
				Help:    "Number of components in a computed build order",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 250},
			},
			[]string{"scope"},
		),
		EstimatedBuildTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scopeplan_estimated_build_seconds",
				Help:    "Estimated build duration of computed plans",
				Buckets: []float64{30, 60, 120, 300, 600, 1200, 3600},
			},
			[]string{"scope"},
		),
		HotSwapVerdicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopeplan_hot_swap_verdicts_total",
				Help: "Hot-swap verdicts of computed plans",
			},
			[]string{"hot_swap"},
		),
		RestartVerdicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopeplan_restart_verdicts_total",
				Help: "Restart verdicts of computed plans",
			},
			[]string{"restart"},
		),
		PlanWarnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopeplan_plan_warnings_total",
				Help: "Warnings attached to computed plans by kind",
			},
			[]string{"kind"},
		),
		Optimizations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopeplan_optimizations_total",
				Help: "Duration refinements applied by the plan optimizer",
			},
			[]string{"rule"},
		),
		UnknownComponents: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "scopeplan_unknown_components_total",
				Help: "Catalog lookups that fell back to defaults",
			},
		),

		StructuralChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopeplan_structural_changes_total",
				Help: "Hierarchy structural operations by operation and outcome code",
			},
			[]string{"operation", "outcome"},
		),
		StatusTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopeplan_status_transitions_total",
				Help: "Component lifecycle status transitions",
			},
			[]string{"from", "to"},
		),
		HierarchyNodes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "scopeplan_hierarchy_nodes",
				Help: "Number of nodes currently owned by the hierarchy",
			},
		),
	}
}

// PlanOutcome is the subset of a build plan the metrics care about
type PlanOutcome struct {
	Scope      string
	Affected   int
	Estimated  time.Duration
	HotSwap    bool
	Restart    bool
	Elapsed    time.Duration
	Warnings   []string
	Unresolved int
}

// ObservePlan records one completed analysis. Safe on a nil receiver.
func (m *Metrics) ObservePlan(o PlanOutcome) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(o.Scope).Inc()
	m.AnalysisDuration.WithLabelValues(o.Scope).Observe(o.Elapsed.Seconds())
	m.AffectedComponents.WithLabelValues(o.Scope).Observe(float64(o.Affected))
	m.EstimatedBuildTime.WithLabelValues(o.Scope).Observe(o.Estimated.Seconds())
	m.HotSwapVerdicts.WithLabelValues(boolLabel(o.HotSwap)).Inc()
	m.RestartVerdicts.WithLabelValues(boolLabel(o.Restart)).Inc()
	for _, kind := range o.Warnings {
		m.PlanWarnings.WithLabelValues(kind).Inc()
	}
	if o.Unresolved > 0 {
		m.UnknownComponents.Add(float64(o.Unresolved))
	}
}

// ObserveOptimization records an optimizer rule firing. Safe on a nil receiver.
func (m *Metrics) ObserveOptimization(rule string) {
	if m == nil {
		return
	}
	m.Optimizations.WithLabelValues(rule).Inc()
}

// ObserveStructural records a structural hierarchy operation. Safe on a nil receiver.
func (m *Metrics) ObserveStructural(operation, outcome string) {
	if m == nil {
		return
	}
	m.StructuralChanges.WithLabelValues(operation, outcome).Inc()
}

// ObserveTransition records a lifecycle transition. Safe on a nil receiver.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

// SetNodes records the hierarchy size. Safe on a nil receiver.
func (m *Metrics) SetNodes(n int) {
	if m == nil {
		return
	}
	m.HierarchyNodes.Set(float64(n))
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
