// Package scope computes build plans for component changes.
//
// An Analyzer combines the catalog, the dependency graph and the module
// structure to decide which components a change touches, in what order they
// must be rebuilt, how long that should take and whether the result can be
// applied without a restart. Planning never fails on unknown components;
// missing catalog entries fall back to conservative defaults and are reported
// as plan warnings.
package scope

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/scopeplan/internal/catalog"
	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/graph"
	"github.com/felixgeelhaar/scopeplan/internal/hierarchy"
	"github.com/felixgeelhaar/scopeplan/internal/log"
	"github.com/felixgeelhaar/scopeplan/internal/metrics"
	"github.com/felixgeelhaar/scopeplan/internal/telemetry"
)

const (
	// DefaultProtocolComponent is the cross-cutting component whose changes
	// always require a full rebuild
	DefaultProtocolComponent component.ID = "core.bridgeModule"

	// DefaultParallelFactor scales the estimate of plans with more than one
	// independently schedulable component. It is a flat approximation of
	// parallel scheduling, not a critical-path computation.
	DefaultParallelFactor = 0.7

	// FullBuildDuration is the fixed estimate of a full rebuild
	FullBuildDuration = 300 * time.Second

	// HotSwapDurationCap bounds the estimate of an isolated hot swap
	HotSwapDurationCap = 30 * time.Second

	// FullBuildMarker and AllMarker fill the fixed full-rebuild plan
	FullBuildMarker component.ID = "full"
	AllMarker                    = "all"
)

// Analyzer computes and refines build plans. It is safe for concurrent use
// as long as its collaborators are.
type Analyzer struct {
	catalog   catalog.Catalog
	graph     *graph.Graph
	structure hierarchy.Structure

	logger         *log.Logger
	metrics        *metrics.Metrics
	protocol       component.ID
	manifest       string
	parallelFactor float64
	newRunID       func() string
	clock          func() time.Time
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLogger sets the analyzer logger
func WithLogger(l *log.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithMetrics enables Prometheus instrumentation
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithProtocolComponent overrides the component whose changes force a full
// rebuild
func WithProtocolComponent(id component.ID) Option {
	return func(a *Analyzer) {
		if id != "" {
			a.protocol = id
		}
	}
}

// WithManifestEntry overrides the catalog manifest document id
func WithManifestEntry(entry string) Option {
	return func(a *Analyzer) { a.manifest = entry }
}

// WithParallelFactor overrides DefaultParallelFactor. Values outside (0, 1]
// are ignored.
func WithParallelFactor(f float64) Option {
	return func(a *Analyzer) {
		if f > 0 && f <= 1 {
			a.parallelFactor = f
		}
	}
}

// WithRunIDs replaces the uuid run id generator
func WithRunIDs(fn func() string) Option {
	return func(a *Analyzer) { a.newRunID = fn }
}

// WithClock replaces the clock used to time analyses
func WithClock(fn func() time.Time) Option {
	return func(a *Analyzer) { a.clock = fn }
}

// New creates an Analyzer. A nil graph or structure behaves as empty; a nil
// catalog resolves every component to defaults.
func New(c catalog.Catalog, g *graph.Graph, s hierarchy.Structure, opts ...Option) *Analyzer {
	if g == nil {
		g = graph.New()
	}
	if s == nil {
		s = hierarchy.NewLayout(nil)
	}
	a := &Analyzer{
		catalog:        c,
		graph:          g,
		structure:      s,
		protocol:       DefaultProtocolComponent,
		parallelFactor: DefaultParallelFactor,
		newRunID:       uuid.NewString,
		clock:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = log.OrDefault(a.logger)
	return a
}

// AnalyzeImpact computes the build plan for instr. It fails only on a
// malformed instruction.
func (a *Analyzer) AnalyzeImpact(ctx context.Context, instr Instruction) (BuildPlan, error) {
	instr = instr.Normalize()
	runID := a.newRunID()
	ctx, span := telemetry.StartAnalysisSpan(ctx, runID, string(instr.Target), string(instr.Scope), string(instr.Action))
	defer span.End()

	logger := a.logger.With("run_id", runID, "target", string(instr.Target), "scope", string(instr.Scope))

	if err := instr.Validate(); err != nil {
		telemetry.RecordError(span, err)
		logger.WithError(err).WarnContext(ctx, "rejected build instruction")
		return BuildPlan{}, err
	}

	start := a.clock()
	var plan BuildPlan
	var unresolved int
	if instr.Scope == component.ScopeFull {
		plan = fullPlan(instr)
	} else {
		plan, unresolved = a.plan(ctx, logger, instr)
	}
	elapsed := a.clock().Sub(start)

	a.metrics.ObservePlan(metrics.PlanOutcome{
		Scope:      string(instr.Scope),
		Affected:   len(plan.BuildOrder),
		Estimated:  plan.EstimatedDuration,
		HotSwap:    plan.CanHotSwap,
		Restart:    plan.RequiresRestart,
		Elapsed:    elapsed,
		Warnings:   warningKinds(plan.Warnings),
		Unresolved: unresolved,
	})
	telemetry.RecordSuccess(span,
		attribute.Int("scopeplan.affected", len(plan.BuildOrder)),
		attribute.Int("scopeplan.warnings", len(plan.Warnings)),
		attribute.Bool("scopeplan.hot_swap", plan.CanHotSwap),
		attribute.Bool("scopeplan.restart", plan.RequiresRestart),
	)
	logger.DebugContext(ctx, "build plan computed",
		"affected", len(plan.BuildOrder),
		"estimated", plan.EstimatedDuration.String(),
		"hot_swap", plan.CanHotSwap,
		"restart", plan.RequiresRestart,
	)
	return plan, nil
}

func fullPlan(instr Instruction) BuildPlan {
	return BuildPlan{
		Target:            instr.Target,
		Scope:             instr.Scope,
		Action:            instr.Action,
		Dependents:        []component.ID{},
		Tests:             []string{AllMarker},
		Documents:         []string{AllMarker},
		EstimatedDuration: FullBuildDuration,
		BuildOrder:        []component.ID{FullBuildMarker},
		CanHotSwap:        false,
		RequiresRestart:   true,
	}
}

// plan handles every scope except Full. The second result counts affected
// components that had no catalog entry.
func (a *Analyzer) plan(ctx context.Context, logger *log.Logger, instr Instruction) (BuildPlan, int) {
	target := instr.Target
	affected := newOrderedSet(target)
	var warnings []Warning
	var parentTest string

	switch instr.Scope {
	case component.ScopeComponent:
		dependents := a.graph.DependentsOf(target)
		if len(dependents) > 0 {
			logger.InfoContext(ctx, "dependents found", "dependents", component.Strings(dependents))
		}
		affected.add(dependents...)

	case component.ScopeSubmodule:
		if parent, ok := a.structure.ParentModule(target); ok {
			affected.add(parent)
			parentTest = parent.TestID()
		} else {
			warnings = append(warnings, Warning{
				Kind:    WarningNoParentModule,
				Message: fmt.Sprintf("%s has no known parent module", target),
			})
		}

	case component.ScopeModule:
		affected.add(a.structure.Submodules(target)...)
		affected.add(a.graph.TransitiveDependents(target)...)

	case component.ScopeSystem:
		affected.add(a.structure.Modules()...)
	}

	order := a.graph.TopologicalOrder(affected.items)
	for _, cycle := range order.Cycles {
		logger.WarnContext(ctx, "dependency cycle among affected components", "cycle", cycle.String())
		warnings = append(warnings, Warning{
			Kind:    WarningCycle,
			Message: fmt.Sprintf("dependency cycle %s; build order is best-effort", cycle),
		})
	}

	plan := BuildPlan{
		Target:     target,
		Scope:      instr.Scope,
		Action:     instr.Action,
		BuildOrder: order.Sequence,
		Dependents: []component.ID{},
		Documents:  []string{},
		CanHotSwap: instr.HotSwap,
	}

	tests := newOrderedSet[string]()
	tests.add(instr.Tests...)

	unresolved := 0
	for _, id := range order.Sequence {
		if id != target {
			plan.Dependents = append(plan.Dependents, id)
		}

		entry := catalog.Resolve(a.catalog, id)
		if !entry.Known {
			unresolved++
			logger.DebugContext(ctx, "component not in catalog, using defaults", "component", string(id))
			warnings = append(warnings, Warning{
				Kind:    WarningUnknownComponent,
				Message: fmt.Sprintf("%s is not in the catalog; assumed %s and no hot swap", id, entry.BuildTime),
			})
		}
		plan.EstimatedDuration += entry.BuildTime
		tests.add(entry.Tests...)

		if !a.canHotSwap(id, entry) {
			plan.CanHotSwap = false
		}
		if id.IsSystemCritical() {
			plan.RequiresRestart = true
		}
	}
	if instr.Scope == component.ScopeSystem {
		plan.RequiresRestart = true
	}

	if parentTest != "" {
		tests.add(parentTest)
	}
	plan.Tests = tests.items
	if plan.Tests == nil {
		plan.Tests = []string{}
	}

	if instr.Action.ChangesSurface() {
		plan.Documents = append(plan.Documents, target.Doc(), a.manifestEntry())
	}

	plan.Warnings = warnings
	return plan, unresolved
}

// OptimizeBuildPlan refines the duration estimate of plan. The affected set,
// build order and verdicts are never changed.
//
// Two rules apply in order: an isolated hot swap is capped at
// HotSwapDurationCap, and a build order with more than one independently
// schedulable component is scaled by the parallel factor.
func (a *Analyzer) OptimizeBuildPlan(plan BuildPlan) BuildPlan {
	out := plan.clone()

	if out.CanHotSwap && len(out.Dependents) == 0 && out.EstimatedDuration > HotSwapDurationCap {
		out.EstimatedDuration = HotSwapDurationCap
		a.metrics.ObserveOptimization("hot_swap_cap")
	}

	if a.graph.IndependentCount(out.BuildOrder) > 1 {
		scaled := float64(out.EstimatedDuration) * a.parallelFactor
		out.EstimatedDuration = time.Duration(math.Round(scaled/float64(time.Millisecond))) * time.Millisecond
		a.metrics.ObserveOptimization("parallel")
	}

	return out
}

// CheckDependencies returns the components that directly depend on id, sorted
func (a *Analyzer) CheckDependencies(id component.ID) []component.ID {
	return a.graph.DependentsOf(id)
}

// CanHotSwap reports whether id may be replaced without a restart. Core
// components never can; others follow the catalog flag.
func (a *Analyzer) CanHotSwap(id component.ID) bool {
	return a.canHotSwap(id, catalog.Resolve(a.catalog, id))
}

func (a *Analyzer) canHotSwap(id component.ID, e catalog.Entry) bool {
	return !id.IsSystemCritical() && e.HotSwap
}

// RequiresFullRebuild reports whether instr touches the protocol component or
// updates the whole system.
func (a *Analyzer) RequiresFullRebuild(instr Instruction) bool {
	instr = instr.Normalize()
	if instr.Target == a.protocol {
		return true
	}
	return instr.Action == component.ActionUpdate && instr.Scope == component.ScopeSystem
}

// ProtocolComponent returns the component whose changes force a full rebuild
func (a *Analyzer) ProtocolComponent() component.ID {
	return a.protocol
}

func (a *Analyzer) manifestEntry() string {
	if a.manifest != "" {
		return a.manifest
	}
	if a.catalog != nil && a.catalog.Manifest() != "" {
		return a.catalog.Manifest()
	}
	return catalog.DefaultManifest
}

// orderedSet keeps first-insertion order and ignores duplicates
type orderedSet[T comparable] struct {
	items []T
	seen  map[T]struct{}
}

func newOrderedSet[T comparable](initial ...T) *orderedSet[T] {
	s := &orderedSet[T]{seen: make(map[T]struct{})}
	s.add(initial...)
	return s
}

func (s *orderedSet[T]) add(values ...T) {
	for _, v := range values {
		if _, ok := s.seen[v]; ok {
			continue
		}
		s.seen[v] = struct{}{}
		s.items = append(s.items, v)
	}
}
