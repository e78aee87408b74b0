package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/scopeplan/internal/catalog"
	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/errors"
)

func ids(values ...string) []component.ID {
	out := make([]component.ID, len(values))
	for i, v := range values {
		out[i] = component.ID(v)
	}
	return out
}

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.Empty(t, g.Nodes())
	assert.Zero(t, g.Len())
}

func TestAddEdgeMaintainsBothIndexes(t *testing.T) {
	g := New()
	g.AddEdge("dashboard.widgets.stats", "module.dashboard")
	g.AddEdge("dashboard.widgets.stats", "module.dashboard")
	g.AddEdge("dashboard.charts", "module.dashboard")

	assert.Equal(t, ids("module.dashboard"), g.DependenciesOf("dashboard.widgets.stats"))
	assert.Equal(t, ids("dashboard.charts", "dashboard.widgets.stats"), g.DependentsOf("module.dashboard"))
	assert.True(t, g.DependsOn("dashboard.charts", "module.dashboard"))
	assert.False(t, g.DependsOn("module.dashboard", "dashboard.charts"))
	assert.Equal(t, 2, g.Len())
	require.NoError(t, g.Verify())
}

func TestUnknownIDsHaveNoEdges(t *testing.T) {
	g := New()
	assert.Empty(t, g.DependenciesOf("missing"))
	assert.Empty(t, g.DependentsOf("missing"))
	assert.Empty(t, g.TransitiveDependents("missing"))
}

func TestTransitiveDependents(t *testing.T) {
	g := New()
	g.AddEdge("b", "a")
	g.AddEdge("c", "b")
	g.AddEdge("d", "b")
	g.AddEdge("e", "d")
	g.AddEdge("x", "y")

	assert.Equal(t, ids("b", "c", "d", "e"), g.TransitiveDependents("a"))
	assert.Equal(t, ids("e"), g.TransitiveDependents("d"))
	assert.Empty(t, g.TransitiveDependents("e"))
}

func TestTransitiveDependentsTerminatesOnCycles(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", "a")

	assert.ElementsMatch(t, ids("b", "c"), g.TransitiveDependents("a"))
}

func TestVerifyDetectsCorruptReverseIndex(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.dependents["b"]["ghost"] = struct{}{}

	err := g.Verify()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrGraphInconsistency))

	g = New()
	g.AddEdge("a", "b")
	delete(g.dependents["b"], "a")
	assert.True(t, errors.Is(g.Verify(), errors.ErrGraphInconsistency))
}

func TestEdgesAndNodesSorted(t *testing.T) {
	g := FromEdges(map[component.ID][]component.ID{
		"z.last":  {"a.first"},
		"m.mid":   {"a.first", "z.last"},
		"a.first": nil,
	})

	assert.Equal(t, []Edge{
		{From: "m.mid", To: "a.first"},
		{From: "m.mid", To: "z.last"},
		{From: "z.last", To: "a.first"},
	}, g.Edges())
	assert.Equal(t, ids("a.first", "m.mid", "z.last"), g.Nodes())
}

func TestFromEntries(t *testing.T) {
	g := FromEntries([]catalog.Entry{
		{ID: "svc.orders", DependsOn: ids("svc.billing", "core.bridgeModule")},
		{ID: "svc.billing", DependsOn: ids("core.bridgeModule")},
		{ID: "core.bridgeModule"},
	})

	assert.Equal(t, ids("svc.billing", "svc.orders"), g.DependentsOf("core.bridgeModule"))
	assert.Equal(t, 3, g.Len())
}

func TestTopologicalOrder(t *testing.T) {
	g := New()
	g.AddEdge("app.ui", "lib.core")
	g.AddEdge("app.ui", "lib.net")
	g.AddEdge("lib.net", "lib.core")
	g.AddEdge("lib.core", "outside.dep")

	order := g.TopologicalOrder(ids("app.ui", "lib.net", "lib.core", "lib.net"))

	assert.Empty(t, order.Cycles)
	assert.Equal(t, ids("lib.core", "lib.net", "app.ui"), order.Sequence)
}

func TestTopologicalOrderReportsCycles(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	g.AddEdge("c", "a")

	order := g.TopologicalOrder(ids("a", "b", "c"))

	assert.ElementsMatch(t, ids("a", "b", "c"), order.Sequence)
	require.Len(t, order.Cycles, 1)
	assert.Equal(t, "a -> b -> a", order.Cycles[0].String())
}

func TestTopologicalOrderIgnoresCyclesOutsideSubset(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	g.AddEdge("c", "a")

	order := g.TopologicalOrder(ids("a", "c"))
	assert.Empty(t, order.Cycles)
	assert.Equal(t, ids("a", "c"), order.Sequence)
}

func TestIndependentCount(t *testing.T) {
	g := New()
	g.AddEdge("b", "a")
	g.AddEdge("c", "outside")

	assert.Equal(t, 2, g.IndependentCount(ids("a", "b", "c")))
	assert.Equal(t, 1, g.IndependentCount(ids("a", "b")))
	assert.Equal(t, 0, g.IndependentCount(nil))
}

func TestFindCycleAndAcyclic(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	assert.Nil(t, g.FindCycle())
	assert.NoError(t, g.Acyclic())

	g.AddEdge("c", "a")
	cycle := g.FindCycle()
	assert.Equal(t, "a -> b -> c -> a", cycle.String())

	err := g.Acyclic()
	assert.True(t, errors.Is(err, errors.ErrDependencyCycle))
}
