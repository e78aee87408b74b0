package hierarchy

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/errors"
	"github.com/felixgeelhaar/scopeplan/internal/log"
	"github.com/felixgeelhaar/scopeplan/internal/version"
)

var plainFactory = FactoryFunc(NewNode)

func newTestHierarchy() *Hierarchy {
	return New(Options{Logger: log.Discard()})
}

func mustCreate(t *testing.T, h *Hierarchy, id string, level component.Level, parent string, deps ...string) {
	t.Helper()
	d := Descriptor{ID: component.ID(id), Level: level, Version: version.New(1, 0, 0)}
	for _, dep := range deps {
		d.DependsOn = append(d.DependsOn, component.ID(dep))
	}
	_, err := h.Create(plainFactory, d, component.ID(parent))
	require.NoError(t, err)
}

// dashboardTree builds app > module.dashboard > two submodules > widget
func dashboardTree(t *testing.T) *Hierarchy {
	h := newTestHierarchy()
	mustCreate(t, h, "app.main", component.LevelApp, "")
	mustCreate(t, h, "module.dashboard", component.LevelModule, "app.main")
	mustCreate(t, h, "dashboard.widgets", component.LevelSubmodule, "module.dashboard")
	mustCreate(t, h, "dashboard.charts", component.LevelSubmodule, "module.dashboard")
	mustCreate(t, h, "dashboard.widgets.stats", component.LevelWidget, "dashboard.widgets", "module.dashboard")
	return h
}

func TestCreateAttachesUnderParent(t *testing.T) {
	h := dashboardTree(t)

	assert.Equal(t, 5, h.Len())
	assert.Equal(t, []component.ID{"app.main"}, h.Roots())
	assert.Equal(t, []component.ID{"dashboard.widgets", "dashboard.charts"}, h.Children("module.dashboard"))

	parent, ok := h.Parent("dashboard.widgets.stats")
	require.True(t, ok)
	assert.Equal(t, component.ID("dashboard.widgets"), parent)

	info, ok := h.Get("dashboard.widgets.stats")
	require.True(t, ok)
	assert.Equal(t, StatusUninitialized, info.Status)
	assert.Equal(t, HealthHealthy, info.Health)
	assert.Equal(t, []component.ID{"module.dashboard"}, info.DependsOn)
}

func TestInsertRejectsDuplicatesAndUnknownParents(t *testing.T) {
	h := dashboardTree(t)

	_, err := h.Create(plainFactory, Descriptor{ID: "app.main", Level: component.LevelApp}, "")
	assert.True(t, errors.Is(err, errors.ErrDuplicateNode))

	_, err = h.Create(plainFactory, Descriptor{ID: "orphan", Level: component.LevelTask}, "missing")
	assert.True(t, errors.Is(err, errors.ErrNodeNotFound))
	assert.Equal(t, 5, h.Len())
}

func TestAddChildRejectsHeavierChild(t *testing.T) {
	h := newTestHierarchy()
	mustCreate(t, h, "app.main", component.LevelApp, "")
	mustCreate(t, h, "module.dashboard", component.LevelModule, "")

	err := h.AddChild("app.main", "module.dashboard")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrHierarchyViolation))
	assert.ElementsMatch(t, []component.ID{"app.main", "module.dashboard"}, h.Roots())
}

func TestAddChildRejectsEqualWeight(t *testing.T) {
	h := newTestHierarchy()
	mustCreate(t, h, "module.a", component.LevelModule, "")
	mustCreate(t, h, "module.b", component.LevelModule, "")

	err := h.AddChild("module.b", "module.a")
	assert.True(t, errors.Is(err, errors.ErrHierarchyViolation))
}

func TestAddChildReverseAttachIsCycle(t *testing.T) {
	h := newTestHierarchy()
	mustCreate(t, h, "module.x", component.LevelModule, "")
	mustCreate(t, h, "x.child", component.LevelSubmodule, "")

	require.NoError(t, h.AddChild("x.child", "module.x"))

	err := h.AddChild("module.x", "x.child")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCycleViolation))

	err = h.AddChild("module.x", "module.x")
	assert.True(t, errors.Is(err, errors.ErrCycleViolation))
}

func TestAddChildDetachesFromPreviousParent(t *testing.T) {
	h := dashboardTree(t)

	require.NoError(t, h.AddChild("dashboard.widgets.stats", "dashboard.charts"))

	assert.Empty(t, h.Children("dashboard.widgets"))
	assert.Equal(t, []component.ID{"dashboard.widgets.stats"}, h.Children("dashboard.charts"))
}

func TestMoveComponentFailureLeavesTreeUnchanged(t *testing.T) {
	h := dashboardTree(t)

	var before []NodeInfo
	h.Walk(func(info NodeInfo, _ int) bool {
		before = append(before, info)
		return true
	})

	err := h.MoveComponent("module.dashboard", "dashboard.widgets.stats")
	require.Error(t, err)

	var after []NodeInfo
	h.Walk(func(info NodeInfo, _ int) bool {
		after = append(after, info)
		return true
	})
	assert.Equal(t, before, after)
}

func TestMoveComponentPromotesToRoot(t *testing.T) {
	h := dashboardTree(t)

	require.NoError(t, h.MoveComponent("dashboard.charts", ""))

	assert.Equal(t, []component.ID{"app.main", "dashboard.charts"}, h.Roots())
	_, ok := h.Parent("dashboard.charts")
	assert.False(t, ok)
	assert.Equal(t, []component.ID{"dashboard.widgets"}, h.Children("module.dashboard"))
}

func TestCanUnload(t *testing.T) {
	h := dashboardTree(t)

	assert.False(t, h.CanUnload("module.dashboard"), "stats depends on the module")
	assert.True(t, h.CanUnload("dashboard.charts"))
	assert.False(t, h.CanUnload("missing"))
	assert.Equal(t, []component.ID{"dashboard.widgets.stats"}, h.Dependents("module.dashboard"))
}

func TestCanUnloadFalseWhileExecuting(t *testing.T) {
	h := newTestHierarchy()
	started := make(chan struct{})
	release := make(chan struct{})
	b := &recordingBehavior{execute: func() error {
		close(started)
		<-release
		return nil
	}}
	_, err := h.Create(plainFactory, Descriptor{ID: "svc.worker", Level: component.LevelMicroservice, Behavior: b}, "")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, h.Initialize(ctx, "svc.worker"))

	done := make(chan error, 1)
	go func() { done <- h.Execute(ctx, "svc.worker") }()
	<-started

	assert.False(t, h.CanUnload("svc.worker"))
	info, _ := h.Get("svc.worker")
	assert.Equal(t, StatusExecuting, info.Status)
	assert.True(t, errors.Is(h.Teardown(ctx, "svc.worker"), errors.ErrNodeBusy))

	close(release)
	require.NoError(t, <-done)
	assert.True(t, h.CanUnload("svc.worker"))
}

func TestWalkIsPreOrderWithDepth(t *testing.T) {
	h := dashboardTree(t)

	var visited []string
	h.Walk(func(info NodeInfo, depth int) bool {
		visited = append(visited, fmt.Sprintf("%d:%s", depth, info.ID))
		return true
	})

	assert.Equal(t, []string{
		"0:app.main",
		"1:module.dashboard",
		"2:dashboard.widgets",
		"3:dashboard.widgets.stats",
		"2:dashboard.charts",
	}, visited)
}

func TestWalkFromSkipsSubtrees(t *testing.T) {
	h := dashboardTree(t)

	var visited []component.ID
	err := h.WalkFrom("module.dashboard", func(info NodeInfo, _ int) bool {
		visited = append(visited, info.ID)
		return info.ID != "dashboard.widgets"
	})
	require.NoError(t, err)
	assert.Equal(t, []component.ID{"module.dashboard", "dashboard.widgets", "dashboard.charts"}, visited)

	assert.True(t, errors.Is(h.WalkFrom("missing", func(NodeInfo, int) bool { return true }), errors.ErrNodeNotFound))
}

func TestUpgradeIsMonotonic(t *testing.T) {
	h := dashboardTree(t)

	require.NoError(t, h.Upgrade("module.dashboard", version.New(1, 2, 0)))
	require.NoError(t, h.Upgrade("module.dashboard", version.New(1, 2, 0)))

	err := h.Upgrade("module.dashboard", version.New(1, 1, 9))
	assert.True(t, errors.Is(err, errors.ErrVersionDowngrade))

	info, _ := h.Get("module.dashboard")
	assert.Equal(t, "1.2.0", info.Version.String())
}

func TestDependencyEdges(t *testing.T) {
	h := dashboardTree(t)

	edges := h.DependencyEdges()
	assert.Equal(t, map[component.ID][]component.ID{
		"dashboard.widgets.stats": {"module.dashboard"},
	}, edges)
}

func TestClockDrivesActivity(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h := New(Options{Logger: log.Discard(), Clock: func() time.Time { return now }})
	mustCreate(t, h, "module.a", component.LevelModule, "")

	require.NoError(t, h.Initialize(context.Background(), "module.a"))

	info, _ := h.Get("module.a")
	assert.Equal(t, now, info.LastActivity)
}
