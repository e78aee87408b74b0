package health

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/scopeplan/internal/catalog"
	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/graph"
	"github.com/felixgeelhaar/scopeplan/internal/hierarchy"
)

// NewGraphChecker reports index mismatches and dependency cycles
func NewGraphChecker(g *graph.Graph) Checker {
	return CheckerFunc{
		CheckerName: "dependency-graph",
		Fn: func(ctx context.Context) *Result {
			if err := g.Verify(); err != nil {
				return Unhealthy("forward and reverse indexes disagree").WithDetail("error", err.Error())
			}
			if err := ctx.Err(); err != nil {
				return Unhealthy("check cancelled").WithDetail("error", err.Error())
			}
			if cycle := g.FindCycle(); cycle != nil {
				return Unhealthy("dependency cycle found; build orders are best-effort").
					WithDetail("cycle", cycle.String())
			}
			return Healthy(fmt.Sprintf("%d components, %d dependencies, acyclic", g.Len(), len(g.Edges())))
		},
	}
}

// NewCatalogChecker reports references the planner will silently default:
// dependencies on components missing from the catalog, and hot-swap flags on
// core components, which are never honoured.
func NewCatalogChecker(c *catalog.Memory) Checker {
	return CheckerFunc{
		CheckerName: "catalog-references",
		Fn: func(ctx context.Context) *Result {
			var dangling, ignoredHotSwap []string
			for _, e := range c.Entries() {
				if err := ctx.Err(); err != nil {
					return Unhealthy("check cancelled").WithDetail("error", err.Error())
				}
				for _, dep := range e.DependsOn {
					if _, ok := c.Lookup(dep); !ok {
						dangling = append(dangling, fmt.Sprintf("%s -> %s", e.ID, dep))
					}
				}
				if e.HotSwap && e.ID.IsSystemCritical() {
					ignoredHotSwap = append(ignoredHotSwap, string(e.ID))
				}
			}

			if len(dangling) == 0 && len(ignoredHotSwap) == 0 {
				return Healthy(fmt.Sprintf("%d components, all references resolve", c.Len()))
			}
			r := Degraded("catalog references fall back to defaults")
			if len(dangling) > 0 {
				r.WithDetail("dangling_dependencies", dangling)
			}
			if len(ignoredHotSwap) > 0 {
				r.WithDetail("ignored_hot_swap", ignoredHotSwap)
			}
			return r
		},
	}
}

// NewHierarchyChecker folds per-node health into one result: any unhealthy
// node makes the hierarchy unhealthy, any degraded node degrades it.
func NewHierarchyChecker(h *hierarchy.Hierarchy) Checker {
	return CheckerFunc{
		CheckerName: "component-hierarchy",
		Fn: func(context.Context) *Result {
			counts := map[hierarchy.Health]int{}
			var failing []component.ID
			h.Walk(func(info hierarchy.NodeInfo, _ int) bool {
				counts[info.Health]++
				if info.Health != hierarchy.HealthHealthy {
					failing = append(failing, info.ID)
				}
				return true
			})

			msg := fmt.Sprintf("%d nodes, %d roots", h.Len(), len(h.Roots()))
			var r *Result
			switch {
			case counts[hierarchy.HealthUnhealthy] > 0:
				r = Unhealthy(msg)
			case counts[hierarchy.HealthDegraded] > 0:
				r = Degraded(msg)
			default:
				r = Healthy(msg)
			}
			for health, n := range counts {
				r.WithDetail(string(health), n)
			}
			if len(failing) > 0 {
				r.WithDetail("components", component.Strings(failing))
			}
			return r
		},
	}
}
