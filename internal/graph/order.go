package graph

import (
	"strings"

	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/errors"
)

// Cycle is a closed dependency path; the first element depends on the second
// and the last depends on the first.
type Cycle []component.ID

// Order is a build order restricted to a subset of components
type Order struct {
	// Sequence lists every member of the subset exactly once
	Sequence []component.ID
	// Cycles found inside the subset. When non-empty, Sequence is a
	// best-effort order and some dependencies may come after their dependents.
	Cycles []Cycle
}

// TopologicalOrder orders subset so that each member's in-subset
// dependencies precede it. It is a depth-first post-order traversal over
// members and in-subset dependencies visited in sorted order. Duplicates in
// subset are ignored.
func (g *Graph) TopologicalOrder(subset []component.ID) Order {
	g.mu.RLock()
	defer g.mu.RUnlock()

	members := make(idSet, len(subset))
	for _, id := range subset {
		members[id] = struct{}{}
	}

	const (
		white = iota
		grey
		black
	)
	colour := make(map[component.ID]int, len(members))
	var stack []component.ID
	var out Order

	var visit func(id component.ID)
	visit = func(id component.ID) {
		colour[id] = grey
		stack = append(stack, id)

		for _, dep := range sorted(g.forward[id]) {
			if _, in := members[dep]; !in {
				continue
			}
			switch colour[dep] {
			case white:
				visit(dep)
			case grey:
				out.Cycles = append(out.Cycles, cycleFrom(stack, dep))
			}
		}

		stack = stack[:len(stack)-1]
		colour[id] = black
		out.Sequence = append(out.Sequence, id)
	}

	for _, id := range sorted(members) {
		if colour[id] == white {
			visit(id)
		}
	}
	return out
}

// IndependentCount returns how many members of subset have no dependency on
// another member.
func (g *Graph) IndependentCount(subset []component.ID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	members := make(idSet, len(subset))
	for _, id := range subset {
		members[id] = struct{}{}
	}

	count := 0
	for id := range members {
		independent := true
		for dep := range g.forward[id] {
			if _, in := members[dep]; in && dep != id {
				independent = false
				break
			}
		}
		if independent {
			count++
		}
	}
	return count
}

// FindCycle returns one dependency cycle in the whole graph, or nil
func (g *Graph) FindCycle() Cycle {
	g.mu.RLock()
	nodes := make(idSet, len(g.forward))
	for id := range g.forward {
		nodes[id] = struct{}{}
	}
	g.mu.RUnlock()

	order := g.TopologicalOrder(sorted(nodes))
	if len(order.Cycles) == 0 {
		return nil
	}
	return order.Cycles[0]
}

// Acyclic returns a DependencyCycle error naming one cycle, or nil
func (g *Graph) Acyclic() error {
	cycle := g.FindCycle()
	if cycle == nil {
		return nil
	}
	return errors.Newf(errors.ErrCodeDependencyCycle, "dependency cycle: %s", cycle).
		WithSuggestion("Break the cycle by removing one of the depends_on declarations")
}

// String renders the cycle as a -> b -> a
func (c Cycle) String() string {
	if len(c) == 0 {
		return ""
	}
	parts := append(component.Strings(c), string(c[0]))
	return strings.Join(parts, " -> ")
}

func cycleFrom(stack []component.ID, start component.ID) Cycle {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == start {
			return append(Cycle(nil), stack[i:]...)
		}
	}
	return Cycle{start}
}
