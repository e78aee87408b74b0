// Package graph keeps the component dependency graph: forward edges from a
// component to the components it depends on, and a reverse index from a
// component to its dependents.
//
// Both indexes are updated together under an exclusive lock, so readers never
// observe one without the other. Cycles are allowed; traversals guard against
// them with visited sets.
package graph

import (
	"sort"
	"sync"

	"github.com/felixgeelhaar/scopeplan/internal/catalog"
	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/errors"
)

type idSet map[component.ID]struct{}

// Edge is a single dependency: From depends on To
type Edge struct {
	From component.ID `json:"from" yaml:"from"`
	To   component.ID `json:"to" yaml:"to"`
}

// Graph is a concurrency-safe dependency graph
type Graph struct {
	mu         sync.RWMutex
	forward    map[component.ID]idSet
	dependents map[component.ID]idSet
}

// New returns an empty graph
func New() *Graph {
	return &Graph{
		forward:    make(map[component.ID]idSet),
		dependents: make(map[component.ID]idSet),
	}
}

// FromEntries builds a graph from catalog dependency declarations
func FromEntries(entries []catalog.Entry) *Graph {
	g := New()
	for _, e := range entries {
		for _, dep := range e.DependsOn {
			g.AddEdge(e.ID, dep)
		}
	}
	return g
}

// FromEdges builds a graph from a dependent to dependencies map, such as the
// one returned by hierarchy.Hierarchy.DependencyEdges.
func FromEdges(edges map[component.ID][]component.ID) *Graph {
	g := New()
	for from, tos := range edges {
		for _, to := range tos {
			g.AddEdge(from, to)
		}
	}
	return g
}

// AddEdge records that from depends on to. Adding an existing edge is a
// no-op. Neither end needs to be known beforehand.
func (g *Graph) AddEdge(from, to component.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.forward[from] == nil {
		g.forward[from] = make(idSet)
	}
	g.forward[from][to] = struct{}{}

	if g.dependents[to] == nil {
		g.dependents[to] = make(idSet)
	}
	g.dependents[to][from] = struct{}{}
}

// DependenciesOf returns the components id directly depends on, sorted.
// Unknown IDs have none.
func (g *Graph) DependenciesOf(id component.ID) []component.ID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sorted(g.forward[id])
}

// DependentsOf returns the components that directly depend on id, sorted.
// Unknown IDs have none.
func (g *Graph) DependentsOf(id component.ID) []component.ID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sorted(g.dependents[id])
}

// DependsOn reports whether the edge from -> to exists
func (g *Graph) DependsOn(from, to component.ID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.forward[from][to]
	return ok
}

// TransitiveDependents returns every component that directly or indirectly
// depends on id, excluding id itself, in breadth-first discovery order.
// Nodes are marked visited before they are enqueued so each is expanded once
// even when the graph is cyclic.
func (g *Graph) TransitiveDependents(id component.ID) []component.ID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := idSet{id: {}}
	queue := []component.ID{id}
	var out []component.ID

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, dep := range sorted(g.dependents[cur]) {
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			out = append(out, dep)
			queue = append(queue, dep)
		}
	}
	return out
}

// Nodes returns every ID that appears on either end of an edge, sorted
func (g *Graph) Nodes() []component.ID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	all := make(idSet, len(g.forward)+len(g.dependents))
	for id := range g.forward {
		all[id] = struct{}{}
	}
	for id := range g.dependents {
		all[id] = struct{}{}
	}
	return sorted(all)
}

// Edges returns every edge sorted by From then To
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []Edge
	for from, tos := range g.forward {
		for to := range tos {
			out = append(out, Edge{From: from, To: to})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Len returns the number of edges
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, tos := range g.forward {
		n += len(tos)
	}
	return n
}

// Verify re-derives the reverse index from the forward edges and reports a
// GraphInconsistency on any mismatch. A healthy graph never fails.
func (g *Graph) Verify() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	derived := make(map[component.ID]idSet, len(g.dependents))
	for from, tos := range g.forward {
		for to := range tos {
			if derived[to] == nil {
				derived[to] = make(idSet)
			}
			derived[to][from] = struct{}{}
		}
	}

	for to, froms := range g.dependents {
		for from := range froms {
			if _, ok := derived[to][from]; !ok {
				return errors.NewGraphInconsistency(
					string(from) + " is indexed as a dependent of " + string(to) + " without a forward edge")
			}
		}
	}
	for to, froms := range derived {
		for from := range froms {
			if _, ok := g.dependents[to][from]; !ok {
				return errors.NewGraphInconsistency(
					string(from) + " depends on " + string(to) + " but is missing from the reverse index")
			}
		}
	}
	return nil
}

func sorted(set idSet) []component.ID {
	if len(set) == 0 {
		return nil
	}
	out := make([]component.ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
