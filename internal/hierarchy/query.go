package hierarchy

import (
	"sort"

	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/errors"
)

// Get returns a snapshot of the node with the given ID
func (h *Hierarchy) Get(id component.ID) (NodeInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n, ok := h.nodes[id]
	if !ok {
		return NodeInfo{}, false
	}
	return n.snapshot(), true
}

func (h *Hierarchy) mustGet(id component.ID) NodeInfo {
	info, _ := h.Get(id)
	return info
}

// Parent returns the parent of id. The second result is false for roots and
// unknown IDs.
func (h *Hierarchy) Parent(id component.ID) (component.ID, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n, ok := h.nodes[id]
	if !ok || n.parent == "" {
		return "", false
	}
	return n.parent, true
}

// Children returns the direct children of id in insertion order
func (h *Hierarchy) Children(id component.ID) []component.ID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n, ok := h.nodes[id]
	if !ok {
		return nil
	}
	return append([]component.ID(nil), n.children...)
}

// Roots returns the parentless nodes in insertion order
func (h *Hierarchy) Roots() []component.ID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]component.ID(nil), h.roots...)
}

// Len returns the number of nodes
func (h *Hierarchy) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.nodes)
}

// Dependents returns the IDs of nodes whose dependency set contains id, sorted
func (h *Hierarchy) Dependents(id component.ID) []component.ID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []component.ID
	for otherID, other := range h.nodes {
		if otherID != id && other.dependsOn(id) {
			out = append(out, otherID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DependencyEdges returns every declared dependency as a dependent to
// dependencies map. Targets need not be part of the hierarchy.
func (h *Hierarchy) DependencyEdges() map[component.ID][]component.ID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	edges := make(map[component.ID][]component.ID, len(h.nodes))
	for id, n := range h.nodes {
		if len(n.deps) > 0 {
			edges[id] = n.sortedDeps()
		}
	}
	return edges
}

// WalkFunc is called for every visited node with its depth below the walk's
// starting point. Returning false skips the node's subtree.
type WalkFunc func(info NodeInfo, depth int) bool

// Walk visits every node depth-first, parents before children, roots and
// children in insertion order.
func (h *Hierarchy) Walk(fn WalkFunc) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, r := range h.roots {
		h.walkLocked(h.nodes[r], 0, fn)
	}
}

// WalkFrom visits id and its descendants like Walk.
func (h *Hierarchy) WalkFrom(id component.ID, fn WalkFunc) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n, ok := h.nodes[id]
	if !ok {
		return errors.NewNodeNotFound(string(id))
	}
	h.walkLocked(n, 0, fn)
	return nil
}

func (h *Hierarchy) walkLocked(n *Node, depth int, fn WalkFunc) {
	if n == nil || !fn(n.snapshot(), depth) {
		return
	}
	for _, c := range n.children {
		h.walkLocked(h.nodes[c], depth+1, fn)
	}
}

// postOrderLocked returns n's subtree with every child before its parent.
func (h *Hierarchy) postOrderLocked(n *Node) []*Node {
	var out []*Node
	var visit func(*Node)
	visit = func(cur *Node) {
		for _, c := range cur.children {
			if child, ok := h.nodes[c]; ok {
				visit(child)
			}
		}
		out = append(out, cur)
	}
	visit(n)
	return out
}
