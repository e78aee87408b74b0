package hierarchy

import (
	"sort"

	"github.com/felixgeelhaar/scopeplan/internal/component"
)

// Structure answers the module layout questions impact analysis needs
type Structure interface {
	// ParentModule returns the closest module-level ancestor of id
	ParentModule(id component.ID) (component.ID, bool)
	// Submodules returns the submodules directly owned by module
	Submodules(module component.ID) []component.ID
	// Modules returns every top-level module
	Modules() []component.ID
}

var (
	_ Structure = (*Hierarchy)(nil)
	_ Structure = Layout{}
)

// ParentModule walks up from id to the nearest module-level ancestor
func (h *Hierarchy) ParentModule(id component.ID) (component.ID, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n, ok := h.nodes[id]
	if !ok {
		return "", false
	}
	for cur := n.parent; cur != ""; {
		p, ok := h.nodes[cur]
		if !ok {
			return "", false
		}
		if p.level == component.LevelModule {
			return p.id, true
		}
		cur = p.parent
	}
	return "", false
}

// Submodules returns module's submodule-level children in insertion order
func (h *Hierarchy) Submodules(module component.ID) []component.ID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n, ok := h.nodes[module]
	if !ok {
		return nil
	}
	var out []component.ID
	for _, c := range n.children {
		if child, ok := h.nodes[c]; ok && child.level == component.LevelSubmodule {
			out = append(out, c)
		}
	}
	return out
}

// Modules returns module-level nodes that have no module-level ancestor, in
// walk order.
func (h *Hierarchy) Modules() []component.ID {
	var out []component.ID
	h.Walk(func(info NodeInfo, _ int) bool {
		if info.Level == component.LevelModule {
			out = append(out, info.ID)
			return false
		}
		return true
	})
	return out
}

// Layout is a static module to submodules mapping, typically loaded from a
// catalog file.
type Layout struct {
	modules map[component.ID][]component.ID
	parents map[component.ID]component.ID
}

// NewLayout builds a Layout. Submodule order is preserved.
func NewLayout(modules map[component.ID][]component.ID) Layout {
	l := Layout{
		modules: make(map[component.ID][]component.ID, len(modules)),
		parents: make(map[component.ID]component.ID),
	}
	for m, subs := range modules {
		l.modules[m] = append([]component.ID(nil), subs...)
		for _, s := range subs {
			l.parents[s] = m
		}
	}
	return l
}

// ParentModule returns the module listing id as a submodule
func (l Layout) ParentModule(id component.ID) (component.ID, bool) {
	m, ok := l.parents[id]
	return m, ok
}

// Submodules returns module's submodules
func (l Layout) Submodules(module component.ID) []component.ID {
	return append([]component.ID(nil), l.modules[module]...)
}

// Modules returns every module, sorted
func (l Layout) Modules() []component.ID {
	out := make([]component.ID, 0, len(l.modules))
	for m := range l.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
