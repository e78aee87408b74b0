package catalog

import (
	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/hierarchy"
)

// NodeFactory builds hierarchy nodes, filling descriptor gaps from a catalog
type NodeFactory struct {
	catalog  Catalog
	behavior func(Entry) hierarchy.Behavior
}

// FactoryOption configures a NodeFactory
type FactoryOption func(*NodeFactory)

// WithBehavior attaches a behaviour to every node the factory creates whose
// descriptor carries none.
func WithBehavior(fn func(Entry) hierarchy.Behavior) FactoryOption {
	return func(f *NodeFactory) {
		f.behavior = fn
	}
}

// NewNodeFactory creates a factory backed by c
func NewNodeFactory(c Catalog, opts ...FactoryOption) *NodeFactory {
	f := &NodeFactory{catalog: c}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create implements hierarchy.Factory. Level, name, version, dependencies and
// capabilities missing from the descriptor are taken from the catalog entry.
func (f *NodeFactory) Create(d hierarchy.Descriptor) (*hierarchy.Node, error) {
	e, known := Lookup(f.catalog, d.ID)
	if known {
		if d.Level == "" {
			d.Level = e.Level
		}
		if d.Name == "" {
			d.Name = e.Name
		}
		if d.Version.IsZero() {
			d.Version = e.Version
		}
		if len(d.DependsOn) == 0 {
			d.DependsOn = e.DependsOn
		}
		if len(d.Capabilities) == 0 {
			d.Capabilities = e.Capabilities
		}
	}
	if d.Behavior == nil && f.behavior != nil {
		d.Behavior = f.behavior(e)
	}
	return hierarchy.NewNode(d)
}

// Lookup is Catalog.Lookup that tolerates a nil catalog
func Lookup(c Catalog, id component.ID) (Entry, bool) {
	if c == nil {
		return Entry{ID: id}, false
	}
	e, ok := c.Lookup(id)
	if !ok {
		e = Entry{ID: id}
	}
	return e, ok
}

var _ hierarchy.Factory = (*NodeFactory)(nil)
