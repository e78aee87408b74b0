package hierarchy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/version"
)

// Message is delivered to a node through Hierarchy.Send
type Message struct {
	From    component.ID
	Topic   string
	Payload any
}

// Behavior is the fixed capability set a live component implements. Nodes
// without a Behavior are passive and every lifecycle callback succeeds.
type Behavior interface {
	Initialize(ctx context.Context) error
	Execute(ctx context.Context) error
	Suspend(ctx context.Context) error
	Resume(ctx context.Context) error
	Cleanup(ctx context.Context) error
	ReceiveMessage(ctx context.Context, msg Message) error
}

// Descriptor is the creation input handed to a Factory
type Descriptor struct {
	ID           component.ID
	Name         string
	Level        component.Level
	Version      version.Version
	DependsOn    []component.ID
	Capabilities []string
	Behavior     Behavior
}

// Factory constructs nodes. The hierarchy never builds nodes on its own; it
// only arranges the ones a Factory returns.
type Factory interface {
	Create(d Descriptor) (*Node, error)
}

// FactoryFunc adapts a function to the Factory interface
type FactoryFunc func(d Descriptor) (*Node, error)

// Create calls f(d)
func (f FactoryFunc) Create(d Descriptor) (*Node, error) {
	return f(d)
}

// Node is a unit in the hierarchy. Once inserted, a node is owned by the
// Hierarchy and must only be read through NodeInfo snapshots.
type Node struct {
	id           component.ID
	name         string
	level        component.Level
	version      version.Version
	capabilities []string
	behavior     Behavior

	parent   component.ID
	children []component.ID
	deps     map[component.ID]struct{}

	status        Status
	errorCount    int
	lastActivity  time.Time
	executions    int
	totalDuration time.Duration
}

// NewNode validates a descriptor and returns an uninitialized, unattached node.
// Factories use it as their building block.
func NewNode(d Descriptor) (*Node, error) {
	if err := d.ID.Validate(); err != nil {
		return nil, fmt.Errorf("invalid descriptor: %w", err)
	}
	if err := d.Level.Validate(); err != nil {
		return nil, fmt.Errorf("invalid descriptor for %s: %w", d.ID, err)
	}

	name := d.Name
	if name == "" {
		name = string(d.ID)
	}

	deps := make(map[component.ID]struct{}, len(d.DependsOn))
	for _, dep := range d.DependsOn {
		if dep != d.ID {
			deps[dep] = struct{}{}
		}
	}

	return &Node{
		id:           d.ID,
		name:         name,
		level:        d.Level,
		version:      d.Version,
		capabilities: append([]string(nil), d.Capabilities...),
		behavior:     d.Behavior,
		deps:         deps,
		status:       StatusUninitialized,
	}, nil
}

// ID returns the node identifier
func (n *Node) ID() component.ID {
	return n.id
}

// Level returns the node's hierarchy level
func (n *Node) Level() component.Level {
	return n.level
}

func (n *Node) dependsOn(id component.ID) bool {
	_, ok := n.deps[id]
	return ok
}

func (n *Node) sortedDeps() []component.ID {
	out := make([]component.ID, 0, len(n.deps))
	for id := range n.deps {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (n *Node) removeChild(id component.ID) {
	for i, c := range n.children {
		if c == id {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// NodeInfo is an immutable snapshot of a node
type NodeInfo struct {
	ID            component.ID    `json:"id" yaml:"id"`
	Name          string          `json:"name" yaml:"name"`
	Level         component.Level `json:"level" yaml:"level"`
	Version       version.Version `json:"version" yaml:"version"`
	Parent        component.ID    `json:"parent,omitempty" yaml:"parent,omitempty"`
	Children      []component.ID  `json:"children,omitempty" yaml:"children,omitempty"`
	DependsOn     []component.ID  `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Capabilities  []string        `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Status        Status          `json:"status" yaml:"status"`
	ErrorCount    int             `json:"error_count" yaml:"error_count"`
	LastActivity  time.Time       `json:"last_activity" yaml:"last_activity"`
	Executions    int             `json:"executions" yaml:"executions"`
	TotalDuration time.Duration   `json:"total_duration" yaml:"total_duration"`
	Health        Health          `json:"health" yaml:"health"`
}

// IsRoot reports whether the node has no parent
func (i NodeInfo) IsRoot() bool {
	return i.Parent == ""
}

func (n *Node) snapshot() NodeInfo {
	return NodeInfo{
		ID:            n.id,
		Name:          n.name,
		Level:         n.level,
		Version:       n.version,
		Parent:        n.parent,
		Children:      append([]component.ID(nil), n.children...),
		DependsOn:     n.sortedDeps(),
		Capabilities:  append([]string(nil), n.capabilities...),
		Status:        n.status,
		ErrorCount:    n.errorCount,
		LastActivity:  n.lastActivity,
		Executions:    n.executions,
		TotalDuration: n.totalDuration,
		Health:        deriveHealth(n.status, n.errorCount),
	}
}
