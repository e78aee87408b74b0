package hierarchy

import (
	"sync"
	"time"

	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/errors"
	"github.com/felixgeelhaar/scopeplan/internal/log"
	"github.com/felixgeelhaar/scopeplan/internal/metrics"
)

// Options configures a Hierarchy. Every field is optional.
type Options struct {
	Logger  *log.Logger
	Metrics *metrics.Metrics
	// Clock supplies activity timestamps and execution timings
	Clock func() time.Time
}

// Hierarchy owns every node of the component tree
type Hierarchy struct {
	mu    sync.RWMutex
	nodes map[component.ID]*Node
	roots []component.ID
	// busy marks nodes whose behaviour callback is running outside the lock
	busy map[component.ID]bool

	logger  *log.Logger
	metrics *metrics.Metrics
	clock   func() time.Time
}

// New creates an empty hierarchy
func New(opts Options) *Hierarchy {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Hierarchy{
		nodes:   make(map[component.ID]*Node),
		busy:    make(map[component.ID]bool),
		logger:  log.OrDefault(opts.Logger),
		metrics: opts.Metrics,
		clock:   clock,
	}
}

// Create asks the factory for a node and inserts it under parent, or as a
// root when parent is empty.
func (h *Hierarchy) Create(f Factory, d Descriptor, parent component.ID) (NodeInfo, error) {
	n, err := f.Create(d)
	if err != nil {
		return NodeInfo{}, err
	}
	if err := h.Insert(n, parent); err != nil {
		return NodeInfo{}, err
	}
	return h.mustGet(n.id), nil
}

// Insert takes ownership of a node built by a factory and attaches it under
// parent, or as a root when parent is empty.
func (h *Hierarchy) Insert(n *Node, parent component.ID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := h.insertLocked(n, parent)
	h.record("insert", err)
	return err
}

func (h *Hierarchy) insertLocked(n *Node, parent component.ID) error {
	if n == nil {
		return errors.New(errors.ErrCodeNodeNotFound, "cannot insert a nil node")
	}
	if _, exists := h.nodes[n.id]; exists {
		return errors.Newf(errors.ErrCodeDuplicateNode, "component %s is already part of the hierarchy", n.id)
	}

	if parent == "" {
		n.parent = ""
		h.nodes[n.id] = n
		h.roots = append(h.roots, n.id)
		h.metrics.SetNodes(len(h.nodes))
		return nil
	}

	p, ok := h.nodes[parent]
	if !ok {
		return errors.NewNodeNotFound(string(parent))
	}
	if p.status == StatusCleaning {
		return errors.Newf(errors.ErrCodeNodeBusy, "%s cannot adopt %s while %s", parent, n.id, p.status)
	}
	if err := h.validateAttachLocked(n, p); err != nil {
		return err
	}
	h.nodes[n.id] = n
	h.attachLocked(n, p)
	h.metrics.SetNodes(len(h.nodes))
	return nil
}

// AddChild places an existing node under parent. It fails with a cycle
// violation when parent is the child or one of its descendants, and with a
// hierarchy violation when the child's level weight is not strictly below the
// parent's. On success the child is detached from its previous parent.
func (h *Hierarchy) AddChild(child, parent component.ID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := h.reparentLocked(child, parent)
	h.record("add_child", err)
	return err
}

// MoveComponent re-parents a node. An empty newParent promotes the node to a
// root. The same invariants as AddChild are checked before any mutation.
func (h *Hierarchy) MoveComponent(id, newParent component.ID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if newParent == "" {
		err = h.promoteLocked(id)
	} else {
		err = h.reparentLocked(id, newParent)
	}
	h.record("move", err)
	return err
}

func (h *Hierarchy) reparentLocked(childID, parentID component.ID) error {
	child, ok := h.nodes[childID]
	if !ok {
		return errors.NewNodeNotFound(string(childID))
	}
	parent, ok := h.nodes[parentID]
	if !ok {
		return errors.NewNodeNotFound(string(parentID))
	}
	if err := h.movableLocked(child); err != nil {
		return err
	}
	if err := h.movableLocked(parent); err != nil {
		return err
	}
	if err := h.validateAttachLocked(child, parent); err != nil {
		return err
	}

	h.detachLocked(child)
	h.attachLocked(child, parent)
	return nil
}

func (h *Hierarchy) promoteLocked(id component.ID) error {
	n, ok := h.nodes[id]
	if !ok {
		return errors.NewNodeNotFound(string(id))
	}
	if err := h.movableLocked(n); err != nil {
		return err
	}
	if n.parent == "" {
		return nil
	}
	h.detachLocked(n)
	h.roots = append(h.roots, n.id)
	return nil
}

// movableLocked rejects structural changes touching a node whose callback is
// running outside the lock or whose subtree is being torn down.
func (h *Hierarchy) movableLocked(n *Node) error {
	if h.busy[n.id] || n.status == StatusCleaning {
		return errors.Newf(errors.ErrCodeNodeBusy, "%s cannot be moved while %s", n.id, n.status)
	}
	return nil
}

// validateAttachLocked checks the cycle rule before the weight rule so that
// an attempt to nest an ancestor under its descendant is reported as a cycle.
func (h *Hierarchy) validateAttachLocked(child, parent *Node) error {
	for cur := parent.id; cur != ""; {
		if cur == child.id {
			return errors.NewCycleViolation(string(child.id), string(parent.id))
		}
		next, ok := h.nodes[cur]
		if !ok {
			break
		}
		cur = next.parent
	}

	if !parent.level.CanContain(child.level) {
		return errors.NewHierarchyViolation(
			string(child.id), child.level.Weight(),
			string(parent.id), parent.level.Weight(),
		)
	}
	return nil
}

func (h *Hierarchy) detachLocked(n *Node) {
	if n.parent == "" {
		for i, r := range h.roots {
			if r == n.id {
				h.roots = append(h.roots[:i], h.roots[i+1:]...)
				break
			}
		}
		return
	}
	if p, ok := h.nodes[n.parent]; ok {
		p.removeChild(n.id)
	}
	n.parent = ""
}

func (h *Hierarchy) attachLocked(n, parent *Node) {
	n.parent = parent.id
	parent.children = append(parent.children, n.id)
}

// CanUnload reports whether no other node depends on id and the node is not
// executing. Unknown IDs cannot be unloaded.
func (h *Hierarchy) CanUnload(id component.ID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n, ok := h.nodes[id]
	if !ok {
		return false
	}
	if n.status == StatusExecuting {
		return false
	}
	for otherID, other := range h.nodes {
		if otherID != id && other.dependsOn(id) {
			return false
		}
	}
	return true
}

func (h *Hierarchy) record(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(errors.CodeOf(err))
		if outcome == "" {
			outcome = "error"
		}
		h.logger.WithError(err).Debug("structural change rejected", "operation", operation)
	}
	h.metrics.ObserveStructural(operation, outcome)
}
