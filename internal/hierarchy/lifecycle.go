package hierarchy

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/errors"
	"github.com/felixgeelhaar/scopeplan/internal/version"
)

// Initialize moves a node from Uninitialized (or Error) through Initializing
// to Ready. Reinitializing from Error resets the error count.
func (h *Hierarchy) Initialize(ctx context.Context, id component.ID) error {
	b, err := h.begin(id, StatusInitializing, func(n *Node) {
		if n.status == StatusError {
			n.errorCount = 0
		}
	})
	if err != nil {
		return err
	}

	var cbErr error
	if b != nil {
		cbErr = b.Initialize(ctx)
	}
	return h.finish(id, StatusReady, cbErr, 0)
}

// Execute runs a Ready node once and returns it to Ready.
func (h *Hierarchy) Execute(ctx context.Context, id component.ID) error {
	b, err := h.begin(id, StatusExecuting, nil)
	if err != nil {
		return err
	}

	start := h.clock()
	var cbErr error
	if b != nil {
		cbErr = b.Execute(ctx)
	}
	return h.finish(id, StatusReady, cbErr, h.clock().Sub(start))
}

// Suspend pauses a Ready node.
func (h *Hierarchy) Suspend(ctx context.Context, id component.ID) error {
	b, err := h.beginInPlace(id, StatusSuspended)
	if err != nil {
		return err
	}

	var cbErr error
	if b != nil {
		cbErr = b.Suspend(ctx)
	}
	return h.finish(id, StatusSuspended, cbErr, 0)
}

// Resume returns a Suspended node to Ready.
func (h *Hierarchy) Resume(ctx context.Context, id component.ID) error {
	b, err := h.beginInPlace(id, StatusReady)
	if err != nil {
		return err
	}

	var cbErr error
	if b != nil {
		cbErr = b.Resume(ctx)
	}
	return h.finish(id, StatusReady, cbErr, 0)
}

// Fail records an unrecovered failure and moves the node to Error.
func (h *Hierarchy) Fail(id component.ID, cause error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, ok := h.nodes[id]
	if !ok {
		return errors.NewNodeNotFound(string(id))
	}
	h.failLocked(n, cause)
	return nil
}

// Send delivers a message to a Ready or Executing node.
func (h *Hierarchy) Send(ctx context.Context, to component.ID, msg Message) error {
	h.mu.RLock()
	n, ok := h.nodes[to]
	if !ok {
		h.mu.RUnlock()
		return errors.NewNodeNotFound(string(to))
	}
	status, b := n.status, n.behavior
	h.mu.RUnlock()

	if status != StatusReady && status != StatusExecuting {
		return errors.Newf(errors.ErrCodeInvalidTransition, "%s cannot receive messages while %s", to, status)
	}
	if b == nil {
		return nil
	}
	if err := b.ReceiveMessage(ctx, msg); err != nil {
		return fmt.Errorf("deliver %q to %s: %w", msg.Topic, to, err)
	}

	h.mu.Lock()
	if n, ok := h.nodes[to]; ok {
		n.lastActivity = h.clock()
	}
	h.mu.Unlock()
	return nil
}

// Teardown cleans up a node and its whole subtree, children first, then
// removes them from the tree. Every node in the subtree must be Ready,
// Suspended, Error or Uninitialized and idle; otherwise nothing changes.
// Cleanup callback failures are reported but do not keep nodes alive.
func (h *Hierarchy) Teardown(ctx context.Context, id component.ID) error {
	h.mu.Lock()
	root, ok := h.nodes[id]
	if !ok {
		h.mu.Unlock()
		return errors.NewNodeNotFound(string(id))
	}

	order := h.postOrderLocked(root)
	for _, n := range order {
		if h.busy[n.id] || !CanTransition(n.status, StatusCleaning) {
			h.mu.Unlock()
			err := errors.Newf(errors.ErrCodeNodeBusy, "%s cannot be torn down while %s", n.id, n.status)
			h.record("teardown", err)
			return err
		}
	}
	for _, n := range order {
		h.transitionLocked(n, StatusCleaning)
		h.busy[n.id] = true
	}
	h.mu.Unlock()

	var failures []error
	for _, n := range order {
		if n.behavior == nil {
			continue
		}
		if err := n.behavior.Cleanup(ctx); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", n.id, err))
		}
	}

	h.mu.Lock()
	h.detachLocked(root)
	for _, n := range order {
		delete(h.nodes, n.id)
		delete(h.busy, n.id)
	}
	h.metrics.SetNodes(len(h.nodes))
	h.mu.Unlock()

	h.record("teardown", nil)
	if len(failures) > 0 {
		return fmt.Errorf("cleanup of %s reported %d failure(s): %w", id, len(failures), errors.Join(failures...))
	}
	return nil
}

// Upgrade moves a node to a new version under the monotonic policy: the
// target must be a compatible upgrade of the current version.
func (h *Hierarchy) Upgrade(id component.ID, target version.Version) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, ok := h.nodes[id]
	if !ok {
		return errors.NewNodeNotFound(string(id))
	}
	if !version.IsCompatibleUpgrade(n.version, target) {
		return errors.NewVersionDowngrade(string(id), n.version.String(), target.String())
	}
	n.version = target
	n.lastActivity = h.clock()
	return nil
}

// begin validates and enters an intermediate status, marks the node busy and
// returns its behaviour for the caller to invoke outside the lock.
func (h *Hierarchy) begin(id component.ID, intermediate Status, prepare func(*Node)) (Behavior, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.idleLocked(id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(n.status, intermediate) {
		return nil, h.invalidTransition(n, intermediate)
	}
	if prepare != nil {
		prepare(n)
	}
	h.transitionLocked(n, intermediate)
	h.busy[id] = true
	return n.behavior, nil
}

// beginInPlace validates a direct transition without an intermediate status.
func (h *Hierarchy) beginInPlace(id component.ID, target Status) (Behavior, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.idleLocked(id)
	if err != nil {
		return nil, err
	}
	if n.status == target || !CanTransition(n.status, target) {
		return nil, h.invalidTransition(n, target)
	}
	h.busy[id] = true
	return n.behavior, nil
}

// finish completes an operation started by begin or beginInPlace.
func (h *Hierarchy) finish(id component.ID, target Status, cbErr error, elapsed time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.busy, id)
	n, ok := h.nodes[id]
	if !ok {
		return errors.NewNodeNotFound(string(id))
	}

	if cbErr != nil {
		during := n.status
		if during != StatusError {
			h.failLocked(n, cbErr)
		}
		return fmt.Errorf("%s failed while %s: %w", id, during, cbErr)
	}

	// A Fail issued while the callback ran leaves the node in Error; that
	// state wins over the callback's success.
	if n.status != target && !CanTransition(n.status, target) {
		return errors.Wrap(
			errors.ErrCodeInvalidTransition,
			fmt.Sprintf("%s cannot move from %s to %s", id, n.status, target),
			fmt.Errorf("%s failed while running", id),
		)
	}

	if n.status == StatusExecuting {
		n.executions++
		n.totalDuration += elapsed
	}
	if n.status != target {
		h.transitionLocked(n, target)
	}
	n.lastActivity = h.clock()
	return nil
}

func (h *Hierarchy) idleLocked(id component.ID) (*Node, error) {
	n, ok := h.nodes[id]
	if !ok {
		return nil, errors.NewNodeNotFound(string(id))
	}
	if h.busy[id] {
		return nil, errors.Newf(errors.ErrCodeNodeBusy, "%s is busy while %s", id, n.status)
	}
	return n, nil
}

func (h *Hierarchy) failLocked(n *Node, cause error) {
	n.errorCount++
	h.transitionLocked(n, StatusError)
	n.lastActivity = h.clock()
	h.logger.WithComponent(string(n.id)).WithError(cause).Warn("component failed", "error_count", n.errorCount)
}

func (h *Hierarchy) transitionLocked(n *Node, to Status) {
	h.metrics.ObserveTransition(n.status.String(), to.String())
	n.status = to
}

func (h *Hierarchy) invalidTransition(n *Node, to Status) error {
	return errors.Newf(errors.ErrCodeInvalidTransition, "%s cannot move from %s to %s", n.id, n.status, to)
}
