// Package hierarchy owns the component tree.
//
// Nodes live in an arena keyed by component ID. Ownership runs parent to
// children through ordered ID slices; the parent link and dependency sets are
// plain ID lookups, so the ownership axis stays acyclic while dependencies may
// form any relation, including cycles.
//
// # Invariants
//
//   - A child's level weight is strictly lower than its parent's.
//   - No node is its own ancestor.
//   - Structural changes validate and mutate under one lock; a rejected
//     change leaves the tree untouched.
//
// # Lifecycle
//
// Each node carries a status driven by the transition table in status.go.
// Behaviour callbacks run outside the lock while the node sits in one of the
// intermediate states (Initializing, Executing, Cleaning). While a callback
// runs the node is marked busy, and structural operations reject busy or
// Cleaning nodes with a node-busy error. A Fail issued mid-call wins over the
// callback's own outcome.
package hierarchy
