// Package health runs diagnostic checks over a loaded component catalog.
//
// Each Checker inspects one aspect of the workspace: the dependency graph,
// the catalog's internal references, or the live hierarchy's node health.
// A Manager runs checkers in parallel and folds their results into a Report.
//
//	m := health.NewManager()
//	m.AddChecker(health.NewGraphChecker(g))
//	m.AddChecker(health.NewHierarchyChecker(h))
//	report := m.Run(ctx)
package health

import (
	"context"
	"time"
)

// Checker inspects one aspect of a workspace
type Checker interface {
	// Name is a short lowercase identifier such as "dependency-graph"
	Name() string

	// Check returns the finding. It must honour ctx.
	Check(ctx context.Context) *Result
}

// CheckerFunc adapts a function to the Checker interface
type CheckerFunc struct {
	CheckerName string
	Fn          func(ctx context.Context) *Result
}

// Name returns CheckerName
func (f CheckerFunc) Name() string { return f.CheckerName }

// Check calls Fn
func (f CheckerFunc) Check(ctx context.Context) *Result { return f.Fn(ctx) }

// Status is the outcome of a check
type Status string

const (
	// StatusHealthy means nothing was found
	StatusHealthy Status = "healthy"
	// StatusDegraded means planning still works but results may be off
	StatusDegraded Status = "degraded"
	// StatusUnhealthy means plans computed from this workspace are unreliable
	StatusUnhealthy Status = "unhealthy"
)

// String returns the status name
func (s Status) String() string {
	return string(s)
}

func (s Status) rank() int {
	switch s {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

// Result is the finding of one check
type Result struct {
	Status  Status         `json:"status" yaml:"status"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration  `json:"latency" yaml:"latency"`
}

// NewResult creates a result with the given status and message
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]any),
	}
}

// WithDetail adds a detail and returns the result for chaining
func (r *Result) WithDetail(key string, value any) *Result {
	r.Details[key] = value
	return r
}

// Healthy creates a healthy result
func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

// Degraded creates a degraded result
func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

// Unhealthy creates an unhealthy result
func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}
