package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultTimeout bounds each individual check
const DefaultTimeout = 5 * time.Second

// Manager runs checkers in parallel with a per-check timeout
type Manager struct {
	mu       sync.RWMutex
	checkers []Checker
	timeout  time.Duration
}

// NewManager creates a manager with DefaultTimeout
func NewManager() *Manager {
	return &Manager{timeout: DefaultTimeout}
}

// WithTimeout sets the per-check timeout
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return m
}

// AddChecker registers a checker. Names should be unique; a later checker
// with the same name replaces the earlier one's entry in the report.
func (m *Manager) AddChecker(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
}

// Count returns the number of registered checkers
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.checkers)
}

// Entry is one named result in a Report
type Entry struct {
	Name   string  `json:"name" yaml:"name"`
	Result *Result `json:"result" yaml:"result"`
}

// Report is the outcome of one Run, entries sorted by name
type Report struct {
	Status  Status  `json:"status" yaml:"status"`
	Entries []Entry `json:"checks" yaml:"checks"`
}

// Run executes every checker concurrently and aggregates the results. A
// checker that overruns its timeout or returns nil is reported unhealthy.
func (m *Manager) Run(ctx context.Context) Report {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	timeout := m.timeout
	m.mu.RUnlock()

	results := make(map[string]*Result, len(checkers))
	var (
		resultsMu sync.Mutex
		wg        sync.WaitGroup
	)

	for _, c := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			result := c.Check(checkCtx)
			if result == nil {
				result = Unhealthy("check returned no result")
			}
			if checkCtx.Err() != nil && result.Status == StatusHealthy {
				result = Unhealthy("check did not finish in time").WithDetail("error", checkCtx.Err().Error())
			}
			if result.Latency == 0 {
				result.Latency = time.Since(start)
			}

			resultsMu.Lock()
			results[c.Name()] = result
			resultsMu.Unlock()
		}(c)
	}
	wg.Wait()

	report := Report{Status: StatusHealthy, Entries: make([]Entry, 0, len(results))}
	for name, r := range results {
		report.Entries = append(report.Entries, Entry{Name: name, Result: r})
		if r.Status.rank() > report.Status.rank() {
			report.Status = r.Status
		}
	}
	sort.Slice(report.Entries, func(i, j int) bool { return report.Entries[i].Name < report.Entries[j].Name })
	return report
}
