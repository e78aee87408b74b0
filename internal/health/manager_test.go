package health

import (
	"context"
	"testing"
	"time"
)

// mockChecker is a test double for health checks
type mockChecker struct {
	name   string
	result *Result
	delay  time.Duration
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) *Result {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return Unhealthy("check cancelled").WithDetail("error", ctx.Err().Error())
		}
	}
	return m.result
}

func TestNewManager(t *testing.T) {
	m := NewManager()

	if m.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", m.timeout, DefaultTimeout)
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
	if m.WithTimeout(time.Second) != m {
		t.Error("WithTimeout should return same manager for chaining")
	}
}

func TestRunAggregatesWorstStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"no checkers", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			for i, s := range tt.statuses {
				m.AddChecker(&mockChecker{
					name:   string(rune('a' + i)),
					result: NewResult(s, "x"),
				})
			}

			report := m.Run(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			if len(report.Entries) != len(tt.statuses) {
				t.Errorf("got %d entries, want %d", len(report.Entries), len(tt.statuses))
			}
		})
	}
}

func TestRunSortsEntries(t *testing.T) {
	m := NewManager()
	m.AddChecker(&mockChecker{name: "zeta", result: Healthy("z")})
	m.AddChecker(&mockChecker{name: "alpha", result: Healthy("a")})

	report := m.Run(context.Background())
	if report.Entries[0].Name != "alpha" || report.Entries[1].Name != "zeta" {
		t.Errorf("entries not sorted: %+v", report.Entries)
	}
}

func TestRunTimeout(t *testing.T) {
	m := NewManager().WithTimeout(20 * time.Millisecond)
	m.AddChecker(&mockChecker{name: "slow", result: Healthy("late"), delay: time.Second})

	start := time.Now()
	report := m.Run(context.Background())

	if time.Since(start) > 500*time.Millisecond {
		t.Error("Run did not honour the per-check timeout")
	}
	if report.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", report.Status)
	}
}

func TestRunNilResult(t *testing.T) {
	m := NewManager()
	m.AddChecker(&mockChecker{name: "broken"})

	report := m.Run(context.Background())
	if report.Entries[0].Result.Status != StatusUnhealthy {
		t.Errorf("nil result should be unhealthy, got %v", report.Entries[0].Result.Status)
	}
}

func TestRunRecordsLatency(t *testing.T) {
	m := NewManager()
	m.AddChecker(&mockChecker{name: "timed", result: Healthy("ok"), delay: 5 * time.Millisecond})

	report := m.Run(context.Background())
	if report.Entries[0].Result.Latency <= 0 {
		t.Error("latency should be recorded")
	}
}
