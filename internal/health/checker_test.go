package health

import (
	"context"
	"testing"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.String(); got != tt.expected {
				t.Errorf("Status.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestResultConstructors(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   Status
	}{
		{"healthy", Healthy("ok"), StatusHealthy},
		{"degraded", Degraded("meh"), StatusDegraded},
		{"unhealthy", Unhealthy("broken"), StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.want {
				t.Errorf("Status = %v, want %v", tt.result.Status, tt.want)
			}
			if tt.result.Details == nil {
				t.Error("Details should be initialized")
			}
		})
	}
}

func TestWithDetailChains(t *testing.T) {
	r := Healthy("ok").WithDetail("nodes", 3).WithDetail("roots", 1)

	if r.Details["nodes"] != 3 || r.Details["roots"] != 1 {
		t.Errorf("Details = %v", r.Details)
	}
}

func TestCheckerFunc(t *testing.T) {
	c := CheckerFunc{CheckerName: "always", Fn: func(context.Context) *Result { return Healthy("fine") }}

	if c.Name() != "always" {
		t.Errorf("Name() = %q", c.Name())
	}
	if got := c.Check(context.Background()); got.Message != "fine" {
		t.Errorf("Check().Message = %q", got.Message)
	}
}
