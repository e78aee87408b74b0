package scope

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/scopeplan/internal/component"
)

// WarningKind classifies plan warnings
type WarningKind string

const (
	// WarningCycle marks a dependency cycle among affected components
	WarningCycle WarningKind = "cycle"
	// WarningUnknownComponent marks an affected component missing from the
	// catalog; defaults were used for it
	WarningUnknownComponent WarningKind = "unknown_component"
	// WarningNoParentModule marks a submodule analysis whose target has no
	// known parent module
	WarningNoParentModule WarningKind = "no_parent_module"
)

// Warning is a non-fatal finding attached to a plan
type Warning struct {
	Kind    WarningKind `yaml:"kind" json:"kind"`
	Message string      `yaml:"message" json:"message"`
}

// BuildPlan is the result of an impact analysis
type BuildPlan struct {
	Target            component.ID     `yaml:"target" json:"target"`
	Scope             component.Scope  `yaml:"scope" json:"scope"`
	Action            component.Action `yaml:"action" json:"action"`
	Dependents        []component.ID   `yaml:"dependents" json:"dependents"`
	Tests             []string         `yaml:"tests" json:"tests"`
	Documents         []string         `yaml:"documents" json:"documents"`
	EstimatedDuration time.Duration    `yaml:"estimated_duration" json:"estimated_duration"`
	BuildOrder        []component.ID   `yaml:"build_order" json:"build_order"`
	CanHotSwap        bool             `yaml:"can_hot_swap" json:"can_hot_swap"`
	RequiresRestart   bool             `yaml:"requires_restart" json:"requires_restart"`
	Warnings          []Warning        `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}

// Affected returns the target followed by its dependents
func (p BuildPlan) Affected() []component.ID {
	return append([]component.ID{p.Target}, p.Dependents...)
}

// HasCycles reports whether the build order is only a best-effort order
func (p BuildPlan) HasCycles() bool {
	for _, w := range p.Warnings {
		if w.Kind == WarningCycle {
			return true
		}
	}
	return false
}

// Fingerprint returns a blake3 hash of the plan. Equal plans always share a
// fingerprint.
func (p BuildPlan) Fingerprint() (string, error) {
	canonical, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("canonicalize plan: %w", err)
	}

	hasher := blake3.New()
	if _, err := hasher.Write(canonical); err != nil {
		return "", fmt.Errorf("hash plan: %w", err)
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

func (p BuildPlan) clone() BuildPlan {
	p.Dependents = slices.Clone(p.Dependents)
	p.Tests = slices.Clone(p.Tests)
	p.Documents = slices.Clone(p.Documents)
	p.BuildOrder = slices.Clone(p.BuildOrder)
	p.Warnings = slices.Clone(p.Warnings)
	return p
}

func warningKinds(ws []Warning) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = string(w.Kind)
	}
	return out
}
