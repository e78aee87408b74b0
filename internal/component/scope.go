package component

import (
	"fmt"
	"strings"
)

// Scope is the blast radius requested for a change.
type Scope string

// Build scopes
const (
	ScopeComponent Scope = "component"
	ScopeSubmodule Scope = "submodule"
	ScopeModule    Scope = "module"
	ScopeSystem    Scope = "system"
	ScopeFull      Scope = "full"
)

// ParseScope parses a case-insensitive scope name
func ParseScope(value string) (Scope, error) {
	s := Scope(strings.ToLower(strings.TrimSpace(value)))
	if err := s.Validate(); err != nil {
		return "", err
	}
	return s, nil
}

// Validate checks if the scope is known
func (s Scope) Validate() error {
	switch s {
	case ScopeComponent, ScopeSubmodule, ScopeModule, ScopeSystem, ScopeFull:
		return nil
	default:
		return fmt.Errorf("invalid scope %q: must be component, submodule, module, system or full", string(s))
	}
}

// String returns the string representation
func (s Scope) String() string {
	return string(s)
}

// Action is the kind of change requested.
type Action string

// Change actions
const (
	ActionAdd     Action = "add"
	ActionEnhance Action = "enhance"
	ActionUpdate  Action = "update"
	ActionRemove  Action = "remove"
	ActionOther   Action = "other"
)

// ParseAction parses a case-insensitive action name
func ParseAction(value string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(value)))
	if err := a.Validate(); err != nil {
		return "", err
	}
	return a, nil
}

// Validate checks if the action is known
func (a Action) Validate() error {
	switch a {
	case ActionAdd, ActionEnhance, ActionUpdate, ActionRemove, ActionOther:
		return nil
	default:
		return fmt.Errorf("invalid action %q: must be add, enhance, update, remove or other", string(a))
	}
}

// ChangesSurface reports whether the action adds or extends functionality and
// therefore needs documentation and manifest updates.
func (a Action) ChangesSurface() bool {
	return a == ActionAdd || a == ActionEnhance
}

// String returns the string representation
func (a Action) String() string {
	return string(a)
}
