package component

import (
	"fmt"
	"regexp"
	"strings"
)

// SystemPrefix marks system-critical components. They are never hot-swapped
// and always force a restart when rebuilt.
const SystemPrefix = "core."

// ID is an opaque, globally unique dotted component identifier such as
// "module.dashboard" or "core.bridgeModule".
type ID string

var (
	// idPattern accepts dot-separated segments of letters, digits, '_' and '-'.
	idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)*$`)

	maxIDLength = 200
)

// NewID creates a validated ID
func NewID(value string) (ID, error) {
	id := ID(value)
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// Validate checks the identifier syntax. Planning itself accepts any string;
// validation is for catalog and hierarchy inputs.
func (id ID) Validate() error {
	s := string(id)

	if s == "" {
		return fmt.Errorf("component ID cannot be empty")
	}
	if len(s) > maxIDLength {
		return fmt.Errorf("component ID %q exceeds maximum length of %d characters", s, maxIDLength)
	}
	if !idPattern.MatchString(s) {
		return fmt.Errorf("component ID %q must be dot-separated segments of letters, digits, '_' or '-'", s)
	}
	return nil
}

// IsSystemCritical reports whether the ID lives in the reserved core namespace.
func (id ID) IsSystemCritical() bool {
	return strings.HasPrefix(string(id), SystemPrefix)
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// Doc returns the documentation entry derived from this ID.
func (id ID) Doc() string {
	return string(id) + ".doc"
}

// TestID returns the default test identifier for this ID.
func (id ID) TestID() string {
	return string(id) + ".test"
}

// Strings converts a slice of IDs to plain strings.
func Strings(ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
