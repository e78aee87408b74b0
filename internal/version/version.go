// Package version implements the semantic version type used by component
// nodes and the compatibility policy applied to version transitions.
//
// Ordering and equality consider only (major, minor, patch). Prerelease and
// build tags are kept for display and never influence planning.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/felixgeelhaar/scopeplan/internal/errors"
)

// Version is a semantic version. The zero value is 0.0.0.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
	Build      string
}

// New returns a release version with no tags. Like MustParse it is meant for
// literals and panics when a component is negative.
func New(major, minor, patch int) Version {
	if major < 0 || minor < 0 || patch < 0 {
		panic(errors.Newf(errors.ErrCodeInvalidVersion, "negative version component in %d.%d.%d", major, minor, patch))
	}
	return Version{Major: major, Minor: minor, Patch: patch}
}

// Parse parses "1.2.3", "v1.2.3" or "1.2.3-rc.1+build.5". All three numeric
// components are required.
func Parse(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	canonical := raw
	if !strings.HasPrefix(canonical, "v") {
		canonical = "v" + canonical
	}
	if !semver.IsValid(canonical) {
		return Version{}, errors.Newf(errors.ErrCodeInvalidVersion, "invalid semantic version %q", s)
	}

	core := strings.TrimPrefix(canonical, "v")
	var v Version
	if i := strings.IndexByte(core, '+'); i >= 0 {
		v.Build = core[i+1:]
		core = core[:i]
	}
	if i := strings.IndexByte(core, '-'); i >= 0 {
		v.Prerelease = core[i+1:]
		core = core[:i]
	}

	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		// x/mod/semver accepts the v1 and v1.2 shorthands; component versions
		// must be explicit.
		return Version{}, errors.Newf(errors.ErrCodeInvalidVersion, "semantic version %q must have major, minor and patch", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, errors.Wrap(errors.ErrCodeInvalidVersion, fmt.Sprintf("invalid number in %q", s), err)
		}
		nums[i] = n
	}
	v.Major, v.Minor, v.Patch = nums[0], nums[1], nums[2]
	return v, nil
}

// MustParse is Parse that panics on error. For fixtures and constants only.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the version without a leading "v"
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// IsZero reports whether v is the zero value
func (v Version) IsZero() bool {
	return v == Version{}
}

// Compare returns -1, 0 or +1 comparing a and b on (major, minor, patch).
func Compare(a, b Version) int {
	switch {
	case a.Major != b.Major:
		return cmpInt(a.Major, b.Major)
	case a.Minor != b.Minor:
		return cmpInt(a.Minor, b.Minor)
	default:
		return cmpInt(a.Patch, b.Patch)
	}
}

// Equal reports whether a and b have the same major, minor and patch.
func Equal(a, b Version) bool {
	return Compare(a, b) == 0
}

// IsCompatibleUpgrade reports whether moving from current to target is an
// allowed transition: any same or higher version, including major jumps.
// A strictly lower target is never compatible; downgrades go through an
// explicit rollback instead.
func IsCompatibleUpgrade(current, target Version) bool {
	return Compare(target, current) >= 0
}

// MarshalYAML renders the version as a scalar
func (v Version) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}

// UnmarshalYAML parses a scalar version
func (v *Version) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalText renders the version for JSON and other text encodings
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses a textual version
func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
