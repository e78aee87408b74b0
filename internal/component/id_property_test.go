package component

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// genValidID generates dotted identifiers with one to four segments
func genValidID() *rapid.Generator[string] {
	segment := rapid.StringMatching(`[a-z][a-zA-Z0-9_-]{0,10}`)
	return rapid.Custom(func(t *rapid.T) string {
		segments := rapid.SliceOfN(segment, 1, 4).Draw(t, "segments")
		return strings.Join(segments, ".")
	})
}

// TestID_ValidIDsAlwaysValidate tests that generated dotted IDs pass validation
func TestID_ValidIDsAlwaysValidate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := genValidID().Draw(t, "id")

		id, err := NewID(raw)
		if err != nil {
			t.Fatalf("valid ID %q should pass validation: %v", raw, err)
		}
		if id.String() != raw {
			t.Fatalf("String() = %q, want %q", id.String(), raw)
		}
	})
}

// TestID_SystemCriticalIffCorePrefix tests the reserved namespace rule
func TestID_SystemCriticalIffCorePrefix(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := genValidID().Draw(t, "id")
		core := rapid.Bool().Draw(t, "core")
		if core {
			raw = SystemPrefix + raw
		}

		if got := ID(raw).IsSystemCritical(); got != strings.HasPrefix(raw, "core.") {
			t.Fatalf("IsSystemCritical(%q) = %v", raw, got)
		}
	})
}

// TestID_MalformedIDsFail tests that malformed IDs fail validation
func TestID_MalformedIDsFail(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SampledFrom([]string{
			"", ".", "a.", ".a", "a..b", "a b", "a/b", "módulo",
		}).Draw(t, "malformed")

		if _, err := NewID(raw); err == nil {
			t.Fatalf("malformed ID %q should fail validation", raw)
		}
	})
}

// TestLevel_ContainmentIsStrict tests that containment is irreflexive and asymmetric
func TestLevel_ContainmentIsStrict(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.SampledFrom(Levels()).Draw(t, "a")
		b := rapid.SampledFrom(Levels()).Draw(t, "b")

		if a.CanContain(a) {
			t.Fatalf("%s must not contain itself", a)
		}
		if a.CanContain(b) && b.CanContain(a) {
			t.Fatalf("%s and %s contain each other", a, b)
		}
	})
}
