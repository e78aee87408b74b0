// Package catalog holds the static metadata the planner consumes for each
// component: hierarchy level, hot-swap eligibility, nominal build time,
// declared tests and declared dependencies.
//
// A missing entry is never an error. Resolve falls back to conservative
// defaults so that planning stays total over any identifier.
package catalog

import (
	"time"

	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/version"
)

// DefaultBuildTime is used for components without a catalog build time
const DefaultBuildTime = 60 * time.Second

// Entry is the catalog metadata for one component
type Entry struct {
	ID           component.ID
	Name         string
	Level        component.Level
	Version      version.Version
	HotSwap      bool
	BuildTime    time.Duration
	Tests        []string
	DependsOn    []component.ID
	Parent       component.ID
	Capabilities []string

	// Known is false for entries synthesised by Resolve
	Known bool
}

// Catalog is the read-only lookup contract the planner depends on
type Catalog interface {
	// Lookup returns the entry for id, if present
	Lookup(id component.ID) (Entry, bool)
	// Manifest returns the catalog-wide manifest document id
	Manifest() string
}

// Resolve returns the entry for id or the conservative defaults: not
// hot-swappable, DefaultBuildTime, no tests. A nil catalog resolves every ID
// to defaults.
func Resolve(c Catalog, id component.ID) Entry {
	if c != nil {
		if e, ok := c.Lookup(id); ok {
			if e.BuildTime <= 0 {
				e.BuildTime = DefaultBuildTime
			}
			e.Known = true
			return e
		}
	}
	return Entry{
		ID:        id,
		Name:      string(id),
		BuildTime: DefaultBuildTime,
	}
}
