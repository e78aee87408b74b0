package catalog

import (
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/errors"
	"github.com/felixgeelhaar/scopeplan/internal/hierarchy"
	"github.com/felixgeelhaar/scopeplan/internal/version"
)

// DefaultManifest is the manifest document id used when a file names none
const DefaultManifest = "catalog.manifest"

// Document is the on-disk catalog format
type Document struct {
	Components []ComponentSpec                  `yaml:"components"`
	Modules    map[component.ID][]component.ID `yaml:"modules,omitempty"`
	Manifest   string                           `yaml:"manifest,omitempty"`
}

// ComponentSpec is one component in a catalog file
type ComponentSpec struct {
	ID           component.ID    `yaml:"id"`
	Name         string          `yaml:"name,omitempty"`
	Level        component.Level `yaml:"level"`
	Version      version.Version `yaml:"version,omitempty"`
	HotSwap      bool            `yaml:"hot_swap,omitempty"`
	BuildSeconds int             `yaml:"build_seconds,omitempty"`
	Tests        []string        `yaml:"tests,omitempty"`
	DependsOn    []component.ID  `yaml:"depends_on,omitempty"`
	Parent       component.ID    `yaml:"parent,omitempty"`
	Capabilities []string        `yaml:"capabilities,omitempty"`
}

// Entry converts the file representation into a catalog entry
func (s ComponentSpec) Entry() Entry {
	return Entry{
		ID:           s.ID,
		Name:         s.Name,
		Level:        s.Level,
		Version:      s.Version,
		HotSwap:      s.HotSwap,
		BuildTime:    time.Duration(s.BuildSeconds) * time.Second,
		Tests:        append([]string(nil), s.Tests...),
		DependsOn:    append([]component.ID(nil), s.DependsOn...),
		Parent:       s.Parent,
		Capabilities: append([]string(nil), s.Capabilities...),
	}
}

// Validate checks identifiers, levels, duplicates and parent references.
// Weight ordering between parents and children is enforced when the
// hierarchy is built.
func (d *Document) Validate() error {
	seen := make(map[component.ID]bool, len(d.Components))
	for i, c := range d.Components {
		if err := c.ID.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeCatalogInvalid, fmt.Sprintf("component at index %d", i), err)
		}
		if err := c.Level.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeCatalogInvalid, fmt.Sprintf("component %s", c.ID), err)
		}
		if seen[c.ID] {
			return errors.Newf(errors.ErrCodeCatalogInvalid, "component %s is declared more than once", c.ID)
		}
		if c.BuildSeconds < 0 {
			return errors.Newf(errors.ErrCodeCatalogInvalid, "component %s has negative build_seconds %d", c.ID, c.BuildSeconds)
		}
		seen[c.ID] = true
	}

	for _, c := range d.Components {
		if c.Parent != "" && !seen[c.Parent] {
			return errors.Newf(errors.ErrCodeCatalogInvalid, "component %s names unknown parent %s", c.ID, c.Parent).
				WithSuggestion("Declare the parent component or remove the parent field")
		}
	}

	for module, subs := range d.Modules {
		if err := module.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeCatalogInvalid, "modules", err)
		}
		for _, s := range subs {
			if err := s.Validate(); err != nil {
				return errors.Wrap(errors.ErrCodeCatalogInvalid, fmt.Sprintf("submodules of %s", module), err)
			}
		}
	}
	return nil
}

// Catalog returns an in-memory catalog with the document's entries
func (d *Document) Catalog() *Memory {
	manifest := d.Manifest
	if manifest == "" {
		manifest = DefaultManifest
	}
	m := NewMemory(manifest)
	for _, c := range d.Components {
		m.Put(c.Entry())
	}
	return m
}

// Layout returns the module layout. Explicit modules entries win; otherwise
// it is derived from components whose parent is a module-level component.
func (d *Document) Layout() hierarchy.Layout {
	if len(d.Modules) > 0 {
		return hierarchy.NewLayout(d.Modules)
	}

	levels := make(map[component.ID]component.Level, len(d.Components))
	for _, c := range d.Components {
		levels[c.ID] = c.Level
	}
	modules := make(map[component.ID][]component.ID)
	for _, c := range d.Components {
		if c.Level == component.LevelModule {
			if _, ok := modules[c.ID]; !ok {
				modules[c.ID] = nil
			}
		}
		if c.Level == component.LevelSubmodule && levels[c.Parent] == component.LevelModule {
			modules[c.Parent] = append(modules[c.Parent], c.ID)
		}
	}
	return hierarchy.NewLayout(modules)
}

// BuildHierarchy inserts every component into h through the factory, parents
// before children. Components are attached in declaration order within each
// depth so the resulting tree is deterministic.
func (d *Document) BuildHierarchy(h *hierarchy.Hierarchy, f hierarchy.Factory) error {
	byID := make(map[component.ID]ComponentSpec, len(d.Components))
	for _, c := range d.Components {
		byID[c.ID] = c
	}

	inserted := make(map[component.ID]bool, len(d.Components))
	var insert func(c ComponentSpec, path map[component.ID]bool) error
	insert = func(c ComponentSpec, path map[component.ID]bool) error {
		if inserted[c.ID] {
			return nil
		}
		if path[c.ID] {
			return errors.NewCycleViolation(string(c.ID), string(c.Parent))
		}
		path[c.ID] = true

		if c.Parent != "" {
			parent, ok := byID[c.Parent]
			if !ok {
				return errors.NewNodeNotFound(string(c.Parent))
			}
			if err := insert(parent, path); err != nil {
				return err
			}
		}

		desc := hierarchy.Descriptor{
			ID:           c.ID,
			Name:         c.Name,
			Level:        c.Level,
			Version:      c.Version,
			DependsOn:    c.DependsOn,
			Capabilities: c.Capabilities,
		}
		if _, err := h.Create(f, desc, c.Parent); err != nil {
			return fmt.Errorf("build hierarchy at %s: %w", c.ID, err)
		}
		inserted[c.ID] = true
		return nil
	}

	for _, c := range d.Components {
		if err := insert(c, make(map[component.ID]bool)); err != nil {
			return err
		}
	}
	return nil
}

// Normalize sorts components by ID so that saved documents diff cleanly.
// Submodule order is meaningful and left alone.
func (d *Document) Normalize() {
	sort.Slice(d.Components, func(i, j int) bool { return d.Components[i].ID < d.Components[j].ID })
}
