package catalog

import (
	"sort"
	"sync"

	"github.com/felixgeelhaar/scopeplan/internal/component"
)

// Memory is a concurrency-safe in-memory Catalog
type Memory struct {
	mu       sync.RWMutex
	entries  map[component.ID]Entry
	manifest string
}

// NewMemory creates a catalog holding the given entries
func NewMemory(manifest string, entries ...Entry) *Memory {
	m := &Memory{
		entries:  make(map[component.ID]Entry, len(entries)),
		manifest: manifest,
	}
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return m
}

// Put adds or replaces an entry
func (m *Memory) Put(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
}

// Lookup implements Catalog
func (m *Memory) Lookup(id component.ID) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	return e, ok
}

// Manifest implements Catalog
func (m *Memory) Manifest() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.manifest
}

// SetManifest changes the manifest document id
func (m *Memory) SetManifest(manifest string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifest = manifest
}

// Entries returns every entry sorted by ID
func (m *Memory) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of entries
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ Catalog = (*Memory)(nil)
