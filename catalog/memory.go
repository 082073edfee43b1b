package catalog

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Catalog.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]Entry // ascending by version
}

// NewMemory creates an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]Entry)}
}

func clone(e Entry) Entry {
	e.Dims = slices.Clone(e.Dims)
	return e
}

func (m *Memory) Commit(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Validate(e); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	versions := m.entries[e.Name]
	i, found := slices.BinarySearchFunc(versions, e.Version, func(x Entry, v uint64) int {
		switch {
		case x.Version < v:
			return -1
		case x.Version > v:
			return 1
		}
		return 0
	})
	if found {
		return ErrConcurrentModification
	}
	m.entries[e.Name] = slices.Insert(versions, i, clone(e))
	return nil
}

func (m *Memory) Get(ctx context.Context, name string, version uint64) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.entries[name]
	if len(versions) == 0 {
		return Entry{}, ErrNotFound
	}
	if version == 0 {
		return clone(versions[len(versions)-1]), nil
	}
	for _, e := range versions {
		if e.Version == version {
			return clone(e), nil
		}
	}
	return Entry{}, ErrNotFound
}

func (m *Memory) Versions(ctx context.Context, name string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.entries[name]
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	out := make([]Entry, len(versions))
	for i, e := range versions {
		out[i] = clone(e)
	}
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[name]; !ok {
		return ErrNotFound
	}
	delete(m.entries, name)
	return nil
}

func (m *Memory) List(ctx context.Context, prefix string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Entry
	for name, versions := range m.entries {
		if strings.HasPrefix(name, prefix) && len(versions) > 0 {
			out = append(out, clone(versions[len(versions)-1]))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

var _ Catalog = (*Memory)(nil)
