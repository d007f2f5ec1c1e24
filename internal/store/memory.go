package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/underdogdevs/mentormatch/internal/profile"
)

// Memory is an in-process Store. Records handed out are copies, so callers
// cannot change stored state.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]profile.Record
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]profile.Record)}
}

// LoadMemory seeds a Memory store from a JSON file shaped as
// {"Mentees": [...], "Mentors": [...]}.
func LoadMemory(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file %q: %w", path, err)
	}

	var seed map[string][]profile.Record
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file %q: %w", path, err)
	}

	m := NewMemory()
	for name, records := range seed {
		m.Put(name, records...)
	}

	return m, nil
}

// Put appends records to a collection, replacing any with the same id.
func (m *Memory) Put(collection string, records ...profile.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.collections[collection]
	for _, rec := range records {
		rec = rec.Clone()
		id := rec.ID()
		replaced := false
		if id != "" {
			for i := range existing {
				if existing[i].ID() == id {
					existing[i] = rec
					replaced = true
					break
				}
			}
		}
		if !replaced {
			existing = append(existing, rec)
		}
	}
	m.collections[collection] = existing
}

func (m *Memory) Get(ctx context.Context, collection, id string) (profile.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("get", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.collections[collection] {
		if rec.ID() == id {
			return rec.Clone(), nil
		}
	}

	return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
}

func (m *Memory) QueryAll(ctx context.Context, collection string, filter Filter) ([]profile.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("query", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]profile.Record, 0, len(m.collections[collection]))
	for _, rec := range m.collections[collection] {
		if filter.Matches(rec) {
			out = append(out, rec.Clone())
		}
	}

	return out, nil
}

func (m *Memory) Count(ctx context.Context, collection string, filter Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, Unavailable("count", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, rec := range m.collections[collection] {
		if filter.Matches(rec) {
			n++
		}
	}

	return n, nil
}

func (m *Memory) Collections(ctx context.Context) ([]CollectionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("collections", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]CollectionInfo, 0, len(m.collections))
	for name, records := range m.collections {
		infos = append(infos, CollectionInfo{Name: name, Count: len(records)})
	}
	SortInfos(infos)

	return infos, nil
}
