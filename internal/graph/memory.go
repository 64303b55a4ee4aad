package graph

import (
	"context"
	"sync"
)

// MemoryTriples is an in-process TripleStore
type MemoryTriples struct {
	mu      sync.RWMutex
	triples []Triple
	index   map[Triple]struct{}
}

// NewMemoryTriples creates an empty store
func NewMemoryTriples() *MemoryTriples {
	return &MemoryTriples{index: make(map[Triple]struct{})}
}

// NewMemoryStore creates a Store held entirely in memory
func NewMemoryStore(dateGraph string) *LocalStore {
	return NewLocalStore(NewMemoryTriples(), dateGraph)
}

func (m *MemoryTriples) Add(ctx context.Context, triples ...Triple) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, t := range triples {
		if _, ok := m.index[t]; ok {
			continue
		}
		m.index[t] = struct{}{}
		m.triples = append(m.triples, t)
		added++
	}
	return added, nil
}

func (m *MemoryTriples) Match(ctx context.Context, subject, predicate string, object *Term) ([]Triple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Triple
	for _, t := range m.triples {
		if subject != "" && t.Subject != subject {
			continue
		}
		if predicate != "" && t.Predicate != predicate {
			continue
		}
		if object != nil && (t.Object.Kind != object.Kind || t.Object.Value != object.Value) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *MemoryTriples) Remove(ctx context.Context, t Triple) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[t]; !ok {
		return nil
	}
	delete(m.index, t)
	for i, existing := range m.triples {
		if existing == t {
			m.triples = append(m.triples[:i], m.triples[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored triples
func (m *MemoryTriples) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.triples)
}

func (m *MemoryTriples) Close() error { return nil }
