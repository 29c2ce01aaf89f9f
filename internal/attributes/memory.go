package attributes

import (
	"context"
	"sort"
	"sync"
)

type memoryKey struct {
	kind    string
	id      int64
	key     string
	storeID int
}

type MemoryStore struct {
	mu     sync.RWMutex
	values map[memoryKey]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[memoryKey]string)}
}

func (m *MemoryStore) Get(_ context.Context, entity Entity, key string, storeID int) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[memoryKey{entity.Kind, entity.ID, key, storeID}]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, entity Entity, key, value string, storeID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[memoryKey{entity.Kind, entity.ID, key, storeID}] = value
	return nil
}

func (m *MemoryStore) ListByKey(_ context.Context, key, entityKind string) ([]Attribute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Attribute
	for k, v := range m.values {
		if k.key == key && k.kind == entityKind {
			out = append(out, Attribute{EntityID: k.id, StoreID: k.storeID, Value: v})
		}
	}
	sortAttributes(out)
	return out, nil
}

func sortAttributes(attrs []Attribute) {
	sort.Slice(attrs, func(i, j int) bool {
		if attrs[i].EntityID != attrs[j].EntityID {
			return attrs[i].EntityID < attrs[j].EntityID
		}
		return attrs[i].StoreID < attrs[j].StoreID
	})
}
