package db

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore 는 프로세스 메모리에만 보관하는 Store 다. 테스트와 STORE_DRIVER=memory 에서 쓴다.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[collection][key]
	if !ok {
		return nil, notFound(collection, key)
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Put(ctx context.Context, collection, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.data[collection]
	if !ok {
		col = make(map[string][]byte)
		m.data[collection] = col
	}
	col[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context, collection, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[collection][key]
	return ok, nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data[collection], k)
	}
	return nil
}

func (m *MemoryStore) List(ctx context.Context, collection string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	col := m.data[collection]
	out := make([]Entry, 0, len(col))
	for k, v := range col {
		out = append(out, Entry{Key: k, Value: append([]byte(nil), v...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStore) Close(ctx context.Context) error { return nil }
