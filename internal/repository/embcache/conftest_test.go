package embcache

import (
	"context"
	"sync"
)

// memStore is an in-memory hash store implementing the consumer interface.
type memStore struct {
	mu     sync.Mutex
	hashes map[string]map[string]string

	hgetAllErr error
	hsetErr    error
	hsetCalls  int
}

func newMemStore() *memStore {
	return &memStore{hashes: make(map[string]map[string]string)}
}

func (m *memStore) HSetIfAbsent(_ context.Context, key string, fields map[string]string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hsetCalls++
	if m.hsetErr != nil {
		return false, m.hsetErr
	}
	if _, ok := m.hashes[key]; ok {
		return false, nil
	}
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	m.hashes[key] = cp
	return true, nil
}

func (m *memStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hgetAllErr != nil {
		return nil, m.hgetAllErr
	}
	if h, ok := m.hashes[key]; ok {
		return h, nil
	}
	return map[string]string{}, nil
}

func (m *memStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		h, err := m.HGetAll(ctx, k)
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}
