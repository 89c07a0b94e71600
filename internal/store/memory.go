package store

import (
	"context"
	"strings"
	"sync"

	"resource-gateway/internal/domain/resource"
)

// MemoryObjectStore is a map-backed ObjectStore used by tests and local
// development. Semantics mirror the DynamoDB adapter: unconditional puts,
// ErrItemNotFound on absent records.
type MemoryObjectStore struct {
	mu    sync.RWMutex
	items map[string]map[string]resource.Object
}

func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{items: make(map[string]map[string]resource.Object)}
}

func (m *MemoryObjectStore) Get(_ context.Context, scope resource.Scope, objectID string) (*resource.Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.items[scope.PartitionKey()][objectID]
	if !ok {
		return nil, ErrItemNotFound
	}
	cp := obj
	return &cp, nil
}

func (m *MemoryObjectStore) Put(_ context.Context, scope resource.Scope, obj *resource.Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pk := scope.PartitionKey()
	if m.items[pk] == nil {
		m.items[pk] = make(map[string]resource.Object)
	}
	m.items[pk][obj.ID] = *obj
	return nil
}

func (m *MemoryObjectStore) Delete(_ context.Context, scope resource.Scope, objectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items[scope.PartitionKey()], objectID)
	return nil
}

func (m *MemoryObjectStore) BatchPut(ctx context.Context, scope resource.Scope, objs []*resource.Object) error {
	for _, obj := range objs {
		if err := m.Put(ctx, scope, obj); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryObjectStore) ListChildren(_ context.Context, scope resource.Scope, parentID string, filter resource.Filter) ([]*resource.Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*resource.Object
	for _, obj := range m.items[scope.PartitionKey()] {
		if obj.ParentID != parentID {
			continue
		}
		if filter == resource.FilterFiles && obj.Type != resource.ObjectFile {
			continue
		}
		if filter == resource.FilterFolders && obj.Type != resource.ObjectFolder {
			continue
		}
		cp := obj
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryObjectStore) ListByOwner(_ context.Context, res resource.Type, ownerID string) ([]*resource.Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*resource.Object
	for pk, partition := range m.items {
		if !strings.HasPrefix(pk, string(res)+"#") {
			continue
		}
		for _, obj := range partition {
			if obj.OwnerID == ownerID {
				cp := obj
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

// MemoryBlobStore is a map-backed BlobStore counterpart.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

func (m *MemoryBlobStore) Put(_ context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[path] = cp
	return nil
}

func (m *MemoryBlobStore) Get(_ context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[path]
	if !ok {
		return nil, ErrItemNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemoryBlobStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, path)
	return nil
}

// Len reports the number of stored blobs. Test helper.
func (m *MemoryBlobStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
