package store

import (
	"context"
	"errors"

	"resource-gateway/internal/domain/resource"
)

// ErrItemNotFound is returned by ObjectStore lookups for absent records.
var ErrItemNotFound = errors.New("item not found")

// ObjectStore is the persistent record store consumed by the gateway. Records
// are addressed by (scope partition, object id). Put is an unconditional
// last-writer-wins write; there is no optimistic-concurrency token.
type ObjectStore interface {
	Get(ctx context.Context, scope resource.Scope, objectID string) (*resource.Object, error)
	Put(ctx context.Context, scope resource.Scope, obj *resource.Object) error
	Delete(ctx context.Context, scope resource.Scope, objectID string) error
	BatchPut(ctx context.Context, scope resource.Scope, objs []*resource.Object) error
	ListChildren(ctx context.Context, scope resource.Scope, parentID string, filter resource.Filter) ([]*resource.Object, error)
	ListByOwner(ctx context.Context, res resource.Type, ownerID string) ([]*resource.Object, error)
}

// BlobStore is the content store for raw file payloads and assembled
// archives, addressed by path.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}
