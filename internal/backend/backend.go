package backend

import (
	"context"

	"resource-gateway/internal/domain/resource"
	"resource-gateway/pkg/apperrors"
)

// ListResult splits a folder listing into files and subfolders.
type ListResult struct {
	Files   []*resource.Object `json:"files"`
	Folders []*resource.Object `json:"folders"`
}

// CreateInput carries everything a backend needs to create an object.
type CreateInput struct {
	ParentID    string
	Type        resource.ObjectType
	Name        string
	Description string
	FileName    string
	FileBytes   []byte
	FileSize    int64
}

// UpdateInput mutates an existing object in place. Nil pointer fields are
// left untouched. FileBytes, when present, replaces the stored payload.
type UpdateInput struct {
	Name        *string
	Description *string
	FileName    string
	FileBytes   []byte
	FileSize    int64
}

// DownloadResult is the terminal output of a download call: raw bytes for a
// file, a blob-store archive location for a folder.
type DownloadResult struct {
	Payload     []byte
	ArchivePath string
}

// UsageResult summarizes what one owner has stored in a resource store.
type UsageResult struct {
	Files      int   `json:"files"`
	Folders    int   `json:"folders"`
	TotalBytes int64 `json:"totalBytes"`
}

// Backend is the capability interface each pluggable resource store
// implements. The gateway consults Accepts before create/update ever reach
// the backend.
type Backend interface {
	Type() resource.Type
	Accepts(ext string) bool

	List(ctx context.Context, scope resource.Scope, parentID string, filter resource.Filter) (*ListResult, error)
	Create(ctx context.Context, scope resource.Scope, in CreateInput) (*resource.Object, error)
	Update(ctx context.Context, scope resource.Scope, objectID string, in UpdateInput) (*resource.Object, error)
	Delete(ctx context.Context, scope resource.Scope, objectID string) error
	Info(ctx context.Context, scope resource.Scope, objectID string) (*resource.Object, error)
	Download(ctx context.Context, scope resource.Scope, objectID, token string, recursive bool) (*DownloadResult, error)
	Usage(ctx context.Context, ownerID string) (*UsageResult, error)
}

// Registry maps resource types to backend implementations. Adding a variant
// means registering a new implementation at startup, not editing a switch.
type Registry struct {
	backends map[resource.Type]Backend
}

func NewRegistry() *Registry {
	return &Registry{backends: make(map[resource.Type]Backend)}
}

func (r *Registry) Register(b Backend) {
	r.backends[b.Type()] = b
}

// Resolve returns the backend for t, or InvalidResourceType.
func (r *Registry) Resolve(t resource.Type) (Backend, *apperrors.AppError) {
	b, ok := r.backends[t]
	if !ok {
		return nil, apperrors.InvalidResourceType()
	}
	return b, nil
}

// Types lists the registered resource types.
func (r *Registry) Types() []resource.Type {
	out := make([]resource.Type, 0, len(r.backends))
	for t := range r.backends {
		out = append(out, t)
	}
	return out
}
