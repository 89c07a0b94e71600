package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"resource-gateway/internal/domain/resource"
	"resource-gateway/internal/store"
	"resource-gateway/internal/tree"
	"resource-gateway/internal/worker"
	"resource-gateway/pkg/apperrors"
)

// StoreBacked is the shared Backend implementation: resource records in the
// object store, payload bytes in the blob store. The four variants differ
// only in resource type and extension whitelist.
type StoreBacked struct {
	typ     resource.Type
	exts    map[string]bool
	objects store.ObjectStore
	blobs   store.BlobStore
	walker  *tree.Walker
	cleanup *worker.Pool
	logger  *slog.Logger
}

func NewStoreBacked(typ resource.Type, extensions []string, objects store.ObjectStore, blobs store.BlobStore, walker *tree.Walker, cleanup *worker.Pool, logger *slog.Logger) *StoreBacked {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	return &StoreBacked{
		typ:     typ,
		exts:    exts,
		objects: objects,
		blobs:   blobs,
		walker:  walker,
		cleanup: cleanup,
		logger:  logger.With(slog.String("component", "backend"), slog.String("resource_type", string(typ))),
	}
}

func (b *StoreBacked) Type() resource.Type {
	return b.typ
}

func (b *StoreBacked) Accepts(ext string) bool {
	return b.exts[strings.ToLower(ext)]
}

func (b *StoreBacked) List(ctx context.Context, scope resource.Scope, parentID string, filter resource.Filter) (*ListResult, error) {
	children, err := b.objects.ListChildren(ctx, scope, parentID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing folder %s: %w", parentID, err)
	}

	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })

	result := &ListResult{Files: []*resource.Object{}, Folders: []*resource.Object{}}
	for _, child := range children {
		if child.IsFolder() {
			result.Folders = append(result.Folders, child)
		} else {
			result.Files = append(result.Files, child)
		}
	}
	return result, nil
}

func (b *StoreBacked) Create(ctx context.Context, scope resource.Scope, in CreateInput) (*resource.Object, error) {
	parent, err := b.resolveParent(ctx, scope, in.ParentID)
	if err != nil {
		return nil, err
	}

	if err := b.checkDuplicateName(ctx, scope, in.ParentID, in.Name, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	obj := &resource.Object{
		ID:          uuid.NewString(),
		Type:        in.Type,
		OwnerType:   scope.OwnerType,
		OwnerID:     scope.OwnerID,
		ParentID:    in.ParentID,
		Path:        resource.ChildPath(parent),
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if in.Type == resource.ObjectFile {
		obj.FileName = in.FileName
		obj.FileType = resource.Ext(in.FileName)
		obj.FileSize = in.FileSize
		obj.BlobPath = b.blobPath(scope, obj.ID, in.FileName)

		if err := b.blobs.Put(ctx, obj.BlobPath, in.FileBytes); err != nil {
			return nil, apperrors.Infrastructure("blob_write_failed", "storing file content failed", err)
		}
	}

	if err := b.objects.Put(ctx, scope, obj); err != nil {
		return nil, apperrors.Infrastructure("object_write_failed", "storing object record failed", err)
	}

	b.logger.Info("object created",
		slog.String("object_id", obj.ID),
		slog.String("object_type", string(obj.Type)),
		slog.String("parent_id", obj.ParentID),
	)
	return obj, nil
}

func (b *StoreBacked) Update(ctx context.Context, scope resource.Scope, objectID string, in UpdateInput) (*resource.Object, error) {
	obj, err := b.Info(ctx, scope, objectID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name != obj.Name {
		if err := b.checkDuplicateName(ctx, scope, obj.ParentID, *in.Name, obj.ID); err != nil {
			return nil, err
		}
		obj.Name = *in.Name
	}
	if in.Description != nil {
		obj.Description = *in.Description
	}

	if in.FileBytes != nil && obj.Type == resource.ObjectFile {
		fileName := in.FileName
		if fileName == "" {
			fileName = obj.FileName
		}

		oldBlob := obj.BlobPath
		obj.FileName = fileName
		obj.FileType = resource.Ext(fileName)
		obj.FileSize = in.FileSize
		obj.BlobPath = b.blobPath(scope, obj.ID, fileName)

		if err := b.blobs.Put(ctx, obj.BlobPath, in.FileBytes); err != nil {
			return nil, apperrors.Infrastructure("blob_write_failed", "storing file content failed", err)
		}

		// The replaced blob is orphaned; remove it off the request path.
		if oldBlob != "" && oldBlob != obj.BlobPath {
			b.deferBlobDelete(oldBlob)
		}
	}

	obj.UpdatedAt = time.Now().UTC()

	// Unconditional put: concurrent updates are last-writer-wins.
	if err := b.objects.Put(ctx, scope, obj); err != nil {
		return nil, apperrors.Infrastructure("object_write_failed", "storing object record failed", err)
	}
	return obj, nil
}

func (b *StoreBacked) Delete(ctx context.Context, scope resource.Scope, objectID string) error {
	obj, err := b.Info(ctx, scope, objectID)
	if err != nil {
		return err
	}

	if err := b.objects.Delete(ctx, scope, objectID); err != nil {
		return apperrors.Infrastructure("object_delete_failed", "deleting object record failed", err)
	}

	if obj.BlobPath != "" {
		b.deferBlobDelete(obj.BlobPath)
	}
	return nil
}

func (b *StoreBacked) Info(ctx context.Context, scope resource.Scope, objectID string) (*resource.Object, error) {
	obj, err := b.objects.Get(ctx, scope, objectID)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, apperrors.ObjectNotFound()
		}
		return nil, apperrors.Infrastructure("object_read_failed", "reading object record failed", err)
	}
	return obj, nil
}

// Download returns file bytes directly, or assembles a folder archive into
// the blob store under a token-derived key. The token also lets the job
// manager correlate a completion that happens after the caller stopped
// waiting.
func (b *StoreBacked) Download(ctx context.Context, scope resource.Scope, objectID, token string, recursive bool) (*DownloadResult, error) {
	obj, err := b.Info(ctx, scope, objectID)
	if err != nil {
		return nil, err
	}

	if obj.Type == resource.ObjectFile {
		data, err := b.blobs.Get(ctx, obj.BlobPath)
		if err != nil {
			return nil, apperrors.Infrastructure("blob_read_failed", "reading file content failed", err)
		}
		return &DownloadResult{Payload: data}, nil
	}

	archive, err := b.walker.BuildArchive(ctx, b.objects, scope, obj, recursive)
	if err != nil {
		return nil, apperrors.Infrastructure("archive_build_failed", "assembling folder archive failed", err)
	}

	archivePath := "archives/" + token + ".zip"
	if err := b.blobs.Put(ctx, archivePath, archive); err != nil {
		return nil, apperrors.Infrastructure("blob_write_failed", "storing folder archive failed", err)
	}
	return &DownloadResult{ArchivePath: archivePath}, nil
}

// Usage tallies one owner's footprint across every scope of this store.
func (b *StoreBacked) Usage(ctx context.Context, ownerID string) (*UsageResult, error) {
	objs, err := b.objects.ListByOwner(ctx, b.typ, ownerID)
	if err != nil {
		return nil, apperrors.Infrastructure("object_read_failed", "listing owner objects failed", err)
	}

	usage := &UsageResult{}
	for _, obj := range objs {
		if obj.IsFolder() {
			usage.Folders++
			continue
		}
		usage.Files++
		usage.TotalBytes += obj.FileSize
	}
	return usage, nil
}

func (b *StoreBacked) resolveParent(ctx context.Context, scope resource.Scope, parentID string) (*resource.Object, error) {
	switch parentID {
	case "":
		return nil, apperrors.MissingParent()
	case resource.RootID, resource.SharedID:
		return nil, nil
	}

	parent, err := b.Info(ctx, scope, parentID)
	if err != nil {
		return nil, apperrors.InvalidFolderPath()
	}
	if !parent.IsFolder() {
		return nil, apperrors.InvalidFolderPath()
	}
	return parent, nil
}

func (b *StoreBacked) checkDuplicateName(ctx context.Context, scope resource.Scope, parentID, name, excludeID string) error {
	siblings, err := b.objects.ListChildren(ctx, scope, parentID, resource.FilterAll)
	if err != nil {
		return apperrors.Infrastructure("object_read_failed", "listing target folder failed", err)
	}
	for _, sibling := range siblings {
		if sibling.Name == name && sibling.ID != excludeID {
			return apperrors.DuplicateName()
		}
	}
	return nil
}

func (b *StoreBacked) blobPath(scope resource.Scope, objectID, fileName string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		strings.ToLower(string(b.typ)), strings.ToLower(string(scope.OwnerType)), scope.OwnerID, objectID, fileName)
}

func (b *StoreBacked) deferBlobDelete(path string) {
	b.cleanup.Submit(func() {
		if err := b.blobs.Delete(context.Background(), path); err != nil {
			b.logger.Warn("deferred blob delete failed",
				slog.String("blob_path", path),
				slog.String("error", err.Error()),
			)
		}
	})
}
