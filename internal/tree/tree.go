package tree

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"resource-gateway/internal/domain/resource"
	"resource-gateway/internal/store"
	"resource-gateway/pkg/apperrors"
)

// Getter resolves one object by id; the upward path walk needs nothing else.
type Getter interface {
	Get(ctx context.Context, scope resource.Scope, objectID string) (*resource.Object, error)
}

// Lister lists a folder's direct children. Downward walks take the lister
// per call so they traverse through whichever backend resolved the request,
// not around it.
type Lister interface {
	ListChildren(ctx context.Context, scope resource.Scope, parentID string, filter resource.Filter) ([]*resource.Object, error)
}

// PathEntry is one hop in a resolved folder path.
type PathEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ViewOnly bool   `json:"viewOnly"`
}

// Walker implements the tree algorithms over the object graph. All
// traversals use an explicit work stack so pathologically deep trees cannot
// exhaust the goroutine stack.
type Walker struct {
	objects Getter
	blobs   store.BlobStore
	workers int
	logger  *slog.Logger
}

func NewWalker(objects Getter, blobs store.BlobStore, workers int, logger *slog.Logger) *Walker {
	if workers <= 0 {
		workers = 4
	}
	return &Walker{
		objects: objects,
		blobs:   blobs,
		workers: workers,
		logger:  logger.With(slog.String("component", "tree")),
	}
}

// PathToRoot walks parent links upward from startID until it reaches the
// root or shared-virtual-folder sentinel. The returned slice is leaf-first;
// the last entry is the synthetic root ("-1", name "~"), view-only iff the
// walk started inside the shared scope.
func (w *Walker) PathToRoot(ctx context.Context, scope resource.Scope, startID string) ([]PathEntry, error) {
	entries := []PathEntry{}
	visited := map[string]bool{}

	cur := startID
	endedAtShared := false
	for cur != resource.RootID {
		if cur == resource.SharedID {
			endedAtShared = true
			break
		}
		if visited[cur] {
			return nil, apperrors.InvalidFolderPath()
		}
		visited[cur] = true

		obj, err := w.objects.Get(ctx, scope, cur)
		if err != nil {
			return nil, apperrors.InvalidFolderPath()
		}
		if obj.ParentID == "" {
			return nil, apperrors.InvalidFolderPath()
		}

		entries = append(entries, PathEntry{ID: obj.ID, Name: obj.Name})
		cur = obj.ParentID
	}

	viewOnly := endedAtShared || scope.OwnerType == resource.OwnerShared
	if viewOnly {
		for i := range entries {
			entries[i].ViewOnly = true
		}
	}

	entries = append(entries, PathEntry{ID: resource.RootID, Name: "~", ViewOnly: viewOnly})
	return entries, nil
}

// ExpandForDelete flattens obj into the full descendant set, depth-first
// pre-order: a folder always precedes everything below it. Deletion order
// downstream is irrelevant because backend deletes are independent per
// object.
func (w *Walker) ExpandForDelete(ctx context.Context, lister Lister, scope resource.Scope, obj *resource.Object) ([]*resource.Object, error) {
	result := []*resource.Object{obj}

	stack := []*resource.Object{}
	if obj.IsFolder() {
		stack = append(stack, obj)
	}

	for len(stack) > 0 {
		folder := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := lister.ListChildren(ctx, scope, folder.ID, resource.FilterAll)
		if err != nil {
			return nil, fmt.Errorf("listing children of %s: %w", folder.ID, err)
		}

		for _, child := range children {
			result = append(result, child)
			if child.IsFolder() {
				stack = append(stack, child)
			}
		}
	}

	return result, nil
}

// archiveLevel is one pending directory during archive assembly.
type archiveLevel struct {
	folder *resource.Object
	prefix string
}

// BuildArchive assembles a zip of folder's contents. Entry names that
// collide within one directory level get a deterministic " (n)" suffix.
// When recursive is false, subfolders degrade to empty directory entries.
// A blob fetch failure yields an empty entry rather than aborting the
// archive; that best-effort policy is part of the download contract.
func (w *Walker) BuildArchive(ctx context.Context, lister Lister, scope resource.Scope, folder *resource.Object, recursive bool) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	stack := []archiveLevel{{folder: folder, prefix: ""}}

	for len(stack) > 0 {
		level := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := lister.ListChildren(ctx, scope, level.folder.ID, resource.FilterAll)
		if err != nil {
			return nil, fmt.Errorf("listing children of %s: %w", level.folder.ID, err)
		}

		// Store order is not guaranteed; collision suffixes depend on
		// processing order, so fix it here.
		sort.Slice(children, func(i, j int) bool {
			if children[i].Name != children[j].Name {
				return children[i].Name < children[j].Name
			}
			return children[i].ID < children[j].ID
		})

		var files, folders []*resource.Object
		for _, child := range children {
			if child.IsFolder() {
				folders = append(folders, child)
			} else {
				files = append(files, child)
			}
		}

		fileNames := map[string]bool{}
		payloads := w.fetchPayloads(ctx, files)
		for i, file := range files {
			name := file.FileName
			if name == "" {
				name = file.Name
			}
			name = uniqueName(name, fileNames)
			fileNames[name] = true

			entry, err := zw.Create(level.prefix + name)
			if err != nil {
				return nil, fmt.Errorf("creating archive entry %s: %w", name, err)
			}
			if _, err := entry.Write(payloads[i]); err != nil {
				return nil, fmt.Errorf("writing archive entry %s: %w", name, err)
			}
		}

		folderNames := map[string]bool{}
		for _, sub := range folders {
			name := uniqueName(sub.Name, folderNames)
			folderNames[name] = true

			if _, err := zw.Create(level.prefix + name + "/"); err != nil {
				return nil, fmt.Errorf("creating archive directory %s: %w", name, err)
			}
			if recursive {
				stack = append(stack, archiveLevel{folder: sub, prefix: level.prefix + name + "/"})
			}
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// fetchPayloads pulls file bytes from the blob store with a bounded worker
// count, preserving input order. Failed fetches come back empty.
func (w *Walker) fetchPayloads(ctx context.Context, files []*resource.Object) [][]byte {
	payloads := make([][]byte, len(files))
	if len(files) == 0 {
		return payloads
	}

	workers := w.workers
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan int, len(files))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				data, err := w.blobs.Get(ctx, files[idx].BlobPath)
				if err != nil {
					w.logger.Warn("blob fetch failed, writing empty archive entry",
						slog.String("object_id", files[idx].ID),
						slog.String("blob_path", files[idx].BlobPath),
						slog.String("error", err.Error()),
					)
					continue
				}
				payloads[idx] = data
			}
		}()
	}

	for idx := range files {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return payloads
}

// uniqueName appends " (n)" before the extension until the name no longer
// collides within the level.
func uniqueName(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if !taken[candidate] {
			return candidate
		}
	}
}
