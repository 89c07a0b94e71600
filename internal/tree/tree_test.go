package tree_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"resource-gateway/internal/domain/resource"
	"resource-gateway/internal/store"
	"resource-gateway/internal/tree"
)

func testScope() resource.Scope {
	return resource.Scope{Resource: resource.TypeFonts, OwnerType: resource.OwnerOwned, OwnerID: "u1"}
}

func testWalker(t *testing.T) (*tree.Walker, *store.MemoryObjectStore, *store.MemoryBlobStore) {
	t.Helper()
	objects := store.NewMemoryObjectStore()
	blobs := store.NewMemoryBlobStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return tree.NewWalker(objects, blobs, 2, logger), objects, blobs
}

func seedFolder(t *testing.T, objects *store.MemoryObjectStore, scope resource.Scope, id, parentID, name string) *resource.Object {
	t.Helper()
	obj := &resource.Object{
		ID:        id,
		Type:      resource.ObjectFolder,
		OwnerType: scope.OwnerType,
		OwnerID:   scope.OwnerID,
		ParentID:  parentID,
		Name:      name,
	}
	if err := objects.Put(context.Background(), scope, obj); err != nil {
		t.Fatalf("seeding folder %s: %v", id, err)
	}
	return obj
}

func seedFile(t *testing.T, objects *store.MemoryObjectStore, blobs *store.MemoryBlobStore, scope resource.Scope, id, parentID, name, fileName string, payload []byte) *resource.Object {
	t.Helper()
	obj := &resource.Object{
		ID:        id,
		Type:      resource.ObjectFile,
		OwnerType: scope.OwnerType,
		OwnerID:   scope.OwnerID,
		ParentID:  parentID,
		Name:      name,
		FileName:  fileName,
		BlobPath:  "blobs/" + id,
	}
	if err := objects.Put(context.Background(), scope, obj); err != nil {
		t.Fatalf("seeding file %s: %v", id, err)
	}
	if payload != nil {
		if err := blobs.Put(context.Background(), obj.BlobPath, payload); err != nil {
			t.Fatalf("seeding blob for %s: %v", id, err)
		}
	}
	return obj
}

func TestPathToRoot(t *testing.T) {
	walker, objects, _ := testWalker(t)
	scope := testScope()

	seedFolder(t, objects, scope, "A", resource.RootID, "alpha")
	seedFolder(t, objects, scope, "B", "A", "beta")

	entries, err := walker.PathToRoot(context.Background(), scope, "B")
	if err != nil {
		t.Fatalf("PathToRoot: %v", err)
	}

	want := []tree.PathEntry{
		{ID: "B", Name: "beta"},
		{ID: "A", Name: "alpha"},
		{ID: resource.RootID, Name: "~"},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestPathToRoot_FromRoot(t *testing.T) {
	walker, _, _ := testWalker(t)

	entries, err := walker.PathToRoot(context.Background(), testScope(), resource.RootID)
	if err != nil {
		t.Fatalf("PathToRoot: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != resource.RootID || entries[0].Name != "~" {
		t.Fatalf("expected single root entry, got %+v", entries)
	}
}

func TestPathToRoot_SharedIsViewOnly(t *testing.T) {
	walker, objects, _ := testWalker(t)
	scope := testScope()

	seedFolder(t, objects, scope, "S1", resource.SharedID, "shared root")
	seedFolder(t, objects, scope, "S2", "S1", "nested")

	entries, err := walker.PathToRoot(context.Background(), scope, "S2")
	if err != nil {
		t.Fatalf("PathToRoot: %v", err)
	}
	for _, e := range entries {
		if !e.ViewOnly {
			t.Errorf("entry %+v should be view-only under the shared sentinel", e)
		}
	}
}

func TestPathToRoot_Broken(t *testing.T) {
	walker, objects, _ := testWalker(t)
	scope := testScope()

	// Dangling parent link.
	seedFolder(t, objects, scope, "orphan", "missing", "orphan")

	// Two folders pointing at each other.
	seedFolder(t, objects, scope, "C1", "C2", "c1")
	seedFolder(t, objects, scope, "C2", "C1", "c2")

	for _, startID := range []string{"orphan", "no-such-id", "C1"} {
		if _, err := walker.PathToRoot(context.Background(), scope, startID); err == nil {
			t.Errorf("PathToRoot(%s): expected error for broken chain", startID)
		}
	}
}

func TestExpandForDelete(t *testing.T) {
	walker, objects, blobs := testWalker(t)
	scope := testScope()

	top := seedFolder(t, objects, scope, "top", resource.RootID, "top")
	seedFile(t, objects, blobs, scope, "f1", "top", "one", "one.shx", []byte("1"))
	seedFile(t, objects, blobs, scope, "f2", "top", "two", "two.shx", []byte("2"))
	seedFolder(t, objects, scope, "sub", "top", "sub")
	seedFile(t, objects, blobs, scope, "f3", "sub", "three", "three.shx", []byte("3"))

	expanded, err := walker.ExpandForDelete(context.Background(), objects, scope, top)
	if err != nil {
		t.Fatalf("ExpandForDelete: %v", err)
	}

	if len(expanded) != 5 {
		t.Fatalf("got %d objects, want 5", len(expanded))
	}
	if expanded[0].ID != "top" {
		t.Errorf("first element = %s, want the requested folder", expanded[0].ID)
	}

	pos := map[string]int{}
	for i, obj := range expanded {
		pos[obj.ID] = i
	}
	for _, id := range []string{"f1", "f2", "sub", "f3"} {
		if _, ok := pos[id]; !ok {
			t.Errorf("descendant %s missing from expansion", id)
		}
	}
	if pos["sub"] > pos["f3"] {
		t.Errorf("folder sub at %d must precede its child f3 at %d", pos["sub"], pos["f3"])
	}
}

func TestExpandForDelete_SingleFile(t *testing.T) {
	walker, objects, blobs := testWalker(t)
	scope := testScope()

	file := seedFile(t, objects, blobs, scope, "f1", resource.RootID, "one", "one.shx", []byte("1"))

	expanded, err := walker.ExpandForDelete(context.Background(), objects, scope, file)
	if err != nil {
		t.Fatalf("ExpandForDelete: %v", err)
	}
	if len(expanded) != 1 || expanded[0].ID != "f1" {
		t.Fatalf("expected just the file, got %+v", expanded)
	}
}

func archiveEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	entries := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening entry %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("reading entry %s: %v", f.Name, err)
		}
		entries[f.Name] = content
	}
	return entries
}

func TestBuildArchive(t *testing.T) {
	walker, objects, blobs := testWalker(t)
	scope := testScope()

	top := seedFolder(t, objects, scope, "top", resource.RootID, "top")
	seedFile(t, objects, blobs, scope, "f1", "top", "alpha", "report.shx", []byte("alpha-bytes"))
	seedFile(t, objects, blobs, scope, "f2", "top", "beta", "report.shx", []byte("beta-bytes"))
	seedFolder(t, objects, scope, "sub", "top", "nested")
	seedFile(t, objects, blobs, scope, "f3", "sub", "gamma", "inner.shx", []byte("gamma-bytes"))

	data, err := walker.BuildArchive(context.Background(), objects, scope, top, true)
	if err != nil {
		t.Fatalf("BuildArchive: %v", err)
	}
	entries := archiveEntries(t, data)

	// Children are processed in name order, so "alpha" keeps the plain
	// filename and "beta" gets the collision suffix.
	want := map[string]string{
		"report.shx":       "alpha-bytes",
		"report (1).shx":   "beta-bytes",
		"nested/":          "",
		"nested/inner.shx": "gamma-bytes",
	}
	if len(entries) != len(want) {
		t.Fatalf("got entries %v, want %v", keys(entries), want)
	}
	for name, content := range want {
		got, ok := entries[name]
		if !ok {
			t.Errorf("missing entry %q (have %v)", name, keys(entries))
			continue
		}
		if string(got) != content {
			t.Errorf("entry %q = %q, want %q", name, got, content)
		}
	}

	// Same input, same archive layout.
	again, err := walker.BuildArchive(context.Background(), objects, scope, top, true)
	if err != nil {
		t.Fatalf("BuildArchive (second pass): %v", err)
	}
	againEntries := archiveEntries(t, again)
	if len(againEntries) != len(entries) {
		t.Fatalf("second build produced different entry set: %v vs %v", keys(againEntries), keys(entries))
	}
	for name := range entries {
		if _, ok := againEntries[name]; !ok {
			t.Errorf("second build missing entry %q", name)
		}
	}
}

func TestBuildArchive_NonRecursive(t *testing.T) {
	walker, objects, blobs := testWalker(t)
	scope := testScope()

	top := seedFolder(t, objects, scope, "top", resource.RootID, "top")
	seedFile(t, objects, blobs, scope, "f1", "top", "alpha", "a.shx", []byte("a"))
	seedFolder(t, objects, scope, "sub", "top", "nested")
	seedFile(t, objects, blobs, scope, "f3", "sub", "gamma", "inner.shx", []byte("g"))

	data, err := walker.BuildArchive(context.Background(), objects, scope, top, false)
	if err != nil {
		t.Fatalf("BuildArchive: %v", err)
	}
	entries := archiveEntries(t, data)

	if _, ok := entries["nested/"]; !ok {
		t.Errorf("subfolder should appear as an empty directory entry, have %v", keys(entries))
	}
	if _, ok := entries["nested/inner.shx"]; ok {
		t.Errorf("non-recursive archive must not descend into subfolders")
	}
}

func TestBuildArchive_MissingBlob(t *testing.T) {
	walker, objects, blobs := testWalker(t)
	scope := testScope()

	top := seedFolder(t, objects, scope, "top", resource.RootID, "top")
	seedFile(t, objects, blobs, scope, "f1", "top", "ok", "ok.shx", []byte("ok-bytes"))
	seedFile(t, objects, blobs, scope, "f2", "top", "broken", "broken.shx", nil)

	data, err := walker.BuildArchive(context.Background(), objects, scope, top, true)
	if err != nil {
		t.Fatalf("BuildArchive: %v", err)
	}
	entries := archiveEntries(t, data)

	if got := string(entries["ok.shx"]); got != "ok-bytes" {
		t.Errorf("ok.shx = %q", got)
	}
	content, ok := entries["broken.shx"]
	if !ok {
		t.Fatalf("missing-blob file must still get an entry, have %v", keys(entries))
	}
	if len(content) != 0 {
		t.Errorf("missing-blob entry should be empty, got %d bytes", len(content))
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
