package backend

import (
	"log/slog"

	"resource-gateway/internal/domain/resource"
	"resource-gateway/internal/store"
	"resource-gateway/internal/tree"
	"resource-gateway/internal/worker"
)

// Accepted file extensions per variant.
var (
	FontExtensions         = []string{"shx", "ttf"}
	TemplateExtensions     = []string{"dwt", "dwg"}
	BlockLibraryExtensions = []string{"dwg", "dxf"}
	LispExtensions         = []string{"lsp", "fas", "vlx"}
)

type deps struct {
	objects store.ObjectStore
	blobs   store.BlobStore
	walker  *tree.Walker
	cleanup *worker.Pool
	logger  *slog.Logger
}

// RegisterAll registers the four built-in variants on the registry.
func RegisterAll(r *Registry, objects store.ObjectStore, blobs store.BlobStore, walker *tree.Walker, cleanup *worker.Pool, logger *slog.Logger) {
	d := deps{objects: objects, blobs: blobs, walker: walker, cleanup: cleanup, logger: logger}
	r.Register(d.variant(resource.TypeFonts, FontExtensions))
	r.Register(d.variant(resource.TypeTemplates, TemplateExtensions))
	r.Register(d.variant(resource.TypeBlockLibrary, BlockLibraryExtensions))
	r.Register(d.variant(resource.TypeLisp, LispExtensions))
}

func (d deps) variant(typ resource.Type, exts []string) *StoreBacked {
	return NewStoreBacked(typ, exts, d.objects, d.blobs, d.walker, d.cleanup, d.logger)
}
