package resource

import (
	"path/filepath"
	"strings"
	"time"
)

// Sentinel identifiers recognized structurally, never looked up in the store.
const (
	RootID   = "-1"
	SharedID = "SHARED"
)

// Type identifies a pluggable resource store.
type Type string

const (
	TypeFonts        Type = "FONTS"
	TypeTemplates    Type = "TEMPLATES"
	TypeBlockLibrary Type = "BLOCK_LIBRARY"
	TypeLisp         Type = "LISP"
)

// ObjectType distinguishes files from folders.
type ObjectType string

const (
	ObjectFile   ObjectType = "FILE"
	ObjectFolder ObjectType = "FOLDER"
)

// OwnerType classifies who controls a scope.
type OwnerType string

const (
	OwnerOrg    OwnerType = "ORG"
	OwnerGroup  OwnerType = "GROUP"
	OwnerOwned  OwnerType = "OWNED"
	OwnerShared OwnerType = "SHARED"
	OwnerPublic OwnerType = "PUBLIC"
)

// Filter narrows folder listings.
type Filter string

const (
	FilterFiles   Filter = "FILES"
	FilterFolders Filter = "FOLDERS"
	FilterAll     Filter = "ALL"
)

// ValidFilter reports whether f is one of the accepted listing filters.
func ValidFilter(f Filter) bool {
	switch f {
	case FilterFiles, FilterFolders, FilterAll:
		return true
	}
	return false
}

// Scope is the (resourceType, ownerType, ownerId) triple that partitions the
// object tree into independent namespaces. OwnerID is empty for PUBLIC.
type Scope struct {
	Resource  Type
	OwnerType OwnerType
	OwnerID   string
}

// PartitionKey returns the store partition for the scope.
func (s Scope) PartitionKey() string {
	return string(s.Resource) + "#" + string(s.OwnerType) + "#" + s.OwnerID
}

// Object is a node in a per-scope tree. ParentID is either RootID, SharedID
// or another object's id. Path is the materialized ancestor-id chain computed
// at create time; it is not recomputed on move.
type Object struct {
	ID          string     `json:"objectId"`
	Type        ObjectType `json:"objectType"`
	OwnerType   OwnerType  `json:"ownerType"`
	OwnerID     string     `json:"ownerId,omitempty"`
	ParentID    string     `json:"parentId"`
	Path        string     `json:"path"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`

	FileName string `json:"fileName,omitempty"`
	FileType string `json:"fileType,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
	BlobPath string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsFolder reports whether the object is a folder node.
func (o *Object) IsFolder() bool {
	return o.Type == ObjectFolder
}

// Ext returns the lower-cased file extension of name, without the dot.
func Ext(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return strings.ToLower(ext)
}

// ChildPath extends a parent's materialized path with the parent's own id.
func ChildPath(parent *Object) string {
	if parent == nil {
		return RootID
	}
	if parent.Path == "" {
		return parent.ID
	}
	return parent.Path + "/" + parent.ID
}
