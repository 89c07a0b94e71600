package dynamo

import (
	"time"

	"resource-gateway/internal/domain/resource"
)

func fromObject(scope resource.Scope, obj *resource.Object) *item {
	return &item{
		ScopeKey:    scope.PartitionKey(),
		ObjectID:    obj.ID,
		ObjectType:  string(obj.Type),
		OwnerType:   string(obj.OwnerType),
		OwnerID:     obj.OwnerID,
		ParentID:    obj.ParentID,
		Path:        obj.Path,
		Name:        obj.Name,
		Description: obj.Description,
		FileName:    obj.FileName,
		FileType:    obj.FileType,
		FileSize:    obj.FileSize,
		BlobPath:    obj.BlobPath,
		CreatedAt:   obj.CreatedAt.Unix(),
		UpdatedAt:   obj.UpdatedAt.Unix(),
	}
}

func (it *item) toObject() *resource.Object {
	return &resource.Object{
		ID:          it.ObjectID,
		Type:        resource.ObjectType(it.ObjectType),
		OwnerType:   resource.OwnerType(it.OwnerType),
		OwnerID:     it.OwnerID,
		ParentID:    it.ParentID,
		Path:        it.Path,
		Name:        it.Name,
		Description: it.Description,
		FileName:    it.FileName,
		FileType:    it.FileType,
		FileSize:    it.FileSize,
		BlobPath:    it.BlobPath,
		CreatedAt:   time.Unix(it.CreatedAt, 0).UTC(),
		UpdatedAt:   time.Unix(it.UpdatedAt, 0).UTC(),
	}
}
