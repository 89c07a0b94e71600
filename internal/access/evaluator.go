package access

import (
	"resource-gateway/internal/domain/resource"
	"resource-gateway/pkg/apperrors"
)

// PermissionKind names the operation a caller is asking for. The deny reason
// returned to the client is keyed by it.
type PermissionKind string

const (
	PermNone    PermissionKind = ""
	PermShare   PermissionKind = "SHARE"
	PermUnshare PermissionKind = "UNSHARE"
	PermUpdate  PermissionKind = "UPDATE"
	PermDelete  PermissionKind = "DELETE"
	PermUpload  PermissionKind = "UPLOAD"
	PermCreate  PermissionKind = "CREATE"
)

// Actor is the authenticated caller as seen by the evaluator.
type Actor struct {
	UserID   string
	OrgID    string
	OrgAdmin bool
	Roles    []string
}

// HasRole checks role-list membership.
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Evaluator decides whether an actor may touch an object in a given owner
// scope. It is pure: callers raise the returned error themselves.
type Evaluator struct {
	adminRoles map[string]bool
}

// NewEvaluator builds an evaluator; adminRoles are the roles allowed to edit
// PUBLIC-scope objects.
func NewEvaluator(adminRoles ...string) *Evaluator {
	roles := make(map[string]bool, len(adminRoles))
	for _, r := range adminRoles {
		roles[r] = true
	}
	return &Evaluator{adminRoles: roles}
}

// IsAdmin reports whether the actor holds one of the configured admin roles.
func (e *Evaluator) IsAdmin(actor Actor) bool {
	for role := range e.adminRoles {
		if actor.HasRole(role) {
			return true
		}
	}
	return false
}

// Evaluate applies the decision table, first match wins. A nil target means
// the scope root marker is being addressed. targetType only matters for the
// CREATE deny message. Returns nil on allow.
func (e *Evaluator) Evaluate(actor Actor, target *resource.Object, ownerType resource.OwnerType, ownerID string, editRequired bool, kind PermissionKind, targetType resource.ObjectType) *apperrors.AppError {
	// Scope mismatch: the object lives in a different owner scope than the
	// one the request names.
	if target != nil && target.OwnerType != ownerType {
		return denyReason(kind, targetType)
	}

	switch ownerType {
	case resource.OwnerOwned:
		if target == nil || target.OwnerID == ownerID {
			return nil
		}
		return denyReason(kind, targetType)

	case resource.OwnerOrg:
		if target != nil && target.OwnerID != ownerID {
			return denyReason(kind, targetType)
		}
		if editRequired && !actor.OrgAdmin {
			return denyReason(kind, targetType)
		}
		return nil

	case resource.OwnerPublic:
		if !editRequired {
			return nil
		}
		// SHARE/UNSHARE are never granted for public objects, admin or not.
		if kind == PermShare || kind == PermUnshare {
			return denyReason(kind, targetType)
		}
		if e.IsAdmin(actor) {
			return nil
		}
		return denyReason(kind, targetType)

	default:
		// SHARED scope and anything unmatched is read-only through the
		// virtual folder; direct operations are denied.
		return denyReason(kind, targetType)
	}
}

func denyReason(kind PermissionKind, targetType resource.ObjectType) *apperrors.AppError {
	switch kind {
	case PermShare:
		return apperrors.Forbidden("no_share_access", "no permission to share this object")
	case PermUnshare:
		return apperrors.Forbidden("no_unshare_access", "no permission to unshare this object")
	case PermUpdate:
		return apperrors.Forbidden("no_update_access", "no permission to update this object")
	case PermDelete:
		return apperrors.Forbidden("no_delete_access", "no permission to delete this object")
	case PermUpload:
		return apperrors.Forbidden("no_upload_access", "no permission to upload into this folder")
	case PermCreate:
		if targetType == resource.ObjectFolder {
			return apperrors.Forbidden("no_create_folder_access", "no permission to create a folder here")
		}
		return apperrors.Forbidden("no_create_file_access", "no permission to create a file here")
	default:
		return apperrors.Forbidden("no_access", "no access to this object")
	}
}
