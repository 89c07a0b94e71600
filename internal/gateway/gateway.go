package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"resource-gateway/internal/access"
	"resource-gateway/internal/backend"
	"resource-gateway/internal/domain/resource"
	"resource-gateway/internal/download"
	"resource-gateway/internal/store"
	"resource-gateway/internal/tree"
	"resource-gateway/internal/worker"
	"resource-gateway/pkg/apperrors"
)

const defaultDeleteWorkers = 8

// Gateway is the dispatcher: it validates input, resolves the target
// backend, applies access control and tree expansion, and drives the
// download-job protocol. Every operation follows the same shape:
// parse -> resolve backend -> access check -> delegate.
type Gateway struct {
	registry  *backend.Registry
	evaluator *access.Evaluator
	walker    *tree.Walker
	downloads *download.Manager
	blobs     store.BlobStore
	cleanup   *worker.Pool
	logger    *slog.Logger

	deleteWorkers int
}

func New(registry *backend.Registry, evaluator *access.Evaluator, walker *tree.Walker, downloads *download.Manager, blobs store.BlobStore, cleanup *worker.Pool, logger *slog.Logger) *Gateway {
	return &Gateway{
		registry:      registry,
		evaluator:     evaluator,
		walker:        walker,
		downloads:     downloads,
		blobs:         blobs,
		cleanup:       cleanup,
		logger:        logger.With(slog.String("component", "gateway")),
		deleteWorkers: defaultDeleteWorkers,
	}
}

// ListFolderRequest is the input for ListFolder.
type ListFolderRequest struct {
	Scope    resource.Scope
	Actor    access.Actor
	ParentID string
	Filter   resource.Filter
}

// ListFolderResult mirrors the listFolder success payload.
type ListFolderResult struct {
	Files   []*resource.Object `json:"files"`
	Folders []*resource.Object `json:"folders"`
	Filter  resource.Filter    `json:"objectFilter"`
	Full    bool               `json:"full"`
}

func (g *Gateway) ListFolder(ctx context.Context, req ListFolderRequest) (*ListFolderResult, error) {
	req.ParentID = strings.TrimSpace(req.ParentID)
	if req.ParentID == "" {
		return nil, apperrors.MissingParent()
	}
	if !resource.ValidFilter(req.Filter) {
		return nil, apperrors.InvalidObjectFilter()
	}

	b, appErr := g.registry.Resolve(req.Scope.Resource)
	if appErr != nil {
		return nil, appErr
	}

	if err := g.checkContainerAccess(ctx, b, req.Scope, req.Actor, req.ParentID, false, access.PermNone, ""); err != nil {
		return nil, err
	}

	listing, err := b.List(ctx, req.Scope, req.ParentID, req.Filter)
	if err != nil {
		return nil, err
	}

	return &ListFolderResult{
		Files:   listing.Files,
		Folders: listing.Folders,
		Filter:  req.Filter,
		Full:    true,
	}, nil
}

// CreateObjectRequest is the input for CreateObject.
type CreateObjectRequest struct {
	Scope       resource.Scope
	Actor       access.Actor
	ParentID    string
	Type        resource.ObjectType
	Name        string
	Description string
	FileName    string
	FileBytes   []byte
	FileSize    int64
}

func (g *Gateway) CreateObject(ctx context.Context, req CreateObjectRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "", apperrors.BadRequest("missing_name", "object name is required")
	}
	if strings.TrimSpace(req.ParentID) == "" {
		return "", apperrors.MissingParent()
	}

	b, appErr := g.registry.Resolve(req.Scope.Resource)
	if appErr != nil {
		return "", appErr
	}

	if req.FileName != "" && !b.Accepts(resource.Ext(req.FileName)) {
		return "", apperrors.UnsupportedFileType()
	}

	if err := g.checkContainerAccess(ctx, b, req.Scope, req.Actor, req.ParentID, true, access.PermCreate, req.Type); err != nil {
		return "", err
	}

	obj, err := b.Create(ctx, req.Scope, backend.CreateInput{
		ParentID:    req.ParentID,
		Type:        req.Type,
		Name:        req.Name,
		Description: req.Description,
		FileName:    req.FileName,
		FileBytes:   req.FileBytes,
		FileSize:    req.FileSize,
	})
	if err != nil {
		return "", err
	}
	return obj.ID, nil
}

// UpdateObjectRequest is the input for UpdateObject.
type UpdateObjectRequest struct {
	Scope       resource.Scope
	Actor       access.Actor
	ObjectID    string
	Name        *string
	Description *string
	FileName    string
	FileBytes   []byte
	FileSize    int64
}

func (g *Gateway) UpdateObject(ctx context.Context, req UpdateObjectRequest) (*resource.Object, error) {
	if req.ObjectID == "" {
		return nil, apperrors.MissingObjectID()
	}

	b, appErr := g.registry.Resolve(req.Scope.Resource)
	if appErr != nil {
		return nil, appErr
	}

	if req.FileName != "" && !b.Accepts(resource.Ext(req.FileName)) {
		return nil, apperrors.UnsupportedFileType()
	}

	obj, err := b.Info(ctx, req.Scope, req.ObjectID)
	if err != nil {
		return nil, err
	}
	if denied := g.evaluator.Evaluate(req.Actor, obj, req.Scope.OwnerType, req.Scope.OwnerID, true, access.PermUpdate, obj.Type); denied != nil {
		return nil, denied
	}

	return b.Update(ctx, req.Scope, req.ObjectID, backend.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		FileName:    req.FileName,
		FileBytes:   req.FileBytes,
		FileSize:    req.FileSize,
	})
}

// ObjectRef names one object in a delete batch.
type ObjectRef struct {
	ID   string              `json:"id"`
	Type resource.ObjectType `json:"objectType"`
}

// DeleteObjectsRequest is the input for DeleteObjects.
type DeleteObjectsRequest struct {
	Scope   resource.Scope
	Actor   access.Actor
	Objects []ObjectRef
}

// DeleteError records one failed object within a tolerant batch.
type DeleteError struct {
	ObjectID string `json:"objectId"`
	Error    string `json:"error"`
}

// DeleteObjectsResult carries the per-object error list; empty means the
// whole batch succeeded.
type DeleteObjectsResult struct {
	Errors []DeleteError `json:"errors"`
}

// DeleteObjects expands each requested object into its descendant set and
// issues one backend delete per expanded object, concurrently. The batch is
// partially tolerant: one object's failure never aborts its siblings, and
// the reply is produced only after every delete has settled.
func (g *Gateway) DeleteObjects(ctx context.Context, req DeleteObjectsRequest) (*DeleteObjectsResult, error) {
	if len(req.Objects) == 0 {
		return nil, apperrors.NothingToDelete()
	}

	b, appErr := g.registry.Resolve(req.Scope.Resource)
	if appErr != nil {
		return nil, appErr
	}

	result := &DeleteObjectsResult{Errors: []DeleteError{}}

	var expanded []*resource.Object
	for _, ref := range req.Objects {
		if ref.ID == "" {
			result.Errors = append(result.Errors, DeleteError{ObjectID: ref.ID, Error: apperrors.MissingObjectID().Message})
			continue
		}

		obj, err := b.Info(ctx, req.Scope, ref.ID)
		if err != nil {
			result.Errors = append(result.Errors, DeleteError{ObjectID: ref.ID, Error: apperrors.From(err).Message})
			continue
		}
		if denied := g.evaluator.Evaluate(req.Actor, obj, req.Scope.OwnerType, req.Scope.OwnerID, true, access.PermDelete, obj.Type); denied != nil {
			result.Errors = append(result.Errors, DeleteError{ObjectID: ref.ID, Error: denied.Message})
			continue
		}

		subtree, err := g.walker.ExpandForDelete(ctx, backendChildren{b}, req.Scope, obj)
		if err != nil {
			result.Errors = append(result.Errors, DeleteError{ObjectID: ref.ID, Error: apperrors.From(err).Message})
			continue
		}
		expanded = append(expanded, subtree...)
	}

	result.Errors = append(result.Errors, g.deleteAll(ctx, b, req.Scope, expanded)...)

	// A join that produced nothing actionable while the context died is an
	// aggregate failure, not a silent success.
	if ctx.Err() != nil && len(result.Errors) == 0 {
		return nil, apperrors.Infrastructure("delete_join_failed", "delete batch did not complete", ctx.Err())
	}
	return result, nil
}

// backendChildren adapts the resolved backend's folder listing to the
// walker's Lister, so delete expansion sees exactly the children the backend
// serves.
type backendChildren struct {
	b backend.Backend
}

func (l backendChildren) ListChildren(ctx context.Context, scope resource.Scope, parentID string, filter resource.Filter) ([]*resource.Object, error) {
	listing, err := l.b.List(ctx, scope, parentID, filter)
	if err != nil {
		return nil, err
	}
	children := make([]*resource.Object, 0, len(listing.Folders)+len(listing.Files))
	children = append(children, listing.Folders...)
	children = append(children, listing.Files...)
	return children, nil
}

// deleteAll fans the expanded set out over a bounded worker count and joins
// every result before returning.
func (g *Gateway) deleteAll(ctx context.Context, b backend.Backend, scope resource.Scope, objs []*resource.Object) []DeleteError {
	if len(objs) == 0 {
		return nil
	}

	workers := g.deleteWorkers
	if workers > len(objs) {
		workers = len(objs)
	}

	jobs := make(chan *resource.Object, len(objs))
	results := make(chan DeleteError, len(objs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for obj := range jobs {
				func() {
					defer func() {
						if r := recover(); r != nil {
							results <- DeleteError{ObjectID: obj.ID, Error: fmt.Sprintf("panic: %v", r)}
						}
					}()
					if err := b.Delete(ctx, scope, obj.ID); err != nil {
						results <- DeleteError{ObjectID: obj.ID, Error: apperrors.From(err).Message}
					}
				}()
			}
		}()
	}

	for _, obj := range objs {
		jobs <- obj
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var errs []DeleteError
	for res := range results {
		errs = append(errs, res)
	}
	return errs
}

// ObjectInfoRequest is the input for GetObjectInfo and GetFolderPath.
type ObjectInfoRequest struct {
	Scope    resource.Scope
	Actor    access.Actor
	ObjectID string
}

func (g *Gateway) GetObjectInfo(ctx context.Context, req ObjectInfoRequest) (*resource.Object, error) {
	if req.ObjectID == "" {
		return nil, apperrors.MissingObjectID()
	}

	b, appErr := g.registry.Resolve(req.Scope.Resource)
	if appErr != nil {
		return nil, appErr
	}

	obj, err := b.Info(ctx, req.Scope, req.ObjectID)
	if err != nil {
		return nil, err
	}
	if denied := g.evaluator.Evaluate(req.Actor, obj, req.Scope.OwnerType, req.Scope.OwnerID, false, access.PermNone, obj.Type); denied != nil {
		return nil, denied
	}
	return obj, nil
}

func (g *Gateway) GetFolderPath(ctx context.Context, req ObjectInfoRequest) ([]tree.PathEntry, error) {
	if req.ObjectID == "" {
		return nil, apperrors.MissingObjectID()
	}

	if _, appErr := g.registry.Resolve(req.Scope.Resource); appErr != nil {
		return nil, appErr
	}

	return g.walker.PathToRoot(ctx, req.Scope, req.ObjectID)
}

// OwnerUsageRequest is the input for GetOwnerUsage.
type OwnerUsageRequest struct {
	Scope   resource.Scope
	Actor   access.Actor
	OwnerID string
}

// GetOwnerUsage reports an owner's stored footprint within one resource
// store. Callers see their own usage; admin roles may inspect any owner.
func (g *Gateway) GetOwnerUsage(ctx context.Context, req OwnerUsageRequest) (*backend.UsageResult, error) {
	ownerID := strings.TrimSpace(req.OwnerID)
	if ownerID == "" {
		ownerID = req.Actor.UserID
	}
	if ownerID == "" {
		return nil, apperrors.InvalidOwner()
	}

	b, appErr := g.registry.Resolve(req.Scope.Resource)
	if appErr != nil {
		return nil, appErr
	}

	if ownerID != req.Actor.UserID && !g.evaluator.IsAdmin(req.Actor) {
		return nil, apperrors.Forbidden("no_access", "no access to this owner's usage")
	}

	return b.Usage(ctx, ownerID)
}

// DownloadRequest is the input for RequestDownload.
type DownloadRequest struct {
	Scope      resource.Scope
	Actor      access.Actor
	ObjectID   string
	ObjectType resource.ObjectType
	Recursive  bool

	// RetryToken names a previous failed attempt whose bookkeeping should
	// be cleaned up once this request has been answered.
	RetryToken string
}

// DownloadReply is either a completed payload or an accepted token to poll.
type DownloadReply struct {
	Payload    []byte
	Token      string
	Accepted   bool
	InProgress bool
}

// RequestDownload allocates a job token, then attempts the backend download
// under the breaker. A call that outlives the bounded wait keeps running in
// the background and reports its terminal status against the token.
func (g *Gateway) RequestDownload(ctx context.Context, req DownloadRequest) (*DownloadReply, error) {
	if req.ObjectID == "" {
		return nil, apperrors.MissingObjectID()
	}

	b, appErr := g.registry.Resolve(req.Scope.Resource)
	if appErr != nil {
		return nil, appErr
	}

	obj, err := b.Info(ctx, req.Scope, req.ObjectID)
	if err != nil {
		return nil, err
	}
	if denied := g.evaluator.Evaluate(req.Actor, obj, req.Scope.OwnerType, req.Scope.OwnerID, false, access.PermNone, obj.Type); denied != nil {
		return nil, denied
	}

	token := g.downloads.NewToken(obj.Type)
	job := g.downloads.Begin(token, req.Actor.UserID, req.ObjectID, obj.Type)

	if req.RetryToken != "" {
		g.scheduleJobRemoval(req.RetryToken)
	}

	scope, objectID, recursive := req.Scope, req.ObjectID, req.Recursive
	res, err := g.downloads.Execute(ctx, job, func(callCtx context.Context) (*backend.DownloadResult, error) {
		return b.Download(callCtx, scope, objectID, token, recursive)
	})

	switch {
	case err == nil:
		payload, err := g.claimPayload(ctx, res.Payload, res.ArchivePath)
		if err != nil {
			return nil, err
		}
		g.scheduleJobRemoval(token)
		return &DownloadReply{Payload: payload}, nil

	case errors.Is(err, download.ErrPending):
		g.logger.Info("download accepted for background completion",
			slog.String("token", token),
			slog.String("object_id", req.ObjectID),
		)
		return &DownloadReply{Token: token, Accepted: true}, nil

	default:
		// Synchronous failure: the error is consumed here, so the job
		// record has nothing left to say.
		g.scheduleJobRemoval(token)
		return nil, err
	}
}

// GetDownloadRequest is the input for GetDownload.
type GetDownloadRequest struct {
	Scope    resource.Scope
	Actor    access.Actor
	ObjectID string
	Token    string
}

// GetDownload polls a job token. Terminal states consume the job: SUCCESS
// hands over the payload, ERROR/UNKNOWN surface the stored failure. The
// folder archive blob is removed only after a successful retrieval.
func (g *Gateway) GetDownload(ctx context.Context, req GetDownloadRequest) (*DownloadReply, error) {
	job, appErr := g.downloads.Get(req.Token, req.Actor.UserID, req.ObjectID)
	if appErr != nil {
		return nil, appErr
	}

	switch job.Status {
	case download.StatusInProgress:
		return &DownloadReply{Token: req.Token, InProgress: true}, nil

	case download.StatusError, download.StatusUnknown:
		g.downloads.Remove(req.Token)
		msg := job.ErrMessage
		if msg == "" {
			msg = "download finished in an unknown state"
		}
		return nil, apperrors.JobFailed("download_failed", msg)

	default: // StatusSuccess
		payload, err := g.claimPayload(ctx, job.Payload, job.ArchivePath)
		if err != nil {
			// Keep the job so the caller can poll again.
			return nil, err
		}
		g.downloads.Remove(req.Token)
		return &DownloadReply{Payload: payload}, nil
	}
}

// claimPayload resolves the terminal payload of a successful job: direct
// bytes for files, an archive fetch for folders. The archive blob is
// scheduled for removal only once its bytes are in hand.
func (g *Gateway) claimPayload(ctx context.Context, payload []byte, archivePath string) ([]byte, error) {
	if archivePath == "" {
		return payload, nil
	}

	data, err := g.blobs.Get(ctx, archivePath)
	if err != nil {
		return nil, apperrors.Infrastructure("archive_read_failed", "reading folder archive failed", err)
	}

	g.cleanup.Submit(func() {
		if err := g.blobs.Delete(context.Background(), archivePath); err != nil {
			g.logger.Warn("archive cleanup failed",
				slog.String("archive_path", archivePath),
				slog.String("error", err.Error()),
			)
		}
	})
	return data, nil
}

func (g *Gateway) scheduleJobRemoval(token string) {
	if !g.cleanup.Submit(func() { g.downloads.Remove(token) }) {
		g.downloads.Remove(token)
	}
}

// checkContainerAccess evaluates access against a container folder: nil
// target for the root and shared sentinels, the stored record otherwise.
func (g *Gateway) checkContainerAccess(ctx context.Context, b backend.Backend, scope resource.Scope, actor access.Actor, parentID string, edit bool, kind access.PermissionKind, targetType resource.ObjectType) error {
	var target *resource.Object
	if parentID != resource.RootID && parentID != resource.SharedID {
		obj, err := b.Info(ctx, scope, parentID)
		if err != nil {
			return apperrors.InvalidFolderPath()
		}
		target = obj
	}

	if denied := g.evaluator.Evaluate(actor, target, scope.OwnerType, scope.OwnerID, edit, kind, targetType); denied != nil {
		return denied
	}
	return nil
}
