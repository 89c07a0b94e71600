package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"resource-gateway/internal/domain/resource"
	"resource-gateway/internal/gateway"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", handleMetrics)

	api := s.echo.Group("/api/v1/resources", ActorMiddleware(s.jwtSecret))
	api.GET("/:resourceType/folders/:parentId", s.handleListFolder)
	api.POST("/:resourceType/objects", s.handleCreateObject)
	api.PUT("/:resourceType/objects/:objectId", s.handleUpdateObject)
	api.POST("/:resourceType/objects/delete", s.handleDeleteObjects)
	api.GET("/:resourceType/usage", s.handleOwnerUsage)
	api.GET("/:resourceType/objects/:objectId", s.handleObjectInfo)
	api.GET("/:resourceType/objects/:objectId/path", s.handleFolderPath)
	api.POST("/:resourceType/objects/:objectId/download", s.handleRequestDownload)
	api.GET("/:resourceType/objects/:objectId/download/:token", s.handleGetDownload)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func scopeFrom(c echo.Context) resource.Scope {
	return resource.Scope{
		Resource:  resource.Type(c.Param("resourceType")),
		OwnerType: resource.OwnerType(c.QueryParam("ownerType")),
		OwnerID:   c.QueryParam("ownerId"),
	}
}

func (s *Server) handleListFolder(c echo.Context) error {
	filter := resource.Filter(c.QueryParam("objectFilter"))
	if filter == "" {
		filter = resource.FilterAll
	}

	result, err := s.gateway.ListFolder(c.Request().Context(), gateway.ListFolderRequest{
		Scope:    scopeFrom(c),
		Actor:    actorFrom(c),
		ParentID: c.Param("parentId"),
		Filter:   filter,
	})
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, http.StatusOK, map[string]interface{}{
		"files":        result.Files,
		"folders":      result.Folders,
		"objectFilter": result.Filter,
		"full":         result.Full,
	})
}

type createObjectBody struct {
	OwnerType   string              `json:"ownerType"`
	OwnerID     string              `json:"ownerId"`
	ParentID    string              `json:"parentId"`
	ObjectType  resource.ObjectType `json:"objectType"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	FileName    string              `json:"fileName"`
	FileBytes   []byte              `json:"fileBytes"`
	FileSize    int64               `json:"fileSize"`
}

func (s *Server) handleCreateObject(c echo.Context) error {
	var body createObjectBody
	if err := c.Bind(&body); err != nil {
		return respondError(c, echo.NewHTTPError(http.StatusBadRequest, err.Error()))
	}

	scope := scopeFrom(c)
	if body.OwnerType != "" {
		scope.OwnerType = resource.OwnerType(body.OwnerType)
	}
	if body.OwnerID != "" {
		scope.OwnerID = body.OwnerID
	}

	objectID, err := s.gateway.CreateObject(c.Request().Context(), gateway.CreateObjectRequest{
		Scope:       scope,
		Actor:       actorFrom(c),
		ParentID:    body.ParentID,
		Type:        body.ObjectType,
		Name:        body.Name,
		Description: body.Description,
		FileName:    body.FileName,
		FileBytes:   body.FileBytes,
		FileSize:    body.FileSize,
	})
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, http.StatusOK, map[string]interface{}{"objectId": objectID})
}

type updateObjectBody struct {
	OwnerType   string  `json:"ownerType"`
	OwnerID     string  `json:"ownerId"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	FileName    string  `json:"fileName"`
	FileBytes   []byte  `json:"fileBytes"`
	FileSize    int64   `json:"fileSize"`
}

func (s *Server) handleUpdateObject(c echo.Context) error {
	var body updateObjectBody
	if err := c.Bind(&body); err != nil {
		return respondError(c, echo.NewHTTPError(http.StatusBadRequest, err.Error()))
	}

	scope := scopeFrom(c)
	if body.OwnerType != "" {
		scope.OwnerType = resource.OwnerType(body.OwnerType)
	}
	if body.OwnerID != "" {
		scope.OwnerID = body.OwnerID
	}

	obj, err := s.gateway.UpdateObject(c.Request().Context(), gateway.UpdateObjectRequest{
		Scope:       scope,
		Actor:       actorFrom(c),
		ObjectID:    c.Param("objectId"),
		Name:        body.Name,
		Description: body.Description,
		FileName:    body.FileName,
		FileBytes:   body.FileBytes,
		FileSize:    body.FileSize,
	})
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, http.StatusOK, objectFields(obj))
}

type deleteObjectsBody struct {
	OwnerType string              `json:"ownerType"`
	OwnerID   string              `json:"ownerId"`
	Objects   []gateway.ObjectRef `json:"objects"`
}

func (s *Server) handleDeleteObjects(c echo.Context) error {
	var body deleteObjectsBody
	if err := c.Bind(&body); err != nil {
		return respondError(c, echo.NewHTTPError(http.StatusBadRequest, err.Error()))
	}

	scope := scopeFrom(c)
	if body.OwnerType != "" {
		scope.OwnerType = resource.OwnerType(body.OwnerType)
	}
	if body.OwnerID != "" {
		scope.OwnerID = body.OwnerID
	}

	result, err := s.gateway.DeleteObjects(c.Request().Context(), gateway.DeleteObjectsRequest{
		Scope:   scope,
		Actor:   actorFrom(c),
		Objects: body.Objects,
	})
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, http.StatusOK, map[string]interface{}{"errors": result.Errors})
}

func (s *Server) handleOwnerUsage(c echo.Context) error {
	usage, err := s.gateway.GetOwnerUsage(c.Request().Context(), gateway.OwnerUsageRequest{
		Scope:   scopeFrom(c),
		Actor:   actorFrom(c),
		OwnerID: c.QueryParam("ownerId"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, map[string]interface{}{
		"files":      usage.Files,
		"folders":    usage.Folders,
		"totalBytes": usage.TotalBytes,
	})
}

func (s *Server) handleObjectInfo(c echo.Context) error {
	obj, err := s.gateway.GetObjectInfo(c.Request().Context(), gateway.ObjectInfoRequest{
		Scope:    scopeFrom(c),
		Actor:    actorFrom(c),
		ObjectID: c.Param("objectId"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, objectFields(obj))
}

func (s *Server) handleFolderPath(c echo.Context) error {
	path, err := s.gateway.GetFolderPath(c.Request().Context(), gateway.ObjectInfoRequest{
		Scope:    scopeFrom(c),
		Actor:    actorFrom(c),
		ObjectID: c.Param("objectId"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, map[string]interface{}{"path": path})
}

type downloadBody struct {
	OwnerType  string              `json:"ownerType"`
	OwnerID    string              `json:"ownerId"`
	ObjectType resource.ObjectType `json:"objectType"`
	Recursive  bool                `json:"recursive"`
	RetryToken string              `json:"retryToken"`
}

func (s *Server) handleRequestDownload(c echo.Context) error {
	var body downloadBody
	if err := c.Bind(&body); err != nil {
		return respondError(c, echo.NewHTTPError(http.StatusBadRequest, err.Error()))
	}

	scope := scopeFrom(c)
	if body.OwnerType != "" {
		scope.OwnerType = resource.OwnerType(body.OwnerType)
	}
	if body.OwnerID != "" {
		scope.OwnerID = body.OwnerID
	}

	reply, err := s.gateway.RequestDownload(c.Request().Context(), gateway.DownloadRequest{
		Scope:      scope,
		Actor:      actorFrom(c),
		ObjectID:   c.Param("objectId"),
		ObjectType: body.ObjectType,
		Recursive:  body.Recursive,
		RetryToken: body.RetryToken,
	})
	if err != nil {
		return respondError(c, err)
	}

	if reply.Accepted {
		return respondOK(c, http.StatusAccepted, map[string]interface{}{"token": reply.Token})
	}
	return c.Blob(http.StatusOK, "application/octet-stream", reply.Payload)
}

func (s *Server) handleGetDownload(c echo.Context) error {
	reply, err := s.gateway.GetDownload(c.Request().Context(), gateway.GetDownloadRequest{
		Scope:    scopeFrom(c),
		Actor:    actorFrom(c),
		ObjectID: c.Param("objectId"),
		Token:    c.Param("token"),
	})
	if err != nil {
		return respondError(c, err)
	}

	if reply.InProgress {
		// Callers tell "still working" from failure by status code alone.
		return c.NoContent(http.StatusAccepted)
	}
	return c.Blob(http.StatusOK, "application/octet-stream", reply.Payload)
}

// objectFields flattens an object record into envelope fields, the shape
// shared by getObjectInfo and updateObject replies.
func objectFields(obj *resource.Object) map[string]interface{} {
	fields := map[string]interface{}{
		"objectId":   obj.ID,
		"objectType": obj.Type,
		"ownerType":  obj.OwnerType,
		"parentId":   obj.ParentID,
		"path":       obj.Path,
		"name":       obj.Name,
		"createdAt":  obj.CreatedAt,
		"updatedAt":  obj.UpdatedAt,
	}
	if obj.OwnerID != "" {
		fields["ownerId"] = obj.OwnerID
	}
	if obj.Description != "" {
		fields["description"] = obj.Description
	}
	if obj.Type == resource.ObjectFile {
		fields["fileName"] = obj.FileName
		fields["fileType"] = obj.FileType
		fields["fileSize"] = obj.FileSize
	}
	return fields
}
