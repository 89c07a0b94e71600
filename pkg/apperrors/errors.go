package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors - sentinel errors for use with errors.Is()
var (
	ErrNotFound       = errors.New("resource not found")
	ErrForbidden      = errors.New("forbidden")
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("resource already exists")
	ErrInternalServer = errors.New("internal server error")
	ErrInfrastructure = errors.New("infrastructure failure")
	ErrJobFailed      = errors.New("background job failed")
)

// AppError is the typed error used across the gateway. Every failure carries
// a human message, a stable error id suitable for localization, a machine
// code grouping, and an HTTP-like status.
type AppError struct {
	Message string
	ErrorID string
	Code    string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructors

func NotFound(errorID, msg string) *AppError {
	return &AppError{Code: "NOT_FOUND", ErrorID: errorID, Message: msg, Status: http.StatusNotFound, Err: ErrNotFound}
}

func Forbidden(errorID, msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", ErrorID: errorID, Message: msg, Status: http.StatusForbidden, Err: ErrForbidden}
}

func BadRequest(errorID, msg string) *AppError {
	return &AppError{Code: "BAD_REQUEST", ErrorID: errorID, Message: msg, Status: http.StatusBadRequest, Err: ErrValidation}
}

func Conflict(errorID, msg string) *AppError {
	return &AppError{Code: "CONFLICT", ErrorID: errorID, Message: msg, Status: http.StatusConflict, Err: ErrConflict}
}

func InternalServer(errorID, msg string, err error) *AppError {
	return &AppError{Code: "INTERNAL_SERVER_ERROR", ErrorID: errorID, Message: msg, Status: http.StatusInternalServerError, Err: errors.Join(ErrInternalServer, err)}
}

func Infrastructure(errorID, msg string, err error) *AppError {
	return &AppError{Code: "INFRASTRUCTURE", ErrorID: errorID, Message: msg, Status: http.StatusBadGateway, Err: errors.Join(ErrInfrastructure, err)}
}

func JobFailed(errorID, msg string) *AppError {
	return &AppError{Code: "JOB_FAILED", ErrorID: errorID, Message: msg, Status: http.StatusInternalServerError, Err: ErrJobFailed}
}

// Stable error ids referenced by clients.

func InvalidResourceType() *AppError {
	return BadRequest("invalid_resource_type", "unknown resource type")
}

func InvalidObjectFilter() *AppError {
	return BadRequest("invalid_object_filter", "unknown object filter")
}

func UnsupportedFileType() *AppError {
	return BadRequest("unsupported_file_type", "file extension is not accepted by this store")
}

func NothingToDelete() *AppError {
	return BadRequest("nothing_to_delete", "delete request contains no objects")
}

func DuplicateName() *AppError {
	return Conflict("duplicate_name", "an object with this name already exists in the target folder")
}

func MissingParent() *AppError {
	return BadRequest("missing_parent", "parent folder id is required")
}

func MissingObjectID() *AppError {
	return BadRequest("missing_object_id", "object id is required")
}

func InvalidOwner() *AppError {
	return BadRequest("invalid_owner", "owner reference is invalid")
}

func ObjectNotFound() *AppError {
	return NotFound("object_not_found", "object does not exist")
}

func InvalidFolderPath() *AppError {
	return NotFound("invalid_folder_path", "folder path cannot be resolved")
}

func UnknownRequestToken() *AppError {
	return NotFound("unknown_request_token", "download token is unknown or not owned by caller")
}

// From converts any error into an AppError. Unknown errors map to a generic
// internal error so backend-internal text never reaches the caller.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    "INTERNAL_SERVER_ERROR",
		ErrorID: "internal_error",
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}
