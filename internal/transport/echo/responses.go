package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"resource-gateway/pkg/apperrors"
)

// Every operation replies with this envelope: OK plus operation-specific
// fields on success, ERROR with a stable errorId on failure.

type errorBody struct {
	Message string `json:"message"`
	ErrorID string `json:"errorId"`
}

type failureEnvelope struct {
	Status     string    `json:"status"`
	StatusCode int       `json:"statusCode"`
	ErrorID    string    `json:"errorId"`
	Message    errorBody `json:"message"`
}

func respondOK(c echo.Context, statusCode int, fields map[string]interface{}) error {
	body := map[string]interface{}{
		"status":     "OK",
		"statusCode": statusCode,
	}
	for k, v := range fields {
		body[k] = v
	}
	return c.JSON(statusCode, body)
}

func respondError(c echo.Context, err error) error {
	appErr := apperrors.From(err)

	status := appErr.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return c.JSON(status, failureEnvelope{
		Status:     "ERROR",
		StatusCode: status,
		ErrorID:    appErr.ErrorID,
		Message: errorBody{
			Message: appErr.Message,
			ErrorID: appErr.ErrorID,
		},
	})
}
