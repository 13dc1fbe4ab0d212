package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inhausmakers/avatar-manager/internal/service"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorJSON sends the error envelope.
func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// successJSON sends a JSON success response with a data envelope.
func successJSON(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, map[string]interface{}{"data": data})
}

// mapServiceError translates a service-layer error into the appropriate HTTP
// response via its wrapped sentinel.
func mapServiceError(c echo.Context, err error) error {
	var svcErr *service.ServiceError
	if !errors.As(err, &svcErr) {
		return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(svcErr.Err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(svcErr.Err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(svcErr.Err, service.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(svcErr.Err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(svcErr.Err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(svcErr.Err, service.ErrUnsupportedMedia):
		status = http.StatusUnsupportedMediaType
	}

	return errorJSON(c, status, svcErr.Code, svcErr.Message)
}
