package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RawJSONResponse writes an already-encoded JSON document unchanged.
func RawJSONResponse(c echo.Context, body json.RawMessage) error {
	return c.JSONBlob(http.StatusOK, body)
}

// SuccessResponse writes data as JSON with status 200.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// ErrorResponse writes the common error body.
func ErrorResponse(c echo.Context, status int, body ErrorBody) error {
	return c.JSON(status, body)
}

// ValidationFailedResponse writes a 400 with one entry per rejected field.
func ValidationFailedResponse(c echo.Context, errs []ValidationError) error {
	return ErrorResponse(c, http.StatusBadRequest, ErrorBody{
		Error:  "validation_error",
		Detail: Summary(errs),
		Fields: errs,
	})
}

// AppErrorResponse writes application error response.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return ErrorResponse(c, appErr.Status, ErrorBody{Error: appErr.Code, Detail: appErr.Message})
	}
	return ErrorResponse(c, http.StatusInternalServerError, ErrorBody{
		Error:  "internal_error",
		Detail: "Something went wrong",
	})
}

// HTTPErrorHandler renders framework errors (unknown route, bad method) in the
// common error body.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code := "internal_error"
		switch he.Code {
		case http.StatusNotFound:
			code = "not_found"
		case http.StatusMethodNotAllowed:
			code = "method_not_allowed"
		case http.StatusBadRequest:
			code = "validation_error"
		case http.StatusTooManyRequests:
			code = "rate_limited"
		}
		detail, ok := he.Message.(string)
		if !ok {
			detail = http.StatusText(he.Code)
		}
		_ = ErrorResponse(c, he.Code, ErrorBody{Error: code, Detail: detail})
		return
	}
	_ = AppErrorResponse(c, err)
}
