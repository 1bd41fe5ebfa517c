package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	xe "github.com/youwol/backends/pkg/errors"
	"github.com/youwol/backends/pkg/rest"
)

// ErrorResponse is the body of error responses.
//
// Backend services report errors in the same shape, so errors from them are relayed as they are.
type ErrorResponse struct {
	Detail     string         `json:"detail"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

func (e ErrorResponse) Error() string {
	return e.Detail
}

func NewHTTPError(code int, detail string, cause error) *echo.HTTPError {
	he := echo.NewHTTPError(code, ErrorResponse{Detail: detail})
	if cause != nil {
		he = he.SetInternal(cause)
	}
	return he
}

func BadRequest(detail string, err error) *echo.HTTPError {
	return NewHTTPError(http.StatusBadRequest, detail, err)
}

func Unauthorized(detail string, err error) *echo.HTTPError {
	return NewHTTPError(http.StatusUnauthorized, detail, err)
}

func NotFound() *echo.HTTPError {
	return NewHTTPError(http.StatusNotFound, "not found", nil)
}

func BadGateway(err error) *echo.HTTPError {
	return NewHTTPError(http.StatusBadGateway, "backend service is not reachable", err)
}

func ServiceUnavailable(detail string, err error) *echo.HTTPError {
	return NewHTTPError(http.StatusServiceUnavailable, detail, err)
}

func InternalServerError(err error) *echo.HTTPError {
	return NewHTTPError(http.StatusInternalServerError, "unexpected error", err)
}

// FromError converts err into *echo.HTTPError.
//
// - *rest.ServiceError: the status code, detail and parameters are relayed.
//
// - validation errors: 400.
//
// - configuration errors: 503.
//
// - *echo.HTTPError: as it is.
//
// - others: 500.
func FromError(err error) *echo.HTTPError {
	if he := new(echo.HTTPError); errors.As(err, &he) {
		return he
	}
	if se, ok := rest.AsServiceError(err); ok {
		return echo.NewHTTPError(
			se.StatusCode(),
			ErrorResponse{Detail: se.Detail(), Parameters: se.Parameters()},
		).SetInternal(err)
	}
	switch {
	case errors.Is(err, xe.ErrValidation):
		return BadRequest(err.Error(), err)
	case errors.Is(err, xe.ErrConfiguration):
		return ServiceUnavailable("service is not configured", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewHTTPError(http.StatusGatewayTimeout, "backend service timed out", err)
	}
	return InternalServerError(err)
}

// Handler writes errors as ErrorResponse.
//
// It is meant to be echo.HTTPErrorHandler.
func Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he := FromError(err)
	body, ok := he.Message.(ErrorResponse)
	if !ok {
		body = ErrorResponse{Detail: fmt.Sprint(he.Message)}
	}
	if he.Code >= http.StatusInternalServerError {
		c.Logger().Errorf("%d %s: %+v", he.Code, body.Detail, err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, body)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
