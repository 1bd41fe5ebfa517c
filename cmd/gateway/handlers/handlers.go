// Package handlers implements endpoints of the gateway.
//
// Handlers resolve the backend configuration per request, and forward the headers
// of the inbound request to backend services.
// Errors are returned as they are, to be written by the error handler of the server.
package handlers

import (
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	apierr "github.com/youwol/backends/pkg/api/types/errors"
	"github.com/youwol/backends/pkg/backend"
	"github.com/youwol/backends/pkg/dependency"
	"github.com/youwol/backends/pkg/echoutil"
)

type Source = dependency.Source[*backend.Configuration]

func decodeJSON(c echo.Context, out any) error {
	req := c.Request()
	ctype := strings.ToLower(req.Header.Get(echo.HeaderContentType))
	if !strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		return apierr.BadRequest("unexpected content type. it should be application/json", nil)
	}
	if err := json.NewDecoder(req.Body).Decode(out); err != nil {
		return apierr.BadRequest("can not understand the requested json", err)
	}
	return nil
}

// SessionHandler returns the session of the requester, from accounts.
func SessionHandler(src Source) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		conf, err := src.Resolve(ctx)
		if err != nil {
			return err
		}
		session, err := conf.Accounts.GetSessionDetails(ctx, echoutil.ForwardedHeaders(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, session)
	}
}

func GetLibraryHandler(src Source, libraryIdParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		conf, err := src.Resolve(ctx)
		if err != nil {
			return err
		}
		lib, err := conf.Cdn.GetLibraryInfo(ctx, c.Param(libraryIdParam), echoutil.ForwardedHeaders(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, lib)
	}
}
