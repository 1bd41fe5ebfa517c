package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/youwol/backends/pkg/api/types/errors"
	"github.com/youwol/backends/pkg/echoutil"
)

func GetStorageHandler(src Source, packageParam string, keyParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		conf, err := src.Resolve(ctx)
		if err != nil {
			return err
		}
		doc, err := conf.Storage.Get(
			ctx, c.Param(packageParam), c.Param(keyParam), echoutil.ForwardedHeaders(c),
		)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, doc)
	}
}

// PostStorageHandler stores the JSON object in the request body.
//
// It responds 204 on success.
func PostStorageHandler(src Source, packageParam string, keyParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		doc := map[string]any{}
		if err := decodeJSON(c, &doc); err != nil {
			return err
		}
		if doc == nil {
			return apierr.BadRequest("body should be a JSON object", nil)
		}

		conf, err := src.Resolve(ctx)
		if err != nil {
			return err
		}
		if _, err := conf.Storage.Post(
			ctx, c.Param(packageParam), c.Param(keyParam), doc, echoutil.ForwardedHeaders(c),
		); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}
