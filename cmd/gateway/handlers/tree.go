package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/youwol/backends/pkg/echoutil"
)

type EnsurePathRequest struct {
	DriveName string   `json:"driveName"`
	Folders   []string `json:"folders"`
}

// EnsurePathHandler materializes the drive and folders in the group,
// and responds ids of the drive and the deepest folder.
func EnsurePathHandler(src Source, groupIdParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		body := EnsurePathRequest{}
		if err := decodeJSON(c, &body); err != nil {
			return err
		}

		conf, err := src.Resolve(ctx)
		if err != nil {
			return err
		}
		path, err := conf.Paths.Ensure(
			ctx, c.Param(groupIdParam), body.DriveName, body.Folders, echoutil.ForwardedHeaders(c),
		)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, path)
	}
}
