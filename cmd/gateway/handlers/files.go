package handlers

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/youwol/backends/pkg/echoutil"
	"github.com/youwol/backends/pkg/rest"
)

// FilesProxyHandler forwards requests under prefix to the files service as they are.
//
// "{prefix}/files/{fileId}?q" is forwarded to "{files service}/files/{fileId}?q".
func FilesProxyHandler(src Source, prefix string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		conf, err := src.Resolve(req.Context())
		if err != nil {
			return err
		}

		sub := strings.TrimPrefix(req.URL.EscapedPath(), strings.TrimSuffix(prefix, "/"))
		if err := rest.CheckPath(sub); err != nil {
			return err
		}
		dest := conf.FilesForward.URL(sub)
		if q := req.URL.RawQuery; q != "" {
			dest += "?" + q
		}
		return echoutil.Proxy(c, conf.FilesForward.HTTPClient(), dest)
	}
}
