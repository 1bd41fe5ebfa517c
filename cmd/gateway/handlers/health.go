package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/youwol/backends/pkg/api/types/errors"
	"github.com/youwol/backends/pkg/rest"
)

type HealthzResponse struct {
	Status   string            `json:"status"`
	Backends map[string]string `json:"backends"`
}

// HealthzHandler checks health of backend services, calling them as the gateway itself.
//
// It responds 503 when any of them is unhealthy.
func HealthzHandler(src Source) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		conf, err := src.Resolve(ctx)
		if err != nil {
			return err
		}
		admin, err := conf.AdminHeaders.Resolve(ctx)
		if err != nil {
			return apierr.ServiceUnavailable("admin credentials are not available", err)
		}

		resp := HealthzResponse{Status: "ok", Backends: map[string]string{}}
		for _, probe := range []struct {
			name  string
			check func(context.Context, rest.Headers) (string, error)
		}{
			{
				name: "accounts",
				check: func(ctx context.Context, h rest.Headers) (string, error) {
					r, err := conf.Accounts.Healthz(ctx, h)
					return r.Status, err
				},
			},
			{
				name: "treedb",
				check: func(ctx context.Context, h rest.Headers) (string, error) {
					r, err := conf.TreeDb.Healthz(ctx, h)
					return r.Status, err
				},
			},
			{
				name: "cdn",
				check: func(ctx context.Context, h rest.Headers) (string, error) {
					r, err := conf.Cdn.Healthz(ctx, h)
					return r.Status, err
				},
			},
		} {
			status, err := probe.check(ctx, admin)
			if err != nil {
				return apierr.ServiceUnavailable(fmt.Sprintf("%s is unhealthy", probe.name), err)
			}
			resp.Backends[probe.name] = status
		}
		return c.JSON(http.StatusOK, resp)
	}
}
