package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/youwol/backends/cmd/gateway/handlers"
	apierr "github.com/youwol/backends/pkg/api/types/errors"
	"github.com/youwol/backends/pkg/echoutil"
	"github.com/youwol/backends/pkg/metrics"
)

const API_ROOT = "/api"

type ServerOptions struct {
	LogLevel string

	// HmacSecret verifies bearer tokens on /api. When empty, tokens are not verified.
	HmacSecret []byte

	// Gatherer is exposed on /metrics. When nil, prometheus.DefaultGatherer is used.
	Gatherer promclient.Gatherer
}

func BuildServer(src handlers.Source, opts ServerOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	echoutil.SetLevel(e, opts.LogLevel)
	e.HTTPErrorHandler = apierr.Handler
	e.Use(echoutil.TraceId, echoutil.LogHandlerFunc)

	e.GET("/healthz", handlers.HealthzHandler(src))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(opts.Gatherer)))

	api := e.Group(API_ROOT)
	if len(opts.HmacSecret) != 0 {
		api.Use(echoutil.Bearer(opts.HmacSecret))
	}

	api.GET("/accounts/session", handlers.SessionHandler(src))

	{
		storage := "/storage/applications/:package/:key"
		api.GET(storage, handlers.GetStorageHandler(src, "package", "key"))
		api.POST(storage, handlers.PostStorageHandler(src, "package", "key"))
	}

	api.PUT("/tree/groups/:groupId/paths", handlers.EnsurePathHandler(src, "groupId"))

	api.GET("/cdn/libraries/:libraryId", handlers.GetLibraryHandler(src, "libraryId"))

	{
		prefix := API_ROOT + "/files"
		proxy := handlers.FilesProxyHandler(src, prefix)
		api.Match(
			[]string{
				http.MethodGet, http.MethodHead, http.MethodPost,
				http.MethodPut, http.MethodDelete, http.MethodPatch,
			},
			"/files/*", proxy,
		)
	}

	return e
}
