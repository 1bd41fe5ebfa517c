// Package cdn is a client of the CDN service, which distributes versioned libraries.
package cdn

import (
	"context"
	"net/http"
	"strings"

	"github.com/youwol/backends/pkg/rest"
)

type HealthzResponse struct {
	Status string `json:"status"`
}

type LibraryInfo struct {
	Name      string   `json:"name"`
	LibraryId string   `json:"libraryId"`
	Namespace string   `json:"namespace"`
	Versions  []string `json:"versions"`
}

func (l LibraryInfo) Validate() error {
	return rest.RequireAll("name", l.Name, "libraryId", l.LibraryId)
}

type Client struct {
	exec *rest.Executor
}

func New(exec *rest.Executor) *Client {
	return &Client{exec: exec}
}

func (c *Client) Healthz(ctx context.Context, headers rest.Headers) (HealthzResponse, error) {
	return rest.JSON[HealthzResponse](ctx, c.exec, rest.Request{
		Method:  http.MethodGet,
		Path:    "/healthz",
		Headers: headers,
	})
}

func (c *Client) GetLibraryInfo(ctx context.Context, libraryId string, headers rest.Headers) (LibraryInfo, error) {
	if err := rest.Require("libraryId", libraryId); err != nil {
		return LibraryInfo{}, err
	}
	return rest.JSON[LibraryInfo](ctx, c.exec, rest.Request{
		Method:     http.MethodGet,
		Path:       rest.PathOf("libraries", libraryId),
		Headers:    headers,
		Parameters: map[string]any{"libraryId": libraryId},
	})
}

// GetResource downloads a file of a library version, as it is stored.
//
// resourcePath is a slash separated path in the library, like "dist/index.js".
func (c *Client) GetResource(ctx context.Context, libraryId string, version string, resourcePath string, headers rest.Headers) ([]byte, error) {
	if err := rest.RequireAll("libraryId", libraryId, "version", version, "resourcePath", resourcePath); err != nil {
		return nil, err
	}
	segments := append(
		[]string{"resources", libraryId, version},
		strings.Split(strings.Trim(resourcePath, "/"), "/")...,
	)
	return rest.Bytes(ctx, c.exec, rest.Request{
		Method:  http.MethodGet,
		Path:    rest.PathOf(segments...),
		Headers: headers,
		Parameters: map[string]any{
			"libraryId": libraryId, "version": version, "resourcePath": resourcePath,
		},
	})
}

func (c *Client) DeleteVersion(ctx context.Context, libraryId string, version string, headers rest.Headers) (rest.EmptyResponse, error) {
	if err := rest.RequireAll("libraryId", libraryId, "version", version); err != nil {
		return rest.EmptyResponse{}, err
	}
	return rest.NoContent(ctx, c.exec, rest.Request{
		Method:     http.MethodDelete,
		Path:       rest.PathOf("libraries", libraryId, version),
		Headers:    headers,
		Parameters: map[string]any{"libraryId": libraryId, "version": version},
	})
}
