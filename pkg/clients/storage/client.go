// Package storage is a client of the session storage service,
// which keeps a JSON document for each pair of (package, key) per user.
package storage

import (
	"context"
	"net/http"

	"github.com/youwol/backends/pkg/rest"
)

type Client struct {
	exec *rest.Executor
}

func New(exec *rest.Executor) *Client {
	return &Client{exec: exec}
}

// Get returns the document stored for (packageName, key).
func (c *Client) Get(ctx context.Context, packageName string, key string, headers rest.Headers) (map[string]any, error) {
	if err := rest.RequireAll("package", packageName, "key", key); err != nil {
		return nil, err
	}
	return rest.JSON[map[string]any](ctx, c.exec, rest.Request{
		Method:     http.MethodGet,
		Path:       rest.PathOf("applications", packageName, key),
		Headers:    headers,
		Parameters: map[string]any{"package": packageName, "key": key},
	})
}

// Post stores body for (packageName, key), replacing the previous one.
func (c *Client) Post(ctx context.Context, packageName string, key string, body map[string]any, headers rest.Headers) (rest.EmptyResponse, error) {
	if err := rest.RequireAll("package", packageName, "key", key); err != nil {
		return rest.EmptyResponse{}, err
	}
	if body == nil {
		return rest.EmptyResponse{}, &rest.ValidationError{Field: "body", Reason: "must be a JSON object"}
	}
	return rest.NoContent(ctx, c.exec, rest.Request{
		Method:     http.MethodPost,
		Path:       rest.PathOf("applications", packageName, key),
		Headers:    headers,
		Body:       body,
		Parameters: map[string]any{"package": packageName, "key": key},
	})
}

func (c *Client) Delete(ctx context.Context, packageName string, key string, headers rest.Headers) (rest.EmptyResponse, error) {
	if err := rest.RequireAll("package", packageName, "key", key); err != nil {
		return rest.EmptyResponse{}, err
	}
	return rest.NoContent(ctx, c.exec, rest.Request{
		Method:     http.MethodDelete,
		Path:       rest.PathOf("applications", packageName, key),
		Headers:    headers,
		Parameters: map[string]any{"package": packageName, "key": key},
	})
}
