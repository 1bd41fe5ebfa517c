// Package accounts is a client of the accounts service.
package accounts

import (
	"context"
	"net/http"

	"github.com/youwol/backends/pkg/rest"
)

type HealthzResponse struct {
	Status string `json:"status"`
}

type UserInfo struct {
	Id       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Temp     bool     `json:"temp"`
	MemberOf []string `json:"memberOf"`
}

type SessionDetails struct {
	UserInfo   UserInfo `json:"userInfo"`
	Remembered bool     `json:"remembered"`
}

func (s SessionDetails) Validate() error {
	return rest.Require("userInfo.id", s.UserInfo.Id)
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

// GetSessionDetails returns the user of the session identified by headers.
func (c *Client) GetSessionDetails(ctx context.Context, headers rest.Headers) (SessionDetails, error) {
	return rest.JSON[SessionDetails](ctx, c.exec, rest.Request{
		Method:  http.MethodGet,
		Path:    "/session",
		Headers: headers,
	})
}
