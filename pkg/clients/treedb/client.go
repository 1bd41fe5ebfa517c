package treedb

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/youwol/backends/pkg/rest"
)

// Client of the tree-db service, which owns drives, folders and items of groups.
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

// GetDrives lists drives of the group.
func (c *Client) GetDrives(ctx context.Context, groupId string, headers rest.Headers) (DrivesResponse, error) {
	if err := rest.Require("groupId", groupId); err != nil {
		return DrivesResponse{}, err
	}
	return rest.JSON[DrivesResponse](ctx, c.exec, rest.Request{
		Method:     http.MethodGet,
		Path:       rest.PathOf("groups", groupId, "drives"),
		Headers:    headers,
		Parameters: map[string]any{"groupId": groupId},
	})
}

func (c *Client) GetDrive(ctx context.Context, driveId string, headers rest.Headers) (Drive, error) {
	if err := rest.Require("driveId", driveId); err != nil {
		return Drive{}, err
	}
	return rest.JSON[Drive](ctx, c.exec, rest.Request{
		Method:     http.MethodGet,
		Path:       rest.PathOf("drives", driveId),
		Headers:    headers,
		Parameters: map[string]any{"driveId": driveId},
	})
}

// CreateDrive creates a drive in the group.
//
// When body.DriveId is empty, a new UUID is used.
func (c *Client) CreateDrive(ctx context.Context, groupId string, body CreateDriveBody, headers rest.Headers) (Drive, error) {
	if err := rest.RequireAll("groupId", groupId, "name", body.Name); err != nil {
		return Drive{}, err
	}
	if body.DriveId == "" {
		body.DriveId = uuid.NewString()
	}
	return rest.JSON[Drive](ctx, c.exec, rest.Request{
		Method:     http.MethodPut,
		Path:       rest.PathOf("groups", groupId, "drives"),
		Headers:    headers,
		Body:       body,
		Parameters: map[string]any{"groupId": groupId, "name": body.Name},
	})
}

func (c *Client) GetFolder(ctx context.Context, folderId string, headers rest.Headers) (Folder, error) {
	if err := rest.Require("folderId", folderId); err != nil {
		return Folder{}, err
	}
	return rest.JSON[Folder](ctx, c.exec, rest.Request{
		Method:     http.MethodGet,
		Path:       rest.PathOf("folders", folderId),
		Headers:    headers,
		Parameters: map[string]any{"folderId": folderId},
	})
}

// GetChildren lists folders and items just under the folder.
//
// A drive id can be given as folderId to list the root of the drive.
func (c *Client) GetChildren(ctx context.Context, folderId string, headers rest.Headers) (ChildrenResponse, error) {
	if err := rest.Require("folderId", folderId); err != nil {
		return ChildrenResponse{}, err
	}
	return rest.JSON[ChildrenResponse](ctx, c.exec, rest.Request{
		Method:     http.MethodGet,
		Path:       rest.PathOf("folders", folderId, "children"),
		Headers:    headers,
		Parameters: map[string]any{"folderId": folderId},
	})
}

// CreateFolder creates a folder under parentFolderId (a folder id or a drive id).
//
// When body.FolderId is empty, a new UUID is used.
func (c *Client) CreateFolder(ctx context.Context, parentFolderId string, body CreateFolderBody, headers rest.Headers) (Folder, error) {
	if err := rest.RequireAll("parentFolderId", parentFolderId, "name", body.Name); err != nil {
		return Folder{}, err
	}
	if body.FolderId == "" {
		body.FolderId = uuid.NewString()
	}
	return rest.JSON[Folder](ctx, c.exec, rest.Request{
		Method:     http.MethodPut,
		Path:       rest.PathOf("folders", parentFolderId),
		Headers:    headers,
		Body:       body,
		Parameters: map[string]any{"parentFolderId": parentFolderId, "name": body.Name},
	})
}
