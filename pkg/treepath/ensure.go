// Package treepath materializes drive/folder paths in tree-db.
package treepath

import (
	"context"
	"fmt"

	"github.com/youwol/backends/pkg/clients/treedb"
	"github.com/youwol/backends/pkg/locks"
	"github.com/youwol/backends/pkg/rest"
)

// TreeDb is the subset of tree-db operations used to ensure paths.
//
// *treedb.Client satisfies this.
type TreeDb interface {
	GetDrives(ctx context.Context, groupId string, headers rest.Headers) (treedb.DrivesResponse, error)
	CreateDrive(ctx context.Context, groupId string, body treedb.CreateDriveBody, headers rest.Headers) (treedb.Drive, error)
	GetChildren(ctx context.Context, folderId string, headers rest.Headers) (treedb.ChildrenResponse, error)
	CreateFolder(ctx context.Context, parentFolderId string, body treedb.CreateFolderBody, headers rest.Headers) (treedb.Folder, error)
}

// Path is the location materialized by Ensurer.
type Path struct {
	DriveId string `json:"driveId"`

	// FolderId is the deepest folder of the path.
	// For a path without folders, it is the DriveId.
	FolderId string `json:"folderId"`
}

type Ensurer struct {
	tree   TreeDb
	locker locks.Locker
}

// New creates an Ensurer.
//
// Calls for the same (groupId, driveName) are serialized by locker.
// When locker is nil, an in-process lock is used.
func New(tree TreeDb, locker locks.Locker) *Ensurer {
	if locker == nil {
		locker = locks.NewKeyed()
	}
	return &Ensurer{tree: tree, locker: locker}
}

// LockKey is the key to be locked while ensuring paths in the drive.
//
// Each part is escaped, so different pairs never share a key.
func LockKey(groupId string, driveName string) string {
	return "treepath" + rest.PathOf(groupId, driveName)
}

// Ensure finds or creates the drive named driveName in the group,
// and then the chain of folders, one level per element of folders.
//
// Existing drives and folders are reused by exact name match; only missing ones are created.
// Steps are sequential: the drive first, and then folders from the top.
//
// # Args
//
// - ctx
//
// - groupId, driveName: the drive. Both are required.
//
// - folders: names of folders, from the top. It can be empty.
//
// - headers: forwarded to each tree-db call.
//
// # Returns
//
// - Path
//
// - error: errors from tree-db calls are returned as they are.
// *rest.ValidationError when required args are empty.
// ctx.Err() or lock backend errors when the lock cannot be acquired.
func (e *Ensurer) Ensure(ctx context.Context, groupId string, driveName string, folders []string, headers rest.Headers) (Path, error) {
	if err := rest.RequireAll("groupId", groupId, "driveName", driveName); err != nil {
		return Path{}, err
	}
	for nth, name := range folders {
		if err := rest.Require(fmt.Sprintf("folders[%d]", nth), name); err != nil {
			return Path{}, err
		}
	}

	unlock, err := e.locker.Lock(ctx, LockKey(groupId, driveName))
	if err != nil {
		return Path{}, err
	}
	defer unlock()

	driveId, err := e.ensureDrive(ctx, groupId, driveName, headers)
	if err != nil {
		return Path{}, err
	}

	parent := driveId
	for _, name := range folders {
		if parent, err = e.ensureFolder(ctx, parent, name, headers); err != nil {
			return Path{}, err
		}
	}
	return Path{DriveId: driveId, FolderId: parent}, nil
}

func (e *Ensurer) ensureDrive(ctx context.Context, groupId string, name string, headers rest.Headers) (string, error) {
	resp, err := e.tree.GetDrives(ctx, groupId, headers)
	if err != nil {
		return "", err
	}
	for _, d := range resp.Drives {
		if d.Name == name {
			return d.DriveId, nil
		}
	}

	created, err := e.tree.CreateDrive(ctx, groupId, treedb.CreateDriveBody{Name: name}, headers)
	if err != nil {
		return "", err
	}
	return created.DriveId, nil
}

func (e *Ensurer) ensureFolder(ctx context.Context, parentFolderId string, name string, headers rest.Headers) (string, error) {
	resp, err := e.tree.GetChildren(ctx, parentFolderId, headers)
	if err != nil {
		return "", err
	}
	for _, f := range resp.Folders {
		if f.Name == name {
			return f.FolderId, nil
		}
	}

	created, err := e.tree.CreateFolder(ctx, parentFolderId, treedb.CreateFolderBody{Name: name}, headers)
	if err != nil {
		return "", err
	}
	return created.FolderId, nil
}
