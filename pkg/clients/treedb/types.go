package treedb

import (
	"fmt"

	"github.com/youwol/backends/pkg/rest"
)

type Drive struct {
	DriveId  string `json:"driveId"`
	Name     string `json:"name"`
	GroupId  string `json:"groupId"`
	Metadata string `json:"metadata,omitempty"`
}

func (d Drive) Validate() error {
	return rest.RequireAll("driveId", d.DriveId, "name", d.Name)
}

type DrivesResponse struct {
	Drives []Drive `json:"drives"`
}

func (d DrivesResponse) Validate() error {
	for nth, drive := range d.Drives {
		if err := drive.Validate(); err != nil {
			return fmt.Errorf("drives[%d]: %w", nth, err)
		}
	}
	return nil
}

// Folder in a drive.
//
// For folders just under a drive, ParentFolderId is the DriveId.
type Folder struct {
	FolderId       string `json:"folderId"`
	Name           string `json:"name"`
	ParentFolderId string `json:"parentFolderId"`
	DriveId        string `json:"driveId"`
	Metadata       string `json:"metadata,omitempty"`
}

func (f Folder) Validate() error {
	return rest.RequireAll("folderId", f.FolderId, "name", f.Name)
}

type Item struct {
	ItemId   string `json:"itemId"`
	AssetId  string `json:"assetId"`
	RawId    string `json:"rawId"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	FolderId string `json:"folderId"`
	DriveId  string `json:"driveId"`
	Borrowed bool   `json:"borrowed"`
}

type ChildrenResponse struct {
	Folders []Folder `json:"folders"`
	Items   []Item   `json:"items"`
}

func (c ChildrenResponse) Validate() error {
	for nth, f := range c.Folders {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("folders[%d]: %w", nth, err)
		}
	}
	return nil
}

type CreateDriveBody struct {
	Name string `json:"name"`

	// DriveId of new drive. When empty, it is generated by the client.
	DriveId  string `json:"driveId"`
	Metadata string `json:"metadata,omitempty"`
}

type CreateFolderBody struct {
	Name string `json:"name"`

	// FolderId of new folder. When empty, it is generated by the client.
	FolderId string `json:"folderId"`
	Metadata string `json:"metadata,omitempty"`
}

type HealthzResponse struct {
	Status string `json:"status"`
}
