// Package fakes provides in-memory services for tests, served with echo.
//
// They count calls per endpoint, and keep the headers of the last request.
package fakes

import (
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/youwol/backends/pkg/clients/treedb"
)

const (
	GetDrives    = "GetDrives"
	CreateDrive  = "CreateDrive"
	GetDrive     = "GetDrive"
	GetFolder    = "GetFolder"
	GetChildren  = "GetChildren"
	CreateFolder = "CreateFolder"
)

type calls struct {
	mu          sync.Mutex
	counts      map[string]int
	lastHeaders http.Header
}

func (c *calls) record(name string, req *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[name] += 1
	c.lastHeaders = req.Header.Clone()
}

// Calls returns how many times the endpoint has been called.
func (c *calls) Calls(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

// TotalCalls returns how many times any endpoint has been called.
func (c *calls) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

func (c *calls) ResetCalls() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = map[string]int{}
}

func (c *calls) LastHeaders() http.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastHeaders.Clone()
}

type detail struct {
	Detail string `json:"detail"`
}

// TreeDb is a fake tree-db service.
//
// As the real one, it does not reject drives or folders with duplicated names.
type TreeDb struct {
	calls

	// Delay is applied to list endpoints, to widen windows between list and create.
	Delay time.Duration

	mu      sync.Mutex
	drives  []treedb.Drive
	folders []treedb.Folder
	echo    *echo.Echo
}

func NewTreeDb() *TreeDb {
	f := &TreeDb{}
	e := echo.New()
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, treedb.HealthzResponse{Status: "treedb ok"})
	})
	e.GET("/groups/:groupId/drives", f.getDrives)
	e.PUT("/groups/:groupId/drives", f.createDrive)
	e.GET("/drives/:driveId", f.getDrive)
	e.GET("/folders/:folderId", f.getFolder)
	e.GET("/folders/:folderId/children", f.getChildren)
	e.PUT("/folders/:folderId", f.createFolder)
	f.echo = e
	return f
}

func (f *TreeDb) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.echo.ServeHTTP(w, r)
}

// Drives returns drives of the group, ordered by creation.
func (f *TreeDb) Drives(groupId string) []treedb.Drive {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := []treedb.Drive{}
	for _, d := range f.drives {
		if d.GroupId == groupId {
			found = append(found, d)
		}
	}
	return found
}

// Folders returns folders under the parent, ordered by creation.
func (f *TreeDb) Folders(parentFolderId string) []treedb.Folder {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := []treedb.Folder{}
	for _, d := range f.folders {
		if d.ParentFolderId == parentFolderId {
			found = append(found, d)
		}
	}
	return found
}

// AddDrive puts a drive directly, without counting calls.
func (f *TreeDb) AddDrive(d treedb.Drive) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drives = append(f.drives, d)
}

func (f *TreeDb) getDrives(c echo.Context) error {
	f.record(GetDrives, c.Request())
	time.Sleep(f.Delay)
	return c.JSON(http.StatusOK, treedb.DrivesResponse{Drives: f.Drives(c.Param("groupId"))})
}

func (f *TreeDb) createDrive(c echo.Context) error {
	f.record(CreateDrive, c.Request())
	body := treedb.CreateDriveBody{}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil || body.Name == "" || body.DriveId == "" {
		return c.JSON(http.StatusUnprocessableEntity, detail{Detail: "name and driveId are required"})
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	d := treedb.Drive{DriveId: body.DriveId, Name: body.Name, GroupId: c.Param("groupId"), Metadata: body.Metadata}
	f.drives = append(f.drives, d)
	return c.JSON(http.StatusOK, d)
}

func (f *TreeDb) getDrive(c echo.Context) error {
	f.record(GetDrive, c.Request())
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.drives {
		if d.DriveId == c.Param("driveId") {
			return c.JSON(http.StatusOK, d)
		}
	}
	return c.JSON(http.StatusNotFound, detail{Detail: "drive not found"})
}

func (f *TreeDb) getFolder(c echo.Context) error {
	f.record(GetFolder, c.Request())
	if folder, ok := f.folder(c.Param("folderId")); ok {
		return c.JSON(http.StatusOK, folder)
	}
	return c.JSON(http.StatusNotFound, detail{Detail: "folder not found"})
}

func (f *TreeDb) getChildren(c echo.Context) error {
	f.record(GetChildren, c.Request())
	time.Sleep(f.Delay)
	parent := c.Param("folderId")
	if _, ok := f.folder(parent); !ok {
		return c.JSON(http.StatusNotFound, detail{Detail: "folder not found"})
	}
	return c.JSON(http.StatusOK, treedb.ChildrenResponse{Folders: f.Folders(parent), Items: []treedb.Item{}})
}

func (f *TreeDb) createFolder(c echo.Context) error {
	f.record(CreateFolder, c.Request())
	parentId := c.Param("folderId")
	parent, ok := f.folder(parentId)
	if !ok {
		return c.JSON(http.StatusNotFound, detail{Detail: "parent folder not found"})
	}
	body := treedb.CreateFolderBody{}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil || body.Name == "" || body.FolderId == "" {
		return c.JSON(http.StatusUnprocessableEntity, detail{Detail: "name and folderId are required"})
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	folder := treedb.Folder{
		FolderId: body.FolderId, Name: body.Name, ParentFolderId: parentId,
		DriveId: parent.DriveId, Metadata: body.Metadata,
	}
	f.folders = append(f.folders, folder)
	return c.JSON(http.StatusOK, folder)
}

// folder finds a folder, or the root folder of a drive.
func (f *TreeDb) folder(folderId string) (treedb.Folder, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.drives {
		if d.DriveId == folderId {
			return treedb.Folder{FolderId: d.DriveId, Name: d.Name, DriveId: d.DriveId}, true
		}
	}
	for _, folder := range f.folders {
		if folder.FolderId == folderId {
			return folder, true
		}
	}
	return treedb.Folder{}, false
}
