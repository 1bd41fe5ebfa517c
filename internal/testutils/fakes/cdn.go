package fakes

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/youwol/backends/pkg/clients/cdn"
)

// Cdn is a fake cdn service, serving library infos put by tests.
type Cdn struct {
	calls

	mu        sync.Mutex
	libraries map[string]cdn.LibraryInfo
	echo      *echo.Echo
}

func NewCdn() *Cdn {
	f := &Cdn{libraries: map[string]cdn.LibraryInfo{}}
	e := echo.New()
	e.GET("/healthz", func(c echo.Context) error {
		f.record("Healthz", c.Request())
		return c.JSON(http.StatusOK, cdn.HealthzResponse{Status: "cdn ok"})
	})
	e.GET("/libraries/:libraryId", func(c echo.Context) error {
		f.record("GetLibraryInfo", c.Request())
		f.mu.Lock()
		defer f.mu.Unlock()
		lib, ok := f.libraries[c.Param("libraryId")]
		if !ok {
			return c.JSON(http.StatusNotFound, detail{Detail: "library not found"})
		}
		return c.JSON(http.StatusOK, lib)
	})
	f.echo = e
	return f
}

func (f *Cdn) AddLibrary(lib cdn.LibraryInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.libraries[lib.LibraryId] = lib
}

func (f *Cdn) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.echo.ServeHTTP(w, r)
}

// Files is a fake files service, serving contents put by tests.
type Files struct {
	calls

	mu       sync.Mutex
	contents map[string]file
	echo     *echo.Echo
}

type file struct {
	contentType string
	content     []byte
}

func NewFiles() *Files {
	f := &Files{contents: map[string]file{}}
	e := echo.New()
	e.GET("/files/:fileId", func(c echo.Context) error {
		f.record("GetContent", c.Request())
		f.mu.Lock()
		defer f.mu.Unlock()
		content, ok := f.contents[c.Param("fileId")]
		if !ok {
			return c.JSON(http.StatusNotFound, detail{Detail: "file not found"})
		}
		return c.Blob(http.StatusOK, content.contentType, content.content)
	})
	f.echo = e
	return f
}

func (f *Files) Put(fileId string, contentType string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents[fileId] = file{contentType: contentType, content: content}
}

func (f *Files) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.echo.ServeHTTP(w, r)
}
