package fakes

import (
	"net/http"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/youwol/backends/pkg/clients/accounts"
)

const (
	StorageGet    = "StorageGet"
	StoragePost   = "StoragePost"
	StorageDelete = "StorageDelete"
)

// Storage is a fake session storage service.
type Storage struct {
	calls

	mu   sync.Mutex
	docs map[string]map[string]any
	echo *echo.Echo
}

func NewStorage() *Storage {
	f := &Storage{docs: map[string]map[string]any{}}
	e := echo.New()
	e.GET("/applications/:package/:key", f.get)
	e.POST("/applications/:package/:key", f.post)
	e.DELETE("/applications/:package/:key", f.delete)
	f.echo = e
	return f
}

func (f *Storage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.echo.ServeHTTP(w, r)
}

func docKey(c echo.Context) string {
	return c.Param("package") + "/" + c.Param("key")
}

func (f *Storage) get(c echo.Context) error {
	f.record(StorageGet, c.Request())
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[docKey(c)]
	if !ok {
		return c.JSON(http.StatusNotFound, detail{Detail: "no document for " + docKey(c)})
	}
	return c.JSON(http.StatusOK, doc)
}

func (f *Storage) post(c echo.Context) error {
	f.record(StoragePost, c.Request())
	doc := map[string]any{}
	if err := json.NewDecoder(c.Request().Body).Decode(&doc); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "body should be a JSON object"})
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[docKey(c)] = doc
	return c.NoContent(http.StatusNoContent)
}

func (f *Storage) delete(c echo.Context) error {
	f.record(StorageDelete, c.Request())
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, docKey(c))
	return c.NoContent(http.StatusNoContent)
}

// Accounts is a fake accounts service.
//
// "Authorization: Bearer USER" is a session of USER.
type Accounts struct {
	calls
	echo *echo.Echo
}

func NewAccounts() *Accounts {
	f := &Accounts{}
	e := echo.New()
	e.GET("/healthz", func(c echo.Context) error {
		f.record("Healthz", c.Request())
		return c.JSON(http.StatusOK, accounts.HealthzResponse{Status: "accounts ok"})
	})
	e.GET("/session", func(c echo.Context) error {
		f.record("GetSessionDetails", c.Request())
		user, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
		if !ok || user == "" {
			return c.JSON(http.StatusUnauthorized, detail{Detail: "no session"})
		}
		return c.JSON(http.StatusOK, accounts.SessionDetails{
			UserInfo: accounts.UserInfo{Id: user, Name: user, MemberOf: []string{"/youwol-users"}},
		})
	})
	f.echo = e
	return f
}

func (f *Accounts) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.echo.ServeHTTP(w, r)
}
