package fakes

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/youwol/backends/pkg/configs/gateway"
)

// Backends are fake services started for a test.
type Backends struct {
	TreeDb   *TreeDb
	Storage  *Storage
	Accounts *Accounts
	Cdn      *Cdn
	Files    *Files

	// Config points to the fakes.
	Config gateway.Config
}

// Start starts all fake services. They are stopped on cleanup of t.
func Start(t *testing.T) *Backends {
	t.Helper()
	b := &Backends{
		TreeDb:   NewTreeDb(),
		Storage:  NewStorage(),
		Accounts: NewAccounts(),
		Cdn:      NewCdn(),
		Files:    NewFiles(),
	}

	serve := func(h http.Handler) *url.URL {
		server := httptest.NewServer(h)
		t.Cleanup(server.Close)
		u, err := url.Parse(server.URL)
		if err != nil {
			t.Fatal(err)
		}
		return u
	}
	b.Config = gateway.Config{
		Port: "0",
		Services: gateway.Services{
			TreeDb:   serve(b.TreeDb),
			Storage:  serve(b.Storage),
			Accounts: serve(b.Accounts),
			Cdn:      serve(b.Cdn),
			Files:    serve(b.Files),
		},
	}
	return b
}
