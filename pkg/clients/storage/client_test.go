package storage_test

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/youwol/backends/internal/testutils/fakes"
	"github.com/youwol/backends/pkg/clients/storage"
	xe "github.com/youwol/backends/pkg/errors"
	"github.com/youwol/backends/pkg/rest"
	"github.com/youwol/backends/pkg/utils/try"
)

func newClient(t *testing.T) (*storage.Client, *fakes.Storage) {
	t.Helper()
	fake := fakes.NewStorage()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return storage.New(try.To(rest.New("storage", server.URL)).OrFatal(t)), fake
}

func TestPostThenGet(t *testing.T) {
	ctx := context.Background()
	headers := rest.Headers{rest.HeaderLocalOnly: "true"}

	t.Run("posted value is got back", func(t *testing.T) {
		testee, _ := newClient(t)
		body := map[string]any{"theme": "dark", "size": "12"}

		posted := try.To(testee.Post(ctx, "test-package", "foo", body, headers)).OrFatal(t)
		if posted != (rest.EmptyResponse{}) {
			t.Errorf("unexpected result: %#v", posted)
		}

		got := try.To(testee.Get(ctx, "test-package", "foo", headers)).OrFatal(t)
		if !maps.EqualFunc(got, body, func(a, b any) bool { return a == b }) {
			t.Errorf("unexpected document: (actual, expected) = (%v, %v)", got, body)
		}
	})

	t.Run("posting to the same key twice overwrites", func(t *testing.T) {
		testee, _ := newClient(t)
		try.To(testee.Post(ctx, "test-package", "foo", map[string]any{"v": "1"}, headers)).OrFatal(t)
		try.To(testee.Post(ctx, "test-package", "foo", map[string]any{"v": "2"}, headers)).OrFatal(t)

		got := try.To(testee.Get(ctx, "test-package", "foo", headers)).OrFatal(t)
		if len(got) != 1 || got["v"] != "2" {
			t.Errorf("not overwritten: %v", got)
		}
	})

	t.Run("getting missing key is ServiceError with package and key", func(t *testing.T) {
		testee, _ := newClient(t)
		_, err := testee.Get(ctx, "test-package", "missing", headers)
		se, ok := rest.AsServiceError(err)
		if !ok {
			t.Fatalf("unexpected error: %v", err)
		}
		if se.StatusCode() != http.StatusNotFound || se.Parameters()["package"] != "test-package" || se.Parameters()["key"] != "missing" {
			t.Errorf("unexpected error: %v", se)
		}
	})

	t.Run("deleted key is gone", func(t *testing.T) {
		testee, _ := newClient(t)
		try.To(testee.Post(ctx, "test-package", "foo", map[string]any{}, headers)).OrFatal(t)
		try.To(testee.Delete(ctx, "test-package", "foo", headers)).OrFatal(t)
		if _, err := testee.Get(ctx, "test-package", "foo", headers); !errors.Is(err, rest.ErrRemoteService) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("empty package, empty key and nil body are rejected locally", func(t *testing.T) {
		testee, fake := newClient(t)
		if _, err := testee.Get(ctx, "", "foo", headers); !errors.Is(err, xe.ErrValidation) {
			t.Errorf("unexpected error: %v", err)
		}
		if _, err := testee.Post(ctx, "test-package", "", map[string]any{}, headers); !errors.Is(err, xe.ErrValidation) {
			t.Errorf("unexpected error: %v", err)
		}
		if _, err := testee.Post(ctx, "test-package", "foo", nil, headers); !errors.Is(err, xe.ErrValidation) {
			t.Errorf("unexpected error: %v", err)
		}
		if fake.TotalCalls() != 0 {
			t.Errorf("requests are sent: %d", fake.TotalCalls())
		}
	})
}

func TestDotSegmentIds(t *testing.T) {
	ctx := context.Background()
	headers := rest.Headers{}

	t.Run("when key is .., Post fails without writing anything", func(t *testing.T) {
		testee, fake := newClient(t)
		_, err := testee.Post(ctx, "app", "..", map[string]any{"v": "1"}, headers)
		if !errors.Is(err, xe.ErrValidation) {
			t.Errorf("unexpected error: %v", err)
		}
		if n := fake.TotalCalls(); n != 0 {
			t.Errorf("storage is called %d times", n)
		}
	})

	t.Run("when package is .., Get fails without reading anything", func(t *testing.T) {
		testee, fake := newClient(t)
		_, err := testee.Get(ctx, "..", "secret", headers)
		if !errors.Is(err, xe.ErrValidation) {
			t.Errorf("unexpected error: %v", err)
		}
		if n := fake.TotalCalls(); n != 0 {
			t.Errorf("storage is called %d times", n)
		}
	})

	t.Run("when the service is under a base path, requests stay under it", func(t *testing.T) {
		var got string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.URL.EscapedPath()
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		testee := storage.New(try.To(rest.New("storage", server.URL+"/api/storage")).OrFatal(t))
		try.To(testee.Get(ctx, "@youwol/pkg", "settings", headers)).OrFatal(t)
		if got != "/api/storage/applications/@youwol%2Fpkg/settings" {
			t.Errorf("unexpected path: %s", got)
		}
	})
}
