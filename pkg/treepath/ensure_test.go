package treepath_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	testctx "github.com/youwol/backends/internal/testutils/context"
	"github.com/youwol/backends/internal/testutils/fakes"
	"github.com/youwol/backends/pkg/clients/treedb"
	xe "github.com/youwol/backends/pkg/errors"
	"github.com/youwol/backends/pkg/locks"
	"github.com/youwol/backends/pkg/rest"
	"github.com/youwol/backends/pkg/treepath"
	"github.com/youwol/backends/pkg/utils/try"
)

func setup(t *testing.T) (*fakes.TreeDb, *treedb.Client) {
	t.Helper()
	fake := fakes.NewTreeDb()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return fake, treedb.New(try.To(rest.New("treedb", server.URL)).OrFatal(t))
}

func expectCalls(t *testing.T, fake *fakes.TreeDb, expected map[string]int) {
	t.Helper()
	for _, name := range []string{
		fakes.GetDrives, fakes.CreateDrive, fakes.GetChildren, fakes.CreateFolder,
		fakes.GetDrive, fakes.GetFolder,
	} {
		if actual := fake.Calls(name); actual != expected[name] {
			t.Errorf("calls of %s: (actual, expected) = (%d, %d)", name, actual, expected[name])
		}
	}
}

func TestEnsure(t *testing.T) {
	ctx := testctx.WithTest(t)
	headers := rest.Headers{"authorization": "Bearer USER", rest.HeaderLocalOnly: "true"}

	t.Run("when backend is empty, it creates drive and folders, and the second run creates nothing", func(t *testing.T) {
		fake, client := setup(t)
		testee := treepath.New(client, nil)

		first := try.To(testee.Ensure(ctx, "g1", "Apps", []string{"a", "b"}, headers)).OrFatal(t)
		expectCalls(t, fake, map[string]int{
			fakes.GetDrives: 1, fakes.CreateDrive: 1,
			fakes.GetChildren: 2, fakes.CreateFolder: 2,
		})

		drives := fake.Drives("g1")
		if len(drives) != 1 || drives[0].Name != "Apps" || drives[0].DriveId != first.DriveId {
			t.Fatalf("unexpected drives: %+v", drives)
		}
		a := fake.Folders(first.DriveId)
		if len(a) != 1 || a[0].Name != "a" {
			t.Fatalf("unexpected folders in drive: %+v", a)
		}
		b := fake.Folders(a[0].FolderId)
		if len(b) != 1 || b[0].Name != "b" || b[0].FolderId != first.FolderId {
			t.Fatalf("unexpected folders in a: %+v (result = %+v)", b, first)
		}
		if got := fake.LastHeaders().Get(rest.HeaderLocalOnly); got != "true" {
			t.Errorf("headers are not forwarded: %s=%q", rest.HeaderLocalOnly, got)
		}

		fake.ResetCalls()
		second := try.To(testee.Ensure(ctx, "g1", "Apps", []string{"a", "b"}, headers)).OrFatal(t)
		expectCalls(t, fake, map[string]int{fakes.GetDrives: 1, fakes.GetChildren: 2})
		if second != first {
			t.Errorf("result differs: (first, second) = (%+v, %+v)", first, second)
		}
	})

	t.Run("when only a prefix exists, it creates the rest", func(t *testing.T) {
		fake, client := setup(t)
		testee := treepath.New(client, nil)

		prefix := try.To(testee.Ensure(ctx, "g1", "Apps", []string{"a"}, headers)).OrFatal(t)
		fake.ResetCalls()

		full := try.To(testee.Ensure(ctx, "g1", "Apps", []string{"a", "b", "c"}, headers)).OrFatal(t)
		expectCalls(t, fake, map[string]int{
			fakes.GetDrives: 1, fakes.GetChildren: 3, fakes.CreateFolder: 2,
		})
		if full.DriveId != prefix.DriveId {
			t.Errorf("drive is not reused: %+v, %+v", prefix, full)
		}
		if len(fake.Folders(prefix.FolderId)) != 1 {
			t.Errorf("unexpected children of a: %+v", fake.Folders(prefix.FolderId))
		}
	})

	t.Run("when no folders are given, it returns the drive as the folder", func(t *testing.T) {
		fake, client := setup(t)
		fake.AddDrive(treedb.Drive{DriveId: "drive-1", Name: "Apps", GroupId: "g1"})
		testee := treepath.New(client, nil)

		actual := try.To(testee.Ensure(ctx, "g1", "Apps", nil, headers)).OrFatal(t)
		if actual != (treepath.Path{DriveId: "drive-1", FolderId: "drive-1"}) {
			t.Errorf("unexpected result: %+v", actual)
		}
		expectCalls(t, fake, map[string]int{fakes.GetDrives: 1})
	})

	t.Run("drives of other groups are not reused", func(t *testing.T) {
		fake, client := setup(t)
		fake.AddDrive(treedb.Drive{DriveId: "drive-of-g2", Name: "Apps", GroupId: "g2"})
		testee := treepath.New(client, nil)

		actual := try.To(testee.Ensure(ctx, "g1", "Apps", nil, headers)).OrFatal(t)
		if actual.DriveId == "drive-of-g2" {
			t.Errorf("drive of another group is reused")
		}
		expectCalls(t, fake, map[string]int{fakes.GetDrives: 1, fakes.CreateDrive: 1})
	})

	t.Run("names are matched exactly", func(t *testing.T) {
		fake, client := setup(t)
		fake.AddDrive(treedb.Drive{DriveId: "drive-1", Name: "apps", GroupId: "g1"})
		testee := treepath.New(client, nil)

		actual := try.To(testee.Ensure(ctx, "g1", "Apps", nil, headers)).OrFatal(t)
		if actual.DriveId == "drive-1" {
			t.Errorf("drive with different case is reused")
		}
	})

	t.Run("when required args are empty, it does not call tree-db", func(t *testing.T) {
		fake, client := setup(t)
		testee := treepath.New(client, nil)

		for name, folders := range map[string][]string{
			"empty group":  nil,
			"empty folder": {"a", ""},
		} {
			group := "g1"
			if name == "empty group" {
				group = ""
			}
			_, err := testee.Ensure(ctx, group, "Apps", folders, headers)
			if !errors.Is(err, xe.ErrValidation) {
				t.Errorf("%s: unexpected error: %v", name, err)
			}
		}
		if fake.TotalCalls() != 0 {
			t.Errorf("tree-db is called %d times", fake.TotalCalls())
		}
	})

	t.Run("concurrent calls on the same path create no duplicates", func(t *testing.T) {
		fake, client := setup(t)
		fake.Delay = 20 * time.Millisecond
		testee := treepath.New(client, locks.NewKeyed())

		results := make([]treepath.Path, 8)
		errs := make([]error, len(results))
		wg := sync.WaitGroup{}
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = testee.Ensure(ctx, "g1", "Apps", []string{"a"}, headers)
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				t.Fatal(err)
			}
		}

		if n := fake.Calls(fakes.CreateDrive); n != 1 {
			t.Errorf("drive is created %d times", n)
		}
		if n := fake.Calls(fakes.CreateFolder); n != 1 {
			t.Errorf("folder is created %d times", n)
		}
		for _, r := range results[1:] {
			if r != results[0] {
				t.Errorf("results differ: %+v, %+v", results[0], r)
			}
		}
	})
}

type failingTree struct {
	treepath.TreeDb
	err error
}

func (f failingTree) GetDrives(context.Context, string, rest.Headers) (treedb.DrivesResponse, error) {
	return treedb.DrivesResponse{Drives: []treedb.Drive{{DriveId: "d", Name: "Apps"}}}, nil
}

func (f failingTree) GetChildren(context.Context, string, rest.Headers) (treedb.ChildrenResponse, error) {
	return treedb.ChildrenResponse{}, f.err
}

type deniedLocker struct{ err error }

func (d deniedLocker) Lock(context.Context, string) (func(), error) {
	return nil, d.err
}

func TestEnsure_Errors(t *testing.T) {
	ctx := testctx.WithTest(t)

	t.Run("errors of tree-db are returned as they are", func(t *testing.T) {
		expected := rest.NewServiceError(403, "forbidden", nil)
		testee := treepath.New(failingTree{err: expected}, nil)

		_, err := testee.Ensure(ctx, "g1", "Apps", []string{"a"}, rest.Headers{})
		if err != expected {
			t.Errorf("unexpected error: %#v", err)
		}
	})

	t.Run("remote errors are reported with status and detail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail": "database is down"}`))
		}))
		defer server.Close()
		client := treedb.New(try.To(rest.New("treedb", server.URL)).OrFatal(t))
		testee := treepath.New(client, nil)

		_, err := testee.Ensure(ctx, "g1", "Apps", nil, rest.Headers{})
		se, ok := rest.AsServiceError(err)
		if !ok {
			t.Fatalf("unexpected error: %v", err)
		}
		if se.StatusCode() != http.StatusInternalServerError || se.Detail() != "database is down" {
			t.Errorf("unexpected error: %v", se)
		}
	})

	t.Run("when lock is not acquired, it does not call tree-db", func(t *testing.T) {
		fake, client := setup(t)
		expected := errors.New("lock backend is down")
		testee := treepath.New(client, deniedLocker{err: expected})

		_, err := testee.Ensure(ctx, "g1", "Apps", nil, rest.Headers{})
		if !errors.Is(err, expected) {
			t.Errorf("unexpected error: %v", err)
		}
		if fake.TotalCalls() != 0 {
			t.Errorf("tree-db is called %d times", fake.TotalCalls())
		}
	})
}

func TestLockKey(t *testing.T) {
	t.Run("when separators are in ids, different pairs have different keys", func(t *testing.T) {
		if a, b := treepath.LockKey("a/b", "c"), treepath.LockKey("a", "b/c"); a == b {
			t.Errorf("keys collide: %s", a)
		}
	})

	t.Run("the same pair has the same key", func(t *testing.T) {
		if a, b := treepath.LockKey("g1", "Apps"), treepath.LockKey("g1", "Apps"); a != b {
			t.Errorf("keys differ: %s, %s", a, b)
		}
	})
}
