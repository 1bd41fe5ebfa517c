package dependency_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/youwol/backends/pkg/dependency"
	xe "github.com/youwol/backends/pkg/errors"
	"github.com/youwol/backends/pkg/utils/try"
)

type configuration struct {
	AdminHeaders map[string]string
}

func TestRegistry(t *testing.T) {
	t.Run("when nothing is set, it fails fast with configuration error", func(t *testing.T) {
		testee := &dependency.Registry[*configuration]{}

		conf, err := testee.Get(context.Background())
		if !errors.Is(err, dependency.ErrNotConfigured) || !errors.Is(err, xe.ErrConfiguration) {
			t.Errorf("unexpected error: %v", err)
		}
		if conf != nil {
			t.Errorf("configuration is returned: %v", conf)
		}
	})

	t.Run("MustGet panics when nothing is set", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("not panicked")
			}
		}()
		(&dependency.Registry[*configuration]{}).MustGet(context.Background())
	})

	t.Run("when a value is set, it returns the value", func(t *testing.T) {
		expected := &configuration{AdminHeaders: map[string]string{"authorization": "Bearer x"}}
		testee := &dependency.Registry[*configuration]{}
		testee.SetValue(expected)

		if actual := try.To(testee.Get(context.Background())).OrFatal(t); actual != expected {
			t.Errorf("unexpected configuration: %v", actual)
		}
	})

	t.Run("when a source is replaced, it resolves the new one", func(t *testing.T) {
		first := &configuration{}
		second := &configuration{}
		testee := dependency.NewRegistry(dependency.Constant(first))
		testee.Set(dependency.Deferred(func(context.Context) (*configuration, error) {
			return second, nil
		}))

		if actual := try.To(testee.Resolve(context.Background())).OrFatal(t); actual != second {
			t.Errorf("old configuration is returned")
		}
	})
}

func TestDeferred(t *testing.T) {
	t.Run("it computes on each resolve", func(t *testing.T) {
		var count int32
		testee := dependency.Deferred(func(context.Context) (int32, error) {
			return atomic.AddInt32(&count, 1), nil
		})

		a := try.To(testee.Resolve(context.Background())).OrFatal(t)
		b := try.To(testee.Resolve(context.Background())).OrFatal(t)
		if a != 1 || b != 2 {
			t.Errorf("unexpected values: %d, %d", a, b)
		}
	})

	t.Run("it returns the error of computation", func(t *testing.T) {
		expected := errors.New("token endpoint is down")
		testee := dependency.Deferred(func(context.Context) (*configuration, error) {
			return nil, expected
		})
		if _, err := testee.Resolve(context.Background()); !errors.Is(err, expected) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("concurrent resolves share one computation", func(t *testing.T) {
		var count int32
		release := make(chan struct{})
		testee := dependency.Deferred(func(context.Context) (int32, error) {
			n := atomic.AddInt32(&count, 1)
			<-release
			return n, nil
		})

		const callers = 8
		results := make([]int32, callers)
		wg := sync.WaitGroup{}
		started := sync.WaitGroup{}
		for i := 0; i < callers; i++ {
			wg.Add(1)
			started.Add(1)
			go func(i int) {
				defer wg.Done()
				started.Done()
				results[i] = try.To(testee.Resolve(context.Background())).OrDefault(-1)
			}(i)
		}
		started.Wait()
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		for i, r := range results {
			if r < 1 {
				t.Errorf("#%d: failed", i)
			}
		}
		if c := atomic.LoadInt32(&count); c >= callers {
			t.Errorf("computations are not shared: %d times", c)
		}
	})

	t.Run("when the caller which started computation is canceled, other callers still get the value", func(t *testing.T) {
		started := make(chan struct{})
		once := sync.Once{}
		release := make(chan struct{})
		testee := dependency.Deferred(func(ctx context.Context) (string, error) {
			once.Do(func() { close(started) })
			select {
			case <-release:
				return "token", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		})

		firstCtx, cancelFirst := context.WithCancel(context.Background())
		firstErr := make(chan error, 1)
		go func() {
			_, err := testee.Resolve(firstCtx)
			firstErr <- err
		}()
		<-started

		second := make(chan string, 1)
		go func() {
			second <- try.To(testee.Resolve(context.Background())).OrDefault("failed")
		}()
		time.Sleep(20 * time.Millisecond)

		cancelFirst()
		if err := <-firstErr; !errors.Is(err, context.Canceled) {
			t.Errorf("first caller: unexpected error: %v", err)
		}
		close(release)

		if actual := <-second; actual != "token" {
			t.Errorf("second caller: unexpected value: %q", actual)
		}
	})

	t.Run("when context is done, it stops waiting", func(t *testing.T) {
		block := make(chan struct{})
		defer close(block)
		testee := dependency.Deferred(func(context.Context) (int, error) {
			<-block
			return 1, nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := testee.Resolve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
