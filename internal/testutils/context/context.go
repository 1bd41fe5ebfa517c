package context

import (
	"context"
	"testing"
	"time"
)

// WithTest returns a context which is done a second before the test's deadline,
// or on cleanup of t, whichever comes first.
//
// The margin leaves time for cleanup of servers and goroutines.
func WithTest(t *testing.T) context.Context {
	deadline, ok := t.Deadline()
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		return ctx
	}
	ctx, cancel := context.WithDeadline(context.Background(), deadline.Add(-time.Second))
	t.Cleanup(cancel)
	return ctx
}
