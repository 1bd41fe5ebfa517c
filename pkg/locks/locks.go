// Package locks provides mutual exclusion scoped by string keys.
package locks

import (
	"context"
	"sync"
)

// Locker acquires an exclusive lock for a key.
type Locker interface {
	// Lock blocks until the lock for key is acquired, or ctx is done.
	//
	// # Returns
	//
	// - func(): releases the lock. Calling it more than once is no-op.
	//
	// - error: ctx.Err() or errors from the lock backend. When it is not nil, the lock is not held.
	Lock(ctx context.Context, key string) (func(), error)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// Keyed is a Locker in the process.
//
// The zero value is ready to use.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewKeyed() *Keyed {
	return &Keyed{}
}

func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	if k.entries == nil {
		k.entries = map[string]*entry{}
	}
	e, ok := k.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs += 1
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		once := sync.Once{}
		return func() {
			once.Do(func() {
				<-e.ch
				k.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}
}

func (k *Keyed) release(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs -= 1
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

// Held returns the number of keys locked or being waited for.
func (k *Keyed) Held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

type nop struct{}

// Nop is a Locker which never blocks.
var Nop Locker = nop{}

func (nop) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}
