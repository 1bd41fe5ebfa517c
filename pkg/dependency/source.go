// Package dependency provides sources of the configuration a backend depends on.
//
// Components receive a Source at construction and resolve it when they need the
// configuration. A Registry is a Source whose underlying Source can be replaced,
// for the wiring which has to be decided after components are built.
package dependency

import (
	"context"
	"fmt"
	"sync"

	xe "github.com/youwol/backends/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// ErrNotConfigured is returned when a Registry is resolved before any Source is set.
var ErrNotConfigured = fmt.Errorf("%w: not configured", xe.ErrConfiguration)

type Source[T any] interface {
	Resolve(ctx context.Context) (T, error)
}

type constant[T any] struct {
	value T
}

// Constant returns a Source which always resolves to value.
func Constant[T any](value T) Source[T] {
	return constant[T]{value: value}
}

func (c constant[T]) Resolve(context.Context) (T, error) {
	return c.value, nil
}

type deferred[T any] struct {
	compute func(context.Context) (T, error)
	group   singleflight.Group
}

// Deferred returns a Source which computes its value on each Resolve.
//
// Concurrent Resolves share one computation, and the result of it.
// The computation runs with the values of the context of the Resolve which started it,
// but not with its cancellation: each Resolve stops waiting on its own context only.
func Deferred[T any](compute func(ctx context.Context) (T, error)) Source[T] {
	return &deferred[T]{compute: compute}
}

func (d *deferred[T]) Resolve(ctx context.Context) (T, error) {
	shared := context.WithoutCancel(ctx)
	ch := d.group.DoChan("", func() (any, error) {
		return d.compute(shared)
	})
	select {
	case <-ctx.Done():
		return *new(T), ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return *new(T), r.Err
		}
		v, _ := r.Val.(T)
		return v, nil
	}
}

// Registry holds a replaceable Source.
//
// The zero value is an unset Registry.
type Registry[T any] struct {
	mu     sync.RWMutex
	source Source[T]
}

func NewRegistry[T any](source Source[T]) *Registry[T] {
	return &Registry[T]{source: source}
}

// Set replaces the Source.
func (r *Registry[T]) Set(source Source[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.source = source
}

// SetValue replaces the Source with Constant(value).
func (r *Registry[T]) SetValue(value T) {
	r.Set(Constant(value))
}

// Get resolves the current Source.
//
// When no Source is set, it returns ErrNotConfigured.
func (r *Registry[T]) Get(ctx context.Context) (T, error) {
	r.mu.RLock()
	source := r.source
	r.mu.RUnlock()

	if source == nil {
		return *new(T), ErrNotConfigured
	}
	return source.Resolve(ctx)
}

// Resolve is Get, so Registry is a Source by itself.
func (r *Registry[T]) Resolve(ctx context.Context) (T, error) {
	return r.Get(ctx)
}

// MustGet is Get which panics on error.
//
// Use this only on start-up, where a configuration error is fatal.
func (r *Registry[T]) MustGet(ctx context.Context) T {
	v, err := r.Get(ctx)
	if err != nil {
		panic(err)
	}
	return v
}
