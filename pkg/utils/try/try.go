// Package try shortens handling of (value, error) pairs, mainly in tests.
//
//	drive := try.To(client.GetDrive(ctx, id, headers)).OrFatal(t)
package try

// Fataler is anything with Fatal, like *testing.T or *log.Logger.
type Fataler interface {
	Fatal(...any)
}

// Result holds a (value, error) pair. The value is meaningful only when the error is nil.
type Result[T any] struct {
	value T
	err   error
}

func To[T any](value T, err error) Result[T] {
	if err != nil {
		return Result[T]{err: err}
	}
	return Result[T]{value: value}
}

// Map applies mapper to the value. An error is passed through without calling mapper.
func Map[T any, R any](r Result[T], mapper func(T) R) Result[R] {
	if r.err != nil {
		return Result[R]{err: r.err}
	}
	return Result[R]{value: mapper(r.value)}
}

func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// OrDefault returns the value, or d when there is an error.
func (r Result[T]) OrDefault(d T) T {
	if r.err != nil {
		return d
	}
	return r.value
}

// OrFatal returns the value, or calls ftl.Fatal with the error.
//
// ftl.Helper is called before Fatal when ftl has it.
func (r Result[T]) OrFatal(ftl Fataler) T {
	if r.err == nil {
		return r.value
	}
	if h, ok := ftl.(interface{ Helper() }); ok {
		h.Helper()
	}
	ftl.Fatal(r.err)
	return r.value
}
