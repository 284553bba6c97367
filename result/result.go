// Package result carries a value-or-error pair across channel boundaries,
// where Go's two-value return does not reach. Background metadata fetches
// report their completions with it.
package result

type Of[T any] struct {
	v   *T
	err error
}

// Ok wraps a successful completion.
func Ok[T any](v *T) Of[T] {
	return Of[T]{v: v, err: nil}
}

// Err wraps a failed completion.
func Err[T any](err error) Of[T] {
	return Of[T]{v: nil, err: err}
}

// Err returns the failure, or nil for a successful result.
func (r Of[T]) Err() error {
	return r.err
}

// Unwrap returns the value and panics on an error result; check Err first.
func (r Of[T]) Unwrap() *T {
	if nil != r.err {
		panic("cannot get value of error result")
	}

	return r.v
}
