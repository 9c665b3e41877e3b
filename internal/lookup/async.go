package lookup

import (
	"context"
	"sync/atomic"

	"moviecase/internal/services"
)

// Result carries the outcome of an asynchronous lookup together with the
// generation that issued it.
type Result[T any] struct {
	Value      T
	Err        error
	Generation uint64
}

// Go runs fn on its own goroutine and delivers exactly one Result on the
// returned channel, which is then closed. The channel is buffered so an
// abandoned receiver never leaks the goroutine.
func Go[T any](ctx context.Context, gen uint64, fn func(context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)
	ctx = services.WithGeneration(ctx, gen)
	go func() {
		defer close(out)
		value, err := fn(ctx)
		out <- Result[T]{Value: value, Err: err, Generation: gen}
	}()
	return out
}

// Generation hands out monotonically increasing tokens so the caller can drop
// completions that were overtaken by a newer request (last write wins).
type Generation struct {
	current atomic.Uint64
}

// Begin starts a new request and returns its token. Earlier tokens become stale.
func (g *Generation) Begin() uint64 {
	return g.current.Add(1)
}

// Current reports whether token is still the latest request.
func (g *Generation) Current(token uint64) bool {
	return token != 0 && g.current.Load() == token
}

// Stale reports whether a newer request has been issued since r's.
func (r Result[T]) Stale(g *Generation) bool {
	return !g.Current(r.Generation)
}
