// Package lazy provides deferred, memoized references to API entities.
package lazy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrUnbound is returned when a Ref has neither a value nor a resolver.
var ErrUnbound = errors.New("lazy reference is not bound to a client")

// Resolver fetches the entity a Ref points at.
type Resolver[K comparable, T any] func(ctx context.Context, id K) (T, error)

// Ref identifies an entity by K and fetches it on first Get. The first
// successful result is kept for the lifetime of the Ref; concurrent first
// calls share a single fetch. A failed fetch is not memoized.
//
// The zero Ref is unbound. A Ref must not be copied after first use.
type Ref[K comparable, T any] struct {
	id      K
	resolve Resolver[K, T]

	mu       sync.Mutex
	value    T
	resolved bool
	group    singleflight.Group
}

// New returns a Ref that resolves id with resolve.
func New[K comparable, T any](id K, resolve Resolver[K, T]) *Ref[K, T] {
	return &Ref[K, T]{id: id, resolve: resolve}
}

// Resolved returns a Ref that already holds v. Used when a payload embeds
// the entity next to its identifier.
func Resolved[K comparable, T any](id K, v T) *Ref[K, T] {
	return &Ref[K, T]{id: id, value: v, resolved: true}
}

// ID returns the identifier without any I/O.
func (r *Ref[K, T]) ID() K {
	return r.id
}

// Bind sets the resolver unless one is set already. Decoding produces Refs
// with only an identifier; the client binds them afterwards.
func (r *Ref[K, T]) Bind(resolve Resolver[K, T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolve == nil {
		r.resolve = resolve
	}
}

// Peek returns the memoized value, if any, without I/O.
func (r *Ref[K, T]) Peek() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.resolved
}

// Get returns the entity, fetching it on first use.
func (r *Ref[K, T]) Get(ctx context.Context) (T, error) {
	r.mu.Lock()
	if r.resolved {
		v := r.value
		r.mu.Unlock()
		return v, nil
	}
	resolve := r.resolve
	r.mu.Unlock()

	var zero T
	if resolve == nil {
		return zero, ErrUnbound
	}

	for attempt := 0; ; attempt++ {
		ch := r.group.DoChan("resolve", func() (any, error) {
			if v, ok := r.Peek(); ok {
				return v, nil
			}
			v, err := resolve(ctx, r.id)
			if err != nil {
				return nil, err
			}
			r.mu.Lock()
			r.value = v
			r.resolved = true
			r.mu.Unlock()
			return v, nil
		})

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				v, _ := res.Val.(T)
				return v, nil
			}
			// another caller's cancellation ended the shared fetch
			if attempt == 0 && isContextErr(res.Err) && ctx.Err() == nil {
				continue
			}
			return zero, fmt.Errorf("resolve %v: %w", r.id, res.Err)
		}
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
