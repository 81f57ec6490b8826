package pending

import (
	"context"
	"sync"
)

type generation[T any] struct {
	done    chan struct{}
	result  Result[T]
	waiters int
}

func newGeneration[T any]() *generation[T] {
	return &generation[T]{
		done: make(chan struct{}),
	}
}

// Broadcast parks any number of callers and releases all of them at once, with
// the same result, on the next Flush.
type Broadcast[T any] struct {
	mu  sync.Mutex
	gen *generation[T]
}

func NewBroadcast[T any]() *Broadcast[T] {
	return &Broadcast[T]{
		gen: newGeneration[T](),
	}
}

// Wait registers the caller, runs action (if any) and blocks until the next
// Flush or until ctx is done.
func (b *Broadcast[T]) Wait(ctx context.Context, action func()) (value T, err error) {
	b.mu.Lock()
	gen := b.gen
	gen.waiters += 1
	b.mu.Unlock()

	if action != nil {
		action()
	}

	select {
	case <-gen.done:
		// result is written before done is closed and never touched again.
		return gen.result.Value, gen.result.Err
	case <-ctx.Done():
		b.mu.Lock()
		if b.gen == gen {
			gen.waiters -= 1
		}
		b.mu.Unlock()

		return value, ctx.Err()
	}
}

// Flush releases every caller currently parked in Wait with res and returns
// how many there were. Callers arriving afterwards wait for the next Flush.
func (b *Broadcast[T]) Flush(res Result[T]) int {
	b.mu.Lock()
	gen := b.gen
	released := gen.waiters
	b.gen = newGeneration[T]()
	b.mu.Unlock()

	gen.result = res
	close(gen.done)

	return released
}

func (b *Broadcast[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.gen.waiters
}
