package pending

import (
	"context"
	"errors"
	"sync"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrDuplicateKey       = errors.New("operation already pending for key")
	ErrNoPendingOperation = errors.New("no pending operation for key")
)

// Result is the outcome handed to a parked caller.
type Result[T any] struct {
	Value T
	Err   error
}

type operation[T any] struct {
	// buffered (1) so a completion never blocks, even when it lands before the
	// caller starts waiting.
	done chan Result[T]
}

// Keyed runs at most one operation per key and parks the caller until an
// external completion for that key arrives through Complete.
type Keyed[K comparable, T any] struct {
	mu  sync.Mutex
	ops map[K]*operation[T]
}

func NewKeyed[K comparable, T any]() *Keyed[K, T] {
	return &Keyed[K, T]{
		ops: make(map[K]*operation[T]),
	}
}

func (k *Keyed[K, T]) HasWork(key K) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	_, ok := k.ops[key]
	return ok
}

func (k *Keyed[K, T]) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	return len(k.ops)
}

// Enqueue registers an operation for key, runs action and waits for the
// matching Complete. action is not run when another operation for key is
// outstanding; ErrDuplicateKey is returned instead.
//
// If ctx is done first the registration is dropped, so a later Enqueue for the
// same key is not blocked by a caller that went away.
func (k *Keyed[K, T]) Enqueue(ctx context.Context, key K, action func() error) (value T, err error) {
	op := &operation[T]{
		done: make(chan Result[T], 1),
	}

	k.mu.Lock()

	if _, ok := k.ops[key]; ok {
		k.mu.Unlock()
		return value, pkgerrors.Wrapf(ErrDuplicateKey, "key %v", key)
	}

	k.ops[key] = op
	k.mu.Unlock()

	// run outside the lock: the action may deliver its completion synchronously.
	if action != nil {
		if err := action(); err != nil {
			k.remove(key, op)
			return value, err
		}
	}

	select {
	case res := <-op.done:
		return res.Value, res.Err
	case <-ctx.Done():
		k.remove(key, op)
		return value, ctx.Err()
	}
}

// Complete resumes the caller waiting on key with res. It fails with
// ErrNoPendingOperation when nobody is waiting, which includes a second
// completion for a key that was already resumed.
func (k *Keyed[K, T]) Complete(key K, res Result[T]) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	op, ok := k.ops[key]

	if !ok {
		return pkgerrors.Wrapf(ErrNoPendingOperation, "key %v", key)
	}

	delete(k.ops, key)
	op.done <- res

	return nil
}

// CompleteAll resumes every waiting caller with res and returns the keys that
// were released.
func (k *Keyed[K, T]) CompleteAll(res Result[T]) []K {
	k.mu.Lock()
	defer k.mu.Unlock()

	keys := make([]K, 0, len(k.ops))

	for key, op := range k.ops {
		delete(k.ops, key)
		op.done <- res
		keys = append(keys, key)
	}

	return keys
}

// remove drops key only if it still belongs to op; a newer registration for
// the same key is left alone.
func (k *Keyed[K, T]) remove(key K, op *operation[T]) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.ops[key] == op {
		delete(k.ops, key)
	}
}
