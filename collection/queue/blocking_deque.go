package queue

import (
	"context"
	"time"

	"github.com/sasha-s/go-deadlock"

	"github.com/gorevive/gorevive/commonerrors"
)

// BlockingDeque is a channel-signalled deque with a mutex-protected slice
// backing it, so that Drain/PopFrontClone can take an atomic snapshot of
// everything currently queued, something a bare channel cannot support.
//
// It backs MockSocketService.connectedSockets: sockets are pushed as they
// connect and popped (with a timeout) by tests waiting for exactly one
// connection.
type BlockingDeque[T any] struct {
	mu       deadlock.Mutex
	items    []T
	notEmpty chan struct{}
}

// NewBlockingDeque returns an empty BlockingDeque.
func NewBlockingDeque[T any]() *BlockingDeque[T] {
	return &BlockingDeque[T]{
		notEmpty: make(chan struct{}, 1),
	}
}

// PushBack appends value to the back of the deque and signals any waiter.
func (d *BlockingDeque[T]) PushBack(value T) {
	d.mu.Lock()
	d.items = append(d.items, value)
	d.mu.Unlock()
	select {
	case d.notEmpty <- struct{}{}:
	default:
	}
}

// PopFront removes and returns the element at the front of the deque.
// ok is false if the deque was empty.
func (d *BlockingDeque[T]) PopFront() (value T, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return
	}
	value = d.items[0]
	d.items = d.items[1:]
	ok = true
	return
}

// PopFrontClone returns a plain-slice snapshot of every element currently
// queued, without removing them.
func (d *BlockingDeque[T]) PopFrontClone() []T {
	d.mu.Lock()
	defer d.mu.Unlock()
	clone := make([]T, len(d.items))
	copy(clone, d.items)
	return clone
}

// Drain removes and returns everything currently queued, atomically.
func (d *BlockingDeque[T]) Drain() []T {
	d.mu.Lock()
	defer d.mu.Unlock()
	drained := d.items
	d.items = nil
	return drained
}

// Len returns the number of elements currently queued.
func (d *BlockingDeque[T]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// WaitPopFront blocks until an element is available, timeout elapses, or
// ctx is done, whichever happens first. A non-positive timeout disables
// the timeout and only ctx/availability are considered.
func (d *BlockingDeque[T]) WaitPopFront(ctx context.Context, timeout time.Duration) (value T, err error) {
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	for {
		if v, ok := d.PopFront(); ok {
			value = v
			return
		}
		select {
		case <-d.notEmpty:
			continue
		case <-timeoutCh:
			err = commonerrors.Newf(commonerrors.ErrTimeout, "no element available in %s", timeout)
			return
		case <-ctx.Done():
			err = commonerrors.ErrFromContext(ctx)
			return
		}
	}
}
