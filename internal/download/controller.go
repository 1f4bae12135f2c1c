package download

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// permitRole selects which states admit a watcher to acquire a permit.
type permitRole int

const (
	// chapterRole acquires while Pending and then promotes the task to Downloading.
	chapterRole permitRole = iota
	// imageRole acquires while the parent chapter is Downloading.
	imageRole
)

// controller drives one watcher of a task's state cell.
//
// It holds at most one permit from its limiter, acquired lazily and kept
// across wake-ups. Every suspension goes through await, which reacts to
// state changes while it waits: Paused releases the permit, Pending (for a
// chapter) queues for a new one, and Cancelled unwinds with errTaskStopped.
type controller struct {
	cell *stateCell
	sem  *semaphore.Weighted
	role permitRole
	held bool

	// promoted runs after a chapter moved itself from Pending to Downloading.
	promoted func()
}

func newController(cell *stateCell, sem *semaphore.Weighted, role permitRole) *controller {
	return &controller{cell: cell, sem: sem, role: role}
}

func (c *controller) release() {
	if c.held {
		c.sem.Release(1)
		c.held = false
	}
}

// acquire waits for a permit until one is granted or the state changes.
// A permit granted while the state changed is kept for the next check.
func (c *controller) acquire(ctx context.Context, changed <-chan struct{}) error {
	if c.sem.TryAcquire(1) {
		c.held = true
		return nil
	}

	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- c.sem.Acquire(actx, 1) }()

	select {
	case err := <-result:
		if err != nil {
			return err
		}
		c.held = true
	case <-changed:
		cancel()
		if err := <-result; err == nil {
			c.held = true
		}
	}
	return nil
}

// await blocks until done is closed and the watcher is runnable again, that
// is the state is Downloading and a permit is held. A nil done waits only
// for runnability.
//
// It returns errTaskStopped once the state is terminal and ctx.Err() if
// ctx ends first. Either way the permit is released.
func (c *controller) await(ctx context.Context, done <-chan struct{}) error {
	finished := done == nil
	for {
		state, changed := c.cell.watch()

		switch state {
		case StateCancelled, StateCompleted, StateFailed:
			c.release()
			return errTaskStopped

		case StatePaused:
			c.release()

		case StatePending:
			if c.role != chapterRole {
				break
			}
			if !c.held {
				if err := c.acquire(ctx, changed); err != nil {
					c.release()
					return err
				}
				continue
			}
			if c.cell.compareAndSet(StatePending, StateDownloading) && c.promoted != nil {
				c.promoted()
			}
			continue

		case StateDownloading:
			if c.held {
				if finished {
					return nil
				}
				break
			}
			if c.role == imageRole {
				if err := c.acquire(ctx, changed); err != nil {
					c.release()
					return err
				}
				continue
			}
		}

		var doneCh <-chan struct{}
		if !finished {
			doneCh = done
		}
		select {
		case <-doneCh:
			finished = true
		case <-changed:
		case <-ctx.Done():
			c.release()
			return ctx.Err()
		}
	}
}

// sleep waits for d while observing state changes. The deadline is fixed
// when sleep is called, so time spent paused counts toward it.
func (c *controller) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return c.await(ctx, nil)
	}
	done := make(chan struct{})
	timer := time.AfterFunc(d, func() { close(done) })
	defer timer.Stop()
	return c.await(ctx, done)
}

type callResult[T any] struct {
	value T
	err   error
}

// call runs fn in its own goroutine and waits for it through await, so a
// pause releases the permit while fn is still in flight. fn keeps running
// after a cancel; its result is dropped.
func call[T any](ctx context.Context, c *controller, fn func(context.Context) (T, error)) (T, error) {
	result := make(chan callResult[T], 1)
	done := make(chan struct{})
	go func() {
		v, err := fn(ctx)
		result <- callResult[T]{v, err}
		close(done)
	}()

	if err := c.await(ctx, done); err != nil {
		var zero T
		return zero, err
	}
	r := <-result
	return r.value, r.err
}
