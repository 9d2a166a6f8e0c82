package dispatch

import (
	"context"
	"sync"
)

// Loop is the single goroutine that owns the selection state and the board
// view. Every click and every submission completion runs as a job here, in
// the order it was posted.
type Loop struct {
	jobs      chan func()
	done      chan struct{}
	closeOnce sync.Once
	after     func()
}

// NewLoop returns a loop with the given queue depth.
func NewLoop(buffer int) *Loop {
	if buffer < 1 {
		buffer = 64
	}
	return &Loop{jobs: make(chan func(), buffer), done: make(chan struct{})}
}

// AfterEach registers fn to run after every job, e.g. to redraw. Call before Run.
func (l *Loop) AfterEach(fn func()) { l.after = fn }

// Post enqueues f. Jobs posted after the loop stopped are dropped.
func (l *Loop) Post(f func()) {
	select {
	case <-l.done:
	case l.jobs <- f:
	}
}

// Run executes jobs until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.closeOnce.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-l.jobs:
			f()
			if l.after != nil {
				l.after()
			}
		}
	}
}

// Sync blocks until every job posted before it has run. It returns false if
// the loop stopped first.
func (l *Loop) Sync(ctx context.Context) bool {
	ch := make(chan struct{})
	l.Post(func() { close(ch) })
	select {
	case <-ch:
		return true
	case <-l.done:
		return false
	case <-ctx.Done():
		return false
	}
}
