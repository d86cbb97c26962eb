// Package worker runs login and backend work off the interactive goroutine.
// The pool is unbounded: a task is handed to an idle worker when one is
// waiting, otherwise a new worker is started. Idle workers retire after the
// idle timeout.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrPoolClosed is returned by Submit after Shutdown.
var ErrPoolClosed = errors.New("worker: pool is shut down")

// DefaultIdleTimeout is how long an idle worker waits for work before exiting.
const DefaultIdleTimeout = 60 * time.Second

// Pool is a grow-on-demand worker pool.
type Pool struct {
	tasks       chan func(context.Context)
	ctx         context.Context
	cancel      context.CancelFunc
	idleTimeout time.Duration
	workers     atomic.Int64
	closeOnce   sync.Once
}

// NewPool returns a pool whose idle workers exit after idleTimeout.
// A non-positive idleTimeout uses DefaultIdleTimeout.
func NewPool(idleTimeout time.Duration) *Pool {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		tasks:       make(chan func(context.Context)),
		ctx:         ctx,
		cancel:      cancel,
		idleTimeout: idleTimeout,
	}
}

// Submit runs fn on a worker. fn receives the pool context, which is
// cancelled by Shutdown.
func (p *Pool) Submit(fn func(ctx context.Context)) error {
	if fn == nil {
		return errors.New("worker: nil task")
	}
	if p.ctx.Err() != nil {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- fn:
		return nil
	default:
	}
	p.workers.Add(1)
	go p.run(fn)
	return nil
}

func (p *Pool) run(fn func(context.Context)) {
	defer p.workers.Add(-1)
	idle := time.NewTimer(p.idleTimeout)
	defer idle.Stop()
	for {
		fn(p.ctx)
		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(p.idleTimeout)
		select {
		case next := <-p.tasks:
			fn = next
		case <-idle.C:
			return
		case <-p.ctx.Done():
			return
		}
	}
}

// Workers returns the number of live workers, busy or idle.
func (p *Pool) Workers() int {
	return int(p.workers.Load())
}

// Context returns the pool context; it is done once Shutdown is called.
func (p *Pool) Context() context.Context {
	return p.ctx
}

// Shutdown stops accepting work and cancels the pool context. In-flight
// tasks are abandoned, not awaited: blocked waits observe the cancellation
// and their sessions suppress completion signals.
func (p *Pool) Shutdown() {
	p.closeOnce.Do(p.cancel)
}
