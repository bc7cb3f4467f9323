// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

// Package dispatch implements a shared pool of worker goroutines for running
// completion callbacks away from the goroutines that drive socket I/O.
package dispatch

import (
	"fmt"
	"io"
	"log"
	"runtime"
	"sync"

	"github.com/creachadair/mds/queue"
	"golang.org/x/sync/semaphore"
)

const logFlags = log.LstdFlags | log.Lshortfile

// PoolOptions control the behaviour of a pool created by NewPool.
// A nil *PoolOptions provides sensible defaults.
type PoolOptions struct {
	// If not nil, send debug logs and recovered panics to this writer.
	LogWriter io.Writer

	// The maximum number of worker goroutines that may run concurrently.
	// A value less than 1 uses 64 * runtime.GOMAXPROCS(0).
	//
	// A task that blocks until another task on the same pool has run, as
	// linesock.SendWait and ReceiveWait do, can deadlock the pool once
	// MaxWorkers such tasks are running. Tasks must not do that.
	MaxWorkers int
}

func (o *PoolOptions) logFunc() func(string, ...any) {
	if o == nil || o.LogWriter == nil {
		return func(string, ...any) {}
	}
	logger := log.New(o.LogWriter, "[dispatch] ", logFlags)
	return func(msg string, args ...any) { logger.Output(2, fmt.Sprintf(msg, args...)) }
}

func (o *PoolOptions) maxWorkers() int64 {
	if o == nil || o.MaxWorkers < 1 {
		return int64(64 * runtime.GOMAXPROCS(0))
	}
	return int64(o.MaxWorkers)
}

// A Pool runs submitted tasks on a bounded set of worker goroutines.  Tasks
// are started in the order they were submitted, but may finish in any order.
// A *Pool is safe for concurrent use by multiple goroutines.
type Pool struct {
	sem *semaphore.Weighted // admits workers, up to the limit
	log func(string, ...any)

	mu   sync.Mutex // protects the fields below
	work *queue.Queue[func()]
	busy int        // number of workers admitted
	idle *sync.Cond // signaled when busy drops to zero
}

// NewPool constructs a new empty pool. Workers are started on demand.
func NewPool(opts *PoolOptions) *Pool {
	p := &Pool{
		sem:  semaphore.NewWeighted(opts.maxWorkers()),
		log:  opts.logFunc(),
		work: queue.New[func()](),
	}
	p.idle = sync.NewCond(&p.mu)
	return p
}

var (
	defaultOnce sync.Once
	defaultPool *Pool
)

// Default returns the process-wide pool shared by all sockets that are not
// given a pool of their own.
func Default() *Pool {
	defaultOnce.Do(func() { defaultPool = NewPool(nil) })
	return defaultPool
}

// Go schedules task to run on a worker goroutine and returns without waiting
// for it to start. Go will panic if task == nil.
func (p *Pool) Go(task func()) {
	if task == nil {
		panic("nil task")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.work.Add(task)

	// Admission and retirement both happen under p.mu, so a queued task is
	// never left behind by a worker that has just found the queue empty.
	if p.sem.TryAcquire(1) {
		p.busy++
		go p.worker()
	}
}

// Wait blocks until no tasks are queued or running.
func (p *Pool) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.busy != 0 {
		p.idle.Wait()
	}
}

func (p *Pool) worker() {
	for {
		p.mu.Lock()
		task, ok := p.work.Pop()
		if !ok {
			p.busy--
			p.sem.Release(1)
			if p.busy == 0 {
				p.idle.Broadcast()
			}
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
		p.run(task)
	}
}

// run executes task, recovering and logging any panic.
func (p *Pool) run(task func()) {
	defer func() {
		if v := recover(); v != nil {
			const size = 16 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			p.log("Recovered panic in task: %v\n%s", v, buf)
		}
	}()
	task()
}
