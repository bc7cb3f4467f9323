// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

package dispatch_test

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/creachadair/linesock/dispatch"
	"github.com/fortytw2/leaktest"
	"github.com/google/go-cmp/cmp"
)

func TestPoolRunsAll(t *testing.T) {
	defer leaktest.Check(t)()

	p := dispatch.NewPool(&dispatch.PoolOptions{MaxWorkers: 4})
	const numTasks = 500

	var sum atomic.Int64
	for i := 1; i <= numTasks; i++ {
		i := i
		p.Go(func() { sum.Add(int64(i)) })
	}
	p.Wait()

	if got, want := sum.Load(), int64(numTasks*(numTasks+1)/2); got != want {
		t.Errorf("Sum of tasks: got %d, want %d", got, want)
	}
}

func TestPoolStartOrder(t *testing.T) {
	defer leaktest.Check(t)()

	// With a single worker, start order is also completion order.
	p := dispatch.NewPool(&dispatch.PoolOptions{MaxWorkers: 1})

	var mu sync.Mutex
	var got []int
	for i := 0; i < 20; i++ {
		i := i
		p.Go(func() {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, i)
		})
	}
	p.Wait()

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Task order (-want, +got):\n%s", diff)
	}
}

func TestPoolSlowTask(t *testing.T) {
	defer leaktest.Check(t)()

	p := dispatch.NewPool(nil)
	release := make(chan struct{})
	slowDone := make(chan struct{})
	fastDone := make(chan struct{})

	p.Go(func() { <-release; close(slowDone) })
	p.Go(func() { close(fastDone) })

	select {
	case <-fastDone:
		// OK, the fast task was not held up by the slow one.
	case <-time.After(5 * time.Second):
		t.Fatal("Fast task did not complete while slow task was blocked")
	}
	select {
	case <-slowDone:
		t.Error("Slow task completed before it was released")
	default:
	}
	close(release)
	<-slowDone
	p.Wait()
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(data)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestPoolPanic(t *testing.T) {
	defer leaktest.Check(t)()

	var logs syncBuffer
	p := dispatch.NewPool(&dispatch.PoolOptions{MaxWorkers: 1, LogWriter: &logs})

	ran := make(chan struct{})
	p.Go(func() { panic("ouch") })
	p.Go(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("Task after a panic did not run")
	}
	p.Wait()
	if got := logs.String(); !strings.Contains(got, "ouch") {
		t.Errorf("Log output missing panic value: %q", got)
	}
}

func TestPoolNilTask(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Go(nil) did not panic")
		}
	}()
	dispatch.NewPool(nil).Go(nil)
}

func TestDefault(t *testing.T) {
	if dispatch.Default() != dispatch.Default() {
		t.Error("Default returned different pools")
	}
}
