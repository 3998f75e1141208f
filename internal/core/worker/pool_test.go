package worker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestPoolWaitDrainsAllJobs(t *testing.T) {
	p := New(4, zaptest.NewLogger(t))
	defer p.Close()

	var mu sync.Mutex
	counter := 0
	for i := 0; i < 100; i++ {
		if err := p.Execute(func() {
			mu.Lock()
			counter++
			mu.Unlock()
		}); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}
	p.Wait()

	mu.Lock()
	defer mu.Unlock()
	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
}

func TestPoolWaitOnIdlePoolReturns(t *testing.T) {
	p := New(2, zaptest.NewLogger(t))
	defer p.Close()

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait() blocked on an idle pool")
	}
}

func TestPoolRunsJobsConcurrently(t *testing.T) {
	p := New(4, zaptest.NewLogger(t))
	defer p.Close()

	// Every job blocks until all four are running at once.
	var started sync.WaitGroup
	started.Add(4)
	for i := 0; i < 4; i++ {
		p.Execute(func() {
			started.Done()
			started.Wait()
		})
	}

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs did not run in parallel")
	}
}

func TestPoolSingleWorkerIsFIFO(t *testing.T) {
	p := New(1, zaptest.NewLogger(t))
	defer p.Close()

	var order []int
	for i := 0; i < 20; i++ {
		i := i
		p.Execute(func() { order = append(order, i) })
	}
	p.Wait()

	for i, got := range order {
		if got != i {
			t.Fatalf("order = %v, want ascending", order)
		}
	}
	if len(order) != 20 {
		t.Errorf("ran %d jobs, want 20", len(order))
	}
}

func TestPoolCloseDrainsAndRejects(t *testing.T) {
	p := New(2, zaptest.NewLogger(t))

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		p.Execute(func() {
			time.Sleep(time.Millisecond)
			ran.Add(1)
		})
	}
	p.Close()

	if got := ran.Load(); got != 10 {
		t.Errorf("ran = %d after Close, want 10", got)
	}
	if err := p.Execute(func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Execute() after Close error = %v, want ErrPoolClosed", err)
	}
	p.Close()
}

func TestBatchWaitsOnlyForItsJobs(t *testing.T) {
	p := New(2, zaptest.NewLogger(t))
	defer p.Close()

	release := make(chan struct{})
	p.Execute(func() { <-release })

	b := p.NewBatch()
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		if err := b.Execute(func() { ran.Add(1) }); err != nil {
			t.Fatal(err)
		}
	}
	b.Wait()
	if got := ran.Load(); got != 5 {
		t.Errorf("batch ran %d jobs, want 5", got)
	}

	close(release)
	p.Wait()
}

func TestBatchExecuteAfterClose(t *testing.T) {
	p := New(1, zaptest.NewLogger(t))
	p.Close()

	b := p.NewBatch()
	if err := b.Execute(func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("error = %v, want ErrPoolClosed", err)
	}
	b.Wait()
}

func TestNewPanicsOnZeroSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New(0) did not panic")
		}
	}()
	New(0, zaptest.NewLogger(t))
}
