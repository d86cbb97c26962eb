package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPool_RunsTasks(t *testing.T) {
	p := NewPool(time.Second)
	defer p.Shutdown()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		if err := p.Submit(func(context.Context) {
			defer wg.Done()
			mu.Lock()
			ran++
			mu.Unlock()
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	wg.Wait()
	if ran != 10 {
		t.Errorf("ran = %d, want 10", ran)
	}
}

func TestPool_GrowsWhenAllWorkersBusy(t *testing.T) {
	p := NewPool(time.Second)
	defer p.Shutdown()

	release := make(chan struct{})
	started := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		if err := p.Submit(func(context.Context) {
			started <- struct{}{}
			<-release
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("blocked tasks did not all start; pool did not grow")
		}
	}
	if got := p.Workers(); got != 3 {
		t.Errorf("Workers = %d, want 3", got)
	}
	close(release)
}

func TestPool_ReusesIdleWorker(t *testing.T) {
	p := NewPool(time.Second)
	defer p.Shutdown()

	done := make(chan struct{})
	if err := p.Submit(func(context.Context) { close(done) }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-done
	// let the worker park on the task channel
	time.Sleep(50 * time.Millisecond)

	done2 := make(chan struct{})
	if err := p.Submit(func(context.Context) { close(done2) }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-done2
	if got := p.Workers(); got != 1 {
		t.Errorf("Workers = %d, want the idle worker reused", got)
	}
}

func TestPool_IdleWorkersRetire(t *testing.T) {
	p := NewPool(20 * time.Millisecond)
	defer p.Shutdown()

	done := make(chan struct{})
	if err := p.Submit(func(context.Context) { close(done) }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-done
	deadline := time.Now().Add(time.Second)
	for p.Workers() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := p.Workers(); got != 0 {
		t.Errorf("Workers = %d after idle timeout, want 0", got)
	}
}

func TestPool_ShutdownCancelsContextAndRejects(t *testing.T) {
	p := NewPool(time.Second)

	observed := make(chan error, 1)
	if err := p.Submit(func(ctx context.Context) {
		<-ctx.Done()
		observed <- ctx.Err()
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	p.Shutdown()
	select {
	case err := <-observed:
		if err == nil {
			t.Error("expected cancelled context")
		}
	case <-time.After(time.Second):
		t.Fatal("in-flight task did not observe shutdown")
	}
	if err := p.Submit(func(context.Context) {}); err != ErrPoolClosed {
		t.Errorf("Submit after Shutdown = %v, want ErrPoolClosed", err)
	}
	p.Shutdown()
}
