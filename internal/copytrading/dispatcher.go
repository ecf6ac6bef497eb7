package copytrading

import (
	"context"
	"log"
	"sync"
	"time"
)

// Dispatcher runs named fire-and-forget background tasks. Submission
// never blocks the caller on task completion and task errors are logged,
// never propagated: this is the explicit contract between the trade
// submission handler and the propagation engine.
type Dispatcher struct {
	logger *log.Logger
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{logger: logger}
}

// Submit starts fn in the background under a context detached from any
// HTTP request, so in-flight fan-outs survive the response being sent.
// After Shutdown, submissions are dropped with a log line.
func (d *Dispatcher) Submit(name string, fn func(ctx context.Context) error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Printf("[dispatcher] %s dropped: dispatcher is shut down", name)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		start := time.Now()
		if err := fn(context.Background()); err != nil {
			d.logger.Printf("[dispatcher] %s failed after %v: %v", name, time.Since(start), err)
			return
		}
		d.logger.Printf("[dispatcher] %s done in %v", name, time.Since(start))
	}()
}

// Shutdown stops accepting tasks and waits for in-flight ones, up to the
// context deadline.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
