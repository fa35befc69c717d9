package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/xiaot623/modgate/domain"
)

// Reporter receives audit delivery outcomes. Implemented by the monitor.
type Reporter interface {
	Info(msg string)
	Success(msg string)
	Error(msg string)
}

// Dispatcher runs audit emissions off the request path with a bounded
// number in flight. When the bound is hit the exchange is dropped and
// reported; audit latency must never back up into the user-visible result.
type Dispatcher struct {
	emitter  *Emitter
	sem      *semaphore.Weighted
	timeout  time.Duration
	reporter Reporter
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. emitter may be nil when audit is not
// configured, in which case Record is a no-op.
func NewDispatcher(emitter *Emitter, maxInflight int64, timeout time.Duration, reporter Reporter) *Dispatcher {
	if maxInflight < 1 {
		maxInflight = 1
	}
	return &Dispatcher{
		emitter:  emitter,
		sem:      semaphore.NewWeighted(maxInflight),
		timeout:  timeout,
		reporter: reporter,
	}
}

// Record schedules one exchange for emission and returns immediately.
func (d *Dispatcher) Record(ex domain.Exchange) {
	if d.emitter == nil {
		return
	}
	if !d.sem.TryAcquire(1) {
		d.reporter.Error("audit dropped: too many emissions in flight")
		return
	}

	d.reporter.Info("audit: sending exchange")
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.emitter.Emit(ctx, ex); err != nil {
			d.reporter.Error(fmt.Sprintf("audit delivery failed: %v", err))
			return
		}
		d.reporter.Success("audit: exchange recorded")
	}()
}

// Wait blocks until all in-flight emissions finish. Used at shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
