package emitter

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// writeOperation represents a queued write operation
type writeOperation struct {
	index   int
	data    []byte
	ctx     context.Context
	release func()
	done    func(writeResult)
}

// writeResult holds the result of a write operation
type writeResult struct {
	n        int
	err      error
	drainErr error
	started  time.Time
	latency  time.Duration
}

// writer owns the port for writing. Operations are executed one at a time
// in submission order; each is followed by a drain.
type writer struct {
	port    Port
	metrics *Metrics

	queue   chan *writeOperation
	done    chan struct{} // closed when the processing goroutine exits
	aborted atomic.Bool

	// protects queue against send-after-close
	mu        sync.RWMutex
	stopped   bool
	closeOnce sync.Once
}

func newWriter(port Port, depth int, m *Metrics) *writer {
	if depth < 1 {
		depth = 1
	}
	w := &writer{
		port:    port,
		metrics: m,
		queue:   make(chan *writeOperation, depth),
		done:    make(chan struct{}),
	}
	go w.processWrites()
	return w
}

// submit queues op. It blocks only while the queue is full.
func (w *writer) submit(op *writeOperation) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return ErrPortNotOpen
	}
	if op.ctx.Err() != nil {
		return context.Cause(op.ctx)
	}

	select {
	case w.queue <- op:
		return nil
	case <-op.ctx.Done():
		return context.Cause(op.ctx)
	}
}

// processWrites handles all write operations from the queue in a single goroutine
func (w *writer) processWrites() {
	defer close(w.done)

	for op := range w.queue {
		if w.aborted.Load() {
			w.skip(op, ErrPortNotOpen)
			continue
		}
		w.executeWrite(op)
	}
}

// executeWrite performs the actual write, then drains the port
func (w *writer) executeWrite(op *writeOperation) {
	// The cause is ErrWriteTimeout when the operation's own deadline
	// expired, or the run context's error when that ended first.
	if op.ctx.Err() != nil {
		err := context.Cause(op.ctx)
		if errors.Is(err, ErrWriteTimeout) && w.metrics != nil {
			w.metrics.WriteTimeouts.Add(1)
		}
		w.skip(op, err)
		return
	}

	start := time.Now()
	n, err := writeFull(w.port, op.data)
	result := writeResult{n: n, err: err, started: start}
	if err == nil {
		result.drainErr = w.port.Drain()
	}
	result.latency = time.Since(start)

	if w.metrics != nil {
		w.metrics.recordWrite(n, err, result.latency)
		if result.drainErr != nil {
			w.metrics.DrainFailures.Add(1)
		}
	}
	w.finish(op, result)
}

// skip fails op without touching the port.
func (w *writer) skip(op *writeOperation, err error) {
	if w.metrics != nil {
		w.metrics.recordSkipped()
	}
	w.finish(op, writeResult{err: err})
}

func (w *writer) finish(op *writeOperation, r writeResult) {
	if op.done != nil {
		op.done(r)
	}
	if op.release != nil {
		op.release()
	}
}

// writeFull writes b, retrying short writes a bounded number of times.
func writeFull(p Port, b []byte) (int, error) {
	const maxRetries = 3

	var totalWritten int
	for retries := 0; totalWritten < len(b) && retries < maxRetries; retries++ {
		n, err := p.Write(b[totalWritten:])
		totalWritten += n
		if err != nil {
			return totalWritten, err
		}
		if n == 0 {
			// Prevent infinite loop if Write returns 0
			break
		}
	}
	if totalWritten < len(b) {
		return totalWritten, ErrShortWrite
	}
	return totalWritten, nil
}

// close stops accepting operations and waits until every queued one has
// completed. Safe to call more than once.
func (w *writer) close() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		close(w.queue)
		w.mu.Unlock()
	})
	<-w.done
}

// abort is close, except operations still queued fail with ErrPortNotOpen
// instead of being written.
func (w *writer) abort() {
	w.aborted.Store(true)
	w.close()
}
