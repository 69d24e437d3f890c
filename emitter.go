package emitter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

var ErrRunInProgress = errors.New("emitter: a run is already in progress")

// waitDelay suspends for d or until ctx is done. Tests replace it.
var waitDelay = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Emitter opens a serial port, waits Config.OpenDelay, then writes
// Config.MessageCount rendered lines.
//
// Config is required. Transport, Reporter and Logger are optional; when
// unset, Initialize builds the transport from Config and reports to Logger.
type Emitter struct {
	Config    *Config
	Transport Transport
	Reporter  Reporter
	Logger    zerolog.Logger

	metrics *Metrics
	buffers *messageBuffers
	running atomic.Bool

	// Initialization synchronization - ensures Initialize() is called only once
	initOnce    sync.Once
	initErr     error
	initialized atomic.Bool
}

// New returns an initialized Emitter for cfg.
func New(cfg Config, logger zerolog.Logger) (*Emitter, error) {
	e := &Emitter{Config: &cfg, Logger: logger}
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Emitter) Initialize() error {
	e.initOnce.Do(func() {
		e.initErr = e.doInitialize()
		if e.initErr == nil {
			e.initialized.Store(true)
		}
	})
	return e.initErr
}

func (e *Emitter) doInitialize() error {
	if e.Config == nil {
		return errors.New("emitter config has not been set")
	}
	if err := ValidateConfig(e.Config); err != nil {
		return fmt.Errorf("invalid emitter configuration: %w", err)
	}

	if e.Transport == nil {
		t, err := NewTransport(e.Config)
		if err != nil {
			return fmt.Errorf("building transport: %w", err)
		}
		e.Transport = t
	}
	if e.Reporter == nil {
		e.Reporter = LogReporter{Logger: e.Logger}
	}

	e.metrics = &Metrics{}
	e.buffers = newMessageBuffers(e.metrics)
	return nil
}

// Metrics returns the counters accumulated over every run of e.
func (e *Emitter) Metrics() *Metrics {
	if e.metrics == nil {
		return &Metrics{}
	}
	return e.metrics
}

// BufferPoolStats returns usage of the small, medium and large message pools.
func (e *Emitter) BufferPoolStats() []PoolStats {
	if e.buffers == nil {
		return nil
	}
	return e.buffers.stats()
}

// Run performs one emission. The returned error is non-nil when the port
// could not be opened (an *OpenError) or ctx ended the run early; write
// failures are reported per message and only counted in the Report.
func (e *Emitter) Run(ctx context.Context) (*Report, error) {
	if !e.initialized.Load() {
		return nil, ErrNotInitialized
	}
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer e.running.Store(false)

	cfg := e.Config
	report := newReport(cfg, e.Transport.Name())
	log := e.Logger.With().Str("run_id", report.RunID).Logger()

	e.metrics.ConnectionAttempts.Add(1)
	log.Debug().Str("port", report.Port).Int("baud_rate", cfg.BaudRate).Msg("opening port")
	port, err := e.Transport.Open()
	if err != nil {
		e.metrics.ConnectionFailures.Add(1)
		report.Err = &OpenError{Port: report.Port, Err: err}
		e.Reporter.OpenFailed(report, report.Err)
		e.finish(report)
		return report, report.Err
	}
	e.metrics.SuccessfulConnects.Add(1)
	report.Opened = time.Now()
	e.Reporter.Opened(report)

	w := newWriter(port, cfg.MessageCount, e.metrics)

	if err = waitDelay(ctx, cfg.OpenDelay); err != nil {
		report.Err = err
		w.abort()
		e.closePort(report, port)
		e.finish(report)
		return report, err
	}

	e.emit(ctx, w, report)

	// every submitted operation has completed once close returns
	if report.Err != nil {
		w.abort()
	} else {
		w.close()
	}
	// ctx may have ended while the last writes were in flight
	if report.Err == nil && ctx.Err() != nil {
		report.Err = ctx.Err()
	}
	e.closePort(report, port)
	e.finish(report)
	return report, report.Err
}

// emit submits one write per counter value. Completions are reported from
// the writer goroutine as they happen.
func (e *Emitter) emit(ctx context.Context, w *writer, report *Report) {
	cfg := e.Config
	tmpl := Template(cfg.Template)

	for k := 0; k < cfg.MessageCount; k++ {
		i := cfg.StartIndex + k
		buf, release := e.buffers.get(tmpl.RenderedLen(i))
		buf = tmpl.AppendTo(buf, i)
		line := string(buf)

		opCtx, cancel := ctx, context.CancelFunc(func() {})
		if cfg.WriteTimeout > 0 {
			opCtx, cancel = context.WithTimeoutCause(ctx, cfg.WriteTimeout, ErrWriteTimeout)
		}

		completed := make(chan struct{})
		index := i
		op := &writeOperation{
			index:   index,
			data:    buf,
			ctx:     opCtx,
			release: release,
			done: func(r writeResult) {
				defer close(completed)
				defer cancel()
				e.complete(report, index, line, r)
			},
		}

		if err := w.submit(op); err != nil {
			cancel()
			release()
			report.Err = err
			return
		}

		if cfg.AwaitWrites {
			select {
			case <-completed:
			case <-ctx.Done():
				report.Err = ctx.Err()
				return
			}
		}
	}

	if err := ctx.Err(); err != nil {
		report.Err = err
	}
}

// complete runs on the writer goroutine.
func (e *Emitter) complete(report *Report, index int, line string, r writeResult) {
	if report.FirstWrite.IsZero() && !r.started.IsZero() {
		report.FirstWrite = r.started
	}

	res := Result{Index: index, Line: line, Bytes: r.n, Latency: r.latency}
	if r.err != nil {
		res.Err = &WriteError{Index: index, Line: line, Err: r.err}
	}
	report.record(res)

	if res.OK() {
		e.Reporter.Sent(report, res)
	} else {
		e.Reporter.WriteFailed(report, res)
		if isTransportFault(r.err) {
			e.transportError(report, &TransportError{Op: "write", Err: r.err})
		}
	}
	if r.drainErr != nil {
		e.transportError(report, &TransportError{Op: "drain", Err: r.drainErr})
	}
}

func (e *Emitter) transportError(report *Report, err error) {
	report.TransportErrors++
	e.metrics.TransportErrors.Add(1)
	e.Reporter.TransportError(report, err)
}

// closePort releases the port. Must only be called once the writer has stopped.
func (e *Emitter) closePort(report *Report, port Port) {
	if err := port.Close(); err != nil {
		e.transportError(report, &TransportError{Op: "close", Err: err})
	}
}

func (e *Emitter) finish(report *Report) {
	report.Finished = time.Now()
	report.Metrics = e.metrics.Snapshot()
	e.Reporter.Finished(report)
}
