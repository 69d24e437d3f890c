package emitter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gobug "go.bug.st/serial"
)

type mockPort struct {
	mu     sync.Mutex
	writes [][]byte
	drains int
	closed int

	// failOn maps a 1-based write number to the error it returns.
	failOn   map[int]error
	drainErr error
	closeErr error
	// writeDelay is slept inside every Write.
	writeDelay time.Duration
	// onWrite, if set, is called before each write is recorded.
	onWrite func(n int)
}

func newMockPort() *mockPort {
	return &mockPort{failOn: map[int]error{}}
}

func (m *mockPort) Write(p []byte) (int, error) {
	if m.writeDelay > 0 {
		time.Sleep(m.writeDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.writes) + 1
	if m.onWrite != nil {
		m.onWrite(n)
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	m.writes = append(m.writes, cp)
	if err, ok := m.failOn[n]; ok {
		return 0, err
	}
	return len(p), nil
}

func (m *mockPort) Drain() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drains++
	return m.drainErr
}

func (m *mockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return m.closeErr
}

func (m *mockPort) written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.writes))
	for i, w := range m.writes {
		out[i] = string(w)
	}
	return out
}

func (m *mockPort) closeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type mockTransport struct {
	port    *mockPort
	openErr error
	opens   int
}

func (t *mockTransport) Name() string { return "COM7" }

func (t *mockTransport) Open() (Port, error) {
	t.opens++
	if t.openErr != nil {
		return nil, t.openErr
	}
	return t.port, nil
}

// recordingReporter keeps every event as a short string.
type recordingReporter struct {
	mu     sync.Mutex
	events []string
	errs   []error
}

func (r *recordingReporter) add(ev string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

func (r *recordingReporter) Opened(*Report) { r.add("opened", nil) }
func (r *recordingReporter) OpenFailed(_ *Report, err error) {
	r.add("open-failed", err)
}
func (r *recordingReporter) Sent(_ *Report, res Result) {
	r.add(fmt.Sprintf("sent %d", res.Index), nil)
}
func (r *recordingReporter) WriteFailed(_ *Report, res Result) {
	r.add(fmt.Sprintf("failed %d", res.Index), res.Err)
}
func (r *recordingReporter) TransportError(_ *Report, err error) {
	r.add("transport", err)
}
func (r *recordingReporter) Finished(*Report) { r.add("finished", nil) }

func (r *recordingReporter) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type mockBugstHandle struct {
	mu       sync.Mutex
	dtr, rts bool
	dtrErr   error
	writeErr error
	closed   bool
	writes   [][]byte
	drains   int
}

func (h *mockBugstHandle) SetDTR(v bool) error {
	h.dtr = v
	return h.dtrErr
}
func (h *mockBugstHandle) SetRTS(v bool) error { h.rts = v; return nil }
func (h *mockBugstHandle) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writes = append(h.writes, append([]byte(nil), p...))
	if h.writeErr != nil {
		return 0, h.writeErr
	}
	return len(p), nil
}
func (h *mockBugstHandle) Drain() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drains++
	return nil
}
func (h *mockBugstHandle) Close() error { h.closed = true; return nil }

// withPortsAndOpen temporarily overrides port enumeration and opening.
func withPortsAndOpen(list func() ([]string, error), open func(string, *gobug.Mode) (bugstHandle, error), fn func()) {
	origList, origOpen := getPortsList, openBugst
	getPortsList, openBugst = list, open
	defer func() { getPortsList, openBugst = origList, origOpen }()
	fn()
}

// withDelay replaces the open delay wait with fn.
func withDelay(fn func(d time.Duration) error, body func()) {
	orig := waitDelay
	waitDelay = func(_ context.Context, d time.Duration) error { return fn(d) }
	defer func() { waitDelay = orig }()
	body()
}

var errBoom = errors.New("boom")

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.OpenDelay = 0
	return cfg
}
