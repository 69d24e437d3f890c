package emitter

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	gobug "go.bug.st/serial"
)

var (
	ErrClosed          = errors.New("emitter: port closed")
	ErrPortNotOpen     = errors.New("emitter: port not open")
	ErrNotInitialized  = errors.New("emitter: not initialized")
	ErrInvalidPortName = errors.New("emitter: port not found")
	ErrWriteTimeout    = errors.New("emitter: write timed out before it started")
	ErrShortWrite      = errors.New("emitter: partial write, not all bytes written")
)

// OpenError reports that the port could not be opened. It ends the run.
type OpenError struct {
	Port string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("opening serial port %s: %v", e.Port, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// WriteError reports a failed write of a single message. The run continues.
type WriteError struct {
	Index int
	Line  string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing message %d: %v", e.Index, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// TransportError is raised by the connection itself rather than by a
// particular write: drain failures, the device disappearing, close errors.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("serial transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// isTransportFault reports whether a write error also indicates the
// connection itself has failed.
func isTransportFault(err error) bool {
	if errors.Is(err, ErrClosed) {
		return true
	}
	var pe *gobug.PortError
	if errors.As(err, &pe) {
		switch pe.Code() {
		case gobug.PortClosed, gobug.PortNotFound:
			return true
		}
		return false
	}
	// EIO, ENXIO and friends from the write syscall
	var errno syscall.Errno
	return errors.As(err, &errno)
}

// wrapClosed marks driver errors for a closed port with ErrClosed.
func wrapClosed(err error) error {
	if err == nil || errors.Is(err, ErrClosed) {
		return err
	}
	if errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	var pe *gobug.PortError
	if errors.As(err, &pe) && pe.Code() == gobug.PortClosed {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return err
}
