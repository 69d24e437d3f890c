package emitter

import (
	"errors"
	"fmt"

	gobug "go.bug.st/serial"
)

// allow tests to override external dependencies
var (
	openBugst    = func(name string, mode *gobug.Mode) (bugstHandle, error) { return gobug.Open(name, mode) }
	getPortsList = gobug.GetPortsList
)

type bugstHandle interface {
	SetDTR(bool) error
	SetRTS(bool) error
	Write([]byte) (int, error)
	Drain() error
	Close() error
}

type bugstTransport struct {
	portName   string
	mode       *gobug.Mode
	dtr, rts   bool
	verifyPort bool
}

func bugstMode(cfg *Config, parity Parity) *gobug.Mode {
	return &gobug.Mode{
		BaudRate: BaudRate(cfg.BaudRate).Int(),
		DataBits: DataBits(cfg.DataBits).Int(),
		Parity:   parity.Bugst(),
		StopBits: StopBits(cfg.StopBits).Bugst(),
	}
}

func (t *bugstTransport) Name() string { return t.portName }

func (t *bugstTransport) Open() (Port, error) {
	if t.verifyPort {
		if err := checkPortAvailable(t.portName); err != nil {
			return nil, err
		}
	}

	h, err := openBugst(t.portName, t.mode)
	if err != nil {
		return nil, err
	}

	// Explicitly set control lines to configured values
	if err = h.SetDTR(t.dtr); err != nil {
		return nil, closeAfterOpenError(h, fmt.Errorf("setting DTR: %w", err))
	}
	if err = h.SetRTS(t.rts); err != nil {
		return nil, closeAfterOpenError(h, fmt.Errorf("setting RTS: %w", err))
	}

	return bugstPort{h}, nil
}

// bugstPort reports writes on a closed handle as ErrClosed.
type bugstPort struct {
	bugstHandle
}

func (p bugstPort) Write(b []byte) (int, error) {
	n, err := p.bugstHandle.Write(b)
	return n, wrapClosed(err)
}

// closeAfterOpenError closes h and joins any error from closing with err.
func closeAfterOpenError(h interface{ Close() error }, err error) error {
	if e := h.Close(); e != nil {
		err = errors.Join(err, e)
	}
	return err
}

// AvailablePorts lists the serial ports the OS currently enumerates.
func AvailablePorts() ([]string, error) {
	ports, err := getPortsList()
	if err != nil {
		return nil, err
	}
	return ports, nil
}
