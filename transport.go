package emitter

import (
	"fmt"
)

// Port is the subset of an open serial connection the emitter needs.
type Port interface {
	Write(p []byte) (int, error)
	// Drain blocks until bytes already written have left the output buffer.
	Drain() error
	Close() error
}

// Transport holds everything needed to open a port without touching the
// device. Nothing happens until Open is called.
type Transport interface {
	Open() (Port, error)
	Name() string
}

// NewTransport builds the Transport for cfg.Driver.
func NewTransport(cfg *Config) (Transport, error) {
	parity, err := ParseParity(cfg.Parity)
	if err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case "", DriverBugst:
		return &bugstTransport{
			portName:   cfg.PortName,
			dtr:        cfg.DTR,
			rts:        cfg.RTS,
			verifyPort: cfg.VerifyPort,
			mode:       bugstMode(cfg, parity),
		}, nil
	case DriverTarm:
		return &tarmTransport{
			verifyPort: cfg.VerifyPort,
			config:     tarmConfig(cfg, parity),
		}, nil
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
}
