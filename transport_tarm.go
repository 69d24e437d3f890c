package emitter

import (
	tarm "github.com/tarm/serial"
)

var openTarm = func(c *tarm.Config) (tarmHandle, error) { return tarm.OpenPort(c) }

type tarmHandle interface {
	Write([]byte) (int, error)
	Close() error
}

type tarmTransport struct {
	config     *tarm.Config
	verifyPort bool
}

func tarmConfig(cfg *Config, parity Parity) *tarm.Config {
	return &tarm.Config{
		Name:     cfg.PortName,
		Baud:     BaudRate(cfg.BaudRate).Int(),
		Size:     DataBits(cfg.DataBits).Byte(),
		Parity:   parity.Tarm(),
		StopBits: StopBits(cfg.StopBits).Tarm(),
	}
}

func (t *tarmTransport) Name() string { return t.config.Name }

func (t *tarmTransport) Open() (Port, error) {
	if t.verifyPort {
		if err := checkPortAvailable(t.config.Name); err != nil {
			return nil, err
		}
	}
	h, err := openTarm(t.config)
	if err != nil {
		return nil, err
	}
	return tarmPort{h}, nil
}

// tarmPort adapts a tarm port. tarm writes go straight to the file
// descriptor and its Flush discards pending data, so Drain has nothing to do.
type tarmPort struct {
	tarmHandle
}

func (tarmPort) Drain() error { return nil }

func (p tarmPort) Write(b []byte) (int, error) {
	n, err := p.tarmHandle.Write(b)
	return n, wrapClosed(err)
}
