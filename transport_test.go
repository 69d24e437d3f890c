package emitter

import (
	"errors"
	"fmt"
	"os"
	"testing"

	tarm "github.com/tarm/serial"
	gobug "go.bug.st/serial"
)

func TestNewTransportBugstMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaudRate = 19200
	cfg.DataBits = 7
	cfg.Parity = "E"
	cfg.StopBits = 2
	cfg.DTR = true

	tr, err := NewTransport(&cfg)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	bt, ok := tr.(*bugstTransport)
	if !ok {
		t.Fatalf("expected *bugstTransport, got %T", tr)
	}
	if bt.mode.BaudRate != 19200 || bt.mode.DataBits != 7 {
		t.Fatalf("unexpected mode %+v", bt.mode)
	}
	if bt.mode.Parity != gobug.EvenParity || bt.mode.StopBits != gobug.TwoStopBits {
		t.Fatalf("unexpected framing %+v", bt.mode)
	}
	if !bt.dtr || bt.rts {
		t.Fatalf("expected dtr=true rts=false, got %v/%v", bt.dtr, bt.rts)
	}
	if tr.Name() != "COM7" {
		t.Fatalf("expected name COM7, got %q", tr.Name())
	}
}

func TestNewTransportTarmConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Driver = DriverTarm
	cfg.PortName = "/dev/ttyUSB0"
	cfg.Parity = "odd"
	cfg.StopBits = 1.5

	tr, err := NewTransport(&cfg)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	tt, ok := tr.(*tarmTransport)
	if !ok {
		t.Fatalf("expected *tarmTransport, got %T", tr)
	}
	c := tt.config
	if c.Name != "/dev/ttyUSB0" || c.Baud != 9600 || c.Size != 8 {
		t.Fatalf("unexpected config %+v", c)
	}
	if c.Parity != tarm.ParityOdd || c.StopBits != tarm.Stop1Half {
		t.Fatalf("unexpected framing %+v", c)
	}
}

func TestNewTransportRejectsUnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Driver = "usb"
	if _, err := NewTransport(&cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}

	cfg = DefaultConfig()
	cfg.Parity = "Q"
	if _, err := NewTransport(&cfg); err == nil {
		t.Fatal("expected error for bad parity")
	}
}

func TestBugstOpenSetsControlLines(t *testing.T) {
	h := &mockBugstHandle{}
	var gotName string
	var gotMode *gobug.Mode

	cfg := DefaultConfig()
	cfg.RTS = true
	tr, _ := NewTransport(&cfg)

	withPortsAndOpen(nil, func(name string, mode *gobug.Mode) (bugstHandle, error) {
		gotName, gotMode = name, mode
		return h, nil
	}, func() {
		p, err := tr.Open()
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		bp, ok := p.(bugstPort)
		if !ok || bp.bugstHandle != bugstHandle(h) {
			t.Fatalf("expected the opened handle wrapped as the port, got %T", p)
		}
	})

	if gotName != "COM7" || gotMode.BaudRate != 9600 {
		t.Fatalf("unexpected open arguments %q %+v", gotName, gotMode)
	}
	if h.dtr || !h.rts {
		t.Fatalf("expected dtr=false rts=true, got %v/%v", h.dtr, h.rts)
	}
}

func TestBugstOpenClosesHandleWhenDTRFails(t *testing.T) {
	h := &mockBugstHandle{dtrErr: errBoom}
	cfg := DefaultConfig()
	tr, _ := NewTransport(&cfg)

	withPortsAndOpen(nil, func(string, *gobug.Mode) (bugstHandle, error) { return h, nil }, func() {
		_, err := tr.Open()
		if !errors.Is(err, errBoom) {
			t.Fatalf("expected DTR error, got %v", err)
		}
	})
	if !h.closed {
		t.Fatal("expected handle to be closed after SetDTR failure")
	}
}

func TestBugstWriteOnClosedHandleIsErrClosed(t *testing.T) {
	h := &mockBugstHandle{writeErr: fmt.Errorf("write /dev/ttyUSB0: %w", os.ErrClosed)}
	cfg := DefaultConfig()
	tr, _ := NewTransport(&cfg)

	withPortsAndOpen(nil, func(string, *gobug.Mode) (bugstHandle, error) { return h, nil }, func() {
		p, err := tr.Open()
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		_, err = p.Write([]byte("x\r"))
		if !errors.Is(err, ErrClosed) || !errors.Is(err, os.ErrClosed) {
			t.Fatalf("expected ErrClosed wrapping os.ErrClosed, got %v", err)
		}
		if !isTransportFault(err) {
			t.Fatal("closed port write must be a transport fault")
		}
	})
}

func TestBugstOpenError(t *testing.T) {
	cfg := DefaultConfig()
	tr, _ := NewTransport(&cfg)

	withPortsAndOpen(nil, func(string, *gobug.Mode) (bugstHandle, error) { return nil, errBoom }, func() {
		if _, err := tr.Open(); !errors.Is(err, errBoom) {
			t.Fatalf("expected open error, got %v", err)
		}
	})
}

func TestBugstOpenVerifiesPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VerifyPort = true
	tr, _ := NewTransport(&cfg)

	opened := false
	list := func() ([]string, error) { return []string{"COM1", "COM3"}, nil }
	open := func(string, *gobug.Mode) (bugstHandle, error) {
		opened = true
		return &mockBugstHandle{}, nil
	}

	withPortsAndOpen(list, open, func() {
		if _, err := tr.Open(); !errors.Is(err, ErrInvalidPortName) {
			t.Fatalf("expected ErrInvalidPortName, got %v", err)
		}
	})
	if opened {
		t.Fatal("port must not be opened when it is not listed")
	}

	list = func() ([]string, error) { return []string{"COM7"}, nil }
	withPortsAndOpen(list, open, func() {
		if _, err := tr.Open(); err != nil {
			t.Fatalf("Open: %v", err)
		}
	})
	if !opened {
		t.Fatal("expected listed port to be opened")
	}
}

func TestTarmOpen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Driver = DriverTarm
	tr, _ := NewTransport(&cfg)

	mp := newMockPort()
	var got *tarm.Config
	orig := openTarm
	openTarm = func(c *tarm.Config) (tarmHandle, error) {
		got = c
		return mp, nil
	}
	defer func() { openTarm = orig }()

	p, err := tr.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got.Name != "COM7" {
		t.Fatalf("expected COM7, got %q", got.Name)
	}
	if _, err := p.Write([]byte("x\r")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := p.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if mp.drains != 0 {
		t.Fatal("tarm drain must not reach the underlying port")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if mp.closeCount() != 1 {
		t.Fatal("expected underlying port to be closed")
	}

	mp.failOn[2] = &os.PathError{Op: "write", Path: "COM7", Err: os.ErrClosed}
	if _, err := p.Write([]byte("y\r")); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
}

func TestAvailablePorts(t *testing.T) {
	withPortsAndOpen(func() ([]string, error) { return []string{"/dev/ttyUSB0"}, nil }, openBugst, func() {
		ports, err := AvailablePorts()
		if err != nil {
			t.Fatalf("AvailablePorts: %v", err)
		}
		if len(ports) != 1 || ports[0] != "/dev/ttyUSB0" {
			t.Fatalf("unexpected ports %v", ports)
		}
	})

	withPortsAndOpen(func() ([]string, error) { return nil, errBoom }, openBugst, func() {
		if _, err := AvailablePorts(); !errors.Is(err, errBoom) {
			t.Fatalf("expected list error, got %v", err)
		}
	})
}
