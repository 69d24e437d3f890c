package emitter

import (
	"fmt"
	"sort"
	"time"
)

const (
	DriverBugst = "bugst"
	DriverTarm  = "tarm"

	// Placeholder is replaced by the message counter when a Template is rendered.
	Placeholder = "{i}"

	// LineTerminator ends every line put on the wire.
	LineTerminator = '\r'

	// MaxMessageCount caps one run; the queue and report are sized to it.
	MaxMessageCount = 100000
)

// Config describes one emission run. The zero value is not usable; start
// from DefaultConfig or LoadConfig.
type Config struct {
	PortName string  `mapstructure:"port_name" validate:"required"`
	BaudRate int     `mapstructure:"baud_rate" validate:"gt=0"`
	DataBits int     `mapstructure:"data_bits" validate:"gte=5,lte=8"`
	Parity   string  `mapstructure:"parity"`
	StopBits float64 `mapstructure:"stop_bits"`
	Driver   string  `mapstructure:"driver" validate:"oneof=bugst tarm"`
	DTR      bool    `mapstructure:"dtr"`
	RTS      bool    `mapstructure:"rts"`

	OpenDelay    time.Duration `mapstructure:"open_delay" validate:"gte=0"`
	MessageCount int           `mapstructure:"message_count" validate:"gte=1"`
	StartIndex   int           `mapstructure:"start_index"`
	Template     string        `mapstructure:"template" validate:"required"`

	// WriteTimeout bounds how long a queued write may wait before it is
	// started. Zero disables the bound.
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	// AwaitWrites makes the loop wait for each write's completion before
	// submitting the next one.
	AwaitWrites bool `mapstructure:"await_writes"`
	// VerifyPort checks that PortName is enumerated by the OS before opening.
	VerifyPort bool `mapstructure:"verify_port"`
}

// Preset is a named message count and template pair.
type Preset struct {
	MessageCount int
	Template     string
}

var presets = map[string]Preset{
	"alarm":  {MessageCount: 3, Template: "ANL1S15 Test Alarm {i}\r"},
	"duress": {MessageCount: 20, Template: "#Duress #Cancelled #Fob {i} #Main Hub\r"},
}

// DefaultConfig matches the alarm script: COM7 at 9600 8N1, two seconds
// after open, three lines.
func DefaultConfig() Config {
	alarm := presets["alarm"]
	return Config{
		PortName:     "COM7",
		BaudRate:     Baud9600.Int(),
		DataBits:     DataBits8.Int(),
		Parity:       string(ParityNone),
		StopBits:     float64(StopBits1),
		Driver:       DriverBugst,
		OpenDelay:    2000 * time.Millisecond,
		MessageCount: alarm.MessageCount,
		StartIndex:   1,
		Template:     alarm.Template,
	}
}

// LookupPreset returns the preset registered under name.
func LookupPreset(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q, must be one of: %v", name, PresetNames())
	}
	return p, nil
}

// PresetNames lists the registered presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Apply overwrites the count and template of cfg.
func (p Preset) Apply(cfg *Config) {
	cfg.MessageCount = p.MessageCount
	cfg.Template = p.Template
}

// LastIndex is the counter value of the final message. ValidateConfig
// guarantees it does not overflow.
func (c *Config) LastIndex() int {
	return c.StartIndex + c.MessageCount - 1
}
