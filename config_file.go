package emitter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. EMIT_PORT_NAME.
const EnvPrefix = "EMIT"

// Settings is the full file/env/flag configuration of the emit command.
type Settings struct {
	Config `mapstructure:",squash"`
	Log    LogConfig `mapstructure:"log"`
}

// LoadOptions selects the configuration sources for LoadConfig.
type LoadOptions struct {
	// Path is an explicit config file. When empty, emit.{yaml,json,toml} is
	// looked up in the working directory; a missing file is not an error.
	Path string
	// Preset names a message preset applied below file, env and flags.
	Preset string
	// Flags whose names match a key (dashes for underscores) override everything.
	Flags *pflag.FlagSet
}

// LoadConfig layers defaults, preset, config file, EMIT_* environment
// and changed flags, in that order, and validates the result.
func LoadConfig(opts LoadOptions) (*Settings, error) {
	v := viper.New()

	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
	} else {
		v.SetConfigName("emit")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	if opts.Preset != "" {
		p, err := LookupPreset(opts.Preset)
		if err != nil {
			return nil, err
		}
		p.Apply(&defaults)
	}
	setDefaults(v, defaults, DefaultLogConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.Path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if opts.Flags != nil {
		var bindErr error
		opts.Flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if strings.HasPrefix(key, "log_") {
				key = "log." + strings.TrimPrefix(key, "log_")
			}
			if !v.IsSet(key) {
				return
			}
			if err := v.BindPFlag(key, f); err != nil {
				bindErr = errors.Join(bindErr, err)
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("binding flags: %w", bindErr)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// flags and env cannot carry a raw carriage return
	s.Template = strings.ReplaceAll(s.Template, `\r`, "\r")

	if err := ValidateConfig(&s.Config); err != nil {
		return nil, err
	}
	return s, nil
}

func setDefaults(v *viper.Viper, c Config, l LogConfig) {
	set := v.SetDefault

	set("port_name", c.PortName)
	set("baud_rate", c.BaudRate)
	set("data_bits", c.DataBits)
	set("parity", c.Parity)
	set("stop_bits", c.StopBits)
	set("driver", c.Driver)
	set("dtr", c.DTR)
	set("rts", c.RTS)
	set("open_delay", c.OpenDelay)
	set("message_count", c.MessageCount)
	set("start_index", c.StartIndex)
	set("template", c.Template)
	set("write_timeout", c.WriteTimeout)
	set("await_writes", c.AwaitWrites)
	set("verify_port", c.VerifyPort)

	set("log.level", l.Level)
	set("log.format", l.Format)
	set("log.file", l.File)
	set("log.max_size_mb", l.MaxSizeMB)
	set("log.max_backups", l.MaxBackups)
	set("log.max_age_days", l.MaxAgeDays)
	set("log.compress", l.Compress)
	set("log.no_color", l.NoColor)
}
