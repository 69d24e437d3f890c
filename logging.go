package emitter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// LogConfig controls where and how run output is logged.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File, when set, receives JSON log lines in addition to the console.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	NoColor    bool   `mapstructure:"no_color"`
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		Format:     LogFormatConsole,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the process logger writing to out. The returned closer
// releases the log file, if any.
func NewLogger(cfg LogConfig, out io.Writer) (zerolog.Logger, io.Closer, error) {
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("parsing log level: %w", err)
		}
		level = l
	}

	var console io.Writer
	switch cfg.Format {
	case "", LogFormatConsole:
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: cfg.NoColor}
	case LogFormatJSON:
		console = out
	default:
		return zerolog.Nop(), nil, fmt.Errorf("unknown log format %q (use %s or %s)", cfg.Format, LogFormatConsole, LogFormatJSON)
	}

	var closer io.Closer = nopCloser{}
	w := console
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		w = zerolog.MultiLevelWriter(console, file)
		closer = file
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}
