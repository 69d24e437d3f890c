package emitter

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateConfig checks every field of cfg and reports all problems at once.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	var errs []error

	if err := structValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating config: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, fieldError(fe))
		}
	}

	if cfg.PortName != "" && strings.Contains(cfg.PortName, "..") {
		errs = append(errs, fmt.Errorf("invalid port name %q: contains path traversal", cfg.PortName))
	}

	if cfg.BaudRate > 0 && !BaudRate(cfg.BaudRate).Valid() {
		errs = append(errs, fmt.Errorf("invalid baud rate %d, must be one of: %v", cfg.BaudRate, StandardBaudRates))
	}

	if _, err := ParseParity(cfg.Parity); err != nil {
		errs = append(errs, fmt.Errorf("invalid parity value: %w", err))
	}

	if !StopBits(cfg.StopBits).Valid() {
		errs = append(errs, fmt.Errorf("stop bits must be 1, 1.5, or 2, got: %.1f", cfg.StopBits))
	}

	if cfg.Template != "" && !strings.Contains(cfg.Template, Placeholder) {
		errs = append(errs, fmt.Errorf("template %q does not contain the %s placeholder", cfg.Template, Placeholder))
	}

	if cfg.MessageCount > MaxMessageCount {
		errs = append(errs, fmt.Errorf("message count must be at most %d, got: %d", MaxMessageCount, cfg.MessageCount))
	}

	if cfg.StartIndex < 0 {
		errs = append(errs, fmt.Errorf("start index cannot be negative: %d", cfg.StartIndex))
	} else if cfg.MessageCount > 0 && cfg.StartIndex > math.MaxInt-cfg.MessageCount+1 {
		errs = append(errs, fmt.Errorf("start index %d with message count %d overflows the counter", cfg.StartIndex, cfg.MessageCount))
	}

	if cfg.Driver == DriverTarm && (cfg.DTR || cfg.RTS) {
		errs = append(errs, errors.New("dtr/rts control is not supported by the tarm driver"))
	}

	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) error {
	switch fe.Field() {
	case "PortName":
		return errors.New("port name cannot be empty")
	case "DataBits":
		return fmt.Errorf("data bits must be 5-8, got: %v", fe.Value())
	case "BaudRate":
		return fmt.Errorf("invalid baud rate %v, must be one of: %v", fe.Value(), StandardBaudRates)
	case "Driver":
		return fmt.Errorf("unknown driver %q, must be %s or %s", fe.Value(), DriverBugst, DriverTarm)
	case "MessageCount":
		return fmt.Errorf("message count must be at least 1, got: %v", fe.Value())
	case "Template":
		return errors.New("template cannot be empty")
	case "OpenDelay", "WriteTimeout":
		return fmt.Errorf("%s cannot be negative: %v", strings.ToLower(fe.Field()), fe.Value())
	}
	return fmt.Errorf("field %s failed %q validation", fe.Field(), fe.Tag())
}
