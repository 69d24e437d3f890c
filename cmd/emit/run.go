package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Station-Manager/emitter"
)

var (
	runOpts = struct {
		config      string
		preset      string
		failOnError bool
	}{}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Open the port and send the configured lines",
		Example: "  emit run --port-name COM7 --preset alarm\n" +
			"  emit run --port-name /dev/ttyUSB0 --preset duress --open-delay 500ms",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := emitter.LoadConfig(emitter.LoadOptions{
				Path:   runOpts.config,
				Preset: runOpts.preset,
				Flags:  cmd.Flags(),
			})
			if err != nil {
				return err
			}

			logger, closer, err := emitter.NewLogger(settings.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			e, err := emitter.New(settings.Config, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := e.Run(ctx)
			if err != nil && errors.Is(err, context.Canceled) {
				logger.Warn().Msg("interrupted")
			}
			if runOpts.failOnError && report != nil && report.HasFailures() {
				return fmt.Errorf("run %s: %d sent, %d failed, %d transport errors",
					report.RunID, report.Sent, report.Failed, report.TransportErrors)
			}
			// failures are already logged; exit status stays zero unless asked
			return nil
		},
	}
)

func init() {
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	d := emitter.DefaultConfig()
	l := emitter.DefaultLogConfig()
	f := cmd.Flags()

	f.StringVarP(&runOpts.config, "config", "c", "", "config file (yaml, json or toml); default ./emit.*")
	f.StringVar(&runOpts.preset, "preset", "", "message preset: "+strings.Join(emitter.PresetNames(), ", "))
	f.BoolVar(&runOpts.failOnError, "fail-on-error", false, "exit non-zero when any open, write or transport error occurs")

	f.StringP("port-name", "p", d.PortName, "serial device, e.g. COM7 or /dev/ttyUSB0")
	f.IntP("baud-rate", "b", d.BaudRate, "baud rate")
	f.Int("data-bits", d.DataBits, "data bits (5-8)")
	f.String("parity", d.Parity, "parity (N, O, E, M, S)")
	f.Float64("stop-bits", d.StopBits, "stop bits (1, 1.5, 2)")
	f.String("driver", d.Driver, "serial backend: bugst or tarm")
	f.Bool("dtr", d.DTR, "assert DTR after open (bugst only)")
	f.Bool("rts", d.RTS, "assert RTS after open (bugst only)")
	f.Duration("open-delay", d.OpenDelay, "wait between open and the first write")
	f.IntP("message-count", "n", d.MessageCount, "number of lines to send")
	f.Int("start-index", d.StartIndex, "counter value of the first line")
	f.StringP("template", "t", d.Template, `line template; {i} is replaced by the counter, \r is appended if missing`)
	f.Duration("write-timeout", d.WriteTimeout, "fail a queued write that has not started within this time (0 = never)")
	f.Bool("await-writes", d.AwaitWrites, "wait for each write to complete before sending the next")
	f.Bool("verify-port", d.VerifyPort, "check the port is enumerated before opening it")

	f.String("log-level", l.Level, "log level: debug, info, warn, error")
	f.String("log-format", l.Format, "console or json")
	f.String("log-file", l.File, "also write JSON logs to this rotating file")
	f.Bool("log-no-color", l.NoColor, "disable colored console output")
}
