package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "emit",
	Short: "Send test lines to a serial device",
	Long: "emit opens a serial port, waits for the device to settle, then writes a fixed number of\n" +
		"carriage-return terminated test lines and reports each write.",
	SilenceUsage: true,
	// with no subcommand, emit behaves like emit run
	RunE: runCmd.RunE,
}

func init() {
	addRunFlags(rootCmd)
	rootCmd.AddCommand(runCmd, portsCmd)
}
