package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Station-Manager/emitter"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports known to the OS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := emitter.AvailablePorts()
		if err != nil {
			return fmt.Errorf("listing ports: %w", err)
		}
		if len(ports) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "no serial ports found")
			return nil
		}
		for _, p := range ports {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}
