// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Connect to the programmer and report its identity",
	RunE:  runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	w, err := openWorkflow(portName, chipName)
	if err != nil {
		return err
	}
	if err := w.Connect(ctx); err != nil {
		return err
	}
	defer w.Disconnect()

	p := w.Programmer()
	fmt.Printf("programmer: %s (protocol %s)\n", p.VersionName(), p.Protocol())
	fmt.Printf("chip: %s\n", w.ChipInfo().ChipName)
	return nil
}
