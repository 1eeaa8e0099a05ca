// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase the whole chip",
	RunE:  runErase,
}

func init() {
	rootCmd.AddCommand(eraseCmd)
}

func runErase(cmd *cobra.Command, args []string) error {
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

	if err := w.Erase(ctx); err != nil {
		return err
	}
	fmt.Println("erase: ok")
	return nil
}
