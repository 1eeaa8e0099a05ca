// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var isblankCmd = &cobra.Command{
	Use:   "isblank {rom|eeprom}",
	Short: "Check whether a region reads back blank",
	Args:  cobra.ExactArgs(1),
	RunE:  runIsBlank,
}

func init() {
	rootCmd.AddCommand(isblankCmd)
}

func runIsBlank(cmd *cobra.Command, args []string) error {
	region := args[0]
	if region != "rom" && region != "eeprom" {
		return fmt.Errorf("isblank region must be rom or eeprom, got %q", region)
	}

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

	blank, err := w.IsBlank(ctx, region)
	if err != nil {
		return err
	}
	if blank {
		fmt.Printf("%s: blank\n", region)
		return nil
	}
	fmt.Printf("%s: not blank\n", region)
	return fmt.Errorf("%s is not blank", region)
}
