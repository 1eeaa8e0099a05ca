// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/jlbarriere/k150prog/pkg/hexstore"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify {rom|eeprom|all}",
	Short: "Read back the chip and compare against -i",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	regions, err := parseRegions(args[0], false)
	if err != nil {
		return err
	}
	if inPath == "" {
		return fmt.Errorf("-i is required for verify")
	}

	store := hexstore.New()
	if err := store.Load(inPath); err != nil {
		return err
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

	results, err := w.Verify(ctx, store, regions)
	if err != nil {
		return err
	}
	return reportResults(results)
}
