// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/jlbarriere/k150prog/pkg/hexstore"
	"github.com/jlbarriere/k150prog/pkg/workflow"
	"github.com/spf13/cobra"
)

var dryrunCmd = &cobra.Command{
	Use:   "dryrun {rom|eeprom|config|all}",
	Short: "Show what program would send, without opening the device",
	Args:  cobra.ExactArgs(1),
	RunE:  runDryRun,
}

func init() {
	rootCmd.AddCommand(dryrunCmd)
}

func runDryRun(cmd *cobra.Command, args []string) error {
	regions, err := parseRegions(args[0], true)
	if err != nil {
		return err
	}
	if inPath == "" {
		return fmt.Errorf("-i is required for dryrun")
	}
	if chipName == "" {
		return fmt.Errorf("-t/--chip is required")
	}

	store := hexstore.New()
	if err := store.Load(inPath); err != nil {
		return err
	}

	id, err := decodeID(idHex)
	if err != nil {
		return err
	}

	report, err := workflow.DryRun(dbPath, chipName, store, regions, id)
	if err != nil {
		return err
	}

	if report.ROM != nil {
		fmt.Printf("rom (%d bytes):\n", len(report.ROM))
		dumpBytes(report.ROM)
	}
	if report.EEPROM != nil {
		fmt.Printf("eeprom (%d bytes):\n", len(report.EEPROM))
		dumpBytes(report.EEPROM)
	}
	if report.Fuses != nil {
		fmt.Printf("config id=% X fuses=%04X\n", report.ID, report.Fuses)
	}
	return nil
}

func dumpBytes(data []byte) {
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Printf("  %06X : % X\n", i, data[i:end])
	}
}
