// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"os"

	"github.com/jlbarriere/k150prog/pkg/hexstore"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump {rom|eeprom|config|all|hex}",
	Short: "Read chip memory, or an Intel-HEX file, to stdout or -o",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	region := args[0]

	if region == "hex" {
		if inPath == "" {
			return fmt.Errorf("-i is required for dump hex")
		}
		store := hexstore.New()
		if err := store.Load(inPath); err != nil {
			return err
		}
		store.DumpSegments(os.Stdout)
		return nil
	}

	regions, err := parseRegions(region, true)
	if err != nil {
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

	store := hexstore.New()
	if err := w.Dump(ctx, store, regions); err != nil {
		return err
	}

	if outPath != "" {
		return store.Save(outPath)
	}
	store.DumpSegments(os.Stdout)
	return nil
}
