// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/jlbarriere/k150prog/pkg/hexstore"
	"github.com/spf13/cobra"
)

var programCmd = &cobra.Command{
	Use:   "program {rom|eeprom|config|all}",
	Short: "Program the chip from -i",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgram,
}

func init() {
	rootCmd.AddCommand(programCmd)
}

func runProgram(cmd *cobra.Command, args []string) error {
	regions, err := parseRegions(args[0], true)
	if err != nil {
		return err
	}
	if inPath == "" {
		return fmt.Errorf("-i is required for program")
	}

	id, err := decodeID(idHex)
	if err != nil {
		return err
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

	results, err := w.Program(ctx, store, regions, id)
	if err != nil {
		return err
	}
	return reportResults(results)
}

// decodeID parses the --id flag (an even-length 2-16 char hex string)
// into raw bytes; an empty flag yields a nil (all-zero-padded) ID.
func decodeID(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if len(s)%2 != 0 || len(s) < 2 || len(s) > 16 {
		return nil, fmt.Errorf("--id must be an even-length hex string between 2 and 16 characters")
	}
	return hex.DecodeString(s)
}
