// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jlbarriere/k150prog/pkg/workflow"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert {raw2hex|hex2raw}",
	Short: "Convert between Intel-HEX and raw binary",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if inPath == "" || outPath == "" {
		return fmt.Errorf("-i and -o are both required for convert")
	}

	blank, err := strconv.ParseUint(blankArg, 16, 16)
	if err != nil {
		return fmt.Errorf("--blank: %w", err)
	}

	switch args[0] {
	case "raw2hex":
		lower, _, err := parseRange(rangeArg)
		if err != nil {
			return err
		}
		return workflow.ConvertRawToHex(inPath, outPath, lower, swab)
	case "hex2raw":
		lower, upper, err := parseRange(rangeArg)
		if err != nil {
			return err
		}
		return workflow.ConvertHexToRaw(inPath, outPath, lower, upper, uint16(blank), swab)
	default:
		return fmt.Errorf("convert direction must be raw2hex or hex2raw, got %q", args[0])
	}
}

// parseRange parses a "BEG-END" hex range, requiring END > BEG.
func parseRange(s string) (lower, upper uint32, err error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--range must be BEG-END, got %q", s)
	}
	beg, err := strconv.ParseUint(parts[0], 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("--range start: %w", err)
	}
	end, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("--range end: %w", err)
	}
	if end <= beg {
		return 0, 0, fmt.Errorf("--range end must be greater than start")
	}
	return uint32(beg), uint32(end), nil
}
