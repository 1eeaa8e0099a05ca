// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	portName string
	chipName string
	inPath   string
	outPath  string
	dbPath   string
	icsp     bool
	swab     bool
	idHex    string
	rangeArg string
	blankArg string
	debug    bool
)

var rootCmd = &cobra.Command{
	Use:     "k150prog",
	Short:   "K150 PIC programmer driver",
	Version: "1.0.0",
	Long: `k150prog drives a K150-family serial PIC programmer over the P18A
protocol: list supported chips, program and verify ROM/EEPROM/config
fuses, blank-check a chip, and convert between Intel-HEX and raw
binary images.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", defaultEnv("K150PROG_PORT", "/dev/ttyUSB0"), "serial port device")
	rootCmd.PersistentFlags().StringVarP(&chipName, "chip", "t", "", "target chip name, as listed by the list command")
	rootCmd.PersistentFlags().StringVarP(&inPath, "input", "i", "", "input Intel-HEX (or raw, for convert) file")
	rootCmd.PersistentFlags().StringVarP(&outPath, "output", "o", "", "output Intel-HEX (or raw, for convert) file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", defaultEnv("K150PROG_DB", "picpro.dat"), "chip database path")
	rootCmd.PersistentFlags().BoolVar(&icsp, "icsp", false, "use in-circuit serial programming power sequencing")
	rootCmd.PersistentFlags().BoolVar(&swab, "swab", false, "byte-swap each word during conversion")
	rootCmd.PersistentFlags().StringVar(&idHex, "id", "", "chip ID to program, as an even-length hex string (2-16 chars)")
	rootCmd.PersistentFlags().StringVar(&rangeArg, "range", "", "address range for convert, as BEG-END (hex, inclusive)")
	rootCmd.PersistentFlags().StringVar(&blankArg, "blank", "FFFF", "fill value for gaps during convert, as a hex word")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log the raw command/response byte stream")
	rootCmd.Flags().BoolP("version", "v", false, "print the version number")
}

func defaultEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
