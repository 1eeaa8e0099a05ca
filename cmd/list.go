// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/jlbarriere/k150prog/pkg/chipdb"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [all|substring]",
	Short: "List chips known to the chip database",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	filter := ""
	if len(args) == 1 && args[0] != "all" {
		filter = args[0]
	}

	names, err := chipdb.List(dbPath, filter)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
