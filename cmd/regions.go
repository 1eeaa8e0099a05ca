// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/jlbarriere/k150prog/pkg/workflow"
)

// reportResults prints each region's pass/fail outcome and returns an
// error if any region failed, so the CLI exits non-zero.
func reportResults(results []workflow.RegionResult) error {
	failed := false
	for _, r := range results {
		status := "ok"
		if !r.OK {
			status = "FAILED"
			failed = true
		}
		fmt.Printf("%s: %s\n", r.Region, status)
	}
	if failed {
		return fmt.Errorf("verification failed")
	}
	return nil
}

// parseRegions maps a region argument (rom, eeprom, config, or all) to
// the Regions selector the workflow package expects. Comma-separated
// combinations are not accepted.
func parseRegions(arg string, allowConfig bool) (workflow.Regions, error) {
	switch arg {
	case "all":
		return workflow.Regions{ROM: true, EEPROM: true, Config: allowConfig}, nil
	case "rom":
		return workflow.Regions{ROM: true}, nil
	case "eeprom":
		return workflow.Regions{EEPROM: true}, nil
	case "config":
		if !allowConfig {
			return workflow.Regions{}, fmt.Errorf("config is not a valid region for this command")
		}
		return workflow.Regions{Config: true}, nil
	default:
		return workflow.Regions{}, fmt.Errorf("unknown region %q", arg)
	}
}
