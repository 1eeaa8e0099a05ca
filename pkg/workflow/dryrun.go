// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

import (
	"github.com/jlbarriere/k150prog/pkg/chipdb"
	"github.com/jlbarriere/k150prog/pkg/hexstore"
	"github.com/jlbarriere/k150prog/pkg/programmer"
)

// DryRunReport is the data Program would send, shaped exactly as
// Program shapes it, without ever opening a transport. This mirrors
// the reference implementation's dry-run path, which prints the
// shaped image straight from the hex file and never touches the
// device.
type DryRunReport struct {
	ROM    []byte
	EEPROM []byte
	Fuses  []uint16
	ID     []byte
}

// DryRun resolves chipName against the chip database and shapes the
// selected regions of store the same way Program would, for display.
func DryRun(dbPath, chipName string, store *hexstore.HexStore, regions Regions, id []byte) (*DryRunReport, error) {
	info, err := chipdb.Load(dbPath, chipName)
	if err != nil {
		return nil, err
	}
	props, err := programmer.Configure(info)
	if err != nil {
		return nil, err
	}

	report := &DryRunReport{ID: id}
	if regions.ROM {
		report.ROM, err = romBytes(store, props)
		if err != nil {
			return nil, err
		}
	}
	if regions.EEPROM {
		report.EEPROM, err = eepromBytes(store, props)
		if err != nil {
			return nil, err
		}
	}
	if regions.Config {
		report.Fuses, err = fuseWords(store, props)
		if err != nil {
			return nil, err
		}
	}
	return report, nil
}
