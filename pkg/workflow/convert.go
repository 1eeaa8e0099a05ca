// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

import (
	"os"

	"github.com/jlbarriere/k150prog/pkg/hexstore"
)

// ConvertRawToHex loads a raw binary file at base and writes it out as
// Intel-HEX. swab byte-swaps every word before storage.
func ConvertRawToHex(rawPath, hexPath string, base uint32, swab bool) error {
	data, err := os.ReadFile(rawPath)
	if err != nil {
		return &hexstore.IOError{Op: "open", Path: rawPath, Err: err}
	}
	store := hexstore.New()
	if err := store.LoadRAW(base, data, swab); err != nil {
		return err
	}
	return store.Save(hexPath)
}

// ConvertHexToRaw loads an Intel-HEX file and writes the inclusive
// [lower, upper] byte range out as a raw binary file, blank-filling any
// gap with blank and byte-swapping every word when swab is set.
func ConvertHexToRaw(hexPath, rawPath string, lower, upper uint32, blank uint16, swab bool) error {
	store := hexstore.New()
	if err := store.Load(hexPath); err != nil {
		return err
	}
	if upper < lower {
		return &BadArgumentError{Msg: "range end must not precede range start"}
	}
	wordCount := int((upper-lower)/2) + 1
	data, err := store.RangeOfData(lower, wordCount, blank, swab)
	if err != nil {
		return err
	}
	if err := os.WriteFile(rawPath, data, 0o644); err != nil {
		return &hexstore.IOError{Op: "create", Path: rawPath, Err: err}
	}
	return nil
}
