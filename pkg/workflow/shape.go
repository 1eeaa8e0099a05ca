// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

import (
	"github.com/jlbarriere/k150prog/pkg/hexstore"
	"github.com/jlbarriere/k150prog/pkg/programmer"
)

// romBytes extracts the ROM image in wire order. The chip stores ROM
// words little-endian, hence swap=true.
func romBytes(store *hexstore.HexStore, props *programmer.Properties) ([]byte, error) {
	return store.RangeOfData(uint32(props.ROMBase), props.ROMSize, props.ROMBlank, true)
}

// eepromBytes extracts the EEPROM image, collapsing each word to its
// low byte on 12/14-bit cores (those devices address EEPROM one byte
// per word) and leaving 16-bit-core EEPROM as packed bytes.
func eepromBytes(store *hexstore.HexStore, props *programmer.Properties) ([]byte, error) {
	if props.CoreBits == 16 {
		return store.RangeOfData(uint32(props.EEPROMBase), props.EEPROMSize/2, 0xFFFF, false)
	}

	words, err := store.RangeOfData(uint32(props.EEPROMBase), props.EEPROMSize, 0xFFFF, false)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(words)/2)
	for i := 0; i+1 < len(words); i += 2 {
		out = append(out, words[i])
	}
	return out, nil
}

// fuseWords starts from the chip database's blank fuse defaults and
// substitutes only the first fuse word with what's extracted from the
// hex data (the device ID location overlaps fuse 0 on many families,
// so fuse 0 must come from the hex image while the rest default).
func fuseWords(store *hexstore.HexStore, props *programmer.Properties) ([]uint16, error) {
	n := len(props.FuseBlank)
	data, err := store.RangeOfData(uint32(props.ConfigBase), n, props.ROMBlank, true)
	if err != nil {
		return nil, err
	}
	fuses := append([]uint16(nil), props.FuseBlank...)
	if n > 0 {
		fuses[0] = uint16(data[0]) | uint16(data[1])<<8
	}
	return fuses, nil
}

// blankROM returns a synthetic, fully-blank ROM image shaped exactly
// like romBytes, for use by the isblank scenario's readback compare.
func blankROM(props *programmer.Properties) ([]byte, error) {
	return romBytes(hexstore.New(), props)
}

// blankEEPROM is the blankROM counterpart for EEPROM.
func blankEEPROM(props *programmer.Properties) ([]byte, error) {
	return eepromBytes(hexstore.New(), props)
}

// fusesToBytes re-serializes fuse words to little-endian wire bytes,
// the form LoadRAW with swap=true expects so a later swap=true
// RangeOfData extraction reproduces the same word values.
func fusesToBytes(fuses []uint16) []byte {
	out := make([]byte, 2*len(fuses))
	for i, f := range fuses {
		out[2*i], out[2*i+1] = byte(f), byte(f>>8)
	}
	return out
}
