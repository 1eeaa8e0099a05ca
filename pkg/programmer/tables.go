// SPDX-License-Identifier: GPL-3.0-or-later

package programmer

// coreType describes one entry of the closed CoreType enumeration.
// Tuples are preserved exactly as given by the device firmware's
// command set; do not adjust them to "simplify" memory bases.
type coreType struct {
	name        string
	value       int
	bits        int
	romBase     int
	eepromBase  int
	configBase  int
}

var coreTypeTable = []coreType{
	{"BIT16_C", 0, 16, 0x000000, 0xf00000, 0x300000},
	{"BIT16_A", 1, 16, 0x000000, 0xf00000, 0x300000},
	{"BIT16_B", 2, 16, 0x000000, 0xf00000, 0x300000},
	{"BIT14_G", 3, 14, 0x000000, 0x004200, 0x00400e},
	{"BIT12_A", 4, 12, 0x000000, 0x004200, 0x00400e},
	{"BIT14_A", 5, 14, 0x000000, 0x004200, 0x00400e},
	{"BIT14_B", 6, 14, 0x000000, 0x004200, 0x00400e},
	{"BIT14_C", 7, 14, 0x000000, 0x004200, 0x00400e},
	{"BIT12_B", 8, 14, 0x000000, 0x004200, 0x00400e},
	{"BIT14_E", 9, 14, 0x000000, 0x004200, 0x00400e},
	{"BIT14_F", 10, 14, 0x000000, 0x004200, 0x00400e},
	{"BIT12_C", 11, 12, 0x000000, 0x004200, 0x001ffe},
}

func lookupCoreType(name string) (coreType, error) {
	for _, ct := range coreTypeTable {
		if ct.name == name {
			return ct, nil
		}
	}
	return coreType{}, &UnsupportedCoreTypeError{Name: name}
}

// powerSequence describes one entry of the closed PowerSequence table.
// "Fast" variants share value with their non-fast counterpart and set
// vccVppDelay.
type powerSequence struct {
	name        string
	value       int
	vccVppDelay bool
}

var powerSequenceTable = []powerSequence{
	{"VCC", 0, false},
	{"VCCVPP1", 1, false},
	{"VCCVPP2", 2, false},
	{"VPP1VCC", 3, false},
	{"VPP2VCC", 4, false},
	{"VCCFASTVPP1", 1, true},
	{"VCCFASTVPP2", 2, true},
}

func lookupPowerSequence(name string) (powerSequence, error) {
	for _, ps := range powerSequenceTable {
		if ps.name == name {
			return ps, nil
		}
	}
	return powerSequence{}, &UnsupportedPowerSequenceError{Name: name}
}

// socketHintText maps a socket-image token to a user-facing pin-1
// description string. Unknown tokens yield an empty hint rather than
// an error — the hint is cosmetic only.
var socketHintText = map[string]string{
	"0PIN":   "",
	"8PIN":   "socket pin 13",
	"14PIN":  "socket pin 13",
	"18PIN":  "socket pin 2",
	"28NPIN": "socket pin 1",
	"40PIN":  "socket pin 1",
}
