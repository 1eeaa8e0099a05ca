// SPDX-License-Identifier: GPL-3.0-or-later

package programmer

import "github.com/jlbarriere/k150prog/pkg/chipdb"

// Properties is the programmer's resolved view of a target chip,
// derived from a chipdb.ChipInfo via the static CoreType/PowerSequence/
// SocketHint tables. Immutable for the duration of a workflow call.
type Properties struct {
	SocketHint   string
	ROMBase      int
	ROMSize      int
	ROMBlank     uint16
	EEPROMBase   int
	EEPROMSize   int
	CoreType     int
	CoreBits     int
	ProgramDelay int
	PowerSequence int
	EraseMode    int
	ProgramTries int
	OverProgram  int
	ConfigBase   int
	PanelSizing  int
	FuseBlank    []uint16

	FlagCalibrationValueInROM   bool
	FlagBandGapFuse             bool
	Flag18FSinglePanelAccessMode bool
	FlagVccVppDelay             bool
	FlagFlashChip               bool
}

// Configure derives Properties from a resolved ChipInfo, rejecting
// unsupported core types and power sequences.
func Configure(info *chipdb.ChipInfo) (*Properties, error) {
	ct, err := lookupCoreType(info.CoreType)
	if err != nil {
		return nil, err
	}
	ps, err := lookupPowerSequence(info.PowerSequence)
	if err != nil {
		return nil, err
	}

	var hint string
	if !info.ICSPOnly {
		hint = socketHintText[info.SocketImage]
	}

	p := &Properties{
		SocketHint:   hint,
		ROMBase:      ct.romBase,
		ROMSize:      info.ROMSize,
		ROMBlank:     romBlank(ct.bits),
		EEPROMBase:   ct.eepromBase,
		EEPROMSize:   info.EEPROMSize,
		CoreType:     ct.value,
		CoreBits:     ct.bits,
		ProgramDelay: info.ProgramDelay,
		PowerSequence: ps.value,
		EraseMode:    info.EraseMode,
		ProgramTries: info.ProgramTries,
		OverProgram:  info.OverProgram,
		ConfigBase:   ct.configBase,
		PanelSizing:  info.PanelSizing,
		FuseBlank:    append([]uint16(nil), info.FuseBlank...),

		FlagCalibrationValueInROM:   info.CalWord,
		FlagBandGapFuse:             info.BandGap,
		Flag18FSinglePanelAccessMode: ct.value == 1,
		FlagVccVppDelay:             ps.vccVppDelay,
		FlagFlashChip:               info.FlashChip,
	}
	return p, nil
}

// romBlank is the value of an erased program-memory word: (1<<bits)-1.
func romBlank(bits int) uint16 {
	return ^(uint16(0xFFFF) << uint(bits))
}
