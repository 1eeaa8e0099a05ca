// SPDX-License-Identifier: GPL-3.0-or-later

package chipdb

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleDB = `CHIPNAME="16F84A"
CHIPID="07"
SOCKETIMAGE="18pin"
ERASEMODE=1
POWERSEQUENCE="vccvpp1"
PROGRAMDELAY=1
PROGRAMTRIES=1
OVERPROGRAM=0
CORETYPE="bit14_a"
ROMSIZE=400
EEPROMSIZE=40
FUSEBLANK=3FFF
INCLUDE=Y
FLASHCHIP=Y
CPWARN=N
CALWORD=N
BANDGAP=N
ICSPONLY=N

CHIPNAME="18F4550"
CHIPID="0e"
SOCKETIMAGE="40pin"
ERASEMODE=2
POWERSEQUENCE="vccfastvpp1"
PROGRAMDELAY=2
PROGRAMTRIES=1
OVERPROGRAM=0
CORETYPE="bit16_a"
ROMSIZE=4000
EEPROMSIZE=100
FUSEBLANK=FF FF FF
FLASHCHIP=Y
ICSPONLY=Y

`

func writeSampleDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "picpro.dat")
	if err := os.WriteFile(path, []byte(sampleDB), 0o644); err != nil {
		t.Fatalf("write db: %v", err)
	}
	return path
}

func TestLoadMatchesRecord(t *testing.T) {
	path := writeSampleDB(t)

	info, err := Load(path, "16f84a")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !info.Valid {
		t.Fatalf("expected Valid=true")
	}
	if info.ChipName != "16F84A" {
		t.Fatalf("ChipName = %q", info.ChipName)
	}
	if info.CoreType != "BIT14_A" {
		t.Fatalf("CoreType = %q", info.CoreType)
	}
	if info.ROMSize != 0x400 {
		t.Fatalf("ROMSize = %#x", info.ROMSize)
	}
	if !info.Include || !info.FlashChip || info.CPWarn {
		t.Fatalf("boolean flags mismatch: %+v", info)
	}
	if len(info.FuseBlank) != 1 || info.FuseBlank[0] != 0x3FFF {
		t.Fatalf("FuseBlank = %v", info.FuseBlank)
	}
}

func TestLoadSecondRecord(t *testing.T) {
	path := writeSampleDB(t)

	info, err := Load(path, "18F4550")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if info.SocketImage != "40PIN" {
		t.Fatalf("SocketImage = %q", info.SocketImage)
	}
	if !info.ICSPOnly {
		t.Fatalf("expected ICSPOnly=true")
	}
	if len(info.FuseBlank) != 3 {
		t.Fatalf("FuseBlank = %v", info.FuseBlank)
	}
}

func TestLoadUnknownChip(t *testing.T) {
	path := writeSampleDB(t)

	if _, err := Load(path, "NOPE"); err == nil {
		t.Fatalf("expected ChipNotFoundError")
	}
}

func TestList(t *testing.T) {
	path := writeSampleDB(t)

	all, err := List(path, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 chips, got %v", all)
	}

	filtered, err := List(path, "18f")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(filtered) != 1 || filtered[0] != "18F4550" {
		t.Fatalf("filtered = %v", filtered)
	}
}
