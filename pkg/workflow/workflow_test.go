// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jlbarriere/k150prog/pkg/hexstore"
	"github.com/jlbarriere/k150prog/pkg/transport"
)

const testDB = `CHIPNAME="TEST18F"
CHIPID="0e"
SOCKETIMAGE="0pin"
ERASEMODE=1
POWERSEQUENCE="vccvpp1"
PROGRAMDELAY=1
PROGRAMTRIES=1
OVERPROGRAM=0
CORETYPE="bit16_a"
ROMSIZE=10
EEPROMSIZE=4
FUSEBLANK=FFFF FFFF FFFF FFFF FFFF FFFF FFFF
FLASHCHIP=Y

`

func writeTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "picpro.dat")
	if err := os.WriteFile(path, []byte(testDB), 0o644); err != nil {
		t.Fatalf("write db: %v", err)
	}
	return path
}

func enqueueConnectSequence(tr *transport.Null) {
	tr.Enqueue([]byte{'B', 3})
	tr.Enqueue([]byte{'Q'})
	tr.Enqueue([]byte{'P'})
	tr.Enqueue([]byte("P18A"))
	tr.Enqueue([]byte{'Q'})
}

func newTestWorkflow(t *testing.T) (*Workflow, *transport.Null) {
	t.Helper()
	tr := transport.NewNull()
	enqueueConnectSequence(tr)

	w, err := New(tr, writeTestDB(t), "TEST18F", false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return w, tr
}

func blank(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 0xFF
	}
	return b
}

func enqueueConfigReadout(tr *transport.Null) {
	tr.Enqueue([]byte{'C'})
	tr.Enqueue(blank(26))
}

func TestWorkflowProgramFullSequence(t *testing.T) {
	w, tr := newTestWorkflow(t)

	// enterSession: initialize + voltages on
	tr.Enqueue([]byte{'I'})
	tr.Enqueue([]byte{'V'})

	// all-region erase + cycle
	tr.Enqueue([]byte{'Y'})
	tr.Enqueue([]byte{'V'})

	// programROM: command ack, one 32-byte chunk ack, final 'P'
	tr.Enqueue([]byte{'Y'})
	tr.Enqueue([]byte{'Y'})
	tr.Enqueue([]byte{'P'})

	// programEEPROM: command ack, two byte-pair acks, final 'P'
	tr.Enqueue([]byte{'Y'})
	tr.Enqueue([]byte{'Y'})
	tr.Enqueue([]byte{'Y'})
	tr.Enqueue([]byte{'P'})

	// programCONFIG ack
	tr.Enqueue([]byte{'Y'})

	// readback phase: ROM, EEPROM, CONFIG
	tr.Enqueue(blank(32))
	tr.Enqueue(blank(4))
	enqueueConfigReadout(tr)

	// 16-bit commit + re-verify readback
	tr.Enqueue([]byte{'Y'})
	enqueueConfigReadout(tr)

	// voltages off
	tr.Enqueue([]byte{'v'})

	store := hexstore.New()
	results, err := w.Program(context.Background(), store, Regions{ROM: true, EEPROM: true, Config: true}, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	if err != nil {
		t.Fatalf("Program: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("results = %d entries, want 4 (rom, eeprom, config, config-commit): %+v", len(results), results)
	}
	for _, r := range results {
		if !r.OK {
			t.Fatalf("region %s failed verification", r.Region)
		}
	}
}

func TestWorkflowVerifyDetectsMismatch(t *testing.T) {
	w, tr := newTestWorkflow(t)

	tr.Enqueue([]byte{'I'})
	tr.Enqueue([]byte{'V'})

	mismatched := blank(32)
	mismatched[0] = 0x00
	tr.Enqueue(mismatched)

	tr.Enqueue([]byte{'v'})

	store := hexstore.New()
	results, err := w.Verify(context.Background(), store, Regions{ROM: true})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(results) != 1 || results[0].OK {
		t.Fatalf("results = %+v, want one failing rom result", results)
	}
}

func TestWorkflowIsBlankTrue(t *testing.T) {
	w, tr := newTestWorkflow(t)

	tr.Enqueue([]byte{'I'})
	tr.Enqueue([]byte{'V'})
	tr.Enqueue(blank(32))
	tr.Enqueue([]byte{'v'})

	ok, err := w.IsBlank(context.Background(), "rom")
	if err != nil {
		t.Fatalf("IsBlank: %v", err)
	}
	if !ok {
		t.Fatal("IsBlank(rom) = false, want true for an all-0xFF readback")
	}
}

func TestWorkflowIsBlankRejectsUnknownRegion(t *testing.T) {
	w, tr := newTestWorkflow(t)
	tr.Enqueue([]byte{'I'})
	tr.Enqueue([]byte{'V'})
	tr.Enqueue([]byte{'v'})

	_, err := w.IsBlank(context.Background(), "config")
	if _, ok := err.(*BadArgumentError); !ok {
		t.Fatalf("IsBlank(config) err = %v (%T), want *BadArgumentError", err, err)
	}
}

func TestWorkflowDumpLoadsStore(t *testing.T) {
	w, tr := newTestWorkflow(t)

	tr.Enqueue([]byte{'I'})
	tr.Enqueue([]byte{'V'})
	tr.Enqueue(blank(32))
	tr.Enqueue(blank(4))
	enqueueConfigReadout(tr)
	tr.Enqueue([]byte{'v'})

	store := hexstore.New()
	if err := w.Dump(context.Background(), store, Regions{ROM: true, EEPROM: true, Config: true}); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if len(store.Segments()) == 0 {
		t.Fatal("expected Dump to populate the store")
	}
}

func TestConvertRawToHexRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rawPath := filepath.Join(dir, "in.bin")
	hexPath := filepath.Join(dir, "out.hex")
	rawOutPath := filepath.Join(dir, "out.bin")

	raw := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	if err := os.WriteFile(rawPath, raw, 0o644); err != nil {
		t.Fatalf("write raw: %v", err)
	}

	if err := ConvertRawToHex(rawPath, hexPath, 0x100, false); err != nil {
		t.Fatalf("ConvertRawToHex: %v", err)
	}
	if err := ConvertHexToRaw(hexPath, rawOutPath, 0x100, 0x103, 0xFFFF, false); err != nil {
		t.Fatalf("ConvertHexToRaw: %v", err)
	}

	got, err := os.ReadFile(rawOutPath)
	if err != nil {
		t.Fatalf("read converted raw: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("round-tripped raw = % X, want % X", got, raw)
	}
}
