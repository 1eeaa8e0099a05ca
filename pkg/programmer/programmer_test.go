// SPDX-License-Identifier: GPL-3.0-or-later

package programmer

import (
	"testing"

	"github.com/jlbarriere/k150prog/pkg/chipdb"
	"github.com/jlbarriere/k150prog/pkg/transport"
)

func newConnected(t *testing.T) (*Programmer, *transport.Null) {
	t.Helper()
	tr := transport.NewNull()
	tr.Enqueue([]byte{'B', 3})
	tr.Enqueue([]byte{'Q'})
	tr.Enqueue([]byte{'P'})
	tr.Enqueue([]byte("P18A"))
	tr.Enqueue([]byte{'Q'})

	p := New(tr)
	if err := p.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if p.VersionName() != "K150" {
		t.Fatalf("VersionName = %q, want K150", p.VersionName())
	}
	if p.Protocol() != "P18A" {
		t.Fatalf("Protocol = %q, want P18A", p.Protocol())
	}
	return p, tr
}

func sample18FInfo() *chipdb.ChipInfo {
	return &chipdb.ChipInfo{
		Valid:         true,
		ChipName:      "18F4550",
		SocketImage:   "40-DIP-1",
		CoreType:      "BIT16_A",
		PowerSequence: "VCCVPP2",
		ROMSize:       0x4000,
		EEPROMSize:    0x100,
		FuseBlank:     []uint16{0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF},
		ProgramDelay:  2,
		ProgramTries:  1,
		EraseMode:     3,
	}
}

func TestConnectHandshake(t *testing.T) {
	p, tr := newConnected(t)
	if p.state != stateIdle {
		t.Fatalf("state after connect = %v, want stateIdle", p.state)
	}
	if len(tr.Written) == 0 {
		t.Fatal("expected at least one write during connect")
	}
}

func TestConnectRejectsBadProtocol(t *testing.T) {
	tr := transport.NewNull()
	tr.Enqueue([]byte{'B', 3})
	tr.Enqueue([]byte{'Q'})
	tr.Enqueue([]byte{'P'})
	tr.Enqueue([]byte("XXXX"))

	p := New(tr)
	err := p.Connect()
	if _, ok := err.(*ProtocolMismatchError); !ok {
		t.Fatalf("Connect err = %v (%T), want *ProtocolMismatchError", err, err)
	}
}

func TestSetProgrammingVoltages(t *testing.T) {
	p, tr := newConnected(t)
	if err := p.Configure(sample18FInfo()); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	tr.Enqueue([]byte{'V'})
	if err := p.SetProgrammingVoltages(true); err != nil {
		t.Fatalf("SetProgrammingVoltages(true): %v", err)
	}
	if !p.VPPEnabled() {
		t.Fatal("VPPEnabled() = false after enabling")
	}

	tr.Enqueue([]byte{'v'})
	if err := p.SetProgrammingVoltages(false); err != nil {
		t.Fatalf("SetProgrammingVoltages(false): %v", err)
	}
	if p.VPPEnabled() {
		t.Fatal("VPPEnabled() = true after disabling")
	}
}

func TestProgramROMRejectsBeforeVoltagesEnabled(t *testing.T) {
	p, _ := newConnected(t)
	if err := p.Configure(sample18FInfo()); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	err := p.ProgramROM(make([]byte, 32))
	if _, ok := err.(*VoltageNotEnabledError); !ok {
		t.Fatalf("ProgramROM err = %v (%T), want *VoltageNotEnabledError", err, err)
	}
}

func TestProgramROMStreamsChunks(t *testing.T) {
	p, tr := newConnected(t)
	if err := p.Configure(sample18FInfo()); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	tr.Enqueue([]byte{'V'})
	if err := p.SetProgrammingVoltages(true); err != nil {
		t.Fatalf("SetProgrammingVoltages: %v", err)
	}

	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i)
	}

	tr.Enqueue([]byte{'Y'})
	tr.Enqueue([]byte{'Y'})
	tr.Enqueue([]byte{'Y'})
	tr.Enqueue([]byte{'P'})

	var progressCalls int
	p.cfg.progress = func(done, total int) { progressCalls++ }

	// count only the writes ProgramROM itself makes
	tr.Written = nil
	if err := p.ProgramROM(data); err != nil {
		t.Fatalf("ProgramROM: %v", err)
	}
	if progressCalls != 2 {
		t.Fatalf("progress callback fired %d times, want 2", progressCalls)
	}

	// command byte + 2-byte word count, then two 32-byte chunks
	if len(tr.Written) != 3 {
		t.Fatalf("writes = %d, want 3", len(tr.Written))
	}
	if tr.Written[0][0] != 7 {
		t.Fatalf("command byte = %d, want 7", tr.Written[0][0])
	}
	if len(tr.Written[1]) != 32 || len(tr.Written[2]) != 32 {
		t.Fatalf("chunk lengths = %d, %d, want 32, 32", len(tr.Written[1]), len(tr.Written[2]))
	}
}

func TestProgramROMRejectsOddChunking(t *testing.T) {
	p, tr := newConnected(t)
	if err := p.Configure(sample18FInfo()); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	tr.Enqueue([]byte{'V'})
	if err := p.SetProgrammingVoltages(true); err != nil {
		t.Fatalf("SetProgrammingVoltages: %v", err)
	}

	err := p.ProgramROM(make([]byte, 33))
	if _, ok := err.(*SizeViolationError); !ok {
		t.Fatalf("ProgramROM err = %v (%T), want *SizeViolationError", err, err)
	}
}

func TestEraseChipRejectsBadReply(t *testing.T) {
	p, tr := newConnected(t)
	tr.Enqueue([]byte{'N'})
	err := p.EraseChip()
	if _, ok := err.(*UnexpectedReplyError); !ok {
		t.Fatalf("EraseChip err = %v (%T), want *UnexpectedReplyError", err, err)
	}
}

func TestIsBlankROMPollsUntilSettled(t *testing.T) {
	p, tr := newConnected(t)
	if err := p.Configure(sample18FInfo()); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	p.cfg.pollInterval = 0

	tr.Enqueue([]byte{'B'})
	tr.Enqueue([]byte{'B'})
	tr.Enqueue([]byte{'Y'})

	blank, err := p.IsBlankROM()
	if err != nil {
		t.Fatalf("IsBlankROM: %v", err)
	}
	if !blank {
		t.Fatal("IsBlankROM() = false, want true")
	}
}

func TestProgramCONFIG16BitFraming(t *testing.T) {
	p, tr := newConnected(t)
	if err := p.Configure(sample18FInfo()); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	tr.Enqueue([]byte{'V'})
	if err := p.SetProgrammingVoltages(true); err != nil {
		t.Fatalf("SetProgrammingVoltages: %v", err)
	}

	tr.Enqueue([]byte{'Y'})
	id := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	fuses := []uint16{0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF}
	if err := p.ProgramCONFIG(id, fuses); err != nil {
		t.Fatalf("ProgramCONFIG: %v", err)
	}

	sent := tr.Written[len(tr.Written)-1]
	wantLen := 1 + 2 + 8 + 2*7
	if len(sent) != wantLen {
		t.Fatalf("programCONFIG payload length = %d, want %d", len(sent), wantLen)
	}
	if sent[0] != 9 || sent[1] != '0' || sent[2] != '0' {
		t.Fatalf("programCONFIG header = % X, want command 9 followed by '0' '0'", sent[:3])
	}
}

func TestProgramCONFIGRejectsWrongFuseCountFor16Bit(t *testing.T) {
	p, tr := newConnected(t)
	if err := p.Configure(sample18FInfo()); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	tr.Enqueue([]byte{'V'})
	if err := p.SetProgrammingVoltages(true); err != nil {
		t.Fatalf("SetProgrammingVoltages: %v", err)
	}

	err := p.ProgramCONFIG([]byte{1, 2, 3, 4, 5, 6, 7, 8}, []uint16{0xFFFF})
	if _, ok := err.(*SizeViolationError); !ok {
		t.Fatalf("ProgramCONFIG err = %v (%T), want *SizeViolationError", err, err)
	}
}

func TestReadCONFIGDecodesFusesAndCalibration(t *testing.T) {
	info := sample18FInfo()
	info.CalWord = true
	p, tr := newConnected(t)
	if err := p.Configure(info); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	buf := make([]byte, 26)
	buf[2], buf[3] = 0xAA, 0xBB
	for i := 0; i < 7; i++ {
		off := 10 + 2*i
		buf[off], buf[off+1] = byte(i), 0x3F
	}
	buf[24], buf[25] = 0x34, 0x12

	tr.Enqueue([]byte{'C'})
	tr.Enqueue(buf)

	out, err := p.ReadCONFIG()
	if err != nil {
		t.Fatalf("ReadCONFIG: %v", err)
	}
	if len(out.Fuses) != 7 {
		t.Fatalf("Fuses = %d entries, want 7", len(out.Fuses))
	}
	if out.Fuses[3] != uint16(0x3F03) {
		t.Fatalf("Fuses[3] = %#04x, want 0x3f03", out.Fuses[3])
	}
	if out.Calibration != 0x1234 {
		t.Fatalf("Calibration = %#04x, want 0x1234", out.Calibration)
	}
}
