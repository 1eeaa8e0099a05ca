// SPDX-License-Identifier: GPL-3.0-or-later

// Package programmer implements the P18A command/response state
// machine: handshake, command-session envelope, voltage lifecycle, and
// the per-family memory read/write/erase/blank-check commands.
//
// The session is single-threaded and not re-entrant — there is exactly
// one in-flight command at any time, matching the half-duplex device
// this protocol was designed for.
package programmer

import (
	"fmt"
	"time"

	"github.com/jlbarriere/k150prog/pkg/chipdb"
	"github.com/jlbarriere/k150prog/pkg/transport"
)

type sessionState int

const (
	stateIdle sessionState = iota
	stateInSession
	stateVppOn
)

// Programmer drives one P18A device over a borrowed Transport. The
// transport's lifetime must cover the whole session; Connect opens it
// and Disconnect closes it.
type Programmer struct {
	transport transport.Transport
	cfg       Config

	state      sessionState
	version    int
	protocol   string
	vppEnabled bool
	props      *Properties
}

// New returns a Programmer bound to t. Connect must be called before
// any other method.
func New(t transport.Transport, opts ...Option) *Programmer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Programmer{transport: t, cfg: cfg}
}

// Version returns the raw version code read during Connect (0..3).
func (p *Programmer) Version() int { return p.version }

// VersionName renders Version as the firmware family name.
func (p *Programmer) VersionName() string {
	switch p.version {
	case 0:
		return "K128"
	case 1:
		return "K149-A"
	case 2:
		return "K149-B"
	case 3:
		return "K150"
	default:
		return "UNKNOWN"
	}
}

// Protocol returns the protocol identifier negotiated during Connect.
func (p *Programmer) Protocol() string { return p.protocol }

// Properties returns the resolved chip properties set by Configure.
func (p *Programmer) Properties() *Properties { return p.props }

// Configure resolves info against the static CoreType/PowerSequence/
// SocketHint tables and stores the result for subsequent commands.
func (p *Programmer) Configure(info *chipdb.ChipInfo) error {
	props, err := Configure(info)
	if err != nil {
		return err
	}
	p.props = props
	return nil
}

// Connect opens the transport, resets the device, and negotiates the
// P18A protocol.
func (p *Programmer) Connect() error {
	if err := p.transport.Open(); err != nil {
		return &HandshakeFailedError{Reason: err.Error()}
	}
	if err := p.transport.Reset(); err != nil {
		return &HandshakeFailedError{Reason: err.Error()}
	}

	hdr, err := p.readN(2, "connect")
	if err != nil {
		return &HandshakeFailedError{Reason: err.Error()}
	}
	if hdr[0] != 'B' {
		return &HandshakeFailedError{Reason: fmt.Sprintf("expected 'B', got %q", hdr[0])}
	}
	p.version = int(hdr[1])
	p.cfg.logger.Debugf("connect: version=%s", p.VersionName())

	if err := p.commandStart(); err != nil {
		return &HandshakeFailedError{Reason: err.Error()}
	}
	if err := p.write(21); err != nil {
		return &HandshakeFailedError{Reason: err.Error()}
	}
	proto, err := p.readN(4, "connect")
	if err != nil {
		return &HandshakeFailedError{Reason: err.Error()}
	}
	if string(proto) != "P18A" {
		return &ProtocolMismatchError{Got: string(proto)}
	}
	p.protocol = string(proto)
	return p.commandEnd()
}

// Disconnect closes the transport. The session is invalid afterward;
// a fresh Connect is required to reuse the Programmer.
func (p *Programmer) Disconnect() error {
	return p.transport.Close()
}

func (p *Programmer) commandStart() error {
	if err := p.write(1); err != nil {
		return err
	}
	for {
		b, err := p.readN(1, "commandStart")
		if err != nil {
			return err
		}
		if b[0] == 'Q' {
			break
		}
	}
	if err := p.write('P'); err != nil {
		return err
	}
	reply, err := p.readN(1, "commandStart")
	if err != nil {
		return err
	}
	if reply[0] != 'P' {
		return &UnexpectedReplyError{Op: "commandStart", Got: reply[0], Expected: 'P'}
	}
	p.state = stateInSession
	return nil
}

func (p *Programmer) commandEnd() error {
	if err := p.write(1); err != nil {
		return err
	}
	reply, err := p.readN(1, "commandEnd")
	if err != nil {
		return err
	}
	if reply[0] != 'Q' {
		return &UnexpectedReplyError{Op: "commandEnd", Got: reply[0], Expected: 'Q'}
	}
	p.state = stateIdle
	return nil
}

// WaitUntilChipInSocket blocks until the device answers the presence
// query and reports whether a chip is in the socket; it does not repeat
// the query when the chip is absent. It is a no-op (returns true) when
// the chip has no socket hint (ICSP-only).
func (p *Programmer) WaitUntilChipInSocket() (bool, error) {
	if p.props.SocketHint == "" {
		return true, nil
	}
	if err := p.write(18); err != nil {
		return false, err
	}
	reply, err := p.readN(2, "waitUntilChipInSocket")
	if err != nil {
		return false, err
	}
	if reply[0] != 'A' {
		return false, &UnexpectedReplyError{Op: "waitUntilChipInSocket", Got: reply[0], Expected: 'A'}
	}
	return reply[1] == 'Y', nil
}

// WaitUntilChipOutOfSocket is the waitUntilChipInSocket counterpart for
// confirming chip removal.
func (p *Programmer) WaitUntilChipOutOfSocket() (bool, error) {
	if p.props.SocketHint == "" {
		return true, nil
	}
	if err := p.write(19); err != nil {
		return false, err
	}
	reply, err := p.readN(2, "waitUntilChipOutOfSocket")
	if err != nil {
		return false, err
	}
	if reply[0] != 'A' {
		return false, &UnexpectedReplyError{Op: "waitUntilChipOutOfSocket", Got: reply[0], Expected: 'A'}
	}
	return reply[1] == 'Y', nil
}

// InitializeProgrammingVariables sends the chip's resolved properties
// to the device. icspMode remaps certain power-sequence codes.
func (p *Programmer) InitializeProgrammingVariables(icspMode bool) error {
	props := p.props
	flags := 0
	if props.FlagCalibrationValueInROM {
		flags |= 1
	}
	if props.FlagBandGapFuse {
		flags |= 2
	}
	if props.Flag18FSinglePanelAccessMode {
		flags |= 4
	}
	if props.FlagVccVppDelay {
		flags |= 8
	}

	powerSeq := props.PowerSequence
	if icspMode {
		switch powerSeq {
		case 2:
			powerSeq = 1
		case 4:
			powerSeq = 3
		}
	}

	msg := []byte{
		3,
		byte(props.ROMSize >> 8), byte(props.ROMSize),
		byte(props.EEPROMSize >> 8), byte(props.EEPROMSize),
		byte(props.CoreType),
		byte(flags),
		byte(props.ProgramDelay),
		byte(powerSeq),
		byte(props.EraseMode),
		byte(props.ProgramTries),
		byte(props.PanelSizing),
	}
	if err := p.write(msg...); err != nil {
		return err
	}
	reply, err := p.readN(1, "initializeProgrammingVariables")
	if err != nil {
		return err
	}
	if reply[0] != 'I' {
		return &UnexpectedReplyError{Op: "initializeProgrammingVariables", Got: reply[0], Expected: 'I'}
	}
	return nil
}

// SetProgrammingVoltages turns programming voltages on or off.
// ProgramROM, ProgramEEPROM and ProgramCONFIG return a
// VoltageNotEnabledError unless voltages are on; the read commands do
// not check VPPEnabled.
func (p *Programmer) SetProgrammingVoltages(on bool) error {
	if on {
		if err := p.write(4); err != nil {
			return err
		}
		reply, err := p.readN(1, "setProgrammingVoltages(true)")
		if err != nil {
			return err
		}
		if reply[0] != 'V' {
			return &UnexpectedReplyError{Op: "setProgrammingVoltages(true)", Got: reply[0], Expected: 'V'}
		}
		p.vppEnabled = true
		p.state = stateVppOn
		return nil
	}

	if err := p.write(5); err != nil {
		return err
	}
	reply, err := p.readN(1, "setProgrammingVoltages(false)")
	if err != nil {
		return err
	}
	if reply[0] != 'v' {
		return &UnexpectedReplyError{Op: "setProgrammingVoltages(false)", Got: reply[0], Expected: 'v'}
	}
	p.vppEnabled = false
	p.state = stateInSession
	return nil
}

// VPPEnabled reports whether programming voltages are currently on.
func (p *Programmer) VPPEnabled() bool { return p.vppEnabled }

// CycleProgrammingVoltages toggles voltages off and back on without
// leaving the command table, used between erase and the first write.
// If the device does not answer 'V', the command session is ended and
// VPPEnabled is cleared.
func (p *Programmer) CycleProgrammingVoltages() error {
	if err := p.write(6); err != nil {
		return err
	}
	reply, err := p.readN(1, "cycleProgrammingVoltages")
	if err != nil {
		return err
	}
	if reply[0] == 'V' {
		p.vppEnabled = true
		return nil
	}
	if err := p.commandEnd(); err != nil {
		return err
	}
	p.vppEnabled = false
	return nil
}

// ProgramROM streams ROM data (a multiple of 32 bytes, word size no
// greater than ROMSize) to the device.
func (p *Programmer) ProgramROM(data []byte) error {
	if !p.vppEnabled {
		return &VoltageNotEnabledError{Op: "programROM"}
	}
	wordSize := len(data) / 2
	if wordSize > p.props.ROMSize || len(data)%32 != 0 {
		return &SizeViolationError{Op: "programROM", Detail: fmt.Sprintf("word size %d exceeds ROM size %d, or byte length %d is not a multiple of 32", wordSize, p.props.ROMSize, len(data))}
	}

	if err := p.write(7, byte(wordSize>>8), byte(wordSize)); err != nil {
		return err
	}
	reply, err := p.readN(1, "programROM")
	if err != nil {
		return err
	}
	if reply[0] != 'Y' {
		return &UnexpectedReplyError{Op: "programROM", Got: reply[0], Expected: 'Y'}
	}

	for off := 0; off < len(data); off += 32 {
		if err := p.write(data[off : off+32]...); err != nil {
			return err
		}
		ack, err := p.readN(1, "programROM chunk")
		if err != nil {
			return err
		}
		if ack[0] != 'Y' {
			return &UnexpectedReplyError{Op: "programROM chunk", Got: ack[0], Expected: 'Y'}
		}
		p.reportProgress(off+32, len(data))
	}

	final, err := p.readN(1, "programROM final")
	if err != nil {
		return err
	}
	if final[0] != 'P' {
		return &UnexpectedReplyError{Op: "programROM final", Got: final[0], Expected: 'P'}
	}
	return nil
}

// ProgramEEPROM streams EEPROM data (even length, no greater than
// EEPROMSize bytes) to the device two bytes at a time.
func (p *Programmer) ProgramEEPROM(data []byte) error {
	if !p.vppEnabled {
		return &VoltageNotEnabledError{Op: "programEEPROM"}
	}
	if len(data) > p.props.EEPROMSize || len(data)%2 != 0 {
		return &SizeViolationError{Op: "programEEPROM", Detail: fmt.Sprintf("length %d exceeds EEPROM size %d, or is odd", len(data), p.props.EEPROMSize)}
	}

	if err := p.write(8, byte(len(data)>>8), byte(len(data))); err != nil {
		return err
	}
	reply, err := p.readN(1, "programEEPROM")
	if err != nil {
		return err
	}
	if reply[0] != 'Y' {
		return &UnexpectedReplyError{Op: "programEEPROM", Got: reply[0], Expected: 'Y'}
	}

	for off := 0; off < len(data); off += 2 {
		if err := p.write(data[off], data[off+1]); err != nil {
			return err
		}
		ack, err := p.readN(1, "programEEPROM pair")
		if err != nil {
			return err
		}
		if ack[0] != 'Y' {
			return &UnexpectedReplyError{Op: "programEEPROM pair", Got: ack[0], Expected: 'Y'}
		}
		p.reportProgress(off+2, len(data))
	}

	if err := p.write(0, 0); err != nil {
		return err
	}
	final, err := p.readN(1, "programEEPROM final")
	if err != nil {
		return err
	}
	if final[0] != 'P' {
		return &UnexpectedReplyError{Op: "programEEPROM final", Got: final[0], Expected: 'P'}
	}
	return nil
}

// ProgramCONFIG writes the chip ID and configuration fuses. The wire
// framing depends on the core's bit width: 16-bit cores take an 8-byte
// ID and exactly 7 fuses; other cores take a 4-byte ID and 1-2 fuses.
func (p *Programmer) ProgramCONFIG(id []byte, fuses []uint16) error {
	if !p.vppEnabled {
		return &VoltageNotEnabledError{Op: "programCONFIG"}
	}

	msg := []byte{9, '0', '0'}
	if p.props.CoreBits == 16 {
		if len(fuses) != 7 {
			return &SizeViolationError{Op: "programCONFIG", Detail: fmt.Sprintf("16-bit core requires 7 fuses, got %d", len(fuses))}
		}
		msg = append(msg, padOrTruncate(id, 8)...)
		for _, f := range fuses {
			msg = append(msg, byte(f), byte(f>>8))
		}
	} else {
		if len(fuses) < 1 || len(fuses) > 2 {
			return &SizeViolationError{Op: "programCONFIG", Detail: fmt.Sprintf("core requires 1-2 fuses, got %d", len(fuses))}
		}
		msg = append(msg, padOrTruncate(id, 4)...)
		msg = append(msg, 'F', 'F', 'F', 'F')
		msg = append(msg, byte(fuses[0]), byte(fuses[0]>>8))
		for i := 0; i < 12; i++ {
			msg = append(msg, 0xFF)
		}
	}

	if err := p.write(msg...); err != nil {
		return err
	}
	reply, err := p.readN(1, "programCONFIG")
	if err != nil {
		return err
	}
	if reply[0] != 'Y' {
		return &UnexpectedReplyError{Op: "programCONFIG", Got: reply[0], Expected: 'Y'}
	}
	return nil
}

// ProgramCommit18FXXXXFuse commits the 18FXXXX fuse bank. It is a
// no-op on any core other than a 16-bit one.
func (p *Programmer) ProgramCommit18FXXXXFuse() error {
	if p.props.CoreBits != 16 {
		return nil
	}
	if err := p.write(17); err != nil {
		return err
	}
	reply, err := p.readN(1, "programCOMMIT_18FXXXX_FUSE")
	if err != nil {
		return err
	}
	if reply[0] != 'Y' {
		return &UnexpectedReplyError{Op: "programCOMMIT_18FXXXX_FUSE", Got: reply[0], Expected: 'Y'}
	}
	return nil
}

// ProgramCalibration writes the calibration word and its guard fuse,
// distinguishing a calibration failure from a fuse failure.
func (p *Programmer) ProgramCalibration(cal, fuse int) error {
	if err := p.write(10, byte(cal>>8), byte(cal), byte(fuse>>8), byte(fuse)); err != nil {
		return err
	}
	reply, err := p.readN(1, "programCalibration")
	if err != nil {
		return err
	}
	switch reply[0] {
	case 'Y':
		return nil
	case 'C':
		return &CommandFailedError{Op: "programCalibration", Detail: "calibration failed"}
	case 'F':
		return &CommandFailedError{Op: "programCalibration", Detail: "fuse failed"}
	default:
		return &UnexpectedReplyError{Op: "programCalibration", Got: reply[0], Expected: 'Y'}
	}
}

// EraseChip performs a full-chip erase.
func (p *Programmer) EraseChip() error {
	if err := p.write(14); err != nil {
		return err
	}
	reply, err := p.readN(1, "eraseChip")
	if err != nil {
		return err
	}
	if reply[0] != 'Y' {
		return &UnexpectedReplyError{Op: "eraseChip", Got: reply[0], Expected: 'Y'}
	}
	return nil
}

// IsBlankROM asks the firmware whether ROM is blank. This command is
// known to return 'N' spuriously; callers needing a reliable answer
// should read ROM back and compare against a synthetic blank buffer
// instead of trusting this reply.
func (p *Programmer) IsBlankROM() (bool, error) {
	if err := p.write(15, byte(p.props.ROMBlank>>8)); err != nil {
		return false, err
	}
	for {
		reply, err := p.readN(1, "isBlankROM")
		if err != nil {
			return false, err
		}
		switch reply[0] {
		case 'B':
			time.Sleep(p.cfg.pollInterval)
			continue
		case 'Y':
			return true, nil
		case 'N', 'C':
			return false, nil
		default:
			return false, &UnexpectedReplyError{Op: "isBlankROM", Got: reply[0], Expected: 'Y'}
		}
	}
}

// IsBlankEEPROM is the IsBlankROM counterpart for EEPROM; it carries
// the same known-unreliable caveat.
func (p *Programmer) IsBlankEEPROM() (bool, error) {
	if err := p.write(16); err != nil {
		return false, err
	}
	reply, err := p.readN(1, "isBlankEEPROM")
	if err != nil {
		return false, err
	}
	switch reply[0] {
	case 'Y':
		return true, nil
	case 'N':
		return false, nil
	default:
		return false, &UnexpectedReplyError{Op: "isBlankEEPROM", Got: reply[0], Expected: 'Y'}
	}
}

// ReadROM reads back the full ROM image (2*ROMSize bytes).
func (p *Programmer) ReadROM() ([]byte, error) {
	if err := p.write(11); err != nil {
		return nil, err
	}
	return p.readN(2*p.props.ROMSize, "readROM")
}

// ReadEEPROM reads back the full EEPROM image (EEPROMSize bytes).
func (p *Programmer) ReadEEPROM() ([]byte, error) {
	if err := p.write(12); err != nil {
		return nil, err
	}
	return p.readN(p.props.EEPROMSize, "readEEPROM")
}

// ConfigReadout is the decoded reply from ReadCONFIG.
type ConfigReadout struct {
	ChipID      []byte
	Fuses       []uint16
	Calibration uint16
}

// ReadCONFIG reads back the chip ID, configuration fuses, and (when
// the chip carries a calibration word) the calibration value.
func (p *Programmer) ReadCONFIG() (*ConfigReadout, error) {
	if err := p.write(13); err != nil {
		return nil, err
	}
	reply, err := p.readN(1, "readCONFIG")
	if err != nil {
		return nil, err
	}
	if reply[0] != 'C' {
		return nil, &UnexpectedReplyError{Op: "readCONFIG", Got: reply[0], Expected: 'C'}
	}

	buf, err := p.readN(26, "readCONFIG")
	if err != nil {
		return nil, err
	}

	out := &ConfigReadout{ChipID: append([]byte(nil), buf[2:10]...)}

	fuseCount := len(p.props.FuseBlank)
	for i := 0; i < fuseCount; i++ {
		off := 10 + 2*i
		if off+1 >= len(buf) {
			break
		}
		out.Fuses = append(out.Fuses, uint16(buf[off])|uint16(buf[off+1])<<8)
	}

	if p.props.FlagCalibrationValueInROM {
		out.Calibration = uint16(buf[24]) | uint16(buf[25])<<8
	}

	return out, nil
}

func padOrTruncate(b []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (p *Programmer) reportProgress(done, total int) {
	if p.cfg.progress != nil {
		p.cfg.progress(done, total)
	}
}

func (p *Programmer) write(bytes ...byte) error {
	if p.cfg.debug {
		p.cfg.logger.Debugf("write: % 02X", bytes)
	}
	return p.transport.Write(bytes)
}

// readN blocks until exactly n bytes have been read, polling the
// transport's short-timeout Read in a bounded spin. This is the single
// helper every command-reply read goes through.
func (p *Programmer) readN(n int, op string) ([]byte, error) {
	buf := make([]byte, 0, n)
	tmp := make([]byte, n)
	for len(buf) < n {
		k, err := p.transport.Read(tmp[:n-len(buf)])
		if err != nil {
			return nil, fmt.Errorf("programmer: %s: %w", op, err)
		}
		if k == 0 {
			time.Sleep(p.cfg.pollInterval)
			continue
		}
		buf = append(buf, tmp[:k]...)
	}
	if p.cfg.debug {
		p.cfg.logger.Debugf("read(%s): % 02X", op, buf)
	}
	return buf, nil
}
