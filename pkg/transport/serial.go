// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

const (
	baudRate        = 19200
	readTimeout     = 100 * time.Millisecond
	resetPulseDelay = 100 * time.Millisecond
)

// Serial drives a K150-family programmer over a real serial port:
// 19200 baud, 8 data bits, no parity, one stop bit, no flow control.
type Serial struct {
	portName string
	port     serial.Port
}

// NewSerial returns a Serial bound to portName. The port is not opened
// until Open is called.
func NewSerial(portName string) *Serial {
	return &Serial{portName: portName}
}

func (s *Serial) Open() error {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(s.portName, mode)
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", s.portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return fmt.Errorf("transport: set read timeout on %s: %w", s.portName, err)
	}
	s.port = port
	return nil
}

func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *Serial) IsOpen() bool {
	return s.port != nil
}

// Reset pulses DTR low then high, the same device-level reset toggle
// the K150 programmer's firmware expects on connect.
func (s *Serial) Reset() error {
	if s.port == nil {
		return fmt.Errorf("transport: reset on closed port")
	}
	if err := s.port.SetDTR(false); err != nil {
		return fmt.Errorf("transport: reset (DTR low): %w", err)
	}
	time.Sleep(resetPulseDelay)
	if err := s.port.SetDTR(true); err != nil {
		return fmt.Errorf("transport: reset (DTR high): %w", err)
	}
	time.Sleep(resetPulseDelay)
	return nil
}

func (s *Serial) Write(data []byte) error {
	if s.port == nil {
		return fmt.Errorf("transport: write on closed port")
	}
	_, err := s.port.Write(data)
	return err
}

func (s *Serial) Read(buf []byte) (int, error) {
	if s.port == nil {
		return 0, fmt.Errorf("transport: read on closed port")
	}
	return s.port.Read(buf)
}
