// SPDX-License-Identifier: GPL-3.0-or-later

// Package hexstore loads, saves, and extracts byte ranges from a sparse
// Intel-HEX address space.
//
// The store keeps only record types 00 (data), 01 (EOF), 02 (extended
// segment address), and 04 (extended linear address); it does not
// implement 03 or 05. Internally the segments are kept sorted by base
// address, since Go has no ordered-map equivalent to the std::map the
// original source relied on for segment iteration.
package hexstore

import (
	"bufio"
	"fmt"
	"os"
	"sort"
)

// HexSegment is a contiguous run of bytes at a single base address.
type HexSegment struct {
	Base uint32
	Data []byte
}

// HexStore owns a set of non-overlapping segments.
type HexStore struct {
	segments []HexSegment
}

// New returns an empty store.
func New() *HexStore {
	return &HexStore{}
}

// Segments returns the store's segments in ascending address order.
// The returned slice is a copy; callers must not mutate it to change
// the store's state.
func (h *HexStore) Segments() []HexSegment {
	out := make([]HexSegment, len(h.segments))
	copy(out, h.segments)
	return out
}

// Clear removes every segment.
func (h *HexStore) Clear() {
	h.segments = nil
}

// insert places data at addr, keeping segments sorted and rejecting any
// overlap with an existing segment. Boundary-exact abutment is allowed.
func (h *HexStore) insert(addr uint32, data []byte) error {
	end := addr + uint32(len(data))
	idx := sort.Search(len(h.segments), func(i int) bool { return h.segments[i].Base >= addr })

	if idx > 0 {
		prev := h.segments[idx-1]
		if prev.Base+uint32(len(prev.Data)) > addr {
			return &OverlapError{Addr: addr}
		}
	}
	if idx < len(h.segments) && h.segments[idx].Base < end {
		return &OverlapError{Addr: addr}
	}

	h.segments = append(h.segments, HexSegment{})
	copy(h.segments[idx+1:], h.segments[idx:])
	h.segments[idx] = HexSegment{Base: addr, Data: data}
	return nil
}

// LoadRAW inserts data at addr. data must have even length. When
// swapBytes is set, the two bytes of every word are swapped before
// storage.
func (h *HexStore) LoadRAW(addr uint32, data []byte, swapBytes bool) error {
	if len(data)%2 != 0 {
		return &OddSizeError{Size: len(data)}
	}
	stored := data
	if swapBytes {
		stored = make([]byte, len(data))
		for i := 0; i+1 < len(data); i += 2 {
			stored[i], stored[i+1] = data[i+1], data[i]
		}
	}
	return h.insert(addr, stored)
}

// LoadRAWLE8 expands each input byte b into the word (b, 0x00), doubling
// the address footprint. Used for EEPROM on 12/14-bit cores, where each
// EEPROM byte occupies one word with a zero high byte.
func (h *HexStore) LoadRAWLE8(addr uint32, data []byte) error {
	expanded := make([]byte, 2*len(data))
	for i, b := range data {
		expanded[2*i] = b
		expanded[2*i+1] = 0x00
	}
	return h.insert(addr, expanded)
}

// RangeOfData returns exactly 2*wordCount bytes covering
// [lower, lower+2*wordCount). Gaps are filled with blankWord in
// big-endian order. lower must be even.
func (h *HexStore) RangeOfData(lower uint32, wordCount int, blankWord uint16, swapBytes bool) ([]byte, error) {
	if lower%2 != 0 {
		return nil, &BadArgumentError{Msg: "lower bound must be even"}
	}

	upper := lower + uint32(2*wordCount)
	blankHi, blankLo := byte(blankWord>>8), byte(blankWord)
	out := make([]byte, 0, 2*wordCount)
	addr := lower

	idx := sort.Search(len(h.segments), func(i int) bool { return h.segments[i].Base >= lower })
	if idx != len(h.segments) && idx != 0 && h.segments[idx].Base > lower {
		idx--
	}

	for {
		if idx >= len(h.segments) || h.segments[idx].Base >= upper {
			for addr < upper {
				out = append(out, blankHi, blankLo)
				addr += 2
			}
			break
		}

		seg := h.segments[idx]
		if seg.Base+uint32(len(seg.Data)) > addr {
			for addr < seg.Base {
				out = append(out, blankHi, blankLo)
				addr += 2
			}
			shift := uint32(0)
			for addr-shift > seg.Base {
				shift += 2
			}
			for shift < uint32(len(seg.Data)) && addr < upper {
				b0, b1 := seg.Data[shift], seg.Data[shift+1]
				if swapBytes {
					out = append(out, b1, b0)
				} else {
					out = append(out, b0, b1)
				}
				shift += 2
				addr += 2
			}
		}

		if addr == upper {
			break
		}
		idx++
	}

	return out, nil
}

const (
	recData       = 0x00
	recEOF        = 0x01
	recExtSegment = 0x02
	recExtLinear  = 0x04
)

// Load reads an Intel-HEX file, replacing the store's contents. On any
// parse failure the load aborts and returns the line number at fault;
// segments loaded before the faulting line remain in the store.
func (h *HexStore) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	h.segments = nil
	extAddr := uint32(0)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := sanitizeLine(scanner.Text())
		if len(line) == 0 {
			continue
		}

		rec, err := decodeRecord(line)
		if err != nil {
			return annotateLine(err, lineNo)
		}

		switch rec.recType {
		case recData:
			if err := h.insert(extAddr|uint32(rec.address), rec.data); err != nil {
				return err
			}
		case recEOF:
			if rec.byteCount != 0 {
				return &BadFormatError{Line: lineNo, Msg: "EOF record carries data"}
			}
			return nil
		case recExtSegment:
			extAddr = uint32(rec.extValue) << 4
		case recExtLinear:
			extAddr = uint32(rec.extValue) << 16
		default:
			return &UnsupportedRecordError{Line: lineNo, Type: rec.recType}
		}
	}
	if err := scanner.Err(); err != nil {
		return &IOError{Op: "read", Path: path, Err: err}
	}
	return &BadFormatError{Line: lineNo, Msg: "missing EOF record"}
}

// Save writes the store's segments as Intel-HEX, in ascending address
// order, chunked into records of up to 16 bytes. A record-type-04 line
// is emitted whenever the upper 16 bits of the address change from the
// previously emitted extension (initial value 0). No byte-swap is
// applied — segments are written exactly as stored.
func (h *HexStore) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	extAddr := uint32(0)

	for _, seg := range h.segments {
		addr := seg.Base
		data := seg.Data
		for len(data) > 0 {
			n := len(data)
			if n > 16 {
				n = 16
			}
			ext := (addr >> 16) & 0xFFFF
			if ext != extAddr {
				writeExtLinearRecord(w, ext)
				extAddr = ext
			}
			writeDataRecord(w, addr, data[:n])
			data = data[n:]
			addr += uint32(n)
		}
	}

	fmt.Fprint(w, ":00000001FF\n")
	return w.Flush()
}

func annotateLine(err error, line int) error {
	switch e := err.(type) {
	case *BadFormatError:
		e.Line = line
		return e
	case *BadChecksumError:
		e.Line = line
		return e
	case *UnsupportedRecordError:
		e.Line = line
		return e
	default:
		return err
	}
}
