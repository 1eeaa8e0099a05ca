// SPDX-License-Identifier: GPL-3.0-or-later

// Package transport defines the narrow byte-stream contract the
// programmer protocol engine consumes, plus concrete implementations
// for the real serial link and for a scripted fake used in tests.
package transport

// Transport is the capability surface the programmer needs from the
// underlying device link. Read returns promptly after a short timeout
// even if no bytes arrived — the protocol engine polls by calling it
// repeatedly until a size condition holds.
type Transport interface {
	Open() error
	Close() error
	IsOpen() bool
	Reset() error
	Write(data []byte) error
	Read(buf []byte) (int, error)
}
