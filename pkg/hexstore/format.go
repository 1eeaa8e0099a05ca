// SPDX-License-Identifier: GPL-3.0-or-later

package hexstore

import (
	"fmt"
	"io"
)

// DumpSegments writes every segment as "BASE : hex bytes  ascii" lines,
// the same layout the original source used for its debug hex dump.
func (h *HexStore) DumpSegments(w io.Writer) {
	for _, seg := range h.segments {
		fmt.Fprintf(w, "%06X : ", seg.Base)
		logData(w, seg.Data)
	}
}

// logData renders data sixteen bytes per line, hex on the left and a
// printable-ASCII gutter on the right.
func logData(w io.Writer, data []byte) {
	idx := 0
	for idx < len(data) {
		var ascii [16]byte
		n := 0
		for n < 16 && idx < len(data) {
			b := data[idx]
			fmt.Fprintf(w, "%02x ", b)
			if b > 32 && b < 127 {
				ascii[n] = b
			} else {
				ascii[n] = '.'
			}
			n++
			idx++
		}
		for pad := n; pad < 16; pad++ {
			fmt.Fprint(w, "   ")
		}
		fmt.Fprintf(w, " %s\n", ascii[:n])
	}
}
