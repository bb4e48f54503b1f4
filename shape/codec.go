// Copyright 2025 The shapefuzz Authors
// This file is part of the shapefuzz library.
//
// The shapefuzz library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The shapefuzz library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the shapefuzz library. If not, see <http://www.gnu.org/licenses/>.

package shape

import (
	"bytes"
	"encoding/binary"
	"io"
)

// EncodeToBytes serializes a value into a fresh buffer with the given byte
// order applied to all multi-byte numeric encodes.
func EncodeToBytes(v Value, order binary.ByteOrder) []byte {
	var buf bytes.Buffer
	buf.Grow(v.SerializedSize())
	v.EncodeTo(&buf, order)
	return buf.Bytes()
}

// putBits writes the low width bytes of bits in the given order. Write
// errors are deliberately dropped; the sink is normally a bytes.Buffer.
func putBits(w io.Writer, order binary.ByteOrder, width int, bits uint64) {
	var scratch [8]byte
	switch width {
	case 1:
		scratch[0] = byte(bits)
	case 2:
		order.PutUint16(scratch[:2], uint16(bits))
	case 4:
		order.PutUint32(scratch[:4], uint32(bits))
	default:
		order.PutUint64(scratch[:8], bits)
		width = 8
	}
	_, _ = w.Write(scratch[:width])
}

// TruncateBits masks bits down to the given byte width.
func TruncateBits(bits uint64, width int) uint64 {
	return truncBits(bits, width)
}

// truncBits masks bits down to the given byte width.
func truncBits(bits uint64, width int) uint64 {
	if width >= 8 {
		return bits
	}
	return bits & (uint64(1)<<(uint(width)*8) - 1)
}
