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

package fuzzing

import "github.com/ethereum/go-ethereum/common/hexutil"

var (
	interesting8  = []int8{-128, -1, 0, 1, 16, 32, 64, 100, 127}
	interesting16 = []int16{-32768, -129, 128, 255, 256, 512, 1000, 1024, 4096, 32767}
	interesting32 = []int32{-2147483648, -100663046, -32769, 32768, 65535, 65536, 100663045, 2147483647}
	interesting64 = []int64{-9223372036854775808, -4294967297, 4294967296, 4294967297, 9223372036854775807}
)

func init() {
	for _, v := range interesting8 {
		interesting16 = append(interesting16, int16(v))
	}
	for _, v := range interesting16 {
		interesting32 = append(interesting32, int32(v))
	}
	for _, v := range interesting32 {
		interesting64 = append(interesting64, int64(v))
	}
}

// interestingBits draws one boundary-ish value for the given byte width.
func interestingBits(m *Mutator, width int) uint64 {
	switch width {
	case 1:
		return uint64(uint8(interesting8[m.rand(len(interesting8))]))
	case 2:
		return uint64(uint16(interesting16[m.rand(len(interesting16))]))
	case 4:
		return uint64(uint32(interesting32[m.rand(len(interesting32))]))
	default:
		return uint64(interesting64[m.rand(len(interesting64))])
	}
}

// RandHex produces up to maxSize bytes of random hex data, for corpus
// sidecars and debug output.
func (m *Mutator) RandHex(maxSize int) string {
	b := make([]byte, m.rand(maxSize))
	m.FillBytes(b)
	return hexutil.Encode(b)
}

// RandIntRange returns a random integer in [min, max].
func (m *Mutator) RandIntRange(min, max int) int {
	if max <= min {
		return min
	}
	return m.rand(max-min+1) + min
}
