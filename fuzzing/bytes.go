package fuzzing

// byteSliceMutator rewrites a byte slice, possibly reallocating. A nil
// return means the strategy does not apply to this input and another one
// should be drawn.
type byteSliceMutator func(*Mutator, []byte) []byte

var byteSliceMutators = []byteSliceMutator{
	byteSliceRemoveBytes,
	byteSliceInsertRandomBytes,
	byteSliceDuplicateBytes,
	byteSliceOverwriteBytes,
	byteSliceBitFlip,
	byteSliceXORByte,
	byteSliceSwapBytes,
	byteSliceArithmeticUint8,
	byteSliceArithmeticUint16,
	byteSliceArithmeticUint32,
	byteSliceArithmeticUint64,
	byteSliceOverwriteInterestingUint8,
	byteSliceOverwriteInterestingUint16,
	byteSliceOverwriteInterestingUint32,
	byteSliceShuffleBytes,
}

// MutateByteSlice applies one randomly drawn byte-slice strategy and
// returns the result. Strategies that cannot work on the input (too short,
// empty) are redrawn until one applies; empty input grows a random seed
// chunk first so a strategy always exists.
func (m *Mutator) MutateByteSlice(b []byte) []byte {
	if len(b) == 0 {
		b = make([]byte, m.chooseLen(8))
		m.FillBytes(b)
		return b
	}
	for {
		mut := byteSliceMutators[m.rand(len(byteSliceMutators))]
		if mutated := mut(m, b); mutated != nil {
			return mutated
		}
	}
}

func byteSliceRemoveBytes(m *Mutator, b []byte) []byte {
	if len(b) <= 1 {
		return nil
	}
	n := m.chooseLen(len(b) - 1)
	pos := m.rand(len(b) - n + 1)
	return append(b[:pos], b[pos+n:]...)
}

func byteSliceInsertRandomBytes(m *Mutator, b []byte) []byte {
	n := m.chooseLen(16)
	chunk := make([]byte, n)
	m.FillBytes(chunk)
	pos := m.rand(len(b) + 1)
	out := make([]byte, 0, len(b)+n)
	out = append(out, b[:pos]...)
	out = append(out, chunk...)
	out = append(out, b[pos:]...)
	return out
}

func byteSliceDuplicateBytes(m *Mutator, b []byte) []byte {
	n := m.chooseLen(len(b))
	start := m.rand(len(b) - n + 1)
	dup := append([]byte{}, b[start:start+n]...)
	pos := m.rand(len(b) + 1)
	out := make([]byte, 0, len(b)+n)
	out = append(out, b[:pos]...)
	out = append(out, dup...)
	out = append(out, b[pos:]...)
	return out
}

func byteSliceOverwriteBytes(m *Mutator, b []byte) []byte {
	n := m.chooseLen(len(b))
	pos := m.rand(len(b) - n + 1)
	m.FillBytes(b[pos : pos+n])
	return b
}

func byteSliceBitFlip(m *Mutator, b []byte) []byte {
	pos := m.rand(len(b))
	b[pos] ^= 1 << uint(m.rand(8))
	return b
}

func byteSliceXORByte(m *Mutator, b []byte) []byte {
	pos := m.rand(len(b))
	// XOR with zero would be a no-op mutation.
	b[pos] ^= byte(m.rand(255)) + 1
	return b
}

func byteSliceSwapBytes(m *Mutator, b []byte) []byte {
	if len(b) < 2 {
		return nil
	}
	i := m.rand(len(b))
	j := m.rand(len(b))
	b[i], b[j] = b[j], b[i]
	return b
}

func byteSliceArithmeticUint8(m *Mutator, b []byte) []byte {
	pos := m.rand(len(b))
	delta := byte(m.rand(35) + 1)
	if m.bool() {
		b[pos] += delta
	} else {
		b[pos] -= delta
	}
	return b
}

func byteSliceArithmeticUint16(m *Mutator, b []byte) []byte {
	if len(b) < 2 {
		return nil
	}
	pos := m.rand(len(b) - 1)
	order := m.RandByteOrder()
	v := order.Uint16(b[pos:])
	delta := uint16(m.rand(35) + 1)
	if m.bool() {
		v += delta
	} else {
		v -= delta
	}
	order.PutUint16(b[pos:], v)
	return b
}

func byteSliceArithmeticUint32(m *Mutator, b []byte) []byte {
	if len(b) < 4 {
		return nil
	}
	pos := m.rand(len(b) - 3)
	order := m.RandByteOrder()
	v := order.Uint32(b[pos:])
	delta := uint32(m.rand(35) + 1)
	if m.bool() {
		v += delta
	} else {
		v -= delta
	}
	order.PutUint32(b[pos:], v)
	return b
}

func byteSliceArithmeticUint64(m *Mutator, b []byte) []byte {
	if len(b) < 8 {
		return nil
	}
	pos := m.rand(len(b) - 7)
	order := m.RandByteOrder()
	v := order.Uint64(b[pos:])
	delta := uint64(m.rand(35) + 1)
	if m.bool() {
		v += delta
	} else {
		v -= delta
	}
	order.PutUint64(b[pos:], v)
	return b
}

func byteSliceOverwriteInterestingUint8(m *Mutator, b []byte) []byte {
	pos := m.rand(len(b))
	b[pos] = byte(interesting8[m.rand(len(interesting8))])
	return b
}

func byteSliceOverwriteInterestingUint16(m *Mutator, b []byte) []byte {
	if len(b) < 2 {
		return nil
	}
	pos := m.rand(len(b) - 1)
	v := uint16(interesting16[m.rand(len(interesting16))])
	m.RandByteOrder().PutUint16(b[pos:], v)
	return b
}

func byteSliceOverwriteInterestingUint32(m *Mutator, b []byte) []byte {
	if len(b) < 4 {
		return nil
	}
	pos := m.rand(len(b) - 3)
	v := uint32(interesting32[m.rand(len(interesting32))])
	m.RandByteOrder().PutUint32(b[pos:], v)
	return b
}

func byteSliceShuffleBytes(m *Mutator, b []byte) []byte {
	if len(b) < 2 {
		return nil
	}
	n := m.chooseLen(len(b))
	start := m.rand(len(b) - n + 1)
	m.r.Shuffle(n, func(i, j int) {
		b[start+i], b[start+j] = b[start+j], b[start+i]
	})
	return b
}
