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

import (
	"fmt"
	"math"

	"shapefuzz/metrics"
	"shapefuzz/shape"
)

// Mutate mutates a subset of the value's reachable fields in place. A full
// rebuild is Generate's job; mutation keeps the overall structure and
// nudges leaves. The constraint may be nil.
func (m *Mutator) Mutate(v shape.Value, c *shape.Constraints) {
	metrics.MutatedValues.Inc()
	m.mutate(v, c)
}

func (m *Mutator) mutate(v shape.Value, c *shape.Constraints) {
	switch val := v.(type) {
	case *shape.NumberValue:
		m.mutateNumber(val, c)
	case *shape.BoolValue:
		m.mutateBool(val)
	case *shape.StringValue:
		m.mutateString(val)
	case *shape.BytesValue:
		m.mutateBytes(val)
	case *shape.SliceValue:
		m.mutateSlice(val, c)
	case *shape.StructValue:
		m.mutateStruct(val, c)
	case *shape.EnumValue:
		// Unit variants have nothing finer to mutate; replace wholesale.
		fresh := m.generateEnum(val.En).(*shape.EnumValue)
		val.Valid, val.Bits = fresh.Valid, fresh.Bits
	case *shape.UnionValue:
		// Mutation never switches the active variant, only reworks the
		// payload it already holds.
		for _, p := range val.Payload {
			m.mutate(p, c)
		}
	default:
		panic(fmt.Sprintf("fuzzing: cannot mutate value of kind %v", v.Shape().Kind()))
	}
}

// mutateStruct visits fields in declaration order. After each field the
// driver may bail out early; on a bail only the field just touched is fixed
// up and later fields keep their pre-mutation values.
func (m *Mutator) mutateStruct(v *shape.StructValue, c *shape.Constraints) {
	for i := range v.St.Fields {
		f := &v.St.Fields[i]
		if f.Ignore {
			continue
		}
		m.mutate(v.Fields[i], f.Constraints(nil))
		if m.shouldEarlyBail() {
			metrics.EarlyBails.Inc()
			if m.shouldFixup() {
				m.fixup(v.Fields[i])
			}
			return
		}
	}
	if m.shouldFixup() {
		metrics.FixupRuns.Inc()
		m.fixup(v)
	}
}

// mutateSlice reworks a randomly chosen run of elements rather than the
// whole sequence.
func (m *Mutator) mutateSlice(v *shape.SliceValue, c *shape.Constraints) {
	if len(v.Elems) == 0 {
		return
	}
	count := m.chooseLen(len(v.Elems))
	start := m.rand(len(v.Elems) - count + 1)
	for i := start; i < start+count; i++ {
		m.mutate(v.Elems[i], c)
	}
}

func (m *Mutator) mutateBool(v *shape.BoolValue) {
	// Mostly flip; sometimes leave a non-0/1 backing byte behind, which
	// the codec serializes verbatim.
	if m.rand(10) == 0 {
		v.Byte = byte(m.rand(256))
		return
	}
	if v.Bool() {
		v.Byte = 0
	} else {
		v.Byte = 1
	}
}

func (m *Mutator) mutateNumber(v *shape.NumberValue, c *shape.Constraints) {
	if v.Num.Float {
		m.generateFloat(v, c)
		return
	}
	bits := v.Uint64()
	switch m.rand(6) {
	case 0:
		bits += uint64(m.rand(math.MaxUint16) + 1)
	case 1:
		bits -= uint64(m.rand(math.MaxUint16) + 1)
	case 2:
		bits ^= uint64(1) << uint(m.rand(v.Num.Width*8))
	case 3:
		bits = ^bits
	case 4:
		bits = interestingBits(m, v.Num.Width)
	case 5:
		if m.bool() {
			bits = 0
		} else {
			bits = ^uint64(0)
		}
	}
	v.SetUint64(bits)
	m.clampNumber(v, c)
}

// clampNumber folds an out-of-range result back into [min, max] instead of
// rejecting it, so mutation under bounds always terminates.
func (m *Mutator) clampNumber(v *shape.NumberValue, c *shape.Constraints) {
	if c == nil || (c.Min == nil && c.Max == nil) {
		return
	}
	min, max := numericBounds(v.Num, c)
	if min > max {
		return
	}
	cur := v.Int64()
	if cur >= min && cur <= max {
		return
	}
	span := uint64(max) - uint64(min) + 1
	if span == 0 {
		return
	}
	v.SetInt64(min + int64(uint64(cur)%span))
}

func (m *Mutator) mutateString(v *shape.StringValue) {
	b := []byte(v.S)
	b = m.MutateByteSlice(b)
	if len(b) > v.Str.Cap {
		b = b[:v.Str.Cap]
	}
	v.S = string(b)
}

func (m *Mutator) mutateBytes(v *shape.BytesValue) {
	b := m.MutateByteSlice(v.B)
	if len(b) > v.Byt.Cap {
		b = b[:v.Byt.Cap]
	}
	v.B = b
}
