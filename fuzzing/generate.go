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

// invalidEnumTries bounds the search for a bit pattern outside the declared
// variant set; dense enums fall back to a valid draw.
const invalidEnumTries = 8

// Generate produces a fresh value of the shape under the given constraints.
// The constraint may be nil. The caller's constraint is never written to;
// budgets are cloned before they are decremented.
func (m *Mutator) Generate(s shape.Shape, c *shape.Constraints) shape.Value {
	metrics.GeneratedValues.Inc()
	return m.generate(s, c)
}

func (m *Mutator) generate(s shape.Shape, c *shape.Constraints) shape.Value {
	switch sh := s.(type) {
	case *shape.Number:
		return m.generateNumber(sh, c)
	case *shape.Bool:
		return &shape.BoolValue{B: sh, Byte: byte(m.rand(2))}
	case *shape.String:
		return m.generateString(sh, c)
	case *shape.Bytes:
		return m.generateBytes(sh, c)
	case *shape.Slice:
		return m.generateSlice(sh, c)
	case *shape.Struct:
		return m.generateStruct(sh, c)
	case *shape.Enum:
		return m.generateEnum(sh)
	case *shape.Union:
		return m.generateUnion(sh, c)
	default:
		panic(fmt.Sprintf("fuzzing: cannot generate shape kind %v", s.Kind()))
	}
}

func (m *Mutator) generateNumber(sh *shape.Number, c *shape.Constraints) shape.Value {
	v := &shape.NumberValue{Num: sh}
	if sh.Float {
		m.generateFloat(v, c)
		return v
	}
	if c == nil || (c.Min == nil && c.Max == nil) {
		v.SetUint64(m.r.Uint64())
		return v
	}
	min, max := numericBounds(sh, c)
	v.SetInt64(m.int64Range(min, max, c.Weighted))
	return v
}

func (m *Mutator) generateFloat(v *shape.NumberValue, c *shape.Constraints) {
	if c != nil && c.Min != nil && c.Max != nil {
		lo, hi := float64(*c.Min), float64(*c.Max)
		f := lo + m.r.Float64()*(hi-lo)
		switch c.Weighted {
		case shape.WeightedMin:
			f = math.Min(f, lo+m.r.Float64()*(hi-lo))
		case shape.WeightedMax:
			f = math.Max(f, lo+m.r.Float64()*(hi-lo))
		}
		v.Bits = floatBits(f, v.Num.Width)
		return
	}
	// Unconstrained floats are raw bit patterns: NaNs, infinities and
	// denormals are all fair corpus material.
	v.SetUint64(m.r.Uint64())
}

// numericBounds fills unset ends of the constraint with the width's own
// extremes.
func numericBounds(sh *shape.Number, c *shape.Constraints) (int64, int64) {
	var min, max int64
	if sh.Signed {
		bits := uint(sh.Width * 8)
		min = -(int64(1) << (bits - 1))
		max = int64(1)<<(bits-1) - 1
	} else {
		min = 0
		if sh.Width >= 8 {
			max = math.MaxInt64
		} else {
			max = int64(1)<<(uint(sh.Width)*8) - 1
		}
	}
	if c.Min != nil {
		min = *c.Min
	}
	if c.Max != nil {
		max = *c.Max - 1 // constraint max is exclusive
	}
	return min, max
}

// int64Range samples uniformly in [min, max], biased per the weighting: the
// weighted end keeps the more extreme of two draws.
func (m *Mutator) int64Range(min, max int64, w shape.Weighted) int64 {
	if min >= max {
		return min
	}
	span := uint64(max) - uint64(min) + 1
	draw := func() uint64 {
		if span == 0 { // full 64-bit span
			return m.r.Uint64()
		}
		return m.r.Uint64n(span)
	}
	u := draw()
	switch w {
	case shape.WeightedMin:
		if u2 := draw(); u2 < u {
			u = u2
		}
	case shape.WeightedMax:
		if u2 := draw(); u2 > u {
			u = u2
		}
	}
	return min + int64(u)
}

const stringCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// hexStringRate makes one string in eight hex-shaped ("0x...") text, a
// form protocol parsers commonly special-case.
const hexStringRate = 8

func (m *Mutator) generateString(sh *shape.String, c *shape.Constraints) shape.Value {
	maxLen := sh.Cap
	if remaining := c.RemainingSize(); remaining >= 0 && remaining < maxLen {
		maxLen = remaining
	}
	if maxLen <= 0 {
		return &shape.StringValue{Str: sh}
	}
	if maxLen >= 4 && m.rand(hexStringRate) == 0 {
		return &shape.StringValue{Str: sh, S: m.RandHex((maxLen - 2) / 2)}
	}
	b := make([]byte, m.rand(maxLen+1))
	for i := range b {
		b[i] = stringCharset[m.rand(len(stringCharset))]
	}
	return &shape.StringValue{Str: sh, S: string(b)}
}

func (m *Mutator) generateBytes(sh *shape.Bytes, c *shape.Constraints) shape.Value {
	maxLen := sh.Cap
	if remaining := c.RemainingSize(); remaining >= 0 && remaining < maxLen {
		maxLen = remaining
	}
	if maxLen <= 0 {
		return &shape.BytesValue{Byt: sh}
	}
	b := make([]byte, m.rand(maxLen+1))
	m.FillBytes(b)
	return &shape.BytesValue{Byt: sh, B: b}
}

// generateSlice grows the sequence while the budget still admits the
// element shape's smallest nonzero encoding. With no budget the declared
// cap bounds the element count.
func (m *Mutator) generateSlice(sh *shape.Slice, c *shape.Constraints) shape.Value {
	v := &shape.SliceValue{Sl: sh}
	budget := c.Clone()
	target := m.RandIntRange(0, sh.Cap)
	for len(v.Elems) < target {
		remaining := budget.RemainingSize()
		if remaining >= 0 && sh.Elem.MinNonzeroSize() > remaining {
			break
		}
		var ec *shape.Constraints
		if remaining >= 0 {
			ec = shape.WithMaxSize(remaining)
		}
		elem := m.generate(sh.Elem, ec)
		budget.ConsumeSize(elem.SerializedSize())
		v.Elems = append(v.Elems, elem)
	}
	return v
}

// generateStruct is the heart of the generator protocol: take in the byte
// budget, pick a visitation order, derive per-field constraints, generate,
// decrement the budget by each realized size, then run fixups. Variable-
// size structs are visited in a uniformly random permutation so the budget
// does not always starve the last declared field; fixed-size structs have
// nothing to gain from shuffling.
func (m *Mutator) generateStruct(sh *shape.Struct, c *shape.Constraints) shape.Value {
	v := &shape.StructValue{St: sh, Fields: make([]shape.Value, len(sh.Fields))}

	// Local budget copy; decrements never reach the caller's constraint.
	budget := c.Clone()

	var order []int
	if sh.FixedSize() {
		order = make([]int, len(sh.Fields))
		for i := range order {
			order[i] = i
		}
	} else {
		order = m.r.Perm(len(sh.Fields))
	}

	// Every field not yet visited will serialize to at least its minimum
	// size; reserving that keeps an early variable-length field from
	// eating the byte budget the later fixed-width fields need.
	pendingMin := 0
	for i := range sh.Fields {
		pendingMin += sh.Fields[i].Shape.MinSize()
	}

	for _, i := range order {
		f := &sh.Fields[i]
		pendingMin -= f.Shape.MinSize()

		var fieldBudget *int
		if remaining := budget.RemainingSize(); remaining >= 0 {
			avail := remaining - pendingMin
			if avail < 0 {
				avail = 0
			}
			fieldBudget = &avail
		}

		var fv shape.Value
		switch {
		case f.Ignore:
			fv = shape.DefaultValue(f.Shape)
		case f.Init != nil:
			fv = f.Init()
		default:
			fv = m.generate(f.Shape, f.Constraints(fieldBudget))
		}
		budget.ConsumeSize(fv.SerializedSize())
		v.Fields[i] = fv
	}

	if m.shouldFixup() {
		metrics.FixupRuns.Inc()
		m.fixup(v)
	}
	return v
}

// generateEnum draws a weighted valid variant, or occasionally an invalid
// bit pattern that matches no declared variant at all.
func (m *Mutator) generateEnum(sh *shape.Enum) shape.Value {
	if m.cfg.InvalidEnumRate > 0 && m.r.Float64() < m.cfg.InvalidEnumRate {
		for i := 0; i < invalidEnumTries; i++ {
			bits := shape.TruncateBits(m.r.Uint64(), sh.Width)
			if !sh.Contains(bits) {
				return &shape.EnumValue{En: sh, Bits: bits}
			}
		}
	}
	idx := sh.PickVariant(m.Rand())
	return &shape.EnumValue{En: sh, Valid: true, Bits: sh.Variants[idx].Value}
}

func (m *Mutator) generateUnion(sh *shape.Union, c *shape.Constraints) shape.Value {
	idx := sh.PickVariant(m.Rand())
	variant := sh.Variants[idx]
	v := &shape.UnionValue{Un: sh, Index: idx, Payload: make([]shape.Value, len(variant.Payload))}

	budget := c.Clone()
	pendingMin := 0
	for _, p := range variant.Payload {
		pendingMin += p.MinSize()
	}
	for i, p := range variant.Payload {
		pendingMin -= p.MinSize()

		var pc *shape.Constraints
		if remaining := budget.RemainingSize(); remaining >= 0 {
			avail := remaining - pendingMin
			if avail < 0 {
				avail = 0
			}
			pc = shape.WithMaxSize(avail)
		}
		pv := m.generate(p, pc)
		budget.ConsumeSize(pv.SerializedSize())
		v.Payload[i] = pv
	}
	return v
}

func floatBits(f float64, width int) uint64 {
	if width == 4 {
		return uint64(math.Float32bits(float32(f)))
	}
	return math.Float64bits(f)
}
