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
	"encoding/binary"
	"io"
	"math"
)

// Value is one concrete instance of a shape. Values are plain data: they
// are created by generation, mutated in place, and serialized through the
// codec; there is no shared ownership between call trees.
type Value interface {
	Shape() Shape

	// SerializedSize is the exact byte length EncodeTo will produce.
	SerializedSize() int

	// EncodeTo writes the wire representation. Multi-byte numerics follow
	// the supplied byte order. Write errors are best-effort since the
	// destination is normally an in-memory buffer.
	EncodeTo(w io.Writer, order binary.ByteOrder)

	// Clone returns a deep copy sharing no mutable state.
	Clone() Value
}

// NumberValue holds the raw bits of a fixed-width scalar. Signedness and
// floatness are carried by the shape; the bits are the wire content.
type NumberValue struct {
	Num  *Number
	Bits uint64
}

func (v *NumberValue) Shape() Shape        { return v.Num }
func (v *NumberValue) SerializedSize() int { return v.Num.Width }

func (v *NumberValue) EncodeTo(w io.Writer, order binary.ByteOrder) {
	putBits(w, order, v.Num.Width, v.Bits)
}

func (v *NumberValue) Clone() Value {
	out := *v
	return &out
}

// Uint64 returns the bits truncated to the shape's width.
func (v *NumberValue) Uint64() uint64 {
	return truncBits(v.Bits, v.Num.Width)
}

// Int64 sign-extends the shape's width.
func (v *NumberValue) Int64() int64 {
	bits := truncBits(v.Bits, v.Num.Width)
	shift := uint(64 - v.Num.Width*8)
	return int64(bits<<shift) >> shift
}

// Float64 reinterprets the bits per the shape's width.
func (v *NumberValue) Float64() float64 {
	if v.Num.Width == 4 {
		return float64(math.Float32frombits(uint32(v.Bits)))
	}
	return math.Float64frombits(v.Bits)
}

// SetUint64 stores bits truncated to the shape's width.
func (v *NumberValue) SetUint64(bits uint64) {
	v.Bits = truncBits(bits, v.Num.Width)
}

// SetInt64 stores a signed value as width-truncated two's complement.
func (v *NumberValue) SetInt64(n int64) {
	v.Bits = truncBits(uint64(n), v.Num.Width)
}

// BoolValue keeps the raw backing byte. Generation produces 0 or 1;
// mutation may leave any bit pattern, and that pattern is what serializes.
type BoolValue struct {
	B    *Bool
	Byte byte
}

func (v *BoolValue) Shape() Shape        { return v.B }
func (v *BoolValue) SerializedSize() int { return 1 }

func (v *BoolValue) EncodeTo(w io.Writer, order binary.ByteOrder) {
	_, _ = w.Write([]byte{v.Byte})
}

func (v *BoolValue) Clone() Value {
	out := *v
	return &out
}

func (v *BoolValue) Bool() bool { return v.Byte != 0 }

// StringValue is UTF-8 text; size is the byte length, not the rune count.
type StringValue struct {
	Str *String
	S   string
}

func (v *StringValue) Shape() Shape        { return v.Str }
func (v *StringValue) SerializedSize() int { return len(v.S) }

func (v *StringValue) EncodeTo(w io.Writer, order binary.ByteOrder) {
	_, _ = io.WriteString(w, v.S)
}

func (v *StringValue) Clone() Value {
	out := *v
	return &out
}

// BytesValue is a raw byte sequence; encoding is a direct bulk write.
type BytesValue struct {
	Byt *Bytes
	B   []byte
}

func (v *BytesValue) Shape() Shape        { return v.Byt }
func (v *BytesValue) SerializedSize() int { return len(v.B) }

func (v *BytesValue) EncodeTo(w io.Writer, order binary.ByteOrder) {
	_, _ = w.Write(v.B)
}

func (v *BytesValue) Clone() Value {
	out := &BytesValue{Byt: v.Byt, B: make([]byte, len(v.B))}
	copy(out.B, v.B)
	return out
}

// SliceValue is a sequence of element values. Elements may differ in
// serialized size, so the size is the sum over elements, not a stride.
type SliceValue struct {
	Sl    *Slice
	Elems []Value
}

func (v *SliceValue) Shape() Shape { return v.Sl }

func (v *SliceValue) SerializedSize() int {
	total := 0
	for _, e := range v.Elems {
		total += e.SerializedSize()
	}
	return total
}

func (v *SliceValue) EncodeTo(w io.Writer, order binary.ByteOrder) {
	for _, e := range v.Elems {
		e.EncodeTo(w, order)
	}
}

func (v *SliceValue) Clone() Value {
	out := &SliceValue{Sl: v.Sl, Elems: make([]Value, len(v.Elems))}
	for i, e := range v.Elems {
		out.Elems[i] = e.Clone()
	}
	return out
}

// StructValue holds one value per declared field, in declaration order
// regardless of the order generation visited them in.
type StructValue struct {
	St     *Struct
	Fields []Value
}

func (v *StructValue) Shape() Shape { return v.St }

func (v *StructValue) SerializedSize() int {
	total := 0
	for _, f := range v.Fields {
		total += f.SerializedSize()
	}
	return total
}

func (v *StructValue) EncodeTo(w io.Writer, order binary.ByteOrder) {
	for _, f := range v.Fields {
		f.EncodeTo(w, order)
	}
}

func (v *StructValue) Clone() Value {
	out := &StructValue{St: v.St, Fields: make([]Value, len(v.Fields))}
	for i, f := range v.Fields {
		out.Fields[i] = f.Clone()
	}
	return out
}

// Field returns the value of the named field, or nil.
func (v *StructValue) Field(name string) Value {
	for i := range v.St.Fields {
		if v.St.Fields[i].Name == name {
			return v.Fields[i]
		}
	}
	return nil
}

// EnumValue is a possibly-invalid instance of a closed enumeration: either
// a declared variant value or an arbitrary out-of-range bit pattern. Both
// share the backing primitive's wire width, so the serialized size is the
// enum width no matter which is held.
type EnumValue struct {
	En    *Enum
	Valid bool
	Bits  uint64
}

func (v *EnumValue) Shape() Shape        { return v.En }
func (v *EnumValue) SerializedSize() int { return v.En.Width }

func (v *EnumValue) EncodeTo(w io.Writer, order binary.ByteOrder) {
	putBits(w, order, v.En.Width, v.Bits)
}

func (v *EnumValue) Clone() Value {
	out := *v
	return &out
}

// ToPrimitive yields the backing bits regardless of validity.
func (v *EnumValue) ToPrimitive() uint64 { return v.Bits }

// UnionValue holds the active variant index and its payload values. Only
// the payload serializes; the discriminant has no wire representation.
type UnionValue struct {
	Un      *Union
	Index   int
	Payload []Value
}

func (v *UnionValue) Shape() Shape { return v.Un }

func (v *UnionValue) SerializedSize() int {
	total := 0
	for _, p := range v.Payload {
		total += p.SerializedSize()
	}
	return total
}

func (v *UnionValue) EncodeTo(w io.Writer, order binary.ByteOrder) {
	for _, p := range v.Payload {
		p.EncodeTo(w, order)
	}
}

func (v *UnionValue) Clone() Value {
	out := &UnionValue{Un: v.Un, Index: v.Index, Payload: make([]Value, len(v.Payload))}
	for i, p := range v.Payload {
		out.Payload[i] = p.Clone()
	}
	return out
}

// DefaultValue builds the zero instance of a shape: zero numbers, false
// bools, empty sequences, first declared variants.
func DefaultValue(s Shape) Value {
	switch sh := s.(type) {
	case *Number:
		return &NumberValue{Num: sh}
	case *Bool:
		return &BoolValue{B: sh}
	case *String:
		return &StringValue{Str: sh}
	case *Bytes:
		return &BytesValue{Byt: sh}
	case *Slice:
		return &SliceValue{Sl: sh}
	case *Struct:
		v := &StructValue{St: sh, Fields: make([]Value, len(sh.Fields))}
		for i := range sh.Fields {
			v.Fields[i] = DefaultValue(sh.Fields[i].Shape)
		}
		return v
	case *Enum:
		return &EnumValue{En: sh, Valid: true, Bits: sh.Variants[0].Value}
	case *Union:
		variant := sh.Variants[0]
		v := &UnionValue{Un: sh, Payload: make([]Value, len(variant.Payload))}
		for i, p := range variant.Payload {
			v.Payload[i] = DefaultValue(p)
		}
		return v
	default:
		panic("shape: unknown shape kind")
	}
}
