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

// Package shape describes the structure of fuzzable values: their fields,
// variants, numeric widths and constraints. The fuzzing engine consumes
// shapes purely as data, so a registry can be built from static
// declarations or from configuration files.
package shape

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Kind identifies the structural category of a shape.
type Kind int

const (
	KindNumber Kind = iota
	KindBool
	KindString
	KindBytes
	KindSlice
	KindStruct
	KindEnum
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindSlice:
		return "slice"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindUnion:
		return "union"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Shape is the static description of a value's structure.
type Shape interface {
	Kind() Kind

	// FixedSize reports whether every instance of the shape serializes to
	// the same number of bytes.
	FixedSize() bool

	// MinSize is the smallest possible serialized size of an instance.
	MinSize() int

	// MinNonzeroSize is the smallest nonzero serialized size of one
	// element of this shape. Generators consult it to decide whether a
	// remaining byte budget can still admit another element.
	MinNonzeroSize() int
}

const (
	// DefaultStringCap bounds generated string lengths when no byte
	// budget is in effect.
	DefaultStringCap = 32
	// DefaultBytesCap bounds generated byte-sequence lengths when no
	// byte budget is in effect.
	DefaultBytesCap = 64
	// DefaultSliceCap bounds generated element counts when no byte
	// budget is in effect.
	DefaultSliceCap = 16
)

// Number is a fixed-width scalar. Width is the serialized byte width.
type Number struct {
	Width  int
	Signed bool
	Float  bool
}

// NewNumber validates the width. Floats must be 4 or 8 bytes wide.
func NewNumber(width int, signed, float bool) (*Number, error) {
	switch width {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("unsupported number width %d", width)
	}
	if float && width < 4 {
		return nil, fmt.Errorf("unsupported float width %d", width)
	}
	return &Number{Width: width, Signed: signed, Float: float}, nil
}

func (n *Number) Kind() Kind          { return KindNumber }
func (n *Number) FixedSize() bool     { return true }
func (n *Number) MinSize() int        { return n.Width }
func (n *Number) MinNonzeroSize() int { return n.Width }

// Bool serializes as a single byte. The backing byte is not normalized to
// 0/1 so out-of-range bit patterns survive a round trip.
type Bool struct{}

func (b *Bool) Kind() Kind          { return KindBool }
func (b *Bool) FixedSize() bool     { return true }
func (b *Bool) MinSize() int        { return 1 }
func (b *Bool) MinNonzeroSize() int { return 1 }

// String is UTF-8 text; its serialized size is the byte length.
type String struct {
	// Cap limits generated lengths in bytes.
	Cap int
}

func NewString(capBytes int) *String {
	if capBytes <= 0 {
		capBytes = DefaultStringCap
	}
	return &String{Cap: capBytes}
}

func (s *String) Kind() Kind          { return KindString }
func (s *String) FixedSize() bool     { return false }
func (s *String) MinSize() int        { return 0 }
func (s *String) MinNonzeroSize() int { return 1 }

// Bytes is a raw byte sequence.
type Bytes struct {
	Cap int
}

func NewBytes(capBytes int) *Bytes {
	if capBytes <= 0 {
		capBytes = DefaultBytesCap
	}
	return &Bytes{Cap: capBytes}
}

func (b *Bytes) Kind() Kind          { return KindBytes }
func (b *Bytes) FixedSize() bool     { return false }
func (b *Bytes) MinSize() int        { return 0 }
func (b *Bytes) MinNonzeroSize() int { return 1 }

// Slice is a variable-length sequence of one element shape.
type Slice struct {
	Elem Shape
	Cap  int
}

func NewSlice(elem Shape, capElems int) (*Slice, error) {
	if elem == nil {
		return nil, fmt.Errorf("slice needs an element shape")
	}
	if capElems <= 0 {
		capElems = DefaultSliceCap
	}
	return &Slice{Elem: elem, Cap: capElems}, nil
}

func (s *Slice) Kind() Kind          { return KindSlice }
func (s *Slice) FixedSize() bool     { return false }
func (s *Slice) MinSize() int        { return 0 }
func (s *Slice) MinNonzeroSize() int { return s.Elem.MinNonzeroSize() }

// Field is one named member of a struct shape, with its declared
// constraint overrides.
type Field struct {
	Name     string
	Shape    Shape
	Min      *int64
	Max      *int64 // exclusive
	Weighted Weighted

	// Ignore skips generation and mutation; the field keeps its default.
	Ignore bool

	// Init supplies a fixed initializer that bypasses random generation.
	Init func() Value

	// OnSuccess runs for the field's value when a mutated value is
	// accepted by the driver.
	OnSuccess func(Value)
}

// Constraints builds the constraint derived from the field's declared
// overrides, carrying the given remaining byte budget.
func (f *Field) Constraints(maxSize *int) *Constraints {
	c := &Constraints{Min: f.Min, Max: f.Max, Weighted: f.Weighted}
	if maxSize != nil {
		size := *maxSize
		c.MaxSize = &size
	}
	return c
}

// Struct is a record of named fields, serialized in declaration order.
type Struct struct {
	Name   string
	Fields []Field

	// Fixup repairs cross-field invariants after generation or mutation,
	// e.g. a length field that must match a companion buffer.
	Fixup func(*StructValue)

	fixed bool
}

// NewStruct validates field constraints and precomputes size-fixedness.
func NewStruct(name string, fields []Field) (*Struct, error) {
	if name == "" {
		return nil, fmt.Errorf("struct needs a name")
	}
	fixed := true
	for i := range fields {
		f := &fields[i]
		if f.Name == "" {
			return nil, fmt.Errorf("struct %s: field %d needs a name", name, i)
		}
		if f.Shape == nil {
			return nil, fmt.Errorf("struct %s: field %s needs a shape", name, f.Name)
		}
		c := Constraints{Min: f.Min, Max: f.Max}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("struct %s: field %s: %v", name, f.Name, err)
		}
		if !f.Shape.FixedSize() {
			fixed = false
		}
	}
	return &Struct{Name: name, Fields: fields, fixed: fixed}, nil
}

func (s *Struct) Kind() Kind      { return KindStruct }
func (s *Struct) FixedSize() bool { return s.fixed }

func (s *Struct) MinSize() int {
	total := 0
	for i := range s.Fields {
		total += s.Fields[i].Shape.MinSize()
	}
	return total
}

func (s *Struct) MinNonzeroSize() int {
	if min := s.MinSize(); min > 0 {
		return min
	}
	return 1
}

// EnumVariant is one declared value of a closed enumeration.
type EnumVariant struct {
	Name   string
	Value  uint64
	Weight uint64
	Ignore bool
}

// Enum is a closed enumeration over a fixed-width unsigned backing
// primitive. Instances are possibly-invalid: a generated value may hold a
// bit pattern matching no declared variant.
type Enum struct {
	Name     string
	Width    int
	Variants []EnumVariant

	selector *WeightedIndex
	live     []int // indices of variants the generator may draw
}

// NewEnum validates the variant set and builds the weighted selector once,
// so draws during fuzzing pay no construction cost.
func NewEnum(name string, width int, variants []EnumVariant) (*Enum, error) {
	switch width {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("enum %s: unsupported width %d", name, width)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("enum %s: needs at least one variant", name)
	}
	seen := make(map[uint64]string, len(variants))
	var live []int
	var weights []uint64
	for i, v := range variants {
		if prev, ok := seen[v.Value]; ok {
			return nil, fmt.Errorf("enum %s: variants %s and %s share value %d", name, prev, v.Name, v.Value)
		}
		seen[v.Value] = v.Name
		if width < 8 && v.Value >= uint64(1)<<(uint(width)*8) {
			return nil, fmt.Errorf("enum %s: variant %s value %d exceeds width %d", name, v.Name, v.Value, width)
		}
		if v.Ignore {
			continue
		}
		live = append(live, i)
		weights = append(weights, v.Weight)
	}
	selector, err := NewWeightedIndex(weights)
	if err != nil {
		return nil, fmt.Errorf("enum %s: %v", name, err)
	}
	return &Enum{Name: name, Width: width, Variants: variants, selector: selector, live: live}, nil
}

func (e *Enum) Kind() Kind          { return KindEnum }
func (e *Enum) FixedSize() bool     { return true }
func (e *Enum) MinSize() int        { return e.Width }
func (e *Enum) MinNonzeroSize() int { return e.Width }

// PickVariant draws one non-ignored variant index per the declared weights.
func (e *Enum) PickVariant(r *rand.Rand) int {
	return e.live[e.selector.Pick(r)]
}

// Contains reports whether bits matches a declared variant value.
func (e *Enum) Contains(bits uint64) bool {
	for i := range e.Variants {
		if e.Variants[i].Value == bits {
			return true
		}
	}
	return false
}

// UnionVariant is one payload-carrying alternative of a union shape.
type UnionVariant struct {
	Name    string
	Weight  uint64
	Ignore  bool
	Payload []Shape
}

// Union is a sum type whose variants carry payload fields. The wire
// representation is the held variant's payload alone; no tag is emitted.
type Union struct {
	Name     string
	Variants []UnionVariant

	selector *WeightedIndex
	live     []int
}

// NewUnion validates the variant set and builds the weighted selector once.
func NewUnion(name string, variants []UnionVariant) (*Union, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("union %s: needs at least one variant", name)
	}
	var live []int
	var weights []uint64
	for i, v := range variants {
		if v.Name == "" {
			return nil, fmt.Errorf("union %s: variant %d needs a name", name, i)
		}
		for j, p := range v.Payload {
			if p == nil {
				return nil, fmt.Errorf("union %s: variant %s payload %d is nil", name, v.Name, j)
			}
		}
		if v.Ignore {
			continue
		}
		live = append(live, i)
		weights = append(weights, v.Weight)
	}
	selector, err := NewWeightedIndex(weights)
	if err != nil {
		return nil, fmt.Errorf("union %s: %v", name, err)
	}
	return &Union{Name: name, Variants: variants, selector: selector, live: live}, nil
}

func (u *Union) Kind() Kind { return KindUnion }

func (u *Union) FixedSize() bool {
	size := -1
	for _, i := range u.live {
		total := 0
		for _, p := range u.Variants[i].Payload {
			if !p.FixedSize() {
				return false
			}
			total += p.MinSize()
		}
		if size >= 0 && total != size {
			return false
		}
		size = total
	}
	return true
}

func (u *Union) MinSize() int {
	min := -1
	for _, i := range u.live {
		total := 0
		for _, p := range u.Variants[i].Payload {
			total += p.MinSize()
		}
		if min < 0 || total < min {
			min = total
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

func (u *Union) MinNonzeroSize() int {
	if min := u.MinSize(); min > 0 {
		return min
	}
	return 1
}

// PickVariant draws one non-ignored variant index per the declared weights.
func (u *Union) PickVariant(r *rand.Rand) int {
	return u.live[u.selector.Pick(r)]
}
