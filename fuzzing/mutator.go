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

// Package fuzzing generates and mutates structured values described by
// shapes. A Mutator drives one call tree at a time over its own random
// source; independent Mutators may run in parallel.
package fuzzing

import (
	"encoding/binary"

	"golang.org/x/exp/rand"

	"shapefuzz/shape"
)

// Config tunes a Mutator.
type Config struct {
	// RunFixups enables the post-generation/post-mutation fixup pass.
	RunFixups bool

	// EarlyBailRate is the per-field probability that a struct mutation
	// pass stops after the field it just touched.
	EarlyBailRate float64

	// InvalidEnumRate is the probability that enum generation produces a
	// bit pattern matching no declared variant.
	InvalidEnumRate float64
}

// DefaultConfig mirrors the rates a typical fuzz run wants: fixups on,
// occasional early bails, a thin stream of invalid discriminants.
func DefaultConfig() Config {
	return Config{
		RunFixups:       true,
		EarlyBailRate:   0.1,
		InvalidEnumRate: 0.05,
	}
}

// Mutator owns the random source for one generation/mutation call tree.
type Mutator struct {
	r   *rand.Rand
	cfg Config
}

// New wraps an existing random source.
func New(r *rand.Rand, cfg Config) *Mutator {
	return &Mutator{r: r, cfg: cfg}
}

// NewSeeded builds a Mutator over a fresh source. Identical seeds yield
// byte-identical generation streams.
func NewSeeded(seed uint64, cfg Config) *Mutator {
	return New(rand.New(rand.NewSource(seed)), cfg)
}

// Rand exposes the underlying source for callers that need extra draws.
func (m *Mutator) Rand() *rand.Rand {
	return m.r
}

func (m *Mutator) rand(n int) int {
	if n <= 0 {
		return 0
	}
	return m.r.Intn(n)
}

func (m *Mutator) bool() bool {
	return m.r.Int()%2 == 0
}

func (m *Mutator) shouldFixup() bool {
	return m.cfg.RunFixups
}

func (m *Mutator) shouldEarlyBail() bool {
	return m.cfg.EarlyBailRate > 0 && m.r.Float64() < m.cfg.EarlyBailRate
}

// RandByteOrder picks an endianness for a corpus entry.
func (m *Mutator) RandByteOrder() binary.ByteOrder {
	if m.bool() {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// chooseLen chooses the length of a range mutation in [1,n], preferring
// shorter ranges.
func (m *Mutator) chooseLen(n int) int {
	switch x := m.rand(100); {
	case x < 90:
		return m.rand(min(8, n)) + 1
	case x < 99:
		return m.rand(min(32, n)) + 1
	default:
		return m.rand(n) + 1
	}
}

// FillBytes overwrites the slice with random bytes.
func (m *Mutator) FillBytes(b []byte) {
	_, _ = m.r.Read(b)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// fixup runs the recursive repair pass: children first, then the owning
// struct's hook, so a parent sees already-repaired children.
func (m *Mutator) fixup(v shape.Value) {
	switch val := v.(type) {
	case *shape.StructValue:
		for _, f := range val.Fields {
			m.fixup(f)
		}
		if val.St.Fixup != nil {
			val.St.Fixup(val)
		}
	case *shape.UnionValue:
		for _, p := range val.Payload {
			m.fixup(p)
		}
	case *shape.SliceValue:
		for _, e := range val.Elems {
			m.fixup(e)
		}
	}
}

// NotifySuccess runs every field's on-success hook. Drivers call it once a
// concrete mutated value has been accepted; it is bookkeeping, not repair,
// and runs independently of fixups.
func (m *Mutator) NotifySuccess(v shape.Value) {
	switch val := v.(type) {
	case *shape.StructValue:
		for i, f := range val.Fields {
			m.NotifySuccess(f)
			if hook := val.St.Fields[i].OnSuccess; hook != nil {
				hook(f)
			}
		}
	case *shape.UnionValue:
		for _, p := range val.Payload {
			m.NotifySuccess(p)
		}
	case *shape.SliceValue:
		for _, e := range val.Elems {
			m.NotifySuccess(e)
		}
	}
}
