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

import "fmt"

// Weighted selects which end of a numeric range sampling is biased towards.
type Weighted int

const (
	WeightedNone Weighted = iota
	WeightedMin
	WeightedMax
)

func (w Weighted) String() string {
	switch w {
	case WeightedMin:
		return "min"
	case WeightedMax:
		return "max"
	default:
		return "none"
	}
}

// Constraints holds the bounds that generation and mutation try to respect.
// Min and Max bound numeric leaves (Max is exclusive). MaxSize is the
// remaining serialized-byte budget for the value and everything below it.
type Constraints struct {
	Min      *int64
	Max      *int64 // exclusive
	Weighted Weighted
	MaxSize  *int
}

// Validate reports malformed bounds. A constraint with both ends set
// requires Min < Max.
func (c *Constraints) Validate() error {
	if c.Min != nil && c.Max != nil && *c.Min >= *c.Max {
		return fmt.Errorf("constraint min (%d) must be below max (%d)", *c.Min, *c.Max)
	}
	if c.MaxSize != nil && *c.MaxSize < 0 {
		return fmt.Errorf("constraint max_size must not be negative, got %d", *c.MaxSize)
	}
	return nil
}

// Clone returns a copy whose MaxSize can be decremented without affecting
// the caller's constraint. Bounds are shared, the budget is not.
func (c *Constraints) Clone() *Constraints {
	if c == nil {
		return nil
	}
	out := &Constraints{Min: c.Min, Max: c.Max, Weighted: c.Weighted}
	if c.MaxSize != nil {
		size := *c.MaxSize
		out.MaxSize = &size
	}
	return out
}

// RemainingSize returns the byte budget, or -1 when none is set.
func (c *Constraints) RemainingSize() int {
	if c == nil || c.MaxSize == nil {
		return -1
	}
	return *c.MaxSize
}

// ConsumeSize subtracts n bytes from the budget, clamping at zero. Children
// are allowed to overshoot a budget hint; the caller clamps instead of
// propagating a negative budget.
func (c *Constraints) ConsumeSize(n int) {
	if c == nil || c.MaxSize == nil {
		return
	}
	if n >= *c.MaxSize {
		*c.MaxSize = 0
		return
	}
	*c.MaxSize -= n
}

// WithMaxSize builds a budget-only constraint.
func WithMaxSize(n int) *Constraints {
	return &Constraints{MaxSize: &n}
}
