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
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
)

// WeightedIndex selects an index with probability proportional to its
// weight. It is built once per variant set and reused across draws, so a
// draw costs one random number and a binary search.
type WeightedIndex struct {
	cumulative []uint64
	total      uint64
}

// NewWeightedIndex builds a selector over the given weights. An empty
// vector or a zero total weight is a configuration error and fails here
// rather than at draw time.
func NewWeightedIndex(weights []uint64) (*WeightedIndex, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("weighted index needs at least one weight")
	}
	cumulative := make([]uint64, len(weights))
	var total uint64
	for i, w := range weights {
		if w > math.MaxUint64-total {
			return nil, fmt.Errorf("weighted index total overflows at weight %d", i)
		}
		total += w
		cumulative[i] = total
	}
	if total == 0 {
		return nil, fmt.Errorf("weighted index has zero total weight over %d entries", len(weights))
	}
	return &WeightedIndex{cumulative: cumulative, total: total}, nil
}

// Pick draws one index. The distribution is weight_i / sum(weights);
// zero-weight entries are never returned.
func (wi *WeightedIndex) Pick(r *rand.Rand) int {
	n := r.Uint64n(wi.total)
	return sort.Search(len(wi.cumulative), func(i int) bool {
		return wi.cumulative[i] > n
	})
}

// Len returns the number of outcomes.
func (wi *WeightedIndex) Len() int {
	return len(wi.cumulative)
}
