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
package benchmark

import (
	"fmt"
	"time"

	"shapefuzz/fuzzing"
	"shapefuzz/shape"
)

// benchBudget keeps variable-size shapes comparable across runs.
const benchBudget = 1024

// RunFullBench times generation and mutation with N rounds per registered
// shape.
func RunFullBench(reg *shape.Registry, n int) {
	for _, name := range reg.Names() {
		s := reg.MustLookup(name)
		printResult(fmt.Sprintf("BenchmarkGenerate/%s", name), timeGeneration(s, n))
		printResult(fmt.Sprintf("BenchmarkMutate/%s", name), timeMutation(s, n))
	}
}

func printResult(name string, took time.Duration) {
	fmt.Printf("Benchmark %v took %v \n", name, took.String())
}

func timeGeneration(s shape.Shape, n int) time.Duration {
	m := fuzzing.NewSeeded(uint64(time.Now().UnixNano()), fuzzing.DefaultConfig())
	c := shape.WithMaxSize(benchBudget)
	start := time.Now()
	for i := 0; i < n; i++ {
		m.Generate(s, c)
	}
	return time.Since(start)
}

func timeMutation(s shape.Shape, n int) time.Duration {
	m := fuzzing.NewSeeded(uint64(time.Now().UnixNano()), fuzzing.DefaultConfig())
	v := m.Generate(s, shape.WithMaxSize(benchBudget))
	start := time.Now()
	for i := 0; i < n; i++ {
		m.Mutate(v, nil)
	}
	return time.Since(start)
}
