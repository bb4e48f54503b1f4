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
	"sort"
)

// Registry maps type names to their shapes. Shapes register fully
// constructed, so per-type state such as an enum's weighted selector is
// built exactly once and reused across every generation call.
//
// A registry is written once during setup and read-only afterwards; the
// fuzzing engine only ever looks shapes up.
type Registry struct {
	shapes map[string]Shape
}

func NewRegistry() *Registry {
	return &Registry{shapes: make(map[string]Shape)}
}

// Register adds a named shape. Re-registering a name is a configuration
// error.
func (r *Registry) Register(name string, s Shape) error {
	if name == "" {
		return fmt.Errorf("registry: shape needs a name")
	}
	if s == nil {
		return fmt.Errorf("registry: shape %s is nil", name)
	}
	if _, ok := r.shapes[name]; ok {
		return fmt.Errorf("registry: shape %s already registered", name)
	}
	r.shapes[name] = s
	return nil
}

// Lookup returns the named shape.
func (r *Registry) Lookup(name string) (Shape, bool) {
	s, ok := r.shapes[name]
	return s, ok
}

// MustLookup panics when the name is unknown. Reaching for an unregistered
// shape is a wiring bug, not input the caller can recover from.
func (r *Registry) MustLookup(name string) Shape {
	s, ok := r.shapes[name]
	if !ok {
		panic(fmt.Sprintf("registry: unknown shape %s", name))
	}
	return s
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.shapes))
	for name := range r.shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
