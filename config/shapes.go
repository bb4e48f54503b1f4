package config

import (
	"fmt"

	"shapefuzz/shape"
)

// TypeDef names a leaf or composite type inside a shape definition.
type TypeDef struct {
	// Kind is one of uint8/16/32/64, int8/16/32/64, float32/64, bool,
	// string, bytes, slice, or ref.
	Kind string `yaml:"kind"`

	// Ref names a previously defined shape when Kind is "ref".
	Ref string `yaml:"ref"`

	// Cap bounds generated lengths for string/bytes (bytes) and slice
	// (elements); 0 uses the engine default.
	Cap int `yaml:"cap"`

	// Elem is the element type when Kind is "slice".
	Elem *TypeDef `yaml:"elem"`
}

// FieldDef declares one struct field and its constraint overrides.
type FieldDef struct {
	Name     string `yaml:"name"`
	TypeDef  `yaml:",inline"`
	Min      *int64 `yaml:"min"`
	Max      *int64 `yaml:"max"` // exclusive
	Weighted string `yaml:"weighted"`
	Ignore   bool   `yaml:"ignore"`
}

// VariantDef declares one enum value or one union alternative.
type VariantDef struct {
	Name    string    `yaml:"name"`
	Value   uint64    `yaml:"value"`  // enum discriminant
	Weight  uint64    `yaml:"weight"` // 0 means the default weight of 1
	Ignore  bool      `yaml:"ignore"`
	Payload []TypeDef `yaml:"payload"` // union only
}

// ShapeDef declares one named top-level shape. References resolve against
// shapes defined earlier in the list.
type ShapeDef struct {
	Name     string       `yaml:"name"`
	Kind     string       `yaml:"kind"` // struct, enum or union
	Width    int          `yaml:"width"`
	Fields   []FieldDef   `yaml:"fields"`
	Variants []VariantDef `yaml:"variants"`
}

// BuildRegistry compiles the declared shapes into a registry. All
// validation errors (bad widths, unknown refs, zero weights, malformed
// bounds) surface here, before any fuzzing runs.
func (c *Config) BuildRegistry() (*shape.Registry, error) {
	reg := shape.NewRegistry()
	for i := range c.Shapes {
		def := &c.Shapes[i]
		s, err := buildShape(def, reg)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(def.Name, s); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func buildShape(def *ShapeDef, reg *shape.Registry) (shape.Shape, error) {
	switch def.Kind {
	case "struct":
		return buildStruct(def, reg)
	case "enum":
		return buildEnum(def)
	case "union":
		return buildUnion(def, reg)
	default:
		return nil, fmt.Errorf("shape %s: unsupported kind %q", def.Name, def.Kind)
	}
}

func buildStruct(def *ShapeDef, reg *shape.Registry) (shape.Shape, error) {
	fields := make([]shape.Field, 0, len(def.Fields))
	for i := range def.Fields {
		fd := &def.Fields[i]
		fs, err := resolveType(&fd.TypeDef, reg)
		if err != nil {
			return nil, fmt.Errorf("struct %s: field %s: %v", def.Name, fd.Name, err)
		}
		weighted, err := parseWeighted(fd.Weighted)
		if err != nil {
			return nil, fmt.Errorf("struct %s: field %s: %v", def.Name, fd.Name, err)
		}
		fields = append(fields, shape.Field{
			Name:     fd.Name,
			Shape:    fs,
			Min:      fd.Min,
			Max:      fd.Max,
			Weighted: weighted,
			Ignore:   fd.Ignore,
		})
	}
	return shape.NewStruct(def.Name, fields)
}

func buildEnum(def *ShapeDef) (shape.Shape, error) {
	variants := make([]shape.EnumVariant, 0, len(def.Variants))
	for _, vd := range def.Variants {
		variants = append(variants, shape.EnumVariant{
			Name:   vd.Name,
			Value:  vd.Value,
			Weight: defaultWeight(vd.Weight),
			Ignore: vd.Ignore,
		})
	}
	width := def.Width
	if width == 0 {
		width = 1
	}
	return shape.NewEnum(def.Name, width, variants)
}

func buildUnion(def *ShapeDef, reg *shape.Registry) (shape.Shape, error) {
	variants := make([]shape.UnionVariant, 0, len(def.Variants))
	for i := range def.Variants {
		vd := &def.Variants[i]
		payload := make([]shape.Shape, 0, len(vd.Payload))
		for j := range vd.Payload {
			ps, err := resolveType(&vd.Payload[j], reg)
			if err != nil {
				return nil, fmt.Errorf("union %s: variant %s payload %d: %v", def.Name, vd.Name, j, err)
			}
			payload = append(payload, ps)
		}
		variants = append(variants, shape.UnionVariant{
			Name:    vd.Name,
			Weight:  defaultWeight(vd.Weight),
			Ignore:  vd.Ignore,
			Payload: payload,
		})
	}
	return shape.NewUnion(def.Name, variants)
}

func resolveType(t *TypeDef, reg *shape.Registry) (shape.Shape, error) {
	switch t.Kind {
	case "uint8":
		return shape.NewNumber(1, false, false)
	case "uint16":
		return shape.NewNumber(2, false, false)
	case "uint32":
		return shape.NewNumber(4, false, false)
	case "uint64":
		return shape.NewNumber(8, false, false)
	case "int8":
		return shape.NewNumber(1, true, false)
	case "int16":
		return shape.NewNumber(2, true, false)
	case "int32":
		return shape.NewNumber(4, true, false)
	case "int64":
		return shape.NewNumber(8, true, false)
	case "float32":
		return shape.NewNumber(4, true, true)
	case "float64":
		return shape.NewNumber(8, true, true)
	case "bool":
		return &shape.Bool{}, nil
	case "string":
		return shape.NewString(t.Cap), nil
	case "bytes":
		return shape.NewBytes(t.Cap), nil
	case "slice":
		if t.Elem == nil {
			return nil, fmt.Errorf("slice needs an elem type")
		}
		elem, err := resolveType(t.Elem, reg)
		if err != nil {
			return nil, err
		}
		return shape.NewSlice(elem, t.Cap)
	case "ref":
		s, ok := reg.Lookup(t.Ref)
		if !ok {
			return nil, fmt.Errorf("unknown shape reference %q (references resolve against earlier definitions)", t.Ref)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported type kind %q", t.Kind)
	}
}

func parseWeighted(s string) (shape.Weighted, error) {
	switch s {
	case "", "none":
		return shape.WeightedNone, nil
	case "min":
		return shape.WeightedMin, nil
	case "max":
		return shape.WeightedMax, nil
	default:
		return shape.WeightedNone, fmt.Errorf("weighted must be none, min or max, got %q", s)
	}
}

func defaultWeight(w uint64) uint64 {
	if w == 0 {
		return 1
	}
	return w
}
