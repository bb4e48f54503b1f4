package config

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapefuzz/shape"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
fuzzing:
  seed: 42
  count: 500
  parallel: 4
  max_size: 256
  endianness: little
  early_bail_rate: 0.2
  invalid_enum_rate: 0.1
  run_fixups: true
  mutation_rounds: 3
output:
  directory: out
monitoring:
  enabled: true
  metrics_port: 9191
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	want := &Config{
		Fuzzing: FuzzingConfig{
			Seed:            42,
			Count:           500,
			Parallel:        4,
			MaxSize:         256,
			Endianness:      "little",
			EarlyBailRate:   0.2,
			InvalidEnumRate: 0.1,
			RunFixups:       true,
			MutationRounds:  3,
		},
		Output: OutputConfig{Directory: "out"},
		Monitoring: MonitoringConfig{
			Enabled:     true,
			MetricsPort: 9191,
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("loaded config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, binary.LittleEndian, cfg.ByteOrder())
	assert.False(t, cfg.RandomEndianness())
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
fuzzing:
  count: 7
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, 7, cfg.Fuzzing.Count)
	assert.Equal(t, def.Fuzzing.MaxSize, cfg.Fuzzing.MaxSize)
	assert.Equal(t, def.Fuzzing.Endianness, cfg.Fuzzing.Endianness)
	assert.Equal(t, def.Output.Directory, cfg.Output.Directory)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		tweak  func(*Config)
		errStr string
	}{
		{"negative count", func(c *Config) { c.Fuzzing.Count = -1 }, "fuzzing.count"},
		{"negative parallel", func(c *Config) { c.Fuzzing.Parallel = -1 }, "fuzzing.parallel"},
		{"negative max size", func(c *Config) { c.Fuzzing.MaxSize = -1 }, "fuzzing.max_size"},
		{"bad endianness", func(c *Config) { c.Fuzzing.Endianness = "middle" }, "fuzzing.endianness"},
		{"bail rate above one", func(c *Config) { c.Fuzzing.EarlyBailRate = 1.5 }, "early_bail_rate"},
		{"negative enum rate", func(c *Config) { c.Fuzzing.InvalidEnumRate = -0.1 }, "invalid_enum_rate"},
		{"negative rounds", func(c *Config) { c.Fuzzing.MutationRounds = -1 }, "mutation_rounds"},
		{"empty output dir", func(c *Config) { c.Output.Directory = "" }, "output.directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.tweak(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errStr)
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}

func TestRandomEndianness(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fuzzing.Endianness = "random"
	assert.True(t, cfg.RandomEndianness())
	assert.Equal(t, binary.BigEndian, cfg.ByteOrder())
}

func TestBuildRegistry(t *testing.T) {
	path := writeConfig(t, `
shapes:
  - name: PacketKind
    kind: enum
    width: 2
    variants:
      - name: Data
        value: 1
        weight: 3
      - name: Ack
        value: 2
  - name: Header
    kind: struct
    fields:
      - name: version
        kind: uint16
        min: 1
        max: 16
      - name: kind
        kind: ref
        ref: PacketKind
      - name: flags
        kind: uint8
        weighted: min
  - name: Packet
    kind: struct
    fields:
      - name: header
        kind: ref
        ref: Header
      - name: payload
        kind: bytes
        cap: 128
      - name: words
        kind: slice
        cap: 8
        elem:
          kind: uint32
  - name: Message
    kind: union
    variants:
      - name: Ping
        payload:
          - kind: uint64
      - name: Quit
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	reg, err := cfg.BuildRegistry()
	require.NoError(t, err)

	assert.Equal(t, []string{"Header", "Message", "Packet", "PacketKind"}, reg.Names())

	kind, ok := reg.Lookup("PacketKind")
	require.True(t, ok)
	e := kind.(*shape.Enum)
	assert.Equal(t, 2, e.Width)
	assert.Equal(t, uint64(3), e.Variants[0].Weight)
	assert.Equal(t, uint64(1), e.Variants[1].Weight, "unset weight defaults to 1")

	header := reg.MustLookup("Header").(*shape.Struct)
	require.Len(t, header.Fields, 3)
	assert.Equal(t, int64(1), *header.Fields[0].Min)
	assert.Equal(t, int64(16), *header.Fields[0].Max)
	assert.Same(t, kind, header.Fields[1].Shape)
	assert.Equal(t, shape.WeightedMin, header.Fields[2].Weighted)

	packet := reg.MustLookup("Packet").(*shape.Struct)
	assert.Same(t, shape.Shape(header), packet.Fields[0].Shape)
	assert.Equal(t, 128, packet.Fields[1].Shape.(*shape.Bytes).Cap)
	words := packet.Fields[2].Shape.(*shape.Slice)
	assert.Equal(t, 8, words.Cap)
	assert.Equal(t, 4, words.Elem.MinSize())

	msg := reg.MustLookup("Message").(*shape.Union)
	require.Len(t, msg.Variants, 2)
	assert.Len(t, msg.Variants[0].Payload, 1)
	assert.Empty(t, msg.Variants[1].Payload)
}

func TestBuildRegistryErrors(t *testing.T) {
	tests := []struct {
		name   string
		shapes []ShapeDef
		errStr string
	}{
		{
			"unknown ref",
			[]ShapeDef{{Name: "S", Kind: "struct", Fields: []FieldDef{
				{Name: "f", TypeDef: TypeDef{Kind: "ref", Ref: "Missing"}},
			}}},
			"unknown shape reference",
		},
		{
			"forward ref",
			[]ShapeDef{
				{Name: "S", Kind: "struct", Fields: []FieldDef{
					{Name: "f", TypeDef: TypeDef{Kind: "ref", Ref: "Later"}},
				}},
				{Name: "Later", Kind: "enum", Variants: []VariantDef{{Name: "A", Value: 1}}},
			},
			"unknown shape reference",
		},
		{
			"unsupported kind",
			[]ShapeDef{{Name: "S", Kind: "map"}},
			"unsupported kind",
		},
		{
			"bad type kind",
			[]ShapeDef{{Name: "S", Kind: "struct", Fields: []FieldDef{
				{Name: "f", TypeDef: TypeDef{Kind: "uint24"}},
			}}},
			"unsupported type kind",
		},
		{
			"bad weighted",
			[]ShapeDef{{Name: "S", Kind: "struct", Fields: []FieldDef{
				{Name: "f", TypeDef: TypeDef{Kind: "uint8"}, Weighted: "middle"},
			}}},
			"weighted must be",
		},
		{
			"slice without elem",
			[]ShapeDef{{Name: "S", Kind: "struct", Fields: []FieldDef{
				{Name: "f", TypeDef: TypeDef{Kind: "slice"}},
			}}},
			"slice needs an elem",
		},
		{
			"duplicate name",
			[]ShapeDef{
				{Name: "S", Kind: "enum", Variants: []VariantDef{{Name: "A", Value: 1}}},
				{Name: "S", Kind: "enum", Variants: []VariantDef{{Name: "B", Value: 2}}},
			},
			"already registered",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Shapes = tt.shapes
			_, err := cfg.BuildRegistry()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errStr)
		})
	}
}
