package fuzzing

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapefuzz/shape"
)

func mustNumber(t *testing.T, width int, signed bool) *shape.Number {
	t.Helper()
	n, err := shape.NewNumber(width, signed, false)
	require.NoError(t, err)
	return n
}

// packetShape builds a representative variable-size struct: bounded
// version, an enum, raw payload bytes and a list of words.
func packetShape(t *testing.T) *shape.Struct {
	t.Helper()
	kind, err := shape.NewEnum("Kind", 1, []shape.EnumVariant{
		{Name: "Data", Value: 1, Weight: 3},
		{Name: "Ack", Value: 2, Weight: 1},
	})
	require.NoError(t, err)
	words, err := shape.NewSlice(mustNumber(t, 4, false), 8)
	require.NoError(t, err)

	lo, hi := int64(1), int64(16)
	st, err := shape.NewStruct("Packet", []shape.Field{
		{Name: "version", Shape: mustNumber(t, 2, false), Min: &lo, Max: &hi},
		{Name: "kind", Shape: kind},
		{Name: "payload", Shape: shape.NewBytes(32)},
		{Name: "words", Shape: words},
	})
	require.NoError(t, err)
	return st
}

func TestGenerateDeterministic(t *testing.T) {
	st := packetShape(t)
	gen := func() []byte {
		m := NewSeeded(1234, DefaultConfig())
		v := m.Generate(st, shape.WithMaxSize(64))
		return shape.EncodeToBytes(v, binary.BigEndian)
	}
	first := gen()
	second := gen()
	assert.Equal(t, first, second, "identically seeded sources must produce byte-identical output")
	assert.NotEmpty(t, first)
}

func TestGenerateZeroBudgetYieldsEmptySlice(t *testing.T) {
	words, err := shape.NewSlice(mustNumber(t, 4, false), 8)
	require.NoError(t, err)

	m := NewSeeded(99, DefaultConfig())
	for i := 0; i < 50; i++ {
		v := m.Generate(words, shape.WithMaxSize(0)).(*shape.SliceValue)
		assert.Empty(t, v.Elems, "element min size 4 cannot fit a zero budget")
	}
}

func TestGenerateRespectsBudget(t *testing.T) {
	text := shape.NewString(64)
	st, err := shape.NewStruct("Msg", []shape.Field{
		{Name: "a", Shape: mustNumber(t, 2, false)},
		{Name: "b", Shape: mustNumber(t, 4, false)},
		{Name: "text", Shape: text},
	})
	require.NoError(t, err)

	for seed := uint64(0); seed < 200; seed++ {
		m := NewSeeded(seed, DefaultConfig())
		v := m.Generate(st, shape.WithMaxSize(20))
		encoded := shape.EncodeToBytes(v, binary.LittleEndian)
		assert.LessOrEqual(t, len(encoded), 20, "seed %d", seed)
	}
}

func TestGenerateBoundedNumber(t *testing.T) {
	lo, hi := int64(1), int64(10)
	n := mustNumber(t, 1, false)
	st, err := shape.NewStruct("B", []shape.Field{
		{Name: "v", Shape: n, Min: &lo, Max: &hi},
	})
	require.NoError(t, err)

	m := NewSeeded(5, DefaultConfig())
	for i := 0; i < 300; i++ {
		v := m.Generate(st, nil).(*shape.StructValue)
		got := v.Fields[0].(*shape.NumberValue).Int64()
		assert.GreaterOrEqual(t, got, int64(1))
		assert.Less(t, got, int64(10), "max bound is exclusive")
	}
}

func TestGenerateWeightedMinBias(t *testing.T) {
	lo, hi := int64(0), int64(100)
	n := mustNumber(t, 2, false)
	stMin, err := shape.NewStruct("Lo", []shape.Field{
		{Name: "v", Shape: n, Min: &lo, Max: &hi, Weighted: shape.WeightedMin},
	})
	require.NoError(t, err)
	stMax, err := shape.NewStruct("Hi", []shape.Field{
		{Name: "v", Shape: n, Min: &lo, Max: &hi, Weighted: shape.WeightedMax},
	})
	require.NoError(t, err)

	m := NewSeeded(7, DefaultConfig())
	var sumMin, sumMax int64
	const rounds = 2000
	for i := 0; i < rounds; i++ {
		sumMin += m.Generate(stMin, nil).(*shape.StructValue).Fields[0].(*shape.NumberValue).Int64()
		sumMax += m.Generate(stMax, nil).(*shape.StructValue).Fields[0].(*shape.NumberValue).Int64()
	}
	assert.Less(t, sumMin/rounds, int64(50), "min-weighted draws average below the midpoint")
	assert.Greater(t, sumMax/rounds, int64(50), "max-weighted draws average above the midpoint")
}

func TestGenerateIgnoredFieldKeepsDefault(t *testing.T) {
	st, err := shape.NewStruct("I", []shape.Field{
		{Name: "skip", Shape: mustNumber(t, 8, false), Ignore: true},
		{Name: "gen", Shape: mustNumber(t, 8, false)},
	})
	require.NoError(t, err)

	m := NewSeeded(11, DefaultConfig())
	v := m.Generate(st, nil).(*shape.StructValue)
	assert.Equal(t, uint64(0), v.Fields[0].(*shape.NumberValue).Bits)
}

func TestGenerateInitFieldBypassesRandomness(t *testing.T) {
	n := mustNumber(t, 4, false)
	st, err := shape.NewStruct("F", []shape.Field{
		{Name: "magic", Shape: n, Init: func() shape.Value {
			return &shape.NumberValue{Num: n, Bits: 0xDEADBEEF}
		}},
	})
	require.NoError(t, err)

	m := NewSeeded(12, DefaultConfig())
	for i := 0; i < 10; i++ {
		v := m.Generate(st, nil).(*shape.StructValue)
		assert.Equal(t, uint64(0xDEADBEEF), v.Fields[0].(*shape.NumberValue).Bits)
	}
}

func TestGenerateFixupRepairsLengthField(t *testing.T) {
	n := mustNumber(t, 2, false)
	st, err := shape.NewStruct("Framed", []shape.Field{
		{Name: "length", Shape: n},
		{Name: "body", Shape: shape.NewBytes(32)},
	})
	require.NoError(t, err)
	st.Fixup = func(v *shape.StructValue) {
		body := v.Field("body").(*shape.BytesValue)
		v.Field("length").(*shape.NumberValue).SetUint64(uint64(len(body.B)))
	}

	m := NewSeeded(13, DefaultConfig())
	for i := 0; i < 50; i++ {
		v := m.Generate(st, nil).(*shape.StructValue)
		body := v.Field("body").(*shape.BytesValue)
		length := v.Field("length").(*shape.NumberValue)
		assert.Equal(t, uint64(len(body.B)), length.Uint64())
	}
}

func TestGenerateEnumInvalidDiscriminants(t *testing.T) {
	e, err := shape.NewEnum("K", 1, []shape.EnumVariant{
		{Name: "A", Value: 1, Weight: 1},
		{Name: "B", Value: 2, Weight: 1},
	})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.InvalidEnumRate = 1.0
	m := NewSeeded(21, cfg)
	sawInvalid := false
	for i := 0; i < 100; i++ {
		v := m.Generate(e, nil).(*shape.EnumValue)
		if !v.Valid {
			sawInvalid = true
			assert.False(t, e.Contains(v.Bits), "invalid bits must match no declared variant")
		}
	}
	assert.True(t, sawInvalid)

	cfg.InvalidEnumRate = 0
	m = NewSeeded(22, cfg)
	for i := 0; i < 100; i++ {
		v := m.Generate(e, nil).(*shape.EnumValue)
		assert.True(t, v.Valid)
		assert.True(t, e.Contains(v.Bits))
	}
}

func TestGenerateUnionRecursesChosenVariantOnly(t *testing.T) {
	u16 := mustNumber(t, 2, false)
	un, err := shape.NewUnion("Msg", []shape.UnionVariant{
		{Name: "Ping", Weight: 1, Payload: []shape.Shape{u16}},
		{Name: "Quit", Weight: 1},
		{Name: "Never", Weight: 1, Ignore: true, Payload: []shape.Shape{u16}},
	})
	require.NoError(t, err)

	m := NewSeeded(31, DefaultConfig())
	for i := 0; i < 200; i++ {
		v := m.Generate(un, nil).(*shape.UnionValue)
		assert.NotEqual(t, 2, v.Index, "ignored variants are never generated")
		assert.Len(t, v.Payload, len(un.Variants[v.Index].Payload))
	}
}

func TestGenerateUnionRespectsBudget(t *testing.T) {
	text := shape.NewString(64)
	un, err := shape.NewUnion("Rec", []shape.UnionVariant{
		{Name: "Framed", Weight: 1, Payload: []shape.Shape{text, mustNumber(t, 4, false)}},
	})
	require.NoError(t, err)

	for seed := uint64(0); seed < 200; seed++ {
		m := NewSeeded(seed, DefaultConfig())
		v := m.Generate(un, shape.WithMaxSize(10))
		assert.LessOrEqual(t, v.SerializedSize(), 10,
			"seed %d: variable payload must leave room for the fixed tail", seed)
	}
}

func TestGenerateLeavesCallerBudgetUntouched(t *testing.T) {
	st := packetShape(t)
	c := shape.WithMaxSize(64)

	m := NewSeeded(55, DefaultConfig())
	for i := 0; i < 20; i++ {
		m.Generate(st, c)
		assert.Equal(t, 64, c.RemainingSize(), "budgets decrement on local copies only")
	}
}

func TestGenerateHexStrings(t *testing.T) {
	text := shape.NewString(32)
	m := NewSeeded(66, DefaultConfig())

	sawHex := false
	for i := 0; i < 500 && !sawHex; i++ {
		v := m.Generate(text, nil).(*shape.StringValue)
		assert.LessOrEqual(t, len(v.S), 32)
		sawHex = strings.HasPrefix(v.S, "0x")
	}
	assert.True(t, sawHex, "a slice of generated strings is hex-shaped")
}

func TestGenerateEmptyStructIsCheap(t *testing.T) {
	st, err := shape.NewStruct("Empty", nil)
	require.NoError(t, err)
	m := NewSeeded(41, DefaultConfig())
	v := m.Generate(st, shape.WithMaxSize(0))
	assert.Equal(t, 0, v.SerializedSize())
}
