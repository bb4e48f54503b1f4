package shape

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNumber(t *testing.T, width int, signed bool) *Number {
	t.Helper()
	n, err := NewNumber(width, signed, false)
	require.NoError(t, err)
	return n
}

func TestNumberSizeMatchesEncoding(t *testing.T) {
	for _, width := range []int{1, 2, 4, 8} {
		v := &NumberValue{Num: mustNumber(t, width, false), Bits: 0xA1B2C3D4E5F60718}
		for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
			encoded := EncodeToBytes(v, order)
			assert.Equal(t, v.SerializedSize(), len(encoded), "width %d", width)
			assert.Equal(t, width, len(encoded), "width %d", width)
		}
	}
}

func TestNumberEndianness(t *testing.T) {
	v := &NumberValue{Num: mustNumber(t, 2, false), Bits: 0x0102}
	assert.Equal(t, []byte{0x01, 0x02}, EncodeToBytes(v, binary.BigEndian))
	assert.Equal(t, []byte{0x02, 0x01}, EncodeToBytes(v, binary.LittleEndian))
}

func TestBoolKeepsRawBackingByte(t *testing.T) {
	v := &BoolValue{B: &Bool{}, Byte: 0x07}
	assert.Equal(t, 1, v.SerializedSize())
	// A non-canonical bool serializes as-is, not normalized to 0x01.
	assert.Equal(t, []byte{0x07}, EncodeToBytes(v, binary.BigEndian))
	assert.True(t, v.Bool())
}

func TestStringSizeIsByteLength(t *testing.T) {
	v := &StringValue{Str: NewString(0), S: "héllo"}
	assert.Equal(t, 6, v.SerializedSize(), "UTF-8 byte length, not rune count")
	assert.Equal(t, []byte("héllo"), EncodeToBytes(v, binary.BigEndian))
}

func TestSliceSizeIsSumOfElements(t *testing.T) {
	str := NewString(0)
	sl, err := NewSlice(str, 0)
	require.NoError(t, err)

	empty := &SliceValue{Sl: sl}
	assert.Equal(t, 0, empty.SerializedSize())
	assert.Empty(t, EncodeToBytes(empty, binary.BigEndian))

	v := &SliceValue{Sl: sl, Elems: []Value{
		&StringValue{Str: str, S: "ab"},
		&StringValue{Str: str, S: "cdef"},
		&StringValue{Str: str, S: ""},
	}}
	assert.Equal(t, 6, v.SerializedSize())
	assert.Equal(t, []byte("abcdef"), EncodeToBytes(v, binary.BigEndian))
}

func TestEnumValueWidthIsConstant(t *testing.T) {
	e, err := NewEnum("Color", 2, []EnumVariant{
		{Name: "Red", Value: 1, Weight: 1},
		{Name: "Green", Value: 2, Weight: 1},
	})
	require.NoError(t, err)

	valid := &EnumValue{En: e, Valid: true, Bits: 2}
	invalid := &EnumValue{En: e, Bits: 7}
	assert.Equal(t, 2, valid.SerializedSize())
	assert.Equal(t, 2, invalid.SerializedSize(), "invalid variant shares the backing width")
	assert.Equal(t, uint64(7), invalid.ToPrimitive())
	assert.Equal(t, uint64(2), valid.ToPrimitive())
	assert.Equal(t, []byte{0x00, 0x07}, EncodeToBytes(invalid, binary.BigEndian))
}

func TestStructEncodesInDeclarationOrder(t *testing.T) {
	u8 := mustNumber(t, 1, false)
	st, err := NewStruct("Pair", []Field{
		{Name: "a", Shape: u8},
		{Name: "b", Shape: u8},
	})
	require.NoError(t, err)

	v := &StructValue{St: st, Fields: []Value{
		&NumberValue{Num: u8, Bits: 0xAA},
		&NumberValue{Num: u8, Bits: 0xBB},
	}}
	assert.Equal(t, 2, v.SerializedSize())
	assert.Equal(t, []byte{0xAA, 0xBB}, EncodeToBytes(v, binary.LittleEndian))
}

func TestUnionEncodesPayloadOnly(t *testing.T) {
	u16 := mustNumber(t, 2, false)
	un, err := NewUnion("Msg", []UnionVariant{
		{Name: "Ping", Weight: 1, Payload: []Shape{u16}},
		{Name: "Quit", Weight: 1},
	})
	require.NoError(t, err)

	v := &UnionValue{Un: un, Index: 0, Payload: []Value{&NumberValue{Num: u16, Bits: 0x0102}}}
	assert.Equal(t, 2, v.SerializedSize())
	assert.Equal(t, []byte{0x01, 0x02}, EncodeToBytes(v, binary.BigEndian))

	quit := &UnionValue{Un: un, Index: 1}
	assert.Equal(t, 0, quit.SerializedSize())
}

func TestDefaultValue(t *testing.T) {
	e, err := NewEnum("Kind", 1, []EnumVariant{
		{Name: "A", Value: 3, Weight: 1},
		{Name: "B", Value: 4, Weight: 1},
	})
	require.NoError(t, err)

	st, err := NewStruct("Rec", []Field{
		{Name: "n", Shape: mustNumber(t, 4, true)},
		{Name: "k", Shape: e},
		{Name: "s", Shape: NewString(0)},
	})
	require.NoError(t, err)

	v := DefaultValue(st).(*StructValue)
	assert.Equal(t, uint64(0), v.Fields[0].(*NumberValue).Bits)
	ev := v.Fields[1].(*EnumValue)
	assert.True(t, ev.Valid)
	assert.Equal(t, uint64(3), ev.Bits, "default enum is the first declared variant")
	assert.Equal(t, "", v.Fields[2].(*StringValue).S)
}

func TestNumberSignedAccessors(t *testing.T) {
	v := &NumberValue{Num: mustNumber(t, 1, true)}
	v.SetInt64(-1)
	assert.Equal(t, uint64(0xFF), v.Uint64())
	assert.Equal(t, int64(-1), v.Int64())
}
