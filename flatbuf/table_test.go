package flatbuf

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootErrors(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		_, err := Root([]byte{1, 2})
		require.ErrorIs(t, err, ErrTruncatedRoot)
	})

	t.Run("root out of bounds", func(t *testing.T) {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint32(buf, 100)
		_, err := Root(buf)
		require.ErrorIs(t, err, ErrTruncatedRoot)
	})
}

func TestTableReadsNewerSchema(t *testing.T) {
	// Writer knows one field; reader asks for slots the writer never had.
	b := NewBuilder(0)
	b.StartObject(1)
	b.PrependInt32Slot(0, 99, 0)
	root := b.EndObject()
	b.Finish(root)

	tab, err := Root(b.FinishedBytes())
	require.NoError(t, err)

	assert.Equal(t, int32(99), tab.Int32Slot(0, 0))

	// Slots past the vtable end read as absent, not out of bounds.
	assert.Equal(t, VOffsetT(0), tab.FieldOffset(5))
	assert.Equal(t, int32(-1), tab.Int32Slot(5, -1))
	assert.Equal(t, uint64(7), tab.Uint64Slot(9, 7))
	assert.Equal(t, "", tab.StringSlot(6))
	assert.Nil(t, tab.BytesSlot(7))

	_, ok := tab.TableSlot(8)
	assert.False(t, ok)
}

func TestTableScalarSlots(t *testing.T) {
	b := NewBuilder(0)
	b.StartObject(11)
	b.PrependBoolSlot(0, true, false)
	b.PrependInt8Slot(1, -8, 0)
	b.PrependUint8Slot(2, 8, 0)
	b.PrependInt16Slot(3, -16, 0)
	b.PrependUint16Slot(4, 16, 0)
	b.PrependInt32Slot(5, -32, 0)
	b.PrependUint32Slot(6, 32, 0)
	b.PrependInt64Slot(7, -64, 0)
	b.PrependUint64Slot(8, 64, 0)
	b.PrependFloat32Slot(9, 0.5, 0)
	b.PrependFloat64Slot(10, 0.25, 0)
	root := b.EndObject()
	b.Finish(root)

	tab, err := Root(b.FinishedBytes())
	require.NoError(t, err)

	assert.Equal(t, true, tab.BoolSlot(0, false))
	assert.Equal(t, int8(-8), tab.Int8Slot(1, 0))
	assert.Equal(t, uint8(8), tab.Uint8Slot(2, 0))
	assert.Equal(t, int16(-16), tab.Int16Slot(3, 0))
	assert.Equal(t, uint16(16), tab.Uint16Slot(4, 0))
	assert.Equal(t, int32(-32), tab.Int32Slot(5, 0))
	assert.Equal(t, uint32(32), tab.Uint32Slot(6, 0))
	assert.Equal(t, int64(-64), tab.Int64Slot(7, 0))
	assert.Equal(t, uint64(64), tab.Uint64Slot(8, 0))
	assert.Equal(t, float32(0.5), tab.Float32Slot(9, 0))
	assert.Equal(t, 0.25, tab.Float64Slot(10, 0))
}

func TestTableNested(t *testing.T) {
	b := NewBuilder(0)

	b.StartObject(1)
	b.PrependInt32Slot(0, 7, 0)
	child := b.EndObject()

	b.StartObject(2)
	b.PrependUOffsetTSlot(0, child)
	b.PrependInt32Slot(1, 1, 0)
	root := b.EndObject()
	b.Finish(root)

	tab, err := Root(b.FinishedBytes())
	require.NoError(t, err)

	inner, ok := tab.TableSlot(0)
	require.True(t, ok)
	assert.Equal(t, int32(7), inner.Int32Slot(0, 0))
}

func TestTableVectors(t *testing.T) {
	b := NewBuilder(0)
	b.StartVector(4, 3, 4)
	b.PrependInt32(3)
	b.PrependInt32(2)
	b.PrependInt32(1)
	vec := b.EndVector(3)

	b.StartObject(1)
	b.PrependUOffsetTSlot(0, vec)
	root := b.EndObject()
	b.Finish(root)

	tab, err := Root(b.FinishedBytes())
	require.NoError(t, err)

	pos, ok := tab.FieldPos(0)
	require.True(t, ok)
	assert.Equal(t, 3, tab.VectorLenAt(pos))

	base := tab.VectorBaseAt(pos)
	for i := 0; i < 3; i++ {
		assert.Equal(t, int32(i+1), tab.Int32At(base+UOffsetT(i*4)))
	}
}

func TestStringAliasesBuffer(t *testing.T) {
	b := NewBuilder(0)
	off := b.CreateString("alias")
	b.Finish(off)
	buf := b.FinishedBytes()

	tab := Table{Buf: buf}
	s := tab.StringAt(0)
	require.Equal(t, "alias", s)

	// Zero-copy: the string's bytes live inside the buffer.
	raw := tab.BytesAt(0)
	assert.Equal(t, "alias", string(raw))
	assert.Equal(t, cap(raw), len(raw))
}
