package flatbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderVectorLayout(t *testing.T) {
	b := NewBuilder(0)
	b.StartVector(4, 3, 4)
	b.PrependInt32(30)
	b.PrependInt32(20)
	b.PrependInt32(10)
	off := b.EndVector(3)
	b.Finish(off)

	// Root offset, count, then elements in input order, all little-endian.
	expected := []byte{
		0x04, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00,
		0x0A, 0x00, 0x00, 0x00,
		0x14, 0x00, 0x00, 0x00,
		0x1E, 0x00, 0x00, 0x00,
	}
	require.Equal(t, expected, b.FinishedBytes())
}

func TestBuilderTableRoundTrip(t *testing.T) {
	b := NewBuilder(0)
	name := b.CreateString("conv1")

	b.StartObject(4)
	b.PrependInt32Slot(0, 42, 0)
	b.PrependBoolSlot(1, true, false)
	b.PrependUOffsetTSlot(2, name)
	b.PrependInt64Slot(3, 1<<40, 0)
	root := b.EndObject()
	b.Finish(root)

	tab, err := Root(b.FinishedBytes())
	require.NoError(t, err)

	assert.Equal(t, int32(42), tab.Int32Slot(0, 0))
	assert.Equal(t, true, tab.BoolSlot(1, false))
	assert.Equal(t, "conv1", tab.StringSlot(2))
	assert.Equal(t, int64(1<<40), tab.Int64Slot(3, 0))

	// The int64 field must land on an 8-byte boundary.
	pos, ok := tab.FieldPos(3)
	require.True(t, ok)
	assert.Zero(t, pos%8)
}

func TestBuilderDefaultOmission(t *testing.T) {
	b := NewBuilder(0)
	b.StartObject(2)
	b.PrependInt32Slot(0, 0, 0)
	b.PrependBoolSlot(1, false, false)
	root := b.EndObject()
	b.Finish(root)

	tab, err := Root(b.FinishedBytes())
	require.NoError(t, err)

	// Nothing was stored; both fields read back as defaults.
	assert.Equal(t, VOffsetT(0), tab.FieldOffset(0))
	assert.Equal(t, VOffsetT(0), tab.FieldOffset(1))
	assert.Equal(t, int32(7), tab.Int32Slot(0, 7))
	assert.Equal(t, true, tab.BoolSlot(1, true))

	// All slots defaulted, so the vtable holds only its two metadata
	// entries and the table is just the back-pointer.
	vt := UOffsetT(SOffsetT(tab.Pos) - tab.SOffsetTAt(tab.Pos))
	assert.Equal(t, VOffsetT(4), tab.VOffsetTAt(vt))
	assert.Equal(t, VOffsetT(4), tab.VOffsetTAt(vt+2))
}

func TestBuilderVtableDedup(t *testing.T) {
	b := NewBuilder(0)

	makeTable := func(v int32) UOffsetT {
		b.StartObject(2)
		b.PrependInt32Slot(0, v, 0)
		return b.EndObject()
	}

	o1 := makeTable(11)
	o2 := makeTable(22)
	o3 := makeTable(33)
	b.Finish(o3)

	buf := b.FinishedBytes()
	vtableOf := func(off UOffsetT) UOffsetT {
		pos := UOffsetT(len(buf)) - off
		tab := Table{Buf: buf, Pos: pos}
		return UOffsetT(SOffsetT(pos) - tab.SOffsetTAt(pos))
	}

	// Structurally identical tables share one vtable.
	vt1 := vtableOf(o1)
	assert.Equal(t, vt1, vtableOf(o2))
	assert.Equal(t, vt1, vtableOf(o3))

	// Values stay distinct.
	for off, want := range map[UOffsetT]int32{o1: 11, o2: 22, o3: 33} {
		tab := Table{Buf: buf, Pos: UOffsetT(len(buf)) - off}
		assert.Equal(t, want, tab.Int32Slot(0, 0))
	}
}

func TestBuilderVtableNotDedupedAcrossShapes(t *testing.T) {
	b := NewBuilder(0)

	b.StartObject(2)
	b.PrependInt32Slot(0, 1, 0)
	o1 := b.EndObject()

	b.StartObject(2)
	b.PrependInt32Slot(1, 1, 0)
	o2 := b.EndObject()

	b.Finish(o2)
	buf := b.FinishedBytes()

	vtableOf := func(off UOffsetT) UOffsetT {
		pos := UOffsetT(len(buf)) - off
		tab := Table{Buf: buf, Pos: pos}
		return UOffsetT(SOffsetT(pos) - tab.SOffsetTAt(pos))
	}
	assert.NotEqual(t, vtableOf(o1), vtableOf(o2))
}

func TestBuilderCreateString(t *testing.T) {
	b := NewBuilder(0)
	off := b.CreateString("hello")
	b.Finish(off)

	buf := b.FinishedBytes()
	tab := Table{Buf: buf}
	assert.Equal(t, "hello", tab.StringAt(0))

	// Length prefix excludes the terminator; the terminator is present.
	pos := tab.Indirect(0)
	assert.Equal(t, uint32(5), tab.Uint32At(pos))
	assert.Equal(t, byte(0), buf[pos+SizeUOffsetT+5])
}

func TestBuilderCreateByteVector(t *testing.T) {
	b := NewBuilder(0)
	off := b.CreateByteVector([]byte{1, 2, 3, 4})
	b.Finish(off)

	tab := Table{Buf: b.FinishedBytes()}
	assert.Equal(t, []byte{1, 2, 3, 4}, tab.BytesAt(0))
}

func TestBuilderIdentifier(t *testing.T) {
	b := NewBuilder(0)
	b.StartObject(0)
	root := b.EndObject()
	b.FinishWithIdentifier(root, "TST1")

	buf := b.FinishedBytes()
	assert.True(t, HasIdentifier(buf, "TST1"))
	assert.False(t, HasIdentifier(buf, "TST2"))
	assert.False(t, HasIdentifier(buf, "T"))

	tab, err := Root(buf)
	require.NoError(t, err)
	assert.NotZero(t, tab.Pos)
}

func TestBuilderBadIdentifierPanics(t *testing.T) {
	b := NewBuilder(0)
	b.StartObject(0)
	root := b.EndObject()

	require.Panics(t, func() { b.FinishWithIdentifier(root, "TOOLONG") })
}

func TestBuilderMisusePanics(t *testing.T) {
	t.Run("nested start", func(t *testing.T) {
		b := NewBuilder(0)
		b.StartObject(1)
		require.Panics(t, func() { b.StartObject(1) })
	})

	t.Run("end without start", func(t *testing.T) {
		b := NewBuilder(0)
		require.Panics(t, func() { b.EndObject() })
	})

	t.Run("slot out of range", func(t *testing.T) {
		b := NewBuilder(0)
		b.StartObject(1)
		b.PrependInt32(1)
		require.Panics(t, func() { b.Slot(1) })
	})

	t.Run("slot without object", func(t *testing.T) {
		b := NewBuilder(0)
		require.Panics(t, func() { b.Slot(0) })
	})

	t.Run("string inside object", func(t *testing.T) {
		b := NewBuilder(0)
		b.StartObject(1)
		require.Panics(t, func() { b.CreateString("x") })
	})

	t.Run("unfinished bytes", func(t *testing.T) {
		b := NewBuilder(0)
		require.Panics(t, func() { b.FinishedBytes() })
	})

	t.Run("finish while open", func(t *testing.T) {
		b := NewBuilder(0)
		b.StartObject(1)
		require.Panics(t, func() { b.Finish(0) })
	})
}

func TestBuilderReset(t *testing.T) {
	build := func(b *Builder) []byte {
		b.StartVector(4, 2, 4)
		b.PrependInt32(2)
		b.PrependInt32(1)
		off := b.EndVector(2)
		b.Finish(off)
		return b.FinishedBytes()
	}

	b := NewBuilder(16)
	first := append([]byte(nil), build(b)...)
	b.Reset()
	second := build(b)

	assert.Equal(t, first, second)
}

func TestBuilderGrowth(t *testing.T) {
	// Start tiny and force repeated growth.
	b := NewBuilder(1)
	payload := make([]byte, 10_000)
	for i := range payload {
		payload[i] = byte(i)
	}
	off := b.CreateByteVector(payload)
	b.Finish(off)

	tab := Table{Buf: b.FinishedBytes()}
	assert.Equal(t, payload, tab.BytesAt(0))
}

func BenchmarkBuilderSmallTable(b *testing.B) {
	builder := NewBuilder(1024)
	for i := 0; i < b.N; i++ {
		builder.Reset()
		name := builder.CreateString("tensor")
		builder.StartObject(3)
		builder.PrependInt32Slot(0, int32(i), 0)
		builder.PrependUOffsetTSlot(1, name)
		builder.PrependBoolSlot(2, true, false)
		root := builder.EndObject()
		builder.Finish(root)
		_ = builder.FinishedBytes()
	}
}
