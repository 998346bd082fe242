package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableDescValidation(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := NewTableDesc("Node",
			Int32Field("id", 0, 0),
			StringField("name", 1),
		)
		require.NoError(t, err)
		assert.Equal(t, "Node", d.Name())
		assert.Equal(t, 2, d.NumSlots())
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := NewTableDesc("")
		require.Error(t, err)
	})

	t.Run("duplicate slot", func(t *testing.T) {
		_, err := NewTableDesc("Node",
			Int32Field("a", 0, 0),
			Int32Field("b", 0, 0),
		)
		require.Error(t, err)
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := NewTableDesc("Node",
			Int32Field("a", 0, 0),
			Int32Field("a", 1, 0),
		)
		require.Error(t, err)
	})

	t.Run("union without tag", func(t *testing.T) {
		_, err := NewTableDesc("Node",
			UnionField("payload", 0, map[uint8]string{1: "A"}),
		)
		require.Error(t, err)
	})

	t.Run("union tag zero reserved", func(t *testing.T) {
		_, err := NewTableDesc("Node",
			UnionTypeField("payload_type", 0),
			UnionField("payload", 1, map[uint8]string{0: "None"}),
		)
		require.Error(t, err)
	})

	t.Run("sparse slots", func(t *testing.T) {
		d, err := NewTableDesc("Node",
			BoolField("late", 5, false),
		)
		require.NoError(t, err)
		assert.Equal(t, 6, d.NumSlots())
	})
}

func TestTableDescFieldLookup(t *testing.T) {
	d := MustTableDesc("Node",
		Int32Field("id", 0, 7),
		StringField("name", 1),
	)

	f, ok := d.Field("id")
	require.True(t, ok)
	assert.Equal(t, KindInt32, f.Kind)
	assert.Equal(t, int64(7), f.DefaultInt)

	_, ok = d.Field("missing")
	assert.False(t, ok)

	require.Panics(t, func() { d.MustField("missing") })

	// Fields come back in slot order regardless of declaration order.
	d2 := MustTableDesc("Rev",
		StringField("b", 1),
		Int32Field("a", 0, 0),
	)
	fields := d2.Fields()
	assert.Equal(t, "a", fields[0].Name)
	assert.Equal(t, "b", fields[1].Name)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	node := MustTableDesc("Node", Int32Field("id", 0, 0))

	require.NoError(t, reg.Register(node))
	require.Error(t, reg.Register(node), "duplicate registration must fail")

	d, ok := reg.Lookup("Node")
	require.True(t, ok)
	assert.Same(t, node, d)

	_, ok = reg.Lookup("Missing")
	assert.False(t, ok)
	require.Panics(t, func() { reg.MustLookup("Missing") })
}

func TestKindWidth(t *testing.T) {
	assert.Equal(t, 1, KindBool.Width())
	assert.Equal(t, 1, KindUnionType.Width())
	assert.Equal(t, 2, KindInt16.Width())
	assert.Equal(t, 4, KindFloat32.Width())
	assert.Equal(t, 4, KindString.Width())
	assert.Equal(t, 4, KindTable.Width())
	assert.Equal(t, 4, KindVector.Width())
	assert.Equal(t, 4, KindUnion.Width())
	assert.Equal(t, 8, KindFloat64.Width())

	assert.True(t, KindInt32.IsScalar())
	assert.True(t, KindUnionType.IsScalar())
	assert.False(t, KindString.IsScalar())
	assert.False(t, KindUnion.IsScalar())
}
