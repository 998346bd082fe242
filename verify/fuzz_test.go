package verify

import (
	"testing"

	"github.com/hupe1980/modelbuf/flatbuf"
	"github.com/hupe1980/modelbuf/schema"
)

// FuzzVerify feeds arbitrary bytes and mutations of valid buffers to the
// verifier. Verify must classify every input as valid or invalid without
// panicking or reading out of bounds; a valid verdict must never be followed
// by a panic when the buffer is actually walked.
func FuzzVerify(f *testing.F) {
	reg := schema.NewRegistry()
	reg.MustRegister(
		schema.MustTableDesc("Leaf",
			schema.Int32Field("value", 0, 0),
		),
		schema.MustTableDesc("Node",
			schema.StringField("name", 0),
			schema.TableField("leaf", 1, "Leaf"),
			schema.VectorField("weights", 2, schema.KindFloat32),
			schema.UnionTypeField("payload_type", 3),
			schema.UnionField("payload", 4, map[uint8]string{1: "Leaf"}),
			schema.TableVectorField("children", 5, "Leaf"),
		),
	)

	// Seed with a valid buffer and a few degenerate shapes.
	b := flatbuf.NewBuilder(128)
	node := reg.MustLookup("Node")
	leafDesc := reg.MustLookup("Leaf")

	b.StartObject(leafDesc.NumSlots())
	b.PrependInt32Slot(leafDesc.MustField("value").Slot, 42, 0)
	leaf := b.EndObject()

	name := b.CreateString("seed")
	b.StartObject(node.NumSlots())
	b.PrependUOffsetTSlot(node.MustField("name").Slot, name)
	b.PrependUOffsetTSlot(node.MustField("leaf").Slot, leaf)
	b.PrependUint8Slot(node.MustField("payload_type").Slot, 1, 0)
	b.PrependUOffsetTSlot(node.MustField("payload").Slot, leaf)
	root := b.EndObject()
	b.Finish(root)

	f.Add(append([]byte(nil), b.FinishedBytes()...))
	f.Add([]byte{})
	f.Add([]byte{0, 0, 0, 0})
	f.Add([]byte{4, 0, 0, 0, 0, 0, 0, 0})
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 1<<20 {
			t.Skip()
		}

		if err := Verify(reg, "Node", data); err != nil {
			return
		}

		// The verifier accepted the buffer; walking it must be safe.
		view, err := schema.Root(reg, "Node", data)
		if err != nil {
			t.Fatalf("verified buffer rejected by reader: %v", err)
		}
		_ = view.String("name")
		if leaf, ok := view.Table("leaf"); ok {
			_ = leaf.Int32("value")
		}
		if _, payload, ok := view.Union("payload"); ok {
			_ = payload.Int32("value")
		}
		if children, ok := view.Vector("children"); ok {
			for i := 0; i < children.Len(); i++ {
				_ = children.Table(i).Int32("value")
			}
		}
		if weights, ok := view.Vector("weights"); ok {
			for i := 0; i < weights.Len(); i++ {
				_ = weights.Float32(i)
			}
		}
	})
}
