package schema

import (
	"fmt"

	"github.com/hupe1980/modelbuf/flatbuf"
)

// View is a typed, lazy window onto one table in a finished buffer. It pairs
// a raw flatbuf.Table with the table's registered layout, so fields are
// addressed by name and absent fields come back as their declared defaults.
//
// A View borrows the underlying buffer and is safe for concurrent reads.
// Accessing a field with the wrong kind, or a name the layout does not
// declare, is a programming error and panics.
type View struct {
	reg  *Registry
	desc *TableDesc
	tab  flatbuf.Table
}

// Root returns a View of the buffer's root table, interpreted as typeName.
func Root(reg *Registry, typeName string, buf []byte) (View, error) {
	tab, err := flatbuf.Root(buf)
	if err != nil {
		return View{}, err
	}
	return NewView(reg, typeName, tab), nil
}

// NewView wraps an existing table position with the layout registered under
// typeName.
func NewView(reg *Registry, typeName string, tab flatbuf.Table) View {
	return View{reg: reg, desc: reg.MustLookup(typeName), tab: tab}
}

// Desc returns the layout the view reads through.
func (v View) Desc() *TableDesc { return v.desc }

// Raw returns the underlying table view.
func (v View) Raw() flatbuf.Table { return v.tab }

// Has reports whether the named field is physically present in the table.
// Reading an absent field is not an error; it returns the default.
func (v View) Has(name string) bool {
	f := v.desc.MustField(name)
	return v.tab.FieldOffset(f.Slot) != 0
}

func (v View) field(name string, want Kind) Field {
	f := v.desc.MustField(name)
	if f.Kind != want {
		panic(fmt.Sprintf("schema: %s.%s is %s, accessed as %s", v.desc.name, name, f.Kind, want))
	}
	return f
}

// Bool returns the named bool field or its default.
func (v View) Bool(name string) bool {
	f := v.field(name, KindBool)
	return v.tab.BoolSlot(f.Slot, f.DefaultBool)
}

// Int8 returns the named int8 field or its default.
func (v View) Int8(name string) int8 {
	f := v.field(name, KindInt8)
	return v.tab.Int8Slot(f.Slot, int8(f.DefaultInt))
}

// Uint8 returns the named uint8 field or its default.
func (v View) Uint8(name string) uint8 {
	f := v.field(name, KindUint8)
	return v.tab.Uint8Slot(f.Slot, uint8(f.DefaultInt))
}

// Int16 returns the named int16 field or its default.
func (v View) Int16(name string) int16 {
	f := v.field(name, KindInt16)
	return v.tab.Int16Slot(f.Slot, int16(f.DefaultInt))
}

// Uint16 returns the named uint16 field or its default.
func (v View) Uint16(name string) uint16 {
	f := v.field(name, KindUint16)
	return v.tab.Uint16Slot(f.Slot, uint16(f.DefaultInt))
}

// Int32 returns the named int32 field or its default.
func (v View) Int32(name string) int32 {
	f := v.field(name, KindInt32)
	return v.tab.Int32Slot(f.Slot, int32(f.DefaultInt))
}

// Uint32 returns the named uint32 field or its default.
func (v View) Uint32(name string) uint32 {
	f := v.field(name, KindUint32)
	return v.tab.Uint32Slot(f.Slot, uint32(f.DefaultInt))
}

// Int64 returns the named int64 field or its default.
func (v View) Int64(name string) int64 {
	f := v.field(name, KindInt64)
	return v.tab.Int64Slot(f.Slot, f.DefaultInt)
}

// Uint64 returns the named uint64 field or its default.
func (v View) Uint64(name string) uint64 {
	f := v.field(name, KindUint64)
	return v.tab.Uint64Slot(f.Slot, uint64(f.DefaultInt))
}

// Float32 returns the named float32 field or its default.
func (v View) Float32(name string) float32 {
	f := v.field(name, KindFloat32)
	return v.tab.Float32Slot(f.Slot, float32(f.DefaultFloat))
}

// Float64 returns the named float64 field or its default.
func (v View) Float64(name string) float64 {
	f := v.field(name, KindFloat64)
	return v.tab.Float64Slot(f.Slot, f.DefaultFloat)
}

// String returns the named string field, or "" if absent. The string
// aliases the buffer.
func (v View) String(name string) string {
	f := v.field(name, KindString)
	return v.tab.StringSlot(f.Slot)
}

// Table resolves the named nested-table field. The second return is false
// when the field is absent.
func (v View) Table(name string) (View, bool) {
	f := v.field(name, KindTable)
	tab, ok := v.tab.TableSlot(f.Slot)
	if !ok {
		return View{}, false
	}
	return NewView(v.reg, f.TableType, tab), true
}

// Union resolves the named union field, returning the type tag and a view of
// the stored variant. The bool is false when the union is absent (tag 0).
func (v View) Union(name string) (uint8, View, bool) {
	f := v.field(name, KindUnion)
	tagField := v.field(name+"_type", KindUnionType)
	tag := v.tab.Uint8Slot(tagField.Slot, 0)
	if tag == 0 {
		return 0, View{}, false
	}
	variant, ok := f.Variants[tag]
	if !ok {
		panic(fmt.Sprintf("schema: %s.%s: unregistered union tag %d", v.desc.name, name, tag))
	}
	tab, ok := v.tab.TableSlot(f.Slot)
	if !ok {
		return tag, View{}, false
	}
	return tag, NewView(v.reg, variant, tab), true
}

// Vector resolves the named vector field. The bool is false when the field
// is absent; an absent vector reads as length 0 either way.
func (v View) Vector(name string) (Vector, bool) {
	f := v.field(name, KindVector)
	pos, ok := v.tab.FieldPos(f.Slot)
	if !ok {
		return Vector{}, false
	}
	return Vector{
		reg:       v.reg,
		tab:       v.tab,
		base:      v.tab.VectorBaseAt(pos),
		n:         v.tab.VectorLenAt(pos),
		elem:      f.Elem,
		tableType: f.TableType,
	}, true
}

// VectorLen returns the length of the named vector field, or 0 if absent.
func (v View) VectorLen(name string) int {
	vec, ok := v.Vector(name)
	if !ok {
		return 0
	}
	return vec.Len()
}

// Vector is a typed view of one vector inside a buffer. Indexed access is
// bounds-checked; an out-of-range index panics with
// *flatbuf.ErrIndexOutOfRange but leaves the buffer and other views intact.
type Vector struct {
	reg       *Registry
	tab       flatbuf.Table
	base      flatbuf.UOffsetT
	n         int
	elem      Kind
	tableType string
}

// Len returns the element count.
func (vec Vector) Len() int { return vec.n }

// Elem returns the element kind.
func (vec Vector) Elem() Kind { return vec.elem }

func (vec Vector) pos(i int) flatbuf.UOffsetT {
	if i < 0 || i >= vec.n {
		panic(&flatbuf.ErrIndexOutOfRange{Index: i, Len: vec.n})
	}
	return vec.base + flatbuf.UOffsetT(i*vec.elem.Width())
}

func (vec Vector) elemCheck(want Kind) {
	if vec.elem != want {
		panic(fmt.Sprintf("schema: vector of %s accessed as %s", vec.elem, want))
	}
}

// Bool returns element i of a bool vector.
func (vec Vector) Bool(i int) bool {
	vec.elemCheck(KindBool)
	return vec.tab.BoolAt(vec.pos(i))
}

// Uint8 returns element i of a uint8 vector.
func (vec Vector) Uint8(i int) uint8 {
	vec.elemCheck(KindUint8)
	return vec.tab.Uint8At(vec.pos(i))
}

// Int8 returns element i of an int8 vector.
func (vec Vector) Int8(i int) int8 {
	vec.elemCheck(KindInt8)
	return vec.tab.Int8At(vec.pos(i))
}

// Int16 returns element i of an int16 vector.
func (vec Vector) Int16(i int) int16 {
	vec.elemCheck(KindInt16)
	return vec.tab.Int16At(vec.pos(i))
}

// Uint16 returns element i of a uint16 vector.
func (vec Vector) Uint16(i int) uint16 {
	vec.elemCheck(KindUint16)
	return vec.tab.Uint16At(vec.pos(i))
}

// Int32 returns element i of an int32 vector.
func (vec Vector) Int32(i int) int32 {
	vec.elemCheck(KindInt32)
	return vec.tab.Int32At(vec.pos(i))
}

// Uint32 returns element i of a uint32 vector.
func (vec Vector) Uint32(i int) uint32 {
	vec.elemCheck(KindUint32)
	return vec.tab.Uint32At(vec.pos(i))
}

// Int64 returns element i of an int64 vector.
func (vec Vector) Int64(i int) int64 {
	vec.elemCheck(KindInt64)
	return vec.tab.Int64At(vec.pos(i))
}

// Uint64 returns element i of a uint64 vector.
func (vec Vector) Uint64(i int) uint64 {
	vec.elemCheck(KindUint64)
	return vec.tab.Uint64At(vec.pos(i))
}

// Float32 returns element i of a float32 vector.
func (vec Vector) Float32(i int) float32 {
	vec.elemCheck(KindFloat32)
	return vec.tab.Float32At(vec.pos(i))
}

// Float64 returns element i of a float64 vector.
func (vec Vector) Float64(i int) float64 {
	vec.elemCheck(KindFloat64)
	return vec.tab.Float64At(vec.pos(i))
}

// String returns element i of a string vector. The string aliases the
// buffer.
func (vec Vector) String(i int) string {
	vec.elemCheck(KindString)
	return vec.tab.StringAt(vec.pos(i))
}

// Table returns element i of a table vector.
func (vec Vector) Table(i int) View {
	vec.elemCheck(KindTable)
	pos := vec.pos(i)
	tab := flatbuf.Table{Buf: vec.tab.Buf, Pos: vec.tab.Indirect(pos)}
	return NewView(vec.reg, vec.tableType, tab)
}

// Int32Values copies an int32 vector into a fresh slice.
func (vec Vector) Int32Values() []int32 {
	vec.elemCheck(KindInt32)
	out := make([]int32, vec.n)
	for i := range out {
		out[i] = vec.tab.Int32At(vec.base + flatbuf.UOffsetT(i*4))
	}
	return out
}

// Int64Values copies an int64 vector into a fresh slice.
func (vec Vector) Int64Values() []int64 {
	vec.elemCheck(KindInt64)
	out := make([]int64, vec.n)
	for i := range out {
		out[i] = vec.tab.Int64At(vec.base + flatbuf.UOffsetT(i*8))
	}
	return out
}

// Float32Values copies a float32 vector into a fresh slice.
func (vec Vector) Float32Values() []float32 {
	vec.elemCheck(KindFloat32)
	out := make([]float32, vec.n)
	for i := range out {
		out[i] = vec.tab.Float32At(vec.base + flatbuf.UOffsetT(i*4))
	}
	return out
}

// Uint8Values returns a uint8 vector as a byte slice aliasing the buffer.
func (vec Vector) Uint8Values() []byte {
	vec.elemCheck(KindUint8)
	return vec.tab.Buf[vec.base : vec.base+flatbuf.UOffsetT(vec.n) : vec.base+flatbuf.UOffsetT(vec.n)]
}
