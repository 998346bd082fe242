package flatbuf

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// Table is a read-only view of one table inside a finished buffer. Pos is
// the absolute byte position of the table's vtable back-pointer.
//
// A Table borrows the buffer; it never copies field data. Keep the buffer
// alive (and unmodified) for as long as any view derived from it is in use.
// Views over a finished buffer are safe for concurrent reads.
type Table struct {
	Buf []byte
	Pos UOffsetT
}

// Root reads the root offset at the start of buf and returns a view of the
// root table. It checks only that the root lands inside the buffer; use the
// verify package before trusting buffers from outside sources.
func Root(buf []byte) (Table, error) {
	if len(buf) < SizeUOffsetT {
		return Table{}, ErrTruncatedRoot
	}
	pos := binary.LittleEndian.Uint32(buf)
	if int64(pos)+SizeSOffsetT > int64(len(buf)) {
		return Table{}, ErrTruncatedRoot
	}
	return Table{Buf: buf, Pos: pos}, nil
}

// HasIdentifier reports whether buf carries the given 4-byte file identifier
// directly after the root offset.
func HasIdentifier(buf []byte, identifier string) bool {
	if len(identifier) != fileIdentifierLength {
		return false
	}
	if len(buf) < SizeUOffsetT+fileIdentifierLength {
		return false
	}
	return string(buf[SizeUOffsetT:SizeUOffsetT+fileIdentifierLength]) == identifier
}

// FieldOffset resolves a logical field slot through the table's vtable and
// returns the field's byte offset within the table, or 0 if the field is
// absent. Slots past the end of the vtable read as absent, which is what
// makes old buffers readable through newer schemas.
func (t Table) FieldOffset(slot int) VOffsetT {
	vtable := UOffsetT(SOffsetT(t.Pos) - t.SOffsetTAt(t.Pos))
	vo := slotOffset(slot)
	if vo < t.VOffsetTAt(vtable) {
		return t.VOffsetTAt(vtable + UOffsetT(vo))
	}
	return 0
}

// FieldPos returns the absolute position of a field's stored value, or false
// if the field is absent.
func (t Table) FieldPos(slot int) (UOffsetT, bool) {
	o := t.FieldOffset(slot)
	if o == 0 {
		return 0, false
	}
	return t.Pos + UOffsetT(o), true
}

// Indirect resolves the forward-pointing offset stored at pos.
func (t Table) Indirect(pos UOffsetT) UOffsetT {
	return pos + binary.LittleEndian.Uint32(t.Buf[pos:])
}

// StringAt returns the string referenced by the offset stored at pos. The
// returned string aliases the buffer.
func (t Table) StringAt(pos UOffsetT) string {
	b := t.BytesAt(pos)
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// BytesAt returns the byte vector referenced by the offset stored at pos.
// The returned slice aliases the buffer.
func (t Table) BytesAt(pos UOffsetT) []byte {
	pos = t.Indirect(pos)
	n := binary.LittleEndian.Uint32(t.Buf[pos:])
	start := pos + SizeUOffsetT
	return t.Buf[start : start+n : start+n]
}

// VectorLenAt returns the element count of the vector referenced by the
// offset stored at pos.
func (t Table) VectorLenAt(pos UOffsetT) int {
	pos = t.Indirect(pos)
	return int(binary.LittleEndian.Uint32(t.Buf[pos:]))
}

// VectorBaseAt returns the absolute position of the first element of the
// vector referenced by the offset stored at pos.
func (t Table) VectorBaseAt(pos UOffsetT) UOffsetT {
	return t.Indirect(pos) + SizeUOffsetT
}

// BoolAt reads a bool at an absolute position. Any nonzero byte reads as
// true; writers only ever emit 0 or 1.
func (t Table) BoolAt(pos UOffsetT) bool { return t.Buf[pos] != 0 }

// Uint8At reads a uint8 at an absolute position.
func (t Table) Uint8At(pos UOffsetT) uint8 { return t.Buf[pos] }

// Int8At reads an int8 at an absolute position.
func (t Table) Int8At(pos UOffsetT) int8 { return int8(t.Buf[pos]) }

// Uint16At reads a uint16 at an absolute position.
func (t Table) Uint16At(pos UOffsetT) uint16 { return binary.LittleEndian.Uint16(t.Buf[pos:]) }

// Int16At reads an int16 at an absolute position.
func (t Table) Int16At(pos UOffsetT) int16 { return int16(binary.LittleEndian.Uint16(t.Buf[pos:])) }

// Uint32At reads a uint32 at an absolute position.
func (t Table) Uint32At(pos UOffsetT) uint32 { return binary.LittleEndian.Uint32(t.Buf[pos:]) }

// Int32At reads an int32 at an absolute position.
func (t Table) Int32At(pos UOffsetT) int32 { return int32(binary.LittleEndian.Uint32(t.Buf[pos:])) }

// Uint64At reads a uint64 at an absolute position.
func (t Table) Uint64At(pos UOffsetT) uint64 { return binary.LittleEndian.Uint64(t.Buf[pos:]) }

// Int64At reads an int64 at an absolute position.
func (t Table) Int64At(pos UOffsetT) int64 { return int64(binary.LittleEndian.Uint64(t.Buf[pos:])) }

// Float32At reads a float32 at an absolute position.
func (t Table) Float32At(pos UOffsetT) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(t.Buf[pos:]))
}

// Float64At reads a float64 at an absolute position.
func (t Table) Float64At(pos UOffsetT) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(t.Buf[pos:]))
}

// SOffsetTAt reads a signed offset at an absolute position.
func (t Table) SOffsetTAt(pos UOffsetT) SOffsetT {
	return SOffsetT(binary.LittleEndian.Uint32(t.Buf[pos:]))
}

// VOffsetTAt reads a vtable entry at an absolute position.
func (t Table) VOffsetTAt(pos UOffsetT) VOffsetT {
	return binary.LittleEndian.Uint16(t.Buf[pos:])
}

// BoolSlot returns the bool field at the given slot, or def if absent.
func (t Table) BoolSlot(slot int, def bool) bool {
	if pos, ok := t.FieldPos(slot); ok {
		return t.BoolAt(pos)
	}
	return def
}

// Uint8Slot returns the uint8 field at the given slot, or def if absent.
func (t Table) Uint8Slot(slot int, def uint8) uint8 {
	if pos, ok := t.FieldPos(slot); ok {
		return t.Uint8At(pos)
	}
	return def
}

// Int8Slot returns the int8 field at the given slot, or def if absent.
func (t Table) Int8Slot(slot int, def int8) int8 {
	if pos, ok := t.FieldPos(slot); ok {
		return t.Int8At(pos)
	}
	return def
}

// Uint16Slot returns the uint16 field at the given slot, or def if absent.
func (t Table) Uint16Slot(slot int, def uint16) uint16 {
	if pos, ok := t.FieldPos(slot); ok {
		return t.Uint16At(pos)
	}
	return def
}

// Int16Slot returns the int16 field at the given slot, or def if absent.
func (t Table) Int16Slot(slot int, def int16) int16 {
	if pos, ok := t.FieldPos(slot); ok {
		return t.Int16At(pos)
	}
	return def
}

// Uint32Slot returns the uint32 field at the given slot, or def if absent.
func (t Table) Uint32Slot(slot int, def uint32) uint32 {
	if pos, ok := t.FieldPos(slot); ok {
		return t.Uint32At(pos)
	}
	return def
}

// Int32Slot returns the int32 field at the given slot, or def if absent.
func (t Table) Int32Slot(slot int, def int32) int32 {
	if pos, ok := t.FieldPos(slot); ok {
		return t.Int32At(pos)
	}
	return def
}

// Uint64Slot returns the uint64 field at the given slot, or def if absent.
func (t Table) Uint64Slot(slot int, def uint64) uint64 {
	if pos, ok := t.FieldPos(slot); ok {
		return t.Uint64At(pos)
	}
	return def
}

// Int64Slot returns the int64 field at the given slot, or def if absent.
func (t Table) Int64Slot(slot int, def int64) int64 {
	if pos, ok := t.FieldPos(slot); ok {
		return t.Int64At(pos)
	}
	return def
}

// Float32Slot returns the float32 field at the given slot, or def if absent.
func (t Table) Float32Slot(slot int, def float32) float32 {
	if pos, ok := t.FieldPos(slot); ok {
		return t.Float32At(pos)
	}
	return def
}

// Float64Slot returns the float64 field at the given slot, or def if absent.
func (t Table) Float64Slot(slot int, def float64) float64 {
	if pos, ok := t.FieldPos(slot); ok {
		return t.Float64At(pos)
	}
	return def
}

// TableSlot resolves a nested table field at the given slot.
func (t Table) TableSlot(slot int) (Table, bool) {
	pos, ok := t.FieldPos(slot)
	if !ok {
		return Table{}, false
	}
	return Table{Buf: t.Buf, Pos: t.Indirect(pos)}, true
}

// StringSlot returns the string field at the given slot, or "" if absent.
func (t Table) StringSlot(slot int) string {
	if pos, ok := t.FieldPos(slot); ok {
		return t.StringAt(pos)
	}
	return ""
}

// BytesSlot returns the byte-vector field at the given slot, or nil if
// absent.
func (t Table) BytesSlot(slot int) []byte {
	if pos, ok := t.FieldPos(slot); ok {
		return t.BytesAt(pos)
	}
	return nil
}
