package flatbuf

import (
	"encoding/binary"
	"math"
)

// Builder assembles a flatbuf buffer back to front.
//
// Because all references are backward-pointing relative offsets, children
// must be written before the tables that reference them. The Builder
// enforces this with a single-active-object discipline: StartObject and
// StartVector may only be called when no other object is open, and data may
// only be prepended while one is.
//
// A Builder is single-writer. It must not be shared between goroutines;
// use one Builder (and one buffer) per goroutine instead.
type Builder struct {
	buf      []byte
	head     UOffsetT // write cursor; written data lives in buf[head:]
	minalign int
	vslots   []UOffsetT // slot index -> field offset for the open object, 0 = absent
	objEnd   UOffsetT
	vtables  []UOffsetT // end-relative offsets of every emitted vtable, for dedup
	nested   bool
	finished bool
}

// NewBuilder returns a Builder with an initial capacity of initialSize
// bytes. The buffer grows as needed; the size is only a hint.
func NewBuilder(initialSize int) *Builder {
	if initialSize <= 0 {
		initialSize = 0
	}
	return &Builder{
		buf:      make([]byte, initialSize),
		head:     UOffsetT(initialSize),
		minalign: 1,
		vtables:  make([]UOffsetT, 0, 16),
	}
}

// Reset truncates the internal buffer and bookkeeping so the Builder can be
// reused without reallocating.
func (b *Builder) Reset() {
	b.buf = b.buf[:cap(b.buf)]
	b.vslots = b.vslots[:0]
	b.vtables = b.vtables[:0]
	b.head = UOffsetT(len(b.buf))
	b.minalign = 1
	b.nested = false
	b.finished = false
}

// FinishedBytes returns the finished buffer. The slice aliases the Builder's
// internal storage; it stays valid until the next Reset. Panics with
// *ErrNotFinished if Finish has not been called.
func (b *Builder) FinishedBytes() []byte {
	if !b.finished {
		panic(&ErrNotFinished{})
	}
	return b.buf[b.head:]
}

// Offset reports the current write position as an offset relative to the end
// of the buffer. Offsets returned by EndObject, EndVector, and CreateString
// are in this space.
func (b *Builder) Offset() UOffsetT {
	return UOffsetT(len(b.buf)) - b.head
}

// grow doubles the buffer, keeping written data at the back.
func (b *Builder) grow() {
	if len(b.buf) >= maxBufferSize/2 {
		panic(&ErrSizeExceeded{Size: len(b.buf) * 2})
	}
	newLen := len(b.buf) * 2
	if newLen == 0 {
		newLen = 1
	}
	if cap(b.buf) >= newLen {
		b.buf = b.buf[:newLen]
	} else {
		b.buf = append(b.buf, make([]byte, newLen-len(b.buf))...)
	}
	copy(b.buf[newLen/2:], b.buf[:newLen/2])
}

// prep pads so that a value of the given size is aligned once
// additionalBytes have been written after it, growing the buffer if needed.
func (b *Builder) prep(size, additionalBytes int) {
	if size > b.minalign {
		b.minalign = size
	}
	alignSize := (^(len(b.buf) - int(b.head) + additionalBytes) + 1) & (size - 1)
	for int(b.head) <= alignSize+size+additionalBytes {
		oldLen := len(b.buf)
		b.grow()
		b.head += UOffsetT(len(b.buf) - oldLen)
	}
	b.Pad(alignSize)
}

// Pad prepends n zero bytes.
func (b *Builder) Pad(n int) {
	for i := 0; i < n; i++ {
		b.place8(0)
	}
}

// StartObject begins a new table with numFields logical slots. Children the
// table references must already be written.
func (b *Builder) StartObject(numFields int) {
	b.assertNotNested("StartObject")
	b.nested = true

	if cap(b.vslots) < numFields {
		b.vslots = make([]UOffsetT, numFields)
	} else {
		b.vslots = b.vslots[:numFields]
		clear(b.vslots)
	}
	b.objEnd = b.Offset()
}

// Slot records that the most recently prepended value occupies the given
// field slot of the open table. Panics with *ErrUnboundedSlot when called
// outside a StartObject/EndObject bracket or past the declared slot count.
func (b *Builder) Slot(slot int) {
	if !b.nested || slot < 0 || slot >= len(b.vslots) {
		panic(&ErrUnboundedSlot{Slot: slot, NumFields: len(b.vslots)})
	}
	b.vslots[slot] = b.Offset()
}

// EndObject closes the open table, emits (or reuses) its vtable, and returns
// the table's offset.
func (b *Builder) EndObject() UOffsetT {
	b.assertNested("EndObject")
	n := b.writeVtable()
	b.nested = false
	return n
}

// writeVtable serializes the vtable for the table being closed, after
// checking previously emitted vtables for byte equality and pointing the
// table at an existing one when possible.
//
// A vtable is laid out as:
//
//	u16 vtable size in bytes, including this entry
//	u16 table size in bytes, including the vtable back-pointer
//	u16 field offset, one per slot; 0 = absent
func (b *Builder) writeVtable() UOffsetT {
	// Reserve the table's vtable back-pointer; patched below once the
	// vtable location is known.
	b.prependSOffsetT(0)
	objectOffset := b.Offset()

	// Trailing absent slots carry no information. Dropping them keeps
	// tables built against newer schemas byte-identical to older ones
	// when the new fields are unset, which also raises the dedup hit rate.
	i := len(b.vslots) - 1
	for i >= 0 && b.vslots[i] == 0 {
		i--
	}
	b.vslots = b.vslots[:i+1]

	// Search newest-first: structurally identical tables tend to be
	// written in runs, so the match is usually near the end.
	existing := UOffsetT(0)
	for j := len(b.vtables) - 1; j >= 0; j-- {
		vtOff := b.vtables[j]
		vtStart := len(b.buf) - int(vtOff)
		vtLen := int(binary.LittleEndian.Uint16(b.buf[vtStart:]))
		meta := vtableMetadataFields * SizeVOffsetT
		if vtableEqual(b.vslots, objectOffset, b.buf[vtStart+meta:vtStart+vtLen]) {
			existing = vtOff
			break
		}
	}

	objectStart := UOffsetT(len(b.buf)) - objectOffset
	if existing == 0 {
		// Entries are stored back to front, as offsets from the table
		// start rather than from the buffer end.
		for j := len(b.vslots) - 1; j >= 0; j-- {
			var off UOffsetT
			if b.vslots[j] != 0 {
				off = objectOffset - b.vslots[j]
			}
			b.prependVOffsetT(VOffsetT(off))
		}
		b.prependVOffsetT(VOffsetT(objectOffset - b.objEnd))
		b.prependVOffsetT(VOffsetT((len(b.vslots) + vtableMetadataFields) * SizeVOffsetT))

		// Patch the back-pointer to the vtable just written.
		soff := SOffsetT(b.Offset()) - SOffsetT(objectOffset)
		binary.LittleEndian.PutUint32(b.buf[objectStart:], uint32(soff))
		b.vtables = append(b.vtables, b.Offset())
	} else {
		// Reuse: rewind over the reserved back-pointer and point the
		// table at the previously emitted vtable.
		b.head = objectStart
		soff := SOffsetT(existing) - SOffsetT(objectOffset)
		binary.LittleEndian.PutUint32(b.buf[b.head:], uint32(soff))
	}

	b.vslots = b.vslots[:0]
	return objectOffset
}

// vtableEqual compares the in-progress vtable against an already written one.
func vtableEqual(slots []UOffsetT, objectOffset UOffsetT, written []byte) bool {
	if len(slots)*SizeVOffsetT != len(written) {
		return false
	}
	for i := 0; i < len(slots); i++ {
		x := binary.LittleEndian.Uint16(written[i*SizeVOffsetT:])
		if x == 0 && slots[i] == 0 {
			continue
		}
		if UOffsetT(x) != objectOffset-slots[i] {
			return false
		}
	}
	return true
}

// StartVector begins a vector of numElems elements of elemSize bytes each.
// Elements are prepended highest index first, so that they read back in
// input order; EndVector writes the length prefix.
//
// For vectors of offsets (tables, strings) every referenced child must
// already be finished.
func (b *Builder) StartVector(elemSize, numElems, alignment int) UOffsetT {
	b.assertNotNested("StartVector")
	b.nested = true
	b.prep(SizeUOffsetT, elemSize*numElems)
	b.prep(alignment, elemSize*numElems)
	return b.Offset()
}

// EndVector writes the element count and closes the vector, returning its
// offset.
func (b *Builder) EndVector(numElems int) UOffsetT {
	b.assertNested("EndVector")
	// Space was reserved by StartVector; place the count directly.
	b.place32(uint32(numElems))
	b.nested = false
	return b.Offset()
}

// CreateString writes a length-prefixed, NUL-terminated string and returns
// its offset. The NUL is not counted in the length.
func (b *Builder) CreateString(s string) UOffsetT {
	b.assertNotNested("CreateString")
	b.nested = true

	b.prep(SizeUOffsetT, len(s)+1)
	b.place8(0)
	l := UOffsetT(len(s))
	b.head -= l
	copy(b.buf[b.head:b.head+l], s)

	return b.EndVector(len(s))
}

// CreateByteVector writes a byte vector in one call and returns its offset.
func (b *Builder) CreateByteVector(v []byte) UOffsetT {
	b.assertNotNested("CreateByteVector")
	b.nested = true

	b.prep(SizeUOffsetT, len(v))
	l := UOffsetT(len(v))
	b.head -= l
	copy(b.buf[b.head:b.head+l], v)

	return b.EndVector(len(v))
}

// Finish writes the root table offset at the head of the buffer. After
// Finish the buffer is immutable and may be read concurrently.
func (b *Builder) Finish(root UOffsetT) {
	b.finish(root, "")
}

// FinishWithIdentifier finishes the buffer with a 4-byte file identifier
// placed directly after the root offset.
func (b *Builder) FinishWithIdentifier(root UOffsetT, identifier string) {
	if len(identifier) != fileIdentifierLength {
		panic(&ErrBadIdentifier{Identifier: identifier})
	}
	b.finish(root, identifier)
}

func (b *Builder) finish(root UOffsetT, identifier string) {
	b.assertNotNested("Finish")
	if identifier != "" {
		b.prep(b.minalign, SizeUOffsetT+fileIdentifierLength)
		for i := fileIdentifierLength - 1; i >= 0; i-- {
			b.place8(identifier[i])
		}
	} else {
		b.prep(b.minalign, SizeUOffsetT)
	}
	b.PrependUOffsetT(root)
	b.finished = true
}

// PrependUOffsetT prepends a reference to already written data, converting
// the end-relative offset to a forward-pointing relative one.
func (b *Builder) PrependUOffsetT(off UOffsetT) {
	b.prep(SizeUOffsetT, 0)
	if off > b.Offset() {
		panic(&ErrNestedBuilder{Op: "PrependUOffsetT: reference to unwritten data"})
	}
	b.place32(b.Offset() - off + SizeUOffsetT)
}

func (b *Builder) prependSOffsetT(off SOffsetT) {
	b.prep(SizeSOffsetT, 0)
	b.place32(uint32(off))
}

func (b *Builder) prependVOffsetT(off VOffsetT) {
	b.prep(SizeVOffsetT, 0)
	b.place16(off)
}

// PrependBool prepends a bool, written as exactly 0 or 1.
func (b *Builder) PrependBool(v bool) {
	b.prep(1, 0)
	if v {
		b.place8(1)
	} else {
		b.place8(0)
	}
}

// PrependUint8 prepends a uint8.
func (b *Builder) PrependUint8(v uint8) { b.prep(1, 0); b.place8(v) }

// PrependInt8 prepends an int8.
func (b *Builder) PrependInt8(v int8) { b.prep(1, 0); b.place8(uint8(v)) }

// PrependUint16 prepends a uint16.
func (b *Builder) PrependUint16(v uint16) { b.prep(2, 0); b.place16(v) }

// PrependInt16 prepends an int16.
func (b *Builder) PrependInt16(v int16) { b.prep(2, 0); b.place16(uint16(v)) }

// PrependUint32 prepends a uint32.
func (b *Builder) PrependUint32(v uint32) { b.prep(4, 0); b.place32(v) }

// PrependInt32 prepends an int32.
func (b *Builder) PrependInt32(v int32) { b.prep(4, 0); b.place32(uint32(v)) }

// PrependUint64 prepends a uint64.
func (b *Builder) PrependUint64(v uint64) { b.prep(8, 0); b.place64(v) }

// PrependInt64 prepends an int64.
func (b *Builder) PrependInt64(v int64) { b.prep(8, 0); b.place64(uint64(v)) }

// PrependFloat32 prepends a float32.
func (b *Builder) PrependFloat32(v float32) { b.prep(4, 0); b.place32(math.Float32bits(v)) }

// PrependFloat64 prepends a float64.
func (b *Builder) PrependFloat64(v float64) { b.prep(8, 0); b.place64(math.Float64bits(v)) }

// PrependBoolSlot prepends a bool field at the given slot. Fields equal to
// their declared default are omitted entirely; readers reconstruct them from
// the schema.
func (b *Builder) PrependBoolSlot(slot int, v, def bool) {
	if v != def {
		b.PrependBool(v)
		b.Slot(slot)
	}
}

// PrependUint8Slot prepends a uint8 field at the given slot, omitting
// default values.
func (b *Builder) PrependUint8Slot(slot int, v, def uint8) {
	if v != def {
		b.PrependUint8(v)
		b.Slot(slot)
	}
}

// PrependInt8Slot prepends an int8 field at the given slot, omitting default
// values.
func (b *Builder) PrependInt8Slot(slot int, v, def int8) {
	if v != def {
		b.PrependInt8(v)
		b.Slot(slot)
	}
}

// PrependUint16Slot prepends a uint16 field at the given slot, omitting
// default values.
func (b *Builder) PrependUint16Slot(slot int, v, def uint16) {
	if v != def {
		b.PrependUint16(v)
		b.Slot(slot)
	}
}

// PrependInt16Slot prepends an int16 field at the given slot, omitting
// default values.
func (b *Builder) PrependInt16Slot(slot int, v, def int16) {
	if v != def {
		b.PrependInt16(v)
		b.Slot(slot)
	}
}

// PrependUint32Slot prepends a uint32 field at the given slot, omitting
// default values.
func (b *Builder) PrependUint32Slot(slot int, v, def uint32) {
	if v != def {
		b.PrependUint32(v)
		b.Slot(slot)
	}
}

// PrependInt32Slot prepends an int32 field at the given slot, omitting
// default values.
func (b *Builder) PrependInt32Slot(slot int, v, def int32) {
	if v != def {
		b.PrependInt32(v)
		b.Slot(slot)
	}
}

// PrependUint64Slot prepends a uint64 field at the given slot, omitting
// default values.
func (b *Builder) PrependUint64Slot(slot int, v, def uint64) {
	if v != def {
		b.PrependUint64(v)
		b.Slot(slot)
	}
}

// PrependInt64Slot prepends an int64 field at the given slot, omitting
// default values.
func (b *Builder) PrependInt64Slot(slot int, v, def int64) {
	if v != def {
		b.PrependInt64(v)
		b.Slot(slot)
	}
}

// PrependFloat32Slot prepends a float32 field at the given slot, omitting
// default values.
func (b *Builder) PrependFloat32Slot(slot int, v, def float32) {
	if v != def {
		b.PrependFloat32(v)
		b.Slot(slot)
	}
}

// PrependFloat64Slot prepends a float64 field at the given slot, omitting
// default values.
func (b *Builder) PrependFloat64Slot(slot int, v, def float64) {
	if v != def {
		b.PrependFloat64(v)
		b.Slot(slot)
	}
}

// PrependUOffsetTSlot prepends an offset field (table, vector, or string) at
// the given slot. An offset of 0 means "absent" and writes nothing.
func (b *Builder) PrependUOffsetTSlot(slot int, off UOffsetT) {
	if off != 0 {
		b.PrependUOffsetT(off)
		b.Slot(slot)
	}
}

func (b *Builder) place8(v uint8) {
	b.head--
	b.buf[b.head] = v
}

func (b *Builder) place16(v uint16) {
	b.head -= 2
	binary.LittleEndian.PutUint16(b.buf[b.head:], v)
}

func (b *Builder) place32(v uint32) {
	b.head -= 4
	binary.LittleEndian.PutUint32(b.buf[b.head:], v)
}

func (b *Builder) place64(v uint64) {
	b.head -= 8
	binary.LittleEndian.PutUint64(b.buf[b.head:], v)
}

func (b *Builder) assertNested(op string) {
	if !b.nested {
		panic(&ErrNestedBuilder{Op: op + " without an open object"})
	}
}

func (b *Builder) assertNotNested(op string) {
	if b.nested {
		panic(&ErrNestedBuilder{Op: op + " while another object is open"})
	}
}
