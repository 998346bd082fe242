package flatbuf

// UOffsetT is an unsigned offset pointing forward from the location where it
// is stored to the data it references.
type UOffsetT = uint32

// SOffsetT is a signed offset, used by tables to point (usually backward) to
// their vtable.
type SOffsetT = int32

// VOffsetT is an offset within a table, as stored in vtable entries.
type VOffsetT = uint16

// Widths of the offset types and the vector length prefix, in bytes.
const (
	SizeUOffsetT = 4
	SizeSOffsetT = 4
	SizeVOffsetT = 2
)

// vtableMetadataFields is the number of u16 metadata entries at the start of
// every vtable: the vtable byte size and the table byte size.
const vtableMetadataFields = 2

// fileIdentifierLength is the size of the optional format identifier written
// between the root offset and the payload.
const fileIdentifierLength = 4

// maxBufferSize bounds buffer growth. The format uses 31-bit offsets, so a
// buffer approaching 2 GiB can no longer address its own content.
const maxBufferSize = 1 << 31

// slotOffset converts a logical field slot to its byte offset inside a
// vtable. Slots start after the two metadata entries.
func slotOffset(slot int) VOffsetT {
	return VOffsetT(vtableMetadataFields*SizeVOffsetT + slot*SizeVOffsetT)
}
