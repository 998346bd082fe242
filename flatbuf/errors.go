package flatbuf

import (
	"errors"
	"fmt"
)

// ErrTruncatedRoot is returned by Root when the buffer is too small to hold
// a root offset, or the root offset points outside the buffer.
var ErrTruncatedRoot = errors.New("flatbuf: buffer too small for root table")

// ErrSizeExceeded indicates the buffer outgrew the format's 31-bit offset
// space. It is raised as a panic at write time; a buffer this large cannot
// be represented and construction must be aborted.
type ErrSizeExceeded struct {
	Size int
}

func (e *ErrSizeExceeded) Error() string {
	return fmt.Sprintf("flatbuf: buffer size %d exceeds addressable range", e.Size)
}

// ErrNestedBuilder indicates a violation of the single-active-object build
// discipline: a table, vector, or string was started while another object
// was still open, or an operation that requires an open object was called
// without one. It is raised as a panic; the call order must be fixed.
type ErrNestedBuilder struct {
	Op string
}

func (e *ErrNestedBuilder) Error() string {
	return fmt.Sprintf("flatbuf: %s violates build order: children must be finished before their parent is started, and only one object may be open", e.Op)
}

// ErrUnboundedSlot indicates a field slot was recorded outside an open
// StartObject/EndObject bracket, or past the slot count declared to
// StartObject. It is raised as a panic.
type ErrUnboundedSlot struct {
	Slot      int
	NumFields int
}

func (e *ErrUnboundedSlot) Error() string {
	return fmt.Sprintf("flatbuf: slot %d outside open object with %d fields", e.Slot, e.NumFields)
}

// ErrIndexOutOfRange indicates a vector element access past the vector's
// length. It is raised as a panic; other reads on the buffer stay valid.
type ErrIndexOutOfRange struct {
	Index int
	Len   int
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("flatbuf: vector index %d out of range [0,%d)", e.Index, e.Len)
}

// ErrNotFinished indicates FinishedBytes was called before Finish.
type ErrNotFinished struct{}

func (e *ErrNotFinished) Error() string {
	return "flatbuf: Finish must be called before FinishedBytes"
}

// ErrBadIdentifier indicates a file identifier of the wrong length was
// passed to FinishWithIdentifier.
type ErrBadIdentifier struct {
	Identifier string
}

func (e *ErrBadIdentifier) Error() string {
	return fmt.Sprintf("flatbuf: file identifier %q must be exactly %d bytes", e.Identifier, fileIdentifierLength)
}
