// Package verify walks the offset graph of a modelbuf buffer without
// trusting any of it.
//
// Buffers that arrive from disk, the network, or an artifact store must be
// treated as adversarial: offsets may point anywhere, vtables may lie about
// their size, and a crafted buffer may nest tables deeply enough to exhaust
// the stack. Verify checks every offset, vtable, string terminator, and
// vector extent against the buffer bounds and a registered schema before a
// reader is allowed near the data. It reports the first violation found and
// never attempts repair.
//
// The walk keeps one bitmap per table layout of positions it has already
// cleared, so shared (diamond) subtrees are verified once per layout and
// re-entrant references cannot blow up the traversal. A reference cycle is
// tolerated rather than rejected: the position is marked before its fields
// are checked, so a reference back into the active path simply terminates
// the walk there.
package verify

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/modelbuf/flatbuf"
	"github.com/hupe1980/modelbuf/schema"
)

// Conservative defaults. Real model files nest a handful of levels; the
// ceilings only exist to stop crafted buffers.
const (
	// DefaultMaxDepth bounds table nesting during the walk.
	DefaultMaxDepth = 256
	// DefaultMaxTables bounds the total number of distinct tables visited.
	DefaultMaxTables = 1_000_000
)

// Options configures a verification run.
type Options struct {
	// MaxDepth is the table nesting ceiling. Exceeding it is reported as
	// a format error, not a panic.
	MaxDepth int

	// MaxTables is the ceiling on distinct tables visited.
	MaxTables int

	// Identifier, when non-empty, requires the buffer to carry this
	// 4-byte file identifier.
	Identifier string
}

// WithMaxDepth overrides the nesting ceiling.
func WithMaxDepth(n int) func(*Options) {
	return func(o *Options) { o.MaxDepth = n }
}

// WithMaxTables overrides the table-count ceiling.
func WithMaxTables(n int) func(*Options) {
	return func(o *Options) { o.MaxTables = n }
}

// WithIdentifier requires a file identifier before anything else is checked.
func WithIdentifier(id string) func(*Options) {
	return func(o *Options) { o.Identifier = id }
}

// FormatError describes the first violation found in a buffer. It is
// recoverable at the caller's boundary: reject the buffer, do not attempt
// partial use.
type FormatError struct {
	// Pos is the byte position the violation was detected at.
	Pos int64
	// Path locates the violation in schema terms, e.g.
	// "Model.subgraphs[2].operators[0].builtin_options".
	Path string
	// Reason is a short description of the violation.
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("verify: %s at %s (byte %d)", e.Reason, e.Path, e.Pos)
}

// Verify checks that buf is a well-formed buffer whose root table conforms
// to the layout registered under rootType. It returns nil or a *FormatError.
func Verify(reg *schema.Registry, rootType string, buf []byte, optFns ...func(*Options)) error {
	opts := Options{
		MaxDepth:  DefaultMaxDepth,
		MaxTables: DefaultMaxTables,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Identifier != "" && !flatbuf.HasIdentifier(buf, opts.Identifier) {
		return &FormatError{Pos: flatbuf.SizeUOffsetT, Path: rootType, Reason: "missing or wrong file identifier"}
	}

	desc, ok := reg.Lookup(rootType)
	if !ok {
		return &FormatError{Path: rootType, Reason: "root type not registered"}
	}

	v := &verifier{
		buf:     buf,
		reg:     reg,
		opts:    opts,
		visited: make(map[*schema.TableDesc]*roaring.Bitmap),
	}

	if !v.fits(0, flatbuf.SizeUOffsetT) {
		return &FormatError{Path: rootType, Reason: "buffer too small for root offset"}
	}
	root := int64(v.u32(0))
	return v.table(root, desc, 0, rootType)
}

type verifier struct {
	buf     []byte
	reg     *schema.Registry
	opts    Options
	visited map[*schema.TableDesc]*roaring.Bitmap
	tables  int
}

// fits reports whether [pos, pos+n) lies inside the buffer. All arithmetic
// is int64 so hostile 32-bit values cannot wrap.
func (v *verifier) fits(pos, n int64) bool {
	return pos >= 0 && n >= 0 && pos+n <= int64(len(v.buf))
}

func (v *verifier) u16(pos int64) int64 {
	return int64(v.buf[pos]) | int64(v.buf[pos+1])<<8
}

func (v *verifier) u32(pos int64) int64 {
	return int64(v.buf[pos]) | int64(v.buf[pos+1])<<8 | int64(v.buf[pos+2])<<16 | int64(v.buf[pos+3])<<24
}

func (v *verifier) i32(pos int64) int64 {
	return int64(int32(uint32(v.u32(pos))))
}

func (v *verifier) table(pos int64, desc *schema.TableDesc, depth int, path string) error {
	if depth > v.opts.MaxDepth {
		return &FormatError{Pos: pos, Path: path, Reason: "table nesting exceeds depth ceiling"}
	}
	if !v.fits(pos, flatbuf.SizeSOffsetT) {
		return &FormatError{Pos: pos, Path: path, Reason: "table position out of bounds"}
	}
	// A position already cleared under this layout does not need a second
	// pass; this also keeps shared subtrees from multiplying the work. The
	// set is keyed per layout: a buffer may alias one position under two
	// registered types, and clearing it under one says nothing about the
	// other. Marking before descending means a cycle back into the active
	// path terminates here instead of being rejected.
	seen := v.visited[desc]
	if seen == nil {
		seen = roaring.New()
		v.visited[desc] = seen
	}
	if seen.Contains(uint32(pos)) {
		return nil
	}
	seen.Add(uint32(pos))
	v.tables++
	if v.tables > v.opts.MaxTables {
		return &FormatError{Pos: pos, Path: path, Reason: "table count exceeds ceiling"}
	}

	vt := pos - v.i32(pos)
	if !v.fits(vt, 2*flatbuf.SizeVOffsetT) {
		return &FormatError{Pos: pos, Path: path, Reason: "vtable offset out of bounds"}
	}
	vtLen := v.u16(vt)
	if vtLen < 2*flatbuf.SizeVOffsetT || vtLen%2 != 0 {
		return &FormatError{Pos: vt, Path: path, Reason: "vtable size field inconsistent"}
	}
	if !v.fits(vt, vtLen) {
		return &FormatError{Pos: vt, Path: path, Reason: "vtable extends past buffer end"}
	}
	tblSize := v.u16(vt + flatbuf.SizeVOffsetT)
	if tblSize < flatbuf.SizeSOffsetT {
		return &FormatError{Pos: vt, Path: path, Reason: "table size field inconsistent"}
	}
	if !v.fits(pos, tblSize) {
		return &FormatError{Pos: pos, Path: path, Reason: "table extends past buffer end"}
	}

	for _, f := range desc.Fields() {
		fieldPos, present, err := v.fieldPos(pos, vt, vtLen, f, path)
		if err != nil {
			return err
		}
		if !present {
			continue
		}
		fpath := path + "." + f.Name

		switch f.Kind {
		case schema.KindString:
			if err := v.str(fieldPos, fpath); err != nil {
				return err
			}
		case schema.KindTable:
			child, err := v.indirect(fieldPos, fpath)
			if err != nil {
				return err
			}
			childDesc, ok := v.reg.Lookup(f.TableType)
			if !ok {
				return &FormatError{Pos: fieldPos, Path: fpath, Reason: "referenced table type not registered"}
			}
			if err := v.table(child, childDesc, depth+1, fpath); err != nil {
				return err
			}
		case schema.KindVector:
			if err := v.vector(fieldPos, f, depth, fpath); err != nil {
				return err
			}
		case schema.KindUnion:
			if err := v.union(pos, vt, vtLen, fieldPos, f, desc, depth, fpath); err != nil {
				return err
			}
		default:
			// Scalars and union tags were bounds-checked by fieldPos.
		}
	}
	return nil
}

// fieldPos resolves a field's absolute position, checking the vtable entry
// and the field's inline extent.
func (v *verifier) fieldPos(pos, vt, vtLen int64, f schema.Field, path string) (int64, bool, error) {
	vo := int64(2*flatbuf.SizeVOffsetT + f.Slot*flatbuf.SizeVOffsetT)
	if vo+flatbuf.SizeVOffsetT > vtLen {
		// Slot beyond this vtable: written by an older schema, reads as
		// absent. Compatibility, not a violation.
		return 0, false, nil
	}
	fo := v.u16(vt + vo)
	if fo == 0 {
		return 0, false, nil
	}
	fieldPos := pos + fo
	if !v.fits(fieldPos, int64(f.Kind.Width())) {
		return 0, false, &FormatError{Pos: fieldPos, Path: path + "." + f.Name, Reason: "field extends past buffer end"}
	}
	return fieldPos, true, nil
}

// indirect resolves the forward offset stored at pos, checking the target.
func (v *verifier) indirect(pos int64, path string) (int64, error) {
	target := pos + v.u32(pos)
	if !v.fits(target, flatbuf.SizeUOffsetT) {
		return 0, &FormatError{Pos: pos, Path: path, Reason: "offset points past buffer end"}
	}
	return target, nil
}

func (v *verifier) str(fieldPos int64, path string) error {
	target, err := v.indirect(fieldPos, path)
	if err != nil {
		return err
	}
	n := v.u32(target)
	if !v.fits(target+flatbuf.SizeUOffsetT, n+1) {
		return &FormatError{Pos: target, Path: path, Reason: "string length exceeds remaining buffer"}
	}
	if v.buf[target+flatbuf.SizeUOffsetT+n] != 0 {
		return &FormatError{Pos: target + flatbuf.SizeUOffsetT + n, Path: path, Reason: "string not NUL-terminated"}
	}
	return nil
}

func (v *verifier) vector(fieldPos int64, f schema.Field, depth int, path string) error {
	target, err := v.indirect(fieldPos, path)
	if err != nil {
		return err
	}
	n := v.u32(target)
	width := int64(f.Elem.Width())
	base := target + flatbuf.SizeUOffsetT
	if !v.fits(base, n*width) {
		return &FormatError{Pos: target, Path: path, Reason: "vector length times element width exceeds remaining buffer"}
	}

	switch f.Elem {
	case schema.KindString:
		for i := int64(0); i < n; i++ {
			if err := v.str(base+i*width, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case schema.KindTable:
		childDesc, ok := v.reg.Lookup(f.TableType)
		if !ok {
			return &FormatError{Pos: target, Path: path, Reason: "referenced table type not registered"}
		}
		for i := int64(0); i < n; i++ {
			epath := fmt.Sprintf("%s[%d]", path, i)
			child, err := v.indirect(base+i*width, epath)
			if err != nil {
				return err
			}
			if err := v.table(child, childDesc, depth+1, epath); err != nil {
				return err
			}
		}
	}
	return nil
}

// union checks the tag/value pairing of a union field whose value is
// present: the tag must also be present, nonzero, and name a registered
// variant, which is then verified as a table.
func (v *verifier) union(pos, vt, vtLen, fieldPos int64, f schema.Field, desc *schema.TableDesc, depth int, path string) error {
	tagField := desc.MustField(f.Name + "_type")
	tagPos, present, err := v.fieldPos(pos, vt, vtLen, tagField, path)
	if err != nil {
		return err
	}
	var tag uint8
	if present {
		tag = v.buf[tagPos]
	}
	if tag == 0 {
		return &FormatError{Pos: fieldPos, Path: path, Reason: "union value stored without a type tag"}
	}
	variant, ok := f.Variants[tag]
	if !ok {
		return &FormatError{Pos: tagPos, Path: path, Reason: fmt.Sprintf("unknown union type tag %d", tag)}
	}
	childDesc, ok := v.reg.Lookup(variant)
	if !ok {
		return &FormatError{Pos: fieldPos, Path: path, Reason: "union variant type not registered"}
	}
	child, err := v.indirect(fieldPos, path)
	if err != nil {
		return err
	}
	return v.table(child, childDesc, depth+1, path)
}
