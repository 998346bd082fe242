// Package schema describes table layouts shared by the encode and decode
// sides of the modelbuf format.
//
// A Registry maps logical type names to field layouts: for every field its
// name, slot index, semantic kind, and declared default. Layouts are fixed
// at registration time (typically in an init function) and never mutated
// afterwards, so concurrent lookups need no synchronization.
//
// Instead of one generated accessor class per table type, readers use the
// single generic View type parameterized by a layout; packages that want
// typed getters wrap View in thin methods.
package schema

import (
	"fmt"
	"sort"
)

// Kind is the semantic type of a field or vector element.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindTable
	KindVector
	KindUnion
	KindUnionType
)

var kindNames = map[Kind]string{
	KindInvalid:   "invalid",
	KindBool:      "bool",
	KindInt8:      "int8",
	KindUint8:     "uint8",
	KindInt16:     "int16",
	KindUint16:    "uint16",
	KindInt32:     "int32",
	KindUint32:    "uint32",
	KindInt64:     "int64",
	KindUint64:    "uint64",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindString:    "string",
	KindTable:     "table",
	KindVector:    "vector",
	KindUnion:     "union",
	KindUnionType: "union type",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Width returns the inline byte width of the kind as stored in a table or
// vector. Strings, tables, vectors, and unions are stored as 4-byte offsets;
// union type tags are single bytes.
func (k Kind) Width() int {
	switch k {
	case KindBool, KindInt8, KindUint8, KindUnionType:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32, KindString, KindTable, KindVector, KindUnion:
		return 4
	case KindInt64, KindUint64, KindFloat64:
		return 8
	default:
		return 0
	}
}

// IsScalar reports whether the kind is stored inline rather than as an
// offset to out-of-line data.
func (k Kind) IsScalar() bool {
	switch k {
	case KindBool, KindInt8, KindUint8, KindInt16, KindUint16, KindInt32,
		KindUint32, KindInt64, KindUint64, KindFloat32, KindFloat64, KindUnionType:
		return true
	default:
		return false
	}
}

// Field describes one logical field of a table.
type Field struct {
	Name string
	Slot int
	Kind Kind

	// Elem is the element kind for KindVector fields.
	Elem Kind

	// TableType names the referenced table type for KindTable fields and
	// for KindVector fields with Elem == KindTable.
	TableType string

	// Variants maps union type tags to table type names for KindUnion
	// fields. Tag 0 is reserved for "none" and must not appear.
	Variants map[uint8]string

	// Declared defaults, returned by readers when the field is absent.
	DefaultBool  bool
	DefaultInt   int64
	DefaultFloat float64
}

// BoolField declares a bool field.
func BoolField(name string, slot int, def bool) Field {
	return Field{Name: name, Slot: slot, Kind: KindBool, DefaultBool: def}
}

// Int8Field declares an int8 field. Enum fields are usually int8.
func Int8Field(name string, slot int, def int64) Field {
	return Field{Name: name, Slot: slot, Kind: KindInt8, DefaultInt: def}
}

// Uint8Field declares a uint8 field.
func Uint8Field(name string, slot int, def int64) Field {
	return Field{Name: name, Slot: slot, Kind: KindUint8, DefaultInt: def}
}

// Int16Field declares an int16 field.
func Int16Field(name string, slot int, def int64) Field {
	return Field{Name: name, Slot: slot, Kind: KindInt16, DefaultInt: def}
}

// Uint16Field declares a uint16 field.
func Uint16Field(name string, slot int, def int64) Field {
	return Field{Name: name, Slot: slot, Kind: KindUint16, DefaultInt: def}
}

// Int32Field declares an int32 field.
func Int32Field(name string, slot int, def int64) Field {
	return Field{Name: name, Slot: slot, Kind: KindInt32, DefaultInt: def}
}

// Uint32Field declares a uint32 field.
func Uint32Field(name string, slot int, def int64) Field {
	return Field{Name: name, Slot: slot, Kind: KindUint32, DefaultInt: def}
}

// Int64Field declares an int64 field.
func Int64Field(name string, slot int, def int64) Field {
	return Field{Name: name, Slot: slot, Kind: KindInt64, DefaultInt: def}
}

// Uint64Field declares a uint64 field.
func Uint64Field(name string, slot int, def int64) Field {
	return Field{Name: name, Slot: slot, Kind: KindUint64, DefaultInt: def}
}

// Float32Field declares a float32 field.
func Float32Field(name string, slot int, def float64) Field {
	return Field{Name: name, Slot: slot, Kind: KindFloat32, DefaultFloat: def}
}

// Float64Field declares a float64 field.
func Float64Field(name string, slot int, def float64) Field {
	return Field{Name: name, Slot: slot, Kind: KindFloat64, DefaultFloat: def}
}

// StringField declares a string field. Absent strings read as "".
func StringField(name string, slot int) Field {
	return Field{Name: name, Slot: slot, Kind: KindString}
}

// TableField declares a nested table field.
func TableField(name string, slot int, tableType string) Field {
	return Field{Name: name, Slot: slot, Kind: KindTable, TableType: tableType}
}

// VectorField declares a vector of scalar elements.
func VectorField(name string, slot int, elem Kind) Field {
	return Field{Name: name, Slot: slot, Kind: KindVector, Elem: elem}
}

// TableVectorField declares a vector of tables.
func TableVectorField(name string, slot int, tableType string) Field {
	return Field{Name: name, Slot: slot, Kind: KindVector, Elem: KindTable, TableType: tableType}
}

// StringVectorField declares a vector of strings.
func StringVectorField(name string, slot int) Field {
	return Field{Name: name, Slot: slot, Kind: KindVector, Elem: KindString}
}

// UnionTypeField declares the type-tag half of a union. By convention it is
// named "<union>_type" and sits in the slot directly before the value.
func UnionTypeField(name string, slot int) Field {
	return Field{Name: name, Slot: slot, Kind: KindUnionType}
}

// UnionField declares the value half of a union.
func UnionField(name string, slot int, variants map[uint8]string) Field {
	return Field{Name: name, Slot: slot, Kind: KindUnion, Variants: variants}
}

// TableDesc is the immutable layout of one table type.
type TableDesc struct {
	name     string
	fields   []Field // sorted by slot
	byName   map[string]int
	numSlots int
}

// NewTableDesc builds a layout from the given fields. Field names and slots
// must be unique; union value fields must have a matching "<name>_type"
// tag field.
func NewTableDesc(name string, fields ...Field) (*TableDesc, error) {
	if name == "" {
		return nil, fmt.Errorf("schema: table name must not be empty")
	}
	d := &TableDesc{
		name:   name,
		fields: make([]Field, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	copy(d.fields, fields)
	sort.Slice(d.fields, func(i, j int) bool { return d.fields[i].Slot < d.fields[j].Slot })

	seenSlot := make(map[int]string, len(fields))
	for i, f := range d.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema: %s: field at slot %d has no name", name, f.Slot)
		}
		if f.Slot < 0 {
			return nil, fmt.Errorf("schema: %s.%s: negative slot %d", name, f.Name, f.Slot)
		}
		if prev, dup := seenSlot[f.Slot]; dup {
			return nil, fmt.Errorf("schema: %s: slot %d claimed by both %s and %s", name, f.Slot, prev, f.Name)
		}
		seenSlot[f.Slot] = f.Name
		if _, dup := d.byName[f.Name]; dup {
			return nil, fmt.Errorf("schema: %s: duplicate field name %s", name, f.Name)
		}
		d.byName[f.Name] = i
		if f.Slot+1 > d.numSlots {
			d.numSlots = f.Slot + 1
		}
	}

	for _, f := range d.fields {
		if f.Kind != KindUnion {
			continue
		}
		tag, ok := d.Field(f.Name + "_type")
		if !ok || tag.Kind != KindUnionType {
			return nil, fmt.Errorf("schema: %s.%s: union without a %s_type tag field", name, f.Name, f.Name)
		}
		if _, reserved := f.Variants[0]; reserved {
			return nil, fmt.Errorf("schema: %s.%s: union tag 0 is reserved for none", name, f.Name)
		}
	}
	return d, nil
}

// MustTableDesc is NewTableDesc that panics on error. Intended for
// registration in init functions, where a bad layout is a programming error.
func MustTableDesc(name string, fields ...Field) *TableDesc {
	d, err := NewTableDesc(name, fields...)
	if err != nil {
		panic(err)
	}
	return d
}

// Name returns the table type name.
func (d *TableDesc) Name() string { return d.name }

// NumSlots returns the slot count to pass to Builder.StartObject.
func (d *TableDesc) NumSlots() int { return d.numSlots }

// Fields returns the layout's fields in slot order. The slice must not be
// modified.
func (d *TableDesc) Fields() []Field { return d.fields }

// Field looks up a field by name.
func (d *TableDesc) Field(name string) (Field, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Field{}, false
	}
	return d.fields[i], true
}

// MustField is Field that panics when the name is unknown. Encoders use it
// to resolve slot indexes; a typo is a programming error.
func (d *TableDesc) MustField(name string) Field {
	f, ok := d.Field(name)
	if !ok {
		panic(fmt.Sprintf("schema: %s has no field %q", d.name, name))
	}
	return f
}

// Registry maps type names to table layouts. Populate it during package
// initialization; after that it is read-only and safe for unsynchronized
// concurrent lookups.
type Registry struct {
	types map[string]*TableDesc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*TableDesc)}
}

// Register adds layouts to the registry. Registering the same type name
// twice is an error.
func (r *Registry) Register(descs ...*TableDesc) error {
	for _, d := range descs {
		if _, dup := r.types[d.name]; dup {
			return fmt.Errorf("schema: type %s already registered", d.name)
		}
		r.types[d.name] = d
	}
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(descs ...*TableDesc) {
	if err := r.Register(descs...); err != nil {
		panic(err)
	}
}

// Lookup returns the layout registered under the given type name.
func (r *Registry) Lookup(name string) (*TableDesc, bool) {
	d, ok := r.types[name]
	return d, ok
}

// MustLookup is Lookup that panics when the type is unknown.
func (r *Registry) MustLookup(name string) *TableDesc {
	d, ok := r.types[name]
	if !ok {
		panic(fmt.Sprintf("schema: unknown type %q", name))
	}
	return d
}
