// Package flatbuf implements the modelbuf flat binary table format.
//
// The format stores a tree of tables, vectors, and strings in a single
// contiguous buffer. All internal references are relative offsets, so a
// finished buffer is position independent and can be read in place without
// a decode step.
//
// # Layout
//
// A finished buffer starts with a 4-byte unsigned offset to the root table,
// optionally followed by a 4-byte file identifier. Every table begins with a
// signed offset back to its vtable; the vtable maps logical field slots to
// byte offsets within the table, with 0 meaning "field absent, use the
// declared default". Vectors are a 4-byte element count followed by element
// data; strings are byte vectors with a trailing NUL that is not counted in
// the length. All multi-byte values are little-endian.
//
// # Write side
//
// A Builder assembles the buffer back to front: children (nested tables,
// vectors, strings) must be fully written before the table that references
// them is started, and only one table or vector may be open at a time.
// Structurally identical vtables are deduplicated by content equality.
// Misuse of the build order is a programming error and panics with a typed
// error value; it is not recoverable.
//
// # Read side
//
// A Table is a lightweight view over (buffer, position). Field access is
// lazy: nothing is decoded until requested, and absent fields cost a single
// vtable probe. Views never own the buffer; the caller must keep it alive.
// A finished buffer is immutable, so any number of goroutines may read it
// concurrently. Buffers from untrusted sources must pass the verify package
// before being handed to a Table.
package flatbuf
