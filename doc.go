// Package modelbuf reads and writes compact binary model files.
//
// A model file is a single contiguous buffer holding a neural-network
// description: graphs of operators, tensor declarations, and the raw tensor
// data itself. The format is offset-based rather than parsed: opening a file
// materializes nothing, and readers follow offsets lazily to exactly the
// fields they touch. Combined with memory-mapped files this makes opening a
// multi-gigabyte model effectively free.
//
// The package is organized bottom-up:
//
//   - flatbuf: the untyped wire format, a back-to-front buffer builder and
//     zero-copy table reader
//   - schema: named table layouts and a generic typed view
//   - model: the concrete model schema, typed views, and a mutable object
//     tree for construction
//   - verify: structural verification of untrusted buffers
//   - container: the on-disk envelope with compression and checksums
//   - blobstore: local, in-memory, and object-store artifact storage
//
// This root package ties them together: OpenModelFile memory-maps, unwraps,
// verifies, and returns a lazy model view in one call.
package modelbuf
