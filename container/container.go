// Package container wraps finished model buffers in a self-describing file
// envelope: a fixed header with magic, format version, compression codec,
// sizes, and a CRC32 of the stored payload.
//
// The envelope exists so corruption is caught before a buffer reaches the
// format verifier, and so large models can be stored compressed without the
// in-memory format knowing about it. CRC32 detects accidental corruption
// only; it is no defense against tampering.
package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Magic identifies a model container file (ASCII "MBUF").
const Magic = "MBUF"

// Version is the current envelope format version.
const Version uint16 = 1

// headerSize is the fixed envelope header length in bytes.
const headerSize = 32

// maxPayloadSize caps the declared uncompressed size. Buffers cannot exceed
// the 32-bit offset space anyway, and the cap stops decompression bombs.
const maxPayloadSize = 1 << 31

// Codec selects the payload compression.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecZstd
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Codec(%d)", uint8(c))
	}
}

var (
	// ErrBadMagic is returned when a file does not start with the
	// container magic.
	ErrBadMagic = errors.New("container: bad magic")

	// ErrUnsupportedVersion is returned for envelope versions this
	// build does not understand.
	ErrUnsupportedVersion = errors.New("container: unsupported version")

	// ErrUnknownCodec is returned for codec bytes this build cannot
	// decompress.
	ErrUnknownCodec = errors.New("container: unknown codec")

	// ErrPayloadTooLarge is returned when a header declares a payload
	// beyond the supported size.
	ErrPayloadTooLarge = errors.New("container: payload too large")
)

// ChecksumMismatchError is returned when the stored payload fails its CRC32
// check.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("container: checksum mismatch: expected %08x, got %08x", e.Expected, e.Actual)
}

// Options configures encoding.
type Options struct {
	// Codec selects the payload compression. Default is zstd.
	Codec Codec

	// ZstdLevel is the zstd compression level (1-22) when Codec is
	// CodecZstd.
	ZstdLevel int
}

// WithCodec selects the payload compression.
func WithCodec(c Codec) func(*Options) {
	return func(o *Options) { o.Codec = c }
}

// WithZstdLevel overrides the zstd compression level.
func WithZstdLevel(level int) func(*Options) {
	return func(o *Options) { o.ZstdLevel = level }
}

// Envelope header layout, little-endian:
//
//	[0:4]   magic "MBUF"
//	[4:6]   version
//	[6]     codec
//	[7]     reserved
//	[8:16]  uncompressed payload size
//	[16:24] stored (possibly compressed) payload size
//	[24:28] CRC32 (IEEE) of the stored payload
//	[28:32] reserved

// Encode writes payload into w wrapped in an envelope.
func Encode(w io.Writer, payload []byte, optFns ...func(*Options)) error {
	opts := Options{
		Codec:     CodecZstd,
		ZstdLevel: 3,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if int64(len(payload)) > maxPayloadSize {
		return ErrPayloadTooLarge
	}

	stored, err := compress(opts, payload)
	if err != nil {
		return err
	}

	var hdr [headerSize]byte
	copy(hdr[0:4], Magic)
	binary.LittleEndian.PutUint16(hdr[4:6], Version)
	hdr[6] = uint8(opts.Codec)
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(len(payload)))
	binary.LittleEndian.PutUint64(hdr[16:24], uint64(len(stored)))
	binary.LittleEndian.PutUint32(hdr[24:28], crc32.ChecksumIEEE(stored))

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("container: write header: %w", err)
	}
	if _, err := w.Write(stored); err != nil {
		return fmt.Errorf("container: write payload: %w", err)
	}
	return nil
}

// Decode reads an envelope from r and returns the verified, decompressed
// payload.
func Decode(r io.Reader) ([]byte, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("container: read header: %w", err)
	}
	if string(hdr[0:4]) != Magic {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(hdr[4:6]); v != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	codec := Codec(hdr[6])
	rawSize := binary.LittleEndian.Uint64(hdr[8:16])
	storedSize := binary.LittleEndian.Uint64(hdr[16:24])
	sum := binary.LittleEndian.Uint32(hdr[24:28])

	if rawSize > maxPayloadSize || storedSize > maxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	stored := make([]byte, storedSize)
	if _, err := io.ReadFull(r, stored); err != nil {
		return nil, fmt.Errorf("container: read payload: %w", err)
	}
	if actual := crc32.ChecksumIEEE(stored); actual != sum {
		return nil, &ChecksumMismatchError{Expected: sum, Actual: actual}
	}

	payload, err := decompress(codec, stored, int(rawSize))
	if err != nil {
		return nil, err
	}
	if uint64(len(payload)) != rawSize {
		return nil, fmt.Errorf("container: decompressed size %d does not match header %d", len(payload), rawSize)
	}
	return payload, nil
}

// SaveToFile writes an envelope atomically: the payload goes to a temp file
// in the target directory, is synced, and is renamed over the target.
func SaveToFile(filename string, payload []byte, optFns ...func(*Options)) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if err := Encode(tmp, payload, optFns...); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	tmpName = ""
	return nil
}

// LoadFromFile reads and verifies an envelope from disk.
func LoadFromFile(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

func compress(opts Options, payload []byte) ([]byte, error) {
	switch opts.Codec {
	case CodecNone:
		return payload, nil
	case CodecZstd:
		level := zstd.EncoderLevelFromZstd(opts.ZstdLevel)
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		if err != nil {
			return nil, fmt.Errorf("container: zstd encoder: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(payload, make([]byte, 0, len(payload)/2)), nil
	case CodecLZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			return nil, fmt.Errorf("container: lz4 write: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("container: lz4 close: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(opts.Codec))
	}
}

func decompress(codec Codec, stored []byte, rawSize int) ([]byte, error) {
	switch codec {
	case CodecNone:
		return stored, nil
	case CodecZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("container: zstd decoder: %w", err)
		}
		defer dec.Close()
		payload, err := dec.DecodeAll(stored, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("container: zstd decode: %w", err)
		}
		return payload, nil
	case CodecLZ4:
		zr := lz4.NewReader(bytes.NewReader(stored))
		payload := make([]byte, 0, rawSize)
		buf := bytes.NewBuffer(payload)
		if _, err := io.Copy(buf, io.LimitReader(zr, int64(rawSize)+1)); err != nil {
			return nil, fmt.Errorf("container: lz4 decode: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(codec))
	}
}
