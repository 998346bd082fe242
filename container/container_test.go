package container

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() []byte {
	// Repetitive content so compression has something to chew on.
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 16)
	}
	return payload
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := testPayload()

	codecs := []Codec{CodecNone, CodecZstd, CodecLZ4}
	for _, codec := range codecs {
		t.Run(codec.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, payload, WithCodec(codec)))

			got, err := Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestEncodeCompresses(t *testing.T) {
	payload := testPayload()

	var raw, compressed bytes.Buffer
	require.NoError(t, Encode(&raw, payload, WithCodec(CodecNone)))
	require.NoError(t, Encode(&compressed, payload, WithCodec(CodecZstd), WithZstdLevel(9)))

	assert.Less(t, compressed.Len(), raw.Len())
}

func TestEncodeEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testPayload()))

	data := buf.Bytes()
	data[0] = 'X'

	_, err := Decode(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testPayload()))

	data := buf.Bytes()
	binary.LittleEndian.PutUint16(data[4:6], 99)

	_, err := Decode(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeRejectsUnknownCodec(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testPayload(), WithCodec(CodecNone)))

	data := buf.Bytes()
	data[6] = 0xFF
	// Codec is covered by the header, not the payload checksum, so the
	// CRC still passes and the codec check must catch it.
	_, err := Decode(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrUnknownCodec)
}

func TestDecodeRejectsCorruptPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testPayload(), WithCodec(CodecNone)))

	data := buf.Bytes()
	data[len(data)-1] ^= 0xFF

	_, err := Decode(bytes.NewReader(data))
	var mismatch *ChecksumMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.NotEqual(t, mismatch.Expected, mismatch.Actual)
}

func TestDecodeRejectsOversizedHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testPayload(), WithCodec(CodecNone)))

	data := buf.Bytes()
	binary.LittleEndian.PutUint64(data[8:16], 1<<40)

	_, err := Decode(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testPayload(), WithCodec(CodecNone)))

	data := buf.Bytes()
	_, err := Decode(bytes.NewReader(data[:len(data)-10]))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read payload")
}

func TestSaveLoadFile(t *testing.T) {
	payload := testPayload()
	filename := filepath.Join(t.TempDir(), "model.mbuf")

	require.NoError(t, SaveToFile(filename, payload))

	got, err := LoadFromFile(filename)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(filename))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "model.mbuf", entries[0].Name())
}

func TestSaveFileOverwrites(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "model.mbuf")

	require.NoError(t, SaveToFile(filename, []byte("old")))
	require.NoError(t, SaveToFile(filename, []byte("new")))

	got, err := LoadFromFile(filename)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.mbuf"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
