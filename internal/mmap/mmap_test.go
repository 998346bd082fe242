package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestOpenAndRead(t *testing.T) {
	data := []byte("hello mmap")
	m, err := Open(writeTestFile(t, data))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(data), m.Size())
	assert.Equal(t, data, m.Bytes())

	p := make([]byte, 4)
	n, err := m.ReadAt(p, 6)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "mmap", string(p))
}

func TestReadAtBounds(t *testing.T) {
	m, err := Open(writeTestFile(t, []byte("0123456789")))
	require.NoError(t, err)
	defer m.Close()

	p := make([]byte, 4)

	n, err := m.ReadAt(p, 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = m.ReadAt(p, 100)
	assert.ErrorIs(t, err, io.EOF)

	_, err = m.ReadAt(p, -1)
	assert.ErrorIs(t, err, ErrInvalidOffset)
}

func TestOpenEmptyFile(t *testing.T) {
	m, err := Open(writeTestFile(t, nil))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.Size())
	assert.Empty(t, m.Bytes())
	assert.NoError(t, m.Advise(AccessRandom))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestAdvise(t *testing.T) {
	m, err := Open(writeTestFile(t, []byte("advised")))
	require.NoError(t, err)
	defer m.Close()

	for _, pattern := range []AccessPattern{AccessDefault, AccessSequential, AccessRandom, AccessWillNeed} {
		assert.NoError(t, m.Advise(pattern))
	}
}

func TestCloseIdempotent(t *testing.T) {
	m, err := Open(writeTestFile(t, []byte("x")))
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Nil(t, m.Bytes())
	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Advise(AccessRandom), ErrClosed)
}
