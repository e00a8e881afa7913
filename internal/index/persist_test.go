package index

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lsierrors "github.com/standardbeagle/lsi/internal/errors"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	idx := buildTestIndex(t)
	path := filepath.Join(t.TempDir(), "index.lsi")

	require.NoError(t, Save(idx, path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, idx.Files, loaded.Files)
	assert.Equal(t, idx.Symbols, loaded.Symbols)
	assert.Equal(t, idx.Postings, loaded.Postings)
	assert.Equal(t, idx.Meta.FileCount, loaded.Meta.FileCount)
	assert.Equal(t, idx.Meta.TokenCount, loaded.Meta.TokenCount)
	assert.Equal(t, idx.Meta.BuiltAt.UnixNano(), loaded.Meta.BuiltAt.UnixNano())
}

func TestEncodeIsDeterministic(t *testing.T) {
	idx := buildTestIndex(t)

	first, err := Encode(idx)
	require.NoError(t, err)
	second, err := Encode(idx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoadRejectsFlippedByte(t *testing.T) {
	idx := buildTestIndex(t)
	path := filepath.Join(t.TempDir(), "index.lsi")
	require.NoError(t, Save(idx, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)/2] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = Load(path)
	var corrupt *lsierrors.IndexCorruptError
	require.ErrorAs(t, err, &corrupt)
}

func TestLoadRejectsTruncation(t *testing.T) {
	idx := buildTestIndex(t)
	data, err := Encode(idx)
	require.NoError(t, err)

	_, err = Decode(data[:len(data)-10], "test")
	var corrupt *lsierrors.IndexCorruptError
	require.ErrorAs(t, err, &corrupt)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	idx := buildTestIndex(t)
	data, err := Encode(idx)
	require.NoError(t, err)

	data[0] = 'X'
	// Recompute nothing: the checksum no longer matches either, but the
	// reported error must still be a corruption error.
	_, err = Decode(data, "test")
	var corrupt *lsierrors.IndexCorruptError
	require.ErrorAs(t, err, &corrupt)
}

func TestLoadRejectsUnknownFormatVersion(t *testing.T) {
	idx := buildTestIndex(t)
	data, err := Encode(idx)
	require.NoError(t, err)

	// Bump the version field and recompute the footer so only the
	// version check can reject the file, not the checksum.
	binary.LittleEndian.PutUint32(data[len(indexMagic):], formatVersion+1)
	payload := data[:len(data)-8]
	binary.LittleEndian.PutUint64(data[len(data)-8:], xxhash.Sum64(payload))

	_, err = Decode(data, "test")
	var corrupt *lsierrors.IndexCorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Detail, "version")
}

func TestEncodeRejectsOversizedString(t *testing.T) {
	idx := buildTestIndex(t)
	idx.Symbols[0].Name = strings.Repeat("a", maxStringLen+1)

	// An identifier too long for the uint16 prefix must fail the save,
	// not produce a file the loader can never accept.
	_, err := Encode(idx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.lsi"))
	var fileErr *lsierrors.FileError
	require.ErrorAs(t, err, &fileErr)
}

func TestSaveIsAtomic(t *testing.T) {
	idx := buildTestIndex(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "index.lsi")

	require.NoError(t, Save(idx, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "index.lsi", entries[0].Name())
}
