package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lsi/internal/debug"
	"github.com/standardbeagle/lsi/internal/errors"
	"github.com/standardbeagle/lsi/internal/types"
)

// Binary index format, little-endian throughout:
//
//	magic "LSIX", format version uint32
//	meta:     built-at unix nanos int64, file count, token count
//	files:    per file: id, content hash, line count, path
//	symbols:  per symbol: file id, line, end line, kind, name
//	postings: per token (sorted): token, ref count, refs
//	footer:   xxhash64 of everything above
//
// Strings are uint16 length prefixed UTF-8, capped at maxStringLen on
// both the write and the read side so every encoded index loads back.
// The writer emits tokens in sorted order so identical indexes produce
// identical bytes.
const (
	indexMagic    = "LSIX"
	formatVersion = uint32(1)

	// maxStringLen bounds length-prefixed strings. On load a corrupt
	// length cannot trigger a huge allocation; on save an overlong
	// string fails Encode instead of silently wrapping the uint16
	// prefix and producing a file that can never load.
	maxStringLen = 1 << 15
)

// Save writes the index to path atomically (temp file plus rename).
func Save(idx *InvertedIndex, path string) error {
	data, err := Encode(idx)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewFileError("write", path, err)
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.NewFileError("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.NewFileError("rename", path, err)
	}

	debug.LogIndexing("saved index: %d files, %d tokens, %d bytes to %s\n",
		len(idx.Files), len(idx.Postings), len(data), path)
	return nil
}

// Load reads and validates a persisted index. Any structural problem,
// including a checksum mismatch, fails the whole load.
func Load(path string) (*InvertedIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileError("read", path, err)
	}
	idx, err := Decode(data, path)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Encode serializes the index to its binary form.
func Encode(idx *InvertedIndex) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(indexMagic)
	write(&buf, formatVersion)

	write(&buf, idx.Meta.BuiltAt.UnixNano())
	write(&buf, uint32(len(idx.Files)))
	write(&buf, uint32(len(idx.Postings)))

	for _, f := range idx.Files {
		write(&buf, uint32(f.ID))
		write(&buf, f.ContentHash)
		write(&buf, f.LineCount)
		if err := writeString(&buf, f.Path); err != nil {
			return nil, fmt.Errorf("file path %q: %w", f.Path, err)
		}
	}

	write(&buf, uint32(len(idx.Symbols)))
	for _, s := range idx.Symbols {
		write(&buf, uint32(s.FileID))
		write(&buf, s.Line)
		write(&buf, s.EndLine)
		write(&buf, uint8(s.Kind))
		if err := writeString(&buf, s.Name); err != nil {
			return nil, fmt.Errorf("symbol name: %w", err)
		}
	}

	for _, tok := range idx.Tokens() {
		if err := writeString(&buf, tok); err != nil {
			return nil, fmt.Errorf("token: %w", err)
		}
		refs := idx.Postings[tok]
		write(&buf, uint32(len(refs)))
		for _, ref := range refs {
			write(&buf, uint32(ref))
		}
	}

	checksum := xxhash.Sum64(buf.Bytes())
	write(&buf, checksum)

	return buf.Bytes(), nil
}

// Decode parses binary index data. source names the origin for error
// reporting.
func Decode(data []byte, source string) (*InvertedIndex, error) {
	if len(data) < len(indexMagic)+12 {
		return nil, errors.NewIndexCorruptError(source, "file too short")
	}

	payload := data[:len(data)-8]
	stored := binary.LittleEndian.Uint64(data[len(data)-8:])
	if computed := xxhash.Sum64(payload); computed != stored {
		return nil, errors.NewIndexCorruptError(source,
			fmt.Sprintf("checksum mismatch: stored %x, computed %x", stored, computed))
	}

	r := bytes.NewReader(payload)

	magic := make([]byte, len(indexMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != indexMagic {
		return nil, errors.NewIndexCorruptError(source, "bad magic")
	}

	var ver uint32
	if err := read(r, &ver); err != nil {
		return nil, errors.NewIndexCorruptError(source, "truncated version")
	}
	if ver != formatVersion {
		return nil, errors.NewIndexCorruptError(source,
			fmt.Sprintf("unsupported format version %d, want %d", ver, formatVersion))
	}

	idx := NewInvertedIndex()

	var builtAt int64
	var fileCount, tokenCount uint32
	if err := readAll(r, &builtAt, &fileCount, &tokenCount); err != nil {
		return nil, errors.NewIndexCorruptError(source, "truncated meta")
	}
	idx.Meta = types.IndexMeta{
		BuiltAt:    time.Unix(0, builtAt),
		FileCount:  fileCount,
		TokenCount: tokenCount,
	}

	for i := uint32(0); i < fileCount; i++ {
		var f types.FileInfo
		var id uint32
		if err := readAll(r, &id, &f.ContentHash, &f.LineCount); err != nil {
			return nil, errors.NewIndexCorruptError(source, "truncated file table")
		}
		f.ID = types.FileID(id)
		path, err := readString(r)
		if err != nil {
			return nil, errors.NewIndexCorruptError(source, "truncated file path")
		}
		f.Path = path
		idx.Files = append(idx.Files, f)
	}

	var symbolCount uint32
	if err := read(r, &symbolCount); err != nil {
		return nil, errors.NewIndexCorruptError(source, "truncated symbol count")
	}
	for i := uint32(0); i < symbolCount; i++ {
		var s types.Symbol
		var fileID uint32
		var kind uint8
		if err := readAll(r, &fileID, &s.Line, &s.EndLine, &kind); err != nil {
			return nil, errors.NewIndexCorruptError(source, "truncated symbol table")
		}
		s.FileID = types.FileID(fileID)
		s.Kind = types.SymbolKind(kind)
		name, err := readString(r)
		if err != nil {
			return nil, errors.NewIndexCorruptError(source, "truncated symbol name")
		}
		s.Name = name
		idx.Symbols = append(idx.Symbols, s)
	}

	for i := uint32(0); i < tokenCount; i++ {
		tok, err := readString(r)
		if err != nil {
			return nil, errors.NewIndexCorruptError(source, "truncated token table")
		}
		var refCount uint32
		if err := read(r, &refCount); err != nil {
			return nil, errors.NewIndexCorruptError(source, "truncated posting count")
		}
		if int64(refCount)*4 > int64(r.Len()) {
			return nil, errors.NewIndexCorruptError(source, "posting count exceeds remaining data")
		}
		refs := make([]SymbolRef, 0, refCount)
		for j := uint32(0); j < refCount; j++ {
			var ref uint32
			if err := read(r, &ref); err != nil {
				return nil, errors.NewIndexCorruptError(source, "truncated posting list")
			}
			refs = append(refs, SymbolRef(ref))
		}
		idx.Postings[tok] = refs
	}

	if r.Len() != 0 {
		return nil, errors.NewIndexCorruptError(source, fmt.Sprintf("%d trailing bytes", r.Len()))
	}

	if err := idx.Validate(); err != nil {
		return nil, err
	}
	return idx, nil
}

func write(buf *bytes.Buffer, v interface{}) {
	binary.Write(buf, binary.LittleEndian, v)
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > maxStringLen {
		return fmt.Errorf("string length %d exceeds limit %d", len(s), maxStringLen)
	}
	write(buf, uint16(len(s)))
	buf.WriteString(s)
	return nil
}

func read(r *bytes.Reader, v interface{}) error {
	return binary.Read(r, binary.LittleEndian, v)
}

func readAll(r *bytes.Reader, vs ...interface{}) error {
	for _, v := range vs {
		if err := read(r, v); err != nil {
			return err
		}
	}
	return nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := read(r, &n); err != nil {
		return "", err
	}
	if int(n) > maxStringLen {
		return "", fmt.Errorf("string length %d exceeds limit", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
