package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestParseErrorWrapping(t *testing.T) {
	underlying := stderrors.New("unexpected token")
	err := NewParseError("src/app.py", underlying).WithFile(7)

	if !stderrors.Is(err, underlying) {
		t.Error("ParseError should unwrap to the underlying error")
	}
	if err.FileID != 7 {
		t.Errorf("FileID = %d, want 7", err.FileID)
	}

	var pe *ParseError
	wrapped := fmt.Errorf("indexing: %w", err)
	if !stderrors.As(wrapped, &pe) {
		t.Error("errors.As should find ParseError through wrapping")
	}
}

func TestIndexCorruptError(t *testing.T) {
	err := NewIndexCorruptError("index.lsi", "checksum mismatch")
	var ice *IndexCorruptError
	if !stderrors.As(err, &ice) {
		t.Fatal("errors.As should match IndexCorruptError")
	}
	if ice.Type != ErrorTypeIndexCorrupt {
		t.Errorf("Type = %q, want %q", ice.Type, ErrorTypeIndexCorrupt)
	}
}

func TestUnknownFunctionError(t *testing.T) {
	err := NewUnknownFunctionError("frobnicate", "src/app.py")
	want := `function "frobnicate" not found in src/app.py`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestMultiErrorFiltersNil(t *testing.T) {
	e1 := stderrors.New("one")
	me := NewMultiError([]error{nil, e1, nil})
	if len(me.Errors) != 1 {
		t.Fatalf("expected 1 error after filtering, got %d", len(me.Errors))
	}
	if me.Error() != "one" {
		t.Errorf("single-error rendering = %q, want %q", me.Error(), "one")
	}
	if !stderrors.Is(me, e1) {
		t.Error("MultiError should unwrap to members")
	}
}

func TestTooLarge(t *testing.T) {
	err := TooLarge("big.py", 2048, 1024)
	if err.Type != ErrorTypeFileTooLarge {
		t.Errorf("Type = %q, want %q", err.Type, ErrorTypeFileTooLarge)
	}
	if SkipReason(err) == "" {
		t.Error("SkipReason should render a non-empty reason")
	}
}
