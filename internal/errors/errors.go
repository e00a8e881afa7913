package errors

import (
	"fmt"
	"time"

	"github.com/standardbeagle/lsi/internal/types"
)

// Error types for the lightning-symbol-index system
type ErrorType string

const (
	// Indexing errors
	ErrorTypeParse  ErrorType = "parse"
	ErrorTypeSearch ErrorType = "search"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeFileTooLarge ErrorType = "file_too_large"
	ErrorTypePermission   ErrorType = "permission"

	// Index persistence errors
	ErrorTypeIndexCorrupt ErrorType = "index_corrupt"

	// Analysis errors
	ErrorTypeUnknownFunction ErrorType = "unknown_function"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// ErrNoTree signals that the syntax front end produced no tree at all,
// as opposed to a tree containing error nodes.
var ErrNoTree = fmt.Errorf("parser produced no syntax tree")

// ParseError represents a per-file parsing failure. The file is excluded
// from the index and the error lands in the build summary; it is never
// fatal to the batch.
type ParseError struct {
	Type       ErrorType
	FileID     types.FileID
	FilePath   string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a new parse error
func NewParseError(path string, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		FilePath:   path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithFile adds the assigned file id to the error
func (e *ParseError) WithFile(fileID types.FileID) *ParseError {
	e.FileID = fileID
	return e
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failed for %s: %v", e.FilePath, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// FileError represents a file-related I/O error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	return &FileError{
		Type:       ErrorTypeFileNotFound,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// IndexCorruptError means a persisted index failed validation on load.
// Loads fail entirely; a partially usable index is never returned.
type IndexCorruptError struct {
	Type   ErrorType
	Source string
	Detail string
}

// NewIndexCorruptError creates a new index corruption error
func NewIndexCorruptError(source, detail string) *IndexCorruptError {
	return &IndexCorruptError{
		Type:   ErrorTypeIndexCorrupt,
		Source: source,
		Detail: detail,
	}
}

// Error implements the error interface
func (e *IndexCorruptError) Error() string {
	return fmt.Sprintf("index %s is corrupt: %s", e.Source, e.Detail)
}

// UnknownFunctionError is the structured "not found" result for a CFG or
// complexity request naming a function the file does not define.
type UnknownFunctionError struct {
	Type     ErrorType
	Function string
	FilePath string
}

// NewUnknownFunctionError creates a new unknown function error
func NewUnknownFunctionError(function, path string) *UnknownFunctionError {
	return &UnknownFunctionError{
		Type:     ErrorTypeUnknownFunction,
		Function: function,
		FilePath: path,
	}
}

// Error implements the error interface
func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("function %q not found in %s", e.Function, e.FilePath)
}

// SearchError represents a search operation error
type SearchError struct {
	Type       ErrorType
	Query      string
	Underlying error
	Timestamp  time.Time
}

// NewSearchError creates a new search error
func NewSearchError(query string, err error) *SearchError {
	return &SearchError{
		Type:       ErrorTypeSearch,
		Query:      query,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *SearchError) Error() string {
	return fmt.Sprintf("search failed for query %q: %v", e.Query, e.Underlying)
}

// Unwrap returns the underlying error
func (e *SearchError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error, dropping nil entries
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// SkipReason renders a per-file error as a short build summary reason.
func SkipReason(err error) string {
	switch e := err.(type) {
	case *ParseError:
		return fmt.Sprintf("parse failure: %v", e.Underlying)
	case *FileError:
		return fmt.Sprintf("%s failed: %v", e.Operation, e.Underlying)
	default:
		return err.Error()
	}
}

// TooLarge marks a file skipped for exceeding the configured size limit.
func TooLarge(path string, size, limit int64) *FileError {
	return &FileError{
		Type:       ErrorTypeFileTooLarge,
		Path:       path,
		Operation:  "read",
		Underlying: fmt.Errorf("size %d exceeds limit %d", size, limit),
		Timestamp:  time.Now(),
	}
}
