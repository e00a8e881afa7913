package debug

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// saveAndRestoreState saves the debug package state and returns a cleanup function
func saveAndRestoreState() func() {
	originalDebug := EnableDebug
	originalOutput := debugOutput
	originalFile := debugFile
	return func() {
		EnableDebug = originalDebug
		debugOutput = originalOutput
		debugFile = originalFile
	}
}

func TestIsDebugEnabled(t *testing.T) {
	defer saveAndRestoreState()()

	EnableDebug = "false"
	os.Unsetenv("DEBUG")
	assert.False(t, IsDebugEnabled())

	EnableDebug = "true"
	assert.True(t, IsDebugEnabled())

	EnableDebug = "false"
	os.Setenv("DEBUG", "1")
	assert.True(t, IsDebugEnabled())
	os.Unsetenv("DEBUG")
}

func TestPrintfWritesWhenEnabled(t *testing.T) {
	defer saveAndRestoreState()()

	EnableDebug = "true"
	var buf bytes.Buffer
	SetDebugOutput(&buf)

	Printf("hello %s\n", "world")
	assert.True(t, strings.Contains(buf.String(), "[DEBUG] hello world"))
}

func TestPrintfSilentWhenDisabled(t *testing.T) {
	defer saveAndRestoreState()()

	EnableDebug = "false"
	os.Unsetenv("DEBUG")
	var buf bytes.Buffer
	SetDebugOutput(&buf)

	Printf("should not appear")
	assert.Empty(t, buf.String())
}

func TestLogComponentPrefix(t *testing.T) {
	defer saveAndRestoreState()()

	EnableDebug = "true"
	var buf bytes.Buffer
	SetDebugOutput(&buf)

	LogIndexing("indexed %d files\n", 3)
	assert.True(t, strings.Contains(buf.String(), "[DEBUG:INDEX] indexed 3 files"))
}
