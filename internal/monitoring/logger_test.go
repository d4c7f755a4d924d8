package monitoring

import (
	"fmt"
	"strings"
	"testing"
)

func TestSetLoggerCaptures(t *testing.T) {
	orig := Logf
	defer func() { Logf = orig }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	Logf("loaded %d points", 42)
	if len(lines) != 1 || lines[0] != "loaded 42 points" {
		t.Errorf("captured lines = %v", lines)
	}
}

func TestWarnfPrefix(t *testing.T) {
	orig := Logf
	defer func() { Logf = orig }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	Warnf("dropped %d records", 3)
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "warn: ") {
		t.Errorf("warning should carry the warn prefix, got %v", lines)
	}
}

func TestSetLoggerNilMutes(t *testing.T) {
	orig := Logf
	defer func() { Logf = orig }()

	SetLogger(nil)
	// Must not panic.
	Logf("into the void")
	Warnf("also muted")
}
