// Package testutil provides shared test utilities and fixtures.
package testutil

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/banshee-data/smc-telemetry/internal/fsutil"
	"github.com/banshee-data/smc-telemetry/internal/monitoring"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// CaptureLogs sends monitoring output to the returned buffer until the test
// ends, then restores the previous logger, level, and Logf.
func CaptureLogs(t testing.TB) *bytes.Buffer {
	t.Helper()

	out, level, logf := monitoring.Log.Out, monitoring.Log.GetLevel(), monitoring.Logf
	t.Cleanup(func() {
		monitoring.Log.SetOutput(out)
		monitoring.Log.SetLevel(level)
		monitoring.Logf = logf
	})

	var buf bytes.Buffer
	monitoring.Log.SetOutput(&buf)
	monitoring.Logf = monitoring.Log.Infof
	return &buf
}

// WriteFile stores content at path on fsys, creating parent directories.
func WriteFile(t testing.TB, fsys fsutil.FileSystem, path, content string) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := fsys.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

