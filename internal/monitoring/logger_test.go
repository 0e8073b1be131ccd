package monitoring

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")

	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op
	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestConfigure(t *testing.T) {
	originalLogf := Logf
	originalOut := Log.Out
	originalLevel := Log.GetLevel()
	defer func() {
		Logf = originalLogf
		Log.SetOutput(originalOut)
		Log.SetLevel(originalLevel)
	}()

	var buf bytes.Buffer
	if err := Configure(&buf, "warn"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	Logf("suppressed at warn")
	if buf.Len() != 0 {
		t.Errorf("info message should be filtered at warn level, got %q", buf.String())
	}

	Log.Warnf("port %s reset", "/dev/ttyACM0")
	if !bytes.Contains(buf.Bytes(), []byte("port /dev/ttyACM0 reset")) {
		t.Errorf("expected warning in output, got %q", buf.String())
	}

	if Log.GetLevel() != logrus.WarnLevel {
		t.Errorf("level: got %v, want warn", Log.GetLevel())
	}

	if err := Configure(&buf, "chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestWithSession(t *testing.T) {
	entry := WithSession("abc")
	if entry.Data["session"] != "abc" {
		t.Errorf("session field: got %v", entry.Data["session"])
	}
}

func TestCheckLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if err := CheckLevel(level); err != nil {
			t.Errorf("CheckLevel(%q): %v", level, err)
		}
	}
	if err := CheckLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
