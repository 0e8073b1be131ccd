package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/smc-telemetry/internal/timeutil"
)

func TestMemoryFileSystem_WriteReadFile(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.WriteFile("/logs/a.csv", []byte("L_Dist\n1\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/logs/a.csv")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "L_Dist\n1\n" {
		t.Errorf("got %q", data)
	}
}

func TestMemoryFileSystem_CreateIsWriteThrough(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/logs/live.csv")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := w.Write([]byte("header\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Visible before Close.
	data, err := mfs.ReadFile("/logs/live.csv")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "header\n" {
		t.Errorf("got %q, want header line", data)
	}

	if _, err := w.Write([]byte("1,2\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := w.Write([]byte("late")); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("write after close: got %v, want fs.ErrClosed", err)
	}
	if err := w.Close(); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("double close: got %v, want fs.ErrClosed", err)
	}

	data, _ = mfs.ReadFile("/logs/live.csv")
	if string(data) != "header\n1,2\n" {
		t.Errorf("got %q", data)
	}
}

func TestMemoryFileSystem_Open(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/x.csv", []byte("abc"), 0644)

	f, err := mfs.Open("/x.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "abc" {
		t.Errorf("got %q", data)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "x.csv" || info.Size() != 3 {
		t.Errorf("unexpected info: name=%q size=%d", info.Name(), info.Size())
	}
}

func TestMemoryFileSystem_NotExist(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.Open("/missing.csv"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open: got %v, want fs.ErrNotExist", err)
	}
	if _, err := mfs.ReadFile("/missing.csv"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile: got %v, want fs.ErrNotExist", err)
	}
	if _, err := mfs.Stat("/missing.csv"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat: got %v, want fs.ErrNotExist", err)
	}
	if mfs.Exists("/missing.csv") {
		t.Error("expected file to not exist")
	}
}

func TestMemoryFileSystem_ModTimeFollowsClock(t *testing.T) {
	start := time.Date(2025, 11, 19, 18, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(start)
	mfs := NewMemoryFileSystemWithClock(clock)

	_ = mfs.WriteFile("/old.csv", nil, 0644)
	clock.Advance(time.Minute)
	_ = mfs.WriteFile("/new.csv", nil, 0644)

	oldInfo, _ := mfs.Stat("/old.csv")
	newInfo, _ := mfs.Stat("/new.csv")

	if !oldInfo.ModTime().Equal(start) {
		t.Errorf("old modtime: got %v, want %v", oldInfo.ModTime(), start)
	}
	if !newInfo.ModTime().After(oldInfo.ModTime()) {
		t.Errorf("expected new.csv to be newer than old.csv")
	}
}

func TestMemoryFileSystem_Glob(t *testing.T) {
	mfs := NewMemoryFileSystem()
	for _, name := range []string{
		"/logs/smc_log_20251119_180000.csv",
		"/logs/smc_log_20251118_090000.csv",
		"/logs/robot_data_20251119_180000.csv",
		"/other/smc_log_20251119_180000.csv",
	} {
		_ = mfs.WriteFile(name, nil, 0644)
	}

	got, err := mfs.Glob("/logs/smc_log_*.csv")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	want := []string{
		"/logs/smc_log_20251118_090000.csv",
		"/logs/smc_log_20251119_180000.csv",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match %d: got %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := mfs.Glob("/logs/[.csv"); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestMemoryFileSystem_MkdirAll(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.MkdirAll("/a/b/c", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, dir := range []string{"/a", "/a/b", "/a/b/c"} {
		if !mfs.Exists(dir) {
			t.Errorf("expected %s to exist", dir)
		}
	}

	info, err := mfs.Stat("/a/b")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory")
	}
}

func TestMemoryFileSystem_DataIsolation(t *testing.T) {
	mfs := NewMemoryFileSystem()

	original := []byte("original")
	_ = mfs.WriteFile("/isolated.txt", original, 0644)
	original[0] = 'X'

	data, _ := mfs.ReadFile("/isolated.txt")
	if data[0] != 'o' {
		t.Error("expected data to be isolated from original slice")
	}
	data[0] = 'Y'

	data2, _ := mfs.ReadFile("/isolated.txt")
	if data2[0] != 'o' {
		t.Error("expected read data to be isolated")
	}
}

func TestOSFileSystem_RoundTrip(t *testing.T) {
	osfs := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "logs")

	if err := osfs.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	path := filepath.Join(dir, "smc_log_20251119_180000.csv")
	w, err := osfs.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("a,b\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !osfs.Exists(path) {
		t.Fatal("expected file to exist")
	}
	data, err := osfs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "a,b\n" {
		t.Errorf("got %q", data)
	}

	matches, err := osfs.Glob(filepath.Join(dir, "smc_log_*.csv"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) != 1 || matches[0] != path {
		t.Errorf("unexpected matches %v", matches)
	}
}
