// Package csvlog writes capture sessions to header-prefixed CSV files and finds
// the newest one again for rendering.
package csvlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/banshee-data/smc-telemetry/internal/fsutil"
	"github.com/banshee-data/smc-telemetry/internal/telemetry"
)

var fileStamp *strftime.Strftime

func init() {
	var err error
	if fileStamp, err = strftime.New("%Y%m%d_%H%M%S"); err != nil {
		panic(err)
	}
}

// FileName returns "<prefix><YYYYmmdd_HHMMSS>.csv" for a session started at t.
func FileName(prefix string, t time.Time) string {
	return prefix + fileStamp.FormatString(t) + ".csv"
}

// Writer appends records to one log file. Every row is flushed to the file as
// soon as it is written.
type Writer struct {
	path   string
	file   io.WriteCloser
	csv    *csv.Writer
	schema telemetry.Schema
	rows   int
	closed bool
}

// Create makes dir if needed, creates the session's log file and writes the
// header row.
func Create(fsys fsutil.FileSystem, dir string, schema telemetry.Schema, start time.Time) (*Writer, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(dir, FileName(schema.FilePrefix, start))
	f, err := fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	w := &Writer{path: path, file: f, csv: csv.NewWriter(f), schema: schema}
	if err := w.writeRow(schema.Header()); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return w, nil
}

// Path is the file being written.
func (w *Writer) Path() string { return w.path }

// Rows counts data rows written, excluding the header.
func (w *Writer) Rows() int { return w.rows }

// Append writes rec as one row.
func (w *Writer) Append(rec telemetry.Record) error {
	if w.closed {
		return fmt.Errorf("append to closed log %s", w.path)
	}
	if len(rec.Values) != w.schema.N() {
		return fmt.Errorf("record has %d values, log %s expects %d", len(rec.Values), w.path, w.schema.N())
	}
	if (rec.Stamp.Kind != telemetry.StampNone) != (w.schema.Stamp != telemetry.StampNone) {
		return fmt.Errorf("record stamp %s does not match log stamp %s", rec.Stamp.Kind, w.schema.Stamp)
	}
	if err := w.writeRow(rec.Row()); err != nil {
		return fmt.Errorf("append to %s: %w", w.path, err)
	}
	w.rows++
	return nil
}

// Flush pushes buffered rows to the file.
func (w *Writer) Flush() error {
	if w.closed {
		return nil
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes and closes the file. Calling Close twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	flushErr := w.Flush()
	w.closed = true
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.path, err)
	}
	return flushErr
}

func (w *Writer) writeRow(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}
