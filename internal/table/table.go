// Package table loads a finished capture log into named float64 columns and
// derives the extra series the figures need.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/smc-telemetry/internal/fsutil"
	"github.com/banshee-data/smc-telemetry/internal/telemetry"
)

// ErrNoRows is returned when no data row survives coercion.
var ErrNoRows = errors.New("no valid data rows")

// Spec says which columns a log must have and how to read them.
type Spec struct {
	// Required columns must all be present in the header. Empty means every
	// header column is loaded as numeric.
	Required []string
	// Timestamps are wall-clock columns, stored as Unix seconds.
	Timestamps []string
}

// SpecFor returns the load spec of logs written with schema.
func SpecFor(schema telemetry.Schema) Spec {
	spec := Spec{Required: schema.Header()}
	if schema.Stamp == telemetry.StampWallClock {
		spec.Timestamps = []string{schema.StampColumn}
	}
	return spec
}

// Table is a column-oriented view of a log file. All columns have Len rows.
type Table struct {
	names   []string
	cols    map[string][]float64
	rows    int
	dropped int
}

// LoadFile opens path on fsys and loads it with Load. A file that cannot be
// opened is a telemetry.KindMissingFile error.
func LoadFile(fsys fsutil.FileSystem, path string, spec Spec) (*Table, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, telemetry.MissingFileError("open "+path, err)
	}
	defer f.Close()

	t, err := Load(f, spec)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}

// Load reads a header-prefixed CSV log. Every missing required column is
// reported at once as a telemetry.KindMissingColumn error. Rows with the wrong
// width or a value that does not coerce are dropped and counted.
func Load(r io.Reader, spec Spec) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty log: %w", ErrNoRows)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	names := make([]string, 0, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; dup || h == "" {
			continue
		}
		index[h] = i
		names = append(names, h)
	}
	width := len(header)

	wanted := spec.Required
	if len(wanted) == 0 {
		wanted = names
	}
	var missing []string
	for _, name := range wanted {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, telemetry.MissingColumnError("header", missing)
	}

	isStamp := make(map[string]bool, len(spec.Timestamps))
	for _, name := range spec.Timestamps {
		isStamp[name] = true
	}

	t := &Table{
		names: append([]string(nil), wanted...),
		cols:  make(map[string][]float64, len(wanted)),
	}
	row := make([]float64, len(wanted))

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				t.dropped++
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) != width {
			t.dropped++
			continue
		}

		ok := true
		for j, name := range wanted {
			v, good := coerce(rec[index[name]], isStamp[name])
			if !good {
				ok = false
				break
			}
			row[j] = v
		}
		if !ok {
			t.dropped++
			continue
		}

		for j, name := range wanted {
			t.cols[name] = append(t.cols[name], row[j])
		}
		t.rows++
	}

	if t.rows == 0 {
		return nil, ErrNoRows
	}
	return t, nil
}

// stampLayouts are tried in order for wall-clock columns.
var stampLayouts = []string{telemetry.WallClockLayout, "2006-01-02 15:04:05", time.RFC3339Nano}

func coerce(s string, stamp bool) (float64, bool) {
	s = strings.TrimSpace(s)
	if stamp {
		for _, layout := range stampLayouts {
			if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return float64(ts.UnixNano()) / 1e9, true
			}
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Len is the number of rows.
func (t *Table) Len() int { return t.rows }

// Dropped is the number of data rows discarded while loading.
func (t *Table) Dropped() int { return t.dropped }

// Columns lists column names in load order followed by derived columns.
func (t *Table) Columns() []string { return append([]string(nil), t.names...) }

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the named column. The slice must not be modified.
func (t *Table) Column(name string) ([]float64, bool) {
	c, ok := t.cols[name]
	return c, ok
}

// Set adds or replaces a column.
func (t *Table) Set(name string, values []float64) error {
	if len(values) != t.rows {
		return fmt.Errorf("column %q has %d rows, table has %d", name, len(values), t.rows)
	}
	if _, ok := t.cols[name]; !ok {
		t.names = append(t.names, name)
	}
	t.cols[name] = values
	return nil
}

func (t *Table) source(name string) ([]float64, error) {
	c, ok := t.cols[name]
	if !ok {
		return nil, telemetry.MissingColumnError("derive", []string{name})
	}
	return c, nil
}
