package table

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises one column.
type Stats struct {
	Name string
	N    int
	Min  float64
	Max  float64
	Mean float64
	// Std is the sample standard deviation; zero for fewer than two rows.
	Std float64
}

// Summarize computes Stats for each named column that exists, in order.
func (t *Table) Summarize(columns []string) []Stats {
	out := make([]Stats, 0, len(columns))
	for _, name := range columns {
		c, ok := t.cols[name]
		if !ok || len(c) == 0 {
			continue
		}
		s := Stats{
			Name: name,
			N:    len(c),
			Min:  floats.Min(c),
			Max:  floats.Max(c),
			Mean: stat.Mean(c, nil),
		}
		if len(c) > 1 {
			s.Std = stat.StdDev(c, nil)
		}
		out = append(out, s)
	}
	return out
}

// WriteSummary prints stats as a fixed-width block.
func WriteSummary(w io.Writer, stats []Stats) error {
	if _, err := fmt.Fprintf(w, "%-20s %12s %12s %12s %12s\n", "column", "min", "max", "mean", "std"); err != nil {
		return err
	}
	for _, s := range stats {
		if _, err := fmt.Fprintf(w, "%-20s %12.4f %12.4f %12.4f %12.4f\n",
			s.Name, clean(s.Min), clean(s.Max), clean(s.Mean), clean(s.Std)); err != nil {
			return err
		}
	}
	return nil
}

// clean turns -0 into 0 so the block is stable across runs.
func clean(v float64) float64 {
	if v == 0 || math.Abs(v) < 5e-5 {
		return 0
	}
	return v
}
