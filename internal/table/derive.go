package table

import "fmt"

// AddIndex sets dst to the sample index 0, 1, 2, ...
func (t *Table) AddIndex(dst string) error {
	idx := make([]float64, t.rows)
	for i := range idx {
		idx[i] = float64(i)
	}
	return t.Set(dst, idx)
}

// AddElapsed sets dst to the seconds since the first row of src.
func (t *Table) AddElapsed(src, dst string) error {
	in, err := t.source(src)
	if err != nil {
		return err
	}
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = v - in[0]
	}
	return t.Set(dst, out)
}

// AddDerivative sets dst to the backward difference of src divided by period.
// The first sample has no predecessor and is 0.
func (t *Table) AddDerivative(src, dst string, period float64) error {
	if !(period > 0) {
		return fmt.Errorf("sample period must be positive, got %v", period)
	}
	in, err := t.source(src)
	if err != nil {
		return err
	}
	out := make([]float64, len(in))
	for i := 1; i < len(in); i++ {
		out[i] = (in[i] - in[i-1]) / period
	}
	return t.Set(dst, out)
}
