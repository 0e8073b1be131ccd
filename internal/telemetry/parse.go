package telemetry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseFields splits payload on commas and parses exactly n finite floats.
// Either every field is returned or none are.
func ParseFields(payload string, n int) ([]float64, error) {
	tokens := strings.Split(payload, ",")
	if len(tokens) != n {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(tokens), n)
	}

	values := make([]float64, n)
	for i, tok := range tokens {
		tok = strings.TrimSpace(tok)
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d %q", ErrNonNumeric, i, tok)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: field %d %q is not finite", ErrNonNumeric, i, tok)
		}
		values[i] = v
	}
	return values, nil
}

// FormatValue renders v in the shortest decimal form that round-trips.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
