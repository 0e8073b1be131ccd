package telemetry

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseFields_TwelveFields(t *testing.T) {
	got, err := ParseFields("1.0,2.0,3.0,0.1,0.2,0.3,100,100,0.01,0.02,0.03,0.04", 12)
	require.NoError(t, err)

	want := []float64{1, 2, 3, 0.1, 0.2, 0.3, 100, 100, 0.01, 0.02, 0.03, 0.04}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseFields mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFields_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		n       int
		want    error
	}{
		{"non-numeric token", "1.0,2.0,abc,0.1", 4, ErrNonNumeric},
		{"too few", "1.0,2.0,3.0", 4, ErrFieldCount},
		{"too many", "1,2,3,4,5", 4, ErrFieldCount},
		{"empty token", "1,,3,4", 4, ErrNonNumeric},
		{"nan", "1,NaN,3,4", 4, ErrNonNumeric},
		{"inf", "1,2,+Inf,4", 4, ErrNonNumeric},
		{"trailing comma", "1,2,3,", 3, ErrFieldCount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseFields(tc.payload, tc.n)
			assert.Nil(t, got, "no partial record may be returned")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseFields_TrimsTokens(t *testing.T) {
	got, err := ParseFields(" 1.5 , -2 ,3e2", 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2, 300}, got)
}

func TestParseFields_CountMismatchNeverParses(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 16).Draw(t, "n")
		count := rapid.IntRange(1, 24).Filter(func(c int) bool { return c != n }).Draw(t, "count")
		values := rapid.SliceOfN(rapid.Float64Range(-1e6, 1e6), count, count).Draw(t, "values")

		tokens := make([]string, len(values))
		for i, v := range values {
			tokens[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		got, err := ParseFields(strings.Join(tokens, ","), n)
		if got != nil {
			t.Fatalf("expected no values for %d tokens with n=%d, got %v", count, n, got)
		}
		if !errors.Is(err, ErrFieldCount) {
			t.Fatalf("expected ErrFieldCount, got %v", err)
		}
	})
}

func TestParseFields_FiniteTokensRoundTripInOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 16).Draw(t, "n")
		values := rapid.SliceOfN(rapid.Float64Range(-1e9, 1e9), n, n).Draw(t, "values")

		tokens := make([]string, n)
		for i, v := range values {
			tokens[i] = FormatValue(v)
		}
		got, err := ParseFields(strings.Join(tokens, ","), n)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(values, got); diff != "" {
			t.Fatalf("values changed (-want +got):\n%s", diff)
		}
	})
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "100", FormatValue(100))
	assert.Equal(t, "0.01", FormatValue(0.01))
	assert.Equal(t, "-2.5", FormatValue(-2.5))
}
