package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainFramer(t *testing.T) {
	got, err := PlainFramer{}.Extract("  1,2,3\r\n")
	require.NoError(t, err)
	assert.Equal(t, "1,2,3", got)

	_, err = PlainFramer{}.Extract("   ")
	assert.ErrorIs(t, err, ErrEmptyLine)
}

func TestBracketFramer(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
		err  error
	}{
		{"bare frame", "<1.0,2.0,-3>", "1.0,2.0,-3", nil},
		{"frame with prefix", "DATA <0.5,1e-3> tail", "0.5,1e-3", nil},
		{"first frame wins", "<1,2><3,4>", "1,2", nil},
		{"no frame", "TIMING loop=12ms", "", ErrNoFrame},
		{"letters inside frame", "<1,abc>", "", ErrNoFrame},
		{"empty", "", "", ErrEmptyLine},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := BracketFramer{}.Extract(tc.line)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewFramer(t *testing.T) {
	assert.IsType(t, BracketFramer{}, NewFramer(FrameBracket))
	assert.IsType(t, PlainFramer{}, NewFramer(FramePlain))
}
