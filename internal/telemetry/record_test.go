package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecord_RowWithoutStamp(t *testing.T) {
	r := Record{Values: []float64{1, 2.5, -0.01}}
	assert.Equal(t, []string{"1", "2.5", "-0.01"}, r.Row())
}

func TestRecord_RowWithWallClock(t *testing.T) {
	wall := time.Date(2025, 11, 19, 18, 0, 1, 234_567_000, time.UTC)
	r := Record{Stamp: Stamp{Kind: StampWallClock, Wall: wall}, Values: []float64{7}}
	assert.Equal(t, []string{"2025-11-19 18:00:01.234", "7"}, r.Row())

	parsed, err := time.Parse(WallClockLayout, r.Row()[0])
	assert.NoError(t, err)
	assert.True(t, wall.Truncate(time.Millisecond).Equal(parsed))
}

func TestRecord_RowWithElapsed(t *testing.T) {
	r := Record{Stamp: Stamp{Kind: StampElapsed, Elapsed: 1500 * time.Millisecond}, Values: []float64{3}}
	assert.Equal(t, []string{"1.5", "3"}, r.Row())
}
