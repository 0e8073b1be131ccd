package telemetry

import (
	"time"

	"github.com/lestrrat-go/strftime"
)

// wallClockFormat renders WallClockLayout; %L is milliseconds.
var wallClockFormat = mustStrftime("%Y-%m-%d %H:%M:%S.%L")

func mustStrftime(pattern string) *strftime.Strftime {
	f, err := strftime.New(pattern, strftime.WithMilliseconds('L'))
	if err != nil {
		panic(err)
	}
	return f
}

// Stamp is the host-side receive stamp of a record.
type Stamp struct {
	Kind    StampKind
	Wall    time.Time
	Elapsed time.Duration
}

// Text renders the stamp as it appears in the log file.
func (s Stamp) Text() string {
	switch s.Kind {
	case StampWallClock:
		return wallClockFormat.FormatString(s.Wall)
	case StampElapsed:
		return FormatValue(s.Elapsed.Seconds())
	default:
		return ""
	}
}

// Record is one validated telemetry sample.
type Record struct {
	// Seq counts records within the session, starting at 1.
	Seq    int
	Stamp  Stamp
	Values []float64
}

// Row renders the record as a CSV row matching Schema.Header.
func (r Record) Row() []string {
	row := make([]string, 0, len(r.Values)+1)
	if r.Stamp.Kind != StampNone {
		row = append(row, r.Stamp.Text())
	}
	for _, v := range r.Values {
		row = append(row, FormatValue(v))
	}
	return row
}
