package ingest

import (
	"fmt"
	"io"
	"time"
)

// StopReason records why a session ended.
type StopReason int

const (
	StopInterrupted StopReason = iota
	StopDuration
	StopEndOfStream
	StopReadError
	StopSinkError
)

func (r StopReason) String() string {
	switch r {
	case StopInterrupted:
		return "interrupted"
	case StopDuration:
		return "duration reached"
	case StopEndOfStream:
		return "end of stream"
	case StopReadError:
		return "read error"
	case StopSinkError:
		return "write error"
	default:
		return fmt.Sprintf("stop(%d)", int(r))
	}
}

// Summary is the end-of-session report.
type Summary struct {
	SessionID string
	Path      string
	Records   int
	Discarded int
	Elapsed   time.Duration
	Stop      StopReason
}

// Rate is records per second over the whole session.
func (s Summary) Rate() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Records) / secs
}

// WriteSummary prints the operator-facing report.
func (s Summary) WriteSummary(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"\nCapture %s (%s)\n"+
			"  records:   %d\n"+
			"  discarded: %d\n"+
			"  duration:  %.1fs\n"+
			"  rate:      %.1f Hz\n",
		s.SessionID, s.Stop, s.Records, s.Discarded, s.Elapsed.Seconds(), s.Rate())
	if err != nil {
		return err
	}
	if s.Path != "" {
		_, err = fmt.Fprintf(w, "  saved to:  %s\n", s.Path)
	}
	return err
}
