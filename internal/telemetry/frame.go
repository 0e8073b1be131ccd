package telemetry

import (
	"fmt"
	"regexp"
	"strings"
)

// Framing selects how a payload is located inside a raw line.
type Framing int

const (
	// FramePlain treats the whole trimmed line as the payload.
	FramePlain Framing = iota
	// FrameBracket takes the payload from the first <...> frame in the line,
	// so firmware can interleave free-form diagnostics with telemetry.
	FrameBracket
)

func (f Framing) String() string {
	switch f {
	case FramePlain:
		return "plain"
	case FrameBracket:
		return "bracket"
	default:
		return fmt.Sprintf("framing(%d)", int(f))
	}
}

// Framer extracts the comma-separated payload from a raw line.
type Framer interface {
	Extract(line string) (string, error)
}

// PlainFramer returns the trimmed line unchanged.
type PlainFramer struct{}

func (PlainFramer) Extract(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ErrEmptyLine
	}
	return line, nil
}

var bracketFrame = regexp.MustCompile(`<([0-9.,eE+\- ]+)>`)

// BracketFramer returns the interior of the first <...> frame.
type BracketFramer struct{}

func (BracketFramer) Extract(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ErrEmptyLine
	}
	m := bracketFrame.FindStringSubmatch(line)
	if m == nil {
		return "", ErrNoFrame
	}
	return m[1], nil
}

// NewFramer returns the Framer for f.
func NewFramer(f Framing) Framer {
	if f == FrameBracket {
		return BracketFramer{}
	}
	return PlainFramer{}
}
