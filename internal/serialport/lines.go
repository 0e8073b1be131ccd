package serialport

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/banshee-data/smc-telemetry/internal/monitoring"
)

// MaxLineLength caps how many bytes may accumulate without a newline. Longer
// runs are dropped; the firmware never sends lines anywhere near this long.
const MaxLineLength = 4096

// LineReader splits a timed-out serial stream into lines.
//
// A Read returning 0, nil is how a port with a read timeout reports that no
// byte arrived, so LineReader surfaces it as "no line yet" instead of failing
// the way bufio.Scanner does after repeated empty reads.
type LineReader struct {
	r       io.Reader
	buf     []byte
	chunk   []byte
	eof     bool
	dropped int
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: r, chunk: make([]byte, 256)}
}

// ReadLine returns the next complete line without its terminator. ok is false
// when no complete line is buffered yet; the caller should check its deadlines
// and call again. At end of stream a trailing partial line is returned once,
// then io.EOF. Bytes that are not valid UTF-8 are removed.
func (lr *LineReader) ReadLine() (line string, ok bool, err error) {
	if line, ok := lr.next(); ok {
		return line, true, nil
	}

	if lr.eof {
		if len(lr.buf) > 0 {
			line := clean(lr.buf)
			lr.buf = lr.buf[:0]
			return line, true, nil
		}
		return "", false, io.EOF
	}

	n, err := lr.r.Read(lr.chunk)
	if n > 0 {
		lr.buf = append(lr.buf, lr.chunk[:n]...)
	}
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", false, err
		}
		lr.eof = true
	}

	if line, ok := lr.next(); ok {
		return line, true, nil
	}

	if len(lr.buf) > MaxLineLength {
		lr.dropped++
		monitoring.Logf("serialport: dropped %d bytes with no line terminator", len(lr.buf))
		lr.buf = lr.buf[:0]
	}

	if lr.eof {
		return lr.ReadLine()
	}
	return "", false, nil
}

// Dropped reports how many overlong runs were discarded.
func (lr *LineReader) Dropped() int { return lr.dropped }

// Reset forgets any partially received line.
func (lr *LineReader) Reset() { lr.buf = lr.buf[:0] }

func (lr *LineReader) next() (string, bool) {
	i := bytes.IndexByte(lr.buf, '\n')
	if i < 0 {
		return "", false
	}
	line := clean(lr.buf[:i])
	lr.buf = append(lr.buf[:0], lr.buf[i+1:]...)
	return line, true
}

func clean(b []byte) string {
	return strings.ToValidUTF8(strings.TrimRight(string(b), "\r"), "")
}
