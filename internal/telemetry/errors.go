package telemetry

import (
	"errors"
	"fmt"
)

// Kind classifies a failure into one of the closed set of error kinds the
// capture and render tools distinguish.
type Kind uint8

const (
	// KindConnection covers a stream that cannot be opened or breaks mid-session.
	KindConnection Kind = iota + 1
	// KindMalformedRecord covers a line with the wrong token count or a
	// non-numeric token.
	KindMalformedRecord
	// KindMissingColumn covers a log file lacking expected columns.
	KindMissingColumn
	// KindMissingFile covers a log file that cannot be found or opened.
	KindMissingFile
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindMalformedRecord:
		return "malformed record"
	case KindMissingColumn:
		return "missing column"
	case KindMissingFile:
		return "missing file"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Error is the typed result returned at package boundaries.
type Error struct {
	Kind Kind
	// Op names the step that failed, e.g. "open /dev/ttyACM0".
	Op  string
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a bare sentinel of the same kind, so errors.Is(err,
// ErrMissingColumn) holds for any missing-column failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Err == nil && t.Op == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrConnection      = &Error{Kind: KindConnection}
	ErrMalformedRecord = &Error{Kind: KindMalformedRecord}
	ErrMissingColumn   = &Error{Kind: KindMissingColumn}
	ErrMissingFile     = &Error{Kind: KindMissingFile}
)

// Reasons a line is rejected. They are wrapped in a KindMalformedRecord error.
var (
	ErrEmptyLine  = errors.New("empty line")
	ErrNoFrame    = errors.New("no <...> frame in line")
	ErrFieldCount = errors.New("unexpected field count")
	ErrNonNumeric = errors.New("non-numeric field")
)

// ConnectionError wraps err as a KindConnection failure.
func ConnectionError(op string, err error) error {
	return &Error{Kind: KindConnection, Op: op, Err: err}
}

// MissingFileError wraps err as a KindMissingFile failure.
func MissingFileError(op string, err error) error {
	return &Error{Kind: KindMissingFile, Op: op, Err: err}
}

// MissingColumnError reports every absent column at once.
func MissingColumnError(path string, missing []string) error {
	return &Error{Kind: KindMissingColumn, Op: path, Err: fmt.Errorf("missing required columns %q", missing)}
}

func malformed(err error) error {
	return &Error{Kind: KindMalformedRecord, Err: err}
}

// KindOf reports the kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
