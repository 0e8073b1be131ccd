// Package ingest runs a capture session: it pulls lines from the serial link,
// keeps the ones that decode into complete telemetry records, and appends them
// to the session log.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/banshee-data/smc-telemetry/internal/monitoring"
	"github.com/banshee-data/smc-telemetry/internal/telemetry"
	"github.com/banshee-data/smc-telemetry/internal/timeutil"
)

// Sink persists records. csvlog.Writer is the production sink.
type Sink interface {
	Append(rec telemetry.Record) error
	Flush() error
}

// LineSource yields lines from the device. ok is false when no complete line
// arrived within the read timeout; io.EOF ends the session normally.
// serialport.LineReader is the production source.
type LineSource interface {
	ReadLine() (line string, ok bool, err error)
}

// Outcome classifies what HandleLine did with a line.
type Outcome int

const (
	// Ignored lines are blank or a repeat of the firmware's CSV header.
	Ignored Outcome = iota
	// Logged lines became a record.
	Logged
	// Discarded lines failed to decode.
	Discarded
	// Diagnostic lines are unframed firmware messages shown to the operator.
	Diagnostic
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Logged:
		return "logged"
	case Discarded:
		return "discarded"
	case Diagnostic:
		return "diagnostic"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Session is one capture run. It is not safe for concurrent use; the whole
// loop runs on the caller's goroutine.
type Session struct {
	id      string
	cfg     Config
	sink    Sink
	clock   timeutil.Clock
	console io.Writer
	log     *logrus.Entry
	start   time.Time

	records   int
	discarded int
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used for stamps and the duration bound.
func WithClock(c timeutil.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithConsole sets where echo lines and diagnostics go. Defaults to io.Discard.
func WithConsole(w io.Writer) Option {
	return func(s *Session) { s.console = w }
}

// WithStart fixes the session start instead of reading it from the clock, so
// the log file name and elapsed stamps share one origin.
func WithStart(t time.Time) Option {
	return func(s *Session) { s.start = t }
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// NewSession validates cfg and prepares a session writing to sink.
func NewSession(cfg Config, sink Sink, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid capture config: %w", err)
	}
	if sink == nil {
		return nil, errors.New("nil sink")
	}

	s := &Session{
		id:      uuid.NewString(),
		cfg:     cfg,
		sink:    sink,
		clock:   timeutil.RealClock{},
		console: io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.start.IsZero() {
		s.start = s.clock.Now()
	}
	s.log = monitoring.WithSession(s.id)
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Start returns the session's time origin.
func (s *Session) Start() time.Time { return s.start }

// HandleLine runs one iteration of the capture loop on line. The only error it
// returns is a sink failure, which ends the session.
func (s *Session) HandleLine(line string) (Outcome, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Ignored, nil
	}

	schema := s.cfg.Schema
	if strings.HasPrefix(line, schema.Fields[0]) {
		s.log.Debugf("skipping header echo %q", line)
		return Ignored, nil
	}

	values, err := schema.Decode(line)
	if err != nil {
		return s.reject(line, err)
	}

	s.records++
	rec := telemetry.Record{
		Seq:    s.records,
		Stamp:  s.stamp(),
		Values: values,
	}
	if err := s.sink.Append(rec); err != nil {
		s.records--
		return Discarded, fmt.Errorf("append record %d: %w", rec.Seq, err)
	}

	if s.cfg.EchoEvery > 0 && s.records%s.cfg.EchoEvery == 0 {
		s.echo(line, rec)
	}
	return Logged, nil
}

func (s *Session) reject(line string, err error) (Outcome, error) {
	schema := s.cfg.Schema
	unframed := errors.Is(err, telemetry.ErrNoFrame)
	if unframed && containsAny(line, schema.DiagnosticKeywords) {
		fmt.Fprintln(s.console, line)
		return Diagnostic, nil
	}

	s.discarded++
	s.log.WithField("line", line).Debugf("discarded: %v", err)
	if s.cfg.ReportMalformed && !unframed {
		fmt.Fprintf(s.console, "skipped malformed line %q: %v\n", line, err)
	}
	if s.cfg.FlushOnError {
		if err := s.sink.Flush(); err != nil {
			return Discarded, fmt.Errorf("flush after discarded line: %w", err)
		}
	}
	return Discarded, nil
}

func (s *Session) stamp() telemetry.Stamp {
	switch s.cfg.Schema.Stamp {
	case telemetry.StampWallClock:
		return telemetry.Stamp{Kind: telemetry.StampWallClock, Wall: s.clock.Now()}
	case telemetry.StampElapsed:
		return telemetry.Stamp{Kind: telemetry.StampElapsed, Elapsed: s.clock.Since(s.start)}
	default:
		return telemetry.Stamp{}
	}
}

func (s *Session) echo(line string, rec telemetry.Record) {
	n := s.cfg.Schema.EchoFields
	if n == 0 {
		fmt.Fprintln(s.console, line)
		return
	}

	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("%s=%.1f", s.cfg.Schema.Fields[i], rec.Values[i])
	}
	fmt.Fprintf(s.console, "[%.1fs] Sample %d: %s\n",
		s.clock.Since(s.start).Seconds(), rec.Seq, strings.Join(parts, ", "))
}

// Run reads lines from src until ctx is cancelled, the duration bound passes,
// the stream ends, or a read fails. Cancellation is the normal way an operator
// stops a capture and is not an error. The returned Summary is valid even when
// err is not nil.
func (s *Session) Run(ctx context.Context, src LineSource) (Summary, error) {
	s.log.WithFields(logrus.Fields{
		"fields":   s.cfg.Schema.N(),
		"framing":  s.cfg.Schema.Framing.String(),
		"duration": s.cfg.Duration.String(),
	}).Info("capture started")

	stop, runErr := s.loop(ctx, src)

	if err := s.sink.Flush(); err != nil && runErr == nil {
		runErr = fmt.Errorf("final flush: %w", err)
	}

	sum := s.Summary(stop)
	s.log.WithFields(logrus.Fields{
		"records":   sum.Records,
		"discarded": sum.Discarded,
		"elapsed":   sum.Elapsed.Round(time.Millisecond).String(),
		"stop":      stop.String(),
	}).Info("capture finished")
	return sum, runErr
}

func (s *Session) loop(ctx context.Context, src LineSource) (StopReason, error) {
	for {
		if ctx.Err() != nil {
			return StopInterrupted, nil
		}
		if s.cfg.Duration > 0 && s.clock.Since(s.start) >= s.cfg.Duration {
			return StopDuration, nil
		}

		line, ok, err := src.ReadLine()
		if errors.Is(err, io.EOF) {
			return StopEndOfStream, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				// Closing the port to unblock a read surfaces as a read error.
				return StopInterrupted, nil
			}
			return StopReadError, telemetry.ConnectionError("read", err)
		}
		if !ok {
			continue
		}

		if _, err := s.HandleLine(line); err != nil {
			return StopSinkError, err
		}
	}
}

// Summary reports the session's counters as of now.
func (s *Session) Summary(stop StopReason) Summary {
	return Summary{
		SessionID: s.id,
		Records:   s.records,
		Discarded: s.discarded,
		Elapsed:   s.clock.Since(s.start),
		Stop:      stop,
	}
}

func containsAny(line string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(line, k) {
			return true
		}
	}
	return false
}
