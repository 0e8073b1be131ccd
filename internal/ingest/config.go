package ingest

import (
	"fmt"
	"time"

	"github.com/banshee-data/smc-telemetry/internal/telemetry"
)

// Config is everything a Session needs to know about one capture.
type Config struct {
	Schema telemetry.Schema
	// Duration stops the session once elapsed; zero runs until interrupted or
	// the stream ends.
	Duration time.Duration
	// EchoEvery prints every k-th record to the console; zero disables echo.
	EchoEvery int
	// FlushOnError flushes the sink after each discarded line.
	FlushOnError bool
	// ReportMalformed prints a console note for each discarded framed line.
	ReportMalformed bool
}

// ConfigFor returns the built-in capture behaviour of v.
func ConfigFor(v telemetry.Variant) Config {
	return Config{
		Schema:          v.Schema,
		Duration:        v.Duration,
		EchoEvery:       v.EchoEvery,
		FlushOnError:    v.FlushOnError,
		ReportMalformed: v.ReportMalformed,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Schema.Validate(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must be non-negative, got %s", c.Duration)
	}
	if c.EchoEvery < 0 {
		return fmt.Errorf("echo interval must be non-negative, got %d", c.EchoEvery)
	}
	return nil
}
