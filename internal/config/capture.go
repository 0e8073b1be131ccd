package config

import (
	"fmt"
	"time"

	"github.com/banshee-data/smc-telemetry/internal/monitoring"
	"github.com/banshee-data/smc-telemetry/internal/serialport"
	"github.com/banshee-data/smc-telemetry/internal/telemetry"
)

// CaptureConfig configures smclog. Fields left nil fall back to the variant's
// built-in behaviour or the package defaults.
type CaptureConfig struct {
	Variant *string `json:"variant,omitempty" yaml:"variant,omitempty"`

	// Serial link
	Port     *string `json:"port,omitempty" yaml:"port,omitempty"`
	BaudRate *int    `json:"baud_rate,omitempty" yaml:"baud_rate,omitempty"`
	DataBits *int    `json:"data_bits,omitempty" yaml:"data_bits,omitempty"`
	StopBits *int    `json:"stop_bits,omitempty" yaml:"stop_bits,omitempty"`
	Parity   *string `json:"parity,omitempty" yaml:"parity,omitempty"`

	ReadTimeout *string `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty"` // duration string like "500ms"
	Settle      *string `json:"settle,omitempty" yaml:"settle,omitempty"`             // duration string like "2s"

	// Session behaviour
	Duration        *string `json:"duration,omitempty" yaml:"duration,omitempty"` // "0" runs until interrupted
	EchoEvery       *int    `json:"echo_every,omitempty" yaml:"echo_every,omitempty"`
	FlushOnError    *bool   `json:"flush_on_error,omitempty" yaml:"flush_on_error,omitempty"`
	ReportMalformed *bool   `json:"report_malformed,omitempty" yaml:"report_malformed,omitempty"`

	OutDir   *string `json:"out_dir,omitempty" yaml:"out_dir,omitempty"`
	LogLevel *string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// Validate checks that the configuration values are valid.
func (c *CaptureConfig) Validate() error {
	if c.Variant != nil {
		if _, err := telemetry.LookupVariant(*c.Variant); err != nil {
			return err
		}
	}

	if _, err := c.PortOptions().Normalize(); err != nil {
		return err
	}

	for name, v := range map[string]*string{
		"read_timeout": c.ReadTimeout,
		"settle":       c.Settle,
		"duration":     c.Duration,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *v)
		}
	}

	if c.EchoEvery != nil && *c.EchoEvery < 0 {
		return fmt.Errorf("echo_every must be non-negative, got %d", *c.EchoEvery)
	}

	if c.LogLevel != nil {
		if err := checkLogLevel(*c.LogLevel); err != nil {
			return err
		}
	}

	return nil
}

// GetVariant returns the variant name or telemetry.DefaultVariant.
func (c *CaptureConfig) GetVariant() string {
	if c.Variant == nil || *c.Variant == "" {
		return telemetry.DefaultVariant
	}
	return *c.Variant
}

// GetPort returns the device path or serialport.DefaultPath.
func (c *CaptureConfig) GetPort() string {
	if c.Port == nil || *c.Port == "" {
		return serialport.DefaultPath
	}
	return *c.Port
}

// PortOptions collects the link parameters; zero values are defaulted by
// serialport.PortOptions.Normalize.
func (c *CaptureConfig) PortOptions() serialport.PortOptions {
	var opts serialport.PortOptions
	if c.BaudRate != nil {
		opts.BaudRate = *c.BaudRate
	}
	if c.DataBits != nil {
		opts.DataBits = *c.DataBits
	}
	if c.StopBits != nil {
		opts.StopBits = *c.StopBits
	}
	if c.Parity != nil {
		opts.Parity = *c.Parity
	}
	return opts
}

// GetReadTimeout returns the serial read timeout, 500ms by default.
func (c *CaptureConfig) GetReadTimeout() time.Duration {
	return durationOr(c.ReadTimeout, 500*time.Millisecond)
}

// GetSettle returns how long to wait after opening the port, 2s by default.
func (c *CaptureConfig) GetSettle() time.Duration {
	return durationOr(c.Settle, 2*time.Second)
}

// GetDuration returns the session bound, falling back to the variant's.
func (c *CaptureConfig) GetDuration(v telemetry.Variant) time.Duration {
	return durationOr(c.Duration, v.Duration)
}

// GetEchoEvery returns the echo interval, falling back to the variant's.
func (c *CaptureConfig) GetEchoEvery(v telemetry.Variant) int {
	if c.EchoEvery == nil {
		return v.EchoEvery
	}
	return *c.EchoEvery
}

// GetFlushOnError falls back to the variant's setting.
func (c *CaptureConfig) GetFlushOnError(v telemetry.Variant) bool {
	if c.FlushOnError == nil {
		return v.FlushOnError
	}
	return *c.FlushOnError
}

// GetReportMalformed falls back to the variant's setting.
func (c *CaptureConfig) GetReportMalformed(v telemetry.Variant) bool {
	if c.ReportMalformed == nil {
		return v.ReportMalformed
	}
	return *c.ReportMalformed
}

// GetOutDir returns the log directory, the working directory by default.
func (c *CaptureConfig) GetOutDir() string {
	if c.OutDir == nil || *c.OutDir == "" {
		return "."
	}
	return *c.OutDir
}

// GetLogLevel returns the diagnostic log level, "info" by default.
func (c *CaptureConfig) GetLogLevel() string {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return "info"
	}
	return *c.LogLevel
}

func durationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def // default on parse error
	}
	return d
}

func checkLogLevel(level string) error {
	if err := monitoring.CheckLevel(level); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", level, err)
	}
	return nil
}
