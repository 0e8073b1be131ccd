package config

import (
	"fmt"
	"math"

	"github.com/banshee-data/smc-telemetry/internal/telemetry"
)

// DefaultSamplePeriod is the controller loop period assumed when
// differentiating logged signals, in seconds.
const DefaultSamplePeriod = 0.05

// RenderConfig configures smcplot.
type RenderConfig struct {
	Variant *string `json:"variant,omitempty" yaml:"variant,omitempty"`

	SamplePeriod *float64 `json:"sample_period,omitempty" yaml:"sample_period,omitempty"` // seconds
	Dir          *string  `json:"dir,omitempty" yaml:"dir,omitempty"`                     // where discovery looks
	OutDir       *string  `json:"out_dir,omitempty" yaml:"out_dir,omitempty"`

	PNG  *bool `json:"png,omitempty" yaml:"png,omitempty"`
	HTML *bool `json:"html,omitempty" yaml:"html,omitempty"`
	Open *bool `json:"open,omitempty" yaml:"open,omitempty"`

	// Figure size in inches
	Width  *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height *float64 `json:"height,omitempty" yaml:"height,omitempty"`
}

// Validate checks that the configuration values are valid.
func (c *RenderConfig) Validate() error {
	if c.Variant != nil {
		if _, err := telemetry.LookupVariant(*c.Variant); err != nil {
			return err
		}
	}

	if c.SamplePeriod != nil {
		if p := *c.SamplePeriod; !(p > 0) || math.IsInf(p, 0) {
			return fmt.Errorf("sample_period must be positive, got %v", p)
		}
	}

	for name, v := range map[string]*float64{"width": c.Width, "height": c.Height} {
		if v != nil && (*v < 1 || *v > 100) {
			return fmt.Errorf("%s must be between 1 and 100 inches, got %v", name, *v)
		}
	}

	return nil
}

// GetVariant returns the variant name or telemetry.DefaultVariant.
func (c *RenderConfig) GetVariant() string {
	if c.Variant == nil || *c.Variant == "" {
		return telemetry.DefaultVariant
	}
	return *c.Variant
}

// GetSamplePeriod returns the derivative period in seconds.
func (c *RenderConfig) GetSamplePeriod() float64 {
	if c.SamplePeriod == nil {
		return DefaultSamplePeriod
	}
	return *c.SamplePeriod
}

// GetDir returns the discovery directory, "." by default.
func (c *RenderConfig) GetDir() string {
	if c.Dir == nil || *c.Dir == "" {
		return "."
	}
	return *c.Dir
}

// GetOutDir returns where figures are written; the discovery directory by
// default.
func (c *RenderConfig) GetOutDir() string {
	if c.OutDir == nil || *c.OutDir == "" {
		return c.GetDir()
	}
	return *c.OutDir
}

// GetPNG reports whether PNG figures are written (default true).
func (c *RenderConfig) GetPNG() bool {
	if c.PNG == nil {
		return true
	}
	return *c.PNG
}

// GetHTML reports whether the interactive HTML page is written (default true).
func (c *RenderConfig) GetHTML() bool {
	if c.HTML == nil {
		return true
	}
	return *c.HTML
}

// GetOpen reports whether the HTML page is opened in a browser (default false).
func (c *RenderConfig) GetOpen() bool {
	if c.Open == nil {
		return false
	}
	return *c.Open
}

// GetWidth returns the figure width in inches.
func (c *RenderConfig) GetWidth() float64 {
	if c.Width == nil {
		return 12
	}
	return *c.Width
}

// GetHeight returns the figure height in inches.
func (c *RenderConfig) GetHeight() float64 {
	if c.Height == nil {
		return 10
	}
	return *c.Height
}
