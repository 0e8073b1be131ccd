// Package config loads the optional JSON or YAML file shared by smclog and
// smcplot. Every field is a pointer; nil means "not set" and the Get* methods
// supply the default. Command-line flags override file values.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/smc-telemetry/internal/fsutil"
)

// DefaultConfigPath is picked up when present and no --config flag is given.
const DefaultConfigPath = "smc.yaml"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// File is the root of a config file.
type File struct {
	// Variant applies to both tools unless a section overrides it.
	Variant *string        `json:"variant,omitempty" yaml:"variant,omitempty"`
	Capture *CaptureConfig `json:"capture,omitempty" yaml:"capture,omitempty"`
	Render  *RenderConfig  `json:"render,omitempty" yaml:"render,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// Empty returns a File with every section present and all fields nil.
func Empty() *File {
	return &File{Capture: &CaptureConfig{}, Render: &RenderConfig{}}
}

// Load reads a config file from fsys.
// The file must have a .json, .yaml or .yml extension and be under 1MB.
// Fields omitted from the file keep their defaults, so partial configs are safe.
func Load(fsys fsutil.FileSystem, path string) (*File, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	info, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}
	cfg.fill()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOptional loads path when set, otherwise DefaultConfigPath if it exists,
// otherwise returns an empty config.
func LoadOptional(fsys fsutil.FileSystem, path string) (*File, error) {
	if path != "" {
		return Load(fsys, path)
	}
	if fsys.Exists(DefaultConfigPath) {
		return Load(fsys, DefaultConfigPath)
	}
	return Empty(), nil
}

// fill makes sure both sections exist and inherit the root variant.
func (f *File) fill() {
	if f.Capture == nil {
		f.Capture = &CaptureConfig{}
	}
	if f.Render == nil {
		f.Render = &RenderConfig{}
	}
	if f.Variant != nil {
		if f.Capture.Variant == nil {
			f.Capture.Variant = ptrString(*f.Variant)
		}
		if f.Render.Variant == nil {
			f.Render.Variant = ptrString(*f.Variant)
		}
	}
}

// Validate checks both sections.
func (f *File) Validate() error {
	f.fill()
	if err := f.Capture.Validate(); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if err := f.Render.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}
