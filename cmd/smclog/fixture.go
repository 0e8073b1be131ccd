package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/smc-telemetry/internal/fsutil"
	"github.com/banshee-data/smc-telemetry/internal/telemetry"
)

// syntheticLines fakes n samples of what v's firmware prints, including the
// header echo and noise a real board emits, for --dev runs without a robot.
func syntheticLines(v telemetry.Variant, n int) []string {
	lines := []string{strings.Join(v.Schema.Fields, ",")}
	if len(v.Schema.DiagnosticKeywords) > 0 {
		lines = append(lines, "=== TIMING loop 50 ms ===")
	}

	values := make([]string, v.Schema.N())
	for i := 0; i < n; i++ {
		phase := float64(i) * 0.1
		for j, name := range v.Schema.Fields {
			var x float64
			switch {
			case strings.Contains(strings.ToLower(name), "pwm"):
				x = math.Round(180 + 60*math.Sin(phase+float64(j)))
			case name == "state":
				x = float64((i / 40) % 3)
			case name == "time_sec":
				x = float64(i) * 0.05
			default:
				x = math.Round((20+10*math.Sin(phase+float64(j)))*100) / 100
			}
			values[j] = telemetry.FormatValue(x)
		}
		payload := strings.Join(values, ",")
		if v.Schema.Framing == telemetry.FrameBracket {
			payload = "DATA <" + payload + ">"
		}
		lines = append(lines, payload)
		if i%50 == 49 {
			lines = append(lines, "1.0,2.0,abc")
		}
	}
	return lines
}

// loadFixture reads a capture transcript, one device line per line.
func loadFixture(fsys fsutil.FileSystem, path string) ([]string, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, telemetry.MissingFileError("read fixture", err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, fmt.Errorf("fixture %s is empty", path)
	}
	return lines, nil
}
