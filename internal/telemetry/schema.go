package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// StampKind selects the receive stamp written ahead of the telemetry fields.
type StampKind int

const (
	StampNone StampKind = iota
	// StampWallClock prefixes the host wall-clock time, formatted with
	// WallClockLayout.
	StampWallClock
	// StampElapsed prefixes seconds elapsed since the session started.
	StampElapsed
)

func (k StampKind) String() string {
	switch k {
	case StampNone:
		return "none"
	case StampWallClock:
		return "wallclock"
	case StampElapsed:
		return "elapsed"
	default:
		return fmt.Sprintf("stamp(%d)", int(k))
	}
}

// WallClockLayout is the Go layout of wall-clock stamps in log files.
const WallClockLayout = "2006-01-02 15:04:05.000"

// Schema describes the wire and file layout of one telemetry variant.
type Schema struct {
	// Fields names the N telemetry values in the order the firmware sends them.
	Fields  []string
	Framing Framing
	Stamp   StampKind
	// StampColumn is the header name of the stamp column when Stamp != StampNone.
	StampColumn string
	// FilePrefix starts every log file name, e.g. "smc_log_".
	FilePrefix string
	// EchoFields is how many leading fields the console echo shows; zero echoes
	// the raw line.
	EchoFields int
	// DiagnosticKeywords mark unframed firmware output worth showing the
	// operator. Only consulted for FrameBracket schemas.
	DiagnosticKeywords []string
}

// N is the expected field count.
func (s Schema) N() int { return len(s.Fields) }

// Header is the CSV header row: stamp column (if any) then the fields.
func (s Schema) Header() []string {
	header := make([]string, 0, len(s.Fields)+1)
	if s.Stamp != StampNone {
		header = append(header, s.StampColumn)
	}
	return append(header, s.Fields...)
}

// FileGlob matches every log file this schema produces.
func (s Schema) FileGlob() string { return s.FilePrefix + "*.csv" }

// Framer returns the frame extractor for this schema.
func (s Schema) Framer() Framer { return NewFramer(s.Framing) }

// Decode extracts the frame from line and parses its fields. All failures are
// KindMalformedRecord errors.
func (s Schema) Decode(line string) ([]float64, error) {
	payload, err := s.Framer().Extract(line)
	if err != nil {
		return nil, malformed(err)
	}
	values, err := ParseFields(payload, s.N())
	if err != nil {
		return nil, malformed(err)
	}
	return values, nil
}

// Validate checks the schema is usable.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema has no fields")
	}
	seen := make(map[string]bool, len(s.Fields)+1)
	for _, name := range s.Header() {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("schema has an empty column name")
		}
		if seen[name] {
			return fmt.Errorf("schema repeats column %q", name)
		}
		seen[name] = true
	}
	if s.FilePrefix == "" {
		return fmt.Errorf("schema has no file prefix")
	}
	if s.EchoFields < 0 || s.EchoFields > len(s.Fields) {
		return fmt.Errorf("echo fields %d out of range [0, %d]", s.EchoFields, len(s.Fields))
	}
	return nil
}

// Variant bundles a schema with the capture defaults of one robot build.
type Variant struct {
	Name   string
	Schema Schema
	// EchoEvery echoes every k-th record to the console; zero disables echo.
	EchoEvery int
	// Duration bounds the session; zero runs until interrupted.
	Duration        time.Duration
	ReportMalformed bool
	FlushOnError    bool
}

var smc12Fields = []string{
	"L_Dist", "R_Dist", "F_Dist", "ErrorLat",
	"uFront", "uLat", "PWM_L", "PWM_R",
	"ErrorLat_dot", "s_lat", "ErrorFront_dot", "s_front",
}

var variants = map[string]Variant{
	"smc8": {
		Name: "smc8",
		Schema: Schema{
			Fields:     []string{"L_Dist", "R_Dist", "F_Dist", "uFront", "uLat", "PWM_L", "PWM_R", "ErrorLat"},
			FilePrefix: "smc_log_",
		},
	},
	"smc12": {
		Name: "smc12",
		Schema: Schema{
			Fields:      smc12Fields,
			Stamp:       StampWallClock,
			StampColumn: "Time",
			FilePrefix:  "smc_log_",
		},
	},
	"robot12": {
		Name: "robot12",
		Schema: Schema{
			Fields: []string{
				"left_dist", "right_dist", "front_dist",
				"error_lat", "u_front", "u_lat",
				"pwm_left", "pwm_right",
				"e_lat_dot", "s_lat",
				"e_front_dot", "s_front",
			},
			Framing:            FrameBracket,
			Stamp:              StampElapsed,
			StampColumn:        "time_sec",
			FilePrefix:         "robot_data_",
			EchoFields:         3,
			DiagnosticKeywords: []string{"TIMING", "ms", "===", "├", "└", "WARNING", "OK"},
		},
		EchoEvery:       10,
		Duration:        60 * time.Second,
		ReportMalformed: true,
	},
	"front8": {
		Name: "front8",
		Schema: Schema{
			Fields: []string{
				"time_sec", "raw_dist_cm", "lpf_dist_cm", "error_cm",
				"e_dot_lpf_cms", "s_value", "target_distance_cm", "state",
			},
			FilePrefix: "robot_log_",
		},
		EchoEvery:       1,
		ReportMalformed: true,
		FlushOnError:    true,
	},
}

// DefaultVariant is used when no variant is configured.
const DefaultVariant = "smc12"

// LookupVariant returns a copy of the named built-in variant.
func LookupVariant(name string) (Variant, error) {
	v, ok := variants[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Variant{}, fmt.Errorf("unknown variant %q (known: %s)", name, strings.Join(VariantNames(), ", "))
	}
	v.Schema.Fields = append([]string(nil), v.Schema.Fields...)
	v.Schema.DiagnosticKeywords = append([]string(nil), v.Schema.DiagnosticKeywords...)
	return v, nil
}

// VariantNames lists the built-in variants in sorted order.
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
