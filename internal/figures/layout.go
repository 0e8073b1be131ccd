// Package figures turns a loaded log into the fixed diagnostic charts of each
// telemetry variant, as PNG images and as one interactive HTML page.
package figures

import (
	"fmt"
	"image/color"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/banshee-data/smc-telemetry/internal/table"
	"github.com/banshee-data/smc-telemetry/internal/telemetry"
)

// LineStyle picks how a series or reference line is stroked.
type LineStyle int

const (
	Solid LineStyle = iota
	Dashed
	Dotted
)

// Series is one plotted column.
type Series struct {
	Column string
	Label  string
	Color  color.Color
	Style  LineStyle
	// Faint draws the series thinner, for noisy raw signals.
	Faint bool
}

// RefLine is a horizontal reference at Y.
type RefLine struct {
	Y     float64
	Color color.Color
	Style LineStyle
}

// Markers scatters every Every-th sample of Column, one colour per distinct
// value of Group.
type Markers struct {
	Column string
	Group  string
	Every  int
}

// Panel is one subplot.
type Panel struct {
	Title   string
	YLabel  string
	Series  []Series
	Refs    []RefLine
	Markers *Markers
}

// Figure is a stack of panels sharing the x axis.
type Figure struct {
	// Name is used in output file names.
	Name   string
	Title  string
	XLabel string
	Panels []Panel
}

// DeriveKind selects a derived column.
type DeriveKind int

const (
	DeriveIndex DeriveKind = iota
	DeriveElapsed
	DeriveRate
)

// Derivation adds column Dst computed from Src.
type Derivation struct {
	Kind DeriveKind
	Src  string
	Dst  string
}

// Layout is the complete chart set of one variant.
type Layout struct {
	Variant string
	// X is the shared x column, possibly derived.
	X       string
	Derive  []Derivation
	Figures []Figure
}

var (
	refGray = colornames.Gray
	refRed  = colornames.Red
	// matplotlib's C1 and C2, which the motor panels have always used.
	pwmLeft  = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
	pwmRight = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
)

func lateralPanel(errCol, uCol string) Panel {
	return Panel{
		Title:  "Lateral Control Analysis (Error and Control Signal)",
		YLabel: "Value",
		Series: []Series{
			{Column: errCol, Label: "Lateral error (e_lat)", Color: colornames.Blue},
			{Column: uCol, Label: uCol + " (control output)", Color: colornames.Red, Style: Dashed},
		},
		Refs: []RefLine{{Y: 0, Color: refGray, Style: Dotted}},
	}
}

func slidingPanel(lat, front string) Panel {
	return Panel{
		Title:  "SMC Sliding Variables (s)",
		YLabel: "s",
		Series: []Series{
			{Column: lat, Label: "Sliding variable (s_lat)", Color: colornames.Darkgreen},
			{Column: front, Label: "Sliding variable (s_front)", Color: colornames.Purple},
		},
		Refs: []RefLine{{Y: 0, Color: colornames.Black}},
	}
}

func pwmPanel(left, right string) Panel {
	return Panel{
		Title:  "Final Motor PWM Output",
		YLabel: "PWM (0-255)",
		Series: []Series{
			{Column: left, Label: left, Color: pwmLeft},
			{Column: right, Label: right, Color: pwmRight},
		},
		Refs: []RefLine{
			{Y: 255, Color: refRed, Style: Dotted},
			{Y: 0, Color: refRed, Style: Dotted},
		},
	}
}

var layouts = map[string]Layout{
	"smc8": {
		Variant: "smc8",
		X:       "k",
		Derive: []Derivation{
			{Kind: DeriveIndex, Dst: "k"},
			{Kind: DeriveRate, Src: "ErrorLat", Dst: "ErrorLat_dot"},
		},
		Figures: []Figure{{
			Name:   "control",
			Title:  "SMC lateral control",
			XLabel: "Time Step (k)",
			Panels: []Panel{
				lateralPanel("ErrorLat", "uLat"),
				{
					Title:  "Lateral Error Rate",
					YLabel: "de_lat/dt",
					Series: []Series{{Column: "ErrorLat_dot", Label: "ErrorLat_dot (finite difference)", Color: colornames.Darkgreen}},
					Refs:   []RefLine{{Y: 0, Color: refGray, Style: Dotted}},
				},
				pwmPanel("PWM_L", "PWM_R"),
			},
		}},
	},
	"smc12": {
		Variant: "smc12",
		X:       "Time (s)",
		Derive:  []Derivation{{Kind: DeriveElapsed, Src: "Time", Dst: "Time (s)"}},
		Figures: []Figure{{
			Name:   "control",
			Title:  "SMC lateral and front control",
			XLabel: "Time (s)",
			Panels: []Panel{
				lateralPanel("ErrorLat", "uLat"),
				slidingPanel("s_lat", "s_front"),
				pwmPanel("PWM_L", "PWM_R"),
			},
		}},
	},
	"robot12": {
		Variant: "robot12",
		X:       "time_sec",
		Figures: []Figure{{
			Name:   "control",
			Title:  "Robot run",
			XLabel: "Time (s)",
			Panels: []Panel{
				{
					Title:  "Ultrasonic Distances",
					YLabel: "Distance (cm)",
					Series: []Series{
						{Column: "left_dist", Label: "Left", Color: colornames.Blue},
						{Column: "right_dist", Label: "Right", Color: colornames.Red},
						{Column: "front_dist", Label: "Front", Color: colornames.Darkgreen},
					},
				},
				lateralPanel("error_lat", "u_lat"),
				slidingPanel("s_lat", "s_front"),
				pwmPanel("pwm_left", "pwm_right"),
			},
		}},
	},
	"front8": {
		Variant: "front8",
		X:       "time_sec",
		Figures: []Figure{
			{
				Name:   "distance",
				Title:  "Robot Distance vs Time",
				XLabel: "Time [s]",
				Panels: []Panel{{
					Title:  "Robot Distance vs Time",
					YLabel: "Distance [cm]",
					Series: []Series{
						{Column: "raw_dist_cm", Label: "Raw Distance", Color: colornames.Steelblue, Faint: true},
						{Column: "lpf_dist_cm", Label: "LPF Distance", Color: colornames.Darkorange},
						{Column: "target_distance_cm", Label: "Target Distance", Color: colornames.Green, Style: Dashed},
					},
					Markers: &Markers{Column: "lpf_dist_cm", Group: "state", Every: 5},
				}},
			},
			{
				Name:   "control",
				Title:  "SMC Control Error vs Time",
				XLabel: "Time [s]",
				Panels: []Panel{
					{
						Title:  "Distance Error",
						YLabel: "Error [cm]",
						Series: []Series{{Column: "error_cm", Label: "Error", Color: colornames.Steelblue}},
					},
					{
						Title:  "Error Rate",
						YLabel: "Error Rate [cm/s]",
						Series: []Series{{Column: "e_dot_lpf_cms", Label: "Error Rate (LPF)", Color: colornames.Orange}},
					},
					{
						Title:  "Sliding Surface",
						YLabel: "s value",
						Series: []Series{{Column: "s_value", Label: "Sliding Surface", Color: colornames.Green}},
					},
				},
			},
		},
	},
}

// LayoutFor returns the chart set of the named variant.
func LayoutFor(variant string) (Layout, error) {
	l, ok := layouts[strings.ToLower(strings.TrimSpace(variant))]
	if !ok {
		return Layout{}, fmt.Errorf("no figure layout for variant %q", variant)
	}
	return l, nil
}

// Apply adds the layout's derived columns to t. period is the sampling period
// in seconds used for rates.
func (l Layout) Apply(t *table.Table, period float64) error {
	for _, d := range l.Derive {
		var err error
		switch d.Kind {
		case DeriveIndex:
			err = t.AddIndex(d.Dst)
		case DeriveElapsed:
			err = t.AddElapsed(d.Src, d.Dst)
		case DeriveRate:
			err = t.AddDerivative(d.Src, d.Dst, period)
		default:
			err = fmt.Errorf("unknown derivation %d", d.Kind)
		}
		if err != nil {
			return fmt.Errorf("derive %s: %w", d.Dst, err)
		}
	}
	return nil
}

// Columns lists every column the figures read, x first, without repeats.
func (l Layout) Columns() []string {
	seen := map[string]bool{}
	var cols []string
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	add(l.X)
	for _, f := range l.Figures {
		for _, p := range f.Panels {
			for _, s := range p.Series {
				add(s.Column)
			}
			if p.Markers != nil {
				add(p.Markers.Column)
				add(p.Markers.Group)
			}
		}
	}
	return cols
}

// StatColumns lists the plotted series, the channels worth summarising.
func (l Layout) StatColumns() []string {
	seen := map[string]bool{}
	var cols []string
	for _, f := range l.Figures {
		for _, p := range f.Panels {
			for _, s := range p.Series {
				if !seen[s.Column] {
					seen[s.Column] = true
					cols = append(cols, s.Column)
				}
			}
		}
	}
	return cols
}

// Check reports every column the layout needs that t lacks, as one
// telemetry.KindMissingColumn error.
func (l Layout) Check(t *table.Table) error {
	var missing []string
	for _, c := range l.Columns() {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return telemetry.MissingColumnError("figures", missing)
	}
	return nil
}

func column(t *table.Table, name string) ([]float64, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, telemetry.MissingColumnError("figures", []string{name})
	}
	return c, nil
}
