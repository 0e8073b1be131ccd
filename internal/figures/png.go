package figures

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/smc-telemetry/internal/table"
)

// RenderPNG draws fig as stacked panels sharing x, width by height, and
// writes the PNG to w.
func RenderPNG(w io.Writer, fig Figure, x string, t *table.Table, width, height vg.Length) error {
	xs, err := column(t, x)
	if err != nil {
		return err
	}
	if len(fig.Panels) == 0 {
		return fmt.Errorf("figure %s has no panels", fig.Name)
	}

	xmin, xmax := xs[0], xs[0]
	for _, v := range xs {
		xmin = math.Min(xmin, v)
		xmax = math.Max(xmax, v)
	}
	if xmin == xmax {
		xmax = xmin + 1
	}

	plots := make([][]*plot.Plot, len(fig.Panels))
	for i, panel := range fig.Panels {
		p, err := panelPlot(panel, xs, t)
		if err != nil {
			return fmt.Errorf("figure %s panel %d: %w", fig.Name, i+1, err)
		}
		p.X.Min, p.X.Max = xmin, xmax
		if i == len(fig.Panels)-1 {
			p.X.Label.Text = fig.XLabel
		}
		plots[i] = []*plot.Plot{p}
	}

	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      4 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  4 * vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}

func panelPlot(panel Panel, xs []float64, t *table.Table) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = panel.Title
	p.Y.Label.Text = panel.YLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for _, s := range panel.Series {
		ys, err := column(t, s.Column)
		if err != nil {
			return nil, err
		}
		line, err := plotter.NewLine(xyPairs(xs, ys, 1))
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", s.Column, err)
		}
		line.Color = s.Color
		line.Width = vg.Points(1.5)
		if s.Faint {
			line.Width = vg.Points(0.75)
		}
		line.Dashes = dashes(s.Style)
		p.Add(line)
		p.Legend.Add(s.Label, line)
	}

	if m := panel.Markers; m != nil {
		if err := addMarkers(p, *m, xs, t); err != nil {
			return nil, err
		}
	}

	for _, ref := range panel.Refs {
		y := ref.Y
		fn := plotter.NewFunction(func(float64) float64 { return y })
		fn.Color = ref.Color
		fn.Width = vg.Points(1)
		fn.Dashes = dashes(ref.Style)
		p.Add(fn)
		// Functions do not take part in autoscaling.
		p.Y.Min = math.Min(p.Y.Min, y)
		p.Y.Max = math.Max(p.Y.Max, y)
	}

	return p, nil
}

func addMarkers(p *plot.Plot, m Markers, xs []float64, t *table.Table) error {
	ys, err := column(t, m.Column)
	if err != nil {
		return err
	}
	groups, err := column(t, m.Group)
	if err != nil {
		return err
	}

	for i, g := range groupSamples(groups, m.Every) {
		pts := make(plotter.XYs, len(g.rows))
		for j, r := range g.rows {
			pts[j] = plotter.XY{X: xs[r], Y: ys[r]}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("markers %s=%g: %w", m.Group, g.value, err)
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Radius = vg.Points(2.5)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add(fmt.Sprintf("State: %g", g.value), sc)
	}
	return nil
}

type group struct {
	value float64
	rows  []int
}

// groupSamples splits row indices by group value in order of first
// appearance and keeps every nth row of each group.
func groupSamples(values []float64, every int) []group {
	if every < 1 {
		every = 1
	}
	var groups []group
	index := map[float64]int{}
	seen := map[float64]int{}
	for r, v := range values {
		gi, ok := index[v]
		if !ok {
			gi = len(groups)
			index[v] = gi
			groups = append(groups, group{value: v})
		}
		if seen[v]%every == 0 {
			groups[gi].rows = append(groups[gi].rows, r)
		}
		seen[v]++
	}
	return groups
}

func xyPairs(xs, ys []float64, every int) plotter.XYs {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	pts := make(plotter.XYs, 0, n/every+1)
	for i := 0; i < n; i += every {
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return pts
}

func dashes(s LineStyle) []vg.Length {
	switch s {
	case Dashed:
		return []vg.Length{vg.Points(6), vg.Points(3)}
	case Dotted:
		return []vg.Length{vg.Points(1.5), vg.Points(2.5)}
	default:
		return nil
	}
}
