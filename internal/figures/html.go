package figures

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/smc-telemetry/internal/table"
)

// MaxHTMLPoints caps the samples per series on the HTML page. Longer logs
// are thinned by a fixed stride.
const MaxHTMLPoints = 5000

// RenderHTML writes every panel of figs to w as one interactive page, one
// zoomable chart per panel.
func RenderHTML(w io.Writer, title string, figs []Figure, x string, t *table.Table) error {
	xs, err := column(t, x)
	if err != nil {
		return err
	}

	stride := 1
	if len(xs) > MaxHTMLPoints {
		stride = int(math.Ceil(float64(len(xs)) / float64(MaxHTMLPoints)))
	}

	page := components.NewPage()
	page.SetPageTitle(title)

	for _, fig := range figs {
		for _, panel := range fig.Panels {
			chart, err := panelChart(fig, panel, xs, t, stride)
			if err != nil {
				return fmt.Errorf("figure %s: %w", fig.Name, err)
			}
			page.AddCharts(chart)
		}
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

func panelChart(fig Figure, panel Panel, xs []float64, t *table.Table, stride int) (*charts.Line, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: panel.Title, Subtitle: fig.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: fig.XLabel, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: panel.YLabel, Scale: opts.Bool(true)}),
	)

	for _, s := range panel.Series {
		ys, err := column(t, s.Column)
		if err != nil {
			return nil, err
		}
		width := float32(1.5)
		if s.Faint {
			width = 0.75
		}
		line.AddSeries(s.Label, lineData(xs, ys, stride),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: hexColor(s.Color), Width: width, Type: styleName(s.Style)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(s.Color)}),
		)
	}

	if len(xs) > 0 {
		xmin, xmax := xs[0], xs[0]
		for _, v := range xs {
			xmin = math.Min(xmin, v)
			xmax = math.Max(xmax, v)
		}
		for _, ref := range panel.Refs {
			data := []opts.LineData{
				{Value: []interface{}{xmin, ref.Y}},
				{Value: []interface{}{xmax, ref.Y}},
			}
			line.AddSeries(fmt.Sprintf("y=%g", ref.Y), data,
				charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
				charts.WithLineStyleOpts(opts.LineStyle{Color: hexColor(ref.Color), Width: 1, Type: styleName(ref.Style)}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(ref.Color)}),
			)
		}
	}

	if m := panel.Markers; m != nil {
		sc, err := markerChart(*m, xs, t)
		if err != nil {
			return nil, err
		}
		line.Overlap(sc)
	}

	return line, nil
}

func markerChart(m Markers, xs []float64, t *table.Table) (*charts.Scatter, error) {
	ys, err := column(t, m.Column)
	if err != nil {
		return nil, err
	}
	groups, err := column(t, m.Group)
	if err != nil {
		return nil, err
	}

	sc := charts.NewScatter()
	for _, g := range groupSamples(groups, m.Every) {
		data := make([]opts.ScatterData, 0, len(g.rows))
		for _, r := range g.rows {
			data = append(data, opts.ScatterData{Value: []interface{}{xs[r], ys[r]}, SymbolSize: 6})
		}
		sc.AddSeries(fmt.Sprintf("State: %g", g.value), data)
	}
	return sc, nil
}

func lineData(xs, ys []float64, stride int) []opts.LineData {
	pts := xyPairs(xs, ys, stride)
	data := make([]opts.LineData, len(pts))
	for i, p := range pts {
		data[i] = opts.LineData{Value: []interface{}{p.X, p.Y}}
	}
	return data
}

func styleName(s LineStyle) string {
	switch s {
	case Dashed:
		return "dashed"
	case Dotted:
		return "dotted"
	default:
		return "solid"
	}
}

// hexColor renders c as #rrggbb.
func hexColor(c color.Color) string {
	if c == nil {
		return ""
	}
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
