package figures

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/smc-telemetry/internal/table"
	"github.com/banshee-data/smc-telemetry/internal/telemetry"
)

// syntheticLog writes n rows for variant with plausible values in every
// column. Wall-clock stamps advance 50ms per row.
func syntheticLog(t *testing.T, variant string, n int) (*table.Table, telemetry.Schema) {
	t.Helper()
	v, err := telemetry.LookupVariant(variant)
	require.NoError(t, err)

	var b strings.Builder
	b.WriteString(strings.Join(v.Schema.Header(), ","))
	b.WriteString("\n")
	for i := 0; i < n; i++ {
		var row []string
		switch v.Schema.Stamp {
		case telemetry.StampWallClock:
			row = append(row, fmt.Sprintf("2025-11-19 18:00:%02d.%03d", i*50/1000, i*50%1000))
		case telemetry.StampElapsed:
			row = append(row, fmt.Sprintf("%.3f", float64(i)*0.05))
		}
		for j, f := range v.Schema.Fields {
			switch f {
			case "state":
				row = append(row, fmt.Sprintf("%d", i/4))
			case "time_sec":
				row = append(row, fmt.Sprintf("%.2f", float64(i)*0.05))
			default:
				row = append(row, fmt.Sprintf("%d", i*(j+1)))
			}
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}

	tbl, err := table.Load(strings.NewReader(b.String()), table.SpecFor(v.Schema))
	require.NoError(t, err)
	return tbl, v.Schema
}

func TestLayoutFor_EveryVariant(t *testing.T) {
	for _, name := range telemetry.VariantNames() {
		t.Run(name, func(t *testing.T) {
			l, err := LayoutFor(name)
			require.NoError(t, err)
			assert.Equal(t, name, l.Variant)
			assert.NotEmpty(t, l.Figures)
			assert.NotEmpty(t, l.X)
		})
	}

	l, err := LayoutFor(" SMC12 ")
	require.NoError(t, err)
	assert.Equal(t, "smc12", l.Variant)

	_, err = LayoutFor("hexapod")
	assert.Error(t, err)
}

func TestLayout_ApplyAndCheck(t *testing.T) {
	for _, name := range telemetry.VariantNames() {
		t.Run(name, func(t *testing.T) {
			tbl, _ := syntheticLog(t, name, 12)
			l, err := LayoutFor(name)
			require.NoError(t, err)

			require.NoError(t, l.Apply(tbl, 0.05))
			assert.NoError(t, l.Check(tbl))
			for _, c := range l.Columns() {
				assert.True(t, tbl.Has(c), "column %s", c)
			}
		})
	}
}

func TestLayout_DerivedColumns(t *testing.T) {
	tbl, _ := syntheticLog(t, "smc8", 4)
	l, err := LayoutFor("smc8")
	require.NoError(t, err)
	require.NoError(t, l.Apply(tbl, 0.05))

	k, ok := tbl.Column("k")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 2, 3}, k)

	// ErrorLat is the 8th field, so it steps by 8 per row.
	rate, ok := tbl.Column("ErrorLat_dot")
	require.True(t, ok)
	require.Len(t, rate, 4)
	assert.Equal(t, 0.0, rate[0])
	for _, r := range rate[1:] {
		assert.InDelta(t, 160.0, r, 1e-9)
	}

	tbl, _ = syntheticLog(t, "smc12", 3)
	l, err = LayoutFor("smc12")
	require.NoError(t, err)
	require.NoError(t, l.Apply(tbl, 0.05))
	elapsed, ok := tbl.Column("Time (s)")
	require.True(t, ok)
	require.Len(t, elapsed, 3)
	assert.InDelta(t, 0.0, elapsed[0], 1e-6)
	assert.InDelta(t, 0.1, elapsed[2], 1e-6)
}

func TestLayout_CheckReportsMissing(t *testing.T) {
	tbl, err := table.Load(strings.NewReader("time_sec,raw_dist_cm\n0,10\n0.05,11\n"), table.Spec{})
	require.NoError(t, err)

	l, err := LayoutFor("front8")
	require.NoError(t, err)

	err = l.Check(tbl)
	require.Error(t, err)
	assert.ErrorIs(t, err, telemetry.ErrMissingColumn)
	assert.Contains(t, err.Error(), "lpf_dist_cm")
	assert.Contains(t, err.Error(), "state")
	assert.NotContains(t, err.Error(), `"raw_dist_cm"`)
}

func TestLayout_ColumnLists(t *testing.T) {
	l, err := LayoutFor("front8")
	require.NoError(t, err)

	cols := l.Columns()
	assert.Equal(t, "time_sec", cols[0])
	assert.Contains(t, cols, "state")

	stats := l.StatColumns()
	assert.Equal(t, []string{
		"raw_dist_cm", "lpf_dist_cm", "target_distance_cm",
		"error_cm", "e_dot_lpf_cms", "s_value",
	}, stats)
	assert.NotContains(t, stats, "state")
}

func TestGroupSamples(t *testing.T) {
	values := []float64{1, 1, 2, 1, 2, 2, 1, 3}
	groups := groupSamples(values, 2)

	require.Len(t, groups, 3)
	assert.Equal(t, 1.0, groups[0].value)
	assert.Equal(t, []int{0, 3}, groups[0].rows)
	assert.Equal(t, 2.0, groups[1].value)
	assert.Equal(t, []int{2, 5}, groups[1].rows)
	assert.Equal(t, 3.0, groups[2].value)
	assert.Equal(t, []int{7}, groups[2].rows)

	all := groupSamples(values, 0)
	assert.Equal(t, []int{0, 1, 3, 6}, all[0].rows)
}

func TestRenderPNG(t *testing.T) {
	for _, name := range telemetry.VariantNames() {
		t.Run(name, func(t *testing.T) {
			tbl, _ := syntheticLog(t, name, 40)
			l, err := LayoutFor(name)
			require.NoError(t, err)
			require.NoError(t, l.Apply(tbl, 0.05))

			for _, fig := range l.Figures {
				var buf bytes.Buffer
				require.NoError(t, RenderPNG(&buf, fig, l.X, tbl, 8*vg.Inch, 6*vg.Inch))
				assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")), "figure %s is not a PNG", fig.Name)
			}
		})
	}
}

func TestRenderPNG_Errors(t *testing.T) {
	tbl, _ := syntheticLog(t, "smc8", 5)
	l, err := LayoutFor("smc8")
	require.NoError(t, err)

	var buf bytes.Buffer
	err = RenderPNG(&buf, l.Figures[0], "k", tbl, 4*vg.Inch, 4*vg.Inch)
	assert.ErrorIs(t, err, telemetry.ErrMissingColumn)

	err = RenderPNG(&buf, Figure{Name: "empty"}, "L_Dist", tbl, 4*vg.Inch, 4*vg.Inch)
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestRenderHTML(t *testing.T) {
	tbl, _ := syntheticLog(t, "front8", 30)
	l, err := LayoutFor("front8")
	require.NoError(t, err)
	require.NoError(t, l.Apply(tbl, 0.05))

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, "robot_log_20251119_180000", l.Figures, l.X, tbl))

	html := buf.String()
	assert.Contains(t, html, "<title>robot_log_20251119_180000</title>")
	for _, fig := range l.Figures {
		for _, p := range fig.Panels {
			assert.Contains(t, html, p.Title)
		}
	}
	assert.Contains(t, html, "State: 0")
	assert.Contains(t, html, "dashed")
}

func TestLineData_Stride(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{10, 11, 12, 13}

	data := lineData(xs, ys, 2)
	require.Len(t, data, 2)
	assert.Equal(t, []interface{}{2.0, 12.0}, data[1].Value)
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, "#ff0000", hexColor(colornames.Red))
	assert.Equal(t, "#ff7f0e", hexColor(pwmLeft))
	assert.Equal(t, "", hexColor(nil))
	assert.Equal(t, "dotted", styleName(Dotted))
	assert.Equal(t, "solid", styleName(Solid))
}
