package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/smc-telemetry/internal/fsutil"
	"github.com/banshee-data/smc-telemetry/internal/testutil"
	"github.com/banshee-data/smc-telemetry/internal/timeutil"
)

type harness struct {
	env    env
	fs     *fsutil.MemoryFileSystem
	clock  *timeutil.MockClock
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	opened []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	testutil.CaptureLogs(t)

	h := &harness{
		clock:  timeutil.NewMockClock(time.Date(2025, 11, 19, 18, 0, 0, 0, time.UTC)),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	h.fs = fsutil.NewMemoryFileSystemWithClock(h.clock)
	h.env = env{
		stdout: h.stdout,
		stderr: h.stderr,
		fsys:   h.fs,
		open: func(path string) error {
			h.opened = append(h.opened, path)
			return nil
		},
	}
	return h
}

func smc12Log(rows int) string {
	var b strings.Builder
	b.WriteString("Time,L_Dist,R_Dist,F_Dist,ErrorLat,uFront,uLat,PWM_L,PWM_R,ErrorLat_dot,s_lat,ErrorFront_dot,s_front\n")
	for i := 0; i < rows; i++ {
		ms := i * 50
		fmt.Fprintf(&b, "2025-11-19 18:00:%02d.%03d,%d,20,30,%.2f,0.1,%.2f,%d,%d,0,%.2f,0,%.2f\n",
			ms/1000, ms%1000, 20+i%3, float64(i%5)/10, -float64(i%5)/20, 150+i, 160-i, float64(i%4)/10, float64(i%6)/10)
	}
	return b.String()
}

func (h *harness) outputs(t *testing.T, dir string) []string {
	t.Helper()
	var out []string
	for _, pattern := range []string{"*.png", "*.html"} {
		m, err := h.fs.Glob(dir + "/" + pattern)
		require.NoError(t, err)
		out = append(out, m...)
	}
	return out
}

func TestRun_NoLogFound(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.fs.MkdirAll("/logs", 0755))

	code := run([]string{"--dir", "/logs"}, h.env)
	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "missing file")
	assert.Contains(t, h.stderr.String(), "Usage: smcplot")
	assert.Empty(t, h.outputs(t, "/logs"), "no chart may be written")
}

func TestRun_RendersNewestLog(t *testing.T) {
	h := newHarness(t)
	testutil.WriteFile(t, h.fs, "/logs/smc_log_20251118_090000.csv", smc12Log(10))
	h.clock.Advance(time.Hour)
	testutil.WriteFile(t, h.fs, "/logs/smc_log_20251119_180000.csv", smc12Log(40)+"garbage,row\n")

	code := run([]string{"--dir", "/logs", "--variant", "smc12", "--width", "6", "--height", "5", "--open"}, h.env)
	require.Equal(t, 0, code, "stderr: %s", h.stderr.String())

	assert.ElementsMatch(t, []string{
		"/logs/smc_log_20251119_180000_control.png",
		"/logs/smc_log_20251119_180000.html",
	}, h.outputs(t, "/logs"))

	png, err := h.fs.ReadFile("/logs/smc_log_20251119_180000_control.png")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	out := h.stdout.String()
	assert.Contains(t, out, "Loaded /logs/smc_log_20251119_180000.csv: 40 rows (1 malformed rows dropped)")
	assert.Contains(t, out, "Time (s): 0.00 to 1.95")
	for _, col := range []string{"ErrorLat", "uLat", "s_lat", "s_front", "PWM_L", "PWM_R"} {
		assert.Contains(t, out, col)
	}
	assert.Equal(t, []string{"/logs/smc_log_20251119_180000.html"}, h.opened)
}

func TestRun_ExplicitFileAndOutDir(t *testing.T) {
	h := newHarness(t)
	log := "time_sec,raw_dist_cm,lpf_dist_cm,error_cm,e_dot_lpf_cms,s_value,target_distance_cm,state\n"
	for i := 0; i < 30; i++ {
		log += fmt.Sprintf("%.2f,%d,%d,%d,0.5,1.5,25,%d\n", float64(i)*0.05, 40-i/2, 40-i/2, 15-i/2, i/10)
	}
	testutil.WriteFile(t, h.fs, "/runs/robot_log_20251119_180000.csv", log)

	code := run([]string{"-V", "front8", "--html=false", "-o", "/figs", "/runs/robot_log_20251119_180000.csv"}, h.env)
	require.Equal(t, 0, code, "stderr: %s", h.stderr.String())

	assert.ElementsMatch(t, []string{
		"/figs/robot_log_20251119_180000_distance.png",
		"/figs/robot_log_20251119_180000_control.png",
	}, h.outputs(t, "/figs"))
	assert.Empty(t, h.outputs(t, "/runs"))
	assert.Empty(t, h.opened)
	assert.Contains(t, h.stdout.String(), "lpf_dist_cm")
}

func TestRun_MissingColumns(t *testing.T) {
	h := newHarness(t)
	testutil.WriteFile(t, h.fs, "/logs/smc_log_20251119_180000.csv",
		"L_Dist,R_Dist,F_Dist,uFront,uLat,PWM_L,PWM_R\n1,2,3,4,5,6,7\n")

	code := run([]string{"--dir", "/logs", "--variant", "smc8"}, h.env)
	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "missing column")
	assert.Contains(t, h.stderr.String(), "ErrorLat")
	assert.Empty(t, h.outputs(t, "/logs"))
}

func TestRun_DerivativeUsesSamplePeriod(t *testing.T) {
	h := newHarness(t)
	log := "L_Dist,R_Dist,F_Dist,uFront,uLat,PWM_L,PWM_R,ErrorLat\n" +
		"1,1,1,0,0,100,100,0\n" +
		"1,1,1,0,0,100,100,1\n" +
		"1,1,1,0,0,100,100,2\n"
	testutil.WriteFile(t, h.fs, "/l/smc_log_20251119_180000.csv", log)

	code := run([]string{"--dir", "/l", "-V", "smc8", "--ts", "0.1", "--png=false", "--html=false"}, h.env)
	require.Equal(t, 0, code, "stderr: %s", h.stderr.String())

	// ErrorLat_dot is 0, 10, 10: mean 6.6667, max 10.
	var line string
	for _, l := range strings.Split(h.stdout.String(), "\n") {
		if strings.HasPrefix(l, "ErrorLat_dot ") {
			line = l
		}
	}
	require.NotEmpty(t, line, "stdout: %s", h.stdout.String())
	fields := strings.Fields(line)
	require.Len(t, fields, 5)
	assert.Equal(t, "0.0000", fields[1])
	assert.Equal(t, "10.0000", fields[2])
	assert.Equal(t, "6.6667", fields[3])
	assert.Empty(t, h.outputs(t, "/l"))
}

func TestRun_BadInvocation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"--colour"}, "unknown flag"},
		{"two files", []string{"a.csv", "b.csv"}, "at most one"},
		{"bad period", []string{"--ts", "0"}, "sample_period"},
		{"bad variant", []string{"-V", "hexapod"}, "unknown variant"},
		{"bad level", []string{"--log-level", "loud"}, "not a valid logrus Level"},
		{"missing file", []string{"/nowhere/x.csv"}, "missing file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			assert.Equal(t, 1, run(tt.args, h.env))
			assert.Contains(t, h.stderr.String(), tt.want)
		})
	}
}

func TestRun_Version(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 0, run([]string{"--version"}, h.env))
	assert.Contains(t, h.stdout.String(), "smcplot dev")
}
