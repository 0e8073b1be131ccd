// Command smclog captures SMC robot telemetry from a serial port into a
// timestamped CSV file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/banshee-data/smc-telemetry/internal/config"
	"github.com/banshee-data/smc-telemetry/internal/csvlog"
	"github.com/banshee-data/smc-telemetry/internal/fsutil"
	"github.com/banshee-data/smc-telemetry/internal/ingest"
	"github.com/banshee-data/smc-telemetry/internal/monitoring"
	"github.com/banshee-data/smc-telemetry/internal/serialport"
	"github.com/banshee-data/smc-telemetry/internal/telemetry"
	"github.com/banshee-data/smc-telemetry/internal/timeutil"
	"github.com/banshee-data/smc-telemetry/internal/version"
)

// env is everything run touches outside its arguments.
type env struct {
	stdout io.Writer
	stderr io.Writer
	fsys   fsutil.FileSystem
	clock  timeutil.Clock
	// factory overrides how the port is opened; nil selects the hardware
	// port, or the fixture replay with --dev.
	factory serialport.PortFactory
}

type options struct {
	configPath      string
	variant         string
	port            string
	baud            int
	duration        time.Duration
	echoEvery       int
	flushOnError    bool
	reportMalformed bool
	readTimeout     time.Duration
	settle          time.Duration
	outDir          string
	logLevel        string
	dev             bool
	fixture         string
	listPorts       bool
	showVersion     bool
}

func newFlagSet(o *options, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("smclog", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: smclog [flags]\n\nCapture robot telemetry into <prefix>YYYYmmdd_HHMMSS.csv.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.StringVarP(&o.configPath, "config", "c", "", "config file (.json, .yaml); "+config.DefaultConfigPath+" is used when present")
	fs.StringVarP(&o.variant, "variant", "V", telemetry.DefaultVariant, "telemetry variant: smc8, smc12, robot12, front8")
	fs.StringVarP(&o.port, "port", "p", serialport.DefaultPath, "serial device")
	fs.IntVarP(&o.baud, "baud", "b", serialport.DefaultBaudRate, "baud rate")
	fs.DurationVarP(&o.duration, "duration", "d", 0, "stop after this long; 0 runs until interrupted (default: the variant's bound)")
	fs.IntVar(&o.echoEvery, "echo-every", 0, "echo every k-th record; 0 disables")
	fs.BoolVar(&o.flushOnError, "flush-on-error", false, "flush the log after each discarded line")
	fs.BoolVar(&o.reportMalformed, "report-malformed", false, "print a note for each discarded line")
	fs.DurationVar(&o.readTimeout, "read-timeout", 500*time.Millisecond, "serial read timeout")
	fs.DurationVar(&o.settle, "settle", 2*time.Second, "wait after opening the port for the board to reset")
	fs.StringVarP(&o.outDir, "out-dir", "o", ".", "directory for the log file")
	fs.StringVar(&o.logLevel, "log-level", "info", "diagnostic log level: debug, info, warn, error")
	fs.BoolVar(&o.dev, "dev", false, "replay fixture telemetry instead of opening the port")
	fs.StringVar(&o.fixture, "fixture", "", "lines to replay with --dev; synthetic data when empty")
	fs.BoolVar(&o.listPorts, "list-ports", false, "list serial devices and exit")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	return fs
}

func ptr[T any](v T) *T { return &v }

// applyFlags copies explicitly set flags over the config file values.
func applyFlags(fs *pflag.FlagSet, o options, c *config.CaptureConfig) {
	if fs.Changed("variant") {
		c.Variant = ptr(o.variant)
	}
	if fs.Changed("port") {
		c.Port = ptr(o.port)
	}
	if fs.Changed("baud") {
		c.BaudRate = ptr(o.baud)
	}
	if fs.Changed("duration") {
		c.Duration = ptr(o.duration.String())
	}
	if fs.Changed("echo-every") {
		c.EchoEvery = ptr(o.echoEvery)
	}
	if fs.Changed("flush-on-error") {
		c.FlushOnError = ptr(o.flushOnError)
	}
	if fs.Changed("report-malformed") {
		c.ReportMalformed = ptr(o.reportMalformed)
	}
	if fs.Changed("read-timeout") {
		c.ReadTimeout = ptr(o.readTimeout.String())
	}
	if fs.Changed("settle") {
		c.Settle = ptr(o.settle.String())
	}
	if fs.Changed("out-dir") {
		c.OutDir = ptr(o.outDir)
	}
	if fs.Changed("log-level") {
		c.LogLevel = ptr(o.logLevel)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], env{
		stdout: os.Stdout,
		stderr: os.Stderr,
		fsys:   fsutil.OSFileSystem{},
		clock:  timeutil.RealClock{},
	})
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, e env) int {
	var o options
	fs := newFlagSet(&o, e.stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(e.stderr, "smclog: %v\n", err)
		fs.Usage()
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(e.stderr, "smclog: unexpected arguments %q\n", fs.Args())
		fs.Usage()
		return 1
	}

	if o.showVersion {
		fmt.Fprintln(e.stdout, version.String("smclog"))
		return 0
	}
	if o.listPorts {
		return listPorts(e)
	}

	file, err := config.LoadOptional(e.fsys, o.configPath)
	if err != nil {
		fmt.Fprintf(e.stderr, "smclog: %v\n", err)
		return 1
	}
	capture := file.Capture
	applyFlags(fs, o, capture)
	if err := capture.Validate(); err != nil {
		fmt.Fprintf(e.stderr, "smclog: invalid configuration: %v\n", err)
		return 1
	}

	if err := monitoring.Configure(e.stderr, capture.GetLogLevel()); err != nil {
		fmt.Fprintf(e.stderr, "smclog: %v\n", err)
		return 1
	}

	variant, err := telemetry.LookupVariant(capture.GetVariant())
	if err != nil {
		fmt.Fprintf(e.stderr, "smclog: %v\n", err)
		return 1
	}
	cfg := ingest.ConfigFor(variant)
	cfg.Duration = capture.GetDuration(variant)
	cfg.EchoEvery = capture.GetEchoEvery(variant)
	cfg.FlushOnError = capture.GetFlushOnError(variant)
	cfg.ReportMalformed = capture.GetReportMalformed(variant)

	factory := e.factory
	if factory == nil {
		factory, err = portFactory(o, variant, e.fsys)
		if err != nil {
			fmt.Fprintf(e.stderr, "smclog: %v\n", err)
			return 1
		}
	}

	if err := logSession(ctx, e, factory, capture, cfg); err != nil {
		fmt.Fprintf(e.stderr, "smclog: %v\n", err)
		return 1
	}
	return 0
}

// logSession runs one session: open, settle, log until stopped, report.
func logSession(ctx context.Context, e env, factory serialport.PortFactory, capture *config.CaptureConfig, cfg ingest.Config) error {
	path := capture.GetPort()
	portOpts, err := capture.PortOptions().Normalize()
	if err != nil {
		return err
	}

	port, err := factory.Open(path, portOpts, capture.GetReadTimeout())
	if err != nil {
		if _, ok := telemetry.KindOf(err); !ok {
			err = telemetry.ConnectionError("open "+path, err)
		}
		return err
	}
	defer port.Close()

	monitoring.Logf("opened %s at %s, waiting %s for the board to settle", path, portOpts, capture.GetSettle())
	if err := serialport.Settle(port, capture.GetSettle(), e.clock.Sleep); err != nil {
		return telemetry.ConnectionError("reset input "+path, err)
	}

	start := e.clock.Now()
	w, err := csvlog.Create(e.fsys, capture.GetOutDir(), cfg.Schema, start)
	if err != nil {
		return err
	}
	defer w.Close()

	session, err := ingest.NewSession(cfg, w,
		ingest.WithClock(e.clock),
		ingest.WithConsole(e.stdout),
		ingest.WithStart(start),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "Logging to %s\n", w.Path())
	if cfg.Duration > 0 {
		fmt.Fprintf(e.stdout, "Capturing for %s. Press Ctrl+C to stop early.\n", cfg.Duration)
	} else {
		fmt.Fprintln(e.stdout, "Press Ctrl+C to stop.")
	}

	sum, runErr := session.Run(ctx, serialport.NewLineReader(port))
	sum.Path = w.Path()
	if err := w.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close %s: %w", w.Path(), err)
	}
	if err := sum.WriteSummary(e.stdout); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func portFactory(o options, v telemetry.Variant, fsys fsutil.FileSystem) (serialport.PortFactory, error) {
	if !o.dev {
		return serialport.RealPortFactory{}, nil
	}

	lines := syntheticLines(v, 200)
	if o.fixture != "" {
		var err error
		lines, err = loadFixture(fsys, o.fixture)
		if err != nil {
			return nil, err
		}
	}
	monitoring.Logf("dev mode: replaying %d %s lines", len(lines), v.Name)
	return serialport.FixtureFactory{Lines: lines, Interval: 50 * time.Millisecond, Loop: true}, nil
}

func listPorts(e env) int {
	ports, err := serialport.ListPorts()
	if err != nil {
		fmt.Fprintf(e.stderr, "smclog: %v\n", err)
		return 1
	}
	if len(ports) == 0 {
		fmt.Fprintln(e.stdout, "no serial ports found")
		return 0
	}
	for _, p := range ports {
		fmt.Fprintln(e.stdout, p)
	}
	return 0
}
