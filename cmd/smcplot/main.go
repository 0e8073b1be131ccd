// Command smcplot renders the diagnostic charts and summary statistics of a
// captured telemetry log.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/smc-telemetry/internal/config"
	"github.com/banshee-data/smc-telemetry/internal/csvlog"
	"github.com/banshee-data/smc-telemetry/internal/figures"
	"github.com/banshee-data/smc-telemetry/internal/fsutil"
	"github.com/banshee-data/smc-telemetry/internal/monitoring"
	"github.com/banshee-data/smc-telemetry/internal/table"
	"github.com/banshee-data/smc-telemetry/internal/telemetry"
	"github.com/banshee-data/smc-telemetry/internal/version"
)

type env struct {
	stdout io.Writer
	stderr io.Writer
	fsys   fsutil.FileSystem
	// open shows a rendered page to the operator.
	open func(path string) error
}

type options struct {
	configPath  string
	variant     string
	period      float64
	dir         string
	outDir      string
	png         bool
	html        bool
	open        bool
	width       float64
	height      float64
	logLevel    string
	showVersion bool
}

func newFlagSet(o *options, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("smcplot", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: smcplot [flags] [log.csv]\n\n"+
			"Without a file, the newest log of the variant in --dir is used.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.StringVarP(&o.configPath, "config", "c", "", "config file (.json, .yaml); "+config.DefaultConfigPath+" is used when present")
	fs.StringVarP(&o.variant, "variant", "V", telemetry.DefaultVariant, "telemetry variant: smc8, smc12, robot12, front8")
	fs.Float64Var(&o.period, "ts", config.DefaultSamplePeriod, "sample period in seconds for derivatives")
	fs.StringVar(&o.dir, "dir", ".", "directory searched for the newest log")
	fs.StringVarP(&o.outDir, "out", "o", "", "directory for figures (default: next to the log)")
	fs.BoolVar(&o.png, "png", true, "write one PNG per figure")
	fs.BoolVar(&o.html, "html", true, "write the interactive HTML page")
	fs.BoolVar(&o.open, "open", false, "open the HTML page in a browser")
	fs.Float64Var(&o.width, "width", 12, "PNG width in inches")
	fs.Float64Var(&o.height, "height", 10, "PNG height in inches")
	fs.StringVar(&o.logLevel, "log-level", "warn", "diagnostic log level: debug, info, warn, error")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	return fs
}

func ptr[T any](v T) *T { return &v }

func applyFlags(fs *pflag.FlagSet, o options, c *config.RenderConfig) {
	if fs.Changed("variant") {
		c.Variant = ptr(o.variant)
	}
	if fs.Changed("ts") {
		c.SamplePeriod = ptr(o.period)
	}
	if fs.Changed("dir") {
		c.Dir = ptr(o.dir)
	}
	if fs.Changed("out") {
		c.OutDir = ptr(o.outDir)
	}
	if fs.Changed("png") {
		c.PNG = ptr(o.png)
	}
	if fs.Changed("html") {
		c.HTML = ptr(o.html)
	}
	if fs.Changed("open") {
		c.Open = ptr(o.open)
	}
	if fs.Changed("width") {
		c.Width = ptr(o.width)
	}
	if fs.Changed("height") {
		c.Height = ptr(o.height)
	}
}

func main() {
	os.Exit(run(os.Args[1:], env{
		stdout: os.Stdout,
		stderr: os.Stderr,
		fsys:   fsutil.OSFileSystem{},
		open:   openBrowser,
	}))
}

func run(args []string, e env) int {
	var o options
	fs := newFlagSet(&o, e.stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(e.stderr, "smcplot: %v\n", err)
		fs.Usage()
		return 1
	}
	if o.showVersion {
		fmt.Fprintln(e.stdout, version.String("smcplot"))
		return 0
	}
	if fs.NArg() > 1 {
		fmt.Fprintf(e.stderr, "smcplot: expected at most one log file, got %d\n", fs.NArg())
		fs.Usage()
		return 1
	}

	if err := monitoring.Configure(e.stderr, o.logLevel); err != nil {
		fmt.Fprintf(e.stderr, "smcplot: %v\n", err)
		return 1
	}

	file, err := config.LoadOptional(e.fsys, o.configPath)
	if err != nil {
		fmt.Fprintf(e.stderr, "smcplot: %v\n", err)
		return 1
	}
	cfg := file.Render
	applyFlags(fs, o, cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(e.stderr, "smcplot: invalid configuration: %v\n", err)
		return 1
	}

	if err := render(fs.Arg(0), cfg, e); err != nil {
		fmt.Fprintf(e.stderr, "smcplot: %v\n", err)
		if errors.Is(err, telemetry.ErrMissingFile) {
			fs.Usage()
		}
		return 1
	}
	return 0
}

// render is the whole pipeline: resolve, load, derive, check, draw, report.
// Nothing is written unless the log loads and has every column the figures
// need.
func render(path string, cfg *config.RenderConfig, e env) error {
	variant, err := telemetry.LookupVariant(cfg.GetVariant())
	if err != nil {
		return err
	}
	layout, err := figures.LayoutFor(variant.Name)
	if err != nil {
		return err
	}

	if path == "" {
		path, err = csvlog.Latest(e.fsys, cfg.GetDir(), variant.Schema.FileGlob())
		if err != nil {
			return err
		}
		monitoring.Logf("using newest log %s", path)
	}

	tbl, err := table.LoadFile(e.fsys, path, table.SpecFor(variant.Schema))
	if err != nil {
		return err
	}
	if err := layout.Apply(tbl, cfg.GetSamplePeriod()); err != nil {
		return err
	}
	if err := layout.Check(tbl); err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "Loaded %s: %d rows", path, tbl.Len())
	if tbl.Dropped() > 0 {
		fmt.Fprintf(e.stdout, " (%d malformed rows dropped)", tbl.Dropped())
	}
	fmt.Fprintln(e.stdout)
	if xs, ok := tbl.Column(layout.X); ok {
		fmt.Fprintf(e.stdout, "%s: %.2f to %.2f\n", layout.X, xs[0], xs[len(xs)-1])
	}

	outDir := cfg.GetOutDir()
	if cfg.OutDir == nil || *cfg.OutDir == "" {
		outDir = filepath.Dir(path)
	}
	if err := e.fsys.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if cfg.GetPNG() {
		width := vg.Length(cfg.GetWidth()) * vg.Inch
		height := vg.Length(cfg.GetHeight()) * vg.Inch
		for _, fig := range layout.Figures {
			out := filepath.Join(outDir, base+"_"+fig.Name+".png")
			err := writeFile(e.fsys, out, func(w io.Writer) error {
				return figures.RenderPNG(w, fig, layout.X, tbl, width, height)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(e.stdout, "Saved %s\n", out)
		}
	}

	var page string
	if cfg.GetHTML() {
		page = filepath.Join(outDir, base+".html")
		err := writeFile(e.fsys, page, func(w io.Writer) error {
			return figures.RenderHTML(w, base, layout.Figures, layout.X, tbl)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Saved %s\n", page)
	}

	fmt.Fprintln(e.stdout)
	if err := table.WriteSummary(e.stdout, tbl.Summarize(layout.StatColumns())); err != nil {
		return err
	}

	if cfg.GetOpen() {
		if page == "" {
			monitoring.Log.Warn("--open needs the HTML page; nothing to open")
		} else if err := e.open(page); err != nil {
			monitoring.Log.Warnf("cannot open %s: %v", page, err)
		}
	}
	return nil
}

func writeFile(fsys fsutil.FileSystem, path string, fill func(io.Writer) error) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
