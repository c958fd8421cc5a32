// Command collision-analyse summarises the CSV logs of a collision warning
// simulation and renders the alert plots.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/collision.report/internal/collision"
	"github.com/banshee-data/collision.report/internal/config"
	"github.com/banshee-data/collision.report/internal/db"
	"github.com/banshee-data/collision.report/internal/fsutil"
	"github.com/banshee-data/collision.report/internal/monitoring"
	"github.com/banshee-data/collision.report/internal/report"
	"github.com/banshee-data/collision.report/internal/security"
	"github.com/banshee-data/collision.report/internal/version"
	"github.com/banshee-data/collision.report/internal/viewer"
)

var (
	configFile   = flag.String("config", "", "Path to JSON analysis config (default: "+config.DefaultConfigPath+" if present)")
	dataPattern  = flag.String("data", "", "Glob for warning logs (default "+collision.DefaultDataPattern+")")
	alertPattern = flag.String("alerts", "", "Glob for received-alert logs (default "+collision.DefaultAlertPattern+")")
	outDir       = flag.String("out", "", "Directory for the PNG plots (default .)")
	dbPath       = flag.String("db", "", "Write the analysis to this SQLite file (recreated each run)")
	show         = flag.Bool("show", false, "Serve the interactive charts and open them in a browser")
	listen       = flag.String("listen", "", "Viewer listen address (default 127.0.0.1:0)")
	versionFlag  = flag.Bool("version", false, "Print version and exit")
	quiet        = flag.Bool("quiet", false, "Suppress diagnostic logging")
)

// cliOptions are the flag values that override the config file.
type cliOptions struct {
	config, data, alerts, out, db, listen string
}

func flagOptions() cliOptions {
	return cliOptions{
		config: *configFile,
		data:   *dataPattern,
		alerts: *alertPattern,
		out:    *outDir,
		db:     *dbPath,
		listen: *listen,
	}
}

// resolve loads the config file, applies the flag overrides and validates
// the result. Without -config the default file is used only if it exists
// on fsys.
func (o cliOptions) resolve(fsys fsutil.FileSystem) (*config.AnalysisConfig, error) {
	cfg := config.EmptyAnalysisConfig()
	path := o.config
	if path == "" && fsys.Exists(config.DefaultConfigPath) {
		path = config.DefaultConfigPath
	}
	if path != "" {
		loaded, err := config.LoadAnalysisConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrides := []struct {
		flag string
		dst  **string
	}{
		{o.data, &cfg.DataPattern},
		{o.alerts, &cfg.AlertPattern},
		{o.out, &cfg.OutputDir},
		{o.db, &cfg.DBPath},
		{o.listen, &cfg.Listen},
	}
	for _, ov := range overrides {
		if ov.flag != "" {
			v := ov.flag
			*ov.dst = &v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// analysis is one completed run.
type analysis struct {
	metrics *collision.Metrics
	plotDir string
	store   *db.DB
}

func (a *analysis) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func analysisOptions(cfg *config.AnalysisConfig) collision.Options {
	return collision.Options{
		HistogramBins: cfg.GetHistogramBins(),
		TTCWindow:     cfg.GetTTCWindow(),
		Density:       collision.GaussianKDE{GridSize: cfg.GetDensityGrid(), Cut: collision.DefaultDensityCut},
	}
}

// run loads both log families, prints the summary, renders the plots and,
// when configured, exports to SQLite. The caller closes the result.
func run(ctx context.Context, cfg *config.AnalysisConfig, fsys fsutil.FileSystem, stdout io.Writer) (*analysis, error) {
	plotDir := cfg.GetOutputDir()
	if err := security.ValidateOutputPath(plotDir); err != nil {
		return nil, fmt.Errorf("invalid output directory: %w", err)
	}

	data, err := collision.LoadTable(fsys, cfg.GetDataPattern())
	if err != nil {
		return nil, fmt.Errorf("failed to load warning logs: %w", err)
	}
	alerts, err := collision.LoadTable(fsys, cfg.GetAlertPattern())
	if err != nil {
		return nil, fmt.Errorf("failed to load alert logs: %w", err)
	}
	records, err := collision.Records(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read warning logs: %w", err)
	}

	m, err := collision.Analyze(records, alerts, analysisOptions(cfg))
	if err != nil {
		return nil, err
	}

	if err := report.WriteSummary(stdout, m.Summary); err != nil {
		return nil, err
	}
	if m.HasData {
		opts := report.PlotOptions{
			Width:  vg.Length(cfg.GetPlotWidthIn()) * vg.Inch,
			Height: vg.Length(cfg.GetPlotHeightIn()) * vg.Inch,
		}
		if _, err := report.RenderPNGs(fsys, m, plotDir, opts); err != nil {
			return nil, err
		}
	}
	if err := report.WriteOutcome(stdout, m, plotDir); err != nil {
		return nil, err
	}

	a := &analysis{metrics: m, plotDir: plotDir}
	if path := cfg.GetDBPath(); path != "" {
		if err := security.ValidateOutputPath(path); err != nil {
			return nil, fmt.Errorf("invalid database path: %w", err)
		}
		store, err := db.Create(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
		runID, err := store.SaveRun(ctx, db.Run{
			ToolVersion:  version.Version,
			DataPattern:  cfg.GetDataPattern(),
			AlertPattern: cfg.GetAlertPattern(),
			Data:         data,
			Alerts:       alerts,
			Records:      records,
			Metrics:      m,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to export analysis: %w", err)
		}
		monitoring.Logf("exported run %s to %s", runID, store.Path())
		a.store = store
	}
	return a, nil
}

// showViewer serves the interactive charts until ctx is cancelled.
func showViewer(ctx context.Context, listenAddr string, a *analysis) error {
	absPlots, err := filepath.Abs(a.plotDir)
	if err != nil {
		return fmt.Errorf("failed to resolve plot directory: %w", err)
	}
	ws, err := viewer.NewWebServer(viewer.WebServerConfig{
		Address: listenAddr,
		Metrics: a.metrics,
		PlotDir: absPlots,
		DB:      a.store,
	})
	if err != nil {
		return fmt.Errorf("failed to create viewer: %w", err)
	}
	return ws.Start(ctx, func(url string) {
		fmt.Printf("Interactive charts at %s (Ctrl-C to stop)\n", url)
		if err := viewer.OpenBrowser(url); err != nil {
			log.Printf("could not open browser: %v", err)
		}
	})
}

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.String("collision-analyse"))
		return
	}
	if *quiet {
		monitoring.SetLogger(nil)
	}

	fsys := fsutil.OSFileSystem{}
	cfg, err := flagOptions().resolve(fsys)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := run(ctx, cfg, fsys, os.Stdout)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	if *show {
		err = showViewer(ctx, cfg.GetListen(), a)
	}
	// log.Fatalf skips deferred calls, so the database is closed first.
	if cerr := a.Close(); cerr != nil {
		log.Printf("failed to close database: %v", cerr)
	}
	if err != nil {
		log.Fatalf("viewer failed: %v", err)
	}
}
