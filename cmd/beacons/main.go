// Command beacons reconstructs a beacon map from a scanner report and
// prints the scanner positions, beacon count and the largest scanner
// separation.
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

	"github.com/banshee-data/beacon.report/internal/beacon"
	"github.com/banshee-data/beacon.report/internal/beacon/parse"
	"github.com/banshee-data/beacon.report/internal/beacondb"
	"github.com/banshee-data/beacon.report/internal/config"
	"github.com/banshee-data/beacon.report/internal/fsutil"
	"github.com/banshee-data/beacon.report/internal/monitoring"
	"github.com/banshee-data/beacon.report/internal/report"
	"github.com/banshee-data/beacon.report/internal/timeutil"
	"github.com/banshee-data/beacon.report/internal/version"
)

var (
	inputFile   = flag.String("input", "", "Path to the scanner report (required)")
	configFile  = flag.String("config", "", "Path to a JSON or YAML registration config (default: built-in defaults)")
	origin      = flag.String("origin", "", "Origin scanner: last, first or id (overrides config)")
	originID    = flag.Int("origin-id", -1, "Origin scanner id when -origin=id (overrides config)")
	workers     = flag.Int("workers", 0, "Overlap workers per round (overrides config)")
	minOverlap  = flag.Int("min-overlap", 0, "Shared beacons required to register a scanner (overrides config)")
	dbFile      = flag.String("db", "", "Store the run in this SQLite database")
	jsonOut     = flag.Bool("json", false, "Print the summary as JSON")
	withBeacons = flag.Bool("beacons", false, "Include every beacon position in the JSON summary")
	htmlFile    = flag.String("html", "", "Write an HTML beacon chart to this path")
	pngFile     = flag.String("png", "", "Write a beacon plot to this path (format by extension: png, svg, pdf)")
	quiet       = flag.Bool("quiet", false, "Suppress progress logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// Replaced in tests.
var (
	outputFS fsutil.FileSystem = fsutil.OSFileSystem{}
	clock    timeutil.Clock    = timeutil.RealClock{}
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *inputFile == "" {
		log.Fatal("-input is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout); err != nil {
		log.Fatalf("beacons: %v", err)
	}
}

// loadConfig reads -config (or the defaults) and applies the flag
// overrides.
func loadConfig() (*config.RegistrationConfig, error) {
	cfg := config.DefaultRegistrationConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadRegistrationConfig(*configFile); err != nil {
			return nil, err
		}
	}

	if *origin != "" {
		cfg.Origin = origin
	}
	if *originID >= 0 {
		cfg.OriginID = originID
	}
	if *workers > 0 {
		cfg.Workers = workers
	}
	if *minOverlap > 0 {
		cfg.MinOverlap = minOverlap
	}
	if *quiet {
		off := false
		cfg.LogProgress = &off
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.GetLogProgress() {
		monitoring.SetLogger(monitoring.NewWriterLogger(os.Stderr, "beacons: "))
	} else {
		monitoring.SetLogger(nil)
	}

	scanners, err := parse.ParseFile(*inputFile)
	if err != nil {
		return err
	}
	monitoring.Logf("loaded %d scanners from %s", len(scanners), *inputFile)

	start := clock.Now()
	res, err := beacon.NewEngine(cfg.EngineOptions()...).Register(ctx, scanners)
	if err != nil {
		return err
	}
	monitoring.Logf("registered %d scanners in %v", len(res.Scanners), clock.Since(start))

	sum := report.Summarise(res, *withBeacons)
	if *jsonOut {
		err = report.WriteJSON(stdout, sum)
	} else {
		err = report.WriteText(stdout, sum)
	}
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if *htmlFile != "" {
		if err := report.SaveChart(outputFS, *htmlFile, res); err != nil {
			return err
		}
		monitoring.Logf("wrote chart to %s", *htmlFile)
	}
	if *pngFile != "" {
		if err := report.SavePlot(outputFS, *pngFile, res); err != nil {
			return err
		}
		monitoring.Logf("wrote plot to %s", *pngFile)
	}

	if *dbFile != "" {
		bdb, err := beacondb.NewBeaconDB(*dbFile)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer bdb.Close()

		runID, err := bdb.SaveRun(res, filepath.Base(*inputFile))
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		monitoring.Logf("stored run %s in %s", runID, *dbFile)
	}
	return nil
}
