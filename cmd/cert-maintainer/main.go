package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"cert-maintainer/pkg/config"
	"cert-maintainer/pkg/dataset"
	"cert-maintainer/pkg/discover"
	"cert-maintainer/pkg/fetch"
	"cert-maintainer/pkg/models"
	"cert-maintainer/pkg/reconcile"
	"cert-maintainer/pkg/repair"
	"cert-maintainer/pkg/report"
	"cert-maintainer/pkg/storage"
	"cert-maintainer/pkg/validate"
)

const version = "1.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "maintain":
		runMaintain(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "clean":
		runClean(os.Args[2:])
	case "check-config":
		runCheckConfig(os.Args[2:])
	case "version":
		fmt.Printf("cert-maintainer %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `cert-maintainer - free certification directory maintenance

Usage:
  cert-maintainer <command> [options]

Commands:
  maintain      Run the full maintenance cycle (validate, discover, merge)
  validate      Check every dataset URL and write validation reports
  clean         Normalize a raw CSV into the canonical dataset
  check-config  Validate the configuration file
  version       Show version info

Run 'cert-maintainer <command> -h' for command-specific help.`)
}

// loadConfig loads and parses the config file
func loadConfig(path string) (*config.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg config.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// setupLogger builds the run logger at the requested level.
func setupLogger(levelStr string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", levelStr, err)
	} else {
		log.SetLevel(level)
	}
	return log
}

// prepareConfig loads and validates configuration, logging warnings.
func prepareConfig(path string, log *logrus.Logger) *config.AppConfig {
	log.Infof("Loading configuration from %s", path)
	cfg, err := loadConfig(path)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	warnings, err := cfg.Validate()
	for _, w := range warnings {
		log.Warnf("Config: %s", w)
	}
	if err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}
	return cfg
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(log *logrus.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warnf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	}()
	return ctx, cancel
}

// openProbeCache opens the probe cache, degrading to no caching on
// failure. The returned interface is nil when caching is unavailable.
func openProbeCache(cfg *config.AppConfig, log *logrus.Logger) (validate.ProbeCache, func()) {
	pc, err := storage.NewProbeCache(cfg.StateDir, logrus.NewEntry(log))
	if err != nil {
		log.Warnf("Probe cache unavailable, every URL will be probed: %v", err)
		return nil, func() {}
	}
	return pc, func() {
		if err := pc.Close(); err != nil {
			log.Warnf("Probe cache close failed: %v", err)
		}
	}
}

// runMaintain handles the maintain subcommand: the three-phase cycle of
// validating the existing dataset, discovering new certifications, and
// reconciling everything back into the canonical files.
func runMaintain(args []string) {
	fs := flag.NewFlagSet("maintain", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	skipDiscovery := fs.Bool("skip-discovery", false, "Validate and merge only, no scraping or searching")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cert-maintainer maintain [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel)
	cfg := prepareConfig(*configFile, log)

	ctx, cancel := signalContext(log)
	defer cancel()

	client := fetch.NewClient(cfg.HTTPClientSettings, log)
	fetcher := fetch.NewFetcher(client, cfg, log)

	cache, closeCache := openProbeCache(cfg, log)
	defer closeCache()

	validator := validate.NewValidator(fetcher, cache, cfg.RecheckAfter, log)
	store := dataset.NewStore(cfg.DatasetFile, cfg.CSVFile, log)

	ds, err := store.LoadDataset()
	if err != nil {
		log.Fatalf("Cannot load dataset: %v", err)
	}
	log.Infof("Loaded %d existing certifications", len(ds.Certifications))

	// Phase 1: validate existing records, then try to repair the failures
	// before giving up on them.
	log.Info("Phase 1: validating existing URLs")
	survivors, invalid, results := validator.Validate(ctx, ds.Certifications)

	var repairEntries []reconcile.RepairEntry
	if len(invalid) > 0 {
		repairer := repair.NewRepairer(fetcher, cfg.KnownReplacements, log)
		repaired, entries, stillInvalid := repairer.RepairAll(ctx, invalid)
		survivors = append(survivors, repaired...)
		repairEntries = entries
		invalid = stillInvalid
	}

	summary := validate.Summarize(results)
	log.Infof("Existing dataset: %.2f%% reachable (%d/%d)", summary.ValidPercentage, summary.Valid, summary.TotalChecked)

	// Phase 2: discover new certifications from sources and searches. The
	// frontier starts at the survivors so nothing already kept re-enters.
	accepted := runDiscovery(ctx, cfg, fetcher, validator, survivors, *skipDiscovery, log)

	// Phase 3: reconcile into the next canonical dataset and persist.
	log.Info("Phase 3: reconciling dataset")
	reconciler := reconcile.NewReconciler(log)
	nextDS, rep := reconciler.Reconcile(reconcile.Inputs{
		PreviousCount: len(ds.Certifications),
		Survivors:     survivors,
		Accepted:      accepted,
		Removed:       invalid,
		Repaired:      repairEntries,
	})

	if err := store.SaveDataset(nextDS); err != nil {
		log.Fatalf("Cannot save dataset: %v", err)
	}

	// Report failures never fail the run: the canonical files are already
	// safely written.
	writer := report.NewWriter(filepath.Join(cfg.DataDir, "reports"), log)
	if _, err := writer.WriteMaintenanceJSON(rep); err != nil {
		log.Warnf("Cannot write maintenance report: %v", err)
	}
	if err := writer.WriteDiscoveries(filepath.Join(cfg.DataDir, "NEW_DISCOVERIES.md"), rep); err != nil {
		log.Warnf("Cannot write discoveries page: %v", err)
	}
	if err := writer.WriteMaintenanceSummary(filepath.Join(cfg.DataDir, "MAINTENANCE_SUMMARY.md"), rep); err != nil {
		log.Warnf("Cannot write maintenance summary: %v", err)
	}

	log.Infof("Maintenance complete: %d -> %d certifications (run %s)", rep.PreviousCount, rep.FinalCount, rep.RunID)
}

// runDiscovery wires and runs the discovery phase. Returns the accepted
// candidate records, or nil when discovery is skipped.
func runDiscovery(
	ctx context.Context,
	cfg *config.AppConfig,
	fetcher *fetch.Fetcher,
	validator *validate.Validator,
	survivors []models.CertificationRecord,
	skip bool,
	log *logrus.Logger,
) []models.CertificationRecord {
	if skip {
		log.Info("Phase 2: discovery skipped")
		return nil
	}
	log.Info("Phase 2: discovering new certifications")

	inference := discover.NewInference(cfg.ProviderRules, cfg.CategoryRules, cfg.DefaultCategory)
	extractor := discover.NewExtractor(inference, cfg.MinTitleLength, cfg.MaxTitleLength)

	var robots discover.RobotsPolicy
	if !cfg.SkipRobots {
		robots = fetch.NewRobotsGate(fetcher, cfg.UserAgent, log)
	}

	scraper := discover.NewScraper(fetcher, robots, extractor, cfg.MaxLinksPerSource, log)
	searcher := discover.NewSearcher(fetcher, extractor, cfg.SearchEndpoint, cfg.CertKeywords, cfg.MaxSearchResults, cfg.DefaultCategory, log)

	discoverer := discover.NewDiscoverer(
		scraper, searcher, validator,
		cfg.Sources, cfg.SearchQueries,
		fetch.NewPacer(cfg.SourceDelay, log),
		fetch.NewPacer(cfg.QueryDelay, log),
		log,
	)

	frontier := discover.NewFrontier(survivors)
	return discoverer.DiscoverAll(ctx, frontier)
}

// runValidate handles the standalone validate subcommand: probe every
// dataset URL, write the JSON report and markdown status page, and exit
// non-zero when the reachable fraction falls under the threshold.
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	statusFile := fs.String("status", "VALIDATION_STATUS.md", "Markdown status page path")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cert-maintainer validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel)
	cfg := prepareConfig(*configFile, log)

	ctx, cancel := signalContext(log)
	defer cancel()

	client := fetch.NewClient(cfg.HTTPClientSettings, log)
	fetcher := fetch.NewFetcher(client, cfg, log)

	cache, closeCache := openProbeCache(cfg, log)
	defer closeCache()

	validator := validate.NewValidator(fetcher, cache, cfg.RecheckAfter, log)
	store := dataset.NewStore(cfg.DatasetFile, cfg.CSVFile, log)

	ds, err := store.LoadDataset()
	if err != nil {
		log.Fatalf("Cannot load dataset: %v", err)
	}

	_, _, results := validator.Validate(ctx, ds.Certifications)
	summary := validate.Summarize(results)

	writer := report.NewWriter(filepath.Join(cfg.DataDir, "reports"), log)
	if err := writer.WriteValidationJSON(filepath.Join(cfg.DataDir, "url_validation_report.json"), summary, results); err != nil {
		log.Warnf("Cannot write validation report: %v", err)
	}
	if err := writer.WriteValidationStatus(*statusFile, summary, results); err != nil {
		log.Warnf("Cannot write status page: %v", err)
	}

	log.Infof("Validation: %d/%d reachable (%.2f%%)", summary.Valid, summary.TotalChecked, summary.ValidPercentage)
	if summary.BelowThreshold(cfg.ValidThreshold) {
		log.Errorf("Reachable fraction below threshold (%.0f%%), failing", cfg.ValidThreshold*100)
		closeCache()
		os.Exit(1)
	}
}

// runClean handles the clean subcommand: normalize a raw CSV into the
// canonical dataset files without touching the network.
func runClean(args []string) {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	input := fs.String("input", "", "Raw CSV to clean (default: configured csv_file)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cert-maintainer clean [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel)
	cfg := prepareConfig(*configFile, log)

	csvPath := *input
	if csvPath == "" {
		csvPath = cfg.CSVFile
	}

	raw, err := dataset.LoadCSV(csvPath)
	if err != nil {
		log.Fatalf("Cannot read CSV: %v", err)
	}
	cleaned, _ := dataset.CleanRecords(raw, log)

	reconciler := reconcile.NewReconciler(log)
	ds, _ := reconciler.Reconcile(reconcile.Inputs{
		PreviousCount: len(raw),
		Survivors:     cleaned,
	})

	store := dataset.NewStore(cfg.DatasetFile, cfg.CSVFile, log)
	if err := store.SaveDataset(ds); err != nil {
		log.Fatalf("Cannot save dataset: %v", err)
	}
	log.Infof("Clean complete: %d rows in, %d records out", len(raw), len(ds.Certifications))
}

// runCheckConfig handles the check-config subcommand
func runCheckConfig(args []string) {
	fs := flag.NewFlagSet("check-config", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cert-maintainer check-config [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doCheckConfig(*configFile, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doCheckConfig performs validation and writes output to the provided
// writers. Returns exit code (0 = success, 1 = error).
func doCheckConfig(configPath string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := cfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "OK: %d sources, %d search queries\n", len(cfg.Sources), len(cfg.SearchQueries))
	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}
