package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/quakelink/internal/cache"
	"github.com/ppiankov/quakelink/internal/enrich"
	"github.com/ppiankov/quakelink/internal/graph"
	"github.com/ppiankov/quakelink/internal/logging"
	"github.com/ppiankov/quakelink/internal/model"
	"github.com/ppiankov/quakelink/internal/pipeline"
	"github.com/ppiankov/quakelink/internal/worker"
)

// matchFlags are the pass selectors of the match command
type matchFlags struct {
	all         bool
	dates       bool
	places      bool
	persons     bool
	earthquakes bool
	useCache    bool
	noEnrich    bool
	jsonPath    string
	timeout     time.Duration
}

var mf matchFlags

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Normalize dates and link matching entities in the graph",
	Long: `Match runs the selected passes against the configured graph store:

  --dates   rewrite time-span dates into xsd:dateTime form
  --place   enrich places from GeoNames, then link identical places
  --person  enrich persons from Wikidata, then link identical and close persons
  --eq      link identical and close earthquakes

Example:
  quakelink match --all
  quakelink match --place --person --cache
  quakelink match --eq --json run.json
  quakelink match --dates --backend sqlite --db catalogue.db`,
	Args:    cobra.NoArgs,
	PreRunE: bindMatchFlags,
	RunE:    runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	f := matchCmd.Flags()
	f.BoolVar(&mf.all, "all", false, "run every pass")
	f.BoolVar(&mf.dates, "dates", false, "normalize time-span dates")
	f.BoolVar(&mf.places, "place", false, "run the place pass")
	f.BoolVar(&mf.persons, "person", false, "run the person pass")
	f.BoolVar(&mf.earthquakes, "eq", false, "run the earthquake pass")
	f.BoolVar(&mf.useCache, "cache", false, "answer lookups from the enrichment cache when possible")
	f.BoolVar(&mf.noEnrich, "no-enrich", false, "skip GeoNames and Wikidata lookups")
	f.StringVar(&mf.jsonPath, "json", "", "write the run report as JSON to this path")
	f.DurationVar(&mf.timeout, "timeout", 0, "overall run timeout (0 means none)")

	f.String("backend", "", "graph backend: sparql, sqlite or memory")
	f.String("endpoint", "", "SPARQL endpoint URL")
	f.String("db", "", "SQLite graph database path")
	f.Int("workers", 0, "concurrent enrichment lookups")
}

// bindMatchFlags binds the store flags at run time; load binds --db to
// the same key
func bindMatchFlags(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	for key, name := range map[string]string{
		"graph.backend":              "backend",
		"graph.endpoint":             "endpoint",
		"graph.path":                 "db",
		"concurrency.enrich_workers": "workers",
	} {
		if err := viper.BindPFlag(key, f.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

// plan turns the flags into a pipeline plan
func (f matchFlags) plan(cfg *model.Config) pipeline.Plan {
	return pipeline.Plan{
		Dates:       f.all || f.dates,
		Places:      f.all || f.places,
		Persons:     f.all || f.persons,
		Earthquakes: f.all || f.earthquakes,
		Enrich:      !f.noEnrich,
		UseCache:    f.useCache || cfg.Cache.Enabled,
	}
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	plan := mf.plan(cfg)
	if plan.Empty() {
		return fmt.Errorf("nothing to run: pass --all or any of --dates, --place, --person, --eq")
	}

	logger, logCloser, err := logging.Setup(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if mf.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, mf.timeout)
		defer cancel()
	}

	store, err := graph.Open(cfg.Graph, cfg.HTTP, logger)
	if err != nil {
		return fmt.Errorf("open graph store: %w", err)
	}
	defer func() { _ = store.Close() }()

	var resolver worker.Resolver
	if plan.Enrich && (plan.Places || plan.Persons) {
		ec, err := cache.Open(cfg.Cache, afero.NewOsFs(), logger)
		if err != nil {
			return fmt.Errorf("open enrichment cache: %w", err)
		}
		defer func() {
			if err := ec.Close(); err != nil {
				logger.Warn("close enrichment cache", "error", err)
			}
		}()
		resolver = enrich.NewFromConfig(cfg, ec, logger)
	}

	printHeader(os.Stderr, cfg, plan)

	p := pipeline.NewPipeline(store, resolver, cfg, logger)
	report, runErr := p.Run(ctx, plan)

	if report != nil {
		renderSummary(os.Stderr, report)
		if mf.jsonPath != "" {
			if err := writeReportJSON(afero.NewOsFs(), mf.jsonPath, report); err != nil {
				logger.Error("write run report", "path", mf.jsonPath, "error", err)
			} else {
				fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", mf.jsonPath)
			}
		}
	}

	if runErr != nil {
		logger.Error("run failed", slog.String("error", runErr.Error()))
		return fmt.Errorf("match failed: %w", runErr)
	}
	return nil
}
