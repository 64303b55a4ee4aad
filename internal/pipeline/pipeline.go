// Package pipeline runs matching passes over the catalogue graph: it
// normalizes time-span dates, enriches places and persons from external
// sources, classifies every candidate pair and writes the resulting links.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/quakelink/internal/dates"
	"github.com/ppiankov/quakelink/internal/decide"
	"github.com/ppiankov/quakelink/internal/enrich"
	"github.com/ppiankov/quakelink/internal/graph"
	"github.com/ppiankov/quakelink/internal/model"
	"github.com/ppiankov/quakelink/internal/score"
	"github.com/ppiankov/quakelink/internal/worker"
)

// Plan selects what a run does
type Plan struct {
	Dates       bool
	Places      bool
	Persons     bool
	Earthquakes bool
	// Enrich looks up external records for places and persons before
	// matching them.
	Enrich bool
	// UseCache lets cached enrichment records answer lookups.
	UseCache bool
}

// Kinds returns the entity passes in run order
func (p Plan) Kinds() []model.Kind {
	var kinds []model.Kind
	if p.Places {
		kinds = append(kinds, model.KindPlace)
	}
	if p.Persons {
		kinds = append(kinds, model.KindPerson)
	}
	if p.Earthquakes {
		kinds = append(kinds, model.KindEarthquake)
	}
	return kinds
}

// Empty reports whether the plan has nothing to do
func (p Plan) Empty() bool {
	return !p.Dates && len(p.Kinds()) == 0
}

// Pipeline orchestrates matching runs against one graph store
type Pipeline struct {
	store         graph.Store
	resolver      worker.Resolver
	scorer        *score.Scorer
	thresholds    model.Thresholds
	enrichWorkers int
	pairWorkers   int
	logger        *slog.Logger
}

// NewPipeline creates a pipeline. resolver may be nil, in which case the
// enrichment step is skipped.
func NewPipeline(store graph.Store, resolver worker.Resolver, cfg *model.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	pairWorkers := cfg.Concurrency.PairWorkers
	if pairWorkers <= 0 {
		pairWorkers = runtime.NumCPU()
	}
	enrichWorkers := cfg.Concurrency.EnrichWorkers
	if enrichWorkers <= 0 {
		enrichWorkers = 1
	}

	return &Pipeline{
		store:         store,
		resolver:      resolver,
		scorer:        score.NewScorer(cfg.Thresholds),
		thresholds:    cfg.Thresholds,
		enrichWorkers: enrichWorkers,
		pairWorkers:   pairWorkers,
		logger:        logger,
	}
}

// Run executes the plan. Store connectivity and candidate fetch failures
// abort the run; everything else is counted in the report. Cancellation
// is checked between passes and recorded in the report's Aborted field.
func (p *Pipeline) Run(ctx context.Context, plan Plan) (*model.RunReport, error) {
	report := &model.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	defer func() { report.FinishedAt = time.Now().UTC() }()

	log := p.logger.With("run_id", report.RunID)

	if err := p.store.Ping(ctx); err != nil {
		return report, fmt.Errorf("graph store: %w", err)
	}

	if plan.Dates {
		if err := ctx.Err(); err != nil {
			return aborted(report, err)
		}
		dp, err := p.normalizeDates(ctx, log)
		report.Dates = dp
		if err != nil {
			if ctx.Err() != nil {
				return aborted(report, ctx.Err())
			}
			return report, err
		}
	}

	for _, kind := range plan.Kinds() {
		if err := ctx.Err(); err != nil {
			return aborted(report, err)
		}
		pass, err := p.runKind(ctx, log.With("kind", kind), kind, plan)
		if pass != nil {
			report.Passes = append(report.Passes, *pass)
		}
		if err != nil {
			if ctx.Err() != nil {
				return aborted(report, ctx.Err())
			}
			return report, err
		}
	}

	return report, nil
}

func aborted(report *model.RunReport, err error) (*model.RunReport, error) {
	report.Aborted = err.Error()
	return report, err
}

// normalizeDates rewrites every time-span date literal that is readable
// but not yet in canonical form
func (p *Pipeline) normalizeDates(ctx context.Context, log *slog.Logger) (*model.DatePass, error) {
	dp := &model.DatePass{}

	lits, err := p.store.TimeSpanDates(ctx)
	if err != nil {
		return dp, fmt.Errorf("fetch time-span dates: %w", err)
	}

	for _, lit := range lits {
		if err := ctx.Err(); err != nil {
			return dp, err
		}
		dp.Seen++

		if dates.IsNormalized(lit.Value) {
			dp.Unchanged++
			continue
		}
		normalized, ok := dates.Normalize(lit.Value)
		if !ok {
			dp.Unparsable++
			log.Debug("unparsable date", "subject", lit.Subject, "value", lit.Value)
			continue
		}
		if err := p.store.ReplaceDate(ctx, lit, normalized); err != nil {
			dp.Failed++
			log.Warn("date replace failed", "subject", lit.Subject, "value", lit.Value, "error", err)
			continue
		}
		dp.Normalized++
		log.Debug("date normalized", "subject", lit.Subject, "from", lit.Value, "to", normalized)
	}

	log.Info("date pass complete",
		"seen", dp.Seen, "normalized", dp.Normalized, "unchanged", dp.Unchanged,
		"unparsable", dp.Unparsable, "failed", dp.Failed)
	return dp, nil
}

// runKind fetches, optionally enriches, and matches one entity kind
func (p *Pipeline) runKind(ctx context.Context, log *slog.Logger, kind model.Kind, plan Plan) (*model.PassSummary, error) {
	start := time.Now()
	pass := &model.PassSummary{Kind: kind}

	table, err := decide.ForKind(kind, p.thresholds)
	if err != nil {
		return nil, err
	}

	entities, err := graph.Entities(ctx, p.store, kind)
	if err != nil {
		return nil, fmt.Errorf("fetch %s candidates: %w", kind, err)
	}
	pass.Candidates = len(entities)
	log.Info("candidates fetched", "count", len(entities))

	if plan.Enrich && p.resolver != nil && kind != model.KindEarthquake {
		if err := p.enrich(ctx, log, entities, plan.UseCache, pass); err != nil {
			pass.Duration = time.Since(start)
			return pass, err
		}
	}

	rows, err := p.sweep(ctx, table, entities)
	if err != nil {
		pass.Duration = time.Since(start)
		return pass, err
	}
	pass.Pairs = len(entities) * (len(entities) - 1) / 2

	p.emit(ctx, log, kind, entities, rows, pass)

	pass.Duration = time.Since(start)
	log.Info("pass complete",
		"pairs", pass.Pairs, "identical", pass.Identical, "close_match", pass.CloseMatch,
		"written", pass.Written, "failed", pass.Failed, "duration", pass.Duration)
	return pass, nil
}

// enrich resolves entities without an external ref and links the records
// into the graph. Lookups run concurrently; entity updates and graph writes
// happen here, one at a time.
func (p *Pipeline) enrich(ctx context.Context, log *slog.Logger, entities []model.Entity, useCache bool, pass *model.PassSummary) error {
	var pending []int
	for i, e := range entities {
		if e.ExternalRef == "" {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	batch := make([]model.Entity, len(pending))
	for k, idx := range pending {
		batch[k] = entities[idx]
	}

	log.Info("enriching", "pending", len(pending), "workers", p.enrichWorkers, "cache", useCache)
	results := worker.NewEnrichBatch(p.resolver, p.enrichWorkers).Run(ctx, batch, useCache)

	for k, r := range results {
		idx := pending[k]
		if r.Error != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			pass.NotFound++
			if !errors.Is(r.Error, enrich.ErrNotFound) {
				log.Warn("lookup failed", "entity", r.Entity.ID, "error", r.Error)
			}
			continue
		}
		if r.Record == nil || r.Record.ExternalID == "" {
			pass.NotFound++
			continue
		}

		if err := p.store.LinkEnrichment(ctx, entities[idx], r.Record); err != nil {
			pass.LinkFailed++
			log.Warn("enrichment link failed", "entity", r.Entity.ID, "external_id", r.Record.ExternalID, "error", err)
			continue
		}
		entities[idx].ExternalRef = r.Record.ExternalID
		pass.Enriched++
	}

	log.Info("enrichment complete", "enriched", pass.Enriched, "not_found", pass.NotFound, "link_failed", pass.LinkFailed)
	return nil
}

// match is a non-NoMatch decision for the pair (row, J)
type match struct {
	J        int
	Decision model.Decision
}

// sweep classifies every unordered pair (i, j), i < j. Rows are evaluated
// concurrently; each row only reads entities.
func (p *Pipeline) sweep(ctx context.Context, table decide.Table, entities []model.Entity) ([][]match, error) {
	rows := make([][]match, len(entities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.pairWorkers)

	for i := range entities {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var row []match
			for j := i + 1; j < len(entities); j++ {
				d := table.Classify(p.scorer.Evaluate(entities[i], entities[j]))
				if d.Outcome != model.NoMatch {
					row = append(row, match{J: j, Decision: d})
				}
			}
			rows[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// emit writes the links in (i, j) order. A failed write is counted and
// the sweep moves on.
func (p *Pipeline) emit(ctx context.Context, log *slog.Logger, kind model.Kind, entities []model.Entity, rows [][]match, pass *model.PassSummary) {
	for i, row := range rows {
		for _, m := range row {
			a := model.Assertion{
				Subject: entities[i].ID,
				Object:  entities[m.J].ID,
				Kind:    kind,
				Outcome: m.Decision.Outcome,
				Rule:    m.Decision.Rule,
			}

			switch a.Outcome {
			case model.Identical:
				pass.Identical++
			case model.CloseMatch:
				pass.CloseMatch++
			}

			if err := p.store.InsertAssertion(ctx, a); err != nil {
				pass.Failed++
				log.Warn("assertion write failed",
					"subject", a.Subject, "object", a.Object, "outcome", a.Outcome, "error", err)
				continue
			}
			pass.Written++
			log.Debug("assertion written",
				"subject", a.Subject, "object", a.Object, "outcome", a.Outcome, "rule", a.Rule)
		}
	}
}
