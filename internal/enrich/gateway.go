// Package enrich resolves local places and persons to records in external
// reference datasets (GeoNames, Wikidata), going through the enrichment
// cache first.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/quakelink/internal/cache"
	"github.com/ppiankov/quakelink/internal/fetch"
	"github.com/ppiankov/quakelink/internal/model"
)

// ErrNotFound means the external source has no acceptable record. Lookups
// that keep failing after retries also end here.
var ErrNotFound = errors.New("no external record found")

// PlaceSource finds the reference record for a place
type PlaceSource interface {
	FindPlace(ctx context.Context, label string, coords *model.Coordinates) (*model.EnrichmentRecord, error)
}

// PersonSource lists reference persons matching a term
type PersonSource interface {
	FindPersons(ctx context.Context, mode QueryMode, term string) ([]Candidate, error)
}

// Gateway resolves entities to enrichment records
type Gateway struct {
	places     PlaceSource
	persons    PersonSource
	cache      *cache.EnrichmentCache
	retry      fetch.RetryPolicy
	strategies []Strategy
	logger     *slog.Logger
}

// NewGateway creates a gateway. Either source and the cache may be nil.
func NewGateway(places PlaceSource, persons PersonSource, c *cache.EnrichmentCache, retry fetch.RetryPolicy, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		places:     places,
		persons:    persons,
		cache:      c,
		retry:      retry,
		strategies: PersonStrategies,
		logger:     logger,
	}
}

// Resolve returns the enrichment record for e. With useCache a cached record
// answers without contacting the source. Fresh results are always cached.
// Errors other than context cancellation wrap ErrNotFound.
func (g *Gateway) Resolve(ctx context.Context, e model.Entity, useCache bool) (*model.EnrichmentRecord, error) {
	key := cache.KeyFor(e)

	if useCache && g.cache != nil && key != "" {
		if rec, ok := g.cache.Lookup(key); ok {
			g.logger.Debug("enrichment cache hit", "entity", e.ID, "key", key)
			return rec, nil
		}
	}

	var (
		rec *model.EnrichmentRecord
		err error
	)
	switch e.Kind {
	case model.KindPlace:
		rec, err = g.resolvePlace(ctx, e)
	case model.KindPerson:
		rec, err = g.resolvePerson(ctx, e)
	default:
		return nil, fmt.Errorf("no enrichment source for %s: %w", e.Kind, ErrNotFound)
	}

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, ErrNotFound) {
			g.logger.Warn("enrichment lookup failed", "entity", e.ID, "label", e.Label, "error", err)
			err = fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, err
	}

	if g.cache != nil && key != "" {
		if serr := g.cache.Store(key, rec); serr != nil {
			g.logger.Warn("enrichment cache write failed", "key", key, "error", serr)
		}
	}
	return rec, nil
}

func (g *Gateway) resolvePlace(ctx context.Context, e model.Entity) (*model.EnrichmentRecord, error) {
	if g.places == nil {
		return nil, fmt.Errorf("no place source configured: %w", ErrNotFound)
	}

	var rec *model.EnrichmentRecord
	err := g.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		rec, err = g.places.FindPlace(ctx, e.Label, e.Coords)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (g *Gateway) resolvePerson(ctx context.Context, e model.Entity) (*model.EnrichmentRecord, error) {
	if g.persons == nil {
		return nil, fmt.Errorf("no person source configured: %w", ErrNotFound)
	}

	name, birth, death := PrepareName(e.Label, e.Begin, e.End)
	if name == "" {
		return nil, ErrNotFound
	}

	var lastErr error
	for _, s := range g.strategies {
		term := s.Term(name)
		if term == "" {
			continue
		}

		var cands []Candidate
		err := g.retry.Do(ctx, func(ctx context.Context) error {
			var err error
			cands, err = g.persons.FindPersons(ctx, s.Mode, term)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.logger.Debug("person strategy failed", "strategy", s.Name, "term", term, "error", err)
			lastErr = err
			continue
		}

		best, score, ok := Rank(cands, birth, death)
		g.logger.Debug("person strategy ranked", "strategy", s.Name, "term", term, "candidates", len(cands), "score", score)
		if !ok {
			continue
		}

		label := best.Label
		if label == "" {
			label = name
		}
		return &model.EnrichmentRecord{
			Source:      model.SourceWikidata,
			ExternalID:  best.IRI,
			Label:       label,
			BirthDate:   xsdDate(best.BirthDate),
			DeathDate:   xsdDate(best.DeathDate),
			Occupations: best.Occupations,
			Score:       score,
		}, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNotFound
}
