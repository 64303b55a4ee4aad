// Package graph reads catalogue entities from the knowledge graph and
// writes match assertions and enrichment links back into it.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ppiankov/quakelink/internal/dates"
	"github.com/ppiankov/quakelink/internal/model"
)

// ErrUnavailable means the store cannot be reached or queried
var ErrUnavailable = errors.New("graph store unavailable")

// Store is the graph collaborator used by the matching runs
type Store interface {
	Ping(ctx context.Context) error

	Places(ctx context.Context) ([]model.Entity, error)
	Persons(ctx context.Context) ([]model.Entity, error)
	Earthquakes(ctx context.Context) ([]model.Entity, error)
	TimeSpanDates(ctx context.Context) ([]model.DateLiteral, error)

	// ReplaceDate swaps a date literal for its normalized form
	ReplaceDate(ctx context.Context, lit model.DateLiteral, normalized string) error
	// InsertAssertion links two entities. Inserting an existing link is a no-op.
	InsertAssertion(ctx context.Context, a model.Assertion) error
	// LinkEnrichment records an external reference and its attributes
	LinkEnrichment(ctx context.Context, e model.Entity, rec *model.EnrichmentRecord) error

	Close() error
}

// Entities returns the candidates of one kind
func Entities(ctx context.Context, s Store, kind model.Kind) ([]model.Entity, error) {
	switch kind {
	case model.KindPlace:
		return s.Places(ctx)
	case model.KindPerson:
		return s.Persons(ctx)
	case model.KindEarthquake:
		return s.Earthquakes(ctx)
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}

// Open creates the store selected by cfg
func Open(cfg model.GraphConfig, httpCfg model.HTTPConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "sparql":
		return NewSPARQLStore(cfg, httpCfg, logger), nil
	case "sqlite":
		return OpenSQLiteStore(cfg.Path, cfg.DateGraph)
	case "memory":
		return NewMemoryStore(cfg.DateGraph), nil
	}
	return nil, fmt.Errorf("unknown graph backend %q", cfg.Backend)
}

// enrichmentTriples returns the link and attribute triples for rec
func enrichmentTriples(e model.Entity, rec *model.EnrichmentRecord) ([]Triple, error) {
	if rec == nil || rec.ExternalID == "" {
		return nil, fmt.Errorf("enrichment record for %s has no external id", e.ID)
	}
	ext := rec.ExternalID

	switch e.Kind {
	case model.KindPlace:
		g := GraphGeoNames
		ts := []Triple{
			{g, e.ID, OWLSameAs, IRI(ext)},
			{g, ext, GNName, Literal(rec.Label)},
		}
		if rec.Coords != nil {
			ts = append(ts,
				Triple{g, ext, GeoLat, Typed(formatFloat(rec.Coords.Lat), XSDFloat)},
				Triple{g, ext, GeoLong, Typed(formatFloat(rec.Coords.Lon), XSDFloat)},
			)
		}
		if rec.AdminName != "" {
			ts = append(ts, Triple{g, ext, GNParentFeature, Literal(rec.AdminName)})
		}
		if rec.CountryName != "" {
			ts = append(ts, Triple{g, ext, GNCountryName, Literal(rec.CountryName)})
		}
		return ts, nil

	case model.KindPerson:
		g := GraphWikidata
		ts := []Triple{
			{g, e.ID, CustomCloseMatch, IRI(ext)},
			{g, ext, RDFSLabel, Literal(rec.Label)},
		}
		if rec.BirthDate != "" {
			ts = append(ts, Triple{g, ext, WDTBirth, Typed(rec.BirthDate, XSDDate)})
		}
		if rec.DeathDate != "" {
			ts = append(ts, Triple{g, ext, WDTDeath, Typed(rec.DeathDate, XSDDate)})
		}
		for _, occ := range rec.Occupations {
			ts = append(ts, Triple{g, ext, WDTOccupation, Literal(occ)})
		}
		return ts, nil
	}

	return nil, fmt.Errorf("no enrichment links for %s entities", e.Kind)
}

// assertionTriple returns the triple recording a
func assertionTriple(a model.Assertion) (Triple, error) {
	pred, ok := AssertionPredicate(a.Outcome)
	if !ok {
		return Triple{}, fmt.Errorf("no assertion for outcome %s", a.Outcome)
	}
	if a.Subject == "" || a.Object == "" {
		return Triple{}, errors.New("assertion needs subject and object")
	}
	return Triple{
		Graph:     AssertionGraph(a.Kind),
		Subject:   a.Subject,
		Predicate: pred,
		Object:    IRI(a.Object),
	}, nil
}

// dateTerm is the literal a normalized date is stored as
func dateTerm(normalized string) Term {
	if v, ok := dates.Parse(normalized); ok && v.Range {
		return Literal(normalized)
	}
	return Typed(normalized, XSDDateTime)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
