package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/quakelink/internal/model"
)

// LocalStore implements Store over an embedded TripleStore
type LocalStore struct {
	triples   TripleStore
	dateGraph string
}

// NewLocalStore wraps a triple store. Normalized dates whose original
// literal sits in no named graph are written to dateGraph.
func NewLocalStore(ts TripleStore, dateGraph string) *LocalStore {
	return &LocalStore{triples: ts, dateGraph: dateGraph}
}

// Triples exposes the underlying triple store
func (s *LocalStore) Triples() TripleStore {
	return s.triples
}

// Ping checks the underlying store answers queries
func (s *LocalStore) Ping(ctx context.Context) error {
	if _, err := s.triples.Match(ctx, "", RDFType, &Term{Kind: TermIRI, Value: EQEarthquake}); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Places returns every place not involved in an epicenter relation
func (s *LocalStore) Places(ctx context.Context) ([]model.Entity, error) {
	subjects, err := s.instances(ctx, CRMPlace)
	if err != nil {
		return nil, err
	}

	var out []model.Entity
	for _, id := range subjects {
		epicenter, err := s.isEpicenter(ctx, id)
		if err != nil {
			return nil, err
		}
		if epicenter {
			continue
		}

		label, err := s.first(ctx, id, RDFSLabel)
		if err != nil {
			return nil, err
		}
		if label == "" {
			continue
		}

		lat, _ := s.first(ctx, id, GeoLat)
		lon, _ := s.first(ctx, id, GeoLong)
		ref, err := s.refWithPrefix(ctx, id, OWLSameAs, GeoNamesPrefix)
		if err != nil {
			return nil, err
		}

		out = append(out, model.Entity{
			ID:          id,
			Kind:        model.KindPlace,
			Label:       label,
			Coords:      model.ParseCoordinates(lat, lon),
			ExternalRef: ref,
		})
	}
	return out, nil
}

func (s *LocalStore) isEpicenter(ctx context.Context, place string) (bool, error) {
	asObject, err := s.triples.Match(ctx, "", EQEpicenter, &Term{Kind: TermIRI, Value: place})
	if err != nil {
		return false, s.unavailable(err)
	}
	if len(asObject) > 0 {
		return true, nil
	}
	asSubject, err := s.triples.Match(ctx, place, EQEpicenterOf, nil)
	if err != nil {
		return false, s.unavailable(err)
	}
	return len(asSubject) > 0, nil
}

// Persons returns every person with its life dates
func (s *LocalStore) Persons(ctx context.Context) ([]model.Entity, error) {
	subjects, err := s.instances(ctx, CRMPerson)
	if err != nil {
		return nil, err
	}

	var out []model.Entity
	for _, id := range subjects {
		label, err := s.first(ctx, id, RDFSLabel)
		if err != nil {
			return nil, err
		}
		if label == "" {
			continue
		}
		birth, _ := s.first(ctx, id, EQWasBorn)
		death, _ := s.first(ctx, id, EQDiedIn)
		ref, err := s.refWithPrefix(ctx, id, CustomCloseMatch, WikidataPrefix)
		if err != nil {
			return nil, err
		}

		out = append(out, model.Entity{
			ID:          id,
			Kind:        model.KindPerson,
			Label:       label,
			Begin:       birth,
			End:         death,
			ExternalRef: ref,
		})
	}
	return out, nil
}

// Earthquakes returns every earthquake with its documented time-span and
// the coordinates of where it took place
func (s *LocalStore) Earthquakes(ctx context.Context) ([]model.Entity, error) {
	subjects, err := s.instances(ctx, EQEarthquake)
	if err != nil {
		return nil, err
	}

	var out []model.Entity
	for _, id := range subjects {
		label, err := s.first(ctx, id, RDFSLabel)
		if err != nil {
			return nil, err
		}
		if label == "" {
			continue
		}

		e := model.Entity{ID: id, Kind: model.KindEarthquake, Label: label}

		spans, err := s.objects(ctx, id, EQPossibleTimespan)
		if err != nil {
			return nil, err
		}
		// begin and end come from the same time-span
		for _, ts := range spans {
			e.Begin, _ = s.first(ctx, ts, CRMBeginOfBegin)
			e.End, _ = s.first(ctx, ts, CRMEndOfEnd)
			if e.Begin != "" || e.End != "" {
				break
			}
		}

		if e.Begin == "" || e.End == "" {
			fallback, err := s.objects(ctx, id, CRMHasTimeSpan)
			if err != nil {
				return nil, err
			}
			for _, ts := range fallback {
				l, _ := s.first(ctx, ts, RDFSLabel)
				if l == "" {
					continue
				}
				if e.Begin == "" {
					e.Begin = l
				}
				if e.End == "" {
					e.End = l
				}
				break
			}
		}

		e.Coords, err = s.eventCoords(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// eventCoords follows P7_took_place_at to a place, preferring the
// coordinates of the place's sameAs target over its own
func (s *LocalStore) eventCoords(ctx context.Context, event string) (*model.Coordinates, error) {
	places, err := s.objects(ctx, event, CRMTookPlaceAt)
	if err != nil {
		return nil, err
	}
	for _, place := range places {
		targets, err := s.objects(ctx, place, OWLSameAs)
		if err != nil {
			return nil, err
		}
		for _, t := range append(targets, place) {
			lat, _ := s.first(ctx, t, GeoLat)
			lon, _ := s.first(ctx, t, GeoLong)
			if c := model.ParseCoordinates(lat, lon); c != nil {
				return c, nil
			}
		}
	}
	return nil, nil
}

// TimeSpanDates returns the date literals of every time-span
func (s *LocalStore) TimeSpanDates(ctx context.Context) ([]model.DateLiteral, error) {
	spans, err := s.instances(ctx, CRMTimeSpan)
	if err != nil {
		return nil, err
	}

	var out []model.DateLiteral
	for _, ts := range spans {
		for _, pred := range timeSpanPredicates {
			matches, err := s.triples.Match(ctx, ts, pred, nil)
			if err != nil {
				return nil, s.unavailable(err)
			}
			for _, m := range matches {
				if !m.Object.IsLiteral() {
					continue
				}
				out = append(out, model.DateLiteral{
					Subject:   ts,
					Predicate: pred,
					Value:     m.Object.Value,
					Datatype:  m.Object.Datatype,
				})
			}
		}
	}
	return out, nil
}

// ReplaceDate rewrites the literal in whichever graph holds it
func (s *LocalStore) ReplaceDate(ctx context.Context, lit model.DateLiteral, normalized string) error {
	matches, err := s.triples.Match(ctx, lit.Subject, lit.Predicate, &Term{Kind: TermLiteral, Value: lit.Value})
	if err != nil {
		return s.unavailable(err)
	}

	for _, m := range matches {
		if lit.Datatype != "" && m.Object.Datatype != lit.Datatype {
			continue
		}
		if err := s.triples.Remove(ctx, m); err != nil {
			return fmt.Errorf("remove %s: %w", m, err)
		}
		g := m.Graph
		if g == "" {
			g = s.dateGraph
		}
		if _, err := s.triples.Add(ctx, Triple{g, m.Subject, m.Predicate, dateTerm(normalized)}); err != nil {
			return fmt.Errorf("insert normalized date: %w", err)
		}
	}
	return nil
}

// InsertAssertion adds the link triple
func (s *LocalStore) InsertAssertion(ctx context.Context, a model.Assertion) error {
	t, err := assertionTriple(a)
	if err != nil {
		return err
	}
	if _, err := s.triples.Add(ctx, t); err != nil {
		return fmt.Errorf("insert assertion: %w", err)
	}
	return nil
}

// LinkEnrichment adds the enrichment triples
func (s *LocalStore) LinkEnrichment(ctx context.Context, e model.Entity, rec *model.EnrichmentRecord) error {
	ts, err := enrichmentTriples(e, rec)
	if err != nil {
		return err
	}
	if _, err := s.triples.Add(ctx, ts...); err != nil {
		return fmt.Errorf("insert enrichment: %w", err)
	}
	return nil
}

// Close closes the underlying triple store
func (s *LocalStore) Close() error {
	return s.triples.Close()
}

func (s *LocalStore) instances(ctx context.Context, class string) ([]string, error) {
	matches, err := s.triples.Match(ctx, "", RDFType, &Term{Kind: TermIRI, Value: class})
	if err != nil {
		return nil, s.unavailable(err)
	}
	return distinctSubjects(matches), nil
}

func (s *LocalStore) objects(ctx context.Context, subject, predicate string) ([]string, error) {
	matches, err := s.triples.Match(ctx, subject, predicate, nil)
	if err != nil {
		return nil, s.unavailable(err)
	}
	out := make([]string, 0, len(matches))
	seen := make(map[string]bool)
	for _, m := range matches {
		if !seen[m.Object.Value] {
			seen[m.Object.Value] = true
			out = append(out, m.Object.Value)
		}
	}
	return out, nil
}

// first returns the first object value, or "" when there is none
func (s *LocalStore) first(ctx context.Context, subject, predicate string) (string, error) {
	vals, err := s.objects(ctx, subject, predicate)
	if err != nil || len(vals) == 0 {
		return "", err
	}
	return vals[0], nil
}

func (s *LocalStore) refWithPrefix(ctx context.Context, subject, predicate, prefix string) (string, error) {
	vals, err := s.objects(ctx, subject, predicate)
	if err != nil {
		return "", err
	}
	for _, v := range vals {
		if strings.HasPrefix(v, prefix) {
			return v, nil
		}
	}
	return "", nil
}

func (s *LocalStore) unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func distinctSubjects(ts []Triple) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range ts {
		if !seen[t.Subject] {
			seen[t.Subject] = true
			out = append(out, t.Subject)
		}
	}
	return out
}
