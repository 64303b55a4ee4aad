package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/quakelink/internal/model"
)

const testDateGraph = "http://localhost:8890/dataspace"

func loadFixture(t *testing.T, ts TripleStore) {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "catalogue.nt"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	n, err := LoadNTriples(context.Background(), f, ts, "")
	require.NoError(t, err)
	require.Equal(t, 36, n)
}

// localStores returns each embedded backend loaded with the fixture
func localStores(t *testing.T) map[string]*LocalStore {
	t.Helper()

	mem := NewMemoryTriples()
	loadFixture(t, mem)

	sq, err := OpenSQLiteTriples(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	loadFixture(t, sq)

	return map[string]*LocalStore{
		"memory": NewLocalStore(mem, testDateGraph),
		"sqlite": NewLocalStore(sq, testDateGraph),
	}
}

func byID(es []model.Entity) map[string]model.Entity {
	out := make(map[string]model.Entity, len(es))
	for _, e := range es {
		out[e.ID] = e
	}
	return out
}

func TestLocalStore_Places(t *testing.T) {
	for name, s := range localStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Ping(ctx))

			places, err := s.Places(ctx)
			require.NoError(t, err)
			got := byID(places)

			assert.Len(t, places, 2, "epicenter places and unlabeled places are excluded")
			assert.NotContains(t, got, "urn:place:epi")
			assert.NotContains(t, got, "urn:place:epi2")

			chios := got["urn:place:chios"]
			assert.Equal(t, "Chios", chios.Label)
			require.NotNil(t, chios.Coords)
			assert.InDelta(t, 38.37, chios.Coords.Lat, 1e-9)
			assert.Empty(t, chios.ExternalRef)

			town := got["urn:place:chios-town"]
			assert.Equal(t, "Chios Town", town.Label)
			assert.Nil(t, town.Coords)
			assert.Equal(t, "http://sws.geonames.org/258463/", town.ExternalRef)
		})
	}
}

func TestLocalStore_Persons(t *testing.T) {
	for name, s := range localStores(t) {
		t.Run(name, func(t *testing.T) {
			persons, err := s.Persons(context.Background())
			require.NoError(t, err)
			got := byID(persons)
			require.Len(t, got, 2)

			m := got["urn:person:mallet"]
			assert.Equal(t, "1810", m.Begin)
			assert.Equal(t, "1881-11-05", m.End)
			assert.Equal(t, "http://www.wikidata.org/entity/Q2", m.ExternalRef)
			assert.Equal(t, `Anonymous "chronicler"`, got["urn:person:anon"].Label)
		})
	}
}

func TestLocalStore_Earthquakes(t *testing.T) {
	for name, s := range localStores(t) {
		t.Run(name, func(t *testing.T) {
			eqs, err := s.Earthquakes(context.Background())
			require.NoError(t, err)
			got := byID(eqs)
			require.Len(t, got, 2)

			e := got["urn:eq:1881"]
			assert.Equal(t, "1881-04-03 11:30", e.Begin)
			assert.Equal(t, "1881-04-03T11:40:00", e.End)
			require.NotNil(t, e.Coords, "coordinates come through the place's sameAs target")
			assert.InDelta(t, 38.36778, e.Coords.Lat, 1e-9)

			old := got["urn:eq:1766"]
			assert.Equal(t, "1766-05-22", old.Begin, "time-span label is the fallback")
			assert.Equal(t, "1766-05-22", old.End)
			assert.Nil(t, old.Coords)
		})
	}
}

func TestLocalStore_TimeSpanDatesAndReplace(t *testing.T) {
	for name, s := range localStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			lits, err := s.TimeSpanDates(ctx)
			require.NoError(t, err)
			require.Len(t, lits, 3)

			var begin, gyear model.DateLiteral
			for _, l := range lits {
				switch l.Predicate {
				case CRMBeginOfBegin:
					begin = l
				case CRMAtSomeTime:
					gyear = l
				}
			}
			assert.Equal(t, "_:ts1", begin.Subject)
			assert.Equal(t, "http://www.w3.org/2001/XMLSchema#gYear", gyear.Datatype)

			require.NoError(t, s.ReplaceDate(ctx, begin, "1881-04-03T11:30:00"))

			matches, err := s.Triples().Match(ctx, "_:ts1", CRMBeginOfBegin, nil)
			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, "1881-04-03T11:30:00", matches[0].Object.Value)
			assert.Equal(t, XSDDateTime, matches[0].Object.Datatype)
			assert.Equal(t, testDateGraph, matches[0].Graph)

			require.NoError(t, s.ReplaceDate(ctx, model.DateLiteral{Subject: "_:ts1", Predicate: CRMAtSomeTime, Value: "nope"}, "2000-01-01T00:00:00"))
		})
	}
}

func TestLocalStore_InsertAssertionIdempotent(t *testing.T) {
	for name, s := range localStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a := model.Assertion{Subject: "urn:place:chios", Object: "urn:place:chios-town", Kind: model.KindPlace, Outcome: model.Identical}

			require.NoError(t, s.InsertAssertion(ctx, a))
			require.NoError(t, s.InsertAssertion(ctx, a))

			matches, err := s.Triples().Match(ctx, "urn:place:chios", OWLSameAs, nil)
			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, "https://crm-eq.ics.forth.gr/ontology#/custom/places", matches[0].Graph)

			a.Outcome = model.CloseMatch
			a.Kind = model.KindEarthquake
			require.NoError(t, s.InsertAssertion(ctx, a))
			matches, err = s.Triples().Match(ctx, "urn:place:chios", CustomCloseMatch, nil)
			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, "https://crm-eq.ics.forth.gr/ontology#/custom/earthquakes", matches[0].Graph)

			a.Outcome = model.NoMatch
			assert.Error(t, s.InsertAssertion(ctx, a))
		})
	}
}

func TestLocalStore_LinkEnrichment(t *testing.T) {
	for name, s := range localStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			place := model.Entity{ID: "urn:place:chios", Kind: model.KindPlace, Label: "Chios"}
			rec := &model.EnrichmentRecord{
				ExternalID:  "http://sws.geonames.org/258463/",
				Label:       "Chios",
				Coords:      &model.Coordinates{Lat: 38.36778, Lon: 26.13583},
				AdminName:   "North Aegean",
				CountryName: "Greece",
			}
			require.NoError(t, s.LinkEnrichment(ctx, place, rec))

			places, err := s.Places(ctx)
			require.NoError(t, err)
			assert.Equal(t, "http://sws.geonames.org/258463/", byID(places)["urn:place:chios"].ExternalRef)

			country, err := s.Triples().Match(ctx, rec.ExternalID, GNCountryName, nil)
			require.NoError(t, err)
			require.Len(t, country, 1)
			assert.Equal(t, GraphGeoNames, country[0].Graph)

			person := model.Entity{ID: "urn:person:anon", Kind: model.KindPerson, Label: "Anonymous"}
			prec := &model.EnrichmentRecord{
				ExternalID:  "http://www.wikidata.org/entity/Q7",
				Label:       "Someone",
				BirthDate:   "1700-01-01",
				Occupations: []string{"chronicler", "historian"},
			}
			require.NoError(t, s.LinkEnrichment(ctx, person, prec))
			occ, err := s.Triples().Match(ctx, prec.ExternalID, WDTOccupation, nil)
			require.NoError(t, err)
			assert.Len(t, occ, 2)

			assert.Error(t, s.LinkEnrichment(ctx, place, &model.EnrichmentRecord{}))
			assert.Error(t, s.LinkEnrichment(ctx, model.Entity{Kind: model.KindEarthquake}, rec))
		})
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")

	s, err := OpenSQLiteStore(path, testDateGraph)
	require.NoError(t, err)
	require.NoError(t, s.InsertAssertion(context.Background(), model.Assertion{Subject: "urn:a", Object: "urn:b", Kind: model.KindPerson, Outcome: model.CloseMatch}))
	require.NoError(t, s.Close())

	s, err = OpenSQLiteStore(path, testDateGraph)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	n, err := s.Triples().(*SQLiteTriples).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen(t *testing.T) {
	s, err := Open(model.GraphConfig{Backend: "memory"}, model.HTTPConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	s, err = Open(model.GraphConfig{Backend: "sparql", Endpoint: "http://localhost:8898/sparql"}, model.HTTPConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SPARQLStore{}, s)

	_, err = Open(model.GraphConfig{Backend: "neo4j"}, model.HTTPConfig{}, nil)
	assert.Error(t, err)
}

func TestEntities(t *testing.T) {
	s := NewMemoryStore("")
	_, err := Entities(context.Background(), s, model.Kind("volcano"))
	assert.Error(t, err)

	es, err := Entities(context.Background(), s, model.KindPlace)
	require.NoError(t, err)
	assert.Empty(t, es)
}

func TestLocalStore_EarthquakeDatesFromOneTimeSpan(t *testing.T) {
	nt := fmt.Sprintf(`<urn:eq:1881> <%[1]s> <%[2]s> .
<urn:eq:1881> <%[3]s> "Chios 1881" .
<urn:eq:1881> <%[4]s> <urn:ts:a> .
<urn:eq:1881> <%[4]s> <urn:ts:b> .
<urn:ts:a> <%[5]s> "1881-04-03" .
<urn:ts:b> <%[5]s> "1880" .
<urn:ts:b> <%[6]s> "1882" .
`, RDFType, EQEarthquake, RDFSLabel, EQPossibleTimespan, CRMBeginOfBegin, CRMEndOfEnd)

	sq, err := OpenSQLiteTriples(filepath.Join(t.TempDir(), "spans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	for name, ts := range map[string]TripleStore{"memory": NewMemoryTriples(), "sqlite": sq} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := LoadNTriples(ctx, strings.NewReader(nt), ts, "")
			require.NoError(t, err)

			eqs, err := NewLocalStore(ts, testDateGraph).Earthquakes(ctx)
			require.NoError(t, err)
			require.Len(t, eqs, 1)
			assert.Equal(t, "1881-04-03", eqs[0].Begin)
			assert.Empty(t, eqs[0].End, "end of another time-span is not borrowed")
		})
	}
}
