package enrich

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/quakelink/internal/fetch"
	"github.com/ppiankov/quakelink/internal/model"
)

// QueryMode selects how a person name is matched against Wikidata
type QueryMode int

const (
	// ByLabel matches the person's own label
	ByLabel QueryMode = iota
	// ByFamilyName matches the label of the person's family name (P734)
	ByFamilyName
)

func (m QueryMode) String() string {
	if m == ByFamilyName {
		return "family_name"
	}
	return "label"
}

// Wikidata queries the Wikidata SPARQL service for humans
type Wikidata struct {
	fetcher  *fetch.Fetcher
	endpoint string
	language string
}

// NewWikidata creates a Wikidata source
func NewWikidata(fetcher *fetch.Fetcher, cfg model.WikidataConfig) *Wikidata {
	lang := cfg.Language
	if lang == "" {
		lang = "en"
	}
	return &Wikidata{
		fetcher:  fetcher,
		endpoint: cfg.Endpoint,
		language: lang,
	}
}

const personQuery = `SELECT ?person ?personLabel ?birthDate ?deathDate ?occupationLabel WHERE {
  ?person wdt:P31 wd:Q5 ;
%s
  OPTIONAL { ?person wdt:P569 ?birthDate . }
  OPTIONAL { ?person wdt:P570 ?deathDate . }
  OPTIONAL { ?person wdt:P106 ?occupation . }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "%s" . }
}`

// Query builds the SPARQL text for one lookup
func (w *Wikidata) Query(mode QueryMode, term string) string {
	lit := fetch.QuoteLiteral(term) + "@" + w.language
	var pattern string
	switch mode {
	case ByFamilyName:
		pattern = "          wdt:P734 ?familyName .\n  ?familyName rdfs:label " + lit + " ."
	default:
		pattern = "          rdfs:label " + lit + " ."
	}
	return fmt.Sprintf(personQuery, pattern, w.language)
}

// FindPersons returns the humans matching term, one Candidate per person
func (w *Wikidata) FindPersons(ctx context.Context, mode QueryMode, term string) ([]Candidate, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", w.Query(mode, term))
	params.Set("format", "json")

	var res fetch.SPARQLResults
	if err := w.fetcher.GetJSON(ctx, w.endpoint, params, &res); err != nil {
		return nil, fmt.Errorf("wikidata %s query: %w", mode, err)
	}

	rows := make([]Candidate, 0, len(res.Results.Bindings))
	for _, b := range res.Results.Bindings {
		iri := fetch.Value(b, "person")
		if iri == "" {
			continue
		}
		row := Candidate{
			IRI:       iri,
			Label:     fetch.Value(b, "personLabel"),
			BirthDate: fetch.Value(b, "birthDate"),
			DeathDate: fetch.Value(b, "deathDate"),
		}
		if occ := fetch.Value(b, "occupationLabel"); occ != "" {
			row.Occupations = []string{occ}
		}
		rows = append(rows, row)
	}

	return groupCandidates(rows), nil
}
