package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/quakelink/internal/fetch"
	"github.com/ppiankov/quakelink/internal/model"
)

// graphMaxBody bounds result documents from the endpoint
const graphMaxBody = 512 << 20

// SPARQLStore talks to a SPARQL 1.1 endpoint over HTTP
type SPARQLStore struct {
	fetcher   *fetch.Fetcher
	endpoint  string
	username  string
	password  string
	dateGraph string
	logger    *slog.Logger
}

// NewSPARQLStore creates a store for cfg.Endpoint
func NewSPARQLStore(cfg model.GraphConfig, httpCfg model.HTTPConfig, logger *slog.Logger) *SPARQLStore {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout > 0 {
		httpCfg.Timeout = cfg.Timeout
	}
	httpCfg.MaxBodyBytes = graphMaxBody

	return &SPARQLStore{
		fetcher:   fetch.NewFetcher(httpCfg, nil, nil),
		endpoint:  cfg.Endpoint,
		username:  cfg.Username,
		password:  cfg.Password,
		dateGraph: cfg.DateGraph,
		logger:    logger,
	}
}

func (s *SPARQLStore) post(ctx context.Context, param, text string) ([]byte, error) {
	form := url.Values{}
	form.Set(param, text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json, application/json")
	if s.username != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	return s.fetcher.Do(ctx, req)
}

func (s *SPARQLStore) selectRows(ctx context.Context, query string) ([]map[string]fetch.SPARQLTerm, error) {
	body, err := s.post(ctx, "query", query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var res fetch.SPARQLResults
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: decode results: %v", ErrUnavailable, err)
	}
	return res.Results.Bindings, nil
}

func (s *SPARQLStore) update(ctx context.Context, text string) error {
	s.logger.Debug("sparql update", "update", text)
	_, err := s.post(ctx, "update", text)
	return err
}

// Ping runs a trivial ASK query
func (s *SPARQLStore) Ping(ctx context.Context) error {
	body, err := s.post(ctx, "query", pingQuery)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var res struct {
		Boolean *bool `json:"boolean"`
	}
	if err := json.Unmarshal(body, &res); err != nil || res.Boolean == nil {
		return fmt.Errorf("%w: %s did not answer an ASK query", ErrUnavailable, s.endpoint)
	}
	return nil
}

// rowGroups merges result rows by their key variable, keeping the first
// non-empty value of every other variable. The queries sort their rows, so
// the kept value is the same on every run.
type rowGroups struct {
	order []string
	rows  map[string]map[string]string
}

func groupRows(bindings []map[string]fetch.SPARQLTerm, key string) *rowGroups {
	g := &rowGroups{rows: make(map[string]map[string]string)}
	for _, b := range bindings {
		id := fetch.Value(b, key)
		if id == "" {
			continue
		}
		row, ok := g.rows[id]
		if !ok {
			row = make(map[string]string)
			g.rows[id] = row
			g.order = append(g.order, id)
		}
		for name, term := range b {
			if row[name] == "" && term.Value != "" {
				row[name] = term.Value
			}
		}
	}
	return g
}

func (s *SPARQLStore) Places(ctx context.Context) ([]model.Entity, error) {
	bindings, err := s.selectRows(ctx, placesQuery)
	if err != nil {
		return nil, err
	}
	g := groupRows(bindings, "p")
	out := make([]model.Entity, 0, len(g.order))
	for _, id := range g.order {
		r := g.rows[id]
		out = append(out, model.Entity{
			ID:          id,
			Kind:        model.KindPlace,
			Label:       r["label"],
			Coords:      model.ParseCoordinates(r["lat"], r["long"]),
			ExternalRef: r["g"],
		})
	}
	return out, nil
}

func (s *SPARQLStore) Persons(ctx context.Context) ([]model.Entity, error) {
	bindings, err := s.selectRows(ctx, personsQuery)
	if err != nil {
		return nil, err
	}
	g := groupRows(bindings, "p")
	out := make([]model.Entity, 0, len(g.order))
	for _, id := range g.order {
		r := g.rows[id]
		out = append(out, model.Entity{
			ID:          id,
			Kind:        model.KindPerson,
			Label:       r["label"],
			Begin:       r["birth"],
			End:         r["death"],
			ExternalRef: r["w"],
		})
	}
	return out, nil
}

func (s *SPARQLStore) Earthquakes(ctx context.Context) ([]model.Entity, error) {
	bindings, err := s.selectRows(ctx, earthquakesQuery)
	if err != nil {
		return nil, err
	}
	g := groupRows(bindings, "eq")
	spans := firstSpans(bindings)
	out := make([]model.Entity, 0, len(g.order))
	for _, id := range g.order {
		r := g.rows[id]
		span := spans[id]
		e := model.Entity{
			ID:    id,
			Kind:  model.KindEarthquake,
			Label: r["label"],
			Begin: span[0],
			End:   span[1],
		}
		if e.Begin == "" {
			e.Begin = r["spanLabel"]
		}
		if e.End == "" {
			e.End = r["spanLabel"]
		}
		e.Coords = model.ParseCoordinates(r["lat"], r["long"])
		if e.Coords == nil {
			e.Coords = model.ParseCoordinates(r["placeLat"], r["placeLong"])
		}
		out = append(out, e)
	}
	return out, nil
}

// firstSpans picks, per earthquake, the begin and end of the first row whose
// time-span carries either, so both come from one time-span
func firstSpans(bindings []map[string]fetch.SPARQLTerm) map[string][2]string {
	out := make(map[string][2]string)
	for _, b := range bindings {
		id := fetch.Value(b, "eq")
		if _, done := out[id]; done || id == "" {
			continue
		}
		begin, end := fetch.Value(b, "begin"), fetch.Value(b, "end")
		if begin != "" || end != "" {
			out[id] = [2]string{begin, end}
		}
	}
	return out
}

func (s *SPARQLStore) TimeSpanDates(ctx context.Context) ([]model.DateLiteral, error) {
	bindings, err := s.selectRows(ctx, timeSpanDatesQuery)
	if err != nil {
		return nil, err
	}
	out := make([]model.DateLiteral, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, model.DateLiteral{
			Subject:   fetch.Value(b, "sub"),
			Predicate: fetch.Value(b, "dateProperty"),
			Value:     fetch.Value(b, "dateValue"),
			Datatype:  b["dateValue"].Datatype,
		})
	}
	return out, nil
}

// ReplaceDate rewrites the literal inside the configured date graph
func (s *SPARQLStore) ReplaceDate(ctx context.Context, lit model.DateLiteral, normalized string) error {
	old := Term{Kind: TermLiteral, Value: lit.Value, Datatype: lit.Datatype}
	text := replaceDateUpdate(s.dateGraph, lit.Subject, lit.Predicate, old, dateTerm(normalized))
	if err := s.update(ctx, text); err != nil {
		return fmt.Errorf("replace date on %s: %w", lit.Subject, err)
	}
	return nil
}

func (s *SPARQLStore) InsertAssertion(ctx context.Context, a model.Assertion) error {
	t, err := assertionTriple(a)
	if err != nil {
		return err
	}
	if err := s.update(ctx, insertDataUpdate([]Triple{t})); err != nil {
		return fmt.Errorf("insert assertion: %w", err)
	}
	return nil
}

func (s *SPARQLStore) LinkEnrichment(ctx context.Context, e model.Entity, rec *model.EnrichmentRecord) error {
	ts, err := enrichmentTriples(e, rec)
	if err != nil {
		return err
	}
	if err := s.update(ctx, insertDataUpdate(ts)); err != nil {
		return fmt.Errorf("insert enrichment: %w", err)
	}
	return nil
}

func (s *SPARQLStore) Close() error { return nil }
