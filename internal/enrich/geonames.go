package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/ppiankov/quakelink/internal/fetch"
	"github.com/ppiankov/quakelink/internal/model"
)

// GeoNames status codes that mean the account ran out of credits
var geonamesQuotaStatus = map[int]bool{18: true, 19: true, 20: true}

// GeoNames status codes worth retrying
var geonamesBusyStatus = map[int]bool{13: true, 22: true}

// GeoNames resolves places through the GeoNames web services, rotating
// through the configured accounts when one runs out of quota
type GeoNames struct {
	fetcher   *fetch.Fetcher
	baseURL   string
	usernames []string
	logger    *slog.Logger

	mu      sync.Mutex
	current int
}

// NewGeoNames creates a GeoNames source
func NewGeoNames(fetcher *fetch.Fetcher, cfg model.GeoNamesConfig, logger *slog.Logger) *GeoNames {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeoNames{
		fetcher:   fetcher,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		usernames: cfg.Usernames,
		logger:    logger,
	}
}

type geonamesResponse struct {
	Geonames []geonamesItem `json:"geonames"`
	Status   *struct {
		Message string `json:"message"`
		Value   int    `json:"value"`
	} `json:"status"`
}

type geonamesItem struct {
	GeonameID   int64  `json:"geonameId"`
	Name        string `json:"name"`
	Lat         string `json:"lat"`
	Lng         string `json:"lng"`
	AdminName1  string `json:"adminName1"`
	CountryName string `json:"countryName"`
}

// FindPlace looks up label, preferring the populated place nearest to coords
// when they are known. It returns ErrNotFound when neither service answers.
func (g *GeoNames) FindPlace(ctx context.Context, label string, coords *model.Coordinates) (*model.EnrichmentRecord, error) {
	if coords != nil {
		params := url.Values{}
		params.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
		params.Set("lng", strconv.FormatFloat(coords.Lon, 'f', -1, 64))

		item, err := g.first(ctx, "findNearbyPlaceNameJSON", params)
		if err != nil {
			return nil, err
		}
		if item != nil {
			return item.record(), nil
		}
		g.logger.Debug("nearby lookup empty, searching by name", "label", label)
	}

	if strings.TrimSpace(label) == "" {
		return nil, ErrNotFound
	}

	params := url.Values{}
	params.Set("q", label)
	params.Set("maxRows", "1")

	item, err := g.first(ctx, "searchJSON", params)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item.record(), nil
}

// first calls a service and returns its first item, or nil when it has none
func (g *GeoNames) first(ctx context.Context, service string, params url.Values) (*geonamesItem, error) {
	if len(g.usernames) == 0 {
		return nil, errors.New("geonames: no username configured")
	}

	for tries := 0; tries < len(g.usernames); tries++ {
		user := g.username()
		params.Set("username", user)

		var resp geonamesResponse
		err := g.fetcher.GetJSON(ctx, g.baseURL+"/"+service, params, &resp)
		if err == nil && resp.Status != nil {
			err = statusError(service, resp.Status.Value, resp.Status.Message)
		}

		if errors.Is(err, fetch.ErrQuotaExhausted) {
			g.logger.Warn("geonames quota exhausted, rotating account", "username", user)
			g.rotate(user)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("geonames %s: %w", service, err)
		}

		if len(resp.Geonames) == 0 {
			return nil, nil
		}
		return &resp.Geonames[0], nil
	}

	return nil, fmt.Errorf("geonames: all %d accounts: %w", len(g.usernames), fetch.ErrQuotaExhausted)
}

func statusError(service string, code int, msg string) error {
	switch {
	case geonamesQuotaStatus[code]:
		return fmt.Errorf("%s: %w", msg, fetch.ErrQuotaExhausted)
	case geonamesBusyStatus[code]:
		return &fetch.StatusError{URL: service, Code: http.StatusServiceUnavailable, Body: msg}
	default:
		return fmt.Errorf("status %d: %s", code, msg)
	}
}

func (g *GeoNames) username() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usernames[g.current]
}

// rotate moves past user unless another goroutine already did
func (g *GeoNames) rotate(user string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.usernames[g.current] == user {
		g.current = (g.current + 1) % len(g.usernames)
	}
}

// ExternalID returns the GeoNames resource IRI for an item
func (it geonamesItem) ExternalID() string {
	if it.GeonameID != 0 {
		return fmt.Sprintf("http://sws.geonames.org/%d/", it.GeonameID)
	}
	return "http://sws.geonames.org/" + strings.ReplaceAll(it.Name, " ", "_")
}

func (it geonamesItem) record() *model.EnrichmentRecord {
	return &model.EnrichmentRecord{
		Source:      model.SourceGeoNames,
		ExternalID:  it.ExternalID(),
		Label:       it.Name,
		Coords:      model.ParseCoordinates(it.Lat, it.Lng),
		AdminName:   it.AdminName1,
		CountryName: it.CountryName,
	}
}
