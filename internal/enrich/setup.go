package enrich

import (
	"log/slog"

	"github.com/ppiankov/quakelink/internal/cache"
	"github.com/ppiankov/quakelink/internal/fetch"
	"github.com/ppiankov/quakelink/internal/model"
	"github.com/ppiankov/quakelink/internal/util"
	"github.com/ppiankov/quakelink/internal/worker"
)

// NewFromConfig builds the gateway over GeoNames and Wikidata. Both
// sources share one fetcher, so per-host pacing covers them together.
// c may be nil.
func NewFromConfig(cfg *model.Config, c *cache.EnrichmentCache, logger *slog.Logger) *Gateway {
	rl := cfg.RateLimiting
	limiter := worker.NewLimiter(rl.RequestsPerSecond, rl.BurstSize)
	for host, rps := range rl.HostRates {
		limiter.SetHostRate(host, rps, rl.BurstSize)
	}

	var robots *util.RobotsChecker
	if cfg.HTTP.RespectRobots {
		robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}

	f := fetch.NewFetcher(cfg.HTTP, limiter, robots)
	return NewGateway(
		NewGeoNames(f, cfg.GeoNames, logger),
		NewWikidata(f, cfg.Wikidata),
		c,
		fetch.NewRetryPolicy(cfg.Retry, logger),
		logger,
	)
}
