// Probe program that resolves a few places and persons against the live
// GeoNames and Wikidata services without touching the graph.
//
// Usage:
//
//	GEONAMES_USERNAME=demo go run ./cmd/probe-enrichment [terms.txt]
//
// Lines in terms.txt are "place:Label" or "person:Name (1810-1881)".
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/ppiankov/quakelink/internal/cache"
	"github.com/ppiankov/quakelink/internal/enrich"
	"github.com/ppiankov/quakelink/internal/model"
	"github.com/ppiankov/quakelink/internal/worker"
)

var defaultTerms = []string{
	"place:Chios",
	"place:Mytilene",
	"person:Robert Mallet (1810-1881)",
	"person:Julius Schmidt",
	"person:Nicholas Ambraseys",
}

func main() {
	timeout := flag.Duration("timeout", 2*time.Minute, "overall probe timeout")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	_ = godotenv.Load()

	terms := defaultTerms
	if flag.NArg() > 0 {
		var err error
		terms, err = worker.ReadTermsFromFile(afero.NewOsFs(), flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := model.DefaultConfig()
	if users := os.Getenv("GEONAMES_USERNAME"); users != "" {
		cfg.GeoNames.Usernames = strings.Split(users, ",")
	}
	// one quota wait would stall the probe for an hour
	cfg.Retry.QuotaRetries = 0

	gw := enrich.NewFromConfig(cfg, cache.NewEnrichmentCache(cache.NewMemoryCache(0, 0), logger), logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Println("=== Enrichment Probe ===")
	fmt.Println()

	for i, term := range terms {
		e, err := parseTerm(i, term)
		if err != nil {
			fmt.Printf("  ✗ %s: %v\n\n", term, err)
			continue
		}

		fmt.Printf("%s %q\n", e.Kind, e.Label)
		fmt.Println(strings.Repeat("-", 60))

		start := time.Now()
		rec, err := gw.Resolve(ctx, e, false)
		elapsed := time.Since(start).Round(time.Millisecond)

		switch {
		case errors.Is(err, enrich.ErrNotFound):
			fmt.Printf("  not found (%s)\n", elapsed)
		case err != nil:
			fmt.Printf("  ✗ error: %v\n", err)
		default:
			fmt.Printf("  ✓ %s (%s)\n", rec.ExternalID, elapsed)
			fmt.Printf("    label:       %s\n", rec.Label)
			if rec.Coords != nil {
				fmt.Printf("    coordinates: %.5f, %.5f\n", rec.Coords.Lat, rec.Coords.Lon)
			}
			if rec.CountryName != "" {
				fmt.Printf("    country:     %s / %s\n", rec.CountryName, rec.AdminName)
			}
			if rec.BirthDate != "" || rec.DeathDate != "" {
				fmt.Printf("    life:        %s – %s\n", rec.BirthDate, rec.DeathDate)
			}
			if len(rec.Occupations) > 0 {
				fmt.Printf("    occupations: %s\n", strings.Join(rec.Occupations, ", "))
			}
			if rec.Score > 0 {
				fmt.Printf("    score:       %d\n", rec.Score)
			}
		}
		fmt.Println()
	}

	fmt.Println("=== Probe Complete ===")
	fmt.Println("\nNote: GeoNames needs a registered username (GEONAMES_USERNAME).")
	fmt.Println("Wikidata results depend on the live query service.")
}

// parseTerm turns "kind:label" into an entity
func parseTerm(i int, term string) (model.Entity, error) {
	kind, label, ok := strings.Cut(term, ":")
	if !ok || strings.TrimSpace(label) == "" {
		return model.Entity{}, fmt.Errorf("expected kind:label")
	}

	e := model.Entity{
		ID:    fmt.Sprintf("urn:probe:%d", i),
		Kind:  model.Kind(strings.TrimSpace(kind)),
		Label: strings.TrimSpace(label),
	}
	switch e.Kind {
	case model.KindPlace:
		return e, nil
	case model.KindPerson:
		// "Name (birth-death)" carries the life dates
		if name, years, ok := strings.Cut(e.Label, " ("); ok && strings.HasSuffix(years, ")") {
			birth, death, _ := strings.Cut(strings.TrimSuffix(years, ")"), "-")
			e.Label, e.Begin, e.End = name, birth, death
		}
		return e, nil
	}
	return model.Entity{}, fmt.Errorf("unknown kind %q", kind)
}
