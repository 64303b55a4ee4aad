package cache

import (
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/quakelink/internal/model"
)

// Cache defines the interface for byte caches. A ttl of 0 means the
// backend's default.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// PlaceKey is the enrichment cache key for a place lookup
func PlaceKey(label string, coords *model.Coordinates) string {
	lat, lon := "", ""
	if coords != nil {
		lat = strconv.FormatFloat(coords.Lat, 'f', -1, 64)
		lon = strconv.FormatFloat(coords.Lon, 'f', -1, 64)
	}
	return strings.Join([]string{"place", label, lat, lon}, "|")
}

// PersonKey is the enrichment cache key for a person lookup
func PersonKey(name, birth, death string) string {
	return strings.Join([]string{"person", name, birth, death}, "|")
}

// KeyFor returns the cache key for an entity, or "" for kinds that are
// never enriched.
func KeyFor(e model.Entity) string {
	switch e.Kind {
	case model.KindPlace:
		return PlaceKey(e.Label, e.Coords)
	case model.KindPerson:
		return PersonKey(e.Label, e.Begin, e.End)
	}
	return ""
}
