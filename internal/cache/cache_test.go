package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/quakelink/internal/model"
)

func TestKeys_Deterministic(t *testing.T) {
	c := &model.Coordinates{Lat: 39.1, Lon: 26.55}
	assert.Equal(t, "place|Mytilene|39.1|26.55", PlaceKey("Mytilene", c))
	assert.Equal(t, PlaceKey("Mytilene", c), PlaceKey("Mytilene", &model.Coordinates{Lat: 39.1, Lon: 26.55}))
	assert.Equal(t, "place|Mytilene||", PlaceKey("Mytilene", nil))
	assert.Equal(t, "person|Strabo|-0063|0024", PersonKey("Strabo", "-0063", "0024"))

	assert.Equal(t, "", KeyFor(model.Entity{Kind: model.KindEarthquake, Label: "x"}))
	assert.Equal(t, PersonKey("Strabo", "b", "d"), KeyFor(model.Entity{Kind: model.KindPerson, Label: "Strabo", Begin: "b", End: "d"}))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(0, time.Minute)
	require.NoError(t, c.Set("k", []byte("v"), 0))

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestFileCache_PersistsAcrossOpens(t *testing.T) {
	fs := afero.NewMemMapFs()

	c, err := NewFileCache(fs, "/cache/enrichment.json")
	require.NoError(t, err)
	require.NoError(t, c.Set("a", []byte(`{"label":"Chios"}`), 0))
	require.NoError(t, c.Set("b", []byte(`{"label":"Samos"}`), 0))

	reopened, err := NewFileCache(fs, "/cache/enrichment.json")
	require.NoError(t, err)
	v, ok := reopened.Get("a")
	require.True(t, ok)
	assert.JSONEq(t, `{"label":"Chios"}`, string(v))
	assert.Equal(t, 2, reopened.Len())
}

func TestFileCache_RejectsNonJSON(t *testing.T) {
	c, err := NewFileCache(afero.NewMemMapFs(), "cache.json")
	require.NoError(t, err)
	assert.ErrorIs(t, c.Set("k", []byte("not json"), 0), ErrNotJSON)
}

func TestFileCache_Expiry(t *testing.T) {
	c, err := NewFileCache(afero.NewMemMapFs(), "cache.json")
	require.NoError(t, err)
	require.NoError(t, c.Set("k", []byte(`1`), time.Nanosecond))
	time.Sleep(time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestFileCache_CorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "cache.json", []byte("{broken"), 0644))
	_, err := NewFileCache(fs, "cache.json")
	assert.Error(t, err)
}

func TestFileCache_Clear(t *testing.T) {
	fs := afero.NewMemMapFs()
	c, err := NewFileCache(fs, "cache.json")
	require.NoError(t, err)
	require.NoError(t, c.Set("k", []byte(`1`), 0))
	require.NoError(t, c.Clear())

	exists, err := afero.Exists(fs, "cache.json")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 0, c.Len())
}

func TestBadgerCache(t *testing.T) {
	c, err := NewBadgerCache("")
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	require.NoError(t, c.Set("k", []byte("v"), 0))
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, c.Delete("k"))
	require.NoError(t, c.Delete("missing"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestLayeredCache_PromotesDurableHits(t *testing.T) {
	memory := NewMemoryCache(0, time.Minute)
	durable, err := NewFileCache(afero.NewMemMapFs(), "cache.json")
	require.NoError(t, err)
	require.NoError(t, durable.Set("k", []byte(`"v"`), 0))

	layered := NewLayeredCache(memory, durable)
	_, ok := memory.Get("k")
	require.False(t, ok)

	v, ok := layered.Get("k")
	require.True(t, ok)
	assert.Equal(t, `"v"`, string(v))

	_, ok = memory.Get("k")
	assert.True(t, ok)
}

func TestEnrichmentCache_StoreLookup(t *testing.T) {
	c := NewEnrichmentCache(NewMemoryCache(0, time.Minute), nil)

	_, ok := c.Lookup("missing")
	assert.False(t, ok)

	rec := &model.EnrichmentRecord{Source: model.SourceGeoNames, ExternalID: "http://sws.geonames.org/256866/", Label: "Mytilene"}
	require.NoError(t, c.Store("k", rec))
	require.NoError(t, c.Store("k", rec))

	got, ok := c.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestEnrichmentCache_ConcurrentStores(t *testing.T) {
	fs := afero.NewMemMapFs()
	file, err := NewFileCache(fs, "cache.json")
	require.NoError(t, err)
	c := NewEnrichmentCache(file, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			assert.NoError(t, c.Store(key, &model.EnrichmentRecord{Label: key}))
			_, _ = c.Lookup(key)
		}(i)
	}
	wg.Wait()

	reopened, err := NewFileCache(fs, "cache.json")
	require.NoError(t, err)
	assert.Equal(t, 50, reopened.Len())
}

func TestOpen(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, backend := range []string{"memory", "file"} {
		c, err := Open(model.CacheConfig{Backend: backend, Path: "cache.json"}, fs, nil)
		require.NoError(t, err, backend)
		require.NoError(t, c.Store("k", &model.EnrichmentRecord{Label: "x"}))
		require.NoError(t, c.Close())
	}

	_, err := Open(model.CacheConfig{Backend: "redis"}, fs, nil)
	assert.Error(t, err)
}
