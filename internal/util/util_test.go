package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUserAgent(t *testing.T) {
	assert.Equal(t, "quakelink", NormalizeUserAgent("quakelink/0.1 (+https://github.com/ppiankov/quakelink)"))
	assert.Equal(t, "bot", NormalizeUserAgent("bot"))
	assert.Equal(t, "", NormalizeUserAgent(""))
}

func TestRobotsChecker_CanFetch(t *testing.T) {
	var robotsHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			_, _ = fmt.Fprint(w, "User-agent: quakelink\nDisallow: /private\nCrawl-delay: 2\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker("quakelink/0.1", time.Second)
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/searchJSON")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2*time.Second, delay)

	allowed, _, err = checker.CanFetch(ctx, server.URL+"/private/x")
	require.NoError(t, err)
	assert.False(t, allowed)

	assert.Equal(t, int32(1), robotsHits.Load(), "robots.txt should be cached per host")

	checker.Clear()
	_, _, _ = checker.CanFetch(ctx, server.URL+"/searchJSON")
	assert.Equal(t, int32(2), robotsHits.Load())
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	checker := NewRobotsChecker("quakelink/0.1", time.Second)
	allowed, delay, err := checker.CanFetch(context.Background(), server.URL+"/anything")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, delay)
}

func TestRobotsChecker_BadURL(t *testing.T) {
	checker := NewRobotsChecker("quakelink", time.Second)
	_, _, err := checker.CanFetch(context.Background(), "::bad")
	assert.Error(t, err)
}

func TestNewProxyFunc(t *testing.T) {
	fn := NewProxyFunc("http://proxy.internal:3128", "http://secure-proxy.internal:3128", "api.geonames.org")

	req := &http.Request{URL: mustParse(t, "https://query.wikidata.org/sparql")}
	proxy, err := fn(req)
	require.NoError(t, err)
	require.NotNil(t, proxy)
	assert.Equal(t, "secure-proxy.internal:3128", proxy.Host)

	req = &http.Request{URL: mustParse(t, "http://example.org/sparql")}
	proxy, err = fn(req)
	require.NoError(t, err)
	require.NotNil(t, proxy)
	assert.Equal(t, "proxy.internal:3128", proxy.Host)

	req = &http.Request{URL: mustParse(t, "http://api.geonames.org/searchJSON")}
	proxy, err = fn(req)
	require.NoError(t, err)
	assert.Nil(t, proxy, "no_proxy host must bypass the proxy")
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
