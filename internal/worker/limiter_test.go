package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 1 {
		t.Errorf("expected default burst 1 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://api.geonames.org/searchJSON"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	if err := limiter.Wait(ctx, "https://query.wikidata.org/sparql"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_HostDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	limiter.SetHostDelay("api.geonames.org", 50*time.Millisecond)

	start := time.Now()
	if err := limiter.Wait(context.Background(), "http://api.geonames.org/findNearbyJSON"); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if d := time.Since(start); d < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", d)
	}

	limiter.SetHostDelay("api.geonames.org", 0)
	if _, ok := limiter.delays["api.geonames.org"]; ok {
		t.Error("expected zero delay to clear the entry")
	}
}

func TestLimiter_HostDelayCancelled(t *testing.T) {
	limiter := NewLimiter(100, 1)
	limiter.SetHostDelay("slow.example", time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "http://slow.example/"); err == nil {
		t.Error("expected context error")
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	url := "http://api.geonames.org"

	if err := limiter.Wait(ctx, url); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// burst of 1 is used up
	if limiter.Allow(url) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	if !limiter.Allow("http://other.example") {
		t.Errorf("expected allow for other host")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	host := "query.wikidata.org"

	limiter.SetHostRate(host, 0.1, 1)

	if !limiter.Allow("https://" + host) {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("https://" + host) {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("http://fast.example") {
		t.Errorf("other host should pass")
	}
}

func TestHostOf(t *testing.T) {
	host, err := hostOf("http://api.geonames.org:80/searchJSON?q=Chios")
	if err != nil {
		t.Fatalf("hostOf failed: %v", err)
	}
	if host != "api.geonames.org:80" {
		t.Errorf("expected api.geonames.org:80, got %s", host)
	}

	if _, err := hostOf("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
}
