package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "HEADLESS", "PROXY_URL", "USER_AGENT", "PHONE_REGION",
		"SEARCH_BASE_URL", "MAX_RESULTS", "MAX_REVIEWS", "FOLLOW_CONTACT_PAGE",
		"NAV_TIMEOUT", "THINK_TIME_MIN", "THINK_TIME_MAX", "EMAIL_DENYLIST",
		"CALLBACK_BASE_URL", "RATE_LIMIT_SCRAPE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" || !cfg.Headless || cfg.PhoneRegion != "ID" {
		t.Fatalf("unexpected config values: %+v", cfg)
	}
	if cfg.MaxResults != 50 || cfg.MaxReviews != 30 {
		t.Fatalf("unexpected default limits: %d, %d", cfg.MaxResults, cfg.MaxReviews)
	}
	if cfg.NavigateTimeout != 30*time.Second {
		t.Fatalf("expected 30s navigate timeout, got %s", cfg.NavigateTimeout)
	}
	if cfg.RateLimitScrape.Requests != 5 || cfg.RateLimitScrape.Interval != time.Minute {
		t.Fatalf("unexpected rate limit config: %+v", cfg.RateLimitScrape)
	}
	if cfg.EmailDenylist != nil {
		t.Fatalf("expected empty denylist, got %v", cfg.EmailDenylist)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8088")
	t.Setenv("HEADLESS", "false")
	t.Setenv("PHONE_REGION", "US")
	t.Setenv("MAX_RESULTS", "120")
	t.Setenv("EMAIL_DENYLIST", "Spam.example, @tracking.example")
	t.Setenv("RATE_LIMIT_SCRAPE", "2/hour")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8088" || cfg.Headless || cfg.PhoneRegion != "US" || cfg.MaxResults != 120 {
		t.Fatalf("unexpected config values: %+v", cfg)
	}
	if len(cfg.EmailDenylist) != 2 || cfg.EmailDenylist[0] != "spam.example" || cfg.EmailDenylist[1] != "@tracking.example" {
		t.Fatalf("expected lowercased trimmed denylist, got %v", cfg.EmailDenylist)
	}
	if cfg.RateLimitScrape.Requests != 2 || cfg.RateLimitScrape.Interval != time.Hour {
		t.Fatalf("unexpected rate limit config: %+v", cfg.RateLimitScrape)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_RESULTS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-positive MAX_RESULTS")
	}

	clearEnv(t)
	t.Setenv("THINK_TIME_MIN", "2s")
	t.Setenv("THINK_TIME_MAX", "1s")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for inverted think-time bounds")
	}

	clearEnv(t)
	t.Setenv("RATE_LIMIT_SCRAPE", "xyz")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid rate limit")
	}
}

func TestParseRateLimit(t *testing.T) {
	cfg, err := parseRateLimit("5/sec")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Requests != 5 || cfg.Interval != time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if _, err := parseRateLimit("bad-format"); err == nil {
		t.Fatalf("expected error for malformed value")
	}
	if _, err := parseRateLimit("0/min"); err == nil {
		t.Fatalf("expected error for zero requests")
	}
	if _, err := parseRateLimit("5/day"); err == nil {
		t.Fatalf("expected error for unsupported unit")
	}
}

func TestGetEnv(t *testing.T) {
	os.Unsetenv("FOO")
	if val := getEnv("FOO", "fallback"); val != "fallback" {
		t.Fatalf("expected fallback, got %s", val)
	}
	t.Setenv("FOO", "value")
	if val := getEnv("FOO", "fallback"); val != "value" {
		t.Fatalf("expected env value, got %s", val)
	}
}

func TestParseDuration(t *testing.T) {
	if parseDuration("3h", time.Minute) != 3*time.Hour {
		t.Fatalf("expected 3h duration")
	}
	if parseDuration("invalid", time.Minute) != time.Minute {
		t.Fatalf("expected fallback duration")
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	got := splitList(" A.example ,, b.example ")
	if len(got) != 2 || got[0] != "a.example" || got[1] != "b.example" {
		t.Fatalf("unexpected list: %v", got)
	}
}
