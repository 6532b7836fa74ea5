package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	Port            string
	Headless        bool
	ProxyURL        string
	UserAgent       string
	PhoneRegion     string
	SearchBaseURL   string
	MaxResults      int
	MaxReviews      int
	FollowContact   bool
	NavigateTimeout time.Duration
	ThinkTimeMin    time.Duration
	ThinkTimeMax    time.Duration
	// EmailDenylist extends the built-in invalid-email patterns. The
	// built-in boundary is heuristic, so deployments can widen it without
	// a code change.
	EmailDenylist   []string
	CallbackBaseURL string
	RateLimitScrape RateLimitConfig
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "9000"),
		Headless:        parseBool(getEnv("HEADLESS", "true")),
		ProxyURL:        os.Getenv("PROXY_URL"),
		UserAgent:       os.Getenv("USER_AGENT"),
		PhoneRegion:     getEnv("PHONE_REGION", "ID"),
		SearchBaseURL:   getEnv("SEARCH_BASE_URL", "https://www.google.com/maps/search/"),
		MaxResults:      parseInt(getEnv("MAX_RESULTS", "50")),
		MaxReviews:      parseInt(getEnv("MAX_REVIEWS", "30")),
		FollowContact:   parseBool(getEnv("FOLLOW_CONTACT_PAGE", "true")),
		NavigateTimeout: parseDuration(getEnv("NAV_TIMEOUT", "30s"), 30*time.Second),
		ThinkTimeMin:    parseDuration(getEnv("THINK_TIME_MIN", "600ms"), 600*time.Millisecond),
		ThinkTimeMax:    parseDuration(getEnv("THINK_TIME_MAX", "2200ms"), 2200*time.Millisecond),
		EmailDenylist:   splitList(os.Getenv("EMAIL_DENYLIST")),
		CallbackBaseURL: os.Getenv("CALLBACK_BASE_URL"),
	}

	if cfg.MaxResults <= 0 {
		return nil, fmt.Errorf("MAX_RESULTS must be positive")
	}
	if cfg.ThinkTimeMax < cfg.ThinkTimeMin {
		return nil, fmt.Errorf("THINK_TIME_MAX must not be below THINK_TIME_MIN")
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_SCRAPE", "5/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SCRAPE value: %w", err)
	}
	cfg.RateLimitScrape = rl

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil {
		return fallback
	}
	return d
}

func parseBool(input string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(input))
	if err != nil {
		return true
	}
	return b
}

func parseInt(input string) int {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0
	}
	return n
}

func splitList(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
