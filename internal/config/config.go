package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultFundAPIBase    = "http://fundgz.1234567.com.cn"
	defaultFundSearchBase = "https://fundsuggest.eastmoney.com"
)

// Config holds process configuration. Load reads it once at startup; nothing
// else in the service touches the environment.
type Config struct {
	PostgresURL    string
	JWTSecret      string
	Port           string
	FundAPIBase    string
	FundSearchBase string
	FetchTimeout   time.Duration
	// FetchConcurrency caps in-flight market fetches per request.
	// Zero means unbounded fan-out.
	FetchConcurrency int
}

func Load() (Config, error) {
	cfg := Config{
		PostgresURL:      os.Getenv("POSTGRES_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		Port:             envDefault("PORT", "8080"),
		FundAPIBase:      envDefault("FUND_API_BASE", defaultFundAPIBase),
		FundSearchBase:   envDefault("FUND_SEARCH_BASE", defaultFundSearchBase),
		FetchTimeout:     3 * time.Second,
		FetchConcurrency: 0,
	}

	if v := os.Getenv("FETCH_TIMEOUT_SECONDS"); v != "" {
		if iv, err := strconv.Atoi(v); err == nil && iv > 0 {
			cfg.FetchTimeout = time.Duration(iv) * time.Second
		}
	}
	if v := os.Getenv("FETCH_CONCURRENCY"); v != "" {
		if iv, err := strconv.Atoi(v); err == nil && iv > 0 {
			cfg.FetchConcurrency = iv
		}
	}

	var missing []string
	if cfg.PostgresURL == "" {
		missing = append(missing, "POSTGRES_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
