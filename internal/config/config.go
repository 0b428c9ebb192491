// Package config loads the runtime configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	// Reporting timezones must resolve on hosts without a zoneinfo database.
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds everything a run needs to know.
type Config struct {
	Owner            string
	Token            string
	Location         *time.Location
	OutputDir        string
	Windows          []int
	ActivitySource   string
	RateLimitMaxWait time.Duration
	HTTPTimeout      time.Duration
	// APIURL and GraphQLURL are set by GitHub Actions on Enterprise Server runners.
	APIURL     string
	GraphQLURL string
}

// Overrides are values set on the command line; empty fields keep the environment value.
type Overrides struct {
	Owner     string
	OutputDir string
	Timezone  string
	Windows   []int
	Source    string
}

// Load reads envFile into the process environment without overwriting variables
// that are already set, then builds a Config. A missing envFile is not an error.
func Load(envFile string, o Overrides) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Owner:          firstNonEmpty(o.Owner, os.Getenv("GITHUB_REPOSITORY_OWNER")),
		Token:          firstNonEmpty(os.Getenv("GH_TOKEN"), os.Getenv("GITHUB_TOKEN")),
		OutputDir:      firstNonEmpty(o.OutputDir, os.Getenv("OUTPUT_DIR"), "img"),
		ActivitySource: firstNonEmpty(o.Source, os.Getenv("ACTIVITY_STRATEGY"), "auto"),
		APIURL:         os.Getenv("GITHUB_API_URL"),
		GraphQLURL:     os.Getenv("GITHUB_GRAPHQL_URL"),
	}

	tz := firstNonEmpty(o.Timezone, os.Getenv("REPORT_TIMEZONE"), "Asia/Singapore")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	cfg.Windows = o.Windows
	if len(cfg.Windows) == 0 {
		if cfg.Windows, err = ParseWindows(firstNonEmpty(os.Getenv("ACTIVITY_WINDOWS"), "90,180,365")); err != nil {
			return nil, err
		}
	}
	for _, days := range cfg.Windows {
		if days <= 0 || days > 365 {
			return nil, fmt.Errorf("activity window of %d days is out of range (1-365)", days)
		}
	}

	if cfg.RateLimitMaxWait, err = durationEnv("RATE_LIMIT_MAX_WAIT", 0); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = durationEnv("HTTP_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireOwner reports an error when no target user is configured.
func (c *Config) RequireOwner() error {
	if c.Owner == "" {
		return errors.New("GITHUB_REPOSITORY_OWNER is required (set it in the environment, the .env file or with --owner)")
	}
	return nil
}

// ParseWindows parses a comma-separated list of window lengths in days.
func ParseWindows(s string) ([]int, error) {
	var windows []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		days, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid activity window %q: %w", part, err)
		}
		windows = append(windows, days)
	}
	if len(windows) == 0 {
		return nil, errors.New("at least one activity window is required")
	}
	return windows, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
