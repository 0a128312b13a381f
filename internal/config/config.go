// Package config provides configuration loading from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Tool output limit defaults
const (
	DefaultSearchLimitValue = 20
	DefaultQueryLimitValue  = 1000
)

// CohortEndpoint describes one cohort server.
type CohortEndpoint struct {
	Name    string
	BaseURL string
	Token   string
}

// Config holds all configuration for the fedsum library and MCP server.
type Config struct {
	Cohorts []CohortEndpoint // FEDSUM_COHORTS + FEDSUM_TOKEN_<NAME>

	HTTPClientTimeout time.Duration // FEDSUM_HTTP_TIMEOUT_MS, default 30000ms
	FetchWorkers      int           // FEDSUM_FETCH_WORKERS, default 8
	DictCacheMaxItems int           // FEDSUM_DICT_CACHE_MAX_ITEMS, default 256
	CatalogueStaleAge time.Duration // FEDSUM_CATALOGUE_STALE_MS, default 300000ms (5m)

	// Tool output limits
	DefaultSearchLimit int // FEDSUM_DEFAULT_SEARCH_LIMIT
	DefaultQueryLimit  int // FEDSUM_DEFAULT_QUERY_LIMIT

	// Logging configuration
	LogLevel      string // FEDSUM_LOG_LEVEL, default "info"
	LogFile       string // FEDSUM_LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // FEDSUM_LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // FEDSUM_LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // FEDSUM_LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // FEDSUM_LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Cohorts: parseCohorts(os.Getenv("FEDSUM_COHORTS")),

		HTTPClientTimeout: getEnvDurationMs("FEDSUM_HTTP_TIMEOUT_MS", 30000),
		FetchWorkers:      getEnvInt("FEDSUM_FETCH_WORKERS", 8),
		DictCacheMaxItems: getEnvInt("FEDSUM_DICT_CACHE_MAX_ITEMS", 256),
		CatalogueStaleAge: getEnvDurationMs("FEDSUM_CATALOGUE_STALE_MS", 300000),

		DefaultSearchLimit: getEnvInt("FEDSUM_DEFAULT_SEARCH_LIMIT", DefaultSearchLimitValue),
		DefaultQueryLimit:  getEnvInt("FEDSUM_DEFAULT_QUERY_LIMIT", DefaultQueryLimitValue),

		LogLevel:      getEnvString("FEDSUM_LOG_LEVEL", "info"),
		LogFile:       getEnvString("FEDSUM_LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("FEDSUM_LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("FEDSUM_LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("FEDSUM_LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("FEDSUM_LOG_COMPRESS", true),
	}
}

// parseCohorts parses FEDSUM_COHORTS, a comma-separated list of
// name=baseURL pairs, e.g.
//
//	FEDSUM_COHORTS="alspac=https://opal.alspac.example.org,ninfea=https://opal.ninfea.example.org"
//
// Per-cohort access tokens come from FEDSUM_TOKEN_<NAME> with the cohort
// name upper-cased, e.g. FEDSUM_TOKEN_ALSPAC.
func parseCohorts(raw string) []CohortEndpoint {
	if raw == "" {
		return nil
	}
	var cohorts []CohortEndpoint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, baseURL, ok := strings.Cut(part, "=")
		if !ok || name == "" || baseURL == "" {
			continue
		}
		cohorts = append(cohorts, CohortEndpoint{
			Name:    name,
			BaseURL: baseURL,
			Token:   os.Getenv(fmt.Sprintf("FEDSUM_TOKEN_%s", strings.ToUpper(name))),
		})
	}
	return cohorts
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
