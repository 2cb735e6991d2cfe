// Package configs provides application configuration loaded from environment variables.
// All configuration is externalized via environment variables for 12-factor app compliance.
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the fetch tunables. These mirror the settings the import has
// always run with; override them per environment when needed.
const (
	DefaultPageSize          = 1000
	DefaultMaxPages          = 300
	DefaultMaxRetries        = 5
	DefaultRequestTimeout    = 10 * time.Second
	DefaultBackoff           = 2 * time.Second
	DefaultRequestsPerSecond = 0 // 0 disables client-side rate limiting
)

// FailurePolicy controls what happens when a transactions page exhausts its
// retry budget.
type FailurePolicy string

const (
	// PolicyTruncate ends pagination and keeps everything fetched so far.
	PolicyTruncate FailurePolicy = "truncate"

	// PolicyAbort fails the whole run on an incomplete page.
	PolicyAbort FailurePolicy = "abort"
)

// LoadStrategy selects how record sets are written into their tables.
type LoadStrategy string

const (
	// StrategyAppend inserts rows, skipping primary-key conflicts.
	StrategyAppend LoadStrategy = "append"

	// StrategyReplace clears each table before inserting the new record set.
	StrategyReplace LoadStrategy = "replace"
)

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad().
type AppConfig struct {
	// APIBaseURL is the root of the ZYLYTY admin API.
	APIBaseURL string

	// AdminAPIKey is the bearer credential for all API requests.
	AdminAPIKey string

	// DBDSN is the Postgres connection string built from the DB_* variables.
	DBDSN string

	// Fetch contains settings for the paginated fetcher.
	Fetch FetchConfig

	// LoadStrategy selects append vs replace loading.
	LoadStrategy LoadStrategy

	// MigrateOnStart runs the schema migrations before importing.
	MigrateOnStart bool
}

// FetchConfig holds settings for the paginated fetcher.
type FetchConfig struct {
	// PageSize is the number of records requested per transactions page.
	PageSize int

	// MaxPages is the hard upper bound on page indexes, guaranteeing the
	// fetch terminates even against a server that never signals completion.
	MaxPages int

	// MaxRetries is the attempt budget per page.
	MaxRetries int

	// RequestTimeout bounds each individual HTTP request.
	RequestTimeout time.Duration

	// Backoff is the fixed delay between a failed attempt and its retry.
	Backoff time.Duration

	// RequestsPerSecond caps the request rate against the API. Zero means
	// unlimited.
	RequestsPerSecond float64

	// FailurePolicy is applied when a page exhausts its retries.
	FailurePolicy FailurePolicy
}

// AppLoad loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development) and fails
// fast, naming every missing required variable, before any network or
// database call is attempted.
func AppLoad() (*AppConfig, error) {
	_ = godotenv.Load() // Ignore error - .env is optional

	var missing []string
	required := func(key string) string {
		value, exists := os.LookupEnv(key)
		if !exists || value == "" {
			missing = append(missing, key)
		}
		return value
	}

	apiBaseURL := required("API_BASE_URL")
	adminAPIKey := required("ADMIN_API_KEY")
	dbHost := required("DB_HOST")
	dbPort := required("DB_PORT")
	dbUsername := required("DB_USERNAME")
	dbPassword := required("DB_PASSWORD")
	dbName := required("DB_NAME")

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	policy := FailurePolicy(getEnv("ETL_FETCH_FAILURE_POLICY", string(PolicyTruncate)))
	if policy != PolicyTruncate && policy != PolicyAbort {
		return nil, fmt.Errorf("invalid ETL_FETCH_FAILURE_POLICY %q (want %q or %q)", policy, PolicyTruncate, PolicyAbort)
	}

	strategy := LoadStrategy(getEnv("ETL_LOAD_STRATEGY", string(StrategyAppend)))
	if strategy != StrategyAppend && strategy != StrategyReplace {
		return nil, fmt.Errorf("invalid ETL_LOAD_STRATEGY %q (want %q or %q)", strategy, StrategyAppend, StrategyReplace)
	}

	return &AppConfig{
		APIBaseURL:  strings.TrimRight(apiBaseURL, "/"),
		AdminAPIKey: adminAPIKey,
		DBDSN: fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			dbUsername, dbPassword, dbHost, dbPort, dbName,
		),
		Fetch: FetchConfig{
			PageSize:          getEnvInt("ETL_PAGE_SIZE", DefaultPageSize),
			MaxPages:          getEnvInt("ETL_MAX_PAGES", DefaultMaxPages),
			MaxRetries:        getEnvInt("ETL_MAX_RETRIES", DefaultMaxRetries),
			RequestTimeout:    getEnvDuration("ETL_REQUEST_TIMEOUT", DefaultRequestTimeout),
			Backoff:           getEnvDuration("ETL_RETRY_BACKOFF", DefaultBackoff),
			RequestsPerSecond: getEnvFloat("ETL_REQUESTS_PER_SECOND", DefaultRequestsPerSecond),
			FailurePolicy:     policy,
		},
		LoadStrategy:   strategy,
		MigrateOnStart: getEnvBool("ETL_MIGRATE_ON_START", true),
	}, nil
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvFloat returns the environment variable as float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvDuration returns the environment variable as a duration ("10s",
// "500ms") or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
