// Package constants provides shared constants used throughout the gamemeta codebase.
// This includes timeouts, retry ceilings, matching thresholds, file permissions
// and other configuration defaults that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to provider APIs
	DefaultHTTPTimeout = 30 * time.Second

	// ShutdownTimeout bounds the final flush after the run context was cancelled
	ShutdownTimeout = 10 * time.Second

	// TokenExpiryLeeway is subtracted from an access token's lifetime before it is reused
	TokenExpiryLeeway = time.Minute

	// MetricsReadTimeout bounds reading a request to the metrics endpoint
	MetricsReadTimeout = 5 * time.Second
)

// Retry and backoff defaults for provider calls
const (
	// RateLimitBackoff is the delay before retrying a call that was rate limited
	RateLimitBackoff = 60 * time.Second

	// MaxRateLimitRetries is the number of consecutive rate-limited calls that aborts a run
	MaxRateLimitRetries = 3

	// RetryDelay is the delay before retrying an entity after a transport or protocol failure
	RetryDelay = 3 * time.Second

	// MaxRetries is the number of consecutive failures after which an entity is abandoned
	MaxRetries = 3

	// CourtesyDelay is slept after every provider call regardless of outcome
	CourtesyDelay = 1 * time.Second

	// DefaultRequestsPerSecond paces raw HTTP requests per provider
	DefaultRequestsPerSecond = 4.0
)

// Identity matching thresholds
const (
	// GoodRatio is the name similarity above which a candidate is a strong match
	GoodRatio = 0.90

	// MinRatio is the name similarity above which a candidate may be a weak match
	MinRatio = 0.65

	// MaxYearDrift is the largest release-year difference that still corroborates two dates
	MaxYearDrift = 1

	// ResumeFloor is the best-match score that must be exceeded to resume after a stored name
	ResumeFloor = 0.0
)

// Pipeline defaults
const (
	// SaveEveryNGames is the number of successfully reconciled entities per flush
	SaveEveryNGames = 10

	// SearchLimit is the number of candidates requested from each provider
	SearchLimit = 1

	// DefaultNameColumn is the work queue column holding game names
	DefaultNameColumn = "game_name"

	// DefaultOutputPath is the default output store
	DefaultOutputPath = "data/games.csv"

	// DefaultInputPath is the default work queue input
	DefaultInputPath = "data/reviews.csv"

	// DefaultProvenancePath is where the provenance command looks when no file is configured
	DefaultProvenancePath = "data/provenance.yaml"

	// DefaultSearchDisplayLimit is the number of candidates the search command requests
	DefaultSearchDisplayLimit = 5
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Format constants
const (
	// DateFormat is the canonical release date layout
	DateFormat = "2006-01-02"
)
