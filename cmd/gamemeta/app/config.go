package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/gamemeta/internal/sources/providers/baseclient"
	"github.com/agentstation/gamemeta/internal/sources/providers/gamespot"
	"github.com/agentstation/gamemeta/internal/sources/providers/igdb"
	"github.com/agentstation/gamemeta/internal/sources/providers/metacritic"
	"github.com/agentstation/gamemeta/internal/sources/providers/rawg"
	"github.com/agentstation/gamemeta/pkg/constants"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/sources"
)

// envPrefix namespaces the environment variables of the run settings.
// Provider credentials keep their conventional unprefixed names.
const envPrefix = "GAMEMETA"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Run configuration
	Input               string
	Column              string
	Output              string
	Sources             []string
	GoodRatio           float64
	MinRatio            float64
	RateLimitBackoff    time.Duration
	MaxRateLimitRetries int
	RetryDelay          time.Duration
	MaxRetries          int
	CourtesyDelay       time.Duration
	SaveEvery           int
	Concurrent          bool
	Provenance          string
	MetricsAddr         string
	RequestsPerSecond   float64

	// Provider credentials
	RAWGAPIKey       string
	IGDBClientID     string
	IGDBClientSecret string
	GameSpotAPIKey   string
	MetacriticAPIKey string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (parsed into the Config by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.gamemeta.yaml or ./.gamemeta.yaml)
// 5. Defaults from pkg/constants
func LoadConfig() (*Config, error) {
	loadEnvFiles()
	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	bindAPIKeys()

	if err := readConfigFile(viper.GetString("config")); err != nil {
		return nil, err
	}
	return configFromViper(), nil
}

// setDefaults registers the default of every run setting.
func setDefaults() {
	viper.SetDefault("input", constants.DefaultInputPath)
	viper.SetDefault("column", constants.DefaultNameColumn)
	viper.SetDefault("output", constants.DefaultOutputPath)
	viper.SetDefault("sources", sourceNames(sources.IDs()))
	viper.SetDefault("good_ratio", constants.GoodRatio)
	viper.SetDefault("min_ratio", constants.MinRatio)
	viper.SetDefault("rate_limit_backoff", constants.RateLimitBackoff)
	viper.SetDefault("max_rate_limit_retries", constants.MaxRateLimitRetries)
	viper.SetDefault("retry_delay", constants.RetryDelay)
	viper.SetDefault("max_retries", constants.MaxRetries)
	viper.SetDefault("courtesy_delay", constants.CourtesyDelay)
	viper.SetDefault("save_every", constants.SaveEveryNGames)
	viper.SetDefault("concurrent", false)
	viper.SetDefault("provenance", "")
	viper.SetDefault("metrics_addr", "")
	viper.SetDefault("requests_per_second", constants.DefaultRequestsPerSecond)
}

// readConfigFile reads path, or searches the standard locations when path
// is empty. Only a missing file in the standard locations is tolerated.
func readConfigFile(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return errors.NewConfigError("config", "cannot read "+path, err)
		}
		return nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetConfigName(".gamemeta")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.NewConfigError("config", "cannot parse config file", err)
	}
	return nil
}

// configFromViper builds a Config from the merged viper state.
func configFromViper() *Config {
	return &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),
		Format:  viper.GetString("format"),

		ConfigFile: viper.ConfigFileUsed(),

		Input:               viper.GetString("input"),
		Column:              viper.GetString("column"),
		Output:              viper.GetString("output"),
		Sources:             splitList(viper.GetStringSlice("sources")),
		GoodRatio:           viper.GetFloat64("good_ratio"),
		MinRatio:            viper.GetFloat64("min_ratio"),
		RateLimitBackoff:    viper.GetDuration("rate_limit_backoff"),
		MaxRateLimitRetries: viper.GetInt("max_rate_limit_retries"),
		RetryDelay:          viper.GetDuration("retry_delay"),
		MaxRetries:          viper.GetInt("max_retries"),
		CourtesyDelay:       viper.GetDuration("courtesy_delay"),
		SaveEvery:           viper.GetInt("save_every"),
		Concurrent:          viper.GetBool("concurrent"),
		Provenance:          viper.GetString("provenance"),
		MetricsAddr:         viper.GetString("metrics_addr"),
		RequestsPerSecond:   viper.GetFloat64("requests_per_second"),

		RAWGAPIKey:       viper.GetString(rawg.EnvAPIKey),
		IGDBClientID:     viper.GetString(igdb.EnvClientID),
		IGDBClientSecret: viper.GetString(igdb.EnvClientSecret),
		GameSpotAPIKey:   viper.GetString(gamespot.EnvAPIKey),
		MetacriticAPIKey: viper.GetString(metacritic.EnvAPIKey),

		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// Validate checks the run settings.
func (c *Config) Validate() error {
	switch {
	case c.GoodRatio <= 0 || c.GoodRatio > 1:
		return errors.NewValidationError("good_ratio", c.GoodRatio, "must be in (0, 1]")
	case c.MinRatio <= 0 || c.MinRatio > c.GoodRatio:
		return errors.NewValidationError("min_ratio", c.MinRatio, "must be in (0, good_ratio]")
	case c.MaxRetries < 1:
		return errors.NewValidationError("max_retries", c.MaxRetries, "must be at least 1")
	case c.MaxRateLimitRetries < 1:
		return errors.NewValidationError("max_rate_limit_retries", c.MaxRateLimitRetries, "must be at least 1")
	case c.SaveEvery < 1:
		return errors.NewValidationError("save_every", c.SaveEvery, "must be at least 1")
	case c.RateLimitBackoff < 0 || c.RetryDelay < 0 || c.CourtesyDelay < 0:
		return errors.NewValidationError("delay", nil, "delays cannot be negative")
	}
	_, err := c.SourceIDs()
	return err
}

// SourceIDs parses the configured sources.
func (c *Config) SourceIDs() ([]sources.ID, error) {
	return sources.ParseIDs(c.Sources)
}

// ProviderConfigs returns the client configuration of every source.
func (c *Config) ProviderConfigs() map[sources.ID]baseclient.Config {
	rps := c.RequestsPerSecond
	return map[sources.ID]baseclient.Config{
		sources.RAWG:       {APIKey: c.RAWGAPIKey, RequestsPerSecond: rps},
		sources.IGDB:       {APIKey: c.IGDBClientID, Secret: c.IGDBClientSecret, RequestsPerSecond: rps},
		sources.HLTB:       {RequestsPerSecond: rps},
		sources.GameSpot:   {APIKey: c.GameSpotAPIKey, RequestsPerSecond: rps},
		sources.Metacritic: {APIKey: c.MetacriticAPIKey, RequestsPerSecond: rps},
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// bindAPIKeys binds the provider credentials to their unprefixed variables.
func bindAPIKeys() {
	for _, key := range []string{
		rawg.EnvAPIKey,
		igdb.EnvClientID,
		igdb.EnvClientSecret,
		gamespot.EnvAPIKey,
		metacritic.EnvAPIKey,
	} {
		_ = viper.BindEnv(key, key)
	}
}

// splitList accepts both YAML lists and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func sourceNames(ids []sources.ID) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return names
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
