package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/gamemeta/pkg/constants"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/sources"
)

// resetViper isolates a test from the global viper state.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadConfigDefaults(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultInputPath, config.Input)
	assert.Equal(t, constants.DefaultNameColumn, config.Column)
	assert.Equal(t, constants.DefaultOutputPath, config.Output)
	assert.Equal(t, []string{"rawg", "igdb", "hltb", "gamespot", "metacritic"}, config.Sources)
	assert.Equal(t, constants.GoodRatio, config.GoodRatio)
	assert.Equal(t, constants.MinRatio, config.MinRatio)
	assert.Equal(t, constants.RateLimitBackoff, config.RateLimitBackoff)
	assert.Equal(t, constants.MaxRetries, config.MaxRetries)
	assert.Equal(t, constants.SaveEveryNGames, config.SaveEvery)
	assert.Equal(t, "auto", config.LogFormat)
	assert.NoError(t, config.Validate())
}

func TestLoadConfigEnvironment(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())
	t.Setenv("GAMEMETA_SAVE_EVERY", "25")
	t.Setenv("GAMEMETA_SOURCES", "rawg,igdb")
	t.Setenv("GAMEMETA_RETRY_DELAY", "500ms")
	t.Setenv("GAMEMETA_CONCURRENT", "true")
	t.Setenv("RAWG_API_KEY", "rawg-key")
	t.Setenv("IGDB_CLIENT_ID", "client")
	t.Setenv("IGDB_CLIENT_SECRET", "secret")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 25, config.SaveEvery)
	assert.Equal(t, []string{"rawg", "igdb"}, config.Sources)
	assert.Equal(t, 500*time.Millisecond, config.RetryDelay)
	assert.True(t, config.Concurrent)
	assert.Equal(t, "rawg-key", config.RAWGAPIKey)

	providers := config.ProviderConfigs()
	assert.Equal(t, "client", providers[sources.IGDB].APIKey)
	assert.Equal(t, "secret", providers[sources.IGDB].Secret)
	assert.Equal(t, constants.DefaultRequestsPerSecond, providers[sources.HLTB].RequestsPerSecond)
}

func TestLoadConfigDotEnv(t *testing.T) {
	resetViper(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GAMESPOT_API_KEY=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("GAMESPOT_API_KEY") })

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", config.GameSpotAPIKey)
}

func TestReadConfigFile(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())
	setDefaults()

	path := filepath.Join(t.TempDir(), "gamemeta.yaml")
	content := `input: queue.csv
column: title
sources:
  - hltb
  - rawg
good_ratio: 0.95
courtesy_delay: 2s
metrics_addr: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, readConfigFile(path))

	config := configFromViper()
	assert.Equal(t, "queue.csv", config.Input)
	assert.Equal(t, "title", config.Column)
	assert.Equal(t, []string{"hltb", "rawg"}, config.Sources)
	assert.Equal(t, 0.95, config.GoodRatio)
	assert.Equal(t, 2*time.Second, config.CourtesyDelay)
	assert.Equal(t, ":9090", config.MetricsAddr)
	assert.Equal(t, path, config.ConfigFile)
	assert.Equal(t, constants.DefaultOutputPath, config.Output, "unset keys keep their defaults")
}

func TestReadConfigFileMissing(t *testing.T) {
	resetViper(t)
	err := readConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	var configErr *errors.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			GoodRatio:           0.9,
			MinRatio:            0.65,
			MaxRetries:          3,
			MaxRateLimitRetries: 3,
			SaveEvery:           10,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"good ratio above one", func(c *Config) { c.GoodRatio = 1.2 }, "good_ratio"},
		{"min ratio above good ratio", func(c *Config) { c.MinRatio = 0.95 }, "min_ratio"},
		{"no retries", func(c *Config) { c.MaxRetries = 0 }, "max_retries"},
		{"no rate limit retries", func(c *Config) { c.MaxRateLimitRetries = 0 }, "max_rate_limit_retries"},
		{"zero batch", func(c *Config) { c.SaveEvery = 0 }, "save_every"},
		{"negative delay", func(c *Config) { c.RetryDelay = -time.Second }, "delay"},
		{"unknown source", func(c *Config) { c.Sources = []string{"rawg", "steam"} }, "sources"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *errors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUpdateFromFlags(t *testing.T) {
	c := &Config{Format: "json", LogLevel: "warn"}
	c.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, c.Verbose)
	assert.True(t, c.NoColor)
	assert.Equal(t, "json", c.Format, "empty flag keeps the configured format")
	assert.Equal(t, "warn", c.LogLevel)

	c.UpdateFromFlags(false, false, false, "yaml", "debug")
	assert.Equal(t, "yaml", c.Format)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestConfigFlag(t *testing.T) {
	assert.Equal(t, "a.yaml", configFlag([]string{"run", "--config", "a.yaml"}))
	assert.Equal(t, "b.yaml", configFlag([]string{"--config=b.yaml", "records"}))
	assert.Equal(t, "", configFlag([]string{"run", "--", "--config", "c.yaml"}))
	assert.Equal(t, "", configFlag([]string{"run", "--config"}))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"rawg", "igdb", "hltb"}, splitList([]string{"rawg, igdb", "hltb", " "}))
	assert.Nil(t, splitList(nil))
}
