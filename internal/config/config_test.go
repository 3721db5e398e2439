package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

func writeConfig(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadConfig_Defaults tests loading configuration with default values
func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig("")

	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Empty(t, config.AllLeagues())
	assert.Equal(t, 1, config.DefaultDays)
	assert.Equal(t, 5, config.NumberOfMatches)

	assert.Equal(t, "https://api.the-odds-api.com/v4", config.API.BaseURL)
	assert.Equal(t, "eu", config.API.Regions)
	assert.Equal(t, 30*time.Second, config.API.Timeout)

	assert.Equal(t, "file", config.Cache.Backend)
	assert.Equal(t, "data/cache", config.Cache.Dir)
	assert.Equal(t, 48*time.Hour, config.Cache.Redis.TTL)

	assert.Equal(t, 1.0, config.Ranking.Threshold)
	assert.Equal(t, "output.txt", config.Report.Path)

	assert.True(t, config.Tips.Enabled)
	assert.Equal(t, "all", config.Tips.Policy)
	assert.Equal(t, "templates/basketball.txt", config.Tips.Templates["basketball"])

	assert.False(t, config.Kafka.Enabled)
	assert.Equal(t, "match_predictions", config.Kafka.Topic)
	assert.False(t, config.Telegram.Enabled)
	assert.Equal(t, "match_predictor", config.Metrics.Job)

	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)

	assert.NoError(t, config.Validate())
}

// TestLoadConfig_HistoricalJSON tests the flat config.json layout
func TestLoadConfig_HistoricalJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"football": ["soccer_epl", "soccer_spain_la_liga"],
		"basketball": ["basketball_nba"],
		"hockey": ["icehockey_nhl"],
		"default_days": 3,
		"number_of_matches": -1
	}`)

	config, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"soccer_epl", "soccer_spain_la_liga"}, config.LeaguesFor(models.SportFootball))
	assert.Equal(t, []string{"basketball_nba"}, config.LeaguesFor(models.SportBasketball))
	assert.Empty(t, config.LeaguesFor(models.SportCricket))
	assert.Equal(t, []string{"soccer_epl", "soccer_spain_la_liga", "basketball_nba", "icehockey_nhl"}, config.AllLeagues())
	assert.Equal(t, 3, config.DefaultDays)
	assert.Equal(t, -1, config.ToRankingParams().TopN)
}

// TestLoadConfig_NestedSections tests the extended sections
func TestLoadConfig_NestedSections(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"api": {"timeout": "5s"},
		"cache": {"backend": "redis", "redis": {"addr": "redis:6379", "ttl": "24h"}},
		"ranking": {"threshold": 0.5},
		"tips": {"policy": "confident", "templates": {"hockey": "templates/hockey.txt"}},
		"kafka": {"enabled": true, "brokers": ["kafka:9092"]},
		"logging": {"format": "console", "file": "log_file.log"}
	}`)

	config, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, config.API.Timeout)
	assert.Equal(t, "redis", config.Cache.Backend)
	assert.Equal(t, "redis:6379", config.Cache.Redis.Addr)
	assert.Equal(t, 24*time.Hour, config.Cache.Redis.TTL)
	assert.Equal(t, "0.5", config.ToRankingParams().Threshold.String())
	assert.Equal(t, "confident", config.Tips.Policy)
	assert.Equal(t, "templates/hockey.txt", config.Tips.TipTemplates()[models.SportHockey])
	assert.Equal(t, []string{"kafka:9092"}, config.Kafka.Brokers)
	assert.Equal(t, "log_file.log", config.Logging.File)
	assert.NoError(t, config.Validate())
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.json")

	assert.Error(t, err)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := writeConfig(t, "config.json", `{"football": [`)

	_, err := LoadConfig(path)

	assert.Error(t, err)
}

// TestLoadConfig_EnvironmentVariables tests env overrides and secret names
func TestLoadConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("MATCH_PREDICTOR_DEFAULT_DAYS", "4")
	t.Setenv("MATCH_PREDICTOR_LOGGING_LEVEL", "debug")
	t.Setenv("THE_ODDS_API_KEY", "odds-secret")
	t.Setenv("API_KEY", "artifact-secret")

	config, err := LoadConfig("")

	require.NoError(t, err)
	assert.Equal(t, 4, config.DefaultDays)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "odds-secret", config.API.Key)
	assert.Equal(t, "artifact-secret", config.Artifact.APIKey)
}

func TestLoadConfig_PrefixedKeyWins(t *testing.T) {
	t.Setenv("MATCH_PREDICTOR_API_KEY", "prefixed")
	t.Setenv("THE_ODDS_API_KEY", "plain")

	config, err := LoadConfig("")

	require.NoError(t, err)
	assert.Equal(t, "prefixed", config.API.Key)
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("THE_ODDS_API_KEY", "stale")
	path := writeConfig(t, ".env", "THE_ODDS_API_KEY=from-dotenv\nMATCH_PREDICTOR_TIPS_POLICY=confident\n")
	t.Cleanup(func() { os.Unsetenv("MATCH_PREDICTOR_TIPS_POLICY") })

	n, err := LoadDotEnv(path)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "from-dotenv", os.Getenv("THE_ODDS_API_KEY"))

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", config.API.Key)
	assert.Equal(t, "confident", config.Tips.Policy)
}

func TestLoadDotEnv_Missing(t *testing.T) {
	_, err := LoadDotEnv(filepath.Join(t.TempDir(), ".env"))

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative days", func(c *Config) { c.DefaultDays = -1 }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"negative threshold", func(c *Config) { c.Ranking.Threshold = -0.5 }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.Redis.Addr = "" }},
		{"bad tip policy", func(c *Config) { c.Tips.Policy = "some" }},
		{"unknown template sport", func(c *Config) { c.Tips.Templates["curling"] = "x.txt" }},
		{"kafka without topic", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Topic = "" }},
		{"telegram without token", func(c *Config) { c.Telegram.Enabled = true; c.Telegram.ChatID = "1" }},
		{"telegram without chat", func(c *Config) { c.Telegram.Enabled = true; c.Telegram.BotToken = "t" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfig("")
			require.NoError(t, err)

			tt.mutate(config)

			assert.Error(t, config.Validate())
		})
	}
}

func TestLocation(t *testing.T) {
	config := &Config{}
	loc, err := config.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	config.Timezone = "UTC"
	loc, err = config.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}
