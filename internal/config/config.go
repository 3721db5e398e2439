package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

// Config holds all configuration for match-predictor. League lists and the
// run defaults sit at the top level, as in the historical config.json.
type Config struct {
	Football   []string `mapstructure:"football"`
	Basketball []string `mapstructure:"basketball"`
	Hockey     []string `mapstructure:"hockey"`
	Cricket    []string `mapstructure:"cricket"`

	DefaultDays     int    `mapstructure:"default_days"`
	NumberOfMatches int    `mapstructure:"number_of_matches"` // negative = unbounded
	Timezone        string `mapstructure:"timezone"`          // IANA name, empty = local

	API      APIConfig      `mapstructure:"api"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Ranking  RankingConfig  `mapstructure:"ranking"`
	Report   ReportConfig   `mapstructure:"report"`
	Tips     TipsConfig     `mapstructure:"tips"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Artifact ArtifactConfig `mapstructure:"artifact"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// APIConfig holds odds provider configuration
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Key     string        `mapstructure:"key"`
	Regions string        `mapstructure:"regions"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig selects and configures the payload cache
type CacheConfig struct {
	Backend string      `mapstructure:"backend"` // file, redis
	Dir     string      `mapstructure:"dir"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RankingConfig holds the classification policy
type RankingConfig struct {
	Threshold float64 `mapstructure:"threshold"` // confident iff score <= threshold
}

// ReportConfig holds report file configuration
type ReportConfig struct {
	Path   string `mapstructure:"path"`
	Stdout bool   `mapstructure:"stdout"`
}

// TipsConfig holds tip file configuration
type TipsConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	Dir             string            `mapstructure:"dir"`
	Policy          string            `mapstructure:"policy"` // all, confident
	DefaultTemplate string            `mapstructure:"default_template"`
	Templates       map[string]string `mapstructure:"templates"` // sport -> template path
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"` // Topic to publish predictions to
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BotToken   string `mapstructure:"bot_token"`
	ChatID     string `mapstructure:"chat_id"`
	MaxMatches int    `mapstructure:"max_matches"`
}

// MetricsConfig holds Pushgateway configuration; an empty URL disables pushing
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// ArtifactConfig holds the remote artifact store used by --upload and --purge-remote
type ArtifactConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	File   string `mapstructure:"file"`   // optional append-only log file
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvPrefix("MATCH_PREDICTOR")
	v.AutomaticEnv()
	// Replace . with _ for environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Well-known secret names
	bindEnv(v, "api.key", "MATCH_PREDICTOR_API_KEY", "THE_ODDS_API_KEY")
	bindEnv(v, "artifact.api_key", "MATCH_PREDICTOR_ARTIFACT_API_KEY", "API_KEY")
	bindEnv(v, "telegram.bot_token", "MATCH_PREDICTOR_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("football", []string{})
	v.SetDefault("basketball", []string{})
	v.SetDefault("hockey", []string{})
	v.SetDefault("cricket", []string{})
	v.SetDefault("default_days", 1)
	v.SetDefault("number_of_matches", 5)
	v.SetDefault("timezone", "")

	v.SetDefault("api.base_url", "https://api.the-odds-api.com/v4")
	v.SetDefault("api.key", "")
	v.SetDefault("api.regions", "eu")
	v.SetDefault("api.timeout", 30*time.Second)

	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", "data/cache")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.ttl", 48*time.Hour)

	v.SetDefault("ranking.threshold", 1.0)

	v.SetDefault("report.path", "output.txt")
	v.SetDefault("report.stdout", false)

	v.SetDefault("tips.enabled", true)
	v.SetDefault("tips.dir", "tips")
	v.SetDefault("tips.policy", "all")
	v.SetDefault("tips.default_template", "templates/football.txt")
	v.SetDefault("tips.templates", map[string]string{
		"football":   "templates/football.txt",
		"basketball": "templates/basketball.txt",
	})

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "match_predictions")
	v.SetDefault("kafka.write_timeout", 10*time.Second)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_matches", 10)

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "match_predictor")

	v.SetDefault("artifact.base_url", "")
	v.SetDefault("artifact.api_key", "")
	v.SetDefault("artifact.timeout", 60*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
}

func bindEnv(v *viper.Viper, key string, names ...string) {
	// only errors on an empty key
	_ = v.BindEnv(append([]string{key}, names...)...)
}

// LoadDotEnv exports the KEY=value pairs of a .env file into the process
// environment, overriding variables that are already set. It returns the
// number of variables exported.
func LoadDotEnv(path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return 0, fmt.Errorf("failed to read env file: %w", err)
	}

	keys := v.AllKeys()
	for _, key := range keys {
		if err := os.Setenv(strings.ToUpper(key), v.GetString(key)); err != nil {
			return 0, fmt.Errorf("failed to export %s: %w", key, err)
		}
	}
	return len(keys), nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.DefaultDays < 0 {
		return fmt.Errorf("default_days must not be negative")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.Ranking.Threshold < 0 {
		return fmt.Errorf("ranking.threshold must not be negative")
	}

	switch c.Cache.Backend {
	case "file":
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir is required for the file backend")
		}
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be file or redis, got %q", c.Cache.Backend)
	}

	if c.Tips.Enabled {
		switch strings.ToLower(c.Tips.Policy) {
		case "all", "confident":
		default:
			return fmt.Errorf("tips.policy must be all or confident, got %q", c.Tips.Policy)
		}
		for sport := range c.Tips.Templates {
			if _, err := models.ParseSport(sport); err != nil {
				return fmt.Errorf("tips.templates: %w", err)
			}
		}
	}

	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka.brokers and kafka.topic are required when kafka is enabled")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// LeaguesFor returns the configured leagues of one sport
func (c *Config) LeaguesFor(sport models.Sport) []string {
	switch sport {
	case models.SportFootball:
		return c.Football
	case models.SportBasketball:
		return c.Basketball
	case models.SportHockey:
		return c.Hockey
	case models.SportCricket:
		return c.Cricket
	default:
		return nil
	}
}

// AllLeagues returns every configured league, sport by sport
func (c *Config) AllLeagues() []string {
	var leagues []string
	for _, sport := range models.AllSports() {
		leagues = append(leagues, c.LeaguesFor(sport)...)
	}
	return leagues
}

// Location resolves the calendar used for cache freshness and date windows
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ToRankingParams converts config to ranking parameters
func (c *Config) ToRankingParams() models.RankingParams {
	return models.RankingParams{
		Threshold: decimal.NewFromFloat(c.Ranking.Threshold),
		TopN:      c.NumberOfMatches,
	}
}

// TipTemplates maps configured template paths to sports
func (c *TipsConfig) TipTemplates() map[models.Sport]string {
	templates := make(map[models.Sport]string, len(c.Templates))
	for name, path := range c.Templates {
		if sport, err := models.ParseSport(name); err == nil {
			templates[sport] = path
		}
	}
	return templates
}
