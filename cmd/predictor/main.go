package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/cypherlabdev/match-predictor/internal/artifact"
	"github.com/cypherlabdev/match-predictor/internal/cache"
	"github.com/cypherlabdev/match-predictor/internal/config"
	"github.com/cypherlabdev/match-predictor/internal/messaging"
	"github.com/cypherlabdev/match-predictor/internal/metrics"
	"github.com/cypherlabdev/match-predictor/internal/models"
	"github.com/cypherlabdev/match-predictor/internal/notify"
	"github.com/cypherlabdev/match-predictor/internal/oddsapi"
	"github.com/cypherlabdev/match-predictor/internal/report"
	"github.com/cypherlabdev/match-predictor/internal/service"
	"github.com/cypherlabdev/match-predictor/pkg/ranker"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(args, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	// .env goes first so its variables reach the config layer
	exported, envErr := config.LoadDotEnv(opts.envFile)

	cfg, cfgErr := config.LoadConfig(opts.configPath)
	if cfgErr != nil {
		cfg, err = config.LoadConfig("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load default config: %v\n", err)
			return exitError
		}
	}

	logger, closeLog := setupLogger(cfg.Logging)
	defer closeLog()

	switch {
	case envErr == nil:
		logger.Debug().Str("path", opts.envFile).Int("variables", exported).Msg("loaded env file")
	case errors.Is(envErr, os.ErrNotExist):
		logger.Debug().Str("path", opts.envFile).Msg("no env file")
	default:
		logger.Warn().Err(envErr).Str("path", opts.envFile).Msg("failed to load env file")
	}
	if cfgErr != nil {
		logger.Error().Err(cfgErr).Str("path", opts.configPath).Msg("failed to load config, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return exitError
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error().Err(err).Msg("invalid timezone")
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.upload != "" || opts.purgeRemote != "" {
		return runArtifactSync(ctx, cfg, opts, loc, logger)
	}

	leagues, err := selectLeagues(cfg, opts)
	if err != nil {
		logger.Error().Err(err).Msg("invalid sport selection")
		return exitUsage
	}
	days, err := windowDays(cfg, opts)
	if err != nil {
		logger.Error().Err(err).Msg("invalid --days")
		return exitUsage
	}

	logger.Info().
		Strs("leagues", leagues).
		Int("days", days).
		Msg("starting match-predictor")

	m := metrics.New()

	oddsCache, closeCache := newCache(ctx, cfg, loc, logger)
	defer closeCache()

	client := oddsapi.NewClient(
		oddsapi.ClientConfig{
			BaseURL: cfg.API.BaseURL,
			APIKey:  cfg.API.Key,
			Regions: cfg.API.Regions,
			Timeout: cfg.API.Timeout,
		},
		logger,
	)

	extractor := service.NewExtractor(
		oddsCache,
		client,
		m,
		service.ExtractorConfig{Location: loc},
		logger,
	)

	rk := ranker.NewRanker(cfg.ToRankingParams(), logger)

	sinks, closeSinks := buildSinks(cfg, loc, logger)
	defer closeSinks()

	predictionService := service.NewPredictionService(extractor, rk, sinks, m, logger)

	_, runErr := predictionService.Run(ctx, service.RunRequest{
		Leagues:    leagues,
		WindowDays: days,
	})
	if runErr != nil {
		logger.Error().Err(runErr).Msg("prediction run failed")
	}

	pushMetrics(m, cfg.Metrics, logger)

	if runErr != nil {
		return exitError
	}
	return exitOK
}

// setupLogger configures the logger based on config. The returned func
// closes the log file, if any.
func setupLogger(cfg config.LoggingConfig) (zerolog.Logger, func()) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	closer := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", cfg.File, err)
		} else {
			out = zerolog.MultiLevelWriter(out, f)
			closer = func() { f.Close() }
		}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	return log.Logger.With().Str("service", "match-predictor").Logger(), closer
}

// newCache builds the configured cache backend. An unreachable Redis falls
// back to the file cache.
func newCache(ctx context.Context, cfg *config.Config, loc *time.Location, logger zerolog.Logger) (service.Cache, func()) {
	fileCache := cache.NewFileCache(cache.FileCacheConfig{Dir: cfg.Cache.Dir, Location: loc}, logger)

	if cfg.Cache.Backend != "redis" {
		logger.Info().Str("dir", cfg.Cache.Dir).Msg("using file cache")
		return fileCache, func() {}
	}

	redisCache := cache.NewRedisCache(
		cache.RedisCacheConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			TTL:      cfg.Cache.Redis.TTL,
			Location: loc,
		},
		logger,
	)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisCache.Ping(pingCtx); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Cache.Redis.Addr).Msg("Redis unavailable, falling back to file cache")
		redisCache.Close()
		return fileCache, func() {}
	}

	logger.Info().Str("addr", cfg.Cache.Redis.Addr).Msg("connected to Redis")
	return redisCache, func() { redisCache.Close() }
}

// buildSinks assembles the enabled report sinks. A sink that cannot be
// initialized is logged and left out of the run.
func buildSinks(cfg *config.Config, loc *time.Location, logger zerolog.Logger) ([]service.Sink, func()) {
	var closers []func() error

	var echo io.Writer
	if cfg.Report.Stdout {
		echo = os.Stdout
	}
	sinks := []service.Sink{
		report.NewWriter(report.WriterConfig{Path: cfg.Report.Path, Echo: echo, Location: loc}, logger),
	}

	if cfg.Tips.Enabled {
		policy, err := report.ParseTipPolicy(cfg.Tips.Policy)
		if err != nil {
			logger.Error().Err(err).Msg("tip files disabled")
		} else {
			sinks = append(sinks, report.NewTipWriter(
				report.TipWriterConfig{
					Dir:             cfg.Tips.Dir,
					Templates:       cfg.Tips.TipTemplates(),
					DefaultTemplate: cfg.Tips.DefaultTemplate,
					Policy:          policy,
				},
				logger,
			))
		}
	}

	if cfg.Kafka.Enabled {
		publisher := messaging.NewKafkaPublisher(
			messaging.KafkaPublisherConfig{
				Brokers:      cfg.Kafka.Brokers,
				Topic:        cfg.Kafka.Topic,
				WriteTimeout: cfg.Kafka.WriteTimeout,
			},
			logger,
		)
		sinks = append(sinks, publisher)
		closers = append(closers, publisher.Close)
	}

	if cfg.Telegram.Enabled {
		notifier, err := notify.NewTelegramNotifier(
			notify.TelegramConfig{
				BotToken:   cfg.Telegram.BotToken,
				ChatID:     cfg.Telegram.ChatID,
				MaxMatches: cfg.Telegram.MaxMatches,
				Location:   loc,
			},
			logger,
		)
		if err != nil {
			logger.Error().Err(err).Msg("telegram notifications disabled")
		} else {
			sinks = append(sinks, notifier)
		}
	}

	names := make([]string, 0, len(sinks))
	for _, sink := range sinks {
		names = append(names, sink.Name())
	}
	logger.Info().Strs("sinks", names).Msg("sinks initialized")

	return sinks, func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				logger.Error().Err(err).Msg("failed to close sink")
			}
		}
	}
}

func pushMetrics(m *metrics.Metrics, cfg config.MetricsConfig, logger zerolog.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.Push(ctx, cfg.PushgatewayURL, cfg.Job); err != nil {
		logger.Error().Err(err).Str("url", cfg.PushgatewayURL).Msg("failed to push metrics")
		return
	}
	logger.Debug().Str("url", cfg.PushgatewayURL).Msg("metrics pushed")
}

// runArtifactSync handles --upload and --purge-remote. Purge runs before
// upload when both are given.
func runArtifactSync(ctx context.Context, cfg *config.Config, opts *options, loc *time.Location, logger zerolog.Logger) int {
	if cfg.Artifact.BaseURL == "" {
		logger.Error().Msg("artifact.base_url is not configured")
		return exitError
	}

	client := artifact.NewClient(
		artifact.ClientConfig{
			BaseURL: cfg.Artifact.BaseURL,
			APIKey:  cfg.Artifact.APIKey,
			Timeout: cfg.Artifact.Timeout,
		},
		logger,
	)

	if opts.purgeRemote != "" {
		sport, err := models.ParseSport(opts.purgeRemote)
		if err != nil {
			logger.Error().Err(err).Msg("invalid --purge-remote")
			return exitUsage
		}
		if err := client.DeleteAll(ctx, sport); err != nil {
			logger.Error().Err(err).Str("sport", string(sport)).Msg("remote purge failed")
			return exitError
		}
		logger.Info().Str("sport", string(sport)).Msg("remote artifacts deleted")
	}

	if opts.upload != "" {
		sport, err := models.ParseSport(opts.upload)
		if err != nil {
			logger.Error().Err(err).Msg("invalid --upload")
			return exitUsage
		}

		dir := cache.NewFileCache(cache.FileCacheConfig{Dir: cfg.Cache.Dir, Location: loc}, logger).SportDir(sport)
		uploaded, err := client.UploadDir(ctx, sport, dir)
		if err != nil {
			logger.Error().Err(err).Str("sport", string(sport)).Int("uploaded", uploaded).Msg("upload incomplete")
			return exitError
		}
		logger.Info().Str("sport", string(sport)).Int("uploaded", uploaded).Msg("cache uploaded")
	}

	return exitOK
}
