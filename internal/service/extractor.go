package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/match-predictor/internal/metrics"
	"github.com/cypherlabdev/match-predictor/internal/models"
)

// Extractor turns league payloads into normalized matches inside a date window
type Extractor struct {
	cache    Cache
	fetcher  Fetcher
	metrics  *metrics.Metrics
	location *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// ExtractorConfig holds the calendar used for windowing
type ExtractorConfig struct {
	Location *time.Location // defaults to time.Local
	Now      func() time.Time
}

// NewExtractor creates a new match extractor. A nil m records into a private
// registry.
func NewExtractor(
	cache Cache,
	fetcher Fetcher,
	m *metrics.Metrics,
	config ExtractorConfig,
	logger zerolog.Logger,
) *Extractor {
	loc := config.Location
	if loc == nil {
		loc = time.Local
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	if m == nil {
		m = metrics.New()
	}

	return &Extractor{
		cache:    cache,
		fetcher:  fetcher,
		metrics:  m,
		location: loc,
		now:      now,
		logger:   logger.With().Str("component", "extractor").Logger(),
	}
}

// Window returns the half-open interval [today, today+days) in the
// extractor's location
func (e *Extractor) Window(days int) (start, end time.Time) {
	y, m, d := e.now().In(e.location).Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, e.location)
	return start, start.AddDate(0, 0, days)
}

// Extract collects normalized matches from every league, in league order then
// payload order. A league without a usable payload is skipped.
func (e *Extractor) Extract(ctx context.Context, leagues []string, windowDays int) ([]models.Match, error) {
	if windowDays < 0 {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidWindow, windowDays)
	}

	start, end := e.Window(windowDays)
	matches := make([]models.Match, 0)

	for _, league := range leagues {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		payload, ok := e.load(ctx, league)
		if !ok {
			e.metrics.LeaguesSkipped.Inc()
			continue
		}

		kept := 0
		for _, entry := range payload {
			match, ok := e.normalize(league, entry, start, end)
			if !ok {
				continue
			}
			matches = append(matches, match)
			kept++
		}

		e.logger.Info().
			Str("league", league).
			Int("entries", len(payload)).
			Int("kept", kept).
			Msg("extracted league")
	}

	e.metrics.MatchesExtracted.Add(float64(len(matches)))

	return matches, nil
}

// load returns today's cached payload or a freshly fetched one. Fresh
// payloads are written back to the cache; a failed write is only logged.
func (e *Extractor) load(ctx context.Context, league string) (models.Payload, bool) {
	payload, err := e.cache.Get(ctx, league)
	switch {
	case err == nil:
		e.metrics.CacheLookups.WithLabelValues(metrics.CacheHit).Inc()
		return payload, true
	case errors.Is(err, models.ErrUnknownSport):
		e.metrics.CacheLookups.WithLabelValues(metrics.CacheUnroutable).Inc()
		e.logger.Error().Err(err).Str("league", league).Msg("cannot route league to a sport, skipping")
		return nil, false
	case errors.Is(err, models.ErrCacheMiss):
		e.metrics.CacheLookups.WithLabelValues(metrics.CacheMiss).Inc()
		e.logger.Debug().Str("league", league).Msg("no cache entry")
	case errors.Is(err, models.ErrCacheExpired):
		e.metrics.CacheLookups.WithLabelValues(metrics.CacheExpired).Inc()
		e.logger.Debug().Str("league", league).Msg("cache entry expired")
	default:
		e.metrics.CacheLookups.WithLabelValues(metrics.CacheError).Inc()
		e.logger.Warn().Err(err).Str("league", league).Msg("cache read failed, treating as miss")
	}

	payload, err = e.fetcher.Fetch(ctx, league)
	if err != nil {
		e.metrics.FetchFailures.WithLabelValues(string(fetchKind(err))).Inc()
		e.logger.Warn().Err(err).Str("league", league).Msg("no data for league, skipping")
		return nil, false
	}

	if err := e.cache.Put(ctx, league, payload); err != nil {
		e.metrics.CacheWriteErrors.Inc()
		e.logger.Error().Err(err).Str("league", league).Msg("failed to cache league payload")
	}

	return payload, true
}

// normalize builds a match from one raw entry. ok is false when the entry is
// dropped or falls outside [start, end).
func (e *Extractor) normalize(league string, entry json.RawMessage, start, end time.Time) (models.Match, bool) {
	raw, err := models.DecodeRawMatch(entry)
	if err != nil {
		e.drop(metrics.DropDecode).Err(err).Str("league", league).Msg("match ignored; undecodable entry")
		return models.Match{}, false
	}

	sides, err := raw.Matchup()
	if err != nil {
		e.drop(metrics.DropTeams).Str("league", league).Str("id", raw.MatchID()).Msg("match ignored; missing team information")
		return models.Match{}, false
	}

	kickoff, err := models.ParseCommenceTime(raw.CommenceTime)
	if err != nil {
		e.drop(metrics.DropCommenceTime).Err(err).Str("league", league).Str("id", raw.MatchID()).Msg("match ignored; bad commence time")
		return models.Match{}, false
	}

	if kickoff.Before(start) || !kickoff.Before(end) {
		return models.Match{}, false
	}

	price1, price2, ok := raw.BestH2HPrices(sides)
	if !ok {
		e.drop(metrics.DropIncomplete).
			Str("league", league).
			Str("team1", sides.Team1).
			Str("team2", sides.Team2).
			Msg("match ignored; incomplete odds")
		return models.Match{}, false
	}

	return models.Match{
		ID:     raw.MatchID(),
		League: league,
		Team1:  sides.Team1,
		Team2:  sides.Team2,
		Odds: map[string]decimal.Decimal{
			sides.Team1: price1,
			sides.Team2: price2,
		},
		CommenceTime: kickoff,
	}, true
}

func (e *Extractor) drop(reason string) *zerolog.Event {
	e.metrics.MatchesDropped.WithLabelValues(reason).Inc()
	return e.logger.Warn().Str("reason", reason)
}

func fetchKind(err error) models.FetchErrorKind {
	if kind := models.FetchErrorKindOf(err); kind != "" {
		return kind
	}
	return models.FetchTransport
}
