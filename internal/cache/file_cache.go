package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/match-predictor/internal/fsutil"
	"github.com/cypherlabdev/match-predictor/internal/models"
)

// FileCache stores one JSON file per league under a sport folder:
// <dir>/<sport>/api_response_<league>.json. A file is fresh only on the
// calendar day it was last written.
type FileCache struct {
	dir      string
	location *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// FileCacheConfig holds file cache configuration
type FileCacheConfig struct {
	Dir      string         // e.g., "cache"
	Location *time.Location // calendar used for freshness, defaults to time.Local
	Now      func() time.Time
}

// NewFileCache creates a new disk-backed cache
func NewFileCache(config FileCacheConfig, logger zerolog.Logger) *FileCache {
	loc := config.Location
	if loc == nil {
		loc = time.Local
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &FileCache{
		dir:      config.Dir,
		location: loc,
		now:      now,
		logger:   logger.With().Str("component", "file_cache").Logger(),
	}
}

// Path returns the cache file for a league
func (c *FileCache) Path(league string) (string, error) {
	sport, err := models.SportOf(league)
	if err != nil {
		return "", err
	}
	if strings.ContainsAny(league, `/\`) || strings.Contains(league, "..") {
		return "", fmt.Errorf("invalid league identifier %q", league)
	}
	return filepath.Join(c.dir, string(sport), "api_response_"+league+".json"), nil
}

// SportDir returns the folder holding every cache file of a sport
func (c *FileCache) SportDir(sport models.Sport) string {
	return filepath.Join(c.dir, string(sport))
}

// Get returns the cached payload for a league if it was written today
func (c *FileCache) Get(ctx context.Context, league string) (models.Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := c.Path(league)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, models.ErrCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat cache file: %w", err)
	}

	if !sameDay(info.ModTime(), c.now(), c.location) {
		c.logger.Debug().
			Str("league", league).
			Time("modified", info.ModTime()).
			Msg("cache file is stale")
		return nil, models.ErrCacheExpired
	}

	payload, err := readPayload(path)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		// a stored null carries no data; fetch again
		return nil, models.ErrCacheMiss
	}

	c.logger.Debug().
		Str("league", league).
		Str("path", path).
		Int("entries", len(payload)).
		Msg("cache hit")

	return payload, nil
}

// Put merges payload into the cached file for a league and writes it back
func (c *FileCache) Put(ctx context.Context, league string, payload models.Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := c.Path(league)
	if err != nil {
		return err
	}

	existing, err := readPayload(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn().
				Err(err).
				Str("path", path).
				Msg("ignoring unreadable cache file")
		}
		existing = nil
	}

	merged := Merge(existing, payload, c.logger)

	data, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	c.logger.Info().
		Str("league", league).
		Str("path", path).
		Int("entries", len(merged)).
		Msg("cached league payload")

	return nil
}

func readPayload(path string) (models.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var payload models.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", path, err)
	}
	return payload, nil
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
