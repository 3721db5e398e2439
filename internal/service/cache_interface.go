package service

import (
	"context"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

//go:generate mockgen -destination=../mocks/mock_cache.go -package=mocks github.com/cypherlabdev/match-predictor/internal/service Cache

// Cache is an interface that abstracts the per-league payload cache.
// Get reports models.ErrCacheMiss, models.ErrCacheExpired or
// models.ErrUnknownSport; any error is a miss to the caller.
type Cache interface {
	Get(ctx context.Context, league string) (models.Payload, error)
	Put(ctx context.Context, league string, payload models.Payload) error
}
