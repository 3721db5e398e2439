package service

import (
	"context"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

//go:generate mockgen -destination=../mocks/mock_fetcher.go -package=mocks github.com/cypherlabdev/match-predictor/internal/service Fetcher

// Fetcher retrieves a fresh league payload from the odds provider
type Fetcher interface {
	Fetch(ctx context.Context, league string) (models.Payload, error)
}
