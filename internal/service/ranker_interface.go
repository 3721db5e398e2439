package service

import (
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

// Ranker is an interface that abstracts scoring and ordering of matches
type Ranker interface {
	Rank(matches []models.Match) (byPredictability, byKickoff []models.RankedMatch, err error)
	Threshold() decimal.Decimal
}
