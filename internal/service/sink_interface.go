package service

import (
	"context"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

//go:generate mockgen -destination=../mocks/mock_sink.go -package=mocks github.com/cypherlabdev/match-predictor/internal/service Sink

// Sink receives the ranked outcome of a run. Report files, tip files, Kafka
// and Telegram are all sinks; a failing sink never fails the run.
type Sink interface {
	Name() string
	Emit(ctx context.Context, report *models.Report) error
}
