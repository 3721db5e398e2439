package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/match-predictor/internal/metrics"
	"github.com/cypherlabdev/match-predictor/internal/models"
)

// RunRequest selects what one prediction run covers
type RunRequest struct {
	Leagues    []string
	WindowDays int
}

// PredictionService orchestrates extraction, ranking and report delivery
type PredictionService struct {
	extractor *Extractor
	ranker    Ranker
	sinks     []Sink
	metrics   *metrics.Metrics
	now       func() time.Time
	logger    zerolog.Logger
}

// NewPredictionService creates a new prediction service
func NewPredictionService(
	extractor *Extractor,
	ranker Ranker,
	sinks []Sink,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *PredictionService {
	if m == nil {
		m = metrics.New()
	}

	return &PredictionService{
		extractor: extractor,
		ranker:    ranker,
		sinks:     sinks,
		metrics:   m,
		now:       time.Now,
		logger:    logger.With().Str("component", "prediction_service").Logger(),
	}
}

// Run executes one full pass over the requested leagues. Per-league and
// per-match problems are logged and skipped; only caller misuse or
// cancellation returns an error. Sinks are not called when nothing matched.
func (s *PredictionService) Run(ctx context.Context, req RunRequest) (*models.Report, error) {
	started := s.now()

	matches, err := s.extractor.Extract(ctx, req.Leagues, req.WindowDays)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	byPredictability, byKickoff, err := s.ranker.Rank(matches)
	if err != nil {
		return nil, fmt.Errorf("ranking failed: %w", err)
	}

	report := &models.Report{
		RunID:            uuid.New(),
		GeneratedAt:      started.UTC(),
		Leagues:          req.Leagues,
		WindowDays:       req.WindowDays,
		Threshold:        s.ranker.Threshold(),
		ByPredictability: byPredictability,
		ByKickoff:        byKickoff,
	}

	if len(byPredictability) == 0 {
		s.logger.Info().
			Int("window_days", req.WindowDays).
			Int("leagues", len(req.Leagues)).
			Msg("no matches found for the specified interval or data is unavailable")
	} else {
		s.emit(ctx, report)
	}

	elapsed := s.now().Sub(started)
	s.metrics.RunDuration.Set(elapsed.Seconds())
	s.metrics.LastRunSuccess.SetToCurrentTime()

	s.logger.Info().
		Str("run_id", report.RunID.String()).
		Int("matches", len(matches)).
		Int("reported", len(byPredictability)).
		Int("confident", len(report.Confident())).
		Dur("elapsed", elapsed).
		Msg("prediction run complete")

	return report, nil
}

func (s *PredictionService) emit(ctx context.Context, report *models.Report) {
	for _, sink := range s.sinks {
		if err := sink.Emit(ctx, report); err != nil {
			s.metrics.SinkFailures.WithLabelValues(sink.Name()).Inc()
			s.logger.Error().
				Err(err).
				Str("sink", sink.Name()).
				Str("run_id", report.RunID.String()).
				Msg("failed to emit report")
		}
	}
}
