package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/match-predictor/internal/mocks"
	"github.com/cypherlabdev/match-predictor/internal/models"
	"github.com/cypherlabdev/match-predictor/pkg/ranker"
)

// testPredictionServiceSetup is a helper struct to hold test dependencies
type testPredictionServiceSetup struct {
	*testExtractorSetup
	service  *PredictionService
	mockSink *mocks.MockSink
	ctrl     *gomock.Controller
}

func setupTestPredictionService(t *testing.T) *testPredictionServiceSetup {
	base := setupTestExtractor(t)
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().Name().Return("mock").AnyTimes()

	r := ranker.NewRanker(models.RankingParams{Threshold: decimal.NewFromInt(1), TopN: ranker.Unbounded}, zerolog.Nop())
	svc := NewPredictionService(base.extractor, r, []Sink{sink}, base.metrics, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }

	return &testPredictionServiceSetup{
		testExtractorSetup: base,
		service:            svc,
		mockSink:           sink,
		ctrl:               ctrl,
	}
}

func TestRun_EmitsRankedReport(t *testing.T) {
	setup := setupTestPredictionService(t)

	setup.mockCache.EXPECT().Get(gomock.Any(), "soccer_epl").
		Return(rawPayload(singleBookmakerTeams, twoBookmakersHomeAway), nil)

	var emitted *models.Report
	setup.mockSink.EXPECT().Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *models.Report) error {
			emitted = r
			return nil
		})

	report, err := setup.service.Run(setup.ctx, RunRequest{Leagues: []string{"soccer_epl"}, WindowDays: 1})

	require.NoError(t, err)
	require.Same(t, report, emitted)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", report.RunID.String())
	assert.Equal(t, []string{"soccer_epl"}, report.Leagues)
	assert.Equal(t, 1, report.WindowDays)
	assert.True(t, decimal.NewFromInt(1).Equal(report.Threshold))

	require.Len(t, report.ByPredictability, 2)
	assert.Equal(t, "m2", report.ByPredictability[0].ID) // 0.7
	assert.Equal(t, "m1", report.ByPredictability[1].ID) // 1.0
	assert.Equal(t, models.VerdictConfident, report.ByPredictability[1].Verdict)

	require.Len(t, report.ByKickoff, 2)
	assert.Equal(t, "m1", report.ByKickoff[0].ID)
}

func TestRun_SinkFailureDoesNotFailRun(t *testing.T) {
	setup := setupTestPredictionService(t)
	second := mocks.NewMockSink(setup.ctrl)
	second.EXPECT().Name().Return("second").AnyTimes()
	setup.service.sinks = append(setup.service.sinks, second)

	setup.mockCache.EXPECT().Get(gomock.Any(), "soccer_epl").Return(rawPayload(singleBookmakerTeams), nil)
	setup.mockSink.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
	second.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	report, err := setup.service.Run(setup.ctx, RunRequest{Leagues: []string{"soccer_epl"}, WindowDays: 1})

	require.NoError(t, err)
	assert.Len(t, report.ByPredictability, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(setup.metrics.SinkFailures.WithLabelValues("mock")))
}

func TestRun_NoMatchesSkipsSinks(t *testing.T) {
	setup := setupTestPredictionService(t)

	setup.mockCache.EXPECT().Get(gomock.Any(), "soccer_epl").Return(rawPayload(tomorrow), nil)
	setup.mockSink.EXPECT().Emit(gomock.Any(), gomock.Any()).Times(0)

	report, err := setup.service.Run(setup.ctx, RunRequest{Leagues: []string{"soccer_epl"}, WindowDays: 1})

	require.NoError(t, err)
	assert.Empty(t, report.ByPredictability)
	assert.Empty(t, report.ByKickoff)
}

func TestRun_NegativeWindow(t *testing.T) {
	setup := setupTestPredictionService(t)
	setup.mockSink.EXPECT().Emit(gomock.Any(), gomock.Any()).Times(0)

	_, err := setup.service.Run(setup.ctx, RunRequest{Leagues: []string{"soccer_epl"}, WindowDays: -2})

	assert.ErrorIs(t, err, models.ErrInvalidWindow)
}

func TestRun_NilMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockCache := mocks.NewMockCache(ctrl)
	mockCache.EXPECT().Get(gomock.Any(), "soccer_epl").Return(rawPayload(singleBookmakerTeams), nil)

	extractor := NewExtractor(
		mockCache,
		mocks.NewMockFetcher(ctrl),
		nil,
		ExtractorConfig{Location: time.UTC, Now: func() time.Time { return fixedNow }},
		zerolog.Nop(),
	)
	r := ranker.NewRanker(models.RankingParams{Threshold: decimal.NewFromInt(1), TopN: ranker.Unbounded}, zerolog.Nop())
	svc := NewPredictionService(extractor, r, nil, nil, zerolog.Nop())

	var report *models.Report
	var err error
	require.NotPanics(t, func() {
		report, err = svc.Run(context.Background(), RunRequest{Leagues: []string{"soccer_epl"}, WindowDays: 1})
	})
	require.NoError(t, err)
	assert.Len(t, report.ByPredictability, 1)
}
