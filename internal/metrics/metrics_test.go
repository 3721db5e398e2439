package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.CacheLookups.WithLabelValues(CacheHit).Inc()
	a.CacheLookups.WithLabelValues(CacheHit).Inc()
	a.MatchesDropped.WithLabelValues(DropTeams).Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(a.CacheLookups.WithLabelValues(CacheHit)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheLookups.WithLabelValues(CacheHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.MatchesDropped.WithLabelValues(DropTeams)))
}

func TestRegistry_ExposesRunMetrics(t *testing.T) {
	m := New()
	m.FetchFailures.WithLabelValues("timeout").Inc()

	expected := `
# HELP match_predictor_fetch_failures_total Failed odds API fetches by kind.
# TYPE match_predictor_fetch_failures_total counter
match_predictor_fetch_failures_total{kind="timeout"} 1
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "match_predictor_fetch_failures_total")
	assert.NoError(t, err)
}

func TestPush(t *testing.T) {
	var gotPath, gotBody string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	m := New()
	m.MatchesExtracted.Add(3)

	require.NoError(t, m.Push(context.Background(), gateway.URL, "match_predictor"))

	assert.Equal(t, "/metrics/job/match_predictor", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestPush_GatewayError(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer gateway.Close()

	err := New().Push(context.Background(), gateway.URL, "match_predictor")

	assert.Error(t, err)
}
