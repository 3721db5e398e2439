package ranker

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

// SortKey names the field a ranking is ordered by
type SortKey string

const (
	ByPredictability SortKey = "predictability"
	ByCommenceTime   SortKey = "commence_time"
)

// Unbounded is the TopN sentinel that keeps every element
const Unbounded = -1

// Ranker scores, orders and classifies normalized matches
type Ranker struct {
	params models.RankingParams
	logger zerolog.Logger
}

// NewRanker creates a new predictability ranker
func NewRanker(params models.RankingParams, logger zerolog.Logger) *Ranker {
	return &Ranker{
		params: params,
		logger: logger.With().Str("component", "ranker").Logger(),
	}
}

// Threshold returns the confident/risky boundary
func (r *Ranker) Threshold() decimal.Decimal {
	return r.params.Threshold
}

// Score returns the spread between the highest and lowest best price.
// ok is false when the match carries no odds, which ranks as +infinity.
func (r *Ranker) Score(match models.Match) (decimal.Decimal, bool) {
	if len(match.Odds) == 0 {
		return decimal.Zero, false
	}

	var lo, hi decimal.Decimal
	first := true
	for _, price := range match.Odds {
		if first {
			lo, hi = price, price
			first = false
			continue
		}
		lo = decimal.Min(lo, price)
		hi = decimal.Max(hi, price)
	}

	return hi.Sub(lo), true
}

// Annotate returns a copy of matches with Predictability filled in
func (r *Ranker) Annotate(matches []models.Match) []models.Match {
	scored := make([]models.Match, len(matches))
	for i, m := range matches {
		if score, ok := r.Score(m); ok {
			m.Predictability = &score
		} else {
			m.Predictability = nil
		}
		scored[i] = m
	}
	return scored
}

// RankBy returns a stably sorted copy of matches, ascending by key.
// Unscored matches sort after every scored one.
func (r *Ranker) RankBy(matches []models.Match, key SortKey) ([]models.Match, error) {
	var less func(a, b models.Match) bool

	switch key {
	case ByPredictability:
		less = predictabilityLess
	case ByCommenceTime:
		less = func(a, b models.Match) bool {
			return a.CommenceTime.Before(b.CommenceTime)
		}
	default:
		return nil, fmt.Errorf("unknown sort key: %q", key)
	}

	sorted := make([]models.Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	return sorted, nil
}

func predictabilityLess(a, b models.Match) bool {
	switch {
	case a.Predictability == nil:
		return false
	case b.Predictability == nil:
		return true
	default:
		return a.Predictability.LessThan(*b.Predictability)
	}
}

// TopN returns the first n elements of sorted, or all of them for a negative n
func TopN[T any](sorted []T, n int) []T {
	if n < 0 || n >= len(sorted) {
		return sorted
	}
	return sorted[:n]
}

// Classify marks a match confident iff its score is at or below the threshold
func (r *Ranker) Classify(match models.Match) models.Verdict {
	score := match.Predictability
	if score == nil {
		s, ok := r.Score(match)
		if !ok {
			return models.VerdictRisky
		}
		score = &s
	}

	if score.LessThanOrEqual(r.params.Threshold) {
		return models.VerdictConfident
	}
	return models.VerdictRisky
}

// Rank scores matches and builds both report views, each cut to TopN.
// The two views are ranked independently over the full input.
func (r *Ranker) Rank(matches []models.Match) (byPredictability, byKickoff []models.RankedMatch, err error) {
	scored := r.Annotate(matches)

	bestFirst, err := r.RankBy(scored, ByPredictability)
	if err != nil {
		return nil, nil, err
	}
	soonestFirst, err := r.RankBy(scored, ByCommenceTime)
	if err != nil {
		return nil, nil, err
	}

	byPredictability = r.classifyAll(TopN(bestFirst, r.params.TopN))
	byKickoff = r.classifyAll(TopN(soonestFirst, r.params.TopN))

	r.logger.Info().
		Int("input_count", len(matches)).
		Int("output_count", len(byPredictability)).
		Str("threshold", r.params.Threshold.String()).
		Msg("ranking complete")

	return byPredictability, byKickoff, nil
}

func (r *Ranker) classifyAll(matches []models.Match) []models.RankedMatch {
	ranked := make([]models.RankedMatch, 0, len(matches))
	for _, m := range matches {
		ranked = append(ranked, models.RankedMatch{Match: m, Verdict: r.Classify(m)})
	}
	return ranked
}
