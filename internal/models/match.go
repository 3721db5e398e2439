package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Match is a normalized fixture with the best h2h price for each side
type Match struct {
	ID             string                     `json:"id"`
	League         string                     `json:"league"`
	Team1          string                     `json:"team1"`
	Team2          string                     `json:"team2"`
	Odds           map[string]decimal.Decimal `json:"odds"` // keyed by team name
	CommenceTime   time.Time                  `json:"commence_time"`
	Predictability *decimal.Decimal           `json:"predictability,omitempty"` // nil = unscored
}

// Verdict is the confidence classification of a scored match
type Verdict string

const (
	VerdictConfident Verdict = "confident"
	VerdictRisky     Verdict = "risky"
)

// Label is the human-readable verdict used in reports and tips
func (v Verdict) Label() string {
	if v == VerdictConfident {
		return "SAFE BET"
	}
	return "RISKY BET"
}

// RankedMatch pairs a match with its classification
type RankedMatch struct {
	Match
	Verdict Verdict `json:"verdict"`
}

// RankingParams holds the decision policy for ranking
type RankingParams struct {
	Threshold decimal.Decimal // confident iff score <= threshold
	TopN      int             // negative = unbounded
}

// Report is the outcome of one prediction run, handed to every sink
type Report struct {
	RunID            uuid.UUID       `json:"run_id"`
	GeneratedAt      time.Time       `json:"generated_at"`
	Leagues          []string        `json:"leagues"`
	WindowDays       int             `json:"window_days"`
	Threshold        decimal.Decimal `json:"threshold"`
	ByPredictability []RankedMatch   `json:"by_predictability"`
	ByKickoff        []RankedMatch   `json:"by_kickoff"`
}

// Confident returns the matches of the predictability view classified confident
func (r *Report) Confident() []RankedMatch {
	var out []RankedMatch
	for _, m := range r.ByPredictability {
		if m.Verdict == VerdictConfident {
			out = append(out, m)
		}
	}
	return out
}
