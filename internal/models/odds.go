package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MarketH2H is the head-to-head market key used by The Odds API
const MarketH2H = "h2h"

// Payload is the provider response for one league.
// Entries stay raw so cached files keep fields this service never reads.
type Payload []json.RawMessage

// RawMatch represents one fixture as returned by The Odds API
type RawMatch struct {
	ID           json.RawMessage `json:"id,omitempty"` // string or number
	CommenceTime string          `json:"commence_time"`
	Teams        []string        `json:"teams,omitempty"`     // older payload shape
	HomeTeam     string          `json:"home_team,omitempty"` // current payload shape
	AwayTeam     string          `json:"away_team,omitempty"`
	Bookmakers   []Bookmaker     `json:"bookmakers"`
}

// Bookmaker holds the markets one bookmaker offers for a fixture
type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title,omitempty"`
	Markets []Market `json:"markets"`
}

// Market is a single betting market (h2h, spreads, totals...)
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is one side of a market with its decimal price
type Outcome struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Matchup is the resolved pair of sides for a fixture
type Matchup struct {
	Team1 string
	Team2 string
}

// DecodeRawMatch parses one payload entry
func DecodeRawMatch(entry json.RawMessage) (*RawMatch, error) {
	var m RawMatch
	if err := json.Unmarshal(entry, &m); err != nil {
		return nil, fmt.Errorf("failed to decode match: %w", err)
	}
	return &m, nil
}

// MatchID returns the fixture id as text: string ids unquoted, any other JSON
// value verbatim, "" when absent
func (m *RawMatch) MatchID() string {
	id := bytes.TrimSpace(m.ID)
	if len(id) == 0 || bytes.Equal(id, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(id, &s); err == nil {
		return s
	}
	return string(id)
}

// Matchup resolves the two sides of the fixture. A non-empty teams list takes
// precedence over home_team/away_team and must hold exactly two names.
func (m *RawMatch) Matchup() (Matchup, error) {
	if len(m.Teams) > 0 {
		if len(m.Teams) != 2 || m.Teams[0] == "" || m.Teams[1] == "" {
			return Matchup{}, ErrUnresolvableTeams
		}
		return Matchup{Team1: m.Teams[0], Team2: m.Teams[1]}, nil
	}

	if m.HomeTeam == "" || m.AwayTeam == "" {
		return Matchup{}, ErrUnresolvableTeams
	}
	return Matchup{Team1: m.HomeTeam, Team2: m.AwayTeam}, nil
}

// BestH2HPrices returns the lowest h2h price offered for each side across all
// bookmakers. ok is false when either side has no usable price.
func (m *RawMatch) BestH2HPrices(sides Matchup) (team1, team2 decimal.Decimal, ok bool) {
	var have1, have2 bool

	for _, bookmaker := range m.Bookmakers {
		for _, market := range bookmaker.Markets {
			if market.Key != MarketH2H {
				continue
			}
			for _, outcome := range market.Outcomes {
				// Missing or null prices decode to zero
				if outcome.Price.Sign() <= 0 {
					continue
				}
				switch outcome.Name {
				case sides.Team1:
					if !have1 || outcome.Price.LessThan(team1) {
						team1 = outcome.Price
						have1 = true
					}
				case sides.Team2:
					if !have2 || outcome.Price.LessThan(team2) {
						team2 = outcome.Price
						have2 = true
					}
				}
			}
		}
	}

	return team1, team2, have1 && have2
}

var commenceTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999", // no offset, read as UTC
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseCommenceTime parses an ISO-8601 kick-off timestamp
func ParseCommenceTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range commenceTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidCommenceTime, value)
}
