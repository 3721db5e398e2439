package models

import (
	"fmt"
	"strings"
)

// Sport is the cache namespace a league belongs to
type Sport string

const (
	SportFootball   Sport = "football"
	SportBasketball Sport = "basketball"
	SportHockey     Sport = "hockey"
	SportCricket    Sport = "cricket"
)

// League keys embed the provider's sport group, e.g. soccer_epl or icehockey_nhl.
// Checked in order.
var sportMarkers = []struct {
	marker string
	sport  Sport
}{
	{"soccer", SportFootball},
	{"basketball", SportBasketball},
	{"icehockey", SportHockey},
	{"cricket", SportCricket},
}

// AllSports lists every supported sport in report order
func AllSports() []Sport {
	return []Sport{SportFootball, SportBasketball, SportHockey, SportCricket}
}

// SportOf routes a league identifier to its sport
func SportOf(league string) (Sport, error) {
	for _, m := range sportMarkers {
		if strings.Contains(league, m.marker) {
			return m.sport, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownSport, league)
}

// ParseSport parses a sport name as used in config keys and CLI flags
func ParseSport(name string) (Sport, error) {
	normalized := Sport(strings.ToLower(strings.TrimSpace(name)))
	for _, s := range AllSports() {
		if s == normalized {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSport, name)
}
