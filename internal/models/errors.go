package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSport        = errors.New("unknown sport for league")
	ErrCacheMiss           = errors.New("no cache entry")
	ErrCacheExpired        = errors.New("cache entry expired")
	ErrUnresolvableTeams   = errors.New("missing team information")
	ErrInvalidCommenceTime = errors.New("invalid commence time")
	ErrIncompleteOdds      = errors.New("incomplete odds")
	ErrInvalidWindow       = errors.New("window days must not be negative")
)

// FetchErrorKind classifies why a league could not be fetched
type FetchErrorKind string

const (
	FetchMissingAPIKey FetchErrorKind = "missing_api_key"
	FetchNotFound      FetchErrorKind = "not_found"
	FetchHTTPStatus    FetchErrorKind = "http_status"
	FetchTransport     FetchErrorKind = "transport"
	FetchTimeout       FetchErrorKind = "timeout"
	FetchDecode        FetchErrorKind = "decode"
)

// FetchError is returned by the odds API client for every failed fetch
type FetchError struct {
	League     string
	Kind       FetchErrorKind
	StatusCode int // set for not_found and http_status
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d): %v", e.League, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.League, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetchErrorKindOf extracts the fetch failure kind, or "" if err is not a FetchError
func FetchErrorKindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
