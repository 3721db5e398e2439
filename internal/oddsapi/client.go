package oddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

// DefaultBaseURL is The Odds API v4 root
const DefaultBaseURL = "https://api.the-odds-api.com/v4"

// Client fetches head-to-head odds for one league at a time. Every request is
// a single attempt; failures come back as *models.FetchError.
type Client struct {
	baseURL    string
	apiKey     string
	regions    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// ClientConfig holds odds API client configuration
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Regions string        // e.g., "eu"
	Timeout time.Duration // whole-request bound, e.g., 30 * time.Second
}

// NewClient creates a new odds API client
func NewClient(config ClientConfig, logger zerolog.Logger) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	regions := config.Regions
	if regions == "" {
		regions = "eu"
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  config.APIKey,
		regions: regions,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.With().Str("component", "odds_api_client").Logger(),
	}
}

// Fetch retrieves the decimal h2h odds payload for a league
func (c *Client) Fetch(ctx context.Context, league string) (models.Payload, error) {
	if c.apiKey == "" {
		c.logger.Error().Str("league", league).Msg("odds API key is not configured")
		return nil, &models.FetchError{League: league, Kind: models.FetchMissingAPIKey, Err: errors.New("api key not set")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.oddsURL(league), nil)
	if err != nil {
		return nil, &models.FetchError{League: league, Kind: models.FetchTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := models.FetchTransport
		if isTimeout(err) {
			kind = models.FetchTimeout
		}
		c.logger.Error().
			Err(err).
			Str("league", league).
			Str("kind", string(kind)).
			Msg("odds request failed")
		return nil, &models.FetchError{League: league, Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.logger.Error().Str("league", league).Msg("league not found at odds provider")
		return nil, &models.FetchError{League: league, Kind: models.FetchNotFound, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("league", league).
			Str("body", string(body)).
			Msg("odds provider returned an error")
		return nil, &models.FetchError{League: league, Kind: models.FetchHTTPStatus, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	var payload models.Payload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		kind := models.FetchDecode
		if isTimeout(err) {
			kind = models.FetchTimeout
		}
		c.logger.Error().Err(err).Str("league", league).Msg("failed to decode odds payload")
		return nil, &models.FetchError{League: league, Kind: kind, Err: err}
	}

	c.logger.Info().
		Str("league", league).
		Int("entries", len(payload)).
		Str("requests_remaining", resp.Header.Get("x-requests-remaining")).
		Dur("elapsed", time.Since(start)).
		Msg("fetched odds")

	return payload, nil
}

func (c *Client) oddsURL(league string) string {
	query := url.Values{}
	query.Set("apiKey", c.apiKey)
	query.Set("regions", c.regions)
	query.Set("markets", models.MarketH2H)
	query.Set("oddsFormat", "decimal")
	return fmt.Sprintf("%s/sports/%s/odds/?%s", c.baseURL, url.PathEscape(league), query.Encode())
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
