package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

// Client syncs cache files with a remote artifact store that accepts
// multipart uploads at {base}/{sport}/upload and wipes a sport folder with
// DELETE {base}/{sport}/delete_all. Requests carry an X-API-KEY header.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// ClientConfig holds artifact store configuration
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a new artifact store client
func NewClient(config ClientConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.With().Str("component", "artifact_client").Logger(),
	}
}

// UploadDir uploads every *.json file in dir, in name order. A failed file
// does not stop the others; all failures are returned together.
func (c *Client) UploadDir(ctx context.Context, sport models.Sport, dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(files)

	var errs []error
	uploaded := 0
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}
		if err := c.UploadFile(ctx, sport, path); err != nil {
			errs = append(errs, err)
			continue
		}
		uploaded++
	}

	c.logger.Info().
		Str("sport", string(sport)).
		Str("dir", dir).
		Int("uploaded", uploaded).
		Int("failed", len(errs)).
		Msg("upload finished")

	return uploaded, errors.Join(errs...)
}

// UploadFile posts a single file as the multipart field "file"
func (c *Client) UploadFile(ctx context.Context, sport models.Sport, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("failed to build form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, sport, "upload", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	if err := c.do(req); err != nil {
		return fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}

	c.logger.Debug().Str("file", filepath.Base(path)).Str("sport", string(sport)).Msg("uploaded")
	return nil
}

// DeleteAll removes every remote file of a sport
func (c *Client) DeleteAll(ctx context.Context, sport models.Sport) error {
	req, err := c.newRequest(ctx, http.MethodDelete, sport, "delete_all", nil)
	if err != nil {
		return err
	}
	if err := c.do(req); err != nil {
		return fmt.Errorf("delete %s artifacts: %w", sport, err)
	}

	c.logger.Info().Str("sport", string(sport)).Msg("remote artifacts deleted")
	return nil
}

func (c *Client) newRequest(ctx context.Context, method string, sport models.Sport, action string, body io.Reader) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, errors.New("artifact store URL not configured")
	}
	if c.apiKey == "" {
		return nil, errors.New("artifact store API key not configured")
	}

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, sport, action)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	return req, nil
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
