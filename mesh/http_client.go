package mesh

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
)

// Fetcher defaults.
const (
	DefaultFetchTimeout  = 30 * time.Second
	DefaultFetchAttempts = 3
	DefaultFetchBackoff  = 500 * time.Millisecond

	// maxResponseBytes caps a points document at 50 MB
	maxResponseBytes = 50 << 20
)

// Fetcher downloads point sets over HTTP. Transport failures and non-200
// responses are retried with exponential backoff; documents that fail to
// parse are not.
type Fetcher struct {
	Client   *http.Client
	Attempts int           // values below 1 mean a single attempt
	Backoff  time.Duration // delay before the second attempt, doubled after each failure
}

// NewFetcher returns a Fetcher with the default timeout, attempts and backoff
func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: DefaultFetchTimeout},
		Attempts: DefaultFetchAttempts,
		Backoff:  DefaultFetchBackoff,
	}
}

// IsRemote reports whether source is an http or https URL rather than a path.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// LoadPoints reads points from a file path, or from an http(s) URL with a
// default Fetcher.
func LoadPoints(ctx context.Context, source string) ([]orb.Point, error) {
	if IsRemote(source) {
		return NewFetcher().Fetch(ctx, source)
	}
	return ParsePointsFile(source)
}

// Fetch downloads the document at url and parses it with ParsePoints.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]orb.Point, error) {
	if url == "" {
		return nil, fmt.Errorf("fetch points: URL is empty")
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	attempts := max(f.Attempts, 1)

	var lastErr error
	delay := f.Backoff
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			log.Debug("Retrying points fetch", "url", url, "attempt", attempt, "delay", delay, "err", lastErr)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch points: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		body, err := get(ctx, client, url)
		if err != nil {
			lastErr = err
			continue
		}

		points, err := ParsePoints(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("fetch points from %s: %w", url, err)
		}
		return points, nil
	}
	return nil, fmt.Errorf("fetch points: all %d attempts failed: %w", attempts, lastErr)
}

// get performs a single GET and returns the body
func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP GET %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}
	return body, nil
}
