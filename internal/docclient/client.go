package docclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/docrelay/docrelay/internal/event"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultRetryUnit = time.Second
	maxAttempts      = 3
)

// Client is the synchronous delivery channel: it writes translated titles
// back to the document service over REST.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger

	// retryUnit is the initial backoff interval, doubled per attempt.
	retryUnit time.Duration
}

func New(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		retryUnit:  defaultRetryUnit,
	}
}

// SetRetryUnit overrides the initial retry backoff interval.
func (c *Client) SetRetryUnit(d time.Duration) {
	if d > 0 {
		c.retryUnit = d
	}
}

// Configured reports whether a base URL was provided.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// UpdateTranslatedTitle PATCHes the translated title onto the document
// record. Rate limiting, 5xx responses and transport errors are retried with
// exponential backoff (1, 2, 4 units, three attempts total); any other 4xx is
// treated as a rejection and returned immediately.
func (c *Client) UpdateTranslatedTitle(ctx context.Context, docID event.DocumentID, translatedTitle string) error {
	if !c.Configured() {
		return fmt.Errorf("document service base URL is not configured")
	}

	url := fmt.Sprintf("%s/api/v1/documents/%s/translate", c.baseURL, docID)

	body, err := json.Marshal(map[string]string{"titleEs": translatedTitle})
	if err != nil {
		return fmt.Errorf("marshal update payload: %w", err)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.retryUnit
	expBackoff.Multiplier = 2
	expBackoff.RandomizationFactor = 0
	expBackoff.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		err := c.patch(ctx, url, body)
		if err == nil {
			return nil
		}
		var terminal *terminalError
		if errors.As(err, &terminal) {
			return backoff.Permanent(err)
		}
		c.logger.Warn().
			Err(err).
			Str("document_id", string(docID)).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Msg("document update failed, will retry")
		return err
	}

	err = backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(expBackoff, maxAttempts-1), ctx))
	if err != nil {
		return fmt.Errorf("update document %s: %w", docID, err)
	}
	return nil
}

func (c *Client) patch(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return &terminalError{err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("document service rate limited (status %d)", resp.StatusCode)
	case resp.StatusCode >= 500:
		return fmt.Errorf("document service error (status %d)", resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &terminalError{err: fmt.Errorf("document service rejected update (status %d): %s", resp.StatusCode, strings.TrimSpace(string(snippet)))}
	}
}

// Probe checks that the document service answers HTTP at all. Any response,
// including an error status, proves reachability.
func (c *Client) Probe(ctx context.Context) error {
	if !c.Configured() {
		return fmt.Errorf("document service base URL is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/documents/health", nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("document service unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
	return nil
}

// terminalError marks responses the retry loop must not repeat.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }
