// Package dashboard implements the HTTP client for the lead dashboard:
// fetching audience definitions and importing mined leads. All calls are
// rate limited and retried with exponential backoff.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/leadscape/leadminer/internal/filter"
	"github.com/leadscape/leadminer/internal/utils"
	"github.com/leadscape/leadminer/pkg/types"
)

// Config holds the dashboard connection settings.
type Config struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Token   string        `yaml:"token" json:"token"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// MaxRetries bounds retry attempts per request (in addition to the
	// first attempt).
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// RequestsPerSecond throttles outgoing calls.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
}

// Validate checks the connection settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("dashboard base_url is required")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 2
	}
}

// Client talks to the dashboard API.
type Client struct {
	config  Config
	http    *http.Client
	limiter *rate.Limiter
	logger  utils.Logger
}

// NewClient creates a dashboard client.
func NewClient(config Config, logger utils.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if logger == nil {
		logger = utils.NewComponentLogger("dashboard")
	}

	return &Client{
		config:  config,
		http:    &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		logger:  logger,
	}, nil
}

// FetchAudience retrieves an audience filter definition by ID.
func (c *Client) FetchAudience(ctx context.Context, audienceID string) (*filter.Spec, error) {
	if audienceID == "" {
		return nil, fmt.Errorf("audience ID is required")
	}

	var spec filter.Spec
	url := fmt.Sprintf("%s/api/audiences/%s", c.config.BaseURL, audienceID)
	if err := c.do(ctx, http.MethodGet, url, nil, &spec); err != nil {
		return nil, utils.WrapError(err, utils.ErrCodeDashboardFailed, "audience fetch failed")
	}
	if err := spec.Validate(); err != nil {
		return nil, utils.WrapError(err, utils.ErrCodeDashboardFailed, "audience spec invalid")
	}
	return &spec, nil
}

// ImportResult is the dashboard's response to a lead import.
type ImportResult struct {
	Imported  int `json:"imported"`
	Duplicate int `json:"duplicate"`
	Rejected  int `json:"rejected"`
}

// ImportLeads pushes a batch of mined leads to the dashboard.
func (c *Client) ImportLeads(ctx context.Context, sessionID string, leads []types.Lead) (*ImportResult, error) {
	if len(leads) == 0 {
		return &ImportResult{}, nil
	}

	payload := map[string]interface{}{
		"session_id": sessionID,
		"leads":      leads,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode import payload: %w", err)
	}

	var result ImportResult
	url := c.config.BaseURL + "/api/leads/import"
	if err := c.do(ctx, http.MethodPost, url, body, &result); err != nil {
		return nil, utils.WrapError(err, utils.ErrCodeDashboardFailed, "lead import failed").WithRetryable(true)
	}
	c.logger.Infof("imported %d leads (%d duplicate, %d rejected)",
		result.Imported, result.Duplicate, result.Rejected)
	return &result, nil
}

// do executes one API call with rate limiting and retry. Server errors
// and HTTP 429 retry with exponential backoff; client errors fail fast.
func (c *Client) do(ctx context.Context, method, url string, body []byte, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
			c.logger.Debugf("retrying %s %s in %v (attempt %d)", method, url, backoff, attempt+1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retryable, err := c.attempt(ctx, method, url, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return fmt.Errorf("request failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, url string, body []byte, out interface{}) (retryable bool, err error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, utils.NewError(utils.ErrCodeAuthFailed,
			fmt.Sprintf("dashboard rejected credentials (%d)", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("dashboard returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("dashboard returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return false, nil
}
