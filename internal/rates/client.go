package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

const (
	DefaultURL      = "https://api.frankfurter.dev/v1/latest"
	DefaultJSONPath = "$.rates"
)

// ClientConfig tunes the rate provider client.
type ClientConfig struct {
	URL      string
	JSONPath string
	Timeout  time.Duration
	Attempts int
	Backoff  time.Duration // first retry delay, doubled each time
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URL:      DefaultURL,
		JSONPath: DefaultJSONPath,
		Timeout:  10 * time.Second,
		Attempts: 3,
		Backoff:  500 * time.Millisecond,
	}
}

// Client fetches the latest rates from a frankfurter-compatible HTTP API.
type Client struct {
	http   *http.Client
	cfg    ClientConfig
	logger *applog.Logger
}

func NewClient(cfg ClientConfig, logger *applog.Logger) *Client {
	def := DefaultClientConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.JSONPath == "" {
		cfg.JSONPath = def.JSONPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = def.Attempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger.WithComponent(applog.ComponentRates),
	}
}

// statusError is a non-200 answer from the provider.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}

// Latest returns the table for base. Failures are retried with
// exponential backoff and finally wrapped in core.ErrNetwork.
func (c *Client) Latest(ctx context.Context, base string) (Table, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	delay := c.cfg.Backoff

	var lastErr error
	for attempt := 1; attempt <= c.cfg.Attempts; attempt++ {
		table, err := c.fetch(ctx, base)
		if err == nil {
			return table, nil
		}
		lastErr = err
		c.logger.WarnContext(ctx, "Rate fetch attempt failed",
			applog.FieldCurrency, base, "attempt", attempt, applog.FieldError, err)

		if ctx.Err() != nil || !retryable(err) || attempt == c.cfg.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return Table{}, fmt.Errorf("%w: %v", core.ErrNetwork, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return Table{}, fmt.Errorf("%w: rates for %s: %v", core.ErrNetwork, base, lastErr)
}

func (c *Client) fetch(ctx context.Context, base string) (Table, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return Table{}, fmt.Errorf("parse rates url: %w", err)
	}
	q := u.Query()
	q.Set("base", base)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Table{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Table{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Table{}, &statusError{code: resp.StatusCode}
	}

	var doc any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Table{}, fmt.Errorf("decode rates: %w", err)
	}
	rates, err := extractRates(doc, c.cfg.JSONPath)
	if err != nil {
		return Table{}, err
	}
	rates[base] = 1
	return Table{Base: base, Rates: rates, Source: SourceLive, UpdatedAt: time.Now()}, nil
}

// extractRates pulls the code -> rate object out of the response. Non
// numeric or non-positive entries are skipped.
func extractRates(doc any, path string) (map[string]float64, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("rates path %s: %w", path, err)
	}
	// Filter expressions come back as a list even for one match.
	if list, ok := v.([]any); ok && len(list) == 1 {
		v = list[0]
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("rates path %s: expected an object, got %T", path, v)
	}
	rates := make(map[string]float64, len(obj)+1)
	for code, raw := range obj {
		if f, ok := raw.(float64); ok && f > 0 {
			rates[strings.ToUpper(code)] = f
		}
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("rates path %s: no usable rates", path)
	}
	return rates, nil
}
