// Package source downloads a chapter page and extracts its readable text.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/valpere/bookflow/internal/metrics"
)

var (
	ErrInvalidURL  = errors.New("URL must start with http:// or https://")
	ErrNoContent   = errors.New("no readable content found")
	ErrFetchFailed = errors.New("fetch failed")
)

const maxBodyBytes = 10 << 20

type Config struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Attempts  int           `mapstructure:"attempts"`
	Backoff   time.Duration `mapstructure:"backoff"`
	UserAgent string        `mapstructure:"user_agent"`
}

func DefaultConfig() Config {
	return Config{
		Timeout:   10 * time.Second,
		Attempts:  3,
		Backoff:   2 * time.Second,
		UserAgent: "bookflow/1.0 (+https://github.com/valpere/bookflow)",
	}
}

type Fetcher struct {
	client  *http.Client
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates a Fetcher. Zero fields in cfg take their DefaultConfig value,
// except Backoff, which may legitimately be zero.
func New(cfg Config, logger *zap.Logger, m *metrics.Metrics) *Fetcher {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = def.Attempts
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = def.Backoff
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client:  &http.Client{},
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

// Fetch downloads rawURL and returns its chapter text. Network errors,
// timeouts and HTTP 429/5xx responses are retried up to the configured number
// of attempts with a fixed pause between them.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= f.cfg.Attempts; attempt++ {
		if attempt > 1 {
			f.metrics.ObserveFetch(metrics.StatusRetry)
			f.logger.Info("retrying fetch",
				zap.String("url", rawURL), zap.Int("attempt", attempt), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", ErrFetchFailed, ctx.Err())
			case <-time.After(f.cfg.Backoff):
			}
		}

		body, retry, err := f.get(ctx, rawURL)
		if err == nil {
			text, err := Extract(strings.NewReader(body))
			if err != nil {
				f.metrics.ObserveFetch(metrics.StatusEmpty)
				if errors.Is(err, ErrNoContent) {
					return "", err
				}
				return "", fmt.Errorf("%w: parse html: %w", ErrFetchFailed, err)
			}
			f.metrics.ObserveFetch(metrics.StatusSuccess)
			f.logger.Debug("fetched chapter", zap.String("url", rawURL), zap.Int("chars", len(text)))
			return text, nil
		}

		f.metrics.ObserveFetch(metrics.StatusError)
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %w", ErrFetchFailed, lastErr)
}

// get performs one attempt. retry reports whether the failure is transient.
func (f *Fetcher) get(ctx context.Context, rawURL string) (body string, retry bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", transient, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", true, err
	}
	return string(data), false, nil
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(rawURL string) error {
	lower := strings.ToLower(strings.TrimSpace(rawURL))
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return ErrInvalidURL
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
