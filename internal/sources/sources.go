// Package sources implements the external source clients that turn a topic
// into raw material items. Each provider is independently rate limited and
// retried; the aggregator tolerates any of them failing.
package sources

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"dailybrief/internal/config"
	"dailybrief/internal/core"
	"dailybrief/internal/retry"
)

// Provider is the capability every source client implements: translate a
// topic string into a bounded list of source items.
type Provider interface {
	// Fetch returns a finite, capped list of items for the topic. Transient
	// failures are retried internally; the returned error is informational
	// for the aggregator, which treats it as an empty result.
	Fetch(ctx context.Context, topic string) ([]core.SourceItem, error)

	// Name returns the source tag (also the merge priority key).
	Name() string
}

var (
	// ErrMissingAPIKey is returned when a provider requires an API key that
	// was not configured.
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrForbidden is returned on 401/403 responses. It is permanent: the
	// provider short-circuits to an empty result without retrying.
	ErrForbidden = errors.New("access forbidden, check credentials")
)

// StatusError reports a non-2xx HTTP response from a source API.
type StatusError struct {
	Provider string
	Status   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed with status %d", e.Provider, e.Status)
}

// IsTransient classifies an error for the per-source retry policy: rate
// limits, server errors and network timeouts are worth another attempt;
// auth failures and malformed responses are not.
func IsTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == http.StatusTooManyRequests || se.Status >= 500
	}
	if errors.Is(err, ErrForbidden) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// defaultPolicy is the bounded fixed-backoff retry shared by all source
// clients.
func defaultPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		Delay:       2 * time.Second,
		Retryable:   IsTransient,
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// statusToError maps an HTTP status to the provider error taxonomy.
func statusToError(provider string, status int) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%s: %w", provider, ErrForbidden)
	}
	return &StatusError{Provider: provider, Status: status}
}

// NewProviders builds the configured source clients in merge priority order:
// reddit, newsapi, serpapi, scraper. Providers missing required
// configuration are skipped.
func NewProviders(cfg config.Sources) []Provider {
	providers := []Provider{NewRedditProvider(cfg.Reddit)}
	if cfg.NewsAPI.APIKey != "" {
		providers = append(providers, NewNewsAPIProvider(cfg.NewsAPI.APIKey))
	}
	if cfg.SerpAPI.APIKey != "" {
		providers = append(providers, NewSerpAPIProvider(cfg.SerpAPI.APIKey))
	}
	if cfg.Scraper.BaseURL != "" {
		providers = append(providers, NewScraperProvider(cfg.Scraper.BaseURL))
	}
	return providers
}
