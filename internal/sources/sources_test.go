package sources

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"dailybrief/internal/config"
	"dailybrief/internal/core"
	"dailybrief/internal/retry"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &StatusError{Provider: "newsapi", Status: http.StatusTooManyRequests}, true},
		{"server error", &StatusError{Provider: "reddit", Status: http.StatusBadGateway}, true},
		{"not found", &StatusError{Provider: "serpapi", Status: http.StatusNotFound}, false},
		{"forbidden", statusToError("newsapi", http.StatusForbidden), false},
		{"unauthorized", statusToError("newsapi", http.StatusUnauthorized), false},
		{"deadline", context.DeadlineExceeded, true},
		{"plain error", errors.New("decode failed"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStatusToErrorForbidden(t *testing.T) {
	err := statusToError("newsapi", http.StatusForbidden)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("403 should map to ErrForbidden, got %v", err)
	}
}

func TestNewProvidersSkipsUnconfigured(t *testing.T) {
	cfg := config.Sources{
		Reddit:  config.RedditConfig{UserAgent: "test/1.0"},
		NewsAPI: config.NewsAPIConfig{APIKey: "key"},
	}
	providers := NewProviders(cfg)

	want := []string{core.SourceReddit, core.SourceNewsAPI}
	if len(providers) != len(want) {
		t.Fatalf("got %d providers", len(providers))
	}
	for i, name := range want {
		if providers[i].Name() != name {
			t.Errorf("providers[%d] = %s, want %s", i, providers[i].Name(), name)
		}
	}
}

func TestNewProvidersFullSetInPriorityOrder(t *testing.T) {
	cfg := config.Sources{
		Reddit:  config.RedditConfig{UserAgent: "test/1.0"},
		NewsAPI: config.NewsAPIConfig{APIKey: "k1"},
		SerpAPI: config.SerpAPIConfig{APIKey: "k2"},
		Scraper: config.ScraperConfig{BaseURL: "https://news.example.com"},
	}
	providers := NewProviders(cfg)

	want := []string{core.SourceReddit, core.SourceNewsAPI, core.SourceSerpAPI, core.SourceScraper}
	if len(providers) != len(want) {
		t.Fatalf("got %d providers", len(providers))
	}
	for i, name := range want {
		if providers[i].Name() != name {
			t.Errorf("providers[%d] = %s, want %s", i, providers[i].Name(), name)
		}
	}
}

func TestNewsAPIMissingKey(t *testing.T) {
	p := NewNewsAPIProvider("")
	if _, err := p.Fetch(context.Background(), "ai"); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestSerpAPIMissingKey(t *testing.T) {
	p := NewSerpAPIProvider("")
	if _, err := p.Fetch(context.Background(), "ai"); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}

// fastRetry removes the delays so tests run quickly.
func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 3, Delay: time.Millisecond, Retryable: IsTransient}
}
