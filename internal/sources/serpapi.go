package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"dailybrief/internal/core"
	"dailybrief/internal/logger"
	"dailybrief/internal/retry"
)

const (
	serpAPIBaseURL     = "https://serpapi.com/search"
	serpAPIOrganicCap  = 15
	serpAPITotalCap    = 25
	serpAPIRequestSize = 20
)

// SerpAPIProvider performs a Google web search through SerpAPI and merges
// organic and news results.
type SerpAPIProvider struct {
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	policy  retry.Policy
	baseURL string
}

// NewSerpAPIProvider creates a SerpAPI search provider.
func NewSerpAPIProvider(apiKey string) *SerpAPIProvider {
	return &SerpAPIProvider{
		apiKey:  apiKey,
		client:  newHTTPClient(),
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		policy:  defaultPolicy(),
		baseURL: serpAPIBaseURL,
	}
}

// Name returns the source tag.
func (p *SerpAPIProvider) Name() string { return core.SourceSerpAPI }

type serpAPIResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
}

type serpAPIResponse struct {
	OrganicResults []serpAPIResult `json:"organic_results"`
	NewsResults    []serpAPIResult `json:"news_results"`
	Error          string          `json:"error,omitempty"`
}

// Fetch searches Google via SerpAPI, taking up to serpAPIOrganicCap organic
// results and topping up with news results to serpAPITotalCap.
func (p *SerpAPIProvider) Fetch(ctx context.Context, topic string) ([]core.SourceItem, error) {
	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := retry.Do(ctx, p.policy, func(ctx context.Context) (*serpAPIResponse, error) {
		return p.search(ctx, topic)
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var items []core.SourceItem
	for _, r := range payload.OrganicResults {
		if r.Title == "" || r.Snippet == "" || r.Link == "" {
			continue
		}
		items = append(items, serpItem(r, now))
		if len(items) >= serpAPIOrganicCap {
			break
		}
	}
	for _, r := range payload.NewsResults {
		if len(items) >= serpAPITotalCap {
			break
		}
		if r.Title == "" || r.Snippet == "" || r.Link == "" {
			continue
		}
		items = append(items, serpItem(r, now))
	}

	logger.Info("SerpAPI search finished", "topic", topic, "results", len(items))
	return items, nil
}

func serpItem(r serpAPIResult, now time.Time) core.SourceItem {
	return core.SourceItem{
		Title:     r.Title,
		URL:       r.Link,
		Snippet:   r.Snippet,
		Source:    core.SourceSerpAPI,
		FetchedAt: now,
	}
}

func (p *SerpAPIProvider) search(ctx context.Context, topic string) (*serpAPIResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", topic)
	params.Set("engine", "google")
	params.Set("api_key", p.apiKey)
	params.Set("hl", "pt")
	params.Set("gl", "br")
	params.Set("num", fmt.Sprintf("%d", serpAPIRequestSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create SerpAPI request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute SerpAPI request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusToError("serpapi", resp.StatusCode)
	}

	var payload serpAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse SerpAPI response: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("SerpAPI error: %s", payload.Error)
	}
	return &payload, nil
}
