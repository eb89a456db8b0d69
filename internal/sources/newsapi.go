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
	newsAPIBaseURL  = "https://newsapi.org/v2/everything"
	newsAPIMaxItems = 20
	newsAPIPageSize = 10
)

// newsAPILanguages are queried in order; results accumulate across languages
// up to the provider cap.
var newsAPILanguages = []string{"pt", "en", "es"}

// NewsAPIProvider fetches news articles from NewsAPI in the three target
// languages.
type NewsAPIProvider struct {
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	policy  retry.Policy
	baseURL string
}

// NewNewsAPIProvider creates a NewsAPI source client.
func NewNewsAPIProvider(apiKey string) *NewsAPIProvider {
	return &NewsAPIProvider{
		apiKey:  apiKey,
		client:  newHTTPClient(),
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		policy:  defaultPolicy(),
		baseURL: newsAPIBaseURL,
	}
}

// Name returns the source tag.
func (p *NewsAPIProvider) Name() string { return core.SourceNewsAPI }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Fetch queries NewsAPI per language, sorted by relevancy, and returns up to
// newsAPIMaxItems articles that carry both a title and a description.
func (p *NewsAPIProvider) Fetch(ctx context.Context, topic string) ([]core.SourceItem, error) {
	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	var items []core.SourceItem
	for _, lang := range newsAPILanguages {
		if len(items) >= newsAPIMaxItems {
			break
		}
		payload, err := retry.Do(ctx, p.policy, func(ctx context.Context) (*newsAPIResponse, error) {
			return p.search(ctx, topic, lang)
		})
		if err != nil {
			logger.Warn("NewsAPI search failed", "language", lang, "topic", topic, "error", err.Error())
			continue
		}

		now := time.Now().UTC()
		for _, article := range payload.Articles {
			if article.Title == "" || article.Description == "" {
				continue
			}
			items = append(items, core.SourceItem{
				Title:     article.Title,
				URL:       article.URL,
				Snippet:   article.Description,
				Source:    core.SourceNewsAPI,
				FetchedAt: now,
			})
			if len(items) >= newsAPIMaxItems {
				break
			}
		}
	}

	logger.Info("NewsAPI search finished", "topic", topic, "results", len(items))
	return items, nil
}

func (p *NewsAPIProvider) search(ctx context.Context, topic, lang string) (*newsAPIResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", topic)
	params.Set("language", lang)
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", fmt.Sprintf("%d", newsAPIPageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create NewsAPI request: %w", err)
	}
	req.Header.Set("X-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("NewsAPI request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusToError("newsapi", resp.StatusCode)
	}

	var payload newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse NewsAPI response: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("NewsAPI error (%s): %s", payload.Code, payload.Message)
	}
	return &payload, nil
}
