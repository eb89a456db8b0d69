package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"dailybrief/internal/config"
	"dailybrief/internal/core"
	"dailybrief/internal/logger"
	"dailybrief/internal/retry"
)

const (
	redditBaseURL   = "https://www.reddit.com"
	redditMaxItems  = 10
	redditPerSubCap = 10
)

// RedditProvider searches a fixed set of subreddits through Reddit's public
// JSON API. No OAuth credentials are needed for read-only search.
type RedditProvider struct {
	userAgent  string
	subreddits []string
	client     *http.Client
	limiter    *rate.Limiter
	policy     retry.Policy
	baseURL    string
}

// NewRedditProvider creates a Reddit source client.
func NewRedditProvider(cfg config.RedditConfig) *RedditProvider {
	subs := cfg.Subreddits
	if len(subs) == 0 {
		subs = []string{"technology", "news", "worldnews"}
	}
	return &RedditProvider{
		userAgent:  cfg.UserAgent,
		subreddits: subs,
		client:     newHTTPClient(),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		policy:     defaultPolicy(),
		baseURL:    redditBaseURL,
	}
}

// Name returns the source tag.
func (p *RedditProvider) Name() string { return core.SourceReddit }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title      string  `json:"title"`
				SelfText   string  `json:"selftext"`
				URL        string  `json:"url"`
				Permalink  string  `json:"permalink"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Fetch searches each configured subreddit for the topic and returns up to
// redditMaxItems posts.
func (p *RedditProvider) Fetch(ctx context.Context, topic string) ([]core.SourceItem, error) {
	var items []core.SourceItem
	for _, sub := range p.subreddits {
		if len(items) >= redditMaxItems {
			break
		}
		listing, err := retry.Do(ctx, p.policy, func(ctx context.Context) (*redditListing, error) {
			return p.searchSubreddit(ctx, sub, topic)
		})
		if err != nil {
			logger.Warn("Reddit subreddit search failed", "subreddit", sub, "topic", topic, "error", err.Error())
			continue
		}

		now := time.Now().UTC()
		for _, child := range listing.Data.Children {
			d := child.Data
			if d.Title == "" {
				continue
			}
			snippet := strings.TrimSpace(d.SelfText)
			if snippet == "" {
				snippet = d.Title
			}
			link := d.URL
			if link == "" {
				link = p.baseURL + d.Permalink
			}
			items = append(items, core.SourceItem{
				Title:     d.Title,
				URL:       link,
				Snippet:   snippet,
				Source:    core.SourceReddit,
				FetchedAt: now,
			})
			if len(items) >= redditMaxItems {
				break
			}
		}
	}

	logger.Info("Reddit search finished", "topic", topic, "results", len(items))
	return items, nil
}

func (p *RedditProvider) searchSubreddit(ctx context.Context, sub, topic string) (*redditListing, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", topic)
	params.Set("restrict_sr", "1")
	params.Set("sort", "relevance")
	params.Set("limit", fmt.Sprintf("%d", redditPerSubCap))
	params.Set("raw_json", "1")
	reqURL := fmt.Sprintf("%s/r/%s/search.json?%s", p.baseURL, sub, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create reddit request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusToError("reddit", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to parse reddit response: %w", err)
	}
	return &listing, nil
}
