package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"dailybrief/internal/core"
	"dailybrief/internal/logger"
	"dailybrief/internal/retry"
)

const scraperMaxItems = 8

// ScraperProvider is an auxiliary source that scrapes a configured news
// listing page and keeps the articles mentioning the topic. It expects the
// common listing markup: <article> elements with a headline link and an
// optional teaser paragraph.
type ScraperProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	policy  retry.Policy
}

// NewScraperProvider creates the HTML scraper source.
func NewScraperProvider(baseURL string) *ScraperProvider {
	return &ScraperProvider{
		baseURL: baseURL,
		client:  newHTTPClient(),
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		policy:  defaultPolicy(),
	}
}

// Name returns the source tag.
func (p *ScraperProvider) Name() string { return core.SourceScraper }

// Fetch downloads the listing page and extracts up to scraperMaxItems
// articles whose headline or teaser mentions the topic.
func (p *ScraperProvider) Fetch(ctx context.Context, topic string) ([]core.SourceItem, error) {
	doc, err := retry.Do(ctx, p.policy, func(ctx context.Context) (*goquery.Document, error) {
		return p.fetchListing(ctx)
	})
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(topic)
	now := time.Now().UTC()
	var items []core.SourceItem

	doc.Find("article").EachWithBreak(func(_ int, article *goquery.Selection) bool {
		link := article.Find("a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			title = strings.TrimSpace(article.Find("h1, h2, h3").First().Text())
		}
		href, _ := link.Attr("href")
		snippet := strings.TrimSpace(article.Find("p").First().Text())

		if title == "" || href == "" {
			return true
		}
		haystack := strings.ToLower(title + " " + snippet)
		if !strings.Contains(haystack, needle) {
			return true
		}
		if snippet == "" {
			snippet = title
		}

		items = append(items, core.SourceItem{
			Title:     title,
			URL:       p.absoluteURL(href),
			Snippet:   snippet,
			Source:    core.SourceScraper,
			FetchedAt: now,
		})
		return len(items) < scraperMaxItems
	})

	logger.Info("Scraper search finished", "topic", topic, "results", len(items))
	return items, nil
}

func (p *ScraperProvider) fetchListing(ctx context.Context) (*goquery.Document, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create scraper request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraper request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusToError("scraper", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}
	return doc, nil
}

// absoluteURL resolves href against the configured base URL.
func (p *ScraperProvider) absoluteURL(href string) string {
	base, err := url.Parse(p.baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
