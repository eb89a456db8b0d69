// Package aggregate fans out the source clients concurrently and compiles
// their output into one bounded material blob for the prompt builder.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"dailybrief/internal/core"
	"dailybrief/internal/logger"
	"dailybrief/internal/sources"
)

// Aggregator runs every source client for a topic and merges the results.
// Merge order follows the provider order passed to New, never the order in
// which the concurrent fetches happen to finish.
type Aggregator struct {
	providers      []sources.Provider
	maxConcurrency int
	maxTextLen     int
	log            *slog.Logger
}

// New creates an aggregator over the given providers. maxConcurrency bounds
// the worker pool; maxTextLen bounds the compiled text.
func New(providers []sources.Provider, maxConcurrency, maxTextLen int) *Aggregator {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if maxTextLen < 1 {
		maxTextLen = 30000
	}
	return &Aggregator{
		providers:      providers,
		maxConcurrency: maxConcurrency,
		maxTextLen:     maxTextLen,
		log:            logger.Get(),
	}
}

// Aggregate fetches all sources concurrently, tolerating individual
// failures, and merges the survivors in provider priority order. An empty
// result is not an error at this layer; the orchestrator applies the
// insufficient-material policy.
func (a *Aggregator) Aggregate(ctx context.Context, topic string) core.CompiledMaterial {
	results := make([][]core.SourceItem, len(a.providers))

	sem := make(chan struct{}, a.maxConcurrency)
	var wg sync.WaitGroup

	for i, provider := range a.providers {
		wg.Add(1)
		sem <- struct{}{}

		go func(slot int, p sources.Provider) {
			defer wg.Done()
			defer func() { <-sem }()

			items, err := p.Fetch(ctx, topic)
			if err != nil {
				a.log.Warn("Source fetch failed, continuing without it",
					"source", p.Name(), "topic", topic, "error", err.Error())
				return
			}
			results[slot] = items
		}(i, provider)
	}

	wg.Wait()

	var blocks []string
	var urls []string
	seen := make(map[string]struct{})

	for _, items := range results {
		for _, item := range items {
			blocks = append(blocks, formatItem(item))
			if item.URL == "" {
				continue
			}
			if _, dup := seen[item.URL]; dup {
				continue
			}
			seen[item.URL] = struct{}{}
			urls = append(urls, item.URL)
		}
	}

	text := strings.Join(blocks, "\n\n")
	truncated := false
	if runes := []rune(text); len(runes) > a.maxTextLen {
		text = string(runes[:a.maxTextLen])
		truncated = true
		a.log.Warn("Compiled material truncated",
			"topic", topic, "max_len", a.maxTextLen, "original_len", len(runes))
	}

	a.log.Info("Aggregation finished",
		"topic", topic, "blocks", len(blocks), "unique_urls", len(urls), "truncated", truncated)

	return core.CompiledMaterial{
		Text:       text,
		SourceURLs: urls,
		Truncated:  truncated,
	}
}

// formatItem renders one source item as a uniform material block.
func formatItem(item core.SourceItem) string {
	date := ""
	if !item.FetchedAt.IsZero() {
		date = item.FetchedAt.UTC().Format(time.DateOnly)
	}
	return fmt.Sprintf("Title: %s\nSource: %s\nDate: %s\nURL: %s\n%s",
		item.Title, item.Source, date, item.URL, item.Snippet)
}
