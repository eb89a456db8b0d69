// Package core defines the domain types shared across the automation
// pipeline: raw source material, compiled material, generated multilingual
// content and the post records submitted to the backend.
package core

import (
	"strings"
	"time"
)

// Source tags, in merge priority order. The aggregator always emits compiled
// material blocks in this order regardless of which client finishes first.
const (
	SourceReddit  = "reddit"
	SourceNewsAPI = "newsapi"
	SourceSerpAPI = "serpapi"
	SourceScraper = "scraper"
)

// DefaultTargetLanguages is the closed language set every generated field
// must cover. The backend DTO requires exactly these three keys.
var DefaultTargetLanguages = []string{"PT", "EN", "ES"}

// Post moderation statuses accepted by the backend.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// TimestampLayout renders UTC instants the way the backend's Instant
// deserializer expects them: microsecond precision with a 'Z' suffix.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// UTCTimestamp formats t as an ISO-8601 UTC string with microsecond precision.
func UTCTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ContentType controls generation instructions and output length/tone.
type ContentType string

const (
	ContentTypeSummary     ContentType = "summary"
	ContentTypeArticle     ContentType = "article"
	ContentTypeSocial      ContentType = "social"
	ContentTypeInformative ContentType = "informative"
)

// ParseContentType normalizes s into a known content type. Unknown or empty
// values report ok=false and fall back to summary; callers log the fallback.
func ParseContentType(s string) (ContentType, bool) {
	switch ContentType(strings.ToLower(strings.TrimSpace(s))) {
	case ContentTypeSummary:
		return ContentTypeSummary, true
	case ContentTypeArticle:
		return ContentTypeArticle, true
	case ContentTypeSocial:
		return ContentTypeSocial, true
	case ContentTypeInformative:
		return ContentTypeInformative, true
	default:
		return ContentTypeSummary, false
	}
}

// SourceItem is one unit of raw material fetched from an external source.
// Immutable once created; owned by the aggregator until merged.
type SourceItem struct {
	Title     string
	URL       string
	Snippet   string
	Source    string
	FetchedAt time.Time
}

// CompiledMaterial is the aggregation result for one topic attempt: the
// merged text blob fed to the model plus the deduplicated source URLs.
type CompiledMaterial struct {
	Text       string
	SourceURLs []string
	Truncated  bool
}

// NonWhitespaceLen counts the non-whitespace characters of the compiled text.
// The orchestrator treats material below a threshold as insufficient.
func (m CompiledMaterial) NonWhitespaceLen() int {
	n := 0
	for _, r := range m.Text {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			n++
		}
	}
	return n
}

// LanguageMap maps language codes (PT, EN, ES) to a text value.
type LanguageMap map[string]string

// Complete reports whether the map has a non-empty entry for every language
// in langs.
func (m LanguageMap) Complete(langs []string) bool {
	for _, lang := range langs {
		if strings.TrimSpace(m[lang]) == "" {
			return false
		}
	}
	return true
}

// GeneratedContent is the normalized output of one generation attempt.
// Content values are HTML fragments on the structured path and plain
// delimited text otherwise.
type GeneratedContent struct {
	Title           LanguageMap `json:"title"`
	Excerpt         LanguageMap `json:"excerpt"`
	Content         LanguageMap `json:"content"`
	MetaDescription LanguageMap `json:"metaDescription"`
}

// Complete reports whether all four fields cover every target language.
// A missing entry means the generation attempt failed, not a partial success.
func (g *GeneratedContent) Complete(langs []string) bool {
	if g == nil {
		return false
	}
	return g.Title.Complete(langs) &&
		g.Excerpt.Complete(langs) &&
		g.Content.Complete(langs) &&
		g.MetaDescription.Complete(langs)
}

// TopicConfig describes one topic to process. Optional fields fall back to
// pipeline defaults when empty.
type TopicConfig struct {
	Topic          string
	Category       string
	ContentType    string
	GenerateSocial bool
	Image          string
	Author         string
	Tags           []string
	ReadTime       string
	AffiliateLinks map[string]string
}

// PostRecord is the unit submitted downstream. Fields tagged json:"-" are
// internal bookkeeping and never reach the backend; the backend client builds
// a cleaned DTO restricted to the fields the post schema permits.
type PostRecord struct {
	Title           LanguageMap       `json:"title"`
	Excerpt         LanguageMap       `json:"excerpt"`
	Content         LanguageMap       `json:"content"`
	Image           string            `json:"image"`
	Author          string            `json:"author"`
	Tags            []string          `json:"tags"`
	Category        string            `json:"category"`
	MetaDescription LanguageMap       `json:"metaDescription"`
	AffiliateLinks  map[string]string `json:"affiliateLinks"`
	Status          string            `json:"status"`
	PublishedAt     string            `json:"publishedAt"`
	ReadTime        string            `json:"readTime"`

	Topic       string      `json:"-"`
	ContentType ContentType `json:"-"`
	Sources     []string    `json:"-"`
	Link        string      `json:"-"`
}

// RunMetrics accumulates counters for one automation run.
type RunMetrics struct {
	Created    int            `json:"created"`
	Failed     int            `json:"failed"`
	Retries    int            `json:"retries"`
	Categories map[string]int `json:"categories"`
}

// NewRunMetrics returns zeroed metrics with an allocated category map.
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{Categories: map[string]int{}}
}

// RunReport is the human-readable execution report assembled during a run,
// archived locally and optionally pushed to the backend logs endpoint.
type RunReport struct {
	Lines     []string
	Metrics   *RunMetrics
	StartedAt time.Time
}

// NewRunReport starts a report with a dated header line.
func NewRunReport(now time.Time) *RunReport {
	return &RunReport{
		Lines:     []string{"Execution report - " + now.Format("2006-01-02 15:04:05")},
		Metrics:   NewRunMetrics(),
		StartedAt: now,
	}
}

// Add appends a line to the report.
func (r *RunReport) Add(line string) {
	r.Lines = append(r.Lines, line)
}

// Summary renders the whole report as one string.
func (r *RunReport) Summary() string {
	return strings.Join(r.Lines, "\n")
}
