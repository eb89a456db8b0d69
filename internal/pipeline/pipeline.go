// Package pipeline wires the automation run together: aggregate material for
// each topic, generate multilingual content, assemble post records and submit
// them to the backend, archiving payloads and an execution report as it goes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dailybrief/internal/aggregate"
	"dailybrief/internal/archive"
	"dailybrief/internal/backend"
	"dailybrief/internal/cache"
	"dailybrief/internal/config"
	"dailybrief/internal/core"
	"dailybrief/internal/gen"
	"dailybrief/internal/logger"
)

// Material below this many non-whitespace characters is not worth generating
// from; the topic is aborted instead of sending the model an empty prompt.
const minMaterialChars = 50

// defaultImage is the placeholder used when a topic configures no image.
const defaultImage = "https://dailybrief.com/images/default-post.jpg"

// ErrInsufficientMaterial aborts a topic whose aggregated material is too
// thin to generate from.
var ErrInsufficientMaterial = errors.New("insufficient source material")

// ErrDuplicateTitle skips a topic whose generated PT title already exists in
// the backend. Re-running the same topics must not create duplicate posts.
var ErrDuplicateTitle = errors.New("duplicate post title")

// Orchestrator runs the end-to-end automation flow.
type Orchestrator struct {
	cfg      *config.Config
	agg      *aggregate.Aggregator
	strategy gen.Strategy
	client   *backend.Client
	auth     *backend.Authenticator
	archiver *archive.Archiver
	topics   *cache.TopicCache
	now      func() time.Time
}

// New assembles an orchestrator. The topic cache and authenticator may be nil;
// a nil authenticator requires callers to pass headers to Run themselves.
func New(cfg *config.Config, agg *aggregate.Aggregator, strategy gen.Strategy,
	client *backend.Client, auth *backend.Authenticator,
	archiver *archive.Archiver, topics *cache.TopicCache) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		agg:      agg,
		strategy: strategy,
		client:   client,
		auth:     auth,
		archiver: archiver,
		topics:   topics,
		now:      time.Now,
	}
}

// materialFor returns aggregated material for the topic, consulting the topic
// cache when one is configured.
func (o *Orchestrator) materialFor(ctx context.Context, topic string) core.CompiledMaterial {
	if o.topics != nil {
		if material, ok := o.topics.Get(topic); ok {
			logger.Info("Using cached material", "topic", topic)
			return material
		}
	}
	material := o.agg.Aggregate(ctx, topic)
	if o.topics != nil && material.Text != "" {
		o.topics.Put(topic, material)
	}
	return material
}

// resolveContentType picks the content type for a topic: its own override
// when set, otherwise the configured output format. Unknown values fall back
// to summary.
func (o *Orchestrator) resolveContentType(topic core.TopicConfig) core.ContentType {
	raw := topic.ContentType
	if raw == "" {
		raw = o.cfg.Content.OutputFormat
	}
	contentType, ok := core.ParseContentType(raw)
	if !ok && strings.TrimSpace(raw) != "" {
		logger.Warn("Unknown content type, falling back to summary", "value", raw)
	}
	return contentType
}

// ProcessTopic generates the post records for one topic: the main record plus
// an optional social variant. existingTitles holds trimmed PT titles already
// present in the backend; a generated title that collides skips the topic
// with ErrDuplicateTitle.
func (o *Orchestrator) ProcessTopic(ctx context.Context, topic core.TopicConfig,
	existingTitles map[string]struct{}) ([]core.PostRecord, error) {

	material := o.materialFor(ctx, topic.Topic)
	if material.NonWhitespaceLen() < minMaterialChars {
		return nil, fmt.Errorf("%w for %q: %d non-whitespace characters",
			ErrInsufficientMaterial, topic.Topic, material.NonWhitespaceLen())
	}

	contentType := o.resolveContentType(topic)

	generated, err := o.strategy.Generate(ctx, topic.Topic, material, contentType)
	if err != nil {
		return nil, fmt.Errorf("generation failed for %q: %w", topic.Topic, err)
	}

	main := o.buildRecord(topic, contentType, generated, material)

	if contentType != core.ContentTypeSocial {
		title := strings.TrimSpace(main.Title["PT"])
		if _, exists := existingTitles[title]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTitle, title)
		}
	}

	records := []core.PostRecord{main}

	if topic.GenerateSocial && contentType != core.ContentTypeSocial {
		socialContent, err := o.strategy.Generate(ctx, topic.Topic, material, core.ContentTypeSocial)
		if err != nil {
			logger.Error("Social variant generation failed, keeping main post only", err,
				"topic", topic.Topic)
		} else {
			records = append(records, o.buildRecord(topic, core.ContentTypeSocial, socialContent, material))
		}
	}

	return records, nil
}

// buildRecord assembles a submittable post record, filling defaults for the
// optional topic fields.
func (o *Orchestrator) buildRecord(topic core.TopicConfig, contentType core.ContentType,
	generated *core.GeneratedContent, material core.CompiledMaterial) core.PostRecord {

	author := topic.Author
	if author == "" {
		author = o.cfg.Content.DefaultAuthor
	}
	if author == "" {
		author = "Equipe DailyBrief"
	}

	tags := topic.Tags
	if len(tags) == 0 {
		tags = []string{topic.Topic, "DailyBrief", "Automação"}
	}
	if contentType == core.ContentTypeSocial {
		tags = append(append([]string{}, tags...), "social")
	}

	category := topic.Category
	if category == "" {
		category = "Geral"
	}

	readTime := topic.ReadTime
	if readTime == "" {
		readTime = "5 min"
	}
	if contentType == core.ContentTypeSocial {
		readTime = "1 min"
	}

	status := o.cfg.Content.DefaultStatus
	if status == "" {
		status = core.StatusPending
	}

	affiliates := topic.AffiliateLinks
	if affiliates == nil {
		affiliates = map[string]string{}
	}

	image := topic.Image
	if image == "" {
		image = defaultImage
	}

	return core.PostRecord{
		Title:           generated.Title,
		Excerpt:         generated.Excerpt,
		Content:         generated.Content,
		Image:           image,
		Author:          author,
		Tags:            tags,
		Category:        category,
		MetaDescription: generated.MetaDescription,
		AffiliateLinks:  affiliates,
		Status:          status,
		PublishedAt:     core.UTCTimestamp(o.now()),
		ReadTime:        readTime,

		Topic:       topic.Topic,
		ContentType: contentType,
		Sources:     material.SourceURLs,
	}
}

// Run executes a full automation pass over the given topics. When headers is
// nil the orchestrator authenticates itself. The returned report is always
// non-nil; the error is non-nil only for failures that abort the whole run.
func (o *Orchestrator) Run(ctx context.Context, topics []core.TopicConfig,
	headers map[string]string) (*core.RunReport, error) {

	report := core.NewRunReport(o.now())

	if headers == nil {
		if o.auth == nil {
			err := errors.New("no authenticator configured and no headers supplied")
			return o.abortRun(report, err)
		}
		var err error
		headers, err = o.auth.AuthHeaders(ctx)
		if err != nil {
			return o.abortRun(report, fmt.Errorf("authentication failed: %w", err))
		}
	}

	if max := o.cfg.App.MaxTopicsPerRun; max > 0 && len(topics) > max {
		logger.Warn("Topic list truncated", "requested", len(topics), "max", max)
		report.Add(fmt.Sprintf("Topic list truncated to %d of %d", max, len(topics)))
		topics = topics[:max]
	}

	existing := map[string]struct{}{}
	for _, title := range o.client.ListExistingTitles(ctx, headers) {
		existing[title] = struct{}{}
	}

	for _, topic := range topics {
		records, err := o.ProcessTopic(ctx, topic, existing)
		if err != nil {
			if errors.Is(err, ErrDuplicateTitle) {
				logger.Info("Skipping topic with existing title", "topic", topic.Topic)
				report.Add(fmt.Sprintf("SKIPPED %q: %v", topic.Topic, err))
				continue
			}
			logger.Error("Topic processing failed", err, "topic", topic.Topic)
			report.Metrics.Failed++
			report.Add(fmt.Sprintf("FAILED %q: %v", topic.Topic, err))
			continue
		}
		o.submitRecords(ctx, records, headers, existing, report)
	}

	report.Add(fmt.Sprintf("Created: %d, Failed: %d", report.Metrics.Created, report.Metrics.Failed))

	if o.archiver != nil {
		o.archiver.SaveReport(report, false)
	}
	o.client.SubmitLog(ctx, backend.LogReport{
		Action:          "automation_run",
		Timestamp:       core.UTCTimestamp(o.now()),
		Level:           "INFO",
		ReportSummary:   report.Summary(),
		Metrics:         report.Metrics,
		DurationSeconds: o.now().Sub(report.StartedAt).Seconds(),
	}, headers)

	return report, nil
}

// submitRecords archives and submits a topic's records in order. The first
// record is the main post; a successful submit backfills the social variant's
// link before it is submitted.
func (o *Orchestrator) submitRecords(ctx context.Context, records []core.PostRecord,
	headers map[string]string, existing map[string]struct{}, report *core.RunReport) {

	var mainID int64
	for i := range records {
		record := &records[i]

		if i > 0 && mainID > 0 && o.cfg.Backend.PostLinkBase != "" {
			record.Link = fmt.Sprintf("%s%d", o.cfg.Backend.PostLinkBase, mainID)
		}

		if o.archiver != nil {
			if payload, err := backend.Payload(*record); err == nil {
				o.archiver.SavePayload(payload, record.Topic, record.ContentType)
			}
		}

		id, err := o.client.SubmitPost(ctx, *record, headers)
		if err != nil {
			logger.Error("Post submission failed", err,
				"topic", record.Topic, "content_type", string(record.ContentType))
			report.Metrics.Failed++
			report.Add(fmt.Sprintf("FAILED submit %q (%s): %v", record.Topic, record.ContentType, err))
			continue
		}
		if i == 0 {
			mainID = id
			existing[strings.TrimSpace(record.Title["PT"])] = struct{}{}
		}
		report.Metrics.Created++
		report.Metrics.Categories[record.Category]++
		report.Add(fmt.Sprintf("CREATED %q (%s) id=%d", record.Topic, record.ContentType, id))
		logger.Info("Post created",
			"topic", record.Topic, "content_type", string(record.ContentType), "id", id)
	}
}

// abortRun records a critical failure, archives an error report and returns
// the error.
func (o *Orchestrator) abortRun(report *core.RunReport, err error) (*core.RunReport, error) {
	logger.Error("Automation run aborted", err)
	report.Add("CRITICAL: " + err.Error())
	if o.archiver != nil {
		o.archiver.SaveReport(report, true)
	}
	return report, err
}
