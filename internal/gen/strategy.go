package gen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"

	"dailybrief/internal/config"
	"dailybrief/internal/core"
	"dailybrief/internal/parse"
	"dailybrief/internal/prompt"
	"dailybrief/internal/retry"
)

// Strategy is one way of producing GeneratedContent for a topic. The marker
// and structured variants are interchangeable behind this interface; both
// honor the same completeness contract.
type Strategy interface {
	Generate(ctx context.Context, topic string, material core.CompiledMaterial, contentType core.ContentType) (*core.GeneratedContent, error)
}

// generationPolicy covers a whole generate-and-decode attempt: empty text,
// malformed output and incomplete content all count as retryable failures.
// Exhaustion surfaces the terminal error to the orchestrator.
func generationPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 5,
		Delay:       5 * time.Second,
	}
}

// NewStrategy selects the configured generation strategy.
func NewStrategy(cfg config.Config, generator TextGenerator) Strategy {
	if cfg.Gemini.Strategy == "markers" {
		return NewMarkerStrategy(generator, cfg.Content.TargetLanguages)
	}
	return NewStructuredStrategy(generator, cfg.Content.TargetLanguages)
}

// MarkerStrategy asks for free text in the marker grammar and parses it.
type MarkerStrategy struct {
	generator TextGenerator
	languages []string
	policy    retry.Policy
}

// NewMarkerStrategy creates the free-text strategy.
func NewMarkerStrategy(generator TextGenerator, languages []string) *MarkerStrategy {
	return &MarkerStrategy{
		generator: generator,
		languages: languages,
		policy:    generationPolicy(),
	}
}

// Generate implements Strategy.
func (s *MarkerStrategy) Generate(ctx context.Context, topic string, material core.CompiledMaterial, contentType core.ContentType) (*core.GeneratedContent, error) {
	p := prompt.Build(topic, material, contentType, s.languages)

	return retry.Do(ctx, s.policy, func(ctx context.Context) (*core.GeneratedContent, error) {
		raw, err := s.generator.GenerateText(ctx, p, nil)
		if err != nil {
			return nil, err
		}
		return parse.Parse(raw, s.languages)
	})
}

// StructuredStrategy constrains the model to a JSON response schema and
// decodes it strictly.
type StructuredStrategy struct {
	generator TextGenerator
	languages []string
	schema    *genai.Schema
	policy    retry.Policy
}

// NewStructuredStrategy creates the schema-constrained strategy.
func NewStructuredStrategy(generator TextGenerator, languages []string) *StructuredStrategy {
	return &StructuredStrategy{
		generator: generator,
		languages: languages,
		schema:    ContentSchema(languages),
		policy:    generationPolicy(),
	}
}

// Generate implements Strategy.
func (s *StructuredStrategy) Generate(ctx context.Context, topic string, material core.CompiledMaterial, contentType core.ContentType) (*core.GeneratedContent, error) {
	p := prompt.BuildStructured(topic, material, contentType, s.languages)

	return retry.Do(ctx, s.policy, func(ctx context.Context) (*core.GeneratedContent, error) {
		raw, err := s.generator.GenerateText(ctx, p, s.schema)
		if err != nil {
			return nil, err
		}
		return decodeStructured(raw, s.languages)
	})
}

// decodeStructured parses the JSON response, rejecting unknown fields and
// incomplete language coverage.
func decodeStructured(raw string, languages []string) (*core.GeneratedContent, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var content core.GeneratedContent
	if err := dec.Decode(&content); err != nil {
		return nil, fmt.Errorf("invalid structured response: %w", err)
	}
	if !content.Complete(languages) {
		return nil, fmt.Errorf("%w: structured response missing required language entries", parse.ErrIncompleteContent)
	}
	return &content, nil
}

// ContentSchema builds the response schema for GeneratedContent: four
// required objects, each with exactly one required string entry per target
// language.
func ContentSchema(languages []string) *genai.Schema {
	langProps := func() map[string]*genai.Schema {
		props := make(map[string]*genai.Schema, len(languages))
		for _, lang := range languages {
			props[lang] = &genai.Schema{Type: genai.TypeString}
		}
		return props
	}
	langObject := func(description string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeObject,
			Description: description,
			Properties:  langProps(),
			Required:    append([]string(nil), languages...),
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":           langObject("Post title per language, plain text"),
			"excerpt":         langObject("Short excerpt per language, plain text"),
			"content":         langObject("Post body per language, body-level HTML"),
			"metaDescription": langObject("SEO meta description per language, plain text"),
		},
		Required: []string{"title", "excerpt", "content", "metaDescription"},
	}
}
