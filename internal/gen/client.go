// Package gen wraps the generative-language API. A Client performs raw text
// generation; a Strategy turns a topic plus compiled material into a
// validated GeneratedContent, retrying the whole attempt under a fixed
// policy.
package gen

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"dailybrief/internal/config"
)

// TextGenerator is the raw generation capability. Strategies depend on this
// interface so tests can substitute a fake model.
type TextGenerator interface {
	// GenerateText submits the prompt and returns the raw response text.
	// When schema is non-nil the response is constrained to JSON matching
	// it. An empty response is an error, never a success.
	GenerateText(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Client is the Gemini-backed TextGenerator.
type Client struct {
	gClient     *genai.Client
	modelName   string
	temperature float32
}

// NewClient creates a generation client from the Gemini configuration.
func NewClient(ctx context.Context, cfg config.Gemini) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required, set GEMINI_API_KEY or gemini.api_key")
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		gClient:     gClient,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// GenerateText implements TextGenerator.
func (c *Client) GenerateText(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	genConfig := &genai.GenerateContentConfig{}
	if c.temperature > 0 {
		temp := c.temperature
		genConfig.Temperature = &temp
	}
	if schema != nil {
		genConfig.ResponseMIMEType = "application/json"
		genConfig.ResponseSchema = schema
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}
