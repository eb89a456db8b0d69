package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dailybrief/internal/config"
	"dailybrief/internal/core"
	"dailybrief/internal/logger"
	"dailybrief/internal/retry"
)

// Client performs the post and log calls against the backend API.
type Client struct {
	postsURL string
	logsURL  string
	client   *http.Client
	policy   retry.Policy
}

// NewClient creates a backend API client.
func NewClient(cfg config.Backend) *Client {
	return &Client{
		postsURL: cfg.PostsURL,
		logsURL:  cfg.LogsURL,
		client:   &http.Client{Timeout: cfg.RequestTimeout()},
		policy: retry.Policy{
			MaxAttempts: 3,
			Delay:       2 * time.Second,
		},
	}
}

// ListExistingTitles fetches the PT titles of existing posts for the
// duplicate gate. Best-effort: any failure logs a warning and returns an
// empty list, never an error.
func (c *Client) ListExistingTitles(ctx context.Context, headers map[string]string) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.postsURL, nil)
	if err != nil {
		logger.Warn("Failed to create existing-posts request", "error", err.Error())
		return nil
	}
	applyHeaders(req, headers)

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("Failed to fetch existing posts", "error", err.Error())
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Existing-posts request returned non-OK status", "status", resp.StatusCode)
		return nil
	}

	// The backend returns a Spring Page object; posts live under "content".
	var page struct {
		Content []struct {
			Title map[string]string `json:"title"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		logger.Warn("Failed to parse existing-posts response", "error", err.Error())
		return nil
	}

	var titles []string
	for _, post := range page.Content {
		if title := strings.TrimSpace(post.Title["PT"]); title != "" {
			titles = append(titles, title)
		}
	}
	logger.Info("Fetched existing post titles", "count", len(titles))
	return titles
}

// SubmitPost validates the post against the downstream schema and submits
// it with bounded retries. It returns the id assigned by the backend.
// Schema violations fail fast and are never retried.
func (c *Client) SubmitPost(ctx context.Context, post core.PostRecord, headers map[string]string) (int64, error) {
	payload, err := Payload(post)
	if err != nil {
		return 0, err
	}
	if err := ValidatePayload(payload); err != nil {
		return 0, fmt.Errorf("post payload rejected by schema validation: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode post payload: %w", err)
	}

	return retry.Do(ctx, c.policy, func(ctx context.Context) (int64, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.postsURL, bytes.NewReader(body))
		if err != nil {
			return 0, fmt.Errorf("failed to create post request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		applyHeaders(req, headers)

		resp, err := c.client.Do(req)
		if err != nil {
			return 0, fmt.Errorf("post request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return 0, fmt.Errorf("post request failed with status %d: %s", resp.StatusCode, string(detail))
		}

		var result struct {
			ID int64 `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return 0, fmt.Errorf("failed to parse post response: %w", err)
		}
		if result.ID == 0 {
			return 0, fmt.Errorf("backend did not return a post id")
		}
		return result.ID, nil
	})
}

// LogReport is the execution report pushed to the backend logs endpoint.
type LogReport struct {
	Action          string           `json:"action"`
	Timestamp       string           `json:"timestamp"`
	Level           string           `json:"level"`
	ReportSummary   string           `json:"report_summary,omitempty"`
	Metrics         *core.RunMetrics `json:"metrics,omitempty"`
	DurationSeconds float64          `json:"duration_seconds,omitempty"`
}

// SubmitLog pushes an execution report to the logs endpoint. Best-effort:
// skipped silently when no endpoint is configured, failures only logged.
func (c *Client) SubmitLog(ctx context.Context, report LogReport, headers map[string]string) {
	if c.logsURL == "" {
		logger.Warn("Logs endpoint not configured, skipping backend log submission")
		return
	}
	if report.Timestamp == "" {
		report.Timestamp = core.UTCTimestamp(time.Now())
	}

	body, err := json.Marshal(report)
	if err != nil {
		logger.Error("Failed to encode log report", err)
		return
	}

	_, err = retry.Do(ctx, c.policy, func(ctx context.Context) (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.logsURL, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to create log request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		applyHeaders(req, headers)

		resp, err := c.client.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("log request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return struct{}{}, fmt.Errorf("log request failed with status %d", resp.StatusCode)
		}
		return struct{}{}, nil
	})
	if err != nil {
		logger.Error("Failed to submit execution log to backend", err)
		return
	}
	logger.Info("Execution log submitted to backend")
}

func applyHeaders(req *http.Request, headers map[string]string) {
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}
