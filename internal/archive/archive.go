// Package archive writes local audit artifacts: the JSON payload of every
// post before submission and the execution report of every run. Writes are
// fire-and-forget; failures are logged and never propagated.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"dailybrief/internal/core"
	"dailybrief/internal/logger"
)

// Archiver writes audit files under the configured output directory.
type Archiver struct {
	outputDir string
}

// New creates an archiver rooted at outputDir.
func New(outputDir string) *Archiver {
	return &Archiver{outputDir: outputDir}
}

// SavePayload writes a post payload as indented JSON to
// <out>/payloads/post_<topic>_<type>_<uuid>.json and returns the path, or
// an empty string on failure.
func (a *Archiver) SavePayload(payload any, topic string, contentType core.ContentType) string {
	dir := filepath.Join(a.outputDir, "payloads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("Failed to create payload dir", err, "dir", dir)
		return ""
	}

	name := fmt.Sprintf("post_%s_%s_%s.json", sanitize(topic), contentType, uuid.NewString())
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		logger.Error("Failed to encode payload for archival", err, "topic", topic)
		return ""
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Error("Failed to write payload file", err, "path", path)
		return ""
	}

	logger.Info("Payload archived", "path", path)
	return path
}

// SaveReport writes the run report to <out>/reports and returns the path,
// or an empty string on failure. Critical-error reports get a distinct
// file name prefix.
func (a *Archiver) SaveReport(report *core.RunReport, isError bool) string {
	dir := filepath.Join(a.outputDir, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("Failed to create report dir", err, "dir", dir)
		return ""
	}

	prefix := "report"
	if isError {
		prefix = "report_critical_error"
	}
	name := fmt.Sprintf("%s_%s.txt", prefix, time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(report.Summary()), 0o644); err != nil {
		logger.Error("Failed to write report file", err, "path", path)
		return ""
	}

	logger.Info("Report archived", "path", path)
	return path
}

// sanitize makes a topic safe for use in a file name.
func sanitize(topic string) string {
	r := strings.NewReplacer(" ", "_", "/", "_", "\\", "_")
	return r.Replace(topic)
}
