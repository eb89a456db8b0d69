package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dailybrief/internal/core"
)

func TestSavePayload(t *testing.T) {
	dir := t.TempDir()
	a := New(dir)

	payload := map[string]any{"status": "PENDING", "category": "Geral"}
	path := a.SavePayload(payload, "quantum computing", core.ContentTypeArticle)
	if path == "" {
		t.Fatal("SavePayload returned an empty path")
	}

	name := filepath.Base(path)
	if !strings.HasPrefix(name, "post_quantum_computing_article_") || !strings.HasSuffix(name, ".json") {
		t.Errorf("file name = %q", name)
	}
	if filepath.Dir(path) != filepath.Join(dir, "payloads") {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read archived payload: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("archived payload is not valid JSON: %v", err)
	}
	if decoded["status"] != "PENDING" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestSavePayloadUniqueNames(t *testing.T) {
	a := New(t.TempDir())

	first := a.SavePayload(map[string]any{}, "ai", core.ContentTypeSummary)
	second := a.SavePayload(map[string]any{}, "ai", core.ContentTypeSummary)
	if first == "" || second == "" || first == second {
		t.Errorf("paths should be distinct: %q vs %q", first, second)
	}
}

func TestSaveReport(t *testing.T) {
	dir := t.TempDir()
	a := New(dir)

	report := core.NewRunReport(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	report.Add("CREATED \"ai\" (summary) id=101")

	path := a.SaveReport(report, false)
	if path == "" {
		t.Fatal("SaveReport returned an empty path")
	}
	if !strings.HasPrefix(filepath.Base(path), "report_") {
		t.Errorf("file name = %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if !strings.Contains(string(data), "id=101") {
		t.Errorf("report content = %q", string(data))
	}
}

func TestSaveReportCriticalPrefix(t *testing.T) {
	a := New(t.TempDir())
	report := core.NewRunReport(time.Now())

	path := a.SaveReport(report, true)
	if !strings.HasPrefix(filepath.Base(path), "report_critical_error_") {
		t.Errorf("file name = %q", filepath.Base(path))
	}
}
