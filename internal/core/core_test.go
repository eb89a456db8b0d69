package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseContentType(t *testing.T) {
	tests := []struct {
		in     string
		want   ContentType
		wantOK bool
	}{
		{"summary", ContentTypeSummary, true},
		{"Article", ContentTypeArticle, true},
		{"  SOCIAL  ", ContentTypeSocial, true},
		{"informative", ContentTypeInformative, true},
		{"", ContentTypeSummary, false},
		{"podcast", ContentTypeSummary, false},
	}
	for _, tt := range tests {
		got, ok := ParseContentType(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseContentType(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestUTCTimestamp(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	instant := time.Date(2025, 6, 1, 9, 30, 0, 123456789, loc)

	got := UTCTimestamp(instant)
	if got != "2025-06-01T12:30:00.123456Z" {
		t.Errorf("UTCTimestamp = %q", got)
	}
}

func TestNonWhitespaceLen(t *testing.T) {
	m := CompiledMaterial{Text: "  a b\tc\nd\r\n  "}
	if got := m.NonWhitespaceLen(); got != 4 {
		t.Errorf("NonWhitespaceLen = %d, want 4", got)
	}
}

func TestLanguageMapComplete(t *testing.T) {
	langs := []string{"PT", "EN", "ES"}

	full := LanguageMap{"PT": "a", "EN": "b", "ES": "c"}
	if !full.Complete(langs) {
		t.Error("full map should be complete")
	}

	blank := LanguageMap{"PT": "a", "EN": "   ", "ES": "c"}
	if blank.Complete(langs) {
		t.Error("whitespace-only entry should not count as complete")
	}

	missing := LanguageMap{"PT": "a", "ES": "c"}
	if missing.Complete(langs) {
		t.Error("missing entry should not count as complete")
	}
}

func TestGeneratedContentComplete(t *testing.T) {
	langs := []string{"PT", "EN"}
	full := LanguageMap{"PT": "x", "EN": "y"}

	content := &GeneratedContent{Title: full, Excerpt: full, Content: full, MetaDescription: full}
	if !content.Complete(langs) {
		t.Error("content with all fields should be complete")
	}

	content.MetaDescription = LanguageMap{"PT": "x"}
	if content.Complete(langs) {
		t.Error("content missing a meta description language should be incomplete")
	}

	var nilContent *GeneratedContent
	if nilContent.Complete(langs) {
		t.Error("nil content should be incomplete")
	}
}

func TestPostRecordInternalFieldsNotSerialized(t *testing.T) {
	post := PostRecord{
		Title:       LanguageMap{"PT": "t"},
		Topic:       "internal",
		ContentType: ContentTypeArticle,
		Sources:     []string{"http://a"},
		Link:        "http://b",
	}

	raw, err := json.Marshal(post)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, field := range []string{"Topic", "topic", "Sources", "sources", "Link", "link"} {
		if _, ok := m[field]; ok {
			t.Errorf("internal field %q leaked into JSON", field)
		}
	}
}

func TestRunReportSummary(t *testing.T) {
	report := NewRunReport(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	report.Add("line one")
	report.Add("line two")

	got := report.Summary()
	want := "Execution report - 2025-06-01 12:00:00\nline one\nline two"
	if got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}
