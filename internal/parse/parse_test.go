package parse

import (
	"errors"
	"strings"
	"testing"
)

var targetLanguages = []string{"PT", "EN", "ES"}

func completeDocument() string {
	var b strings.Builder
	for _, lang := range targetLanguages {
		b.WriteString("### " + lang + "\n")
		b.WriteString("[TITLE]\nTitle " + lang + "\n")
		b.WriteString("[EXCERPT]\nExcerpt " + lang + "\n")
		b.WriteString("[CONTENT]\nContent " + lang + " line one\nline two\n")
		b.WriteString("[META_DESCRIPTION]\nMeta " + lang + "\n")
	}
	return b.String()
}

func TestParseCompleteDocument(t *testing.T) {
	content, err := Parse(completeDocument(), targetLanguages)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	for _, lang := range targetLanguages {
		if content.Title[lang] != "Title "+lang {
			t.Errorf("Title[%s] = %q", lang, content.Title[lang])
		}
		if content.MetaDescription[lang] != "Meta "+lang {
			t.Errorf("MetaDescription[%s] = %q", lang, content.MetaDescription[lang])
		}
	}

	// Multi-line field values keep their internal newlines.
	if content.Content["PT"] != "Content PT line one\nline two" {
		t.Errorf("Content[PT] = %q", content.Content["PT"])
	}
}

func TestParseMetaDescriptionSpellingVariant(t *testing.T) {
	raw := strings.ReplaceAll(completeDocument(), "[META_DESCRIPTION]", "[METADESCRIPTION]")

	content, err := Parse(raw, targetLanguages)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if content.MetaDescription["EN"] != "Meta EN" {
		t.Errorf("MetaDescription[EN] = %q", content.MetaDescription["EN"])
	}
}

func TestParseIgnoresUnrequestedLanguage(t *testing.T) {
	raw := completeDocument() +
		"### FR\n[TITLE]\nTitre FR\n[EXCERPT]\nx\n[CONTENT]\nx\n[META_DESCRIPTION]\nx\n"

	content, err := Parse(raw, targetLanguages)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, ok := content.Title["FR"]; ok {
		t.Error("unrequested language FR should be dropped")
	}
}

func TestParseMissingLanguageIsIncomplete(t *testing.T) {
	raw := strings.Replace(completeDocument(), "### ES", "### IGNORED_BY_SINGLE_TOKEN_RULE X", 1)

	_, err := Parse(raw, targetLanguages)
	if err == nil {
		t.Fatal("expected incomplete content error")
	}
	if !errors.Is(err, ErrIncompleteContent) {
		t.Errorf("expected ErrIncompleteContent, got %v", err)
	}
	if !strings.Contains(err.Error(), "ES") {
		t.Errorf("error should name the missing language: %v", err)
	}
}

func TestParseMissingFieldIsIncomplete(t *testing.T) {
	raw := strings.Replace(completeDocument(), "[EXCERPT]\nExcerpt EN\n", "", 1)

	_, err := Parse(raw, targetLanguages)
	if !errors.Is(err, ErrIncompleteContent) {
		t.Fatalf("expected ErrIncompleteContent, got %v", err)
	}
	if !strings.Contains(err.Error(), "excerpt/EN") {
		t.Errorf("error should name the missing entry: %v", err)
	}
}

func TestParseFlushesLastFieldAtEOF(t *testing.T) {
	// No trailing newline and no marker after the last value.
	raw := strings.TrimRight(completeDocument(), "\n")

	content, err := Parse(raw, targetLanguages)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if content.MetaDescription["ES"] != "Meta ES" {
		t.Errorf("MetaDescription[ES] = %q", content.MetaDescription["ES"])
	}
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse("", targetLanguages)
	if !errors.Is(err, ErrIncompleteContent) {
		t.Fatalf("expected ErrIncompleteContent, got %v", err)
	}
}

func TestParseTextBeforeFirstLanguageIgnored(t *testing.T) {
	raw := "Here is the content you asked for:\n\n" + completeDocument()

	content, err := Parse(raw, targetLanguages)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if content.Title["PT"] != "Title PT" {
		t.Errorf("Title[PT] = %q", content.Title["PT"])
	}
}
