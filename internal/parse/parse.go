// Package parse turns the model's marker-delimited multilingual text into a
// normalized GeneratedContent. It is a line-oriented state machine driven by
// a fixed marker table, so the grammar stays auditable and a new language or
// field is a table entry away.
package parse

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"dailybrief/internal/core"
)

// ErrIncompleteContent is returned when a required field is missing (or
// empty) for any target language. The caller treats this as a generation
// failure, never as partial success.
var ErrIncompleteContent = errors.New("generated content is incomplete")

type field int

const (
	fieldNone field = iota
	fieldTitle
	fieldExcerpt
	fieldContent
	fieldMetaDescription
)

// fieldMarkers maps marker lines to fields. [METADESCRIPTION] is a spelling
// variant some model outputs use.
var fieldMarkers = map[string]field{
	"[TITLE]":            fieldTitle,
	"[EXCERPT]":          fieldExcerpt,
	"[CONTENT]":          fieldContent,
	"[META_DESCRIPTION]": fieldMetaDescription,
	"[METADESCRIPTION]":  fieldMetaDescription,
}

// languageMarkerPrefix introduces a language block, e.g. "### PT".
const languageMarkerPrefix = "###"

type state int

const (
	seekingLanguage state = iota
	seekingField
	accumulatingField
)

// Parse walks raw line by line and returns the normalized content. Lines
// under a language outside targetLanguages are dropped until the next valid
// language marker; the accumulated text of each field is trimmed, with
// internal formatting preserved.
func Parse(raw string, targetLanguages []string) (*core.GeneratedContent, error) {
	content := &core.GeneratedContent{
		Title:           core.LanguageMap{},
		Excerpt:         core.LanguageMap{},
		Content:         core.LanguageMap{},
		MetaDescription: core.LanguageMap{},
	}

	targets := make(map[string]struct{}, len(targetLanguages))
	for _, lang := range targetLanguages {
		targets[strings.ToUpper(lang)] = struct{}{}
	}

	st := seekingLanguage
	currentLang := ""
	langWanted := false
	currentField := fieldNone
	var buf []string

	flush := func() {
		if !langWanted || currentField == fieldNone {
			buf = buf[:0]
			return
		}
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		if text == "" {
			return
		}
		switch currentField {
		case fieldTitle:
			content.Title[currentLang] = text
		case fieldExcerpt:
			content.Excerpt[currentLang] = text
		case fieldContent:
			content.Content[currentLang] = text
		case fieldMetaDescription:
			content.MetaDescription[currentLang] = text
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)

		if lang, ok := matchLanguageMarker(trimmed); ok {
			flush()
			currentLang = lang
			_, langWanted = targets[lang]
			currentField = fieldNone
			st = seekingField
			continue
		}

		if f, ok := fieldMarkers[strings.ToUpper(trimmed)]; ok {
			flush()
			currentField = f
			st = accumulatingField
			continue
		}

		if st == accumulatingField && langWanted && currentField != fieldNone {
			buf = append(buf, line)
		}
	}
	flush()

	if missing := missingEntries(content, targetLanguages); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteContent, strings.Join(missing, ", "))
	}
	return content, nil
}

// matchLanguageMarker reports whether the line opens a language block and
// returns the upper-cased language code.
func matchLanguageMarker(trimmed string) (string, bool) {
	if !strings.HasPrefix(trimmed, languageMarkerPrefix) {
		return "", false
	}
	code := strings.TrimSpace(strings.TrimPrefix(trimmed, languageMarkerPrefix))
	if code == "" || strings.ContainsAny(code, " \t") {
		return "", false
	}
	return strings.ToUpper(code), true
}

// missingEntries lists every absent field/language combination, sorted for
// stable error messages.
func missingEntries(c *core.GeneratedContent, langs []string) []string {
	var missing []string
	check := func(name string, m core.LanguageMap) {
		for _, lang := range langs {
			if strings.TrimSpace(m[strings.ToUpper(lang)]) == "" {
				missing = append(missing, name+"/"+strings.ToUpper(lang))
			}
		}
	}
	check("title", c.Title)
	check("excerpt", c.Excerpt)
	check("content", c.Content)
	check("metaDescription", c.MetaDescription)
	sort.Strings(missing)
	return missing
}
