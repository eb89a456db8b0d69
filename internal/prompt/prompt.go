// Package prompt builds generation requests. Builders are pure functions:
// identical inputs always produce identical prompts, and the compiled
// material goes last so tail truncation can never eat the instructions.
package prompt

import (
	"fmt"
	"strings"

	"dailybrief/internal/core"
	"dailybrief/internal/logger"
)

// Language and field markers of the free-text output grammar. The parser in
// internal/parse consumes exactly this grammar.
const (
	LanguageMarkerPrefix  = "### "
	MarkerTitle           = "[TITLE]"
	MarkerExcerpt         = "[EXCERPT]"
	MarkerContent         = "[CONTENT]"
	MarkerMetaDescription = "[META_DESCRIPTION]"
)

// instructions keys content types to their generation instructions. Taken
// together with the output grammar they fully determine the model's task.
var instructions = map[core.ContentType]string{
	core.ContentTypeSummary: "Write a concise, informative summary of 3-5 paragraphs. " +
		"Use <p> tags for paragraphs. The content must be SEO friendly.",
	core.ContentTypeArticle: "Write a detailed, in-depth article of 8-15 paragraphs. " +
		"Use <p> tags for paragraphs and <h2>/<h3> tags for subheadings. " +
		"The content must be SEO friendly and draw on the source material.",
	core.ContentTypeSocial: "Write a short, engaging social media post of at most 3 paragraphs. " +
		"Use <p> tags for paragraphs. Keep it direct and attention grabbing, with a short title.",
	core.ContentTypeInformative: "Write an informative text of 5-10 paragraphs. " +
		"Use <p> tags for paragraphs and <ul>/<ol> lists where helpful. " +
		"Keep it clear and objective.",
}

// instructionFor resolves the per-type instructions, clamping unknown values
// to summary with a logged warning.
func instructionFor(contentType core.ContentType) string {
	if inst, ok := instructions[contentType]; ok {
		return inst
	}
	logger.Warn("Unknown content type, falling back to summary", "content_type", string(contentType))
	return instructions[core.ContentTypeSummary]
}

// Build constructs the free-text generation prompt: topic and instructions
// first, the strict marker grammar next, the compiled material verbatim last.
func Build(topic string, material core.CompiledMaterial, contentType core.ContentType, targetLanguages []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Based on the source material below, generate blog post content about '%s'.\n\n", topic)
	b.WriteString(instructionFor(contentType))
	b.WriteString("\n\n")

	b.WriteString("Produce the content in the following languages, in this order: ")
	b.WriteString(strings.Join(targetLanguages, ", "))
	b.WriteString(".\n\n")

	b.WriteString("Output grammar, follow it exactly:\n")
	b.WriteString("- Start each language block with a line containing only the marker '")
	b.WriteString(LanguageMarkerPrefix)
	b.WriteString("' followed by the language code (for example '### PT').\n")
	fmt.Fprintf(&b, "- Inside each language block emit the fields in this order, each opened by its marker line: %s, %s, %s, %s.\n",
		MarkerTitle, MarkerExcerpt, MarkerContent, MarkerMetaDescription)
	b.WriteString("- Put the field text on the lines after its marker. Do not add any other markers, numbering or commentary.\n")
	b.WriteString("- 'title', 'excerpt' and 'metaDescription' are plain text without HTML tags; 'content' uses the HTML tags described above, body-level tags only, no <html>, <head> or <body>, no CSS classes or inline styles.\n\n")

	b.WriteString("Source material:\n")
	b.WriteString(material.Text)

	return b.String()
}

// BuildStructured constructs the prompt for the structured JSON strategy,
// where the response schema is enforced by the generation API and the prompt
// only has to describe the content itself.
func BuildStructured(topic string, material core.CompiledMaterial, contentType core.ContentType, targetLanguages []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Based on the source material below, generate blog post content about '%s'.\n\n", topic)

	b.WriteString("Detailed output structure instructions:\n")
	fmt.Fprintf(&b, "1. The 'content' field (for %s) MUST be valid HTML.\n", strings.Join(targetLanguages, ", "))
	b.WriteString("   - Use semantic tags such as <p>, <h2>, <h3>, <ul>, <ol>, <li>, <strong>, <em> and <a>.\n")
	b.WriteString("   - For external links use <a href=\"FULL_URL\" target=\"_blank\" rel=\"noopener noreferrer\">link text</a>.\n")
	b.WriteString("   - Do NOT include CSS classes, ids or inline styles; styling is the frontend's job.\n")
	b.WriteString("   - Do NOT include <html>, <head> or <body> tags, only the article body HTML.\n")
	b.WriteString("2. The 'title', 'excerpt' and 'metaDescription' fields are plain text without any HTML tags.\n\n")

	b.WriteString(instructionFor(contentType))
	b.WriteString("\n\n")

	b.WriteString("Source material:\n")
	b.WriteString(material.Text)

	return b.String()
}
