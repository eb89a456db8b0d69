package prompt

import (
	"strings"
	"testing"

	"dailybrief/internal/core"
)

func TestBuildIsDeterministic(t *testing.T) {
	material := core.CompiledMaterial{Text: "Title: A\nSource: reddit\nsome text"}
	langs := []string{"PT", "EN", "ES"}

	first := Build("quantum computing", material, core.ContentTypeArticle, langs)
	second := Build("quantum computing", material, core.ContentTypeArticle, langs)
	if first != second {
		t.Error("identical inputs should produce identical prompts")
	}
}

func TestBuildMaterialComesLast(t *testing.T) {
	material := core.CompiledMaterial{Text: "UNIQUE-MATERIAL-SENTINEL"}

	p := Build("ai", material, core.ContentTypeSummary, []string{"PT"})
	idx := strings.Index(p, material.Text)
	if idx == -1 {
		t.Fatal("prompt should contain the compiled material")
	}
	if !strings.HasSuffix(p, material.Text) {
		t.Error("compiled material should be the final section of the prompt")
	}
	for _, marker := range []string{MarkerTitle, MarkerExcerpt, MarkerContent, MarkerMetaDescription} {
		if mi := strings.Index(p, marker); mi == -1 || mi > idx {
			t.Errorf("marker %s should appear before the material", marker)
		}
	}
}

func TestBuildMentionsAllLanguages(t *testing.T) {
	p := Build("x", core.CompiledMaterial{Text: "t"}, core.ContentTypeSummary, []string{"PT", "EN", "ES"})
	if !strings.Contains(p, "PT, EN, ES") {
		t.Error("prompt should list the target languages in order")
	}
}

func TestInstructionForUnknownTypeFallsBack(t *testing.T) {
	got := instructionFor(core.ContentType("podcast"))
	if got != instructions[core.ContentTypeSummary] {
		t.Error("unknown content type should fall back to summary instructions")
	}
}

func TestBuildPerTypeInstructions(t *testing.T) {
	material := core.CompiledMaterial{Text: "t"}
	langs := []string{"PT"}

	tests := []struct {
		contentType core.ContentType
		want        string
	}{
		{core.ContentTypeSummary, "summary of 3-5 paragraphs"},
		{core.ContentTypeArticle, "article of 8-15 paragraphs"},
		{core.ContentTypeSocial, "social media post"},
		{core.ContentTypeInformative, "informative text"},
	}
	for _, tt := range tests {
		p := Build("x", material, tt.contentType, langs)
		if !strings.Contains(p, tt.want) {
			t.Errorf("%s prompt should contain %q", tt.contentType, tt.want)
		}
	}
}

func TestBuildStructuredHasHTMLRules(t *testing.T) {
	p := BuildStructured("x", core.CompiledMaterial{Text: "SENTINEL"}, core.ContentTypeArticle, []string{"PT", "EN", "ES"})
	if !strings.Contains(p, "MUST be valid HTML") {
		t.Error("structured prompt should state the HTML content rule")
	}
	if !strings.HasSuffix(p, "SENTINEL") {
		t.Error("structured prompt should end with the material")
	}
}
