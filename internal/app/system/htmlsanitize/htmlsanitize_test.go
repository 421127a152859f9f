package htmlsanitize_test

import (
	"html/template"
	"testing"

	"github.com/dalemusser/pharmahub/internal/app/system/htmlsanitize"
)

func TestStrip_Empty(t *testing.T) {
	if got := htmlsanitize.Strip(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestStrip_PlainText(t *testing.T) {
	if got := htmlsanitize.Strip("El nombre es obligatorio"); got != "El nombre es obligatorio" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestStrip_RemovesTags(t *testing.T) {
	got := htmlsanitize.Strip("<b>RIF</b> duplicado<script>alert('xss')</script>")
	if got != "RIF duplicado" {
		t.Errorf("expected tags removed, got %q", got)
	}
}

func TestStrip_DecodesEntitiesOnce(t *testing.T) {
	got := htmlsanitize.Strip("Farmacia A & B <i>ya existe</i>")
	if got != "Farmacia A & B ya existe" {
		t.Errorf("expected decoded text, got %q", got)
	}
}

func TestStrip_RemovesAttributesWithTags(t *testing.T) {
	got := htmlsanitize.Strip(`<img src="x" onerror="alert('xss')">sin imagen`)
	if containsSubstring(got, "onerror") || got != "sin imagen" {
		t.Errorf("expected only text left, got %q", got)
	}
}

func TestPlainTextToHTML_Empty(t *testing.T) {
	result := htmlsanitize.PlainTextToHTML("")
	if result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

func TestPlainTextToHTML_SimpleText(t *testing.T) {
	result := htmlsanitize.PlainTextToHTML("Hello, World!")
	expected := "<p>Hello, World!</p>"
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestPlainTextToHTML_NewlinesConverted(t *testing.T) {
	result := htmlsanitize.PlainTextToHTML("Line 1\nLine 2\nLine 3")
	expected := "<p>Line 1<br>Line 2<br>Line 3</p>"
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestPlainTextToHTML_HTMLEscaped(t *testing.T) {
	result := htmlsanitize.PlainTextToHTML("<script>alert('xss')</script>")
	// Should escape HTML entities
	if containsSubstring(result, "<script>") {
		t.Error("expected HTML to be escaped")
	}
	if !containsSubstring(result, "&lt;") || !containsSubstring(result, "&gt;") {
		t.Error("expected < and > to be escaped")
	}
}

func TestPlainTextToHTML_AmpersandEscaped(t *testing.T) {
	result := htmlsanitize.PlainTextToHTML("A & B")
	expected := "<p>A &amp; B</p>"
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestPrepareForDisplay_Empty(t *testing.T) {
	result := htmlsanitize.PrepareForDisplay("")
	if result != "" {
		t.Errorf("expected empty template.HTML, got %q", result)
	}
}

func TestPrepareForDisplay_PlainText(t *testing.T) {
	result := htmlsanitize.PrepareForDisplay("Hello, World!")
	expected := template.HTML("<p>Hello, World!</p>")
	if result != expected {
		t.Errorf("expected %v, got %v", expected, result)
	}
}

func TestPrepareForDisplay_PlainTextWithNewlines(t *testing.T) {
	result := htmlsanitize.PrepareForDisplay("Line 1\nLine 2")
	expected := template.HTML("<p>Line 1<br>Line 2</p>")
	if result != expected {
		t.Errorf("expected %v, got %v", expected, result)
	}
}

func TestPrepareForDisplay_StripsMarkup(t *testing.T) {
	result := htmlsanitize.PrepareForDisplay("<p>Hola</p><script>alert('xss')</script>")
	expected := template.HTML("<p>Hola</p>")
	if result != expected {
		t.Errorf("expected %v, got %v", expected, result)
	}
}

func TestPrepareForDisplay_EscapesAmpersand(t *testing.T) {
	result := htmlsanitize.PrepareForDisplay("A & B")
	expected := template.HTML("<p>A &amp; B</p>")
	if result != expected {
		t.Errorf("expected %v, got %v", expected, result)
	}
}

// Helper function to check if a string contains a substring
func containsSubstring(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > 0 && containsSubstringHelper(s, substr))
}

func containsSubstringHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
