package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/eventhub/internal/app/system/htmlsanitize"
)

func TestSanitize_Empty(t *testing.T) {
	if got := htmlsanitize.Sanitize(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestSanitize_PlainText(t *testing.T) {
	if got := htmlsanitize.Sanitize("Número de documento"); got != "Número de documento" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestSanitize_KeepsInlineFormatting(t *testing.T) {
	input := "Acepto los <strong>términos</strong> y <em>condiciones</em>"
	if got := htmlsanitize.Sanitize(input); got != input {
		t.Errorf("expected inline formatting preserved, got %q", got)
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	got := htmlsanitize.Sanitize("Nombre<script>alert('xss')</script>")
	if got != "Nombre" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestSanitize_RemovesJavascriptHref(t *testing.T) {
	input := `<a href="javascript:alert('xss')">términos</a>`
	if got := htmlsanitize.Sanitize(input); strings.Contains(got, "javascript") {
		t.Errorf("expected javascript: href removed, got %q", got)
	}
}

func TestSanitize_KeepsSafeLinks(t *testing.T) {
	got := htmlsanitize.Sanitize(`Acepto los <a href="https://example.com/terms">términos</a>`)
	if !strings.Contains(got, "https://example.com/terms") || !strings.Contains(got, "nofollow") {
		t.Errorf("expected safe link with nofollow, got %q", got)
	}
}

func TestSanitize_RemovesBlockElements(t *testing.T) {
	got := htmlsanitize.Sanitize(`<div><iframe src="https://evil.com"></iframe>Ciudad</div>`)
	if strings.Contains(got, "iframe") || strings.Contains(got, "div") {
		t.Errorf("expected block elements removed, got %q", got)
	}
	if !strings.Contains(got, "Ciudad") {
		t.Errorf("expected text preserved, got %q", got)
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"Teléfono", "Teléfono"},
		{"<b>Nombres</b>", "Nombres"},
		{"Acepto <a href=\"https://x.co\">términos</a> &amp; condiciones", "Acepto términos & condiciones"},
		{"  Correo   electrónico ", "Correo electrónico"},
	}
	for _, tt := range tests {
		if got := htmlsanitize.PlainText(tt.input); got != tt.want {
			t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsPlainText(t *testing.T) {
	if !htmlsanitize.IsPlainText("") {
		t.Error("expected empty string to be plain text")
	}
	if !htmlsanitize.IsPlainText("Hello, World!") {
		t.Error("expected string without tags to be plain text")
	}
	if htmlsanitize.IsPlainText("<p>Hello</p>") {
		t.Error("expected string with tags to NOT be plain text")
	}
}
