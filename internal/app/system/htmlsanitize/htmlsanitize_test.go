package htmlsanitize

import (
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		excludes []string // Strings that should NOT be in output
	}{
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "plain text",
			input: "Buy milk",
			want:  "Buy milk",
		},
		{
			name:  "ampersand survives",
			input: "Tom & Jerry <3",
			want:  "Tom & Jerry <3",
		},
		{
			name:  "formatting stripped",
			input: "<p>Finish <strong>report</strong></p>",
			want:  "Finish report",
		},
		{
			name:     "script removed",
			input:    "Hello<script>alert('xss')</script>",
			want:     "Hello",
			excludes: []string{"script", "alert"},
		},
		{
			name:     "attributes removed",
			input:    `<a href="javascript:alert(1)" onclick="x()">Link</a>`,
			want:     "Link",
			excludes: []string{"javascript", "onclick"},
		},
		{
			name:  "whitespace trimmed",
			input: "  <b> padded </b>  ",
			want:  "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Text(tt.input)
			if got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Text(%q) = %q, should not contain %q", tt.input, got, s)
				}
			}
		})
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Error("TextPtr(nil) should be nil")
	}
	in := "<i>note</i>"
	got := TextPtr(&in)
	if got == nil || *got != "note" {
		t.Errorf("TextPtr() = %v, want note", got)
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"Hello World", true},
		{"a < b", true},
		{"<p>Hello</p>", false},
		{"x > y and y < z", false},
	}
	for _, tt := range tests {
		if got := IsPlainText(tt.input); got != tt.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
